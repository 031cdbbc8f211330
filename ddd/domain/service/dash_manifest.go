package service

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// DASHNamespace MPD 默认命名空间
const DASHNamespace = "urn:mpeg:dash:schema:mpd:2011"

// MPD 根元素。未声明 XMLName，避免与显式的 xmlns 属性重复输出命名空间。
type MPD struct {
	Xmlns                     string    `xml:"xmlns,attr"`
	Profiles                  string    `xml:"profiles,attr,omitempty"`
	Type                      string    `xml:"type,attr,omitempty"`
	MediaPresentationDuration string    `xml:"mediaPresentationDuration,attr,omitempty"`
	MaxSegmentDuration        string    `xml:"maxSegmentDuration,attr,omitempty"`
	MinBufferTime             string    `xml:"minBufferTime,attr,omitempty"`
	Periods                   []*Period `xml:"Period"`
}

type Period struct {
	ID             string           `xml:"id,attr,omitempty"`
	Start          string           `xml:"start,attr,omitempty"`
	Duration       string           `xml:"duration,attr,omitempty"`
	AdaptationSets []*AdaptationSet `xml:"AdaptationSet"`
}

type AdaptationSet struct {
	ID                 string            `xml:"id,attr,omitempty"`
	ContentType        string            `xml:"contentType,attr,omitempty"`
	MimeType           string            `xml:"mimeType,attr,omitempty"`
	StartWithSAP       string            `xml:"startWithSAP,attr,omitempty"`
	SegmentAlignment   string            `xml:"segmentAlignment,attr,omitempty"`
	BitstreamSwitching string            `xml:"bitstreamSwitching,attr,omitempty"`
	FrameRate          string            `xml:"frameRate,attr,omitempty"`
	MaxWidth           int               `xml:"maxWidth,attr,omitempty"`
	MaxHeight          int               `xml:"maxHeight,attr,omitempty"`
	Par                string            `xml:"par,attr,omitempty"`
	Lang               string            `xml:"lang,attr,omitempty"`
	SegmentTemplate    *SegmentTemplate  `xml:"SegmentTemplate,omitempty"`
	Representations    []*Representation `xml:"Representation"`
}

type Representation struct {
	ID                        string                     `xml:"id,attr"`
	MimeType                  string                     `xml:"mimeType,attr,omitempty"`
	Codecs                    string                     `xml:"codecs,attr,omitempty"`
	Bandwidth                 int                        `xml:"bandwidth,attr"`
	Width                     int                        `xml:"width,attr,omitempty"`
	Height                    int                        `xml:"height,attr,omitempty"`
	Sar                       string                     `xml:"sar,attr,omitempty"`
	FrameRate                 string                     `xml:"frameRate,attr,omitempty"`
	AudioSamplingRate         string                     `xml:"audioSamplingRate,attr,omitempty"`
	AudioChannelConfiguration *AudioChannelConfiguration `xml:"AudioChannelConfiguration,omitempty"`
	SegmentTemplate           *SegmentTemplate           `xml:"SegmentTemplate,omitempty"`
}

type AudioChannelConfiguration struct {
	SchemeIDURI string `xml:"schemeIdUri,attr"`
	Value       string `xml:"value,attr"`
}

type SegmentTemplate struct {
	Timescale       int              `xml:"timescale,attr,omitempty"`
	Duration        int              `xml:"duration,attr,omitempty"`
	Initialization  string           `xml:"initialization,attr,omitempty"`
	Media           string           `xml:"media,attr,omitempty"`
	StartNumber     int              `xml:"startNumber,attr,omitempty"`
	SegmentTimeline *SegmentTimeline `xml:"SegmentTimeline,omitempty"`
}

type SegmentTimeline struct {
	S []S `xml:"S"`
}

// S 时间线条目，t 缺省表示紧接上一段
type S struct {
	T *int64 `xml:"t,attr,omitempty"`
	D int64  `xml:"d,attr"`
	R int    `xml:"r,attr,omitempty"`
}

// ParseMPD 解析单码率 MPD
func ParseMPD(data []byte) (*MPD, error) {
	var m MPD
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Marshal 输出带 XML 声明的 MPD
func (m *MPD) Marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// contentKind 判断 AdaptationSet 的媒体类型，兼容缺少 contentType 的旧版本输出
func (a *AdaptationSet) contentKind() string {
	if a.ContentType != "" {
		return a.ContentType
	}
	mime := a.MimeType
	if mime == "" && len(a.Representations) > 0 {
		mime = a.Representations[0].MimeType
	}
	if i := strings.Index(mime, "/"); i > 0 {
		return mime[:i]
	}
	return ""
}

// findStream 返回第一个指定类型的 AdaptationSet、Representation 及生效的 SegmentTemplate
func (m *MPD) findStream(kind string) (*AdaptationSet, *Representation, *SegmentTemplate) {
	for _, p := range m.Periods {
		for _, set := range p.AdaptationSets {
			if set.contentKind() != kind || len(set.Representations) == 0 {
				continue
			}
			rep := set.Representations[0]
			tmpl := rep.SegmentTemplate
			if tmpl == nil {
				tmpl = set.SegmentTemplate
			}
			return set, rep, tmpl
		}
	}
	return nil, nil, nil
}

// clone 深拷贝模板，避免修改源 MPD
func (t *SegmentTemplate) clone() *SegmentTemplate {
	if t == nil {
		return nil
	}
	c := *t
	if t.SegmentTimeline != nil {
		c.SegmentTimeline = &SegmentTimeline{S: append([]S(nil), t.SegmentTimeline.S...)}
	}
	return &c
}
