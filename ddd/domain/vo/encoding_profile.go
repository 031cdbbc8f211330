package vo

import (
	"fmt"
	"strconv"
	"strings"
)

// EncodingProfile 编码档位
type EncodingProfile struct {
	Name      string  `json:"name"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Framerate float64 `json:"framerate"`
	Bitrate   string  `json:"bitrate"`
	Codec     string  `json:"codec"`
	Profile   string  `json:"profile"`
	Level     string  `json:"level"`
}

// Pixels 像素数
func (p EncodingProfile) Pixels() int { return p.Width * p.Height }

// BandwidthBps 声明码率，无法解析时返回 0
func (p EncodingProfile) BandwidthBps() int {
	bps, err := ParseBitrateToBps(p.Bitrate)
	if err != nil {
		return 0
	}
	return bps
}

// ProfileCatalog 有序档位目录，顺序即配置顺序
type ProfileCatalog []EncodingProfile

// Lookup 按名称查找档位
func (c ProfileCatalog) Lookup(name string) (EncodingProfile, bool) {
	for _, p := range c {
		if p.Name == name {
			return p, true
		}
	}
	return EncodingProfile{}, false
}

// Names 按顺序返回全部档位名
func (c ProfileCatalog) Names() []string {
	out := make([]string, 0, len(c))
	for _, p := range c {
		out = append(out, p.Name)
	}
	return out
}

// ParseBitrateToBps 将 "2000k"/"2M"/"2000kbps"/"2mbps" 等解析为 bps
func ParseBitrateToBps(bitrate string) (int, error) {
	s := strings.TrimSpace(strings.ToLower(bitrate))
	if s == "" {
		return 0, fmt.Errorf("empty bitrate")
	}

	factor := 1.0
	switch {
	case strings.HasSuffix(s, "kbps"):
		factor = 1000
		s = strings.TrimSuffix(s, "kbps")
	case strings.HasSuffix(s, "mbps"):
		factor = 1000 * 1000
		s = strings.TrimSuffix(s, "mbps")
	case strings.HasSuffix(s, "k"):
		factor = 1000
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		factor = 1000 * 1000
		s = strings.TrimSuffix(s, "m")
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid bitrate: %s", bitrate)
	}
	return int(v * factor), nil
}

// TierBandwidthBps 按分辨率分档估算带宽
func TierBandwidthBps(height int) int {
	switch {
	case height >= 2160:
		return 8_000_000
	case height >= 1080:
		return 3_000_000
	case height >= 720:
		return 1_500_000
	default:
		return 800_000
	}
}

// FormatFramerate 以 ffmpeg 可接受的方式输出帧率
func FormatFramerate(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}
