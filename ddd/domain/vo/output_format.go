package vo

// OutputFormat 编码输出格式
type OutputFormat string

const (
	FormatProgressive OutputFormat = "progressive"
	FormatHLS         OutputFormat = "hls"
	FormatDASH        OutputFormat = "dash"
)

// AllFormats 按编码顺序列出全部格式
var AllFormats = []OutputFormat{FormatProgressive, FormatHLS, FormatDASH}

func (f OutputFormat) String() string { return string(f) }

func (f OutputFormat) IsValid() bool {
	return f == FormatProgressive || f == FormatHLS || f == FormatDASH
}

// ExportFlags 单个 rendition 的导出开关
type ExportFlags struct {
	Progressive bool `json:"progressive"`
	HLS         bool `json:"hls"`
	DASH        bool `json:"dash"`
}

// Enabled 返回开启的格式，顺序固定
func (e ExportFlags) Enabled() []OutputFormat {
	out := make([]OutputFormat, 0, 3)
	if e.Progressive {
		out = append(out, FormatProgressive)
	}
	if e.HLS {
		out = append(out, FormatHLS)
	}
	if e.DASH {
		out = append(out, FormatDASH)
	}
	return out
}

// Any 是否至少开启一种格式
func (e ExportFlags) Any() bool { return e.Progressive || e.HLS || e.DASH }
