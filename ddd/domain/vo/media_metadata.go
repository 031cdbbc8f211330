package vo

// MediaMetadata 源文件探测结果
type MediaMetadata struct {
	Duration  float64 `json:"duration"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Framerate float64 `json:"framerate"`
	Bitrate   int64   `json:"bitrate"`
}

// IsZero 元数据尚未探测
func (m MediaMetadata) IsZero() bool {
	return m.Duration <= 0 && m.Width == 0 && m.Height == 0
}
