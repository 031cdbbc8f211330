package vo

// SpriteSheet 拖动预览雪碧图描述
type SpriteSheet struct {
	Path        string  `json:"path"`
	Columns     int     `json:"columns"`
	Rows        int     `json:"rows"`
	Interval    float64 `json:"interval"`
	FrameWidth  int     `json:"frame_width"`
	FrameHeight int     `json:"frame_height"`
}

// IsEmpty 尚未生成
func (s SpriteSheet) IsEmpty() bool { return s.Path == "" }
