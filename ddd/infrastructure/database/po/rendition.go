package po

// Rendition 档位产物持久化对象
type Rendition struct {
	BaseModel
	AssetUUID         string  `gorm:"column:asset_uuid;type:varchar(36);uniqueIndex:uk_asset_profile,priority:1" json:"asset_uuid"`
	ProfileName       string  `gorm:"column:profile_name;type:varchar(50);uniqueIndex:uk_asset_profile,priority:2" json:"profile_name"`
	Width             int     `gorm:"column:width" json:"width"`
	Height            int     `gorm:"column:height" json:"height"`
	Framerate         float64 `gorm:"column:framerate" json:"framerate"`
	Bitrate           string  `gorm:"column:bitrate;type:varchar(20)" json:"bitrate"`
	Codec             string  `gorm:"column:codec;type:varchar(50)" json:"codec"`
	CodecProfile      string  `gorm:"column:codec_profile;type:varchar(50)" json:"codec_profile"`
	CodecLevel        string  `gorm:"column:codec_level;type:varchar(20)" json:"codec_level"`
	ExportProgressive bool    `gorm:"column:export_progressive" json:"export_progressive"`
	ExportHLS         bool    `gorm:"column:export_hls" json:"export_hls"`
	ExportDASH        bool    `gorm:"column:export_dash" json:"export_dash"`
	ProgressivePath   string  `gorm:"column:progressive_path;type:varchar(512)" json:"progressive_path"`
	HLSPath           string  `gorm:"column:hls_path;type:varchar(512)" json:"hls_path"`
	DASHPath          string  `gorm:"column:dash_path;type:varchar(512)" json:"dash_path"`
	Encoded           bool    `gorm:"column:encoded" json:"encoded"`
	Status            string  `gorm:"column:status;type:varchar(20);index" json:"status"`
	FileSize          int64   `gorm:"column:file_size" json:"file_size"`
	ErrorMessage      string  `gorm:"column:error_message;type:text" json:"error_message"`
}

// TableName 指定表名
func (Rendition) TableName() string {
	return "renditions"
}
