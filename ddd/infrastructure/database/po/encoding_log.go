package po

// EncodingLog 编码日志持久化对象
type EncodingLog struct {
	BaseModel
	RenditionID uint64 `gorm:"column:rendition_id;index" json:"rendition_id"`
	AssetUUID   string `gorm:"column:asset_uuid;type:varchar(36);index" json:"asset_uuid"`
	ProfileName string `gorm:"column:profile_name;type:varchar(50)" json:"profile_name"`
	Status      string `gorm:"column:status;type:varchar(20)" json:"status"`
	Message     string `gorm:"column:message;type:varchar(255)" json:"message"`
	Progress    int    `gorm:"column:progress;type:int" json:"progress"`
	CommandLine string `gorm:"column:command_line;type:text" json:"command_line"`
	ErrorOutput string `gorm:"column:error_output;type:text" json:"error_output"`
	DurationMs  int64  `gorm:"column:duration_ms" json:"duration_ms"`
}

// TableName 指定表名
func (EncodingLog) TableName() string {
	return "encoding_logs"
}
