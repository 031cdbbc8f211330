package po

// VideoAttachment 业务实体与资产的关联
type VideoAttachment struct {
	BaseModel
	OwnerType string `gorm:"column:owner_type;type:varchar(64);uniqueIndex:uk_owner_field,priority:1" json:"owner_type"`
	OwnerID   string `gorm:"column:owner_id;type:varchar(64);uniqueIndex:uk_owner_field,priority:2" json:"owner_id"`
	FieldName string `gorm:"column:field_name;type:varchar(64);uniqueIndex:uk_owner_field,priority:3" json:"field_name"`
	AssetUUID string `gorm:"column:asset_uuid;type:varchar(36);index" json:"asset_uuid"`
}

// TableName 指定表名
func (VideoAttachment) TableName() string {
	return "video_attachments"
}

// AllModels AutoMigrate 使用的全部表
func AllModels() []interface{} {
	return []interface{}{&Asset{}, &Rendition{}, &EncodingLog{}, &PipelineRun{}, &VideoAttachment{}}
}
