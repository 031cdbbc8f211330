package po

import "time"

// Asset 视频资产持久化对象
type Asset struct {
	BaseModel
	AssetUUID        string     `gorm:"column:asset_uuid;type:varchar(36);uniqueIndex" json:"asset_uuid"`
	Title            string     `gorm:"column:title;type:varchar(255)" json:"title"`
	Status           string     `gorm:"column:status;type:varchar(20);index" json:"status"`
	SourcePath       string     `gorm:"column:source_path;type:varchar(512)" json:"source_path"`
	Duration         float64    `gorm:"column:duration" json:"duration"`
	Width            int        `gorm:"column:width" json:"width"`
	Height           int        `gorm:"column:height" json:"height"`
	Framerate        float64    `gorm:"column:framerate" json:"framerate"`
	Bitrate          int64      `gorm:"column:bitrate" json:"bitrate"`
	ThumbnailPath    string     `gorm:"column:thumbnail_path;type:varchar(512)" json:"thumbnail_path"`
	SpritePath       string     `gorm:"column:sprite_path;type:varchar(512)" json:"sprite_path"`
	SpriteColumns    int        `gorm:"column:sprite_columns" json:"sprite_columns"`
	SpriteRows       int        `gorm:"column:sprite_rows" json:"sprite_rows"`
	SpriteInterval   float64    `gorm:"column:sprite_interval" json:"sprite_interval"`
	SpriteWidth      int        `gorm:"column:sprite_width" json:"sprite_width"`
	SpriteHeight     int        `gorm:"column:sprite_height" json:"sprite_height"`
	HLSManifestPath  string     `gorm:"column:hls_manifest_path;type:varchar(512)" json:"hls_manifest_path"`
	DASHManifestPath string     `gorm:"column:dash_manifest_path;type:varchar(512)" json:"dash_manifest_path"`
	ABRProfiles      JSONMap    `gorm:"column:abr_profiles;type:text" json:"abr_profiles"`
	ErrorMessage     string     `gorm:"column:error_message;type:text" json:"error_message"`
	DeletedAt        *time.Time `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (Asset) TableName() string {
	return "assets"
}
