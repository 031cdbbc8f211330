package po

import "time"

// PipelineRun 流水线运行持久化对象
type PipelineRun struct {
	BaseModel
	RunUUID    string      `gorm:"column:run_uuid;type:varchar(36);uniqueIndex" json:"run_uuid"`
	AssetUUID  string      `gorm:"column:asset_uuid;type:varchar(36);index" json:"asset_uuid"`
	Stage      string      `gorm:"column:stage;type:varchar(20)" json:"stage"`
	Status     string      `gorm:"column:status;type:varchar(20);index" json:"status"`
	Attempts   int         `gorm:"column:attempts;type:int" json:"attempts"`
	Force      bool        `gorm:"column:force_encode" json:"force"`
	Profiles   JSONStrings `gorm:"column:profiles;type:text" json:"profiles"`
	LastError  string      `gorm:"column:last_error;type:text" json:"last_error"`
	FinishedAt *time.Time  `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

// TableName 指定表名
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}
