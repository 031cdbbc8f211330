package vo

// StageTask 队列中的阶段任务
type StageTask struct {
	RunUUID   string        `json:"run_uuid"`
	AssetUUID string        `json:"asset_uuid"`
	Stage     PipelineStage `json:"stage"`
	Attempt   int           `json:"attempt"`
	Force     bool          `json:"force"`
	Profiles  []string      `json:"profiles,omitempty"`
}

// NextStage 构造下一阶段任务
func (t StageTask) NextStage(stage PipelineStage) StageTask {
	return StageTask{
		RunUUID:   t.RunUUID,
		AssetUUID: t.AssetUUID,
		Stage:     stage,
		Attempt:   1,
		Force:     t.Force,
		Profiles:  t.Profiles,
	}
}
