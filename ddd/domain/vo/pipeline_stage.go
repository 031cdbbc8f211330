package vo

// PipelineStage 流水线阶段
type PipelineStage string

const (
	StageEncode    PipelineStage = "encode"
	StageThumbnail PipelineStage = "thumbnail"
	StageSprite    PipelineStage = "sprite"
	StageManifest  PipelineStage = "manifest"
	StagePublish   PipelineStage = "publish"
	// StageDone 表示链路已走完
	StageDone PipelineStage = "done"
)

func (s PipelineStage) String() string { return string(s) }

func (s PipelineStage) IsValid() bool {
	switch s {
	case StageEncode, StageThumbnail, StageSprite, StageManifest, StagePublish, StageDone:
		return true
	}
	return false
}

// Next 返回下一阶段；publish 仅在开启对象存储镜像时出现
func (s PipelineStage) Next(publish bool) PipelineStage {
	switch s {
	case StageEncode:
		return StageThumbnail
	case StageThumbnail:
		return StageSprite
	case StageSprite:
		return StageManifest
	case StageManifest:
		if publish {
			return StagePublish
		}
		return StageDone
	default:
		return StageDone
	}
}

// RunStatus 流水线运行状态
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

func (s RunStatus) String() string { return string(s) }

func (s RunStatus) IsFinal() bool { return s == RunStatusCompleted || s == RunStatusFailed }
