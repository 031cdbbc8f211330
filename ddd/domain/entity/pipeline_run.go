package entity

import (
	"time"

	"github.com/google/uuid"

	"encoding-service/ddd/domain/vo"
)

// PipelineRunEntity 一次流水线运行，记录当前阶段以便崩溃后恢复
type PipelineRunEntity struct {
	id         uint64
	runUUID    string
	assetUUID  string
	stage      vo.PipelineStage
	status     vo.RunStatus
	attempts   int
	force      bool
	profiles   []string
	lastError  string
	createdAt  time.Time
	updatedAt  time.Time
	finishedAt *time.Time
}

type PipelineRunState struct {
	ID         uint64
	RunUUID    string
	AssetUUID  string
	Stage      vo.PipelineStage
	Status     vo.RunStatus
	Attempts   int
	Force      bool
	Profiles   []string
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	FinishedAt *time.Time
}

func NewPipelineRunEntity(assetUUID string, force bool, profiles []string) *PipelineRunEntity {
	now := time.Now()
	return &PipelineRunEntity{
		runUUID:   uuid.NewString(),
		assetUUID: assetUUID,
		stage:     vo.StageEncode,
		status:    vo.RunStatusRunning,
		force:     force,
		profiles:  profiles,
		createdAt: now,
		updatedAt: now,
	}
}

func RestorePipelineRun(s PipelineRunState) *PipelineRunEntity {
	return &PipelineRunEntity{
		id:         s.ID,
		runUUID:    s.RunUUID,
		assetUUID:  s.AssetUUID,
		stage:      s.Stage,
		status:     s.Status,
		attempts:   s.Attempts,
		force:      s.Force,
		profiles:   s.Profiles,
		lastError:  s.LastError,
		createdAt:  s.CreatedAt,
		updatedAt:  s.UpdatedAt,
		finishedAt: s.FinishedAt,
	}
}

func (r *PipelineRunEntity) ID() uint64              { return r.id }
func (r *PipelineRunEntity) SetID(id uint64)         { r.id = id }
func (r *PipelineRunEntity) RunUUID() string         { return r.runUUID }
func (r *PipelineRunEntity) AssetUUID() string       { return r.assetUUID }
func (r *PipelineRunEntity) Stage() vo.PipelineStage { return r.stage }
func (r *PipelineRunEntity) Status() vo.RunStatus    { return r.status }
func (r *PipelineRunEntity) Attempts() int           { return r.attempts }
func (r *PipelineRunEntity) Force() bool             { return r.force }
func (r *PipelineRunEntity) Profiles() []string      { return r.profiles }
func (r *PipelineRunEntity) LastError() string       { return r.lastError }
func (r *PipelineRunEntity) CreatedAt() time.Time    { return r.createdAt }
func (r *PipelineRunEntity) UpdatedAt() time.Time    { return r.updatedAt }
func (r *PipelineRunEntity) FinishedAt() *time.Time  { return r.finishedAt }
func (r *PipelineRunEntity) IsActive() bool          { return r.status == vo.RunStatusRunning }

// RecordAttempt 阶段开始执行
func (r *PipelineRunEntity) RecordAttempt() {
	r.attempts++
	r.updatedAt = time.Now()
}

// RecordError 阶段失败但仍可继续
func (r *PipelineRunEntity) RecordError(msg string) {
	r.lastError = msg
	r.updatedAt = time.Now()
}

// Advance 进入下一阶段；到达 done 时运行结束
func (r *PipelineRunEntity) Advance(next vo.PipelineStage) {
	now := time.Now()
	r.stage = next
	r.attempts = 0
	r.updatedAt = now
	if next == vo.StageDone {
		r.status = vo.RunStatusCompleted
		r.finishedAt = &now
	}
}

// Fail 运行终止
func (r *PipelineRunEntity) Fail(msg string) {
	now := time.Now()
	r.status = vo.RunStatusFailed
	r.lastError = msg
	r.updatedAt = now
	r.finishedAt = &now
}

// Touch 刷新心跳时间，避免被恢复任务误判为停滞
func (r *PipelineRunEntity) Touch() { r.updatedAt = time.Now() }
