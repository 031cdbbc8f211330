package entity

import (
	"strings"
	"time"

	"encoding-service/ddd/domain/vo"
)

// EncodingLogEntity 一次档位编码尝试的日志
type EncodingLogEntity struct {
	id          uint64
	renditionID uint64
	assetUUID   string
	profileName string
	status      vo.LogStatus
	message     string
	progress    int
	commandLine string
	errorOutput string
	durationMs  int64
	createdAt   time.Time
	updatedAt   time.Time
}

type EncodingLogState struct {
	ID          uint64
	RenditionID uint64
	AssetUUID   string
	ProfileName string
	Status      vo.LogStatus
	Message     string
	Progress    int
	CommandLine string
	ErrorOutput string
	DurationMs  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewEncodingLogEntity(renditionID uint64, assetUUID, profileName, message string) *EncodingLogEntity {
	now := time.Now()
	return &EncodingLogEntity{
		renditionID: renditionID,
		assetUUID:   assetUUID,
		profileName: profileName,
		status:      vo.LogStatusStarted,
		message:     message,
		createdAt:   now,
		updatedAt:   now,
	}
}

func RestoreEncodingLog(s EncodingLogState) *EncodingLogEntity {
	return &EncodingLogEntity{
		id:          s.ID,
		renditionID: s.RenditionID,
		assetUUID:   s.AssetUUID,
		profileName: s.ProfileName,
		status:      s.Status,
		message:     s.Message,
		progress:    s.Progress,
		commandLine: s.CommandLine,
		errorOutput: s.ErrorOutput,
		durationMs:  s.DurationMs,
		createdAt:   s.CreatedAt,
		updatedAt:   s.UpdatedAt,
	}
}

func (l *EncodingLogEntity) ID() uint64           { return l.id }
func (l *EncodingLogEntity) SetID(id uint64)      { l.id = id }
func (l *EncodingLogEntity) RenditionID() uint64  { return l.renditionID }
func (l *EncodingLogEntity) AssetUUID() string    { return l.assetUUID }
func (l *EncodingLogEntity) ProfileName() string  { return l.profileName }
func (l *EncodingLogEntity) Status() vo.LogStatus { return l.status }
func (l *EncodingLogEntity) Message() string      { return l.message }
func (l *EncodingLogEntity) Progress() int        { return l.progress }
func (l *EncodingLogEntity) CommandLine() string  { return l.commandLine }
func (l *EncodingLogEntity) ErrorOutput() string  { return l.errorOutput }
func (l *EncodingLogEntity) DurationMs() int64    { return l.durationMs }
func (l *EncodingLogEntity) CreatedAt() time.Time { return l.createdAt }
func (l *EncodingLogEntity) UpdatedAt() time.Time { return l.updatedAt }

// AppendCommand 执行前记录完整命令行，多格式时逐行追加
func (l *EncodingLogEntity) AppendCommand(cmd string) {
	if l.commandLine == "" {
		l.commandLine = cmd
	} else {
		l.commandLine += "\n" + cmd
	}
	l.updatedAt = time.Now()
}

// AppendErrorOutput 追加某一格式失败时的 stderr
func (l *EncodingLogEntity) AppendErrorOutput(format vo.OutputFormat, stderr string) {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return
	}
	block := "[" + format.String() + "] " + stderr
	if l.errorOutput == "" {
		l.errorOutput = block
	} else {
		l.errorOutput += "\n" + block
	}
	l.updatedAt = time.Now()
}

func (l *EncodingLogEntity) UpdateProgress(p int) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	l.progress = p
	l.status = vo.LogStatusProgress
	l.updatedAt = time.Now()
}

func (l *EncodingLogEntity) Complete(message string, d time.Duration) {
	l.status = vo.LogStatusCompleted
	l.message = message
	l.progress = 100
	l.durationMs = d.Milliseconds()
	l.updatedAt = time.Now()
}

func (l *EncodingLogEntity) Fail(message string, d time.Duration) {
	l.status = vo.LogStatusError
	l.message = message
	l.durationMs = d.Milliseconds()
	l.updatedAt = time.Now()
}
