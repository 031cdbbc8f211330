package vo

// RenditionStatus 单个档位产物的状态
type RenditionStatus string

const (
	RenditionStatusPending    RenditionStatus = "pending"
	RenditionStatusProcessing RenditionStatus = "processing"
	RenditionStatusCompleted  RenditionStatus = "completed"
	RenditionStatusFailed     RenditionStatus = "failed"
)

func (s RenditionStatus) String() string { return string(s) }

func (s RenditionStatus) IsValid() bool {
	switch s {
	case RenditionStatusPending, RenditionStatusProcessing, RenditionStatusCompleted, RenditionStatusFailed:
		return true
	}
	return false
}

// LogStatus 编码日志条目状态
type LogStatus string

const (
	LogStatusStarted   LogStatus = "started"
	LogStatusProgress  LogStatus = "progress"
	LogStatusCompleted LogStatus = "completed"
	LogStatusError     LogStatus = "error"
)

func (s LogStatus) String() string { return string(s) }

// IsTerminal 日志条目是否已结束
func (s LogStatus) IsTerminal() bool {
	return s == LogStatusCompleted || s == LogStatusError
}
