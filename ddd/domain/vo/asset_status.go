package vo

// AssetStatus 视频资产状态
type AssetStatus string

const (
	// AssetStatusUploaded 上传完成，尚未进入流水线
	AssetStatusUploaded AssetStatus = "uploaded"
	// AssetStatusPending 已入队
	AssetStatusPending AssetStatus = "pending"
	// AssetStatusProcessing 编码中
	AssetStatusProcessing AssetStatus = "processing"
	// AssetStatusCompleted 至少一个 rendition 可用
	AssetStatusCompleted AssetStatus = "completed"
	// AssetStatusFailed 编码阶段没有产出
	AssetStatusFailed AssetStatus = "failed"
)

// IsValid 检查状态是否有效
func (s AssetStatus) IsValid() bool {
	switch s {
	case AssetStatusUploaded, AssetStatusPending, AssetStatusProcessing,
		AssetStatusCompleted, AssetStatusFailed:
		return true
	default:
		return false
	}
}

// String 返回状态字符串
func (s AssetStatus) String() string {
	return string(s)
}

// IsFinalStatus 检查是否为最终状态
func (s AssetStatus) IsFinalStatus() bool {
	return s == AssetStatusCompleted || s == AssetStatusFailed
}

// CanTransitionTo 检查是否可以转换到目标状态；终态可以重新入队
func (s AssetStatus) CanTransitionTo(target AssetStatus) bool {
	switch s {
	case AssetStatusUploaded:
		return target == AssetStatusPending
	case AssetStatusPending:
		return target == AssetStatusProcessing || target == AssetStatusFailed
	case AssetStatusProcessing:
		return target == AssetStatusCompleted || target == AssetStatusFailed
	case AssetStatusCompleted, AssetStatusFailed:
		return target == AssetStatusPending
	default:
		return false
	}
}
