package gateway

import "context"

// AssetEvent 资产终态事件
type AssetEvent struct {
	Type         string   `json:"type"`
	AssetUUID    string   `json:"asset_uuid"`
	RunUUID      string   `json:"run_uuid,omitempty"`
	Status       string   `json:"status"`
	Renditions   []string `json:"renditions,omitempty"`
	HLSManifest  string   `json:"hls_manifest,omitempty"`
	DASHManifest string   `json:"dash_manifest,omitempty"`
	Error        string   `json:"error,omitempty"`
	Timestamp    int64    `json:"timestamp"`
}

const (
	EventAssetCompleted = "asset.completed"
	EventAssetFailed    = "asset.failed"
	EventAssetPublished = "asset.published"
)

// AssetEventReporter 通知下游资产处理结果
type AssetEventReporter interface {
	Report(ctx context.Context, event AssetEvent) error
}
