package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	processRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "encoding",
			Name:      "process_runs_total",
			Help:      "External tool invocations by binary and outcome",
		},
		[]string{"binary", "outcome"},
	)

	processDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "encoding",
			Name:      "process_duration_seconds",
			Help:      "Wall time of external tool invocations",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800, 3600},
		},
		[]string{"binary"},
	)

	renditionResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "encoding",
			Name:      "renditions_total",
			Help:      "Rendition encode outcomes by profile",
		},
		[]string{"profile", "result"},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "encoding",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration",
			Buckets:   prometheus.ExponentialBuckets(0.5, 3, 10),
		},
		[]string{"stage", "result"},
	)

	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "encoding",
			Name:      "stage_queue_depth",
			Help:      "Pending stage tasks in the in-memory queue",
		},
		[]string{"queue"},
	)
)

// ObserveProcess 记录一次子进程调用
func ObserveProcess(binary, outcome string, d time.Duration) {
	processRuns.WithLabelValues(binary, outcome).Inc()
	processDuration.WithLabelValues(binary).Observe(d.Seconds())
}

// ObserveRendition 记录单个档位的结果: completed|failed|skipped
func ObserveRendition(profile, result string) {
	renditionResults.WithLabelValues(profile, result).Inc()
}

// ObserveStage 记录流水线阶段耗时
func ObserveStage(stage, result string, d time.Duration) {
	stageDuration.WithLabelValues(stage, result).Observe(d.Seconds())
}

// SetQueueDepth 更新队列深度
func SetQueueDepth(queue string, n int) {
	queueDepth.WithLabelValues(queue).Set(float64(n))
}

// Handler 默认注册表的抓取端点
func Handler() http.Handler { return promhttp.Handler() }
