package observability

import (
	"os"
	"strings"

	"github.com/grafana/pyroscope-go"

	"encoding-service/pkg/logger"
)

// StartProfiling 在配置了 PYROSCOPE_SERVER_ADDRESS 时开启持续性能剖析
func StartProfiling(appName string) *pyroscope.Profiler {
	addr := strings.TrimSpace(os.Getenv("PYROSCOPE_SERVER_ADDRESS"))
	if addr == "" {
		return nil
	}
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   addr,
		Tags:            map[string]string{"hostname": hostname()},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		logger.Warnf("pyroscope start failed addr=%s error=%v", addr, err)
		return nil
	}
	logger.Infof("pyroscope profiling enabled app=%s addr=%s", appName, addr)
	return profiler
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
