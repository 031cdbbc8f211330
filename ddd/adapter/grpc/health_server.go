package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"encoding-service/pkg/logger"
)

// ServiceName 健康检查中使用的服务名
const ServiceName = "encoding.EncodingService"

// Check 单项依赖检查，返回 nil 表示可用
type Check func(ctx context.Context) error

// HealthServer 标准 grpc.health.v1 服务，周期执行依赖检查并更新状态
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	checks   map[string]Check
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHealthServer(checks map[string]Check, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{server: srv, health: hs, checks: checks, interval: interval}
}

// Serve 在 lis 上提供服务直到 Stop
func (s *HealthServer) Serve(lis net.Listener) error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.Probe(ctx)
	s.wg.Add(1)
	go s.loop(ctx)
	logger.Infof("gRPC health server started address=%s service=%s", lis.Addr(), ServiceName)
	return s.server.Serve(lis)
}

func (s *HealthServer) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

// Probe 执行所有检查；任意一项失败即 NOT_SERVING
func (s *HealthServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, check := range s.checks {
		cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := check(cctx)
		cancel()
		if err != nil {
			logger.Warnf("Health check failed check=%s error=%v", name, err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
	return status
}

// Stop 先标记下线再优雅停止
func (s *HealthServer) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.health.Shutdown()
	s.server.GracefulStop()
	s.wg.Wait()
}

// Listen 按 host:port 监听
func Listen(host string, port int) (net.Listener, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen grpc %s: %w", addr, err)
	}
	return lis, nil
}
