package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	grpcAdapter "encoding-service/ddd/adapter/grpc"
	httpAdapter "encoding-service/ddd/adapter/http"
	pipelineApp "encoding-service/ddd/application/app"
	"encoding-service/internal/resource"
	"encoding-service/pkg/config"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/manager"
	"encoding-service/pkg/registry"
	"encoding-service/pkg/task"

	// 导入组件包以触发 init 注册
	_ "encoding-service/ddd/adapter/component"
)

// Role 进程角色
type Role string

const (
	RoleAll       Role = "all"
	RoleWorker    Role = "worker"
	RoleScheduler Role = "scheduler"
)

func Run(role Role) {
	fmt.Println("[STARTUP] Starting encoding service...")

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] Failed to load config (%s): %v\n", cfgPath, err)
		os.Exit(1)
	}
	applyRole(cfg, role)
	// 设置全局配置（必须在资源管理器初始化之前）
	config.SetGlobalConfig(cfg)
	fmt.Printf("[STARTUP] Config file loaded: %s\n", cfgPath)

	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	logger.Debug("Logger initialized", map[string]interface{}{
		"level":  cfg.Log.Level,
		"format": cfg.Log.Format,
		"output": cfg.Log.Output,
	})
	logger.Infof("Encoding service starting role=%s queue_backend=%s", role, cfg.Worker.QueueBackend)

	// worker 依赖 ffmpeg/ffprobe，缺失时直接失败
	if cfg.Worker.Enabled {
		for _, bin := range []string{cfg.Encoding.FFmpegPath, cfg.Encoding.FFprobePath} {
			if _, err := exec.LookPath(bin); err != nil {
				logger.Fatal(fmt.Sprintf("Binary not found, install it or set encoding.ffmpeg_path/ffprobe_path binary=%s error=%v", bin, err))
			}
		}
	}
	if role == RoleScheduler && cfg.Worker.QueueBackend == "memory" {
		logger.Warnf("Scheduler role with memory queue, stage tasks stay in this process and are never consumed")
	}

	manager.MustInitResources()
	defer manager.CloseResources()

	rt := pipelineApp.MustNewRuntimeFromResources(cfg)
	pipelineApp.SetDefaultRuntime(rt)

	deps := &manager.Dependencies{
		DB:          resource.DefaultDatabaseResource().DB(),
		Config:      cfg,
		PipelineApp: rt.App,
	}
	manager.MustInitComponents(deps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := task.StartAll(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to start background tasks error=%v", err))
	}

	var healthServer *grpcAdapter.HealthServer
	grpcAddr := ""
	if cfg.GRPCServer.Enabled {
		lis, err := grpcAdapter.Listen(cfg.GRPCServer.Host, cfg.GRPCServer.Port)
		if err != nil {
			logger.Fatal(err.Error())
		}
		grpcAddr = lis.Addr().String()
		healthServer = grpcAdapter.NewHealthServer(map[string]grpcAdapter.Check{
			"database": func(ctx context.Context) error {
				sqlDB, err := deps.DB.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		}, 10*time.Second)
		go func() {
			if err := healthServer.Serve(lis); err != nil {
				logger.Errorf("gRPC server encountered an error error=%v", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      httpAdapter.NewEngine(cfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("Failed to start HTTP server error=%v", err))
		}
	}()
	logger.Infof("HTTP server started addr=%s health_url=%s api_url=%s", server.Addr,
		fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port), fmt.Sprintf("http://localhost:%d/api/v1", cfg.Server.Port))

	var reg *registry.ServiceRegistry
	if cfg.ServiceRegistry.Enabled {
		reg = mustRegister(cfg, grpcAddr)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("Received shutdown signal, shutting down server...")

	if reg != nil {
		if err := reg.Deregister(); err != nil {
			logger.Warnf("Deregister failed error=%v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to close error=%v", err)
	}
	if healthServer != nil {
		healthServer.Stop()
	}

	// 先停后台任务（worker 等待进行中的阶段），再停组件关闭队列
	task.StopAll()
	manager.Shutdown()

	logger.Infof("Server exited safely")
	logService.Close()
	fmt.Println("[SHUTDOWN] Encoding service exited safely")
}

// applyRole 按进程角色裁剪组件
func applyRole(cfg *config.Config, role Role) {
	switch role {
	case RoleWorker:
		cfg.Scheduler.Enabled = false
	case RoleScheduler:
		cfg.Worker.Enabled = false
	}
}

func mustRegister(cfg *config.Config, grpcAddr string) *registry.ServiceRegistry {
	host := cfg.ServiceRegistry.RegisterHost
	if host == "" {
		host, _ = os.Hostname()
	}
	reg, err := registry.NewServiceRegistry(cfg.ServiceRegistry, registry.Instance{
		ServiceID: cfg.ServiceRegistry.ServiceID,
		HTTPAddr:  fmt.Sprintf("%s:%d", host, cfg.Server.Port),
		GRPCAddr:  grpcAddr,
		WorkerID:  cfg.Worker.WorkerID,
	})
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to create service registry error=%v", err))
	}
	if err := reg.Register(); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to register service error=%v", err))
	}
	return reg
}

// resolveConfigPath 根据环境选择配置文件，支持CONFIG_PATH覆盖、CONFIG_ENV区分环境
func resolveConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("CONFIG_ENV")))
	if env == "" {
		env = "dev"
	}

	switch env {
	case "prod", "production":
		return "configs/config_prod.yaml"
	case "dev", "development":
		return "configs/config.dev.yaml"
	default:
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
}
