package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"encoding-service/pkg/config"
	"encoding-service/pkg/manager"
	"encoding-service/pkg/middleware"
	"encoding-service/pkg/observability"
)

// NewEngine 创建 gin 引擎：公共端点不鉴权，/api/v1 下按配置启用 JWT
func NewEngine(cfg *config.Config) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestContextMiddleware(), middleware.AccessLogMiddleware())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   "encoding-service",
			"timestamp": time.Now().Unix(),
		})
	})
	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(observability.Handler()))
	}

	v1 := engine.Group("/api/v1", middleware.JWTAuthMiddleware(cfg.JWT.Secret, cfg.JWT.Issuer))
	manager.RegisterAllRoutes(v1)
	return engine
}
