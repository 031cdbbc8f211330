package resource

import (
	"fmt"
	"sync"

	"gorm.io/gorm"

	"encoding-service/ddd/infrastructure/database/po"
	"encoding-service/pkg/assert"
	"encoding-service/pkg/config"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/manager"
	"encoding-service/pkg/repository"
)

var (
	databaseResourceOnce sync.Once
	databaseSingleton    *DatabaseResource
)

// DatabaseResource 全局 gorm 连接
type DatabaseResource struct {
	db *repository.Database
}

func DefaultDatabaseResource() *DatabaseResource {
	assert.NotCircular()
	databaseResourceOnce.Do(func() {
		databaseSingleton = &DatabaseResource{}
	})
	assert.NotNil(databaseSingleton)
	return databaseSingleton
}

func (r *DatabaseResource) MustOpen() {
	if r.db != nil {
		return
	}
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before DatabaseResource")
	}
	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		panic(fmt.Sprintf("failed to open database: %v", err))
	}
	if cfg.Database.AutoMigrate {
		if err := db.Self.AutoMigrate(po.AllModels()...); err != nil {
			panic(fmt.Sprintf("failed to migrate database: %v", err))
		}
	}
	r.db = db
	logger.Infof("Database resource initialized driver=%s auto_migrate=%t", cfg.Database.Driver, cfg.Database.AutoMigrate)
}

func (r *DatabaseResource) Close() {
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			logger.Warnf("Close database failed error=%v", err)
		}
	}
}

// DB 未打开时返回 nil
func (r *DatabaseResource) DB() *gorm.DB {
	if r.db == nil {
		return nil
	}
	return r.db.Self
}

type DatabaseResourcePlugin struct{}

func (p *DatabaseResourcePlugin) Name() string { return "database" }

func (p *DatabaseResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultDatabaseResource()
}
