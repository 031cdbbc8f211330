package repository

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"encoding-service/pkg/config"
)

// Database gorm 连接封装
type Database struct {
	Self *gorm.DB
}

// NewDatabase 按 driver 打开 mysql 或 sqlite 连接
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is nil")
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	case "mysql", "":
		dialector = mysql.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// sqlite 只允许单写连接
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		lifetime := cfg.ConnMaxLifetime
		if lifetime <= 0 {
			lifetime = time.Hour
		}
		sqlDB.SetConnMaxLifetime(lifetime)
	}

	return &Database{Self: db}, nil
}

// Close 关闭底层连接池
func (d *Database) Close() error {
	if d == nil || d.Self == nil {
		return nil
	}
	sqlDB, err := d.Self.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
