package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"encoding-service/pkg/config"
)

// Logger 基于 logrus 的日志器
type Logger struct {
	entry *logrus.Entry
	file  *os.File
}

var global atomic.Pointer[Logger]

// NewLogger 根据配置创建日志器
func NewLogger(cfg *config.Config) *Logger {
	l := logrus.New()
	var logCfg config.LogConfig
	if cfg != nil {
		logCfg = cfg.Log
	}

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(logCfg.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(logCfg.Format, "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	out := &Logger{}
	switch strings.ToLower(logCfg.Output) {
	case "file", "both":
		name := logCfg.Filename
		if name == "" {
			name = "logs/encoding-service.log"
		}
		if err := os.MkdirAll(filepath.Dir(name), 0o755); err == nil {
			if f, ferr := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); ferr == nil {
				out.file = f
				if strings.EqualFold(logCfg.Output, "both") {
					l.SetOutput(io.MultiWriter(os.Stdout, f))
				} else {
					l.SetOutput(f)
				}
			}
		}
	default:
		l.SetOutput(os.Stdout)
	}

	out.entry = logrus.NewEntry(l).WithField("service", "encoding-service")
	return out
}

// NewWithOutput 创建写入指定 writer 的日志器，主要用于测试
func NewWithOutput(w io.Writer, level logrus.Level) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{})
	return &Logger{entry: logrus.NewEntry(l)}
}

// SetGlobalLogger 设置全局日志器
func SetGlobalLogger(l *Logger) { global.Store(l) }

// GetGlobalLogger 获取全局日志器，未初始化时返回默认 stdout 日志器
func GetGlobalLogger() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	l := NewLogger(nil)
	if global.CompareAndSwap(nil, l) {
		return l
	}
	return global.Load()
}

// WithFields 返回附带字段的日志器
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.withOptional(fields).Debug(msg)
}
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.withOptional(fields).Info(msg)
}
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.withOptional(fields).Warn(msg)
}
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.withOptional(fields).Error(msg)
}

// Fatal 记录日志后退出进程
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	l.withOptional(fields).Fatal(msg)
}

// Close 关闭日志文件
func (l *Logger) Close() {
	if l.file != nil {
		_ = l.file.Close()
	}
}

func (l *Logger) withOptional(fields []map[string]interface{}) *logrus.Entry {
	e := l.entry
	for _, f := range fields {
		if len(f) > 0 {
			e = e.WithFields(logrus.Fields(f))
		}
	}
	return e
}

func Debugf(format string, args ...interface{}) { GetGlobalLogger().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { GetGlobalLogger().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { GetGlobalLogger().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { GetGlobalLogger().Errorf(format, args...) }

func Debug(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Error(msg, fields...) }
func Fatal(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Fatal(msg, fields...) }
