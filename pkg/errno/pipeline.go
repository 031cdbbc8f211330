package errno

import (
	"errors"
	"fmt"
)

// MetadataError 源文件探测失败
type MetadataError struct {
	Path string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("probe metadata %s: %v", e.Path, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// EncodeError 单个档位或格式编码失败
type EncodeError struct {
	Profile string
	Format  string
	Stderr  string
	Err     error
}

func (e *EncodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("encode profile %s: %v", e.Profile, e.Err)
	}
	return fmt.Sprintf("encode profile %s format %s: %v", e.Profile, e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// ManifestSynthesisError 清单合成失败
type ManifestSynthesisError struct {
	Kind string
	Err  error
}

func (e *ManifestSynthesisError) Error() string {
	return fmt.Sprintf("synthesize %s manifest: %v", e.Kind, e.Err)
}

func (e *ManifestSynthesisError) Unwrap() error { return e.Err }

// StorageError 预期产物缺失或存储操作失败
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ToolUnavailableError 外部二进制不可用
type ToolUnavailableError struct {
	Binary string
	Err    error
}

func (e *ToolUnavailableError) Error() string {
	return fmt.Sprintf("tool %s unavailable: %v", e.Binary, e.Err)
}

func (e *ToolUnavailableError) Unwrap() error { return e.Err }

// ErrEmptyOutput 子进程成功但没有产出
var ErrEmptyOutput = errors.New("output missing or empty")

// IsPermanent 判断错误是否重试无意义
func IsPermanent(err error) bool {
	var me *MetadataError
	var te *ToolUnavailableError
	return errors.As(err, &me) || errors.As(err, &te)
}
