package errno

import (
	"errors"
	"fmt"
)

// code=0 请求成功
// code=4xx 客户端请求错误
// code=5xx 服务器端错误
// code=2xxxx 业务处理错误码

type Errno struct {
	Code    int
	Message string
}

// Error 实现error接口
func (e *Errno) Error() string {
	return e.Message
}

var (
	OK = &Errno{Code: 200, Message: "Success"}

	ErrInvalidParam = &Errno{Code: 400, Message: "Invalid parameter"}
	ErrUnauthorized = &Errno{Code: 401, Message: "Unauthorized"}
	ErrNotFound     = &Errno{Code: 404, Message: "Not found"}

	ErrInternalServer = &Errno{Code: 500, Message: "Internal server error"}
	ErrDatabase       = &Errno{Code: 501, Message: "Database error"}
	ErrUnknown        = &Errno{Code: 510, Message: "Unknown error"}

	// 业务错误码
	ErrMissingParam         = &Errno{Code: 20001, Message: "Missing required parameter"}
	ErrAssetUUIDRequired    = &Errno{Code: 20002, Message: "Asset UUID is required"}
	ErrAssetNotFound        = &Errno{Code: 20003, Message: "Asset not found"}
	ErrAssetExists          = &Errno{Code: 20004, Message: "Asset already exists"}
	ErrSourcePathRequired   = &Errno{Code: 20005, Message: "Source path is required"}
	ErrSourceMissing        = &Errno{Code: 20006, Message: "Source file does not exist"}
	ErrInvalidAssetStatus   = &Errno{Code: 20007, Message: "Invalid asset status"}
	ErrPipelineInFlight     = &Errno{Code: 20008, Message: "Pipeline already running for asset"}
	ErrQueueFull            = &Errno{Code: 20009, Message: "Stage queue is full"}
	ErrUnknownProfile       = &Errno{Code: 20010, Message: "Unknown encoding profile"}
	ErrAttachmentInvalid    = &Errno{Code: 20011, Message: "Attachment owner is invalid"}
	ErrAssetDeleted         = &Errno{Code: 20012, Message: "Asset has been deleted"}
	ErrNoCompletedRendition = &Errno{Code: 20013, Message: "No completed rendition"}
)

// BizError 携带底层原因的业务错误
type BizError struct {
	*Errno
	Cause error
}

// NewBizError 包装底层错误
func NewBizError(no *Errno, cause error) *BizError {
	return &BizError{Errno: no, Cause: cause}
}

func (e *BizError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *BizError) Unwrap() error { return e.Cause }

// Decode 从任意错误中解析出业务码与消息
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}
	var biz *BizError
	if errors.As(err, &biz) {
		return biz.Code, biz.Error()
	}
	var no *Errno
	if errors.As(err, &no) {
		return no.Code, no.Message
	}
	return ErrInternalServer.Code, err.Error()
}
