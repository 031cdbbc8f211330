package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"encoding-service/pkg/errno"
)

// Response 统一响应结构
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      errno.OK.Code,
		Message:   errno.OK.Message,
		Data:      data,
		RequestID: c.GetString("request_id"),
	})
}

// Failed 根据错误码返回失败响应
func Failed(c *gin.Context, err error) {
	code, msg := errno.Decode(err)
	c.JSON(httpStatus(code), Response{
		Code:      code,
		Message:   msg,
		RequestID: c.GetString("request_id"),
	})
}

func httpStatus(code int) int {
	switch {
	case code >= 400 && code < 600:
		return code
	case code == errno.ErrAssetNotFound.Code:
		return http.StatusNotFound
	case code == errno.ErrPipelineInFlight.Code:
		return http.StatusConflict
	case code == errno.ErrQueueFull.Code:
		return http.StatusServiceUnavailable
	case code >= 20000:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
