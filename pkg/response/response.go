package response

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/thread-graph/pkg/apperr"
)

// Response 统一响应结构
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Msg: "ok", Data: data})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Msg: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Code: http.StatusUnauthorized, Msg: msg})
}

func InternalError(c *gin.Context, err error) {
	sentry.CaptureException(err)
	c.JSON(http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Msg: err.Error()})
}

// Error 按领域错误类别映射 HTTP 状态码
func Error(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, Response{Code: http.StatusNotFound, Msg: err.Error()})
	case apperr.KindAlreadyExists, apperr.KindInvalidTransition:
		c.JSON(http.StatusConflict, Response{Code: http.StatusConflict, Msg: err.Error()})
	case apperr.KindPermissionDenied:
		c.JSON(http.StatusForbidden, Response{Code: http.StatusForbidden, Msg: err.Error()})
	case apperr.KindInvalidArgument:
		BadRequest(c, err.Error())
	default:
		InternalError(c, err)
	}
}
