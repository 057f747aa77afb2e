package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response 统一响应结构（与前端日历约定一致）
type Response struct {
	Status      string      `json:"status"`
	Message     string      `json:"message"`
	Result      interface{} `json:"result,omitempty"`
	ErrorReason string      `json:"error_reason,omitempty"`
}

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, message string, result interface{}) {
	c.JSON(http.StatusOK, Response{
		Status:  StatusSuccess,
		Message: message,
		Result:  result,
	})
}

// Created 201 创建成功
func Created(c *gin.Context, message string, result interface{}) {
	c.JSON(http.StatusCreated, Response{
		Status:  StatusSuccess,
		Message: message,
		Result:  result,
	})
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, message, reason string) {
	c.JSON(httpStatus, Response{
		Status:      StatusError,
		Message:     message,
		ErrorReason: reason,
	})
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, message, reason string) {
	Error(c, http.StatusBadRequest, message, reason)
}

// NotFound 404
func NotFound(c *gin.Context, message, reason string) {
	Error(c, http.StatusNotFound, message, reason)
}

// Conflict 409
func Conflict(c *gin.Context, message, reason string) {
	Error(c, http.StatusConflict, message, reason)
}

// InternalError 500，附带底层错误信息
func InternalError(c *gin.Context, message string, err error) {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	Error(c, http.StatusInternalServerError, message, reason)
}
