package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务错误码：前三位对应 HTTP 状态族，后两位为序号
const (
	CodeParamError    = 40001
	CodeAuthFailed    = 40101
	CodeQuotaExceeded = 40201
	CodeForbidden     = 40301
	CodeNotFound      = 40401
	CodeServerError   = 50001
)

// 错误码对应的默认消息
var codeMessages = map[int]string{
	CodeParamError:    "参数错误",
	CodeAuthFailed:    "未登录",
	CodeQuotaExceeded: "配额已用完",
	CodeForbidden:     "权限不足",
	CodeNotFound:      "资源不存在",
	CodeServerError:   "服务器内部错误",
}

// httpStatus 由错误码推导 HTTP 状态（401xx → 401 等）
func httpStatus(code int) int {
	status := code / 100
	if status < http.StatusBadRequest || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

// Success 成功响应，payload 字段平铺在 success 标志旁
func Success(c *gin.Context, payload gin.H) {
	out := gin.H{"success": true}
	for k, v := range payload {
		out[k] = v
	}
	c.JSON(http.StatusOK, out)
}

// Error 错误响应，HTTP 状态由错误码族决定
func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(httpStatus(code), gin.H{
		"error":      message,
		"error_code": code,
	})
}

// ParamError 参数错误
func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

// AuthError 认证失败
func AuthError(c *gin.Context, message string) {
	Error(c, CodeAuthFailed, message)
}

// QuotaError 配额不足
func QuotaError(c *gin.Context, message string) {
	Error(c, CodeQuotaExceeded, message)
}

// PermissionError 权限不足
func PermissionError(c *gin.Context, message string) {
	Error(c, CodeForbidden, message)
}

// NotFoundError 资源不存在
func NotFoundError(c *gin.Context, message string) {
	Error(c, CodeNotFound, message)
}

// ServerError 服务器错误
func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}
