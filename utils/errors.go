package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 错误分类，可通过 errors.Is 判断
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrDuplicate    = errors.New("duplicate resource")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrParse        = errors.New("unreadable payload")
)

// ApiError 自定义API错误
type ApiError struct {
	StatusCode int
	Message    string
	ErrorCode  string
	Err        error
}

// Error 实现error接口
func (e *ApiError) Error() string {
	return e.Message
}

// Unwrap 返回错误分类
func (e *ApiError) Unwrap() error {
	return e.Err
}

// NewApiError 创建API错误
func NewApiError(message string, statusCode int, errorCode string, kind error) *ApiError {
	return &ApiError{
		StatusCode: statusCode,
		Message:    message,
		ErrorCode:  errorCode,
		Err:        kind,
	}
}

// CreateNotFoundError 创建资源不存在错误
func CreateNotFoundError(resource string) *ApiError {
	return NewApiError(resource+" not found", http.StatusNotFound, "RESOURCE_NOT_FOUND", ErrNotFound)
}

// CreateUnauthorizedError 创建未授权错误
func CreateUnauthorizedError(message string) *ApiError {
	return NewApiError(message, http.StatusUnauthorized, "INVALID_TOKEN", ErrUnauthorized)
}

// CreateMissingTokenError 缺少凭证
func CreateMissingTokenError() *ApiError {
	return NewApiError("Not authenticated", http.StatusForbidden, "MISSING_TOKEN", ErrUnauthorized)
}

// CreateForbiddenError 创建权限不足错误
func CreateForbiddenError() *ApiError {
	return NewApiError("Not authorized", http.StatusForbidden, "FORBIDDEN", ErrForbidden)
}

// CreateBadRequestError 创建错误请求错误
func CreateBadRequestError(message string) *ApiError {
	return NewApiError(message, http.StatusBadRequest, "BAD_REQUEST", ErrValidation)
}

// CreateDuplicateError 唯一键冲突
func CreateDuplicateError(message string) *ApiError {
	return NewApiError(message, http.StatusBadRequest, "DUPLICATE", ErrDuplicate)
}

// CreateParseError 表格文件无法解析
func CreateParseError(message string) *ApiError {
	return NewApiError(message, http.StatusBadRequest, "PARSE_ERROR", ErrParse)
}

// HandleError 处理错误并返回适当的响应
func HandleError(c *gin.Context, err error) {
	if c == nil || err == nil {
		return
	}

	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		Logger.Warn().
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Int("status", apiErr.StatusCode).
			Msg("API错误: " + apiErr.Message)

		response := gin.H{"success": false, "error": apiErr.Message}
		if apiErr.ErrorCode != "" {
			response["code"] = apiErr.ErrorCode
		}
		c.AbortWithStatusJSON(apiErr.StatusCode, response)
		return
	}

	// 其他未预期的错误
	LogError(err, map[string]interface{}{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}, "API内部错误")

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}
