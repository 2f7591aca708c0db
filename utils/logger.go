package utils

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger 全局日志对象
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// 日志中需要遮盖的请求头与请求体字段
var (
	maskedHeaders = []string{"Authorization", "Cookie"}
	maskedFields  = []string{"password"}
)

// InitLogger 初始化日志系统，format 为 json 时输出结构化日志
func InitLogger(level, format string) {
	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if format == "json" {
		output = os.Stdout
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	Logger = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger().
		Level(lvl)

	Logger.Info().Str("level", lvl.String()).Str("format", format).Msg("日志系统初始化完成")
}

// RequestLog 单次请求的日志信息
type RequestLog struct {
	RequestID string
	Method    string
	Path      string
	Query     map[string][]string
	Headers   map[string]string
	Body      map[string]interface{}
	RawBody   string
}

// LogApiRequest 记录API请求，敏感字段会被遮盖
func LogApiRequest(req RequestLog) {
	for _, h := range maskedHeaders {
		if v := req.Headers[h]; len(v) > 15 {
			req.Headers[h] = v[:15] + "..."
		}
	}
	for _, f := range maskedFields {
		if _, ok := req.Body[f]; ok {
			req.Body[f] = "******"
		}
	}

	event := Logger.Info().
		Str("requestId", req.RequestID).
		Str("method", req.Method).
		Str("url", req.Path).
		Interface("params", req.Query).
		Interface("headers", req.Headers)
	if req.Body != nil {
		event = event.Interface("body", req.Body)
	} else if req.RawBody != "" {
		event = event.Str("body", req.RawBody)
	}
	event.Msg("API请求")
}

// LogApiResponse 记录API响应，4xx 记为警告，5xx 记为错误
func LogApiResponse(requestID, method, url string, statusCode int, responseTime time.Duration) {
	event := Logger.Info()
	switch {
	case statusCode >= 500:
		event = Logger.Error()
	case statusCode >= 400:
		event = Logger.Warn()
	}
	event.
		Str("requestId", requestID).
		Str("method", method).
		Str("url", url).
		Int("statusCode", statusCode).
		Dur("responseTime", responseTime).
		Msg("API响应")
}

// LogInfo 记录
func LogInfo(context map[string]interface{}, message string) {
	Logger.Info().
		Interface("context", context).
		Msg(message)
}

// LogWarn 记录警告
func LogWarn(context map[string]interface{}, message string) {
	Logger.Warn().
		Interface("context", context).
		Msg(message)
}

// LogError 记录错误
func LogError(err error, context map[string]interface{}, message string) {
	Logger.Error().
		Err(err).
		Interface("context", context).
		Msg(message)
}

// LogDbOperation 记录数据库操作
func LogDbOperation(operation string, collection string, query interface{}, result interface{}) {
	Logger.Debug().
		Str("operation", operation).
		Str("collection", collection).
		Interface("query", query).
		Interface("result", result).
		Msg("数据库操作")
}
