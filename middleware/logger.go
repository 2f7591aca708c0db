package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求追踪ID
const RequestIDHeader = "X-Request-ID"

// 超过该长度的请求体不记录
const maxLoggedBody = 4 << 10

// Logger 日志中间件，为每个请求分配追踪ID并回写到响应头
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestId", requestID)
		c.Header(RequestIDHeader, requestID)

		req := utils.RequestLog{
			RequestID: requestID,
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			Query:     c.Request.URL.Query(),
			Headers:   make(map[string]string, len(c.Request.Header)),
		}
		for k, v := range c.Request.Header {
			if len(v) > 0 {
				req.Headers[k] = v[0]
			}
		}

		// 上传文件不记录请求体
		if c.Request.Body != nil && !strings.HasPrefix(c.ContentType(), "multipart/") {
			raw, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			if len(raw) > 0 && len(raw) <= maxLoggedBody {
				if json.Unmarshal(raw, &req.Body) != nil {
					req.RawBody = string(raw)
				}
			}
		}

		utils.LogApiRequest(req)

		c.Next()

		utils.LogApiResponse(requestID, req.Method, req.Path, c.Writer.Status(), time.Since(start))
	}
}
