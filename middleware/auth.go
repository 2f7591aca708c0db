package middleware

import (
	"context"
	"strings"

	"github.com/BerniceZTT/smartcrm/utils"

	"github.com/gin-gonic/gin"
)

// Authenticator 根据令牌解析当前用户
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*utils.LoginUser, error)
}

// AuthMiddleware 认证中间件，缺少凭证返回 403，凭证无效返回 401
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从请求头获取token
		authHeader := c.GetHeader("Authorization")

		utils.Logger.Debug().
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Str("authorization", getShortAuthHeader(authHeader)).
			Msg("验证请求")

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if !strings.HasPrefix(authHeader, "Bearer ") || token == "" {
			utils.Logger.Info().Msg("缺少Authorization头或格式错误")
			utils.HandleError(c, utils.CreateMissingTokenError())
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.HandleError(c, err)
			return
		}

		// 将用户信息存储到上下文
		utils.SetUser(c, user)
		c.Next()
	}
}

// getShortAuthHeader 获取截断的授权头，保护敏感信息
func getShortAuthHeader(header string) string {
	if len(header) > 15 {
		return header[:15] + "..."
	}
	return header
}
