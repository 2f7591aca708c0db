package routes

import (
	"github.com/BerniceZTT/smartcrm/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes 注册认证路由
func RegisterAuthRoutes(api *gin.RouterGroup, ctl *controllers.AuthController, auth gin.HandlerFunc) {
	group := api.Group("/auth")

	// 公开路由 - 不需要认证
	group.POST("/signup", ctl.Signup)
	group.POST("/login", ctl.Login)

	// 需要认证的路由
	group.GET("/me", auth, ctl.Me)
}
