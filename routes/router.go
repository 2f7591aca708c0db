package routes

import (
	"github.com/BerniceZTT/smartcrm/controllers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers 路由依赖的全部控制器
type Controllers struct {
	Auth      *controllers.AuthController
	Contacts  *controllers.ContactController
	Notes     *controllers.NoteController
	FollowUps *controllers.FollowUpController
	Meetings  *controllers.MeetingController
	Demos     *controllers.DemoController
	Activity  *controllers.ActivityLogController
}

// RegisterRoutes 注册所有路由，auth 为认证中间件
func RegisterRoutes(router *gin.Engine, ctl *Controllers, auth gin.HandlerFunc, withMetrics bool) {
	api := router.Group("/api")

	RegisterAuthRoutes(api, ctl.Auth, auth)

	protected := api.Group("")
	protected.Use(auth)
	RegisterContactRoutes(protected, ctl.Contacts, ctl.Demos)
	RegisterNoteRoutes(protected, ctl.Notes)
	RegisterFollowUpRoutes(protected, ctl.FollowUps)
	RegisterMeetingRoutes(protected, ctl.Meetings)
	RegisterDemoRoutes(protected, ctl.Demos)
	RegisterActivityLogRoutes(protected, ctl.Activity)

	// 健康检查路由
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if withMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}
