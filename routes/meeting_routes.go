package routes

import (
	"github.com/BerniceZTT/smartcrm/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterMeetingRoutes 注册会议路由
func RegisterMeetingRoutes(api *gin.RouterGroup, ctl *controllers.MeetingController) {
	group := api.Group("/meetings")

	group.POST("", ctl.Create)
	group.GET("", ctl.List)
	group.GET("/:id", ctl.Get)
	group.PUT("/:id", ctl.Update)
	group.PUT("/:id/status", ctl.UpdateStatus)
	group.DELETE("/:id", ctl.Delete)
}
