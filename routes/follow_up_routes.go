package routes

import (
	"github.com/BerniceZTT/smartcrm/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterFollowUpRoutes 注册跟进路由
func RegisterFollowUpRoutes(api *gin.RouterGroup, ctl *controllers.FollowUpController) {
	group := api.Group("/followups")

	group.POST("", ctl.Create)
	group.GET("", ctl.List)
	group.GET("/upcoming", ctl.Upcoming)
	group.GET("/by-date", ctl.ByDate)
	group.GET("/paginated", ctl.Paginated)
	group.PUT("/:id/complete", ctl.Complete)
}
