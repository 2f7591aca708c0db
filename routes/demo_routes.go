package routes

import (
	"github.com/BerniceZTT/smartcrm/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterDemoRoutes 注册演示路由
func RegisterDemoRoutes(api *gin.RouterGroup, ctl *controllers.DemoController) {
	group := api.Group("/demos")

	group.POST("", ctl.Create)
	group.PUT("/:id/watched", ctl.MarkWatched)
	group.GET("/report", ctl.Report)
	group.GET("/summary", ctl.Summary)
}
