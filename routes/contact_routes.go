package routes

import (
	"github.com/BerniceZTT/smartcrm/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterContactRoutes 注册联系人路由
func RegisterContactRoutes(api *gin.RouterGroup, ctl *controllers.ContactController, demos *controllers.DemoController) {
	group := api.Group("/contacts")

	group.POST("/import", ctl.Import)
	group.POST("/preview", ctl.Preview)
	group.GET("", ctl.List)
	group.GET("/count", ctl.Count)
	group.POST("", ctl.Create)
	group.GET("/:id", ctl.Get)
	group.PUT("/:id", ctl.Update)
	group.DELETE("/:id", ctl.Delete)
	group.POST("/:id/call", ctl.LogCall)
	group.GET("/:id/demos", demos.ListByContact)
}
