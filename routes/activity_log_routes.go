package routes

import (
	"github.com/BerniceZTT/smartcrm/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterActivityLogRoutes 注册操作日志路由
func RegisterActivityLogRoutes(api *gin.RouterGroup, ctl *controllers.ActivityLogController) {
	api.GET("/activity-logs", ctl.List)
}
