package routes

import (
	"github.com/BerniceZTT/smartcrm/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterNoteRoutes 注册备注路由
func RegisterNoteRoutes(api *gin.RouterGroup, ctl *controllers.NoteController) {
	group := api.Group("/notes")

	group.POST("", ctl.Create)
	group.GET("/contact/:contact_id", ctl.ListByContact)
}
