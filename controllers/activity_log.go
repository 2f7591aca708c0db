package controllers

import (
	"net/http"

	"github.com/BerniceZTT/smartcrm/service"
	"github.com/BerniceZTT/smartcrm/utils"

	"github.com/gin-gonic/gin"
)

// ActivityLogController 操作日志
type ActivityLogController struct {
	activity *service.ActivityService
}

// NewActivityLogController 创建操作日志控制器
func NewActivityLogController(activity *service.ActivityService) *ActivityLogController {
	return &ActivityLogController{activity: activity}
}

// List 按时间倒序
func (ctl *ActivityLogController) List(c *gin.Context) {
	skip, limit := utils.ParsePagination(c, utils.DefaultPageLimit)
	logs, err := ctl.activity.List(c.Request.Context(), skip, limit)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
