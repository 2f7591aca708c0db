package controllers

import (
	"net/http"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/service"
	"github.com/BerniceZTT/smartcrm/utils"

	"github.com/gin-gonic/gin"
)

const defaultFollowUpPage = 20

// FollowUpController 跟进提醒
type FollowUpController struct {
	followUps *service.FollowUpService
}

// NewFollowUpController 创建跟进控制器
func NewFollowUpController(followUps *service.FollowUpService) *FollowUpController {
	return &FollowUpController{followUps: followUps}
}

// Create 创建跟进
func (ctl *FollowUpController) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input models.FollowUpCreate
	if !bindJSON(c, &input) {
		return
	}

	followUp, err := ctl.followUps.Create(c.Request.Context(), user, input)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, followUp)
}

// List 按状态列出跟进
func (ctl *FollowUpController) List(c *gin.Context) {
	followUps, err := ctl.followUps.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, followUps)
}

// Upcoming 逾期与即将到期
func (ctl *FollowUpController) Upcoming(c *gin.Context) {
	result, err := ctl.followUps.Upcoming(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ByDate 按日期窗口列出
func (ctl *FollowUpController) ByDate(c *gin.Context) {
	result, err := ctl.followUps.ByDate(c.Request.Context(), c.Query("date_filter"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Paginated 分页列出
func (ctl *FollowUpController) Paginated(c *gin.Context) {
	skip, limit := utils.ParsePagination(c, defaultFollowUpPage)
	result, err := ctl.followUps.Paginated(c.Request.Context(), c.DefaultQuery("date_filter", models.DateFilterAll), skip, limit)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Complete 标记完成
func (ctl *FollowUpController) Complete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := ctl.followUps.Complete(c.Request.Context(), user, c.Param("id")); err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Follow-up marked as completed"})
}
