package controllers

import (
	"net/http"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/service"
	"github.com/BerniceZTT/smartcrm/utils"

	"github.com/gin-gonic/gin"
)

// MeetingController 会议
type MeetingController struct {
	meetings *service.MeetingService
}

// NewMeetingController 创建会议控制器
func NewMeetingController(meetings *service.MeetingService) *MeetingController {
	return &MeetingController{meetings: meetings}
}

// Create 创建会议
func (ctl *MeetingController) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input models.MeetingCreate
	if !bindJSON(c, &input) {
		return
	}

	meeting, err := ctl.meetings.Create(c.Request.Context(), user, input)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, meeting)
}

// List 当前用户的会议
func (ctl *MeetingController) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	skip, limit := utils.ParsePagination(c, utils.DefaultPageLimit)

	meetings, err := ctl.meetings.List(c.Request.Context(), user, c.Query("status"), skip, limit)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, meetings)
}

// Get 获取会议
func (ctl *MeetingController) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	meeting, err := ctl.meetings.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, meeting)
}

// Update 更新会议
func (ctl *MeetingController) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input models.MeetingUpdate
	if !bindJSON(c, &input) {
		return
	}

	if err := ctl.meetings.Update(c.Request.Context(), user, c.Param("id"), input); err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Meeting updated successfully"})
}

// UpdateStatus 变更会议状态
func (ctl *MeetingController) UpdateStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input models.MeetingStatusUpdate
	if !bindJSON(c, &input) {
		return
	}

	if err := ctl.meetings.UpdateStatus(c.Request.Context(), user, c.Param("id"), input.Status); err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Meeting status updated to " + input.Status})
}

// Delete 删除会议
func (ctl *MeetingController) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := ctl.meetings.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Meeting deleted successfully"})
}
