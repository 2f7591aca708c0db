package controllers

import (
	"net/http"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/service"
	"github.com/BerniceZTT/smartcrm/utils"

	"github.com/gin-gonic/gin"
)

// NoteController 联系人备注
type NoteController struct {
	notes *service.NoteService
}

// NewNoteController 创建备注控制器
func NewNoteController(notes *service.NoteService) *NoteController {
	return &NoteController{notes: notes}
}

// Create 添加备注
func (ctl *NoteController) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input models.NoteCreate
	if !bindJSON(c, &input) {
		return
	}

	note, err := ctl.notes.Create(c.Request.Context(), user, input)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// ListByContact 联系人的备注
func (ctl *NoteController) ListByContact(c *gin.Context) {
	notes, err := ctl.notes.ListByContact(c.Request.Context(), c.Param("contact_id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}
