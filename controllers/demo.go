package controllers

import (
	"net/http"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/service"
	"github.com/BerniceZTT/smartcrm/utils"

	"github.com/gin-gonic/gin"
)

// DemoController 演示记录与报表
type DemoController struct {
	demos *service.DemoService
}

// NewDemoController 创建演示控制器
func NewDemoController(demos *service.DemoService) *DemoController {
	return &DemoController{demos: demos}
}

// Create 记录演示
func (ctl *DemoController) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input models.DemoCreate
	if !bindJSON(c, &input) {
		return
	}

	demo, err := ctl.demos.Create(c.Request.Context(), user, input)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, demo)
}

// MarkWatched 标记已观看，请求体可为空
func (ctl *DemoController) MarkWatched(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input models.DemoWatchUpdate
	if c.Request.ContentLength != 0 && !bindJSON(c, &input) {
		return
	}

	resp, err := ctl.demos.MarkWatched(c.Request.Context(), user, c.Param("id"), input)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListByContact 联系人的演示记录
func (ctl *DemoController) ListByContact(c *gin.Context) {
	demos, err := ctl.demos.ListByContact(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, demos)
}

// Report 按周期统计
func (ctl *DemoController) Report(c *gin.Context) {
	report, err := ctl.demos.Report(c.Request.Context(), c.Query("start"), c.Query("end"), c.DefaultQuery("group_by", models.GroupByDay))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Summary 汇总统计
func (ctl *DemoController) Summary(c *gin.Context) {
	summary, err := ctl.demos.Summary(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
