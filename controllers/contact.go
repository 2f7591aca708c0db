package controllers

import (
	"io"
	"net/http"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/service"
	"github.com/BerniceZTT/smartcrm/utils"

	"github.com/gin-gonic/gin"
)

// 上传表格大小上限
const maxUploadBytes = 20 << 20

// ContactController 联系人、导入与预览
type ContactController struct {
	contacts *service.ContactService
	imports  *service.ImportService
}

// NewContactController 创建联系人控制器
func NewContactController(contacts *service.ContactService, imports *service.ImportService) *ContactController {
	return &ContactController{contacts: contacts, imports: imports}
}

// Import 导入表格，表单字段 file 与 column_mapping
func (ctl *ContactController) Import(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	mapping, ok := c.GetPostForm("column_mapping")
	if !ok {
		utils.HandleError(c, utils.CreateBadRequestError("column_mapping is required"))
		return
	}
	payload, ok := readUpload(c)
	if !ok {
		return
	}

	result, err := ctl.imports.Import(c.Request.Context(), user, payload, mapping)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Preview 预览表格前几行
func (ctl *ContactController) Preview(c *gin.Context) {
	payload, ok := readUpload(c)
	if !ok {
		return
	}

	result, err := ctl.imports.Preview(payload)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// List 搜索联系人
func (ctl *ContactController) List(c *gin.Context) {
	skip, limit := utils.ParsePagination(c, utils.DefaultPageLimit)
	contacts, err := ctl.contacts.Search(c.Request.Context(), service.ContactQuery{
		Search: c.Query("search"),
		Status: c.Query("status"),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// Count 联系人统计
func (ctl *ContactController) Count(c *gin.Context) {
	count, err := ctl.contacts.Count(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, count)
}

// Create 创建联系人
func (ctl *ContactController) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input models.ContactCreate
	if !bindJSON(c, &input) {
		return
	}

	contact, err := ctl.contacts.Create(c.Request.Context(), user, input)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// Get 获取联系人
func (ctl *ContactController) Get(c *gin.Context) {
	contact, err := ctl.contacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// Update 更新联系人
func (ctl *ContactController) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input models.ContactUpdate
	if !bindJSON(c, &input) {
		return
	}

	contact, err := ctl.contacts.Update(c.Request.Context(), user, c.Param("id"), input)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// Delete 删除联系人
func (ctl *ContactController) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := ctl.contacts.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Contact deleted successfully"})
}

// LogCall 记录拨打
func (ctl *ContactController) LogCall(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	resp, err := ctl.contacts.LogCall(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// readUpload 读取表单字段 file 的内容
func readUpload(c *gin.Context) ([]byte, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("file is required"))
		return nil, false
	}
	if header.Size > maxUploadBytes {
		utils.HandleError(c, utils.CreateBadRequestError("Uploaded file is too large"))
		return nil, false
	}

	f, err := header.Open()
	if err != nil {
		utils.HandleError(c, utils.CreateParseError("Unable to open uploaded file"))
		return nil, false
	}
	defer f.Close()

	payload, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		utils.HandleError(c, utils.CreateParseError("Unable to read uploaded file"))
		return nil, false
	}

	utils.LogInfo(map[string]interface{}{
		"filename": header.Filename,
		"size":     len(payload),
	}, "收到上传文件")
	return payload, true
}
