package controllers

import (
	"github.com/BerniceZTT/smartcrm/utils"

	"github.com/gin-gonic/gin"
)

// currentUser 取认证中间件写入的用户，缺失时已写出错误响应
func currentUser(c *gin.Context) (*utils.LoginUser, bool) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, utils.CreateMissingTokenError())
		return nil, false
	}
	return user, true
}

// bindJSON 解析请求体，失败时写出 400
func bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("Invalid request: "+err.Error()))
		return false
	}
	return true
}
