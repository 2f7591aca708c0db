package controllers

import (
	"net/http"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/service"
	"github.com/BerniceZTT/smartcrm/utils"

	"github.com/gin-gonic/gin"
)

// AuthController 注册、登录与当前用户
type AuthController struct {
	auth *service.AuthService
}

// NewAuthController 创建认证控制器
func NewAuthController(auth *service.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Signup 用户注册
func (ctl *AuthController) Signup(c *gin.Context) {
	var input models.UserSignup
	if !bindJSON(c, &input) {
		return
	}

	resp, err := ctl.auth.Signup(c.Request.Context(), input)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Login 用户登录
func (ctl *AuthController) Login(c *gin.Context) {
	var input models.UserLogin
	if !bindJSON(c, &input) {
		return
	}

	resp, err := ctl.auth.Login(c.Request.Context(), input)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me 当前登录用户
func (ctl *AuthController) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.UserResponse{ID: user.ID, Email: user.Email})
}
