package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const userContextKey = "user"

// 分页上限
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// LoginUser 当前登录用户
type LoginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SetUser 保存当前用户到上下文
func SetUser(c *gin.Context, user *LoginUser) {
	c.Set(userContextKey, user)
}

// GetUser 获取当前用户信息
func GetUser(c *gin.Context) (*LoginUser, error) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, fmt.Errorf("GetUser 未授权访问")
	}
	user, ok := value.(*LoginUser)
	if !ok || user == nil {
		return nil, fmt.Errorf("GetUser 用户信息格式错误: %T", value)
	}
	return user, nil
}

// ParsePagination 解析 skip/limit 查询参数，非法值回退为默认值
func ParsePagination(c *gin.Context, defaultLimit int64) (skip, limit int64) {
	skip, err := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	if err != nil || skip < 0 {
		skip = 0
	}
	limit, err = strconv.ParseInt(c.DefaultQuery("limit", strconv.FormatInt(defaultLimit, 10)), 10, 64)
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return skip, limit
}
