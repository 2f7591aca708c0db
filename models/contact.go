package models

import "time"

// DefaultContactStatus 未指定状态时的默认值
const DefaultContactStatus = "None"

// Contact 联系人，固定字段 + 开放属性
type Contact struct {
	ID           string            `json:"id" bson:"_id"`
	Phone        string            `json:"phone" bson:"phone"`
	CustomerName *string           `json:"customer_name" bson:"customer_name,omitempty"`
	Status       string            `json:"status" bson:"status"`
	Data         map[string]string `json:"data" bson:"data"` // 导入时的任意列
	CreatedAt    time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" bson:"updated_at"`
	LastCallAt   *time.Time        `json:"last_call_at" bson:"last_call_at,omitempty"`
}

// ContactCreate 创建联系人请求
type ContactCreate struct {
	Phone        string            `json:"phone" binding:"required"`
	CustomerName *string           `json:"customer_name"`
	Status       *string           `json:"status"`
	Data         map[string]string `json:"data"`
}

// ContactUpdate 更新联系人请求，nil 字段不更新
type ContactUpdate struct {
	Phone        *string           `json:"phone"`
	CustomerName *string           `json:"customer_name"`
	Status       *string           `json:"status"`
	Data         map[string]string `json:"data"`
}

// ContactCount 联系人统计
type ContactCount struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// CallLogResponse 拨打记录响应
type CallLogResponse struct {
	Message  string    `json:"message"`
	CallTime time.Time `json:"call_time"`
}
