package models

import "time"

// ActivityLog 操作日志，只追加
type ActivityLog struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	UserEmail string    `json:"user_email" bson:"user_email"`
	Action    string    `json:"action" bson:"action"`
	Target    *string   `json:"target" bson:"target,omitempty"`   // 通常为联系人手机号
	Details   *string   `json:"details" bson:"details,omitempty"` // 人类可读的摘要
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
