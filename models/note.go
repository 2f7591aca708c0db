package models

import "time"

// Note 联系人备注，创建后不可修改
type Note struct {
	ID        string    `json:"id" bson:"_id"`
	ContactID string    `json:"contact_id" bson:"contact_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// NoteCreate 创建备注请求
type NoteCreate struct {
	ContactID string `json:"contact_id" binding:"required"`
	Content   string `json:"content" binding:"required"`
}
