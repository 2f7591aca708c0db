package models

import "time"

// 会议状态
const (
	MeetingScheduled = "scheduled"
	MeetingCompleted = "completed"
	MeetingCancelled = "cancelled"
)

// IsValidMeetingStatus 验证会议状态是否有效
func IsValidMeetingStatus(status string) bool {
	switch status {
	case MeetingScheduled, MeetingCompleted, MeetingCancelled:
		return true
	}
	return false
}

// Meeting 会议，按用户隔离
type Meeting struct {
	ID        string                   `json:"id" bson:"_id"`
	UserID    string                   `json:"user_id" bson:"user_id"`
	UserEmail string                   `json:"user_email" bson:"user_email"`
	Title     string                   `json:"title" bson:"title"`
	Date      string                   `json:"date" bson:"date"`
	Time      *string                  `json:"time" bson:"time,omitempty"`
	Location  *string                  `json:"location" bson:"location,omitempty"`
	Notes     *string                  `json:"notes" bson:"notes,omitempty"`
	Attendees []map[string]interface{} `json:"attendees" bson:"attendees"`
	Status    string                   `json:"status" bson:"status"`
	CreatedAt time.Time                `json:"created_at" bson:"created_at"`
}

// MeetingCreate 创建会议请求
type MeetingCreate struct {
	Title     string                   `json:"title" binding:"required"`
	Date      string                   `json:"date" binding:"required"`
	Time      *string                  `json:"time"`
	Location  *string                  `json:"location"`
	Notes     *string                  `json:"notes"`
	Attendees []map[string]interface{} `json:"attendees"`
}

// MeetingUpdate 会议局部更新
type MeetingUpdate struct {
	Title     *string                  `json:"title"`
	Date      *string                  `json:"date"`
	Time      *string                  `json:"time"`
	Location  *string                  `json:"location"`
	Notes     *string                  `json:"notes"`
	Attendees []map[string]interface{} `json:"attendees"`
	Status    *string                  `json:"status"`
}

// IsEmpty 没有任何待更新字段
func (u MeetingUpdate) IsEmpty() bool {
	return u.Title == nil && u.Date == nil && u.Time == nil && u.Location == nil &&
		u.Notes == nil && u.Attendees == nil && u.Status == nil
}

// MeetingStatusUpdate 会议状态变更请求
type MeetingStatusUpdate struct {
	Status string `json:"status" binding:"required"`
}
