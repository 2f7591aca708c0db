package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// 跟进状态
const (
	FollowUpPending   = "pending"
	FollowUpCompleted = "completed"
	FollowUpOverdue   = "overdue"
)

// 跟进日期筛选
const (
	DateFilterToday    = "today"
	DateFilterTomorrow = "tomorrow"
	DateFilterThisWeek = "this_week"
	DateFilterAll      = "all"
)

// IsValidDateFilter 验证日期筛选是否有效
func IsValidDateFilter(filter string) bool {
	switch filter {
	case DateFilterToday, DateFilterTomorrow, DateFilterThisWeek, DateFilterAll:
		return true
	}
	return false
}

// FollowUp 跟进提醒
type FollowUp struct {
	ID           string    `json:"id" bson:"_id"`
	ContactID    string    `json:"contact_id" bson:"contact_id"`
	UserID       string    `json:"user_id" bson:"user_id"`
	UserEmail    string    `json:"user_email" bson:"user_email"`
	FollowUpDate time.Time `json:"follow_up_date" bson:"follow_up_date"`
	Notes        *string   `json:"notes" bson:"notes,omitempty"`
	Status       string    `json:"status" bson:"status"`
	Notified     bool      `json:"notified" bson:"notified"` // 提醒只发送一次
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// FollowUpCreate 创建跟进请求
type FollowUpCreate struct {
	ContactID    string    `json:"contact_id" binding:"required"`
	FollowUpDate time.Time `json:"follow_up_date" binding:"required"`
	Notes        *string   `json:"notes"`
}

// UnmarshalJSON follow_up_date 允许不带时区的 ISO 时间，按 UTC 处理
func (f *FollowUpCreate) UnmarshalJSON(data []byte) error {
	type alias FollowUpCreate
	aux := struct {
		*alias
		FollowUpDate string `json:"follow_up_date"`
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	f.FollowUpDate = time.Time{}
	if aux.FollowUpDate == "" {
		return nil
	}
	t, err := ParseTimestamp(aux.FollowUpDate)
	if err != nil {
		return fmt.Errorf("follow_up_date: %w", err)
	}
	f.FollowUpDate = t
	return nil
}

// FollowUpWithContact 带联系人详情的跟进
type FollowUpWithContact struct {
	FollowUp
	Contact *Contact `json:"contact,omitempty"`
}

// UpcomingFollowUps 即将到期与已逾期的跟进
type UpcomingFollowUps struct {
	Overdue  []FollowUpWithContact `json:"overdue"`
	Upcoming []FollowUpWithContact `json:"upcoming"`
}

// FollowUpsByDate 按日期筛选的跟进
type FollowUpsByDate struct {
	Filter    string                `json:"filter"`
	Count     int                   `json:"count"`
	FollowUps []FollowUpWithContact `json:"followups"`
}
