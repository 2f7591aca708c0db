package models

import "time"

// 演示报表分组
const (
	GroupByDay   = "day"
	GroupByWeek  = "week"
	GroupByMonth = "month"
)

// Demo 演示记录
type Demo struct {
	ID        string     `json:"id" bson:"_id"`
	ContactID string     `json:"contact_id" bson:"contact_id"`
	UserID    string     `json:"user_id" bson:"user_id"`
	UserEmail string     `json:"user_email" bson:"user_email"`
	GivenAt   time.Time  `json:"given_at" bson:"given_at"`
	Watched   bool       `json:"watched" bson:"watched"`
	WatchedAt *time.Time `json:"watched_at" bson:"watched_at,omitempty"`
	Notes     *string    `json:"notes" bson:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

// DemoCreate 记录演示请求
type DemoCreate struct {
	ContactID string  `json:"contact_id" binding:"required"`
	Notes     *string `json:"notes"`
}

// DemoWatchUpdate 标记已观看请求
type DemoWatchUpdate struct {
	WatchedAt *time.Time `json:"watched_at"`
}

// DemoWatchResponse 标记已观看响应
type DemoWatchResponse struct {
	Message   string    `json:"message"`
	WatchedAt time.Time `json:"watched_at"`
}

// DemoPeriodStats 演示分组统计
type DemoPeriodStats struct {
	Period     string  `json:"period"`
	Given      int     `json:"given"`
	Watched    int     `json:"watched"`
	Conversion float64 `json:"conversion"`
}

// DemoSummary 演示汇总统计
type DemoSummary struct {
	Given      int     `json:"given"`
	Watched    int     `json:"watched"`
	Conversion float64 `json:"conversion"`
}
