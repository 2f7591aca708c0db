package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/repository"
	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// DemoService 演示记录与转化统计
type DemoService struct {
	demos    repository.Collection
	contacts *ContactService
	activity *ActivityService
	now      func() time.Time
}

// NewDemoService 创建演示服务
func NewDemoService(db repository.Database, contacts *ContactService, activity *ActivityService) *DemoService {
	return &DemoService{
		demos:    db.Collection(repository.DemosCollection),
		contacts: contacts,
		activity: activity,
		now:      time.Now,
	}
}

// Create 记录一次演示
func (s *DemoService) Create(ctx context.Context, user *utils.LoginUser, input models.DemoCreate) (*models.Demo, error) {
	contact, err := s.contacts.Get(ctx, input.ContactID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	demo := models.Demo{
		ID:        uuid.NewString(),
		ContactID: input.ContactID,
		UserID:    user.ID,
		UserEmail: user.Email,
		GivenAt:   now,
		Notes:     input.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.demos.InsertOne(ctx, demo); err != nil {
		return nil, err
	}

	s.activity.Log(ctx, user, "Demo given", contact.Phone,
		fmt.Sprintf("Shop: %s, Given at: %s", ShopNameOf(contact.Data), demo.GivenAt.Format(time.RFC3339)))
	return &demo, nil
}

// MarkWatched 标记已观看，仅创建者可操作
func (s *DemoService) MarkWatched(ctx context.Context, user *utils.LoginUser, id string, input models.DemoWatchUpdate) (*models.DemoWatchResponse, error) {
	var demo models.Demo
	if err := s.demos.FindOne(ctx, bson.M{"_id": id}, &demo); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.CreateNotFoundError("Demo")
		}
		return nil, err
	}
	if demo.UserID != user.ID {
		return nil, utils.CreateForbiddenError()
	}

	// 重复标记时保留首次观看时间
	now := s.now().UTC()
	watchedAt := now
	switch {
	case input.WatchedAt != nil:
		watchedAt = input.WatchedAt.UTC()
	case demo.Watched && demo.WatchedAt != nil:
		watchedAt = demo.WatchedAt.UTC()
	}

	set := bson.M{"watched": true, "watched_at": watchedAt, "updated_at": now}
	if _, err := s.demos.UpdateOne(ctx, bson.M{"_id": id}, set); err != nil {
		return nil, err
	}

	if contact, err := s.contacts.Get(ctx, demo.ContactID); err == nil {
		s.activity.Log(ctx, user, "Demo watched", contact.Phone,
			fmt.Sprintf("Shop: %s, Watched at: %s", ShopNameOf(contact.Data), watchedAt.Format(time.RFC3339)))
	}
	return &models.DemoWatchResponse{Message: "Demo marked as watched", WatchedAt: watchedAt}, nil
}

// ListByContact 联系人的演示记录，按演示时间倒序
func (s *DemoService) ListByContact(ctx context.Context, contactID string) ([]models.Demo, error) {
	demos := []models.Demo{}
	opts := &repository.FindOptions{Sort: bson.D{{Key: "given_at", Value: -1}}}
	if err := s.demos.Find(ctx, bson.M{"contact_id": contactID}, opts, &demos); err != nil {
		return nil, err
	}
	return demos, nil
}

// Report 按日/周/月统计演示与观看数
func (s *DemoService) Report(ctx context.Context, start, end, groupBy string) ([]models.DemoPeriodStats, error) {
	if groupBy == "" {
		groupBy = models.GroupByDay
	}
	periodOf, ok := periodFormatters[groupBy]
	if !ok {
		return nil, utils.CreateBadRequestError("Invalid group_by parameter")
	}

	demos, err := s.demosBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	byPeriod := map[string]*models.DemoPeriodStats{}
	for _, demo := range demos {
		key := periodOf(demo.GivenAt.UTC())
		stats, ok := byPeriod[key]
		if !ok {
			stats = &models.DemoPeriodStats{Period: key}
			byPeriod[key] = stats
		}
		stats.Given++
		if demo.Watched {
			stats.Watched++
		}
	}

	report := make([]models.DemoPeriodStats, 0, len(byPeriod))
	for _, stats := range byPeriod {
		stats.Conversion = conversionRate(stats.Watched, stats.Given)
		report = append(report, *stats)
	}
	sort.Slice(report, func(i, j int) bool { return report[i].Period < report[j].Period })
	return report, nil
}

// Summary 时间范围内的演示汇总
func (s *DemoService) Summary(ctx context.Context, start, end string) (*models.DemoSummary, error) {
	demos, err := s.demosBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	summary := &models.DemoSummary{Given: len(demos)}
	for _, demo := range demos {
		if demo.Watched {
			summary.Watched++
		}
	}
	summary.Conversion = conversionRate(summary.Watched, summary.Given)
	return summary, nil
}

func (s *DemoService) demosBetween(ctx context.Context, start, end string) ([]models.Demo, error) {
	from, _, err := parseReportDate(start)
	if err != nil {
		return nil, err
	}
	to, dateOnly, err := parseReportDate(end)
	if err != nil {
		return nil, err
	}
	if dateOnly {
		// 仅日期时包含当天
		to = to.Add(24*time.Hour - time.Microsecond)
	}

	demos := []models.Demo{}
	filter := bson.M{"given_at": bson.M{"$gte": from, "$lte": to}}
	opts := &repository.FindOptions{Sort: bson.D{{Key: "given_at", Value: 1}}}
	if err := s.demos.Find(ctx, filter, opts, &demos); err != nil {
		return nil, err
	}
	return demos, nil
}

// parseReportDate 纯日期时 dateOnly 为 true
func parseReportDate(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	for i, layout := range models.TimestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), i == len(models.TimestampLayouts)-1, nil
		}
	}
	return time.Time{}, false, utils.CreateBadRequestError("Invalid date format")
}

var periodFormatters = map[string]func(time.Time) string{
	models.GroupByDay:   func(t time.Time) string { return t.Format("2006-01-02") },
	models.GroupByWeek:  weekOfYear,
	models.GroupByMonth: func(t time.Time) string { return t.Format("2006-01") },
}

// weekOfYear 与 strftime %Y-%U 一致：周日为一周开始，首个周日之前为第 00 周
func weekOfYear(t time.Time) string {
	week := (t.YearDay() - 1 + 7 - int(t.Weekday())) / 7
	return fmt.Sprintf("%04d-%02d", t.Year(), week)
}

func conversionRate(watched, given int) float64 {
	if given == 0 {
		return 0
	}
	return math.Round(float64(watched)/float64(given)*1000) / 1000
}
