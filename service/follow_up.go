package service

import (
	"context"
	"errors"
	"time"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/repository"
	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	upcomingLimit         = 20
	defaultFollowUpsLimit = 20
)

// FollowUpService 跟进提醒
type FollowUpService struct {
	followUps repository.Collection
	contacts  *ContactService
	activity  *ActivityService
	now       func() time.Time
	// getContact 查询跟进关联的联系人
	getContact func(ctx context.Context, id string) (*models.Contact, error)
}

// NewFollowUpService 创建跟进服务
func NewFollowUpService(db repository.Database, contacts *ContactService, activity *ActivityService) *FollowUpService {
	return &FollowUpService{
		followUps:  db.Collection(repository.FollowUpsCollection),
		contacts:   contacts,
		activity:   activity,
		now:        time.Now,
		getContact: contacts.Get,
	}
}

// normalizeDateFilter 空筛选视为 all
func normalizeDateFilter(filter string) string {
	if filter == "" {
		return models.DateFilterAll
	}
	return filter
}

// DateWindow 计算 UTC 日期窗口，all 或空值返回 bounded=false
func DateWindow(filter string, now time.Time) (start, end time.Time, bounded bool, err error) {
	filter = normalizeDateFilter(filter)
	if !models.IsValidDateFilter(filter) {
		return time.Time{}, time.Time{}, false, utils.CreateBadRequestError("Invalid date_filter: must be one of today, tomorrow, this_week, all")
	}

	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := func(t time.Time) time.Time {
		return t.Add(24*time.Hour - time.Microsecond)
	}

	switch filter {
	case models.DateFilterToday:
		return dayStart, dayEnd(dayStart), true, nil
	case models.DateFilterTomorrow:
		tomorrow := dayStart.AddDate(0, 0, 1)
		return tomorrow, dayEnd(tomorrow), true, nil
	case models.DateFilterThisWeek:
		return dayStart, dayEnd(dayStart.AddDate(0, 0, 7)), true, nil
	}
	return time.Time{}, time.Time{}, false, nil
}

// Create 创建跟进，联系人不存在时也允许
func (s *FollowUpService) Create(ctx context.Context, user *utils.LoginUser, input models.FollowUpCreate) (*models.FollowUp, error) {
	followUp := models.FollowUp{
		ID:           uuid.NewString(),
		ContactID:    input.ContactID,
		UserID:       user.ID,
		UserEmail:    user.Email,
		FollowUpDate: input.FollowUpDate.UTC(),
		Notes:        input.Notes,
		Status:       models.FollowUpPending,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.followUps.InsertOne(ctx, followUp); err != nil {
		return nil, err
	}

	target, _ := s.contacts.targetFor(ctx, input.ContactID, input.ContactID)
	s.activity.Log(ctx, user, "Created follow-up", target, "Scheduled for "+followUp.FollowUpDate.Format(time.RFC3339))
	return &followUp, nil
}

// List 按状态列出跟进
func (s *FollowUpService) List(ctx context.Context, status string) ([]models.FollowUp, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	followUps, err := s.find(ctx, filter, 0, 0)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range followUps {
		s.markOverdue(ctx, &followUps[i], now)
	}
	return followUps, nil
}

// Upcoming 已逾期与即将到期的跟进，即将到期最多返回20条
func (s *FollowUpService) Upcoming(ctx context.Context) (*models.UpcomingFollowUps, error) {
	followUps, err := s.find(ctx, openFilter(), 0, 0)
	if err != nil {
		return nil, err
	}

	result := &models.UpcomingFollowUps{
		Overdue:  []models.FollowUpWithContact{},
		Upcoming: []models.FollowUpWithContact{},
	}
	now := s.now()
	lookup := s.contactLookup()
	for i := range followUps {
		overdue := followUps[i].FollowUpDate.Before(now)
		if !overdue && len(result.Upcoming) >= upcomingLimit {
			continue
		}

		item := models.FollowUpWithContact{FollowUp: followUps[i], Contact: lookup(ctx, followUps[i].ContactID)}
		if overdue {
			s.markOverdue(ctx, &item.FollowUp, now)
			result.Overdue = append(result.Overdue, item)
		} else {
			result.Upcoming = append(result.Upcoming, item)
		}
	}
	return result, nil
}

// ByDate 按日期窗口列出未完成跟进，联系人已删除的不返回
func (s *FollowUpService) ByDate(ctx context.Context, dateFilter string) (*models.FollowUpsByDate, error) {
	dateFilter = normalizeDateFilter(dateFilter)
	items, err := s.listWindow(ctx, dateFilter, 0, 0)
	if err != nil {
		return nil, err
	}
	return &models.FollowUpsByDate{Filter: dateFilter, Count: len(items), FollowUps: items}, nil
}

// Paginated 分页列出未完成跟进
func (s *FollowUpService) Paginated(ctx context.Context, dateFilter string, skip, limit int64) ([]models.FollowUpWithContact, error) {
	if limit <= 0 {
		limit = defaultFollowUpsLimit
	}
	if limit > utils.MaxPageLimit {
		limit = utils.MaxPageLimit
	}
	return s.listWindow(ctx, dateFilter, skip, limit)
}

// Complete 标记跟进完成
func (s *FollowUpService) Complete(ctx context.Context, user *utils.LoginUser, id string) error {
	var followUp models.FollowUp
	if err := s.followUps.FindOne(ctx, bson.M{"_id": id}, &followUp); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.CreateNotFoundError("Follow-up")
		}
		return err
	}

	if _, err := s.followUps.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"status": models.FollowUpCompleted}); err != nil {
		return err
	}

	target, _ := s.contacts.targetFor(ctx, followUp.ContactID, followUp.ContactID)
	s.activity.Log(ctx, user, "Completed follow-up", target, "")
	return nil
}

func (s *FollowUpService) listWindow(ctx context.Context, dateFilter string, skip, limit int64) ([]models.FollowUpWithContact, error) {
	start, end, bounded, err := DateWindow(dateFilter, s.now())
	if err != nil {
		return nil, err
	}

	filter := openFilter()
	if bounded {
		filter["follow_up_date"] = bson.M{"$gte": start, "$lte": end}
	}

	followUps, err := s.find(ctx, filter, skip, limit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	lookup := s.contactLookup()
	items := []models.FollowUpWithContact{}
	for i := range followUps {
		s.markOverdue(ctx, &followUps[i], now)
		contact := lookup(ctx, followUps[i].ContactID)
		if contact == nil {
			continue
		}
		items = append(items, models.FollowUpWithContact{FollowUp: followUps[i], Contact: contact})
	}
	return items, nil
}

func (s *FollowUpService) find(ctx context.Context, filter bson.M, skip, limit int64) ([]models.FollowUp, error) {
	followUps := []models.FollowUp{}
	opts := &repository.FindOptions{
		Sort:  bson.D{{Key: "follow_up_date", Value: 1}},
		Skip:  skip,
		Limit: limit,
	}
	if err := s.followUps.Find(ctx, filter, opts, &followUps); err != nil {
		return nil, err
	}
	return followUps, nil
}

// markOverdue 已过期的 pending 跟进改为 overdue，条件更新保证只写一次
func (s *FollowUpService) markOverdue(ctx context.Context, followUp *models.FollowUp, now time.Time) {
	if followUp.Status != models.FollowUpPending || !followUp.FollowUpDate.Before(now) {
		return
	}
	followUp.Status = models.FollowUpOverdue

	filter := bson.M{"_id": followUp.ID, "status": models.FollowUpPending}
	if _, err := s.followUps.UpdateOne(ctx, filter, bson.M{"status": models.FollowUpOverdue}); err != nil {
		utils.LogError(err, map[string]interface{}{"followUpId": followUp.ID}, "更新逾期状态失败")
	}
}

// contactLookup 单次请求内缓存联系人查询
func (s *FollowUpService) contactLookup() func(ctx context.Context, id string) *models.Contact {
	cache := map[string]*models.Contact{}
	return func(ctx context.Context, id string) *models.Contact {
		if contact, ok := cache[id]; ok {
			return contact
		}
		contact, err := s.getContact(ctx, id)
		if err != nil {
			contact = nil
		}
		cache[id] = contact
		return contact
	}
}

func openFilter() bson.M {
	return bson.M{"status": bson.M{"$in": []string{models.FollowUpPending, models.FollowUpOverdue}}}
}
