package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/repository"
	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// MeetingService 会议管理，按用户隔离
type MeetingService struct {
	meetings repository.Collection
	contacts *ContactService
	activity *ActivityService
	now      func() time.Time
}

// NewMeetingService 创建会议服务
func NewMeetingService(db repository.Database, contacts *ContactService, activity *ActivityService) *MeetingService {
	return &MeetingService{
		meetings: db.Collection(repository.MeetingsCollection),
		contacts: contacts,
		activity: activity,
		now:      time.Now,
	}
}

// Create 创建会议
func (s *MeetingService) Create(ctx context.Context, user *utils.LoginUser, input models.MeetingCreate) (*models.Meeting, error) {
	meeting := models.Meeting{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		UserEmail: user.Email,
		Title:     input.Title,
		Date:      input.Date,
		Time:      input.Time,
		Location:  input.Location,
		Notes:     input.Notes,
		Attendees: input.Attendees,
		Status:    models.MeetingScheduled,
		CreatedAt: s.now().UTC(),
	}
	if meeting.Attendees == nil {
		meeting.Attendees = []map[string]interface{}{}
	}
	if err := s.meetings.InsertOne(ctx, meeting); err != nil {
		return nil, err
	}

	s.activity.Log(ctx, user, "Created meeting", s.logTarget(ctx, &meeting),
		fmt.Sprintf("Meeting: %s, Date: %s %s, Attendees: %s", meeting.Title, meeting.Date, deref(meeting.Time), attendeeSummary(meeting.Attendees)))
	return &meeting, nil
}

// List 当前用户的会议，按日期升序
func (s *MeetingService) List(ctx context.Context, user *utils.LoginUser, status string, skip, limit int64) ([]models.Meeting, error) {
	filter := bson.M{"user_id": user.ID}
	if status != "" {
		filter["status"] = status
	}

	meetings := []models.Meeting{}
	opts := &repository.FindOptions{
		Sort:  bson.D{{Key: "date", Value: 1}},
		Skip:  skip,
		Limit: limit,
	}
	if err := s.meetings.Find(ctx, filter, opts, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

// Get 获取当前用户的会议
func (s *MeetingService) Get(ctx context.Context, user *utils.LoginUser, id string) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := s.meetings.FindOne(ctx, bson.M{"_id": id, "user_id": user.ID}, &meeting); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.CreateNotFoundError("Meeting")
		}
		return nil, err
	}
	return &meeting, nil
}

// Update 局部更新会议
func (s *MeetingService) Update(ctx context.Context, user *utils.LoginUser, id string, input models.MeetingUpdate) error {
	meeting, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}
	if input.IsEmpty() {
		return utils.CreateBadRequestError("No update data provided")
	}
	if input.Status != nil && !models.IsValidMeetingStatus(*input.Status) {
		return utils.CreateBadRequestError("Invalid status")
	}

	set := bson.M{}
	if input.Title != nil {
		set["title"] = *input.Title
	}
	if input.Date != nil {
		set["date"] = *input.Date
	}
	if input.Time != nil {
		set["time"] = *input.Time
	}
	if input.Location != nil {
		set["location"] = *input.Location
	}
	if input.Notes != nil {
		set["notes"] = *input.Notes
	}
	if input.Attendees != nil {
		set["attendees"] = input.Attendees
	}
	if input.Status != nil {
		set["status"] = *input.Status
	}

	if _, err := s.meetings.UpdateOne(ctx, bson.M{"_id": id, "user_id": user.ID}, set); err != nil {
		return err
	}

	attendees := attendeeSummary(meeting.Attendees)
	action := "Updated meeting"
	details := fmt.Sprintf("Meeting: %s, Attendees: %s", meeting.Title, attendees)
	switch {
	case input.Date != nil || input.Time != nil:
		action = "Rescheduled meeting"
		from := strings.TrimSpace(meeting.Date + " " + deref(meeting.Time))
		to := strings.TrimSpace(valueOr(input.Date, meeting.Date) + " " + valueOr(input.Time, deref(meeting.Time)))
		details = fmt.Sprintf("Meeting: %s, From: %s, To: %s, Attendees: %s", meeting.Title, from, to, attendees)
	case input.Status != nil:
		action = "Updated meeting status to " + *input.Status
		details = fmt.Sprintf("Meeting: %s, Status: %s, Attendees: %s", meeting.Title, *input.Status, attendees)
	}

	s.activity.Log(ctx, user, action, s.logTarget(ctx, meeting), details)
	return nil
}

// UpdateStatus 变更会议状态
func (s *MeetingService) UpdateStatus(ctx context.Context, user *utils.LoginUser, id, status string) error {
	if !models.IsValidMeetingStatus(status) {
		return utils.CreateBadRequestError("Invalid status")
	}
	meeting, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}

	if _, err := s.meetings.UpdateOne(ctx, bson.M{"_id": id, "user_id": user.ID}, bson.M{"status": status}); err != nil {
		return err
	}

	var action string
	switch status {
	case models.MeetingCompleted:
		action = "Completed meeting"
	case models.MeetingCancelled:
		action = "Cancelled meeting"
	default:
		action = "Updated meeting status to " + status
	}
	s.activity.Log(ctx, user, action, s.logTarget(ctx, meeting),
		fmt.Sprintf("Meeting: %s, Date: %s %s, Attendees: %s", meeting.Title, meeting.Date, deref(meeting.Time), attendeeSummary(meeting.Attendees)))
	return nil
}

// Delete 删除会议
func (s *MeetingService) Delete(ctx context.Context, user *utils.LoginUser, id string) error {
	meeting, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}
	target := s.logTarget(ctx, meeting)

	if _, err := s.meetings.DeleteOne(ctx, bson.M{"_id": id, "user_id": user.ID}); err != nil {
		return err
	}

	s.activity.Log(ctx, user, "Deleted meeting", target,
		fmt.Sprintf("Meeting: %s, Date: %s %s, Attendees: %s", meeting.Title, meeting.Date, deref(meeting.Time), attendeeSummary(meeting.Attendees)))
	return nil
}

// logTarget 首位参会人手机号对应的联系人，找不到时用会议标题
func (s *MeetingService) logTarget(ctx context.Context, meeting *models.Meeting) string {
	if len(meeting.Attendees) == 0 {
		return meeting.Title
	}
	phone, ok := meeting.Attendees[0]["phone"]
	if !ok || phone == nil {
		return meeting.Title
	}
	contact, err := s.contacts.FindByPhone(ctx, fmt.Sprint(phone))
	if err != nil || contact == nil {
		return meeting.Title
	}
	return contact.Phone
}

func attendeeSummary(attendees []map[string]interface{}) string {
	if len(attendees) == 0 {
		return "No attendees"
	}
	parts := make([]string, 0, len(attendees))
	for _, a := range attendees {
		name := "Unknown"
		if v, ok := a["name"]; ok && v != nil {
			name = fmt.Sprint(v)
		}
		if phone, ok := a["phone"]; ok && phone != nil {
			parts = append(parts, fmt.Sprintf("%s (%v)", name, phone))
		} else {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
