package service

import (
	"context"
	"strings"
	"time"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/repository"
	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// NoteService 联系人备注
type NoteService struct {
	notes    repository.Collection
	contacts *ContactService
	activity *ActivityService
	now      func() time.Time
}

// NewNoteService 创建备注服务
func NewNoteService(db repository.Database, contacts *ContactService, activity *ActivityService) *NoteService {
	return &NoteService{
		notes:    db.Collection(repository.NotesCollection),
		contacts: contacts,
		activity: activity,
		now:      time.Now,
	}
}

// Create 添加备注
func (s *NoteService) Create(ctx context.Context, user *utils.LoginUser, input models.NoteCreate) (*models.Note, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, utils.CreateBadRequestError("content is required")
	}

	note := models.Note{
		ID:        uuid.NewString(),
		ContactID: input.ContactID,
		UserID:    user.ID,
		Content:   input.Content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.notes.InsertOne(ctx, note); err != nil {
		return nil, err
	}

	target, _ := s.contacts.targetFor(ctx, input.ContactID, input.ContactID)
	s.activity.Log(ctx, user, "Added note", target, "")
	return &note, nil
}

// ListByContact 联系人的备注，按创建时间倒序
func (s *NoteService) ListByContact(ctx context.Context, contactID string) ([]models.Note, error) {
	notes := []models.Note{}
	opts := &repository.FindOptions{Sort: bson.D{{Key: "created_at", Value: -1}}}
	if err := s.notes.Find(ctx, bson.M{"contact_id": contactID}, opts, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}
