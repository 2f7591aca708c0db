package service

import (
	"context"
	"time"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/repository"
	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// ActivityService 操作日志
type ActivityService struct {
	logs repository.Collection
	now  func() time.Time
}

// NewActivityService 创建操作日志服务
func NewActivityService(db repository.Database) *ActivityService {
	return &ActivityService{
		logs: db.Collection(repository.ActivityLogsCollection),
		now:  time.Now,
	}
}

// Log 追加一条操作日志，写入失败只记录不返回
func (s *ActivityService) Log(ctx context.Context, user *utils.LoginUser, action, target, details string) {
	entry := models.ActivityLog{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		UserEmail: user.Email,
		Action:    action,
		Target:    optionalString(target),
		Details:   optionalString(details),
		Timestamp: s.now().UTC(),
	}

	if err := s.logs.InsertOne(ctx, entry); err != nil {
		utils.LogError(err, map[string]interface{}{
			"action": action,
			"target": target,
			"userId": user.ID,
		}, "写入操作日志失败")
	}
}

// List 按时间倒序分页查询
func (s *ActivityService) List(ctx context.Context, skip, limit int64) ([]models.ActivityLog, error) {
	logs := []models.ActivityLog{}
	opts := &repository.FindOptions{
		Sort:  bson.D{{Key: "timestamp", Value: -1}},
		Skip:  skip,
		Limit: limit,
	}
	if err := s.logs.Find(ctx, bson.M{}, opts, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
