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

const duplicatePhoneMessage = "Contact with this phone number already exists"

// 属性中可能出现的店铺名键
var shopNameKeys = []string{"shop_name", "Shop_Name", "Shop Name", "shop", "Shop"}

// ContactService 联系人管理
type ContactService struct {
	contacts      repository.Collection
	activity      *ActivityService
	defaultStatus string
	now           func() time.Time
}

// NewContactService 创建联系人服务
func NewContactService(db repository.Database, activity *ActivityService, defaultStatus string) *ContactService {
	if defaultStatus == "" {
		defaultStatus = models.DefaultContactStatus
	}
	return &ContactService{
		contacts:      db.Collection(repository.ContactsCollection),
		activity:      activity,
		defaultStatus: defaultStatus,
		now:           time.Now,
	}
}

// Create 创建联系人，手机号重复时拒绝
func (s *ContactService) Create(ctx context.Context, user *utils.LoginUser, input models.ContactCreate) (*models.Contact, error) {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, utils.CreateBadRequestError("phone is required")
	}

	exists, err := s.phoneExists(ctx, phone, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, utils.CreateDuplicateError(duplicatePhoneMessage)
	}

	now := s.now().UTC()
	contact := models.Contact{
		ID:           uuid.NewString(),
		Phone:        phone,
		CustomerName: input.CustomerName,
		Status:       s.defaultStatus,
		Data:         input.Data,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.Status != nil {
		contact.Status = *input.Status
	}
	if contact.Data == nil {
		contact.Data = map[string]string{}
	}

	if err := s.contacts.InsertOne(ctx, contact); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, utils.CreateDuplicateError(duplicatePhoneMessage)
		}
		return nil, err
	}

	s.activity.Log(ctx, user, "Created contact", contact.Phone,
		fmt.Sprintf("Customer: %s, Shop: %s, Phone: %s", customerNameOf(&contact), ShopNameOf(contact.Data), contact.Phone))
	return &contact, nil
}

// Get 按ID获取联系人
func (s *ContactService) Get(ctx context.Context, id string) (*models.Contact, error) {
	var contact models.Contact
	if err := s.contacts.FindOne(ctx, bson.M{"_id": id}, &contact); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.CreateNotFoundError("Contact")
		}
		return nil, err
	}
	return &contact, nil
}

// FindByPhone 按手机号查找，不存在返回 nil
func (s *ContactService) FindByPhone(ctx context.Context, phone string) (*models.Contact, error) {
	var contact models.Contact
	err := s.contacts.FindOne(ctx, bson.M{"phone": phone}, &contact)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// Update 局部更新联系人
func (s *ContactService) Update(ctx context.Context, user *utils.LoginUser, id string, input models.ContactUpdate) (*models.Contact, error) {
	contact, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	var fields []string
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			return nil, utils.CreateBadRequestError("phone cannot be empty")
		}
		if phone != contact.Phone {
			exists, err := s.phoneExists(ctx, phone, contact.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, utils.CreateDuplicateError(duplicatePhoneMessage)
			}
		}
		set["phone"] = phone
		fields = append(fields, "phone")
	}
	if input.CustomerName != nil {
		set["customer_name"] = *input.CustomerName
		fields = append(fields, "customer_name")
	}
	if input.Status != nil {
		set["status"] = *input.Status
		fields = append(fields, "status")
	}
	if input.Data != nil {
		set["data"] = input.Data
		fields = append(fields, "data")
	}
	set["updated_at"] = s.now().UTC()
	fields = append(fields, "updated_at")

	if _, err := s.contacts.UpdateOne(ctx, bson.M{"_id": id}, set); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, utils.CreateDuplicateError(duplicatePhoneMessage)
		}
		return nil, err
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, user, "Updated contact", contact.Phone,
		fmt.Sprintf("Customer: %s, Shop: %s, Fields: %s", customerNameOf(updated), ShopNameOf(updated.Data), strings.Join(fields, ", ")))
	return updated, nil
}

// Delete 删除联系人，关联的备注/跟进/演示不会被删除
func (s *ContactService) Delete(ctx context.Context, user *utils.LoginUser, id string) error {
	contact, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.contacts.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return err
	}

	s.activity.Log(ctx, user, "Deleted contact", contact.Phone,
		fmt.Sprintf("Customer: %s, Shop: %s, Phone: %s", customerNameOf(contact), ShopNameOf(contact.Data), contact.Phone))
	return nil
}

// LogCall 记录一次拨打
func (s *ContactService) LogCall(ctx context.Context, user *utils.LoginUser, id string) (*models.CallLogResponse, error) {
	contact, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	callTime := s.now().UTC()
	if _, err := s.contacts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"last_call_at": callTime}); err != nil {
		return nil, err
	}

	s.activity.Log(ctx, user, "Called contact", contact.Phone, "Call made at "+callTime.Format(time.RFC3339))
	return &models.CallLogResponse{Message: "Call logged successfully", CallTime: callTime}, nil
}

// Count 联系人总数及按状态统计
func (s *ContactService) Count(ctx context.Context) (*models.ContactCount, error) {
	total, err := s.contacts.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	byStatus, err := s.contacts.CountByGroup(ctx, bson.M{}, "status")
	if err != nil {
		return nil, err
	}
	return &models.ContactCount{Total: total, ByStatus: byStatus}, nil
}

// phoneExists excludeID 为正在更新的联系人
func (s *ContactService) phoneExists(ctx context.Context, phone, excludeID string) (bool, error) {
	filter := bson.M{"phone": phone}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	count, err := s.contacts.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// targetFor 操作日志目标：联系人手机号，找不到时用 fallback
func (s *ContactService) targetFor(ctx context.Context, contactID, fallback string) (string, *models.Contact) {
	contact, err := s.Get(ctx, contactID)
	if err != nil {
		return fallback, nil
	}
	return contact.Phone, contact
}

// ShopNameOf 从属性中取店铺名
func ShopNameOf(data map[string]string) string {
	for _, key := range shopNameKeys {
		if v := data[key]; v != "" {
			return v
		}
	}
	return "Unknown Shop"
}

func customerNameOf(contact *models.Contact) string {
	if contact.CustomerName != nil && *contact.CustomerName != "" {
		return *contact.CustomerName
	}
	return "Unknown Customer"
}

// displayName 提醒邮件中的联系人称呼
func displayName(contact *models.Contact) string {
	if name := contact.Data["name"]; name != "" {
		return name
	}
	if contact.CustomerName != nil && *contact.CustomerName != "" {
		return *contact.CustomerName
	}
	return contact.Phone
}
