package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/repository"
	"github.com/BerniceZTT/smartcrm/utils"
	"go.mongodb.org/mongo-driver/bson"
)

// 属性中常见的键名写法，导入时键名大小写不固定
var searchDataFields = []string{
	// 店铺名
	"shop_name", "Shop_Name", "Shop Name", "shopName", "SHOP_NAME",
	"business_name", "Business_Name", "Business Name", "businessName", "BUSINESS_NAME",
	"shop", "Shop", "SHOP", "store_name", "Store_Name", "Store Name", "storeName",
	// 客户/负责人
	"name", "Name", "NAME", "customer_name", "Customer_Name", "Customer Name", "customerName",
	"owner_name", "Owner_Name", "Owner Name", "ownerName", "OWNER_NAME",
	"contact_person", "Contact_Person", "Contact Person", "contactPerson",
	// 地址
	"address", "Address", "ADDRESS", "full_address", "Full_Address", "Full Address", "fullAddress",
	"city", "City", "CITY", "state", "State", "STATE", "location", "Location", "LOCATION",
	// 组织
	"company", "Company", "COMPANY", "firm", "Firm", "FIRM",
	"organization", "Organization", "ORGANIZATION", "title", "Title", "TITLE",
}

// ContactQuery 联系人查询参数
type ContactQuery struct {
	Search string
	Status string
	Skip   int64
	Limit  int64
}

// BuildSearchFilter 构建联系人查询条件，搜索词按字面子串不区分大小写匹配
func BuildSearchFilter(search, status string) bson.M {
	filter := bson.M{}

	if term := strings.TrimSpace(search); term != "" {
		pattern := regexp.QuoteMeta(term)
		conditions := make([]bson.M, 0, len(searchDataFields)+2)
		conditions = append(conditions,
			bson.M{"phone": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"customer_name": bson.M{"$regex": pattern, "$options": "i"}},
		)
		for _, field := range searchDataFields {
			conditions = append(conditions, bson.M{"data." + field: bson.M{"$regex": pattern, "$options": "i"}})
		}
		filter["$or"] = conditions
	}

	if status != "" {
		filter["status"] = status
	}
	return filter
}

// Search 按创建时间倒序查询联系人
func (s *ContactService) Search(ctx context.Context, q ContactQuery) ([]models.Contact, error) {
	if q.Limit <= 0 {
		q.Limit = utils.DefaultPageLimit
	}
	if q.Limit > utils.MaxPageLimit {
		q.Limit = utils.MaxPageLimit
	}
	if q.Skip < 0 {
		q.Skip = 0
	}

	filter := BuildSearchFilter(q.Search, q.Status)
	utils.LogDbOperation("find", repository.ContactsCollection, filter, nil)

	contacts := []models.Contact{}
	opts := &repository.FindOptions{
		Sort:  bson.D{{Key: "created_at", Value: -1}},
		Skip:  q.Skip,
		Limit: q.Limit,
	}
	if err := s.contacts.Find(ctx, filter, opts, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}
