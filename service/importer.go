package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/BerniceZTT/smartcrm/config"
	"github.com/BerniceZTT/smartcrm/metrics"
	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/repository"
	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// 结构化字段
const (
	FieldPhone        = "phone"
	FieldPhone2       = "phone2"
	FieldCustomerName = "customer_name"
	FieldStatus       = "status"
	FieldShopName     = "shop_name"
)

// 映射中可识别的字段名
var knownFields = map[string]bool{
	FieldPhone:        true,
	FieldPhone2:       true,
	FieldCustomerName: true,
	FieldStatus:       true,
	FieldShopName:     true,
	"name":            true,
	"email":           true,
	"address":         true,
	"city":            true,
	"state":           true,
	"category":        true,
}

// 视为空值的单元格内容（去空白、忽略大小写）
var absentValues = map[string]bool{
	"":     true,
	"n/a":  true,
	"na":   true,
	"null": true,
	"none": true,
	"nan":  true,
}

const syntheticKeyMaxLen = 15

// FieldMapping 字段名到表格列名
type FieldMapping map[string]string

// ImportService 表格导入与预览
type ImportService struct {
	contacts      repository.Collection
	activity      *ActivityService
	direction     string
	defaultStatus string
	now           func() time.Time
}

// NewImportService 创建导入服务
func NewImportService(db repository.Database, activity *ActivityService, cfg config.ImportConfig) *ImportService {
	s := &ImportService{
		contacts:      db.Collection(repository.ContactsCollection),
		activity:      activity,
		direction:     cfg.MappingDirection,
		defaultStatus: cfg.DefaultStatus,
		now:           time.Now,
	}
	if s.direction == "" {
		s.direction = config.MappingFieldToColumn
	}
	if s.defaultStatus == "" {
		s.defaultStatus = models.DefaultContactStatus
	}
	return s
}

// ParseColumnMapping 解析并校验列映射
func ParseColumnMapping(raw, direction string) (FieldMapping, error) {
	var pairs map[string]string
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, utils.CreateBadRequestError("Invalid column mapping: " + err.Error())
	}

	mapping := FieldMapping{}
	switch direction {
	case config.MappingColumnToField:
		// 多列映射到同一字段时取列名排序最前者
		columns := make([]string, 0, len(pairs))
		for column := range pairs {
			columns = append(columns, column)
		}
		sort.Strings(columns)
		for _, column := range columns {
			field := strings.TrimSpace(pairs[column])
			column = strings.TrimSpace(column)
			if field == "" || column == "" {
				continue
			}
			if _, exists := mapping[field]; !exists {
				mapping[field] = column
			}
		}
	default:
		for field, column := range pairs {
			field, column = strings.TrimSpace(field), strings.TrimSpace(column)
			if field == "" || column == "" {
				continue
			}
			mapping[field] = column
		}
	}

	if len(mapping) == 0 {
		return nil, utils.CreateBadRequestError("Invalid column mapping: no fields mapped")
	}

	known := false
	for field := range mapping {
		if strings.HasPrefix(field, "$") || strings.Contains(field, ".") {
			return nil, utils.CreateBadRequestError(fmt.Sprintf("Invalid column mapping: %q is not a valid field name", field))
		}
		if knownFields[field] {
			known = true
		}
	}
	if !known {
		return nil, utils.CreateBadRequestError("Invalid column mapping: no known field names (direction " + direction + ")")
	}
	return mapping, nil
}

// Import 导入表格中的联系人
func (s *ImportService) Import(ctx context.Context, user *utils.LoginUser, payload []byte, rawMapping string) (*models.ImportResult, error) {
	mapping, err := ParseColumnMapping(rawMapping, s.direction)
	if err != nil {
		return nil, err
	}

	table, err := ReadTable(payload, 0)
	if err != nil {
		return nil, err
	}

	result := &models.ImportResult{Message: "Import completed", OriginalExcelRows: len(table.Rows)}

	phoneIdx, hasPhone := table.lookup(mapping, FieldPhone)
	rows := table.Rows
	if hasPhone {
		rows = dedupeRows(rows, phoneIdx)
	}
	result.FileDuplicatesRemoved = len(table.Rows) - len(rows)

	// 固定遍历顺序
	fields := make([]string, 0, len(mapping))
	for field := range mapping {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for i, row := range rows {
		seq := i + 1
		result.TotalProcessed++

		contact := s.buildContact(table, mapping, fields, row, seq)

		exists, err := s.phoneExists(ctx, contact.Phone)
		if err != nil {
			utils.LogError(err, map[string]interface{}{"phone": contact.Phone, "row": seq}, "导入查重失败")
			result.Skipped++
			continue
		}
		if exists {
			result.DBDuplicates++
			result.Skipped++
			continue
		}

		if len(contact.Data) == 0 {
			result.EmptyDataSkipped++
			result.Skipped++
			continue
		}

		if err := s.contacts.InsertOne(ctx, contact); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				result.DBDuplicates++
			} else {
				utils.LogError(err, map[string]interface{}{"phone": contact.Phone, "row": seq}, "导入写入失败")
			}
			result.Skipped++
			continue
		}
		result.Imported++
	}

	metrics.IncImportRows("imported", result.Imported)
	metrics.IncImportRows("db_duplicate", result.DBDuplicates)
	metrics.IncImportRows("empty", result.EmptyDataSkipped)
	metrics.IncImportRows("file_duplicate", result.FileDuplicatesRemoved)
	metrics.IncImportRows("failed", result.Skipped-result.DBDuplicates-result.EmptyDataSkipped)

	utils.LogInfo(map[string]interface{}{
		"originalRows":   result.OriginalExcelRows,
		"fileDuplicates": result.FileDuplicatesRemoved,
		"processed":      result.TotalProcessed,
		"imported":       result.Imported,
		"dbDuplicates":   result.DBDuplicates,
		"empty":          result.EmptyDataSkipped,
		"skipped":        result.Skipped,
	}, "联系人导入完成")

	s.activity.Log(ctx, user, "Imported contacts", "", fmt.Sprintf(
		"Imported %d contacts, skipped %d (duplicates: %d, empty: %d, file duplicates removed: %d)",
		result.Imported, result.Skipped, result.DBDuplicates, result.EmptyDataSkipped, result.FileDuplicatesRemoved))

	return result, nil
}

// buildContact 按映射构建联系人，seq 为去重后的行序号（从1开始）
func (s *ImportService) buildContact(table *Table, mapping FieldMapping, fields []string, row []string, seq int) models.Contact {
	data := map[string]string{}
	for _, field := range fields {
		if field == FieldPhone || field == FieldPhone2 || field == FieldCustomerName {
			continue
		}
		if v, ok := table.cell(row, mapping[field]); ok {
			data[field] = v
		}
	}

	phone, _ := table.cell(row, mapping[FieldPhone])
	if v, ok := table.cell(row, mapping[FieldPhone2]); ok {
		data[FieldPhone2] = v
	}
	customerName, hasName := table.cell(row, mapping[FieldCustomerName])
	if phone == "" {
		phone = SyntheticPhone(firstNonEmpty(data[FieldShopName], customerName, data["name"]), seq)
	}

	status := s.defaultStatus
	if v, ok := data[FieldStatus]; ok {
		status = v
		delete(data, FieldStatus)
	}

	now := s.now().UTC()
	contact := models.Contact{
		ID:        uuid.NewString(),
		Phone:     phone,
		Status:    status,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if hasName {
		contact.CustomerName = &customerName
	}
	return contact
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *ImportService) phoneExists(ctx context.Context, phone string) (bool, error) {
	count, err := s.contacts.CountDocuments(ctx, bson.M{"phone": phone})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SyntheticPhone 无手机号时用店铺名（或客户名）加序号生成标识
func SyntheticPhone(shopName string, seq int) string {
	slug := slugify(shopName)
	if slug == "" {
		return fmt.Sprintf("contact_%d", seq)
	}
	return fmt.Sprintf("%s_%d", slug, seq)
}

func slugify(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	runes := make([]rune, 0, syntheticKeyMaxLen)
	for _, r := range s {
		if len(runes) == syntheticKeyMaxLen {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			runes = append(runes, r)
		} else {
			runes = append(runes, '_')
		}
	}
	return string(runes)
}

// NormalizeCell 清理单元格，返回值与是否有值
func NormalizeCell(raw string) (string, bool) {
	v := strings.TrimSpace(strings.ToValidUTF8(raw, ""))
	if absentValues[strings.ToLower(v)] {
		return "", false
	}
	return v, true
}

// dedupeRows 按手机号列去重，保留首次出现；空手机号不参与去重
func dedupeRows(rows [][]string, phoneIdx int) [][]string {
	seen := make(map[string]bool, len(rows))
	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		phone, ok := NormalizeCell(row[phoneIdx])
		if ok {
			if seen[phone] {
				continue
			}
			seen[phone] = true
		}
		kept = append(kept, row)
	}
	return kept
}

func (t *Table) lookup(mapping FieldMapping, field string) (int, bool) {
	column, ok := mapping[field]
	if !ok {
		return -1, false
	}
	return t.Column(column)
}

// cell 取指定列的清理后值，列不存在或为空值时返回 false
func (t *Table) cell(row []string, column string) (string, bool) {
	if column == "" {
		return "", false
	}
	idx, ok := t.Column(column)
	if !ok || idx >= len(row) {
		return "", false
	}
	return NormalizeCell(row[idx])
}
