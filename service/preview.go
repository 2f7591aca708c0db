package service

import (
	"strings"

	"github.com/BerniceZTT/smartcrm/models"
)

const previewRows = 5

// 列名同义词（小写）到字段名
var columnSynonyms = map[string]string{
	"shop name":      FieldShopName,
	"shopname":       FieldShopName,
	"shop_name":      FieldShopName,
	"business name":  FieldShopName,
	"customer name":  FieldCustomerName,
	"customername":   FieldCustomerName,
	"customer_name":  FieldCustomerName,
	"name":           FieldCustomerName,
	"client name":    FieldCustomerName,
	"owner name":     FieldCustomerName,
	"street":         "address",
	"address":        "address",
	"location":       "address",
	"addr":           "address",
	"phone number":   FieldPhone,
	"phone_number":   FieldPhone,
	"phone":          FieldPhone,
	"mobile":         FieldPhone,
	"contact":        FieldPhone,
	"contact number": FieldPhone,
	"city":           "city",
	"state":          "state",
	"status":         FieldStatus,
	"category":       "category",
	"type":           "category",
	"classification": "category",
}

// SuggestField 根据列名推荐字段，无法识别时返回空串
func SuggestField(column string) string {
	return columnSynonyms[strings.ToLower(strings.TrimSpace(column))]
}

// Preview 读取表格前几行用于配置映射，不写入数据
func (s *ImportService) Preview(payload []byte) (*models.PreviewResult, error) {
	table, err := ReadTable(payload, previewRows)
	if err != nil {
		return nil, err
	}

	result := &models.PreviewResult{
		Columns:          table.Headers,
		SampleData:       make([]map[string]*string, 0, len(table.Rows)),
		SuggestedMapping: make(map[string]string, len(table.Headers)),
	}

	for _, row := range table.Rows {
		sample := make(map[string]*string, len(table.Headers))
		for i, column := range table.Headers {
			if v, ok := NormalizeCell(row[i]); ok {
				sample[column] = &v
			} else {
				sample[column] = nil
			}
		}
		result.SampleData = append(result.SampleData, sample)
	}

	for _, column := range table.Headers {
		result.SuggestedMapping[column] = SuggestField(column)
	}
	return result, nil
}
