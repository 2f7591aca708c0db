package models

// ImportResult 导入结果统计
type ImportResult struct {
	Message               string `json:"message"`
	Imported              int    `json:"imported"`
	Skipped               int    `json:"skipped"`
	FileDuplicatesRemoved int    `json:"file_duplicates_removed"`
	DBDuplicates          int    `json:"db_duplicates"`
	EmptyDataSkipped      int    `json:"empty_data_skipped"`
	TotalProcessed        int    `json:"total_processed"`
	OriginalExcelRows     int    `json:"original_excel_rows"`
}

// PreviewResult 表格预览结果，空值为 null
type PreviewResult struct {
	Columns          []string             `json:"columns"`
	SampleData       []map[string]*string `json:"sample_data"`
	SuggestedMapping map[string]string    `json:"suggested_mapping"`
}

// MessageResponse 通用消息响应
type MessageResponse struct {
	Message string `json:"message"`
}
