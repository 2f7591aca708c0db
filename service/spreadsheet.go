package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/xuri/excelize/v2"
)

// Table 表格内容，所有单元格均为文本
type Table struct {
	Headers []string
	Rows    [][]string
}

type tableReader struct {
	name string
	read func(payload []byte) ([][]string, error)
}

// 依次尝试的解析器
var tableReaders = []tableReader{
	{name: "xlsx", read: readXLSX},
	{name: "delimited", read: readDelimited},
}

// ReadTable 解析上传的表格，maxRows 为 0 时读取全部数据行
func ReadTable(payload []byte, maxRows int) (*Table, error) {
	if len(payload) == 0 {
		return nil, utils.CreateParseError("Uploaded file is empty")
	}

	var errs []error
	for _, reader := range tableReaders {
		records, err := safeRead(reader, payload)
		if err != nil {
			utils.Logger.Debug().Err(err).Str("reader", reader.name).Msg("表格解析失败，尝试下一个解析器")
			errs = append(errs, fmt.Errorf("%s: %w", reader.name, err))
			continue
		}
		if len(records) == 0 {
			errs = append(errs, fmt.Errorf("%s: no header row", reader.name))
			continue
		}
		return buildTable(records, maxRows), nil
	}

	return nil, utils.CreateParseError("Unable to read spreadsheet: " + errors.Join(errs...).Error())
}

func safeRead(reader tableReader, payload []byte) (records [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reader panic: %v", r)
		}
	}()
	return reader.read(payload)
}

func readXLSX(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	// 读取原始值，不做数字/日期格式化
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readDelimited(payload []byte) ([][]string, error) {
	if bytes.IndexByte(payload, 0) >= 0 {
		return nil, errors.New("binary content")
	}
	if !utf8.Valid(payload) {
		// 丢弃少量损坏字节，大量无效字节视为非文本
		cleaned := bytes.ToValidUTF8(payload, nil)
		if len(payload)-len(cleaned) > len(payload)/20 {
			return nil, errors.New("not UTF-8 text")
		}
		payload = cleaned
	}
	payload = bytes.TrimPrefix(payload, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(payload))
	r.Comma = sniffDelimiter(payload)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// sniffDelimiter 根据首行判断分隔符
func sniffDelimiter(payload []byte) rune {
	line := payload
	if i := bytes.IndexByte(payload, '\n'); i >= 0 {
		line = payload[:i]
	}

	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func buildTable(records [][]string, maxRows int) *Table {
	headers := normalizeHeaders(records[0])

	table := &Table{Headers: headers}
	for _, record := range records[1:] {
		if maxRows > 0 && len(table.Rows) >= maxRows {
			break
		}
		if isBlankRecord(record) {
			continue
		}
		row := make([]string, len(headers))
		copy(row, record)
		table.Rows = append(table.Rows, row)
	}
	return table
}

// normalizeHeaders 去除首尾空白，空列名补为 Unnamed: i，重复列名加 .1/.2 后缀
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	suffix := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(strings.ToValidUTF8(h, ""))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for used[name] {
			suffix[h]++
			name = fmt.Sprintf("%s.%d", h, suffix[h])
		}
		used[name] = true
		headers[i] = name
	}
	return headers
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Column 按列名返回列下标
func (t *Table) Column(name string) (int, bool) {
	for i, h := range t.Headers {
		if h == name {
			return i, true
		}
	}
	return -1, false
}
