package service

import (
	"testing"

	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTableXLSX(t *testing.T) {
	payload := xlsxFixture(t, [][]interface{}{
		{"Phone", " Name ", "", "Name"},
		{"0123", "Ann", "x", "dup"},
		{},
		{"0456", "Ben"},
	})

	table, err := ReadTable(payload, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Phone", "Name", "Unnamed: 2", "Name.1"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"0123", "Ann", "x", "dup"}, table.Rows[0])
	assert.Equal(t, []string{"0456", "Ben", "", ""}, table.Rows[1])
}

func TestReadTableDelimitedFallback(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "comma", payload: "Phone,City\n1,Pune\n2,Goa\n"},
		{name: "semicolon", payload: "Phone;City\n1;Pune\n2;Goa\n"},
		{name: "tab", payload: "Phone\tCity\n1\tPune\n2\tGoa\n"},
		{name: "bom", payload: "\xef\xbb\xbfPhone,City\r\n1,Pune\r\n2,Goa\r\n"},
		{name: "stray invalid byte", payload: "Phone,City\n1,Pu\xffne\n2,Goa\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ReadTable([]byte(tt.payload), 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"Phone", "City"}, table.Headers)
			require.Len(t, table.Rows, 2)
			assert.Equal(t, "Pune", table.Rows[0][1])
		})
	}
}

func TestReadTableMaxRows(t *testing.T) {
	table, err := ReadTable([]byte("a\n1\n2\n3\n"), 2)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
}

func TestReadTableRejectsUnreadable(t *testing.T) {
	for name, payload := range map[string][]byte{
		"empty":  nil,
		"binary": {0x50, 0x4b, 0x03, 0x04, 0x00, 0x00},
		"latin1": []byte("\xe9\xe8\xe0\xf9\xe7\xe9\xe8\xe0"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadTable(payload, 0)
			assert.ErrorIs(t, err, utils.ErrParse)
		})
	}
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t)
	rows := [][]interface{}{{"Shop Name", "Mobile", "Notes"}}
	for i := 0; i < 8; i++ {
		rows = append(rows, []interface{}{"Shop", "555", "n/a"})
	}

	result, err := env.imports.Preview(xlsxFixture(t, rows))
	require.NoError(t, err)
	assert.Equal(t, []string{"Shop Name", "Mobile", "Notes"}, result.Columns)
	require.Len(t, result.SampleData, previewRows)
	assert.Nil(t, result.SampleData[0]["Notes"])
	require.NotNil(t, result.SampleData[0]["Mobile"])
	assert.Equal(t, "555", *result.SampleData[0]["Mobile"])
	assert.Equal(t, map[string]string{
		"Shop Name": FieldShopName,
		"Mobile":    FieldPhone,
		"Notes":     "",
	}, result.SuggestedMapping)
}
