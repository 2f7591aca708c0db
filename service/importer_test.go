package service

import (
	"context"
	"testing"

	"github.com/BerniceZTT/smartcrm/config"
	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

const aceMapping = `{"phone":"Phone","customer_name":"Name","email":"Email"}`

func aceSheet(t *testing.T) []byte {
	return xlsxFixture(t, [][]interface{}{
		{"Phone", "Name", "Email"},
		{"9990001111", "Bob Stone", "bob@example.com"},
		{"", "Ace Shop", "ace@example.com"},
		{"9990003333", "Carol Reed", "carol@example.com"},
	})
}

func TestImportSynthesizesPhoneForBlankRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.imports.Import(ctx, env.user, aceSheet(t), aceMapping)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 3, result.OriginalExcelRows)
	assert.Equal(t, 3, result.TotalProcessed)

	ace, err := env.contacts.FindByPhone(ctx, "Ace_Shop_2")
	require.NoError(t, err)
	require.NotNil(t, ace)
	require.NotNil(t, ace.CustomerName)
	assert.Equal(t, "Ace Shop", *ace.CustomerName)
	assert.Equal(t, "ace@example.com", ace.Data["email"])
	assert.Equal(t, models.DefaultContactStatus, ace.Status)

	assert.Contains(t, env.activityActions(t), "Imported contacts")
}

func TestImportTwiceReportsDatabaseDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.imports.Import(ctx, env.user, aceSheet(t), aceMapping)
	require.NoError(t, err)

	second, err := env.imports.Import(ctx, env.user, aceSheet(t), aceMapping)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 3, second.Skipped)
	assert.Equal(t, 3, second.DBDuplicates)

	count, err := env.contacts.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count.Total)
}

func TestImportRemovesFileDuplicatesAndEmptyRows(t *testing.T) {
	env := newTestEnv(t)
	csv := "Phone,Name,Email,Status\n" +
		"111,Ann,ann@example.com,Hot\n" +
		"111,Ann Again,ann2@example.com,\n" +
		"222,,N/A,none\n" +
		"333,Dan,,\n" +
		",,,\n"

	result, err := env.imports.Import(context.Background(), env.user, []byte(csv),
		`{"phone":"Phone","customer_name":"Name","email":"Email","status":"Status"}`)
	require.NoError(t, err)

	assert.Equal(t, 4, result.OriginalExcelRows)
	assert.Equal(t, 1, result.FileDuplicatesRemoved)
	assert.Equal(t, 3, result.TotalProcessed)
	// 222 只有空值，333 只有客户名
	assert.Equal(t, 2, result.EmptyDataSkipped)
	assert.Equal(t, 1, result.Imported)

	ann, err := env.contacts.FindByPhone(context.Background(), "111")
	require.NoError(t, err)
	require.NotNil(t, ann)
	assert.Equal(t, "Hot", ann.Status)
	assert.NotContains(t, ann.Data, "status")
}

func TestImportColumnToFieldDirection(t *testing.T) {
	env := newTestEnv(t)
	env.imports = NewImportService(env.db, env.activity, config.ImportConfig{
		MappingDirection: config.MappingColumnToField,
		DefaultStatus:    "Follow-up",
	})

	csv := "Mobile;Shop Name;City\n5550001;Ace Hardware;Pune\n;Corner Store;Delhi\n"
	result, err := env.imports.Import(context.Background(), env.user, []byte(csv),
		`{"Mobile":"phone","Shop Name":"shop_name","City":"city"}`)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)

	corner, err := env.contacts.FindByPhone(context.Background(), "Corner_Store_2")
	require.NoError(t, err)
	require.NotNil(t, corner)
	assert.Equal(t, "Follow-up", corner.Status)
	assert.Equal(t, "Delhi", corner.Data["city"])
}

func TestImportRejectsBadInputBeforeWriting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.imports.Import(ctx, env.user, aceSheet(t), `not json`)
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = env.imports.Import(ctx, env.user, []byte("\x00\x01\x02garbage"), aceMapping)
	assert.ErrorIs(t, err, utils.ErrParse)

	n, err := env.db.Collection("contacts").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestParseColumnMapping(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		direction string
		want      FieldMapping
		wantErr   bool
	}{
		{
			name:      "field to column",
			raw:       `{"phone":"Phone","email":" Email "}`,
			direction: config.MappingFieldToColumn,
			want:      FieldMapping{"phone": "Phone", "email": "Email"},
		},
		{
			name:      "column to field keeps first column",
			raw:       `{"Mobile":"phone","Cell":"phone","Town":"city"}`,
			direction: config.MappingColumnToField,
			want:      FieldMapping{"phone": "Cell", "city": "Town"},
		},
		{
			name:      "blank entries dropped",
			raw:       `{"phone":"Phone","notes":""}`,
			direction: config.MappingFieldToColumn,
			want:      FieldMapping{"phone": "Phone"},
		},
		{name: "empty", raw: `{}`, direction: config.MappingFieldToColumn, wantErr: true},
		{name: "wrong direction", raw: `{"Phone":"phone"}`, direction: config.MappingFieldToColumn, wantErr: true},
		{name: "operator key", raw: `{"phone":"Phone","$where":"x"}`, direction: config.MappingFieldToColumn, wantErr: true},
		{name: "dotted key", raw: `{"phone":"Phone","data.x":"X"}`, direction: config.MappingFieldToColumn, wantErr: true},
		{name: "not an object", raw: `["phone"]`, direction: config.MappingFieldToColumn, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColumnMapping(tt.raw, tt.direction)
			if tt.wantErr {
				assert.ErrorIs(t, err, utils.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyntheticPhone(t *testing.T) {
	assert.Equal(t, "Ace_Shop_4", SyntheticPhone("Ace Shop", 4))
	assert.Equal(t, "contact_7", SyntheticPhone("  ", 7))
	assert.Equal(t, "A_very_long_sho_1", SyntheticPhone("A very long shop name", 1))
	assert.Equal(t, "Café_1", SyntheticPhone("Café", 1))
}

func TestNormalizeCell(t *testing.T) {
	for _, raw := range []string{"", "  ", "N/A", "na", "NULL", "None", "nan"} {
		_, ok := NormalizeCell(raw)
		assert.False(t, ok, raw)
	}
	v, ok := NormalizeCell("  0012 ")
	assert.True(t, ok)
	assert.Equal(t, "0012", v)
}
