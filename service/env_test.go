package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BerniceZTT/smartcrm/config"
	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/repository"
	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testEnv struct {
	db        *repository.MemoryDatabase
	activity  *ActivityService
	contacts  *ContactService
	imports   *ImportService
	followUps *FollowUpService
	meetings  *MeetingService
	demos     *DemoService
	notes     *NoteService
	user      *utils.LoginUser
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := repository.NewMemoryDatabase()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	require.NoError(t, repository.EnsureIndexes(context.Background(), db))

	activity := NewActivityService(db)
	contacts := NewContactService(db, activity, "")
	return &testEnv{
		db:        db,
		activity:  activity,
		contacts:  contacts,
		imports:   NewImportService(db, activity, config.ImportConfig{}),
		followUps: NewFollowUpService(db, contacts, activity),
		meetings:  NewMeetingService(db, contacts, activity),
		demos:     NewDemoService(db, contacts, activity),
		notes:     NewNoteService(db, contacts, activity),
		user:      &utils.LoginUser{ID: gofakeit.UUID(), Email: gofakeit.Email()},
	}
}

func (e *testEnv) createContact(t *testing.T, phone string, data map[string]string) *models.Contact {
	t.Helper()
	name := "Test Customer"
	contact, err := e.contacts.Create(context.Background(), e.user, models.ContactCreate{
		Phone:        phone,
		CustomerName: &name,
		Data:         data,
	})
	require.NoError(t, err)
	return contact
}

func (e *testEnv) activityActions(t *testing.T) []string {
	t.Helper()
	logs, err := e.activity.List(context.Background(), 0, 0)
	require.NoError(t, err)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	return actions
}

// xlsxFixture 生成首个工作表为 rows 的 xlsx 文件
func xlsxFixture(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.Clone(buf.Bytes())
}

type sentMessage struct {
	to, subject, body string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{to: to, subject: subject, body: body})
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

var errSMTPDown = errors.New("smtp: connection refused")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
