package service

import (
	"context"
	"testing"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestMeetingLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	contact := env.createContact(t, "8001", nil)

	meeting, err := env.meetings.Create(ctx, env.user, models.MeetingCreate{
		Title:     "Kickoff",
		Date:      "2024-06-01",
		Time:      strPtr("10:00"),
		Attendees: []map[string]interface{}{{"name": "Ravi", "phone": contact.Phone}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MeetingScheduled, meeting.Status)

	err = env.meetings.Update(ctx, env.user, meeting.ID, models.MeetingUpdate{})
	assert.ErrorIs(t, err, utils.ErrValidation)

	require.NoError(t, env.meetings.Update(ctx, env.user, meeting.ID, models.MeetingUpdate{Time: strPtr("11:30")}))
	require.NoError(t, env.meetings.Update(ctx, env.user, meeting.ID, models.MeetingUpdate{Status: strPtr(models.MeetingCompleted)}))
	require.NoError(t, env.meetings.Update(ctx, env.user, meeting.ID, models.MeetingUpdate{Location: strPtr("Office")}))

	got, err := env.meetings.Get(ctx, env.user, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, "11:30", *got.Time)
	assert.Equal(t, "Office", *got.Location)
	assert.Equal(t, models.MeetingCompleted, got.Status)

	assert.ErrorIs(t, env.meetings.UpdateStatus(ctx, env.user, meeting.ID, "postponed"), utils.ErrValidation)
	require.NoError(t, env.meetings.UpdateStatus(ctx, env.user, meeting.ID, models.MeetingCancelled))

	require.NoError(t, env.meetings.Delete(ctx, env.user, meeting.ID))
	_, err = env.meetings.Get(ctx, env.user, meeting.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	logs, err := env.activity.List(ctx, 0, 0)
	require.NoError(t, err)
	targets := map[string]string{}
	for _, l := range logs {
		if l.Target != nil {
			targets[l.Action] = *l.Target
		}
	}
	assert.Equal(t, contact.Phone, targets["Created meeting"])
	assert.Contains(t, targets, "Rescheduled meeting")
	assert.Contains(t, targets, "Updated meeting status to completed")
	assert.Contains(t, targets, "Updated meeting")
	assert.Contains(t, targets, "Cancelled meeting")
	assert.Contains(t, targets, "Deleted meeting")
}

func TestMeetingsAreUserScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	other := &utils.LoginUser{ID: gofakeit.UUID(), Email: gofakeit.Email()}

	for _, date := range []string{"2024-06-03", "2024-06-01", "2024-06-02"} {
		_, err := env.meetings.Create(ctx, env.user, models.MeetingCreate{Title: "Sync", Date: date})
		require.NoError(t, err)
	}
	theirs, err := env.meetings.Create(ctx, other, models.MeetingCreate{Title: "Private", Date: "2024-06-01"})
	require.NoError(t, err)

	mine, err := env.meetings.List(ctx, env.user, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, "2024-06-01", mine[0].Date)
	assert.Equal(t, "2024-06-03", mine[2].Date)

	_, err = env.meetings.Get(ctx, env.user, theirs.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.ErrorIs(t, env.meetings.Delete(ctx, env.user, theirs.ID), utils.ErrNotFound)

	cancelled, err := env.meetings.List(ctx, env.user, models.MeetingCancelled, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, cancelled)
}

func TestAttendeeSummary(t *testing.T) {
	assert.Equal(t, "No attendees", attendeeSummary(nil))
	assert.Equal(t, "Ravi (8001), Unknown", attendeeSummary([]map[string]interface{}{
		{"name": "Ravi", "phone": "8001"},
		{"email": "x@example.com"},
	}))
}

func TestNotesByContact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	contact := env.createContact(t, "8002", nil)

	_, err := env.notes.Create(ctx, env.user, models.NoteCreate{ContactID: contact.ID, Content: "  "})
	assert.ErrorIs(t, err, utils.ErrValidation)

	for _, content := range []string{"first", "second"} {
		_, err := env.notes.Create(ctx, env.user, models.NoteCreate{ContactID: contact.ID, Content: content})
		require.NoError(t, err)
	}

	notes, err := env.notes.ListByContact(ctx, contact.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
	assert.Contains(t, env.activityActions(t), "Added note")
}
