package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDateWindow(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	endOf := func(d int) time.Time { return day(d).Add(24*time.Hour - time.Microsecond) }

	tests := []struct {
		filter     string
		start, end time.Time
		bounded    bool
	}{
		{filter: models.DateFilterToday, start: day(14), end: endOf(14), bounded: true},
		{filter: models.DateFilterTomorrow, start: day(15), end: endOf(15), bounded: true},
		{filter: models.DateFilterThisWeek, start: day(14), end: endOf(21), bounded: true},
		{filter: models.DateFilterAll},
		{filter: ""},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			start, end, bounded, err := DateWindow(tt.filter, now)
			require.NoError(t, err)
			assert.Equal(t, tt.bounded, bounded)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}

	_, _, _, err := DateWindow("next_month", now)
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestOverdueIsWrittenOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	env.followUps.now = fixedClock(now)

	contact := env.createContact(t, "5001", nil)
	past, err := env.followUps.Create(ctx, env.user, models.FollowUpCreate{ContactID: contact.ID, FollowUpDate: now.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = env.followUps.Create(ctx, env.user, models.FollowUpCreate{ContactID: contact.ID, FollowUpDate: now.Add(time.Hour)})
	require.NoError(t, err)

	listed, err := env.followUps.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, models.FollowUpOverdue, listed[0].Status)
	assert.Equal(t, models.FollowUpPending, listed[1].Status)

	coll := env.db.Collection("followups")
	n, err := coll.CountDocuments(ctx, bson.M{"_id": past.ID, "status": models.FollowUpOverdue})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// 已是 overdue 的记录不再命中条件更新
	matched, err := coll.UpdateOne(ctx, bson.M{"_id": past.ID, "status": models.FollowUpPending}, bson.M{"status": models.FollowUpOverdue})
	require.NoError(t, err)
	assert.Zero(t, matched)

	upcoming, err := env.followUps.Upcoming(ctx)
	require.NoError(t, err)
	require.Len(t, upcoming.Overdue, 1)
	assert.Equal(t, past.ID, upcoming.Overdue[0].ID)
	assert.Len(t, upcoming.Upcoming, 1)
}

func TestUpcomingCapsFutureItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()
	env.followUps.now = fixedClock(now)

	contact := env.createContact(t, "5002", nil)
	for i := 1; i <= upcomingLimit+5; i++ {
		_, err := env.followUps.Create(ctx, env.user, models.FollowUpCreate{
			ContactID:    contact.ID,
			FollowUpDate: now.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	upcoming, err := env.followUps.Upcoming(ctx)
	require.NoError(t, err)
	assert.Empty(t, upcoming.Overdue)
	assert.Len(t, upcoming.Upcoming, upcomingLimit)
	assert.True(t, upcoming.Upcoming[0].FollowUpDate.Before(upcoming.Upcoming[1].FollowUpDate))
}

func TestByDateDropsOrphansAndCompleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	env.followUps.now = fixedClock(now)

	contact := env.createContact(t, "5003", nil)
	create := func(contactID string, at time.Time) *models.FollowUp {
		f, err := env.followUps.Create(ctx, env.user, models.FollowUpCreate{ContactID: contactID, FollowUpDate: at})
		require.NoError(t, err)
		return f
	}
	today := create(contact.ID, now.Add(2*time.Hour))
	create(contact.ID, now.Add(26*time.Hour))
	create("deleted-contact", now.Add(3*time.Hour))
	done := create(contact.ID, now.Add(4*time.Hour))
	require.NoError(t, env.followUps.Complete(ctx, env.user, done.ID))

	result, err := env.followUps.ByDate(ctx, models.DateFilterToday)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, today.ID, result.FollowUps[0].ID)
	require.NotNil(t, result.FollowUps[0].Contact)
	assert.Equal(t, "5003", result.FollowUps[0].Contact.Phone)

	week, err := env.followUps.ByDate(ctx, models.DateFilterThisWeek)
	require.NoError(t, err)
	assert.Equal(t, 2, week.Count)

	_, err = env.followUps.ByDate(ctx, "yesterday")
	assert.ErrorIs(t, err, utils.ErrValidation)

	page, err := env.followUps.Paginated(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestCompleteMissingFollowUp(t *testing.T) {
	env := newTestEnv(t)
	err := env.followUps.Complete(context.Background(), env.user, "nope")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestByDateEmptyFilterReportsAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.followUps.ByDate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, models.DateFilterAll, result.Filter)
	assert.Zero(t, result.Count)
}

func TestUpcomingSkipsLookupsPastCap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	env.followUps.now = fixedClock(now)

	var lookups []string
	get := env.followUps.getContact
	env.followUps.getContact = func(ctx context.Context, id string) (*models.Contact, error) {
		lookups = append(lookups, id)
		return get(ctx, id)
	}

	_, err := env.followUps.Create(ctx, env.user, models.FollowUpCreate{ContactID: "overdue-contact", FollowUpDate: now.Add(-time.Hour)})
	require.NoError(t, err)
	for i := 1; i <= upcomingLimit+5; i++ {
		contactID := fmt.Sprintf("future-%02d", i)
		_, err := env.followUps.Create(ctx, env.user, models.FollowUpCreate{ContactID: contactID, FollowUpDate: now.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}

	upcoming, err := env.followUps.Upcoming(ctx)
	require.NoError(t, err)
	assert.Len(t, upcoming.Overdue, 1)
	assert.Len(t, upcoming.Upcoming, upcomingLimit)
	assert.Len(t, lookups, upcomingLimit+1)
	assert.NotContains(t, lookups, fmt.Sprintf("future-%02d", upcomingLimit+1))
}
