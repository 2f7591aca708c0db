package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BerniceZTT/smartcrm/config"
	"github.com/BerniceZTT/smartcrm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/goleak"
)

func newTestSweeper(t *testing.T, env *testEnv, notifier Notifier, lock SweepLock, now time.Time) *Sweeper {
	t.Helper()
	sweeper, err := NewSweeper(env.db, notifier, lock, config.SchedulerConfig{
		AlertWindow: 30 * time.Minute,
		Workers:     4,
	})
	require.NoError(t, err)
	sweeper.now = fixedClock(now)
	t.Cleanup(sweeper.Close)
	return sweeper
}

func TestSweepNotifiesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	env.followUps.now = fixedClock(now)

	contact := env.createContact(t, "6001", map[string]string{"name": "Ravi"})
	notes := "bring brochure"
	due, err := env.followUps.Create(ctx, env.user, models.FollowUpCreate{
		ContactID:    contact.ID,
		FollowUpDate: now.Add(10 * time.Minute),
		Notes:        &notes,
	})
	require.NoError(t, err)
	_, err = env.followUps.Create(ctx, env.user, models.FollowUpCreate{ContactID: contact.ID, FollowUpDate: now.Add(2 * time.Hour)})
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	sweeper := newTestSweeper(t, env, notifier, nil, now)

	result, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Candidates)
	assert.EqualValues(t, 1, result.Notified)

	require.Equal(t, 1, notifier.count())
	msg := notifier.sent[0]
	assert.Equal(t, env.user.Email, msg.to)
	assert.Equal(t, "Follow-up Reminder: Ravi", msg.subject)
	assert.Contains(t, msg.body, "Phone: 6001")
	assert.Contains(t, msg.body, "Notes: bring brochure")

	again, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Candidates)
	assert.Equal(t, 1, notifier.count())

	n, err := env.db.Collection("followups").CountDocuments(ctx, bson.M{"_id": due.ID, "notified": true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSweepMarksFailedSends(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()

	contact := env.createContact(t, "6002", nil)
	_, err := env.followUps.Create(ctx, env.user, models.FollowUpCreate{ContactID: contact.ID, FollowUpDate: now})
	require.NoError(t, err)

	notifier := &fakeNotifier{err: errSMTPDown}
	sweeper := newTestSweeper(t, env, notifier, nil, now)

	result, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Failed)

	again, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Candidates)
	assert.Equal(t, 1, notifier.count())
}

func TestSweepSkipsMissingContact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()

	orphan, err := env.followUps.Create(ctx, env.user, models.FollowUpCreate{ContactID: "gone", FollowUpDate: now})
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	sweeper := newTestSweeper(t, env, notifier, nil, now)

	result, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Skipped)
	assert.Zero(t, notifier.count())

	n, err := env.db.Collection("followups").CountDocuments(ctx, bson.M{"_id": orphan.ID, "notified": false})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSweepSkipsWhenLocked(t *testing.T) {
	env := newTestEnv(t)
	lock := NewLocalLock()
	release, ok, err := lock.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	sweeper := newTestSweeper(t, env, &fakeNotifier{}, lock, time.Now())
	result, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Locked)
}

func TestSchedulerStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var runs atomic.Int32
	scheduler := NewScheduler(5*time.Millisecond, func(context.Context) {
		if runs.Add(1) == 2 {
			panic("task failure")
		}
	})
	scheduler.Start(context.Background())

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	scheduler.Stop()
	scheduler.Stop()
}
