package service

import (
	"context"
	"testing"
	"time"

	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateContactRejectsDuplicatePhone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	phone := gofakeit.Phone()

	env.createContact(t, phone, map[string]string{"shop_name": "First"})

	_, err := env.contacts.Create(ctx, env.user, models.ContactCreate{Phone: phone})
	assert.ErrorIs(t, err, utils.ErrDuplicate)

	count, err := env.contacts.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count.Total)
	assert.EqualValues(t, 1, count.ByStatus[models.DefaultContactStatus])
}

func TestUpdateContact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.createContact(t, "1001", nil)
	second := env.createContact(t, "1002", nil)

	taken := first.Phone
	_, err := env.contacts.Update(ctx, env.user, second.ID, models.ContactUpdate{Phone: &taken})
	assert.ErrorIs(t, err, utils.ErrDuplicate)

	// 保持原手机号不算冲突
	same := second.Phone
	status := "Interested"
	updated, err := env.contacts.Update(ctx, env.user, second.ID, models.ContactUpdate{Phone: &same, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "Interested", updated.Status)

	_, err = env.contacts.Update(ctx, env.user, "missing", models.ContactUpdate{Status: &status})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestDeleteAndLogCall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	contact := env.createContact(t, gofakeit.Phone(), nil)

	call, err := env.contacts.LogCall(ctx, env.user, contact.ID)
	require.NoError(t, err)
	got, err := env.contacts.Get(ctx, contact.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastCallAt)
	assert.WithinDuration(t, call.CallTime, *got.LastCallAt, time.Millisecond)

	require.NoError(t, env.contacts.Delete(ctx, env.user, contact.ID))
	_, err = env.contacts.Get(ctx, contact.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	assert.ElementsMatch(t, []string{"Created contact", "Called contact", "Deleted contact"}, env.activityActions(t))
}

func TestSearchMatchesAnyShopNameVariant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.imports.Import(ctx, env.user, aceSheet(t), aceMapping)
	require.NoError(t, err)
	env.createContact(t, "2001", map[string]string{"Shop Name": "Ace Hardware"})
	env.createContact(t, "2002", map[string]string{"SHOP_NAME": "ace bakery"})
	env.createContact(t, "2003", map[string]string{"Shop Name": "Other"})

	found, err := env.contacts.Search(ctx, ContactQuery{Search: "Ace"})
	require.NoError(t, err)

	phones := make([]string, 0, len(found))
	for _, c := range found {
		phones = append(phones, c.Phone)
	}
	assert.ElementsMatch(t, []string{"Ace_Shop_2", "2001", "2002"}, phones)
}

func TestSearchTreatsTermLiterally(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createContact(t, "3001", map[string]string{"city": "a.c"})
	env.createContact(t, "3002", map[string]string{"city": "abc"})

	found, err := env.contacts.Search(ctx, ContactQuery{Search: "a.c"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "3001", found[0].Phone)
}

func TestSearchFiltersStatusAndPaginates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	hot := "Hot"
	for i := 0; i < 5; i++ {
		_, err := env.contacts.Create(ctx, env.user, models.ContactCreate{Phone: gofakeit.Numerify("9#########"), Status: &hot})
		require.NoError(t, err)
	}
	env.createContact(t, "4001", nil)

	found, err := env.contacts.Search(ctx, ContactQuery{Status: "Hot", Skip: 1, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, found, 3)
	for _, c := range found {
		assert.Equal(t, "Hot", c.Status)
	}
}
