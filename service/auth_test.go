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

func TestSignupLoginAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	auth := NewAuthService(env.db, utils.NewTokenManager("test-secret", time.Hour))

	email := gofakeit.Email()
	password := gofakeit.Password(true, true, true, false, false, 12)

	signup, err := auth.Signup(ctx, models.UserSignup{Email: email, Password: password})
	require.NoError(t, err)
	assert.Equal(t, "User created successfully", signup.Message)
	assert.NotEmpty(t, signup.Token)

	_, err = auth.Signup(ctx, models.UserSignup{Email: email, Password: "other"})
	assert.ErrorIs(t, err, utils.ErrDuplicate)

	login, err := auth.Login(ctx, models.UserLogin{Email: email, Password: password})
	require.NoError(t, err)
	assert.Equal(t, "Login successful", login.Message)
	assert.Equal(t, signup.User.ID, login.User.ID)

	_, err = auth.Login(ctx, models.UserLogin{Email: email, Password: "wrong"})
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
	_, err = auth.Login(ctx, models.UserLogin{Email: "nobody@example.com", Password: password})
	assert.ErrorIs(t, err, utils.ErrUnauthorized)

	user, err := auth.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, user.ID)

	_, err = auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, utils.ErrUnauthorized)

	stranger, err := utils.NewTokenManager("test-secret", time.Hour).GenerateToken(gofakeit.UUID(), gofakeit.Email())
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, stranger)
	require.Error(t, err)
	assert.Equal(t, "User not found", err.Error())
}
