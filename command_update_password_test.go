package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trailhead-api/auth"
)

func TestUpdatePasswordHandler(t *testing.T) {
	store := newMemoryStore()
	user := seedUser(t, store, "change@example.com", "oldPass1234", auth.RoleMember)

	now := time.Now()
	handler := auth.NewUpdatePasswordHandler(store).
		WithClock(func() time.Time { return now })

	var updated *auth.User
	err := handler.Execute(context.Background(), auth.UpdatePasswordMessage{
		UserID:          user.ID,
		PasswordCurrent: "oldPass1234",
		Password:        "newPass1234",
		OnResponse: func(u *auth.User) {
			updated = u
		},
	})
	require.NoError(t, err)
	require.NotNil(t, updated)

	stored := store.mustGet(t, user.ID)
	assert.NoError(t, stored.ComparePassword("newPass1234"))
	require.NotNil(t, stored.PasswordChangedAt)
	assert.Equal(t, now, *stored.PasswordChangedAt)
}

func TestUpdatePasswordHandlerWrongCurrent(t *testing.T) {
	store := newMemoryStore()
	user := seedUser(t, store, "wrong@example.com", "oldPass1234", auth.RoleMember)

	handler := auth.NewUpdatePasswordHandler(store)

	err := handler.Execute(context.Background(), auth.UpdatePasswordMessage{
		UserID:          user.ID,
		PasswordCurrent: "not-the-password",
		Password:        "newPass1234",
	})
	require.ErrorIs(t, err, auth.ErrWrongPassword)

	// nothing mutated
	stored := store.mustGet(t, user.ID)
	assert.NoError(t, stored.ComparePassword("oldPass1234"))
	assert.Nil(t, stored.PasswordChangedAt)
}

func TestUpdatePasswordHandlerUnknownUser(t *testing.T) {
	store := newMemoryStore()
	handler := auth.NewUpdatePasswordHandler(store)

	err := handler.Execute(context.Background(), auth.UpdatePasswordMessage{
		UserID:          uuid.New(),
		PasswordCurrent: "whatever",
		Password:        "newPass1234",
	})
	require.ErrorIs(t, err, auth.ErrUserGone)
}

func TestUpdatePasswordHandlerClearsPendingReset(t *testing.T) {
	store := newMemoryStore()
	user := seedUser(t, store, "pending@example.com", "oldPass1234", auth.RoleMember)

	_, digest, err := auth.GenerateResetToken()
	require.NoError(t, err)
	require.NoError(t, store.SetResetToken(context.Background(), user.ID, digest, time.Now().Add(10*time.Minute)))

	handler := auth.NewUpdatePasswordHandler(store)
	err = handler.Execute(context.Background(), auth.UpdatePasswordMessage{
		UserID:          user.ID,
		PasswordCurrent: "oldPass1234",
		Password:        "newPass1234",
	})
	require.NoError(t, err)

	// a successful change closes any open reset window
	stored := store.mustGet(t, user.ID)
	assert.Nil(t, stored.PasswordResetToken)
}
