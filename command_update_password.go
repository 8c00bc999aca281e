package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// UpdatePasswordMessage changes the password of an authenticated user.
// The current password must match before anything mutates.
type UpdatePasswordMessage struct {
	UserID          uuid.UUID `json:"-"`
	PasswordCurrent string    `json:"passwordCurrent"`
	Password        string    `json:"password"`

	OnResponse func(user *User)
}

func (p UpdatePasswordMessage) Type() string { return "user.password_update" }

type UpdatePasswordHandler struct {
	store  UserStore
	logger Logger
	now    func() time.Time
}

// NewUpdatePasswordHandler creates the authenticated password-change
// orchestrator
func NewUpdatePasswordHandler(store UserStore) *UpdatePasswordHandler {
	return &UpdatePasswordHandler{
		store:  store,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (h *UpdatePasswordHandler) WithLogger(logger Logger) *UpdatePasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock overrides the time source, used to pin timestamps in tests.
func (h *UpdatePasswordHandler) WithClock(now func() time.Time) *UpdatePasswordHandler {
	if now != nil {
		h.now = now
	}
	return h
}

func (h *UpdatePasswordHandler) Execute(ctx context.Context, event UpdatePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdatePasswordHandler) execute(ctx context.Context, event UpdatePasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.store.GetByUserID(ctx, event.UserID)
	if err != nil {
		if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
			return ErrUserGone
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password update")
	}

	if err := user.ComparePassword(event.PasswordCurrent); err != nil {
		return ErrWrongPassword
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	now := h.now()
	if err := h.store.UpdatePassword(ctx, user.ID, hash, now); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password")
	}

	user.PasswordHash = hash
	user.PasswordChangedAt = &now
	user.ClearResetToken()

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
