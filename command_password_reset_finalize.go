package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// FinalizePasswordResetMessage completes the reset flow with the raw
// token presented by the requester.
type FinalizePasswordResetMessage struct {
	Token    string `json:"token"`
	Password string `json:"password"`

	OnResponse func(user *User)
}

func (p FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

type FinalizePasswordResetHandler struct {
	store  UserStore
	logger Logger
	now    func() time.Time
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(store UserStore) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		store:  store,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock overrides the time source, used to pin expiry windows in tests.
func (h *FinalizePasswordResetHandler) WithClock(now func() time.Time) *FinalizePasswordResetHandler {
	if now != nil {
		h.now = now
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	now := h.now()

	// hash first: bcrypt rejects passwords over 72 bytes, and a hashing
	// failure must not burn the single-use token
	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	// lookup misses and expired windows come back identical: the atomic
	// consume matched nothing. Consuming also clears the digest, so a
	// second presentation of the same token dies here.
	user, err := h.store.ConsumeResetToken(ctx, HashResetToken(event.Token), now)
	if err != nil {
		if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
			return ErrResetTokenInvalid
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not consume password reset token")
	}

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
