package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// InitializePasswordResetMessage starts the forgot-password flow. The
// ResetURL callback receives the raw token exactly once to build the
// link handed to the notifier; the raw value is never stored or logged.
type InitializePasswordResetMessage struct {
	Email    string `json:"email"`
	ResetURL func(rawToken string) string

	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

type InitializePasswordResetResponse struct {
	Email   string
	Success bool
}

type InitializePasswordResetHandler struct {
	store    UserStore
	notifier Notifier
	logger   Logger
	now      func() time.Time
}

// NewInitializePasswordResetHandler creates the forgot-password
// orchestrator
func NewInitializePasswordResetHandler(store UserStore, notifier Notifier) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		store:    store,
		notifier: notifier,
		logger:   defLogger{},
		now:      time.Now,
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock overrides the time source, used to pin expiry windows in tests.
func (h *InitializePasswordResetHandler) WithClock(now func() time.Time) *InitializePasswordResetHandler {
	if now != nil {
		h.now = now
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.store.GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
			return ErrEmailNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	raw, digest, err := GenerateResetToken()
	if err != nil {
		return err
	}

	expiresAt := h.now().Add(ResetTokenTTL)
	if err := h.store.SetResetToken(ctx, user.ID, digest, expiresAt); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset token")
	}

	msg := ResetEmail(user.Email, event.ResetURL(raw))
	if err := h.notifier.Send(ctx, msg); err != nil {
		h.logger.Error("reset notification delivery failed", "error", err)

		// best-effort rollback so no undeliverable-but-valid reset
		// path stays open
		if clearErr := h.store.ClearResetToken(ctx, user.ID); clearErr != nil {
			h.logger.Error("failed to clear reset token after delivery failure", "error", clearErr)
		}

		return ErrDeliveryFailed
	}

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			Email:   user.Email,
			Success: true,
		})
	}

	return nil
}
