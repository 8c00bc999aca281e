package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// RegisterUserMessage is the signup input. The fields here ARE the
// allow-list: anything else a client submits has no place to land, so
// privileged attributes like password timestamps cannot be injected.
type RegisterUserMessage struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Role      UserRole `json:"role"`
	UseHashid bool

	OnResponse func(user *User)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserHandler struct {
	store  UserStore
	logger Logger
}

// NewRegisterUserHandler creates the signup orchestrator
func NewRegisterUserHandler(store UserStore) *RegisterUserHandler {
	return &RegisterUserHandler{
		store:  store,
		logger: defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	role := event.Role
	if role == "" {
		role = DefaultRole
	}

	user := &User{
		Name:         event.Name,
		Email:        event.Email,
		Role:         role,
		PasswordHash: hash,
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(event.Email); err == nil {
			user.ID = id
		}
	}

	if user, err = h.store.Register(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
