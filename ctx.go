package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// UserFromFiber returns the user the access guard attached to the
// request, if any.
func UserFromFiber(c *fiber.Ctx, key string) (*User, bool) {
	if key == "" {
		key = "user"
	}
	raw := c.Locals(key)
	if raw == nil {
		return nil, false
	}
	user, ok := raw.(*User)
	return user, ok
}
