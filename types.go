package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Email() string
	Role() string
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetCookieDuration() int
	GetContextKey() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	IsProduction() bool
}

// TokenService creates and validates signed credentials
type TokenService interface {
	Generate(identity Identity) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(token string) (*JWTClaims, error)
}

// TokenValidator validates a raw token without issuing capabilities
type TokenValidator interface {
	Validate(token string) (*JWTClaims, error)
}

// UserResolver re-resolves the current identity state during request handling
type UserResolver interface {
	GetByUserID(ctx context.Context, id uuid.UUID) (*User, error)
}

// Notifier delivers outbound messages, synchronously from the
// caller's perspective
type Notifier interface {
	Send(ctx context.Context, msg Email) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
