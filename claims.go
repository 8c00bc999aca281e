package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the self-contained credential payload: identity id,
// issued-at, and expiry. Nothing else is asserted; revocation by
// password change requires a store lookup at verification time.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	UserRole string `json:"role,omitempty"`
}

// UserID returns the identity id the credential asserts
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Role returns the role captured at issuance. Authorization decisions
// use the re-resolved user record, not this snapshot.
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// IssuedAt returns the issuance time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}
