package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. PasswordHash is never serialized; reset fields
// hold only the one-way digest of an outstanding reset token.
type User struct {
	bun.BaseModel          `bun:"table:users,alias:usr"`
	ID                     uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name                   string     `bun:"name,notnull" json:"name,omitempty"`
	Email                  string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Role                   UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	PasswordHash           string     `bun:"password_hash" json:"-"`
	PasswordChangedAt      *time.Time `bun:"password_changed_at,nullzero" json:"-"`
	PasswordResetToken     *string    `bun:"password_reset_token,nullzero" json:"-"`
	PasswordResetExpiresAt *time.Time `bun:"password_reset_expires_at,nullzero" json:"-"`
	Active                 bool       `bun:"active,notnull,default:true" json:"active,omitempty"`
	CreatedAt              *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt              *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt              *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// ComparePassword validates the candidate against the stored hash
func (u *User) ComparePassword(candidate string) error {
	return ComparePasswordAndHash(candidate, u.PasswordHash)
}

// ChangedPasswordAfter reports whether the password changed after the
// given credential issuance time. Credentials issued before the change
// must be rejected. JWT issued-at carries second precision, so the
// comparison truncates to seconds; otherwise a credential minted in the
// same second as the change it accompanies would be dead on arrival.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Truncate(time.Second).After(issuedAt)
}

// SetResetToken stores the digest of an outstanding reset token; the
// expiry always travels with the digest.
func (u *User) SetResetToken(digest string, expiresAt time.Time) {
	u.PasswordResetToken = &digest
	u.PasswordResetExpiresAt = &expiresAt
}

// ClearResetToken removes any outstanding reset token state
func (u *User) ClearResetToken() {
	u.PasswordResetToken = nil
	u.PasswordResetExpiresAt = nil
}

// HasPendingReset reports whether an unexpired reset token is outstanding
func (u *User) HasPendingReset(now time.Time) bool {
	if u.PasswordResetToken == nil || u.PasswordResetExpiresAt == nil {
		return false
	}
	return u.PasswordResetExpiresAt.After(now)
}

// Identity adapter so a User can feed the token service directly

type userIdentity struct {
	user *User
}

func (i userIdentity) ID() string    { return i.user.ID.String() }
func (i userIdentity) Email() string { return i.user.Email }
func (i userIdentity) Role() string  { return string(i.user.Role) }

var _ Identity = userIdentity{}

// AsIdentity exposes the user through the Identity interface
func (u *User) AsIdentity() Identity {
	return userIdentity{user: u}
}

// PublicUser is the outbound projection of a user record. It has no
// password or reset fields at all, so no code path can echo them back.
type PublicUser struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      UserRole   `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Public returns the sanitized projection of the user
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}
