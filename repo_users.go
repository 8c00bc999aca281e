package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConsumeResetTokenSQL claims an outstanding reset token and clears it
// in a single statement. Two concurrent requests cannot both observe the
// same valid token: whichever update lands first wins the row, the other
// matches nothing.
var ConsumeResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"password_reset_token" = NULL,
	"password_reset_expires_at" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."password_reset_token" = ?
AND "usr"."password_reset_expires_at" > ?
RETURNING *;`

// UpdatePasswordSQL applies a password change: new hash, bumped
// password_changed_at, and any reset state cleared.
var UpdatePasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"password_changed_at" = ?,
	"password_reset_token" = NULL,
	"password_reset_expires_at" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// SetResetTokenSQL stores the digest and expiry of a freshly generated
// reset token without touching any validated column.
var SetResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"password_reset_token" = ?,
	"password_reset_expires_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// ClearResetTokenSQL is the compensating action when delivery fails
// after a token was generated.
var ClearResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"password_reset_token" = NULL,
	"password_reset_expires_at" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// UserStore is the surface the auth flows need from the durable
// identity store. Kept narrow so orchestrators can be exercised against
// an in-memory implementation.
type UserStore interface {
	GetByUserID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)

	SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	ConsumeResetToken(ctx context.Context, digest string, now time.Time) (*User, error)

	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error

	UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) (*User, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// Users is the full bun-backed repository surface
type Users interface {
	repository.Repository[*User]
	UserStore

	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string, changedAt time.Time) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

// NewUsersRepository builds the bun-backed Users store
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

// GetByUserID looks a user up by primary key. Named apart from the
// embedded repository's string-keyed GetByID so both stay callable.
func (a *users) GetByUserID(ctx context.Context, id uuid.UUID) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id.String()).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	res, err := a.Repository.Raw(ctx, SetResetTokenSQL, digest, expiresAt, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (a *users) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	res, err := a.Repository.Raw(ctx, ClearResetTokenSQL, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

// ConsumeResetToken atomically claims the user holding the digest with
// an unexpired window. A miss, whether unknown or expired, comes back as
// a plain not-found; callers translate it to the single generic token
// error.
func (a *users) ConsumeResetToken(ctx context.Context, digest string, now time.Time) (*User, error) {
	res, err := a.Repository.Raw(ctx, ConsumeResetTokenSQL, digest, now)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound()
	}

	return res[0], nil
}

func (a *users) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	return a.UpdatePasswordTx(ctx, a.db, id, passwordHash, changedAt)
}

func (a *users) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	res, err := a.Repository.RawTx(ctx, tx, UpdatePasswordSQL, passwordHash, changedAt, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (a *users) UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) (*User, error) {
	record := &User{ID: id}
	if name != "" {
		record.Name = name
	}
	if email != "" {
		record.Email = email
	}

	return a.Repository.Update(ctx, record, repository.UpdateByID(id.String()))
}

func (a *users) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("active = ?", false).
		Where("?TableAlias.id = ?", id.String()).
		Exec(ctx)

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deactivate user")
	}

	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = DefaultRole
	}

	record.Active = true

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
