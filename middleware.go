package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// Guard authenticates requests: it extracts a bearer credential,
// verifies it, re-resolves the identity, and rejects stale sessions.
type Guard struct {
	tokens TokenValidator
	users  UserResolver
	cfg    Config
	logger Logger
}

// NewGuard creates the access guard middleware factory
func NewGuard(tokens TokenValidator, users UserResolver, cfg Config) *Guard {
	return &Guard{
		tokens: tokens,
		users:  users,
		cfg:    cfg,
		logger: defLogger{},
	}
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Protect returns the authentication middleware. The step order is
// deliberate: signature verification happens before any store lookup so
// garbage tokens never cost a query, and the password-change freshness
// check runs last so a stale-but-valid token cannot slip through.
func (g *Guard) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Extract
		raw, err := extractBearerToken(c, g.cfg.GetAuthScheme())
		if err != nil {
			return RenderError(c, err)
		}

		// 2. Verify, no I/O
		claims, err := g.tokens.Validate(raw)
		if err != nil {
			g.logger.Info("guard rejected credential", "error", err)
			return RenderError(c, err)
		}

		// 3. Resolve current identity state
		id, err := uuid.Parse(claims.UserID())
		if err != nil {
			return RenderError(c, ErrTokenMalformed)
		}

		user, err := g.users.GetByUserID(c.UserContext(), id)
		if err != nil {
			if repository.IsRecordNotFound(err) || errors.IsNotFound(err) {
				return RenderError(c, ErrUserGone)
			}
			g.logger.Error("guard failed to resolve user", "error", err)
			return RenderError(c, err)
		}

		if !user.Active {
			return RenderError(c, ErrUserGone)
		}

		// 4. Freshness: credentials issued before the last password
		// change are dead
		if user.ChangedPasswordAfter(claims.IssuedAt()) {
			return RenderError(c, ErrPasswordChanged)
		}

		// 5. Admit
		c.Locals(g.cfg.GetContextKey(), user)
		c.SetUserContext(WithContext(c.UserContext(), user))

		return c.Next()
	}
}

// RequireRoles returns the role gate middleware for a fixed set of
// allowed roles. It must run after Protect; running it on a route with
// no authenticated user is a programming error, not a runtime failure.
func (g *Guard) RequireRoles(roles ...UserRole) fiber.Handler {
	allowed := NewRoleSet(roles...)

	return func(c *fiber.Ctx) error {
		user, ok := UserFromFiber(c, g.cfg.GetContextKey())
		if !ok {
			panic("auth: RequireRoles used on a route without Protect")
		}

		if !allowed.Contains(user.Role) {
			return RenderError(c, ErrForbidden)
		}

		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx, scheme string) (string, error) {
	if scheme == "" {
		scheme = "Bearer"
	}

	header := c.Get(fiber.HeaderAuthorization)
	l := len(scheme)
	if len(header) > l+1 && strings.EqualFold(header[:l], scheme) && header[l] == ' ' {
		return strings.TrimSpace(header[l+1:]), nil
	}

	return "", ErrNotLoggedIn
}
