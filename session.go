package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// CookieName is the cookie under which the credential travels
const CookieName = "jwt"

// IssuedSession is the outcome of a successful authentication flow:
// the signed credential, its transport directive, and the sanitized
// user projection.
type IssuedSession struct {
	Token  string
	Cookie *fiber.Cookie
	User   *PublicUser
}

// SessionIssuer wraps a verified identity into an outbound credential
// plus delivery directives.
type SessionIssuer struct {
	tokens TokenService
	cfg    Config
	logger Logger
}

// NewSessionIssuer creates a SessionIssuer
func NewSessionIssuer(tokens TokenService, cfg Config) *SessionIssuer {
	return &SessionIssuer{
		tokens: tokens,
		cfg:    cfg,
		logger: defLogger{},
	}
}

func (s *SessionIssuer) WithLogger(logger Logger) *SessionIssuer {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Issue signs a credential for the user and builds the cookie carrying
// it. The Secure attribute is set only in production. The returned user
// view is the sanitized projection: no password material on any path.
func (s *SessionIssuer) Issue(user *User) (*IssuedSession, error) {
	token, err := s.tokens.Generate(user.AsIdentity())
	if err != nil {
		s.logger.Error("session issue failed to sign credential", "error", err)
		return nil, err
	}

	cookie := &fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(time.Duration(s.cfg.GetCookieDuration()) * 24 * time.Hour),
		HTTPOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	}

	return &IssuedSession{
		Token:  token,
		Cookie: cookie,
		User:   user.Public(),
	}, nil
}

// Send issues a session and writes the success envelope with the given
// status code. Used by every flow that logs the user in.
func (s *SessionIssuer) Send(c *fiber.Ctx, status int, user *User) error {
	session, err := s.Issue(user)
	if err != nil {
		return RenderError(c, err)
	}

	c.Cookie(session.Cookie)

	return c.Status(status).JSON(SuccessEnvelope{
		Status: StatusSuccess,
		Token:  session.Token,
		Data:   &EnvelopeData{User: session.User},
	})
}
