package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/trailhead-api/auth"
)

// testConfig implements auth.Config with overridable fields
type testConfig struct {
	signingKey      string
	tokenExpiration int
	cookieDuration  int
	contextKey      string
	authScheme      string
	issuer          string
	audience        []string
	production      bool
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:      "test-signing-key",
		tokenExpiration: 1,
		cookieDuration:  7,
		contextKey:      "user",
		authScheme:      "Bearer",
		issuer:          "trailhead-test",
		audience:        []string{"trailhead-test"},
	}
}

func (c *testConfig) GetSigningKey() string   { return c.signingKey }
func (c *testConfig) GetTokenExpiration() int { return c.tokenExpiration }
func (c *testConfig) GetCookieDuration() int  { return c.cookieDuration }
func (c *testConfig) GetContextKey() string   { return c.contextKey }
func (c *testConfig) GetAuthScheme() string   { return c.authScheme }
func (c *testConfig) GetIssuer() string       { return c.issuer }
func (c *testConfig) GetAudience() []string   { return c.audience }
func (c *testConfig) IsProduction() bool      { return c.production }

func notFoundErr() error {
	return goerrors.New("record not found", goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound)
}

// memoryStore is an in-memory auth.UserStore with the same consume
// semantics as the SQL implementation: claiming a reset token clears it
// in the same critical section.
type memoryStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*auth.User

	getByUserIDCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[uuid.UUID]*auth.User{}}
}

func cloneUser(u *auth.User) *auth.User {
	copied := *u
	return &copied
}

func (s *memoryStore) GetByUserID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getByUserIDCalls++

	user, ok := s.users[id]
	if !ok {
		return nil, notFoundErr()
	}
	return cloneUser(user), nil
}

func (s *memoryStore) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, notFoundErr()
}

func (s *memoryStore) Register(_ context.Context, user *auth.User) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return nil, goerrors.New("email already taken", goerrors.CategoryConflict).
				WithCode(goerrors.CodeConflict)
		}
	}

	record := cloneUser(user)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Role == "" {
		record.Role = auth.DefaultRole
	}
	record.Active = true

	s.users[record.ID] = record
	return cloneUser(record), nil
}

func (s *memoryStore) SetResetToken(_ context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return notFoundErr()
	}
	user.SetResetToken(digest, expiresAt)
	return nil
}

func (s *memoryStore) ClearResetToken(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return notFoundErr()
	}
	user.ClearResetToken()
	return nil
}

func (s *memoryStore) ConsumeResetToken(_ context.Context, digest string, now time.Time) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.PasswordResetToken == nil || *user.PasswordResetToken != digest {
			continue
		}
		if user.PasswordResetExpiresAt == nil || !user.PasswordResetExpiresAt.After(now) {
			continue
		}

		user.ClearResetToken()
		return cloneUser(user), nil
	}

	return nil, notFoundErr()
}

func (s *memoryStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return notFoundErr()
	}

	user.PasswordHash = passwordHash
	user.PasswordChangedAt = &changedAt
	user.ClearResetToken()
	return nil
}

func (s *memoryStore) UpdateProfile(_ context.Context, id uuid.UUID, name, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, notFoundErr()
	}

	if name != "" {
		user.Name = name
	}
	if email != "" {
		user.Email = email
	}
	return cloneUser(user), nil
}

func (s *memoryStore) Deactivate(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return notFoundErr()
	}
	user.Active = false
	return nil
}

// mustGet fetches the raw stored record for assertions
func (s *memoryStore) mustGet(t *testing.T, id uuid.UUID) *auth.User {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	require.True(t, ok, "user %s not in store", id)
	return cloneUser(user)
}

var _ auth.UserStore = (*memoryStore)(nil)

// captureNotifier records outbound emails, optionally failing delivery
type captureNotifier struct {
	mu   sync.Mutex
	sent []auth.Email
	err  error
}

func (n *captureNotifier) Send(_ context.Context, msg auth.Email) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *captureNotifier) lastEmail(t *testing.T) auth.Email {
	t.Helper()

	n.mu.Lock()
	defer n.mu.Unlock()

	require.NotEmpty(t, n.sent, "no email was delivered")
	return n.sent[len(n.sent)-1]
}

var _ auth.Notifier = (*captureNotifier)(nil)

// testStack bundles a fully wired fiber app backed by in-memory deps
type testStack struct {
	app      *fiber.App
	store    *memoryStore
	notifier *captureNotifier
	cfg      *testConfig
	tokens   auth.TokenService
	guard    *auth.Guard
	sessions *auth.SessionIssuer
}

// fiberAppWith mounts the controller routes on a fresh app
func fiberAppWith(controller *auth.AuthController) *fiber.App {
	app := fiber.New()
	controller.RegisterRoutes(app.Group("/api/v1/users"))
	return app
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	cfg := newTestConfig()
	store := newMemoryStore()
	notifier := &captureNotifier{}

	tokens := auth.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		nil,
	)

	sessions := auth.NewSessionIssuer(tokens, cfg)
	guard := auth.NewGuard(tokens, store, cfg)

	controller := auth.NewAuthController(
		auth.WithControllerStore(store),
		auth.WithControllerSessions(sessions),
		auth.WithControllerGuard(guard),
		auth.WithControllerNotifier(notifier),
	)

	app := fiber.New()
	controller.RegisterRoutes(app.Group("/api/v1/users"))

	app.Get("/api/v1/me",
		guard.Protect(),
		func(c *fiber.Ctx) error {
			user, ok := auth.UserFromFiber(c, cfg.GetContextKey())
			if !ok {
				return fiber.ErrInternalServerError
			}
			return c.JSON(fiber.Map{"status": "success", "email": user.Email})
		},
	)

	app.Get("/api/v1/admin/ping",
		guard.Protect(),
		guard.RequireRoles(auth.RoleAdmin),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "success"})
		},
	)

	return &testStack{
		app:      app,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		tokens:   tokens,
		guard:    guard,
		sessions: sessions,
	}
}

// doJSON performs a request against the test app and decodes the JSON
// body, when there is one
func (ts *testStack) doJSON(t *testing.T, method, path string, payload any, token string) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)

	decoded := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}

	return resp, decoded
}

// login runs the login flow and returns the issued token
func (ts *testStack) login(t *testing.T, email, password string) string {
	t.Helper()

	resp, body := ts.doJSON(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// seedUser registers a user directly through the store
func seedUser(t *testing.T, store *memoryStore, email, password string, role auth.UserRole) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user, err := store.Register(context.Background(), &auth.User{
		Name:         "Test User",
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	})
	require.NoError(t, err)

	return user
}
