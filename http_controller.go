package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
)

// AuthController wires the auth flows to HTTP routes
type AuthController struct {
	Debug    bool
	Logger   Logger
	Store    UserStore
	Notifier Notifier
	Sessions *SessionIssuer
	Guard    *Guard
	Activity ActivityRecorder
	// BaseURL overrides the scheme://host derived from the request when
	// building reset links, e.g. behind a proxy
	BaseURL string
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Store == nil {
		panic("Missing UserStore in auth controller...")
	}

	if c.Sessions == nil {
		panic("Missing SessionIssuer in auth controller...")
	}

	if c.Guard == nil {
		panic("Missing Guard in auth controller...")
	}

	if c.Notifier == nil {
		c.Notifier = LogNotifier{Logger: c.Logger}
	}

	if c.Activity == nil {
		c.Activity = LogActivityRecorder{Logger: c.Logger}
	}

	return c
}

func WithControllerStore(store UserStore) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Store = store
		return c
	}
}

func WithControllerNotifier(notifier Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = notifier
		return c
	}
}

func WithControllerSessions(sessions *SessionIssuer) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Sessions = sessions
		return c
	}
}

func WithControllerGuard(guard *Guard) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Guard = guard
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerActivity(recorder ActivityRecorder) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Activity = recorder
		return c
	}
}

func WithControllerBaseURL(baseURL string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.BaseURL = baseURL
		return c
	}
}

// RegisterRoutes mounts the auth endpoints on the given router
func (a *AuthController) RegisterRoutes(router fiber.Router) {
	router.Post("/signup", a.Signup)
	router.Post("/login", a.Login)
	router.Post("/forgotPassword", a.ForgotPassword)
	router.Patch("/resetPassword/:token", a.ResetPassword)

	router.Patch("/updateMyPassword", a.Guard.Protect(), a.UpdatePassword)
	router.Patch("/updateMe", a.Guard.Protect(), a.UpdateMe)
	router.Delete("/deleteMe", a.Guard.Protect(), a.DeleteMe)
}

// SignupPayload is the explicit signup schema. Fields outside this
// struct never reach the model, which is the whole point: clients
// cannot smuggle privileged attributes through the body.
type SignupPayload struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	PasswordConfirm string   `json:"passwordConfirm"`
	Role            UserRole `json:"role"`
}

// Validate will run validation rules
func (r SignupPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.PasswordConfirm,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
		// privileged roles cannot be claimed at signup; empty falls
		// back to the default member role
		validation.Field(&r.Role, validation.In(RoleMember)),
	)
}

func (a *AuthController) Signup(c *fiber.Ctx) error {
	payload := new(SignupPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("signup parse payload", "error", err)
		return RenderError(c, badRequest(err))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("signup validate payload", "error", err)
		return RenderError(c, badRequest(err))
	}

	if a.Debug {
		fmt.Println("======= AUTH SIGNUP ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("==========================")
	}

	var user *User
	register := NewRegisterUserHandler(a.Store).WithLogger(a.Logger)

	err := register.Execute(c.UserContext(), RegisterUserMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		Role:     payload.Role,
		OnResponse: func(u *User) {
			user = u
		},
	})
	if err != nil {
		a.Logger.Error("signup register user", "error", err)
		return RenderError(c, err)
	}

	return a.Sessions.Send(c, fiber.StatusCreated, user)
}

// LoginPayload requires both email and password
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return RenderError(c, badRequest(err))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, ErrMissingCredentials)
	}

	// lookup miss and password mismatch collapse into the same generic
	// failure so the response never reveals which one it was
	user, err := a.Store.GetByEmail(c.UserContext(), payload.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
			return RenderError(c, a.loginFailure(c, payload.Email))
		}
		a.Logger.Error("login user lookup", "error", err)
		return RenderError(c, err)
	}

	if !user.Active {
		return RenderError(c, a.loginFailure(c, payload.Email))
	}

	if err := user.ComparePassword(payload.Password); err != nil {
		return RenderError(c, a.loginFailure(c, payload.Email))
	}

	a.Activity.RecordActivity(c.UserContext(), newActivityEvent(ActivityEventLoginSuccess, user))

	return a.Sessions.Send(c, fiber.StatusOK, user)
}

// ForgotPasswordPayload holds the reset request
type ForgotPasswordPayload struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ForgotPassword(c *fiber.Ctx) error {
	payload := new(ForgotPasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("forgot password parse payload", "error", err)
		return RenderError(c, badRequest(err))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, badRequest(err))
	}

	base := a.BaseURL
	if base == "" {
		base = fmt.Sprintf("%s://%s", c.Protocol(), c.Hostname())
	}

	initReset := NewInitializePasswordResetHandler(a.Store, a.Notifier).
		WithLogger(a.Logger)

	err := initReset.Execute(c.UserContext(), InitializePasswordResetMessage{
		Email: payload.Email,
		ResetURL: func(rawToken string) string {
			return fmt.Sprintf("%s/api/v1/users/resetPassword/%s", base, rawToken)
		},
	})
	if err != nil {
		return RenderError(c, err)
	}

	event := newActivityEvent(ActivityEventPasswordResetRequest, nil)
	event.Email = payload.Email
	a.Activity.RecordActivity(c.UserContext(), event)

	return c.Status(fiber.StatusOK).JSON(SuccessEnvelope{
		Status:  StatusSuccess,
		Message: "Token sent to email!",
	})
}

// ResetPasswordPayload carries the new password; the token itself
// arrives as a URL path segment
type ResetPasswordPayload struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Validate will run validation rules
func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.PasswordConfirm,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) ResetPassword(c *fiber.Ctx) error {
	payload := new(ResetPasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("reset password parse payload", "error", err)
		return RenderError(c, badRequest(err))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, badRequest(err))
	}

	var user *User
	finalize := NewFinalizePasswordResetHandler(a.Store).WithLogger(a.Logger)

	err := finalize.Execute(c.UserContext(), FinalizePasswordResetMessage{
		Token:    c.Params("token"),
		Password: payload.Password,
		OnResponse: func(u *User) {
			user = u
		},
	})
	if err != nil {
		return RenderError(c, err)
	}

	a.Activity.RecordActivity(c.UserContext(), newActivityEvent(ActivityEventPasswordResetSuccess, user))

	return a.Sessions.Send(c, fiber.StatusOK, user)
}

// UpdatePasswordPayload is the authenticated password-change schema
type UpdatePasswordPayload struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Validate will run validation rules
func (r UpdatePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PasswordCurrent, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.PasswordConfirm,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) UpdatePassword(c *fiber.Ctx) error {
	current, ok := UserFromFiber(c, a.Guard.cfg.GetContextKey())
	if !ok {
		return RenderError(c, ErrNotLoggedIn)
	}

	payload := new(UpdatePasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("update password parse payload", "error", err)
		return RenderError(c, badRequest(err))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, badRequest(err))
	}

	var user *User
	update := NewUpdatePasswordHandler(a.Store).WithLogger(a.Logger)

	err := update.Execute(c.UserContext(), UpdatePasswordMessage{
		UserID:          current.ID,
		PasswordCurrent: payload.PasswordCurrent,
		Password:        payload.Password,
		OnResponse: func(u *User) {
			user = u
		},
	})
	if err != nil {
		return RenderError(c, err)
	}

	a.Activity.RecordActivity(c.UserContext(), newActivityEvent(ActivityEventPasswordChanged, user))

	// issue a fresh session so the freshness check does not immediately
	// invalidate the client's stored credential
	return a.Sessions.Send(c, fiber.StatusOK, user)
}

// UpdateMePayload is the profile-update schema: name and email only.
// Password fields are captured solely to reject them.
type UpdateMePayload struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Validate will run validation rules
func (r UpdateMePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Name, validation.Length(1, 200)),
	)
}

func (a *AuthController) UpdateMe(c *fiber.Ctx) error {
	current, ok := UserFromFiber(c, a.Guard.cfg.GetContextKey())
	if !ok {
		return RenderError(c, ErrNotLoggedIn)
	}

	payload := new(UpdateMePayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("update profile parse payload", "error", err)
		return RenderError(c, badRequest(err))
	}

	if payload.Password != "" || payload.PasswordConfirm != "" {
		return RenderError(c, goerrors.New(
			"this route is not for password updates, please use /updateMyPassword",
			goerrors.CategoryBadInput,
		).WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, badRequest(err))
	}

	user, err := a.Store.UpdateProfile(c.UserContext(), current.ID, payload.Name, payload.Email)
	if err != nil {
		a.Logger.Error("update profile", "error", err)
		return RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(SuccessEnvelope{
		Status: StatusSuccess,
		Data:   &EnvelopeData{User: user.Public()},
	})
}

func (a *AuthController) DeleteMe(c *fiber.Ctx) error {
	current, ok := UserFromFiber(c, a.Guard.cfg.GetContextKey())
	if !ok {
		return RenderError(c, ErrNotLoggedIn)
	}

	if err := a.Store.Deactivate(c.UserContext(), current.ID); err != nil {
		a.Logger.Error("deactivate user", "error", err)
		return RenderError(c, err)
	}

	a.Activity.RecordActivity(c.UserContext(), newActivityEvent(ActivityEventUserDeactivated, current))

	return c.SendStatus(fiber.StatusNoContent)
}

func (a *AuthController) loginFailure(c *fiber.Ctx, email string) error {
	event := newActivityEvent(ActivityEventLoginFailure, nil)
	event.Email = email
	a.Activity.RecordActivity(c.UserContext(), event)

	return ErrInvalidCredentials
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return fmt.Errorf("values must match")
		}
		return nil
	}
}

func badRequest(err error) error {
	return goerrors.New(err.Error(), goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode("VALIDATION_ERROR")
}
