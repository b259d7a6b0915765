package identity

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-router"
)

var (
	phonePattern    = regexp.MustCompile(`^[0-9\s+\-.()]+$`)
	otpPattern      = regexp.MustCompile(`^[0-9]{6}$`)
	postCodePattern = regexp.MustCompile(`^[0-9]{7}$`)
)

// AuthControllerRoutes are the boundary paths, overridable per deployment.
type AuthControllerRoutes struct {
	UserLogin      string
	AdminLogin     string
	Register       string
	SendOtp        string
	VerifyOtp      string
	ForgotPassword string
	ResetPassword  string
	VerifyEmail    string
}

// AuthController exposes the credential lifecycle as a JSON API.
type AuthController struct {
	Logger          Logger
	Lifecycle       *CredentialLifecycle
	Routes          *AuthControllerRoutes
	ErrorHandler    func(ctx router.Context, err error) error
	passwordPattern *regexp.Regexp
}

type AuthControllerOption func(*AuthController) *AuthController

// WithControllerLifecycle sets the lifecycle the controller dispatches to.
func WithControllerLifecycle(lifecycle *CredentialLifecycle) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Lifecycle = lifecycle
		return c
	}
}

// WithControllerLogger overrides the controller logger.
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerPasswordPattern overrides the password policy pattern.
func WithControllerPasswordPattern(pattern string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.passwordPattern = regexp.MustCompile(pattern)
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:          defLogger{},
		passwordPattern: regexp.MustCompile(DefaultPasswordPattern),
		Routes: &AuthControllerRoutes{
			UserLogin:      "/auth/user/login",
			AdminLogin:     "/auth/admin/login",
			Register:       "/auth/user/register",
			SendOtp:        "/auth/user/send-otp",
			VerifyOtp:      "/auth/user/verify-otp",
			ForgotPassword: "/auth/user/forgot-password",
			ResetPassword:  "/auth/user/reset-password",
			VerifyEmail:    "/auth/user/verify/:token",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Lifecycle == nil {
		panic("Missing CredentialLifecycle in auth controller...")
	}

	if c.ErrorHandler == nil {
		logger := c.Logger
		c.ErrorHandler = func(ctx router.Context, err error) error {
			return WriteHTTPError(ctx, err, logger)
		}
	}

	return c
}

// RegisterAuthRoutes mounts the controller. Every route here is public; role
// checks on protected resources belong to the host application's router via
// RequireRole.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.UserLogin, controller.LoginUser).
		SetName("auth.user.login")
	app.Post(controller.Routes.AdminLogin, controller.LoginAdmin).
		SetName("auth.admin.login")
	app.Post(controller.Routes.Register, controller.RegisterUser).
		SetName("auth.user.register")
	app.Post(controller.Routes.SendOtp, controller.SendOtp).
		SetName("auth.user.send-otp")
	app.Post(controller.Routes.VerifyOtp, controller.VerifyOtp).
		SetName("auth.user.verify-otp")
	app.Post(controller.Routes.ForgotPassword, controller.ForgotPassword).
		SetName("auth.user.forgot-password")
	app.Post(controller.Routes.ResetPassword, controller.ResetPassword).
		SetName("auth.user.reset-password")
	app.Get(controller.Routes.VerifyEmail, controller.VerifyEmail).
		SetName("auth.user.verify")
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(1, 256), is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Email        string `form:"email" json:"email"`
	Phone        string `form:"phone" json:"phone"`
	Password     string `form:"password" json:"password"`
	Name         string `form:"name" json:"name"`
	FuriganaName string `form:"furigana_name" json:"furigana_name"`
	PostCode     string `form:"post_code" json:"post_code"`
	Address      string `form:"address" json:"address"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate(passwordPattern *regexp.Regexp) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(1, 256), is.Email),
		validation.Field(&r.Phone, validation.Required, validation.Match(phonePattern)),
		validation.Field(&r.Password,
			validation.Required,
			validation.Match(passwordPattern),
			validation.By(requireLetterAndDigit),
		),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.PostCode, validation.Match(postCodePattern)),
	)
}

// PhoneRequest carries a phone number for the OTP flows.
type PhoneRequest struct {
	Phone string `form:"phone" json:"phone"`
}

// Validate will validate the payload
func (r PhoneRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Phone, validation.Required, validation.Match(phonePattern)),
	)
}

// VerifyOtpRequest carries a phone number and the submitted code.
type VerifyOtpRequest struct {
	Phone string `form:"phone" json:"phone"`
	Otp   string `form:"otp" json:"otp"`
}

// Validate will validate the payload
func (r VerifyOtpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Phone, validation.Required, validation.Match(phonePattern)),
		validation.Field(&r.Otp, validation.Required, validation.Match(otpPattern)),
	)
}

// ForgotPasswordRequest carries the account email.
type ForgotPasswordRequest struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(1, 256), is.Email),
	)
}

// ResetPasswordRequest carries the reset token and the new password.
type ResetPasswordRequest struct {
	Token    string `form:"token" json:"token"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r ResetPasswordRequest) Validate(passwordPattern *regexp.Regexp) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password,
			validation.Required,
			validation.Match(passwordPattern),
			validation.By(requireLetterAndDigit),
		),
	)
}

func (a *AuthController) LoginUser(ctx router.Context) error {
	return a.login(ctx, RoleUser)
}

func (a *AuthController) LoginAdmin(ctx router.Context) error {
	return a.login(ctx, RoleAdmin)
}

func (a *AuthController) login(ctx router.Context, role Role) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationFailed(ctx, err)
	}

	result, err := a.Lifecycle.Login(ctx.Context(), payload.Email, payload.Password, role)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, result)
}

func (a *AuthController) RegisterUser(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(a.passwordPattern); err != nil {
		return a.validationFailed(ctx, err)
	}

	account, err := a.Lifecycle.Register(ctx.Context(), RegisterInput{
		Email:        payload.Email,
		Phone:        payload.Phone,
		Password:     payload.Password,
		Name:         payload.Name,
		FuriganaName: payload.FuriganaName,
		PostCode:     payload.PostCode,
		Address:      payload.Address,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, account.Sanitized())
}

func (a *AuthController) SendOtp(ctx router.Context) error {
	payload := new(PhoneRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationFailed(ctx, err)
	}

	if err := a.Lifecycle.SendOtp(ctx.Context(), payload.Phone); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.NoContent(http.StatusOK)
}

func (a *AuthController) VerifyOtp(ctx router.Context) error {
	payload := new(VerifyOtpRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationFailed(ctx, err)
	}

	if err := a.Lifecycle.VerifyOtp(ctx.Context(), payload.Phone, payload.Otp); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.NoContent(http.StatusOK)
}

func (a *AuthController) ForgotPassword(ctx router.Context) error {
	payload := new(ForgotPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationFailed(ctx, err)
	}

	if err := a.Lifecycle.ForgotPassword(ctx.Context(), payload.Email); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.NoContent(http.StatusOK)
}

func (a *AuthController) ResetPassword(ctx router.Context) error {
	payload := new(ResetPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(a.passwordPattern); err != nil {
		return a.validationFailed(ctx, err)
	}

	account, err := a.Lifecycle.ResetPassword(ctx.Context(), payload.Token, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, account.Sanitized())
}

func (a *AuthController) VerifyEmail(ctx router.Context) error {
	token := ctx.Param("token")
	if token == "" {
		return a.ErrorHandler(ctx, ErrInvalidOrExpiredToken)
	}

	if err := a.Lifecycle.VerifyEmail(ctx.Context(), token); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.NoContent(http.StatusOK)
}

func (a *AuthController) validationFailed(ctx router.Context, err error) error {
	a.Logger.Info("payload validation failed: %v", err)
	return ctx.JSON(http.StatusBadRequest, HTTPError{
		Code:    "VALIDATION",
		Message: err.Error(),
	})
}

// requireLetterAndDigit enforces the composition half of the password policy.
func requireLetterAndDigit(value any) error {
	s, _ := value.(string)
	hasLetter := strings.ContainsFunc(s, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	})
	hasDigit := strings.ContainsFunc(s, func(r rune) bool {
		return r >= '0' && r <= '9'
	})

	if !hasLetter || !hasDigit {
		return errors.New("must contain at least one letter and one digit")
	}

	return nil
}
