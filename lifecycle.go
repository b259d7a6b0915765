package identity

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
)

// lifecycleTimeout bounds every mutating unit of work.
const lifecycleTimeout = 10 * time.Second

// CredentialLifecycle composes the hasher, token issuer, OTP generator, and
// the store/gateway collaborators into the registration, login,
// forgot/reset-password, and verification flows.
//
// Enumeration policy: Login returns ErrUnauthorized whether the account is
// missing or the password mismatches. ForgotPassword intentionally keeps the
// source product's revealing ErrAccountNotFound; that asymmetry is a
// documented choice, not an accident.
type CredentialLifecycle struct {
	accounts  AccountStore
	otp       *OtpService
	tokens    TokenService
	gateway   NotificationGateway
	config    Config
	logger    Logger
	activity  ActivitySink
	useHashid bool
}

// LoginResult couples the account summary with its bearer token.
type LoginResult struct {
	Account     *Account `json:"user"`
	AccessToken string   `json:"accessToken"`
}

// RegisterInput is the profile and credentials for a new account.
type RegisterInput struct {
	Email        string
	Phone        string
	Password     string
	Name         string
	FuriganaName string
	PostCode     string
	Address      string
}

// NewCredentialLifecycle returns a lifecycle wired with defaults; use the
// With* builders to swap collaborators.
func NewCredentialLifecycle(accounts AccountStore, codes OneTimeCodeStore, gateway NotificationGateway, cfg Config) *CredentialLifecycle {
	tokens := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		defLogger{},
	).WithSigningMethod(cfg.GetSigningMethod())

	otp := NewOtpService(codes).
		WithWindow(cfg.GetOtpWindow()).
		WithMaxAttempts(cfg.GetOtpMaxAttempts())

	return &CredentialLifecycle{
		accounts: accounts,
		otp:      otp,
		tokens:   tokens,
		gateway:  normalizeGateway(gateway),
		config:   cfg,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (s *CredentialLifecycle) WithLogger(logger Logger) *CredentialLifecycle {
	if logger != nil {
		s.logger = logger
		s.otp.WithLogger(logger)
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting lifecycle events.
func (s *CredentialLifecycle) WithActivitySink(sink ActivitySink) *CredentialLifecycle {
	s.activity = normalizeActivitySink(sink)
	return s
}

// WithTokenService sets a custom token service.
func (s *CredentialLifecycle) WithTokenService(tokens TokenService) *CredentialLifecycle {
	if tokens != nil {
		s.tokens = tokens
	}
	return s
}

// WithHashid derives account ids deterministically from the email.
func (s *CredentialLifecycle) WithHashid(enabled bool) *CredentialLifecycle {
	s.useHashid = enabled
	return s
}

// TokenService returns the token service used by this lifecycle.
func (s *CredentialLifecycle) TokenService() TokenService {
	return s.tokens
}

// Otp returns the OTP generator used by this lifecycle.
func (s *CredentialLifecycle) Otp() *OtpService {
	return s.otp
}

// Register creates an unverified account, dispatches the verify-account
// notification, and returns the created record. Callers strip credential
// fields before serializing it.
func (s *CredentialLifecycle) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during registration")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()

	phone, err := NormalizePhone(input.Phone, s.config.GetPhoneRegion())
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	token, err := NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	account := &Account{
		Role:              RoleUser,
		Name:              input.Name,
		FuriganaName:      input.FuriganaName,
		Email:             NormalizeEmail(input.Email),
		Phone:             phone,
		PostCode:          input.PostCode,
		Address:           input.Address,
		PasswordHash:      hash,
		VerificationToken: token,
		TokenIssuedAt:     &now,
	}

	if s.useHashid {
		if id, err := hashid.NewUUID(account.Email); err == nil {
			account.ID = id
		}
	}

	created, err := s.accounts.Insert(ctx, account)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
	}

	s.dispatch(created.Email, TemplateVerifyAccount, map[string]any{
		"name": created.Name,
		"link": s.verifyLink(token),
	})

	s.emitEvent(ctx, ActivityEventRegistered, ActorRef{ID: created.ID.String(), Type: "user"}, created.ID.String(), map[string]any{
		"email": created.Email,
	})

	return created, nil
}

// Login verifies the credentials for an account with the expected role and
// issues a session token. Missing account and password mismatch are
// indistinguishable to the caller.
func (s *CredentialLifecycle) Login(ctx context.Context, email, password string, role Role) (*LoginResult, error) {
	account, err := s.accounts.FindByEmailAndRole(ctx, email, role)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.emitEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
				"email": NormalizeEmail(email),
			})
			return nil, ErrUnauthorized
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during login")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		s.emitEvent(ctx, ActivityEventLoginFailure, ActorRef{ID: account.ID.String(), Type: "user"}, account.ID.String(), map[string]any{
			"email": account.Email,
		})
		return nil, ErrUnauthorized
	}

	token, err := s.tokens.Generate(NewIdentityFromAccount(account))
	if err != nil {
		return nil, err
	}

	s.emitEvent(ctx, ActivityEventLoginSuccess, ActorRef{ID: account.ID.String(), Type: "user"}, account.ID.String(), map[string]any{
		"email": account.Email,
	})

	return &LoginResult{
		Account:     account.Sanitized(),
		AccessToken: token,
	}, nil
}

// SessionFromToken decodes and validates a bearer token.
func (s *CredentialLifecycle) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokens.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed: %v", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims: %v", err)
		return nil, err
	}

	return session, nil
}

// SendOtp issues a fresh code for the phone and dispatches it. A new send
// always invalidates the previous outstanding code. No account is required;
// this is pre-registration phone verification.
func (s *CredentialLifecycle) SendOtp(ctx context.Context, phone string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during otp send")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()

	normalized, err := NormalizePhone(phone, s.config.GetPhoneRegion())
	if err != nil {
		return err
	}

	code, err := s.otp.Generate(ctx, normalized)
	if err != nil {
		return err
	}

	s.dispatch(normalized, TemplateOtpCode, map[string]any{
		"code": code,
	})

	s.emitEvent(ctx, ActivityEventOtpIssued, ActorRef{Type: "unknown"}, "", map[string]any{
		"phone": normalized,
	})

	return nil
}

// VerifyOtp consumes the outstanding code for the phone if it matches.
func (s *CredentialLifecycle) VerifyOtp(ctx context.Context, phone, code string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during otp verification")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()

	normalized, err := NormalizePhone(phone, s.config.GetPhoneRegion())
	if err != nil {
		return err
	}

	if err := s.otp.Verify(ctx, normalized, code); err != nil {
		return err
	}

	s.emitEvent(ctx, ActivityEventOtpVerified, ActorRef{Type: "unknown"}, "", map[string]any{
		"phone": normalized,
	})

	return nil
}

// ForgotPassword issues a fresh reset token for the account, replacing any
// prior token, and dispatches the reset link. The token never flows back to
// the caller.
func (s *CredentialLifecycle) ForgotPassword(ctx context.Context, email string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password reset initialization")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrAccountNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password reset")
	}

	token, err := NewOpaqueToken()
	if err != nil {
		return err
	}

	now := time.Now()
	account.VerificationToken = token
	account.TokenIssuedAt = &now

	if _, err := s.accounts.Update(ctx, account); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist password reset token")
	}

	s.dispatch(account.Email, TemplateResetPassword, map[string]any{
		"link": s.resetLink(token),
	})

	s.emitEvent(ctx, ActivityEventPasswordResetRequest, ActorRef{ID: account.ID.String(), Type: "user"}, account.ID.String(), nil)

	return nil
}

// ResetPassword replaces the password for the account holding the token and
// consumes the token in the same mutation, so the link cannot be replayed.
func (s *CredentialLifecycle) ResetPassword(ctx context.Context, token, newPassword string) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password reset finalization")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()

	account, err := s.consumableAccount(ctx, token)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	account.PasswordHash = hash
	account.VerificationToken = ""
	account.TokenIssuedAt = nil

	updated, err := s.accounts.Update(ctx, account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account password")
	}

	s.emitEvent(ctx, ActivityEventPasswordResetSuccess, ActorRef{ID: account.ID.String(), Type: "user"}, account.ID.String(), nil)

	return updated, nil
}

// VerifyEmail marks the account holding the token as verified and consumes
// the token. Verification happens at most once; a replayed link fails with
// ErrInvalidOrExpiredToken because the token is already cleared.
func (s *CredentialLifecycle) VerifyEmail(ctx context.Context, token string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email verification")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()

	account, err := s.consumableAccount(ctx, token)
	if err != nil {
		return err
	}

	if !account.EmailVerified() {
		now := time.Now()
		account.EmailVerifiedAt = &now
	}
	account.VerificationToken = ""
	account.TokenIssuedAt = nil

	if _, err := s.accounts.Update(ctx, account); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email as verified")
	}

	s.emitEvent(ctx, ActivityEventEmailVerified, ActorRef{ID: account.ID.String(), Type: "user"}, account.ID.String(), nil)

	return nil
}

// consumableAccount resolves the opaque token to the single account holding
// it and enforces the validity window.
func (s *CredentialLifecycle) consumableAccount(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	account, err := s.accounts.FindByToken(ctx, token)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve verification token")
	}

	issuedAt := account.TokenIssuedAt
	if issuedAt == nil {
		issuedAt = account.CreatedAt
	}

	if issuedAt != nil {
		expired, err := IsOutsideThresholdPeriod(*issuedAt, s.config.GetTokenWindow())
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check token expiration period")
		}
		if expired {
			return nil, ErrInvalidOrExpiredToken
		}
	}

	return account, nil
}

// dispatch sends a notification without tying the caller's mutation to
// delivery: failures are logged, never returned.
func (s *CredentialLifecycle) dispatch(recipient string, template TemplateID, data map[string]any) {
	gateway := normalizeGateway(s.gateway)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
		defer cancel()

		if err := gateway.Send(ctx, recipient, template, data); err != nil {
			s.logger.Warn("notification send failed template=%s: %v", template, err)
		}
	}()
}

func (s *CredentialLifecycle) verifyLink(token string) string {
	return fmt.Sprintf("%s/verify/%s", s.config.GetBaseURL(), token)
}

func (s *CredentialLifecycle) resetLink(token string) string {
	return fmt.Sprintf("%s/reset-password/%s", s.config.GetBaseURL(), token)
}

func (s *CredentialLifecycle) emitEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, accountID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activity)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		AccountID: accountID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}
