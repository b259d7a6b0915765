package identity

import (
	"fmt"
	"regexp"
	"time"
)

// DefaultPasswordPattern is the allowed password alphabet and length. Handlers
// additionally require at least one letter and one digit; Go's regexp has no
// lookaheads, so the composition rule lives in the payload validators.
const DefaultPasswordPattern = `^[a-z0-9]{8,16}$`

// DefaultTokenWindow bounds how long a verification/reset link stays valid.
const DefaultTokenWindow = "24h"

// DefaultPhoneRegion interprets phone numbers without an international prefix.
const DefaultPhoneRegion = "JP"

// LifecycleConfig is the concrete, immutable process-wide configuration.
// Build it once at startup and Validate it before serving traffic; a failed
// validation is fatal.
type LifecycleConfig struct {
	SigningKey      string
	SigningMethod   string
	TokenExpiration int
	Issuer          string
	Audience        []string
	ContextKey      string
	BaseURL         string
	PasswordPattern string
	OtpWindow       time.Duration
	OtpMaxAttempts  int
	TokenWindow     string
	PhoneRegion     string
}

var _ Config = LifecycleConfig{}

// Validate enforces the startup invariants: a service with a missing signing
// key or an unusable TTL must not accept traffic.
func (c LifecycleConfig) Validate() error {
	if c.SigningKey == "" {
		return fmt.Errorf("config: signing key is required")
	}

	if c.TokenExpiration <= 0 {
		return fmt.Errorf("config: token expiration must be positive, got %d", c.TokenExpiration)
	}

	if c.BaseURL == "" {
		return fmt.Errorf("config: base URL is required to build verification links")
	}

	if _, err := regexp.Compile(c.GetPasswordPattern()); err != nil {
		return fmt.Errorf("config: invalid password pattern: %w", err)
	}

	if _, err := time.ParseDuration(c.GetTokenWindow()); err != nil {
		return fmt.Errorf("config: invalid token window: %w", err)
	}

	return nil
}

func (c LifecycleConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c LifecycleConfig) GetSigningMethod() string {
	if c.SigningMethod == "" {
		return "HS256"
	}
	return c.SigningMethod
}

// GetTokenExpiration is the session TTL in hours.
func (c LifecycleConfig) GetTokenExpiration() int {
	return c.TokenExpiration
}

func (c LifecycleConfig) GetIssuer() string {
	return c.Issuer
}

func (c LifecycleConfig) GetAudience() []string {
	return c.Audience
}

func (c LifecycleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "identity"
	}
	return c.ContextKey
}

// GetBaseURL is the external base for verification and reset links.
func (c LifecycleConfig) GetBaseURL() string {
	return c.BaseURL
}

func (c LifecycleConfig) GetPasswordPattern() string {
	if c.PasswordPattern == "" {
		return DefaultPasswordPattern
	}
	return c.PasswordPattern
}

func (c LifecycleConfig) GetOtpWindow() time.Duration {
	if c.OtpWindow <= 0 {
		return DefaultOtpWindow
	}
	return c.OtpWindow
}

func (c LifecycleConfig) GetOtpMaxAttempts() int {
	if c.OtpMaxAttempts <= 0 {
		return DefaultOtpMaxAttempts
	}
	return c.OtpMaxAttempts
}

// GetTokenWindow is the validity window expression for opaque link tokens.
func (c LifecycleConfig) GetTokenWindow() string {
	if c.TokenWindow == "" {
		return DefaultTokenWindow
	}
	return c.TokenWindow
}

func (c LifecycleConfig) GetPhoneRegion() string {
	if c.PhoneRegion == "" {
		return DefaultPhoneRegion
	}
	return c.PhoneRegion
}
