package identity

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Lifecycle errors exposed at the boundary. Each carries a stable text code
// that handlers surface instead of the internal message; the category drives
// the HTTP status mapping.
var (
	// ErrUnauthorized is returned by login for a missing account and for a
	// password mismatch alike, so callers cannot enumerate accounts.
	ErrUnauthorized = errors.New("invalid credentials", errors.CategoryAuth).
			WithTextCode("UNAUTHORIZED").
			WithCode(errors.CodeUnauthorized)

	// ErrDuplicateEmail is returned by register when the email is taken.
	ErrDuplicateEmail = errors.New("email address is already registered", errors.CategoryConflict).
				WithTextCode("DUPLICATE_EMAIL")

	// ErrDuplicatePhone is returned by register when the phone number is taken.
	ErrDuplicatePhone = errors.New("phone number is already registered", errors.CategoryConflict).
				WithTextCode("DUPLICATE_PHONE")

	// ErrAccountNotFound is returned by forgot-password for an unknown email.
	// Deliberate policy asymmetry with login, see CredentialLifecycle.
	ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
				WithTextCode("ACCOUNT_NOT_FOUND").
				WithCode(errors.CodeNotFound)

	// ErrInvalidOtp is returned when a submitted code does not match, is
	// expired, was already consumed, or exceeded the attempt cap.
	ErrInvalidOtp = errors.New("invalid or expired one-time code", errors.CategoryValidation).
			WithTextCode("INVALID_OTP")

	// ErrInvalidOrExpiredToken is returned when no account holds the given
	// verification token or the token is outside its validity window.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token", errors.CategoryValidation).
					WithTextCode("INVALID_OR_EXPIRED_TOKEN")

	// ErrTokenExpired is returned decoding a session token past its expiry.
	ErrTokenExpired = errors.New("session token is expired", errors.CategoryAuth).
			WithTextCode("TOKEN_EXPIRED").
			WithCode(errors.CodeUnauthorized)

	// ErrTokenMalformed is returned decoding a session token with a bad
	// signature or format.
	ErrTokenMalformed = errors.New("session token is malformed", errors.CategoryAuth).
				WithTextCode("TOKEN_MALFORMED").
				WithCode(errors.CodeUnauthorized)
)

// ErrNoEmptyString rejects empty plaintext passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD")

// ErrMismatchedHashAndPassword is the verification failure for a wrong
// password or an unparseable stored hash.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH")

// ErrUnableToDecodeSession signals a token whose claims could not be mapped.
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode("SESSION_DECODE")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
