package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the identity record.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role              Role       `bun:"role,notnull" json:"role,omitempty"`
	Name              string     `bun:"name,notnull" json:"name,omitempty"`
	FuriganaName      string     `bun:"furigana_name" json:"furigana_name,omitempty"`
	Email             string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone             string     `bun:"phone,notnull,unique" json:"phone,omitempty"`
	PostCode          string     `bun:"post_code" json:"post_code,omitempty"`
	Address           string     `bun:"address" json:"address,omitempty"`
	PasswordHash      string     `bun:"password_hash,notnull" json:"password_hash,omitempty"`
	VerificationToken string     `bun:"verification_token,nullzero,unique" json:"verification_token,omitempty"`
	TokenIssuedAt     *time.Time `bun:"token_issued_at,nullzero" json:"token_issued_at,omitempty"`
	EmailVerifiedAt   *time.Time `bun:"email_verified_at,nullzero" json:"email_verified_at,omitempty"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt         *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EmailVerified reports whether the account completed verification.
func (a *Account) EmailVerified() bool {
	return a != nil && a.EmailVerifiedAt != nil
}

// credentialFields are never returned from a boundary handler.
var credentialFields = []string{"password_hash", "verification_token"}

// Sanitized returns a copy with credential fields stripped. Handlers call
// this on every account they return; the lifecycle itself keeps the full
// record so tokens can flow to the notification gateway.
func (a *Account) Sanitized() *Account {
	if a == nil {
		return nil
	}
	clean := *a
	clean.PasswordHash = ""
	clean.VerificationToken = ""
	clean.TokenIssuedAt = nil
	return &clean
}

// HoldsToken reports whether the given opaque token is the account's single
// active verification token.
func (a *Account) HoldsToken(token string) bool {
	return a != nil && token != "" && a.VerificationToken == token
}

// OneTimeCode is a short-lived numeric code bound to a phone number. A phone
// has at most one outstanding code; issuing a new one replaces it.
type OneTimeCode struct {
	bun.BaseModel `bun:"table:one_time_codes,alias:otc"`

	ID         uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Phone      string     `bun:"phone,notnull,unique" json:"phone,omitempty"`
	Code       string     `bun:"code,notnull" json:"-"`
	ExpiresAt  time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	Attempts   int        `bun:"attempts" json:"attempts,omitempty"`
	ConsumedAt *time.Time `bun:"consumed_at,nullzero" json:"consumed_at,omitempty"`
	CreatedAt  *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Consumed reports whether the code was already accepted once.
func (c *OneTimeCode) Consumed() bool {
	return c != nil && c.ConsumedAt != nil
}

// ExpiredAt reports whether the code is past its validity window at t.
func (c *OneTimeCode) ExpiredAt(t time.Time) bool {
	return c == nil || !t.Before(c.ExpiresAt)
}
