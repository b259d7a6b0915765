package identity

import (
	"github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidPhone rejects numbers that cannot be canonicalized.
var ErrInvalidPhone = errors.New("invalid phone number", errors.CategoryValidation).
	WithTextCode("INVALID_PHONE")

// NormalizePhone parses a raw phone number and returns its canonical E.164
// form. Numbers without an international prefix are interpreted in the given
// region (e.g. "JP" turns 09012345678 into +819012345678).
func NormalizePhone(raw, region string) (string, error) {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", errors.Wrap(err, ErrInvalidPhone.Category, ErrInvalidPhone.Message).
			WithTextCode(ErrInvalidPhone.TextCode).
			WithMetadata(map[string]any{"region": region})
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
