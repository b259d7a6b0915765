package identity

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// DefaultOtpWindow bounds code validity when no window is configured.
var DefaultOtpWindow = 5 * time.Minute

// DefaultOtpMaxAttempts caps failed verifications per outstanding code to
// mitigate brute force inside the validity window.
var DefaultOtpMaxAttempts = 5

const otpDigits = 6

// OtpService generates and validates short-lived numeric codes bound to a
// phone number. A fresh send invalidates any outstanding code for the phone;
// a code is accepted at most once.
type OtpService struct {
	store       OneTimeCodeStore
	window      time.Duration
	maxAttempts int
	logger      Logger
}

// NewOtpService will create a new OtpService
func NewOtpService(store OneTimeCodeStore) *OtpService {
	return &OtpService{
		store:       store,
		window:      DefaultOtpWindow,
		maxAttempts: DefaultOtpMaxAttempts,
		logger:      defLogger{},
	}
}

// WithWindow overrides the validity window.
func (s *OtpService) WithWindow(window time.Duration) *OtpService {
	if window > 0 {
		s.window = window
	}
	return s
}

// WithMaxAttempts overrides the failed-attempt cap.
func (s *OtpService) WithMaxAttempts(max int) *OtpService {
	if max > 0 {
		s.maxAttempts = max
	}
	return s
}

func (s *OtpService) WithLogger(logger Logger) *OtpService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Generate issues a fresh code for the phone, replacing any outstanding one.
func (s *OtpService) Generate(ctx context.Context, phone string) (string, error) {
	code, err := randomDigits(otpDigits)
	if err != nil {
		return "", err
	}

	record := &OneTimeCode{
		Phone:     phone,
		Code:      code,
		ExpiresAt: time.Now().Add(s.window),
	}

	if _, err := s.store.Replace(ctx, record); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to store one-time code")
	}

	return code, nil
}

// Verify accepts the submitted code if a non-expired, unconsumed code matching
// exactly was previously generated for the phone. The code is consumed on
// success; on failure the attempt counter moves but the code stays valid so
// the caller can retry within the window, up to the attempt cap.
func (s *OtpService) Verify(ctx context.Context, phone, submitted string) error {
	record, err := s.store.GetByPhone(ctx, phone)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrInvalidOtp
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to look up one-time code")
	}

	now := time.Now()
	if record.Consumed() || record.ExpiredAt(now) {
		return ErrInvalidOtp
	}

	if record.Attempts >= s.maxAttempts {
		return ErrInvalidOtp
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(submitted)) != 1 {
		record.Attempts++
		if _, err := s.store.Update(ctx, record); err != nil {
			s.logger.Warn("failed to track otp attempt: %v", err)
		}
		return ErrInvalidOtp
	}

	record.ConsumedAt = &now
	if _, err := s.store.Update(ctx, record); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to consume one-time code")
	}

	return nil
}

func randomDigits(n int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < n; i++ {
		max.Mul(max, big.NewInt(10))
	}

	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate one-time code")
	}

	return fmt.Sprintf("%0*d", n, v), nil
}
