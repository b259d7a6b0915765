package identity

import "context"

// AccountStore is the durable keyed record store for accounts. Any engine that
// enforces the email/phone uniqueness constraints can satisfy it; a bun-backed
// implementation ships in this package and tests use an in-memory one.
//
// Lookups return a record-not-found error (repository.IsRecordNotFound
// reports true) when no account matches. Insert maps uniqueness violations to
// ErrDuplicateEmail/ErrDuplicatePhone rather than surfacing driver errors.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByEmailAndRole(ctx context.Context, email string, role Role) (*Account, error)
	FindByPhone(ctx context.Context, phone string) (*Account, error)
	FindByToken(ctx context.Context, token string) (*Account, error)
	Insert(ctx context.Context, account *Account) (*Account, error)
	Update(ctx context.Context, account *Account) (*Account, error)
}

// OneTimeCodeStore keeps at most one outstanding code per phone.
type OneTimeCodeStore interface {
	GetByPhone(ctx context.Context, phone string) (*OneTimeCode, error)
	// Replace stores the code, discarding any previous code for the phone.
	Replace(ctx context.Context, code *OneTimeCode) (*OneTimeCode, error)
	Update(ctx context.Context, code *OneTimeCode) (*OneTimeCode, error)
}
