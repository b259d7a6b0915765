package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NormalizeEmail lowercases and trims an email address; accounts are keyed by
// the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var _ AccountStore = (*accounts)(nil)

// NewAccountsRepository returns a bun-backed AccountStore.
func NewAccountsRepository(db *bun.DB) AccountStore {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) FindByID(ctx context.Context, id string) (*Account, error) {
	return a.findByColumn(ctx, "id", id)
}

func (a *accounts) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return a.findByColumn(ctx, "email", NormalizeEmail(email))
}

func (a *accounts) FindByPhone(ctx context.Context, phone string) (*Account, error) {
	return a.findByColumn(ctx, "phone", phone)
}

func (a *accounts) FindByToken(ctx context.Context, token string) (*Account, error) {
	return a.findByColumn(ctx, "verification_token", token)
}

func (a *accounts) FindByEmailAndRole(ctx context.Context, email string, role Role) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Where("?TableAlias.role = ?", string(role)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email, "role": string(role)})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) findByColumn(ctx context.Context, column string, value any) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{column: value})
		}
		return nil, err
	}

	return record, nil
}

// Insert creates the account atomically. The uniqueness checks and the insert
// run in one transaction so two concurrent registrations with the same email
// cannot both succeed; the unique constraints backstop the explicit checks and
// constraint violations still map to the duplicate errors.
func (a *accounts) Insert(ctx context.Context, account *Account) (*Account, error) {
	prepareAccountDefaults(account)

	var created *Account
	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*Account)(nil)).
			Where("?TableAlias.email = ?", account.Email).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateEmail
		}

		exists, err = tx.NewSelect().Model((*Account)(nil)).
			Where("?TableAlias.phone = ?", account.Phone).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicatePhone
		}

		created, err = a.Repository.CreateTx(ctx, tx, account)
		if err != nil {
			return mapUniquenessViolation(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return created, nil
}

// Update persists the mutable account fields, including cleared ones: the
// explicit column list is what lets a consumed verification token go back to
// NULL.
func (a *accounts) Update(ctx context.Context, account *Account) (*Account, error) {
	if account == nil || account.ID == uuid.Nil {
		return nil, goerrors.New("account update requires an id", goerrors.CategoryBadInput)
	}

	now := time.Now()
	account.UpdatedAt = &now

	_, err := a.db.NewUpdate().
		Model(account).
		Column(
			"name",
			"furigana_name",
			"email",
			"phone",
			"post_code",
			"address",
			"password_hash",
			"verification_token",
			"token_issued_at",
			"email_verified_at",
			"updated_at",
		).
		WherePK().
		Exec(ctx)

	if err != nil {
		return nil, mapUniquenessViolation(err)
	}

	return account, nil
}

func prepareAccountDefaults(account *Account) {
	if account == nil {
		return
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.Email = NormalizeEmail(account.Email)
	if account.CreatedAt == nil {
		now := time.Now()
		account.CreatedAt = &now
	}
}

// mapUniquenessViolation turns driver-level unique constraint errors into the
// stable duplicate errors. Message sniffing covers sqlite and postgres.
func mapUniquenessViolation(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate") {
		return err
	}

	switch {
	case strings.Contains(msg, "email"):
		return ErrDuplicateEmail
	case strings.Contains(msg, "phone"):
		return ErrDuplicatePhone
	case strings.Contains(msg, "verification_token"):
		return ErrInvalidOrExpiredToken
	default:
		return goerrors.Wrap(err, goerrors.CategoryConflict, "uniqueness constraint violated")
	}
}
