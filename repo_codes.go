package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type oneTimeCodes struct {
	repository.Repository[*OneTimeCode]
	db *bun.DB
}

var _ OneTimeCodeStore = (*oneTimeCodes)(nil)

// NewOneTimeCodesRepository returns a bun-backed OneTimeCodeStore.
func NewOneTimeCodesRepository(db *bun.DB) OneTimeCodeStore {
	repo := repository.NewRepository[*OneTimeCode](db, repository.ModelHandlers[*OneTimeCode]{
		NewRecord: func() *OneTimeCode { return &OneTimeCode{} },
		GetID: func(c *OneTimeCode) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *OneTimeCode, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "phone"
		},
	})

	return &oneTimeCodes{
		Repository: repo,
		db:         db,
	}
}

func (r *oneTimeCodes) GetByPhone(ctx context.Context, phone string) (*OneTimeCode, error) {
	record := &OneTimeCode{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.phone = ?", phone).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"phone": phone})
		}
		return nil, err
	}

	return record, nil
}

// Replace upserts on the phone's unique key so a new send atomically discards
// the previous outstanding code, its attempt counter, and its consumed mark.
func (r *oneTimeCodes) Replace(ctx context.Context, code *OneTimeCode) (*OneTimeCode, error) {
	if code == nil {
		return nil, goerrors.New("one-time code must not be nil", goerrors.CategoryBadInput)
	}

	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	if code.CreatedAt == nil {
		now := time.Now()
		code.CreatedAt = &now
	}

	_, err := r.db.NewInsert().
		Model(code).
		On("CONFLICT (phone) DO UPDATE").
		Set("code = EXCLUDED.code").
		Set("expires_at = EXCLUDED.expires_at").
		Set("attempts = 0").
		Set("consumed_at = NULL").
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	return code, nil
}

func (r *oneTimeCodes) Update(ctx context.Context, code *OneTimeCode) (*OneTimeCode, error) {
	if code == nil || code.ID == uuid.Nil {
		return nil, goerrors.New("one-time code update requires an id", goerrors.CategoryBadInput)
	}

	_, err := r.db.NewUpdate().
		Model(code).
		Column("attempts", "consumed_at").
		WherePK().
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	return code, nil
}
