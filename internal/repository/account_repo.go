package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/social-graph/internal/db"
)

// AccountRepository is the identity lookup the core resolves callers against.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(database *gorm.DB) *AccountRepository {
	return &AccountRepository{db: database}
}

// WithTx binds the repository to an open transaction.
func (r *AccountRepository) WithTx(tx *gorm.DB) *AccountRepository {
	return &AccountRepository{db: tx}
}

// ResolveByID loads an account. Missing ids fail with ErrNotFound.
func (r *AccountRepository) ResolveByID(ctx context.Context, id uint64) (*db.Account, error) {
	var a db.Account
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "account %d", id)
	}
	return &a, nil
}

// ResolveByHandle loads an account by its unique handle.
func (r *AccountRepository) ResolveByHandle(ctx context.Context, handle string) (*db.Account, error) {
	var a db.Account
	if err := r.db.WithContext(ctx).First(&a, "handle = ?", handle).Error; err != nil {
		return nil, notFound(err, "account %q", handle)
	}
	return &a, nil
}

func (r *AccountRepository) Create(ctx context.Context, a *db.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// SetActive flips the soft-disable flag. Posts and edges are left alone.
func (r *AccountRepository) SetActive(ctx context.Context, id uint64, active bool) error {
	if _, err := r.ResolveByID(ctx, id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&db.Account{}).
		Where("id = ?", id).
		Update("active", active).Error
}

// FindByIDs batch-loads accounts ordered by id. Unknown ids are skipped.
func (r *AccountRepository) FindByIDs(ctx context.Context, ids []uint64) ([]db.Account, error) {
	accounts := []db.Account{}
	if len(ids) == 0 {
		return accounts, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&accounts).Error
	return accounts, err
}
