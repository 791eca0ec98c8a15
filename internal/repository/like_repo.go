package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/social-graph/internal/db"
)

// LikeRepository provides data access for (account, post) like rows.
type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

func (r *LikeRepository) WithTx(tx *gorm.DB) *LikeRepository {
	return &LikeRepository{db: tx}
}

// Insert adds the like unless the pair already exists.
//
// Behavior:
//   - new pair → inserted, returns true.
//   - existing pair → untouched, returns false.
//   - the composite PK makes this race-safe: of two concurrent inserts
//     exactly one reports true.
func (r *LikeRepository) Insert(ctx context.Context, accountID, postID uint64) (bool, error) {
	like := db.Like{AccountID: accountID, PostID: postID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like)
	return res.RowsAffected > 0, res.Error
}

// Delete hard-deletes the like. Reports whether a row was removed.
func (r *LikeRepository) Delete(ctx context.Context, accountID, postID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("account_id = ? AND post_id = ?", accountID, postID).
		Delete(&db.Like{})
	return res.RowsAffected > 0, res.Error
}

func (r *LikeRepository) Exists(ctx context.Context, accountID, postID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("account_id = ? AND post_id = ?", accountID, postID).
		Count(&count).Error
	return count > 0, err
}

// CountForPost is the authoritative like count, straight from the join table.
func (r *LikeRepository) CountForPost(ctx context.Context, postID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}

// ListForPost returns the post's likes, newest first.
func (r *LikeRepository) ListForPost(ctx context.Context, postID uint64) ([]db.Like, error) {
	likes := []db.Like{}
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at DESC, account_id DESC").
		Find(&likes).Error
	return likes, err
}
