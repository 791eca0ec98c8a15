package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/social-graph/internal/db"
)

// FollowRepository stores directed follower → following edges.
// Counts are live indexed queries; there is no denormalized follow counter.
type FollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository(database *gorm.DB) *FollowRepository {
	return &FollowRepository{db: database}
}

func (r *FollowRepository) WithTx(tx *gorm.DB) *FollowRepository {
	return &FollowRepository{db: tx}
}

// Insert adds the edge unless it exists. Reports whether a row was written.
func (r *FollowRepository) Insert(ctx context.Context, followerID, followingID uint64) (bool, error) {
	edge := db.Follow{FollowerID: followerID, FollowingID: followingID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge)
	return res.RowsAffected > 0, res.Error
}

func (r *FollowRepository) Delete(ctx context.Context, followerID, followingID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&db.Follow{})
	return res.RowsAffected > 0, res.Error
}

func (r *FollowRepository) Exists(ctx context.Context, followerID, followingID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

// FollowerIDs returns who follows userID.
func (r *FollowRepository) FollowerIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.WithContext(ctx).
		Model(&db.Follow{}).
		Where("following_id = ?", userID).
		Pluck("follower_id", &ids).Error
	return ids, err
}

// FollowingIDs returns who userID follows.
func (r *FollowRepository) FollowingIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.WithContext(ctx).
		Model(&db.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	return ids, err
}

func (r *FollowRepository) CountFollowers(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Follow{}).
		Where("following_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *FollowRepository) CountFollowing(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Follow{}).
		Where("follower_id = ?", userID).
		Count(&count).Error
	return count, err
}
