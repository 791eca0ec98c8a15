package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/social-graph/internal/db"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(database *gorm.DB) *CommentRepository {
	return &CommentRepository{db: database}
}

func (r *CommentRepository) WithTx(tx *gorm.DB) *CommentRepository {
	return &CommentRepository{db: tx}
}

func (r *CommentRepository) Create(ctx context.Context, c *db.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// FindByID loads a comment whether or not it is soft-deleted.
func (r *CommentRepository) FindByID(ctx context.Context, id uint64) (*db.Comment, error) {
	var c db.Comment
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "comment %d", id)
	}
	return &c, nil
}

func (r *CommentRepository) UpdateContent(ctx context.Context, id uint64, content string) error {
	return r.db.WithContext(ctx).
		Model(&db.Comment{}).
		Where("id = ?", id).
		Update("content", content).Error
}

// Deactivate soft-deletes the comment. Only the active → inactive
// transition reports true, so callers decrement counters exactly once.
func (r *CommentRepository) Deactivate(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Comment{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	return res.RowsAffected > 0, res.Error
}

// TopLevelForPost lists active, parent-less comments, newest first.
func (r *CommentRepository) TopLevelForPost(ctx context.Context, postID uint64) ([]db.Comment, error) {
	comments := []db.Comment{}
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND parent_id IS NULL AND active = ?", postID, true).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	return comments, err
}

// RepliesTo lists active replies to a comment, newest first.
func (r *CommentRepository) RepliesTo(ctx context.Context, parentID uint64) ([]db.Comment, error) {
	comments := []db.Comment{}
	err := r.db.WithContext(ctx).
		Where("parent_id = ? AND active = ?", parentID, true).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	return comments, err
}

// CountActiveForPost counts every active comment on the post, replies included.
func (r *CommentRepository) CountActiveForPost(ctx context.Context, postID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Comment{}).
		Where("post_id = ? AND active = ?", postID, true).
		Count(&count).Error
	return count, err
}
