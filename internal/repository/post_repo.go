package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/social-graph/internal/db"
	"github.com/oggyb/social-graph/internal/utils/pagination"
)

const (
	orderNewest   = "posts.created_at DESC, posts.id DESC"
	orderTrending = "posts.like_count DESC, posts.id DESC"
)

// PostRepository owns post rows and their denormalized counters.
//
// Counter changes are always SQL deltas so concurrent writers never lose
// an update; decrements are floored at zero.
type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(database *gorm.DB) *PostRepository {
	return &PostRepository{db: database}
}

func (r *PostRepository) WithTx(tx *gorm.DB) *PostRepository {
	return &PostRepository{db: tx}
}

func (r *PostRepository) Create(ctx context.Context, p *db.Post) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByID loads an active post. Soft-deleted posts are reported as not found.
func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*db.Post, error) {
	var p db.Post
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&p).Error
	if err != nil {
		return nil, notFound(err, "post %d", id)
	}
	return &p, nil
}

// SoftDelete marks the post inactive. Reports false when it already was.
func (r *PostRepository) SoftDelete(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Post{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	return res.RowsAffected > 0, res.Error
}

func (r *PostRepository) IncrementLikes(ctx context.Context, id uint64) error {
	return r.delta(ctx, id, "like_count", 1)
}

func (r *PostRepository) DecrementLikes(ctx context.Context, id uint64) error {
	return r.delta(ctx, id, "like_count", -1)
}

func (r *PostRepository) IncrementComments(ctx context.Context, id uint64) error {
	return r.delta(ctx, id, "comment_count", 1)
}

func (r *PostRepository) DecrementComments(ctx context.Context, id uint64) error {
	return r.delta(ctx, id, "comment_count", -1)
}

// column is never user input.
func (r *PostRepository) delta(ctx context.Context, id uint64, column string, by int) error {
	expr := gorm.Expr(column + " + 1")
	if by < 0 {
		expr = gorm.Expr("CASE WHEN " + column + " > 0 THEN " + column + " - 1 ELSE 0 END")
	}
	return r.db.WithContext(ctx).
		Model(&db.Post{}).
		Where("id = ?", id).
		UpdateColumn(column, expr).Error
}

// ActiveIDsAfter lists up to limit active post ids greater than afterID,
// ascending. Used to walk every post in batches.
func (r *PostRepository) ActiveIDsAfter(ctx context.Context, afterID uint64, limit int) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.WithContext(ctx).
		Model(&db.Post{}).
		Where("id > ? AND active = ?", afterID, true).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// SetCounters overwrites both counters. Used by reconciliation only.
func (r *PostRepository) SetCounters(ctx context.Context, id uint64, likes, comments int64) error {
	return r.db.WithContext(ctx).
		Model(&db.Post{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"like_count": likes, "comment_count": comments}).Error
}

// HomeFeed pages the active posts of userID and everyone userID follows.
func (r *PostRepository) HomeFeed(ctx context.Context, userID uint64, req pagination.Request) ([]db.Post, int64, error) {
	return r.page(ctx, req, orderNewest, func(q *gorm.DB) *gorm.DB {
		return q.Where(
			"(posts.account_id = ? OR posts.account_id IN (SELECT following_id FROM follows WHERE follower_id = ?))",
			userID, userID,
		)
	})
}

// Explore pages every visible post, newest first.
func (r *PostRepository) Explore(ctx context.Context, req pagination.Request) ([]db.Post, int64, error) {
	return r.page(ctx, req, orderNewest, nil)
}

// Trending pages visible posts by like counter. Order among equal counters
// is not part of the contract.
func (r *PostRepository) Trending(ctx context.Context, req pagination.Request) ([]db.Post, int64, error) {
	return r.page(ctx, req, orderTrending, nil)
}

func (r *PostRepository) ByAuthor(ctx context.Context, authorID uint64, req pagination.Request) ([]db.Post, int64, error) {
	return r.page(ctx, req, orderNewest, func(q *gorm.DB) *gorm.DB {
		return q.Where("posts.account_id = ?", authorID)
	})
}

// Search matches content case-insensitively. LIKE wildcards in query are
// matched literally.
//
// Both sides are folded by the database's LOWER, so query and content
// always fold the same way. On SQLite that folding is ASCII-only: "école"
// does not match "ÉCOLE" there, while MySQL and Postgres fold it.
func (r *PostRepository) Search(ctx context.Context, query string, req pagination.Request) ([]db.Post, int64, error) {
	pattern := "%" + escapeLike(query) + "%"
	return r.page(ctx, req, orderNewest, func(q *gorm.DB) *gorm.DB {
		return q.Where("LOWER(posts.content) LIKE LOWER(?) ESCAPE '!'", pattern)
	})
}

// page runs the count and the slice query over visible posts: the post is
// active and so is its author.
func (r *PostRepository) page(
	ctx context.Context,
	req pagination.Request,
	order string,
	scope func(*gorm.DB) *gorm.DB,
) ([]db.Post, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&db.Post{}).
			Joins("JOIN accounts ON accounts.id = posts.account_id").
			Where("posts.active = ? AND accounts.active = ?", true, true)
		if scope != nil {
			q = scope(q)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	posts := []db.Post{}
	if total == 0 {
		return posts, 0, nil
	}
	err := base().
		Select("posts.*").
		Order(order).
		Offset(req.Offset()).
		Limit(req.Size).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
