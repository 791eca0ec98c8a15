package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/social-graph/internal/db"
	"github.com/oggyb/social-graph/internal/utils/pagination"
)

// NotificationRepository provides data access for notification rows.
// Rows are append-only; the read flag is the only mutable column.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

func (r *NotificationRepository) Create(ctx context.Context, n *db.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListForRecipient returns every notification for the recipient, newest first.
func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipientID uint64) ([]db.Notification, error) {
	out := []db.Notification{}
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// ListUnread returns unread notifications, newest first.
func (r *NotificationRepository) ListUnread(ctx context.Context, recipientID uint64) ([]db.Notification, error) {
	out := []db.Notification{}
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flags one notification as read.
//
// Behavior:
//   - unknown id or a notification owned by someone else → false, no error.
//   - otherwise → true, also when it was already read.
func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Count(&count).Error
	if err != nil || count == 0 {
		return false, err
	}

	err = r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true).Error
	return err == nil, err
}

// MarkAllRead flips every unread notification for the recipient.
// Returns how many rows changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// ListPage returns one keyset page of the recipient's notifications.
//
// Behavior:
//   - Newest first by id. Rows are append-only, so id order is insertion
//     order and the cursor needs nothing but the last id seen.
//   - paginationToken is the opaque cursor from the previous page; nil or
//     empty starts from the newest.
//   - A malformed token fails with pagination.ErrInvalidToken.
//   - The returned token is nil on the last page.
//
// Example:
//
//	repo.ListPage(ctx, 42, nil, 20) // newest 20 notifications for account 42
func (r *NotificationRepository) ListPage(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]db.Notification, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("id DESC").
		Limit(limit + 1)

	if !cursor.IsZero() {
		query = query.Where("id < ?", cursor.ID)
	}

	out := []db.Notification{}
	if err := query.Find(&out).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(out) > limit {
		token, err := pagination.Encode(pagination.Cursor{ID: out[limit-1].ID})
		if err != nil {
			return nil, nil, err
		}
		nextToken = &token
		out = out[:limit]
	}
	return out, nextToken, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
