package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/social-graph/internal/db"
	"github.com/oggyb/social-graph/internal/utils/pagination"
)

// partnerExpr picks the other side of a message relative to one account.
const partnerExpr = "CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END"

// MessageRepository provides data access for direct messages.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

func (r *MessageRepository) WithTx(tx *gorm.DB) *MessageRepository {
	return &MessageRepository{db: tx}
}

func (r *MessageRepository) Create(ctx context.Context, m *db.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MessageRepository) FindByID(ctx context.Context, id uint64) (*db.Message, error) {
	var m db.Message
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "message %d", id)
	}
	return &m, nil
}

// Delete hard-deletes a message.
func (r *MessageRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&db.Message{}, "id = ?", id).Error
}

// History pages the conversation between a and b in send order.
func (r *MessageRepository) History(
	ctx context.Context,
	a, b uint64,
	req pagination.Request,
) ([]db.Message, int64, error) {
	pair := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&db.Message{}).
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a)
	}

	var total int64
	if err := pair().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	out := []db.Message{}
	if total == 0 {
		return out, 0, nil
	}
	err := pair().
		Order("created_at ASC, id ASC").
		Offset(req.Offset()).
		Limit(req.Size).
		Find(&out).Error
	return out, total, err
}

// PartnerIDs returns every account userID has exchanged a message with.
func (r *MessageRepository) PartnerIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.WithContext(ctx).
		Raw(
			"SELECT DISTINCT "+partnerExpr+" AS partner_id FROM messages WHERE sender_id = ? OR receiver_id = ?",
			userID, userID, userID,
		).
		Scan(&ids).Error
	return ids, err
}

// LatestPerConversation returns the newest message of each conversation
// userID takes part in, newest conversation first.
//
// The newest message per partner is resolved in SQL as MAX(id) grouped by
// partner, so concurrent inserts never produce two rows for one partner.
func (r *MessageRepository) LatestPerConversation(ctx context.Context, userID uint64) ([]db.Message, error) {
	out := []db.Message{}
	err := r.db.WithContext(ctx).
		Where(
			"id IN (SELECT MAX(id) FROM messages WHERE sender_id = ? OR receiver_id = ? GROUP BY "+partnerExpr+")",
			userID, userID, userID,
		).
		Order("id DESC").
		Find(&out).Error
	return out, err
}

func (r *MessageRepository) CountUnread(ctx context.Context, receiverID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&count).Error
	return count, err
}

// ListUnread returns unread messages addressed to receiverID, oldest first.
func (r *MessageRepository) ListUnread(ctx context.Context, receiverID uint64) ([]db.Message, error) {
	out := []db.Message{}
	err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// MarkRead flips every unread message from → to. Returns rows changed.
func (r *MessageRepository) MarkRead(ctx context.Context, fromID, toID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", fromID, toID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
