package messaging

import (
	"context"
	"strings"

	"github.com/oggyb/social-graph/internal/app"
	"github.com/oggyb/social-graph/internal/cache"
	"github.com/oggyb/social-graph/internal/db"
	svcErr "github.com/oggyb/social-graph/internal/errors"
	"github.com/oggyb/social-graph/internal/metrics"
	"github.com/oggyb/social-graph/internal/repository"
	"github.com/oggyb/social-graph/internal/utils/pagination"
)

type messageInput struct {
	Content string `validate:"required,max=2000"`
}

// Service stores direct messages between pairs of accounts.
// It does not depend on the follow graph or on engagement.
type Service struct {
	appCtx      *app.AppContext
	accountRepo *repository.AccountRepository
	messageRepo *repository.MessageRepository
}

func NewMessagingService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		accountRepo: repository.NewAccountRepository(appCtx.DB),
		messageRepo: repository.NewMessageRepository(appCtx.DB),
	}
}

// Send stores a new, unread message.
//
// Behavior:
//   - sender == receiver → ErrInvalidOperation.
//   - either account unknown → ErrNotFound.
//   - content empty after trimming, or too long → ErrInvalidOperation.
func (s *Service) Send(ctx context.Context, senderID, receiverID uint64, content string) (*db.Message, error) {
	s.appCtx.Logger.Debug("Send called", "sender", senderID, "receiver", receiverID)

	if senderID == receiverID {
		return nil, svcErr.InvalidOperation("account %d cannot message itself", senderID)
	}
	if err := s.resolvePair(ctx, senderID, receiverID); err != nil {
		return nil, err
	}
	if err := s.appCtx.Validate.Struct(messageInput{Content: strings.TrimSpace(content)}); err != nil {
		return nil, svcErr.InvalidOperation("message content: %v", err)
	}

	m := &db.Message{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := s.messageRepo.Create(ctx, m); err != nil {
		s.appCtx.Logger.Error("Send failed", "sender", senderID, "err", err, "code", svcErr.Code(err))
		return nil, err
	}
	metrics.MessagesSent.Inc()
	s.invalidate(ctx, receiverID)
	return m, nil
}

// History pages the messages between two accounts in send order.
func (s *Service) History(ctx context.Context, userID1, userID2 uint64, page, size int) (pagination.Page[db.Message], error) {
	s.appCtx.Logger.Debug("History called", "a", userID1, "b", userID2, "page", page, "size", size)

	if err := s.resolvePair(ctx, userID1, userID2); err != nil {
		return pagination.Page[db.Message]{}, err
	}

	req := pagination.Normalize(page, size, s.appCtx.Config.Feed.DefaultPageSize, s.appCtx.Config.Feed.MaxPageSize)
	msgs, total, err := s.messageRepo.History(ctx, userID1, userID2, req)
	if err != nil {
		s.appCtx.Logger.Error("History failed", "err", err, "code", svcErr.Code(err))
		return pagination.Page[db.Message]{}, err
	}
	return pagination.New(msgs, req, total), nil
}

// ConversationPartners returns every account userID has exchanged at least
// one message with, in either direction.
func (s *Service) ConversationPartners(ctx context.Context, userID uint64) ([]db.Account, error) {
	s.appCtx.Logger.Debug("ConversationPartners called", "user", userID)

	ids, err := s.messageRepo.PartnerIDs(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Error("PartnerIDs failed", "user", userID, "err", err, "code", svcErr.Code(err))
		return nil, err
	}
	return s.accountRepo.FindByIDs(ctx, ids)
}

// LatestPerConversation returns one message per partner, the newest one,
// with the most recent conversation first.
func (s *Service) LatestPerConversation(ctx context.Context, userID uint64) ([]db.Message, error) {
	s.appCtx.Logger.Debug("LatestPerConversation called", "user", userID)

	out, err := s.messageRepo.LatestPerConversation(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Error("LatestPerConversation failed", "user", userID, "err", err, "code", svcErr.Code(err))
		return nil, err
	}
	return out, nil
}

// UnreadCount counts unread messages addressed to userID.
// Cache-first with DB fallback, same as notification counts.
func (s *Service) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	s.appCtx.Logger.Debug("UnreadCount called", "user", userID)

	key := cache.KeyForUnreadMessages(userID)
	if n, ok, err := s.appCtx.RedisCache.GetCount(ctx, key); err == nil && ok {
		metrics.CacheLookup("messages", true)
		return n, nil
	} else if err != nil {
		s.appCtx.Logger.Warn("unread cache read failed", "key", key, "err", err)
	}
	metrics.CacheLookup("messages", false)

	// read before counting so a concurrent invalidation voids our fill
	version, verr := s.appCtx.RedisCache.Version(ctx, key)
	if verr != nil {
		s.appCtx.Logger.Warn("unread cache version read failed", "key", key, "err", verr)
	}

	count, err := s.messageRepo.CountUnread(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Error("CountUnread failed", "user", userID, "err", err, "code", svcErr.Code(err))
		return 0, err
	}

	if verr == nil {
		if _, err := s.appCtx.RedisCache.SetCountIfVersion(ctx, key, count, version); err != nil {
			s.appCtx.Logger.Warn("unread cache write failed", "key", key, "err", err)
		}
	}
	return count, nil
}

// UnreadMessages lists unread messages addressed to userID, oldest first.
func (s *Service) UnreadMessages(ctx context.Context, userID uint64) ([]db.Message, error) {
	s.appCtx.Logger.Debug("UnreadMessages called", "user", userID)
	return s.messageRepo.ListUnread(ctx, userID)
}

// MarkRead flags every unread message from fromUserID to toUserID as read
// and returns how many changed. Unknown accounts fail with ErrNotFound.
func (s *Service) MarkRead(ctx context.Context, fromUserID, toUserID uint64) (int64, error) {
	s.appCtx.Logger.Debug("MarkRead called", "from", fromUserID, "to", toUserID)

	if err := s.resolvePair(ctx, fromUserID, toUserID); err != nil {
		return 0, err
	}
	changed, err := s.messageRepo.MarkRead(ctx, fromUserID, toUserID)
	if err != nil {
		s.appCtx.Logger.Error("MarkRead failed", "from", fromUserID, "to", toUserID, "err", err, "code", svcErr.Code(err))
		return 0, err
	}
	if changed > 0 {
		s.invalidate(ctx, toUserID)
	}
	return changed, nil
}

// Delete hard-deletes a message. Only its sender may delete it.
func (s *Service) Delete(ctx context.Context, messageID, requesterID uint64) error {
	s.appCtx.Logger.Debug("Delete called", "message", messageID, "requester", requesterID)

	m, err := s.messageRepo.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if m.SenderID != requesterID {
		return svcErr.Forbidden("account %d cannot delete message %d", requesterID, messageID)
	}

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		s.appCtx.Logger.Error("Delete failed", "message", messageID, "err", err, "code", svcErr.Code(err))
		return err
	}
	if !m.IsRead {
		s.invalidate(ctx, m.ReceiverID)
	}
	return nil
}

func (s *Service) resolvePair(ctx context.Context, a, b uint64) error {
	if _, err := s.accountRepo.ResolveByID(ctx, a); err != nil {
		return err
	}
	_, err := s.accountRepo.ResolveByID(ctx, b)
	return err
}

func (s *Service) invalidate(ctx context.Context, receiverID uint64) {
	key := cache.KeyForUnreadMessages(receiverID)
	if err := s.appCtx.RedisCache.Invalidate(ctx, key); err != nil {
		s.appCtx.Logger.Warn("unread cache invalidation failed", "key", key, "err", err)
	}
}
