package notify

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/social-graph/internal/app"
	"github.com/oggyb/social-graph/internal/cache"
	"github.com/oggyb/social-graph/internal/db"
	svcErr "github.com/oggyb/social-graph/internal/errors"
	"github.com/oggyb/social-graph/internal/metrics"
	"github.com/oggyb/social-graph/internal/repository"
	"github.com/oggyb/social-graph/internal/utils/pagination"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Service derives notification rows from engagement and follow events and
// serves the recipient's read side.
//
// Self-notifications are suppressed by callers, not here.
type Service struct {
	appCtx           *app.AppContext
	notificationRepo *repository.NotificationRepository

	// set on copies returned by WithTx; cache invalidation is then left to
	// the caller once the transaction commits.
	inTx bool
}

func NewNotifyService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:           appCtx,
		notificationRepo: repository.NewNotificationRepository(appCtx.DB),
	}
}

// WithTx returns a copy that writes through tx. Callers must call
// Invalidate for every recipient after the transaction commits.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{
		appCtx:           s.appCtx,
		notificationRepo: s.notificationRepo.WithTx(tx),
		inTx:             true,
	}
}

// Emit appends a notification. It only fails on storage errors.
func (s *Service) Emit(
	ctx context.Context,
	recipientID, actorID uint64,
	message string,
	typ db.NotificationType,
	postID, commentID *uint64,
) (*db.Notification, error) {
	s.appCtx.Logger.Debug("Emit called", "recipient", recipientID, "actor", actorID, "type", typ)

	n := &db.Notification{
		RecipientID: recipientID,
		ActorID:     actorID,
		Message:     message,
		Type:        typ,
		PostID:      postID,
		CommentID:   commentID,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.appCtx.Logger.Error("Emit failed", "recipient", recipientID, "err", err, "code", svcErr.Code(err))
		return nil, err
	}
	metrics.NotificationsEmitted.WithLabelValues(string(typ)).Inc()

	if !s.inTx {
		s.Invalidate(ctx, recipientID)
	}
	return n, nil
}

// Invalidate drops the cached unread counters of the given recipients.
func (s *Service) Invalidate(ctx context.Context, recipientIDs ...uint64) {
	keys := make([]string, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		keys = append(keys, cache.KeyForUnreadNotifications(id))
	}
	if err := s.appCtx.RedisCache.Invalidate(ctx, keys...); err != nil {
		s.appCtx.Logger.Warn("unread cache invalidation failed", "recipients", recipientIDs, "err", err)
	}
}

// ListForUser returns all of the user's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]db.Notification, error) {
	s.appCtx.Logger.Debug("ListForUser called", "user", userID)

	out, err := s.notificationRepo.ListForRecipient(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Error("ListForRecipient failed", "user", userID, "err", err, "code", svcErr.Code(err))
		return nil, err
	}
	return out, nil
}

// ListUnread returns the user's unread notifications, newest first.
func (s *Service) ListUnread(ctx context.Context, userID uint64) ([]db.Notification, error) {
	s.appCtx.Logger.Debug("ListUnread called", "user", userID)

	out, err := s.notificationRepo.ListUnread(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Error("ListUnread failed", "user", userID, "err", err, "code", svcErr.Code(err))
		return nil, err
	}
	return out, nil
}

// ListPage returns one cursor page of the user's notifications, newest first.
// limit <= 0 uses 20; anything above 100 is capped. A token this service
// did not issue is ErrInvalidOperation; storage errors pass through.
func (s *Service) ListPage(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.Notification, *string, error) {
	s.appCtx.Logger.Debug("ListPage called", "user", userID, "limit", limit)

	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	out, next, err := s.notificationRepo.ListPage(ctx, userID, paginationToken, limit)
	if errors.Is(err, pagination.ErrInvalidToken) {
		return nil, nil, svcErr.InvalidOperation("%v", err)
	}
	if err != nil {
		s.appCtx.Logger.Error("ListPage failed", "user", userID, "err", err, "code", svcErr.Code(err))
		return nil, nil, err
	}
	return out, next, nil
}

// UnreadCount returns how many unread notifications the user has.
// Cache-first strategy:
//  1. Attempts to read from Redis (notifications:unread:userID).
//  2. On a miss, counts in the DB.
//  3. On DB fetch, updates Redis with a 1h TTL unless the counter was
//     invalidated while counting.
func (s *Service) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	s.appCtx.Logger.Debug("UnreadCount called", "user", userID)

	key := cache.KeyForUnreadNotifications(userID)
	if n, ok, err := s.appCtx.RedisCache.GetCount(ctx, key); err == nil && ok {
		metrics.CacheLookup("notifications", true)
		return n, nil
	} else if err != nil {
		s.appCtx.Logger.Warn("unread cache read failed", "key", key, "err", err)
	}
	metrics.CacheLookup("notifications", false)

	// read before counting so a concurrent invalidation voids our fill
	version, verr := s.appCtx.RedisCache.Version(ctx, key)
	if verr != nil {
		s.appCtx.Logger.Warn("unread cache version read failed", "key", key, "err", verr)
	}

	count, err := s.notificationRepo.CountUnread(ctx, userID)
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

// MarkRead flags one of the user's notifications as read. Notifications
// that do not exist or belong to someone else report false, not an error.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID uint64) (bool, error) {
	s.appCtx.Logger.Debug("MarkRead called", "user", userID, "notification", notificationID)

	ok, err := s.notificationRepo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		s.appCtx.Logger.Error("MarkRead failed", "user", userID, "err", err, "code", svcErr.Code(err))
		return false, err
	}
	if ok {
		s.Invalidate(ctx, userID)
	}
	return ok, nil
}

// MarkAllRead flags every unread notification of the user. Always true
// unless storage fails.
func (s *Service) MarkAllRead(ctx context.Context, userID uint64) (bool, error) {
	s.appCtx.Logger.Debug("MarkAllRead called", "user", userID)

	changed, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Error("MarkAllRead failed", "user", userID, "err", err, "code", svcErr.Code(err))
		return false, err
	}
	s.Invalidate(ctx, userID)

	s.appCtx.Logger.Debug("MarkAllRead result", "user", userID, "changed", changed)
	return true, nil
}
