package graph

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/social-graph/internal/app"
	"github.com/oggyb/social-graph/internal/db"
	svcErr "github.com/oggyb/social-graph/internal/errors"
	"github.com/oggyb/social-graph/internal/metrics"
	"github.com/oggyb/social-graph/internal/repository"
	"github.com/oggyb/social-graph/internal/service/notify"
)

const msgFollowed = "started following you"

// Service maintains the directed follow graph.
type Service struct {
	appCtx      *app.AppContext
	accountRepo *repository.AccountRepository
	followRepo  *repository.FollowRepository
	notifier    *notify.Service
}

func NewGraphService(appCtx *app.AppContext, notifier *notify.Service) *Service {
	return &Service{
		appCtx:      appCtx,
		accountRepo: repository.NewAccountRepository(appCtx.DB),
		followRepo:  repository.NewFollowRepository(appCtx.DB),
		notifier:    notifier,
	}
}

// Follow adds the edge follower → following.
//
// Behavior:
//   - follower == following → ErrInvalidOperation.
//   - either account unknown → ErrNotFound.
//   - edge already present → (false, nil).
//   - otherwise the edge and a "follow" notification to the followee are
//     written in one transaction.
func (s *Service) Follow(ctx context.Context, followerID, followingID uint64) (bool, error) {
	s.appCtx.Logger.Debug("Follow called", "follower", followerID, "following", followingID)

	if followerID == followingID {
		return false, svcErr.InvalidOperation("account %d cannot follow itself", followerID)
	}

	var applied bool
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts := s.accountRepo.WithTx(tx)
		if _, err := accounts.ResolveByID(ctx, followerID); err != nil {
			return err
		}
		if _, err := accounts.ResolveByID(ctx, followingID); err != nil {
			return err
		}

		var err error
		applied, err = s.followRepo.WithTx(tx).Insert(ctx, followerID, followingID)
		if err != nil || !applied {
			return err
		}
		_, err = s.notifier.WithTx(tx).Emit(ctx, followingID, followerID, msgFollowed, db.NotifyFollow, nil, nil)
		return err
	})
	metrics.Action("follow", applied, err)
	if err != nil {
		s.appCtx.Logger.Error("Follow failed", "follower", followerID, "following", followingID, "err", err, "code", svcErr.Code(err))
		return false, err
	}
	if applied {
		s.notifier.Invalidate(ctx, followingID)
	}
	return applied, nil
}

// Unfollow removes the edge if present. It reports true whether or not an
// edge existed; only storage errors fail.
func (s *Service) Unfollow(ctx context.Context, followerID, followingID uint64) (bool, error) {
	s.appCtx.Logger.Debug("Unfollow called", "follower", followerID, "following", followingID)

	removed, err := s.followRepo.Delete(ctx, followerID, followingID)
	metrics.Action("unfollow", removed, err)
	if err != nil {
		s.appCtx.Logger.Error("Unfollow failed", "follower", followerID, "following", followingID, "err", err, "code", svcErr.Code(err))
		return false, err
	}
	return true, nil
}

// Followers returns the accounts following userID.
func (s *Service) Followers(ctx context.Context, userID uint64) ([]db.Account, error) {
	s.appCtx.Logger.Debug("Followers called", "user", userID)

	ids, err := s.followRepo.FollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.accountRepo.FindByIDs(ctx, ids)
}

// Following returns the accounts userID follows.
func (s *Service) Following(ctx context.Context, userID uint64) ([]db.Account, error) {
	s.appCtx.Logger.Debug("Following called", "user", userID)

	ids, err := s.followRepo.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.accountRepo.FindByIDs(ctx, ids)
}

func (s *Service) IsFollowing(ctx context.Context, followerID, followingID uint64) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followingID)
}

// FollowerCount and FollowingCount are live queries; follows carry no
// denormalized counter.
func (s *Service) FollowerCount(ctx context.Context, userID uint64) (int64, error) {
	return s.followRepo.CountFollowers(ctx, userID)
}

func (s *Service) FollowingCount(ctx context.Context, userID uint64) (int64, error) {
	return s.followRepo.CountFollowing(ctx, userID)
}
