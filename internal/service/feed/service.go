package feed

import (
	"context"
	"strings"
	"time"

	"github.com/oggyb/social-graph/internal/app"
	"github.com/oggyb/social-graph/internal/db"
	svcErr "github.com/oggyb/social-graph/internal/errors"
	"github.com/oggyb/social-graph/internal/metrics"
	"github.com/oggyb/social-graph/internal/repository"
	"github.com/oggyb/social-graph/internal/utils/pagination"
)

// Feed kinds, used as the metrics label.
const (
	FeedHome     = "home"
	FeedExplore  = "explore"
	FeedTrending = "trending"
	FeedAuthor   = "author"
	FeedSearch   = "search"
)

// Service assembles paginated post feeds. Reads are point-in-time snapshots
// and take no locks.
//
// Every feed hides inactive posts and posts whose author is inactive.
type Service struct {
	appCtx      *app.AppContext
	accountRepo *repository.AccountRepository
	postRepo    *repository.PostRepository
}

func NewFeedService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		accountRepo: repository.NewAccountRepository(appCtx.DB),
		postRepo:    repository.NewPostRepository(appCtx.DB),
	}
}

type pageQuery func(ctx context.Context, req pagination.Request) ([]db.Post, int64, error)

// HomeFeed pages userID's own posts and those of every account userID
// follows, newest first. Unknown users fail with ErrNotFound.
func (s *Service) HomeFeed(ctx context.Context, userID uint64, page, size int) (pagination.Page[db.Post], error) {
	s.appCtx.Logger.Debug("HomeFeed called", "user", userID, "page", page, "size", size)

	if _, err := s.accountRepo.ResolveByID(ctx, userID); err != nil {
		return pagination.Page[db.Post]{}, err
	}
	return s.run(ctx, FeedHome, page, size, func(ctx context.Context, req pagination.Request) ([]db.Post, int64, error) {
		return s.postRepo.HomeFeed(ctx, userID, req)
	})
}

// ExploreFeed pages every visible post, newest first.
func (s *Service) ExploreFeed(ctx context.Context, page, size int) (pagination.Page[db.Post], error) {
	s.appCtx.Logger.Debug("ExploreFeed called", "page", page, "size", size)
	return s.run(ctx, FeedExplore, page, size, s.postRepo.Explore)
}

// Trending pages visible posts by like count, highest first. The order of
// posts with equal counts is unspecified.
func (s *Service) Trending(ctx context.Context, page, size int) (pagination.Page[db.Post], error) {
	s.appCtx.Logger.Debug("Trending called", "page", page, "size", size)
	return s.run(ctx, FeedTrending, page, size, s.postRepo.Trending)
}

// ByAuthor pages one author's visible posts, newest first.
func (s *Service) ByAuthor(ctx context.Context, authorID uint64, page, size int) (pagination.Page[db.Post], error) {
	s.appCtx.Logger.Debug("ByAuthor called", "author", authorID, "page", page, "size", size)

	if _, err := s.accountRepo.ResolveByID(ctx, authorID); err != nil {
		return pagination.Page[db.Post]{}, err
	}
	return s.run(ctx, FeedAuthor, page, size, func(ctx context.Context, req pagination.Request) ([]db.Post, int64, error) {
		return s.postRepo.ByAuthor(ctx, authorID, req)
	})
}

// Search pages visible posts whose content contains query, ignoring case.
// The query is matched literally; % and _ are not wildcards.
func (s *Service) Search(ctx context.Context, query string, page, size int) (pagination.Page[db.Post], error) {
	s.appCtx.Logger.Debug("Search called", "query", query, "page", page, "size", size)

	query = strings.TrimSpace(query)
	return s.run(ctx, FeedSearch, page, size, func(ctx context.Context, req pagination.Request) ([]db.Post, int64, error) {
		return s.postRepo.Search(ctx, query, req)
	})
}

func (s *Service) run(ctx context.Context, feed string, page, size int, q pageQuery) (pagination.Page[db.Post], error) {
	defer metrics.ObserveFeed(feed, time.Now())

	req := pagination.Normalize(page, size, s.appCtx.Config.Feed.DefaultPageSize, s.appCtx.Config.Feed.MaxPageSize)
	posts, total, err := q(ctx, req)
	if err != nil {
		s.appCtx.Logger.Error("feed query failed", "feed", feed, "err", err, "code", svcErr.Code(err))
		return pagination.Page[db.Post]{}, err
	}

	s.appCtx.Logger.Debug("feed result", "feed", feed, "items", len(posts), "total", total)
	return pagination.New(posts, req, total), nil
}
