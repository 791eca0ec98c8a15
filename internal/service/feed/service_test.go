package feed_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/social-graph/internal/db"
	svcErr "github.com/oggyb/social-graph/internal/errors"
	"github.com/oggyb/social-graph/internal/service/feed"
	"github.com/oggyb/social-graph/internal/testutil"
)

func setupService(t *testing.T) (*feed.Service, *testutil.Fixtures) {
	t.Helper()
	appCtx, _ := testutil.NewAppContext(t)
	appCtx.Config.Feed.DefaultPageSize = 4
	appCtx.Config.Feed.MaxPageSize = 5
	return feed.NewFeedService(appCtx), testutil.NewFixtures(t, appCtx.DB)
}

func ids(posts []db.Post) []uint64 {
	out := make([]uint64, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestHomeFeed_Membership(t *testing.T) {
	ctx := context.Background()
	svc, fx := setupService(t)

	u := fx.Account("u")
	followed := fx.Account("followed")
	stranger := fx.Account("stranger")
	disabled := fx.Account("disabled")
	fx.Follow(u.ID, followed.ID)
	fx.Follow(u.ID, disabled.ID)
	fx.Follow(stranger.ID, u.ID)

	own := fx.Post(u.ID, "own")
	theirs := fx.Post(followed.ID, "theirs")
	fx.Post(stranger.ID, "stranger")
	fx.DeletedPost(followed.ID, "deleted")
	fx.Post(disabled.ID, "hidden once disabled")
	fx.Disable(disabled)

	page, err := svc.HomeFeed(ctx, u.ID, 0, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{own.ID, theirs.ID}, ids(page.Items))
	assert.Equal(t, int64(2), page.TotalElements)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrevious)

	_, err = svc.HomeFeed(ctx, 999, 0, 10)
	assert.True(t, errors.Is(err, svcErr.ErrNotFound))
}

func TestHomeFeed_Scenario(t *testing.T) {
	ctx := context.Background()
	svc, fx := setupService(t)

	a := fx.Account("a")
	b := fx.Account("b")
	fx.Follow(a.ID, b.ID)
	hello := fx.Post(b.ID, "hello")

	page, err := svc.HomeFeed(ctx, a.ID, 0, 10)
	require.NoError(t, err)
	assert.Contains(t, ids(page.Items), hello.ID)
}

func TestExploreFeed_PagingAndClamp(t *testing.T) {
	ctx := context.Background()
	svc, fx := setupService(t)

	a := fx.Account("a")
	base := time.Now().UTC().Truncate(time.Second)
	var posts []*db.Post
	for i := 0; i < 7; i++ {
		posts = append(posts, fx.PostAt(a.ID, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute)))
	}

	first, err := svc.ExploreFeed(ctx, -1, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Page)
	assert.Equal(t, []uint64{posts[6].ID, posts[5].ID, posts[4].ID}, ids(first.Items))
	assert.Equal(t, 3, first.TotalPages)
	assert.Equal(t, int64(7), first.TotalElements)
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrevious)

	last, err := svc.ExploreFeed(ctx, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint64{posts[0].ID}, ids(last.Items))
	assert.False(t, last.HasNext)
	assert.True(t, last.HasPrevious)

	capped, err := svc.ExploreFeed(ctx, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 5, capped.Size)
	assert.Len(t, capped.Items, 5)

	defaulted, err := svc.ExploreFeed(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, defaulted.Size)

	beyond, err := svc.ExploreFeed(ctx, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
}

func TestTrending_PagesAreOrderedByLikes(t *testing.T) {
	ctx := context.Background()
	svc, fx := setupService(t)

	a := fx.Account("a")
	for i, likes := range []int64{4, 0, 12, 4, 9, 1, 7, 4, 2} {
		fx.PostWithLikes(a.ID, fmt.Sprintf("p%d", i), likes)
	}

	var pages [][]db.Post
	for n := 0; n < 3; n++ {
		page, err := svc.Trending(ctx, n, 3)
		require.NoError(t, err)
		pages = append(pages, page.Items)
	}

	for n := range pages {
		items := pages[n]
		for i := 1; i < len(items); i++ {
			assert.GreaterOrEqual(t, items[i-1].LikeCount, items[i].LikeCount)
		}
		if n+1 < len(pages) && len(pages[n+1]) > 0 {
			assert.GreaterOrEqual(t, items[len(items)-1].LikeCount, pages[n+1][0].LikeCount,
				"page %d minimum must not be below page %d maximum", n, n+1)
		}
	}
	assert.Equal(t, int64(12), pages[0][0].LikeCount)
}

func TestByAuthor(t *testing.T) {
	ctx := context.Background()
	svc, fx := setupService(t)

	a := fx.Account("a")
	b := fx.Account("b")
	mine := fx.Post(a.ID, "mine")
	fx.Post(b.ID, "not mine")
	fx.DeletedPost(a.ID, "deleted")

	page, err := svc.ByAuthor(ctx, a.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{mine.ID}, ids(page.Items))

	_, err = svc.ByAuthor(ctx, 999, 0, 10)
	assert.True(t, errors.Is(err, svcErr.ErrNotFound))

	fx.Disable(a)
	page, err = svc.ByAuthor(ctx, a.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc, fx := setupService(t)

	a := fx.Account("a")
	ghost := fx.InactiveAccount("ghost")
	match := fx.Post(a.ID, "Weekend HIKE plans")
	fx.Post(a.ID, "nothing to see")
	fx.Post(ghost.ID, "hike with ghosts")
	fx.DeletedPost(a.ID, "deleted hike")

	page, err := svc.Search(ctx, "  hike ", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{match.ID}, ids(page.Items))

	page, err = svc.Search(ctx, "%", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items, "wildcards are literal")
}
