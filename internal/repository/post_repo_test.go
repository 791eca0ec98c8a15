package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/oggyb/social-graph/internal/errors"
	"github.com/oggyb/social-graph/internal/repository"
	"github.com/oggyb/social-graph/internal/testutil"
	"github.com/oggyb/social-graph/internal/utils/pagination"
)

func TestPostCounters_FloorAtZero(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.OpenDB(t)
	fx := testutil.NewFixtures(t, gdb)
	repo := repository.NewPostRepository(gdb)

	a := fx.Account("alice")
	p := fx.Post(a.ID, "counted")

	require.NoError(t, repo.IncrementLikes(ctx, p.ID))
	require.NoError(t, repo.IncrementLikes(ctx, p.ID))
	require.NoError(t, repo.IncrementComments(ctx, p.ID))
	got := fx.Reload(p)
	assert.Equal(t, int64(2), got.LikeCount)
	assert.Equal(t, int64(1), got.CommentCount)

	for i := 0; i < 4; i++ {
		require.NoError(t, repo.DecrementLikes(ctx, p.ID))
		require.NoError(t, repo.DecrementComments(ctx, p.ID))
	}
	got = fx.Reload(p)
	assert.Zero(t, got.LikeCount)
	assert.Zero(t, got.CommentCount)
}

func TestPostFindByID_HidesSoftDeleted(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.OpenDB(t)
	fx := testutil.NewFixtures(t, gdb)
	repo := repository.NewPostRepository(gdb)

	a := fx.Account("alice")
	p := fx.Post(a.ID, "soon gone")

	ok, err := repo.SoftDelete(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SoftDelete(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.FindByID(ctx, p.ID)
	assert.True(t, errors.Is(err, svcErr.ErrNotFound))
}

func TestPostFeeds_VisibilityAndOrder(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.OpenDB(t)
	fx := testutil.NewFixtures(t, gdb)
	repo := repository.NewPostRepository(gdb)
	req := pagination.Request{Page: 0, Size: 10}

	base := time.Now().UTC().Truncate(time.Second)
	alice := fx.Account("alice")
	bob := fx.Account("bob")
	ghost := fx.InactiveAccount("ghost")

	old := fx.PostAt(alice.ID, "old", base.Add(-2*time.Hour))
	mid := fx.PostAt(bob.ID, "mid", base.Add(-time.Hour))
	fresh := fx.PostAt(alice.ID, "fresh", base)
	fx.PostAt(ghost.ID, "from a disabled account", base)
	fx.DeletedPost(bob.ID, "deleted")

	posts, total, err := repo.Explore(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, posts, 3)
	assert.Equal(t, []uint64{fresh.ID, mid.ID, old.ID}, []uint64{posts[0].ID, posts[1].ID, posts[2].ID})

	posts, total, err = repo.ByAuthor(ctx, alice.ID, req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, fresh.ID, posts[0].ID)

	posts, total, err = repo.ByAuthor(ctx, ghost.ID, req)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, posts)
}

func TestPostHomeFeed_FollowedAndSelf(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.OpenDB(t)
	fx := testutil.NewFixtures(t, gdb)
	repo := repository.NewPostRepository(gdb)

	alice := fx.Account("alice")
	bob := fx.Account("bob")
	carol := fx.Account("carol")
	fx.Follow(alice.ID, bob.ID)
	fx.Follow(carol.ID, alice.ID)

	own := fx.Post(alice.ID, "mine")
	followed := fx.Post(bob.ID, "bob's")
	fx.Post(carol.ID, "carol follows alice, not the other way")

	posts, total, err := repo.HomeFeed(ctx, alice.ID, pagination.Request{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	ids := []uint64{}
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []uint64{own.ID, followed.ID}, ids)
}

func TestPostTrending_Paged(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.OpenDB(t)
	fx := testutil.NewFixtures(t, gdb)
	repo := repository.NewPostRepository(gdb)

	a := fx.Account("alice")
	for i, likes := range []int64{3, 9, 0, 5, 7, 1} {
		fx.PostWithLikes(a.ID, "p"+string(rune('a'+i)), likes)
	}

	first, total, err := repo.Trending(ctx, pagination.Request{Page: 0, Size: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	second, _, err := repo.Trending(ctx, pagination.Request{Page: 1, Size: 3})
	require.NoError(t, err)

	require.Len(t, first, 3)
	require.Len(t, second, 3)
	assert.Equal(t, int64(9), first[0].LikeCount)
	assert.GreaterOrEqual(t, first[2].LikeCount, second[0].LikeCount)
}

func TestPostSearch_LiteralAndCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.OpenDB(t)
	fx := testutil.NewFixtures(t, gdb)
	repo := repository.NewPostRepository(gdb)
	req := pagination.Request{Page: 0, Size: 10}

	a := fx.Account("alice")
	hit := fx.Post(a.ID, "Going to the BEACH today")
	pct := fx.Post(a.ID, "battery at 100% again")
	fx.Post(a.ID, "battery at 1000 again")
	under := fx.Post(a.ID, "snake_case wins")
	fx.Post(a.ID, "snakeXcase loses")

	posts, _, err := repo.Search(ctx, "beach", req)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, hit.ID, posts[0].ID)

	posts, _, err = repo.Search(ctx, "100%", req)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, pct.ID, posts[0].ID)

	posts, _, err = repo.Search(ctx, "snake_case", req)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, under.ID, posts[0].ID)
}

func TestPostSearch_QueryAndContentFoldAlike(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.OpenDB(t)
	fx := testutil.NewFixtures(t, gdb)
	repo := repository.NewPostRepository(gdb)
	req := pagination.Request{Page: 0, Size: 10}

	a := fx.Account("alice")
	upper := fx.Post(a.ID, "ÉCOLE ouverte")
	mixed := fx.Post(a.ID, "Café CRÈME")

	posts, _, err := repo.Search(ctx, "ÉCOLE", req)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, upper.ID, posts[0].ID)

	// ASCII letters fold on every dialect
	posts, _, err = repo.Search(ctx, "CAFé CRÈME", req)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, mixed.ID, posts[0].ID)
}

func TestPostActiveIDsAfter_Batches(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.OpenDB(t)
	fx := testutil.NewFixtures(t, gdb)
	repo := repository.NewPostRepository(gdb)

	a := fx.Account("alice")
	p1 := fx.Post(a.ID, "one")
	fx.DeletedPost(a.ID, "gone")
	p3 := fx.Post(a.ID, "three")
	p4 := fx.Post(a.ID, "four")

	first, err := repo.ActiveIDsAfter(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{p1.ID, p3.ID}, first)

	second, err := repo.ActiveIDsAfter(ctx, first[len(first)-1], 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{p4.ID}, second)

	none, err := repo.ActiveIDsAfter(ctx, p4.ID, 2)
	require.NoError(t, err)
	assert.Empty(t, none)
}
