package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/social-graph/internal/repository"
	"github.com/oggyb/social-graph/internal/testutil"
)

func TestLikeInsertDelete(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.OpenDB(t)
	fx := testutil.NewFixtures(t, gdb)
	repo := repository.NewLikeRepository(gdb)

	a := fx.Account("alice")
	p := fx.Post(a.ID, "like me")

	ok, err := repo.Insert(ctx, a.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// duplicate pair is a no-op
	ok, err = repo.Insert(ctx, a.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repo.CountForPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	liked, err := repo.Exists(ctx, a.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	likes, err := repo.ListForPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, likes, 1)

	ok, err = repo.Delete(ctx, a.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, a.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
