package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"gorm.io/gorm"

	"github.com/oggyb/social-graph/internal/cache"
	"github.com/oggyb/social-graph/internal/db"
	svcErr "github.com/oggyb/social-graph/internal/errors"
	"github.com/oggyb/social-graph/internal/service/notify"
	"github.com/oggyb/social-graph/internal/testutil"
)

func TestEmitAndRead(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	fx := testutil.NewFixtures(t, appCtx.DB)
	svc := notify.NewNotifyService(appCtx)

	a := fx.Account("alice")
	b := fx.Account("bob")
	p := fx.Post(a.ID, "post")

	first, err := svc.Emit(ctx, a.ID, b.ID, "liked your post", db.NotifyLike, &p.ID, nil)
	require.NoError(t, err)
	assert.False(t, first.IsRead)
	_, err = svc.Emit(ctx, a.ID, b.ID, "started following you", db.NotifyFollow, nil, nil)
	require.NoError(t, err)

	all, err := svc.ListForUser(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, db.NotifyFollow, all[0].Type, "newest first")

	n, err := svc.UnreadCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ok, err := svc.MarkRead(ctx, b.ID, first.ID)
	require.NoError(t, err)
	assert.False(t, ok, "not bob's notification")

	ok, err = svc.MarkRead(ctx, a.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	unread, err := svc.ListUnread(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	n, err = svc.UnreadCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = svc.MarkAllRead(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.MarkAllRead(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok, "no-op still succeeds")

	n, err = svc.UnreadCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUnreadCount_CacheFirst(t *testing.T) {
	ctx := context.Background()
	appCtx, mr := testutil.NewAppContext(t)
	fx := testutil.NewFixtures(t, appCtx.DB)
	svc := notify.NewNotifyService(appCtx)

	a := fx.Account("alice")
	b := fx.Account("bob")
	key := cache.KeyForUnreadNotifications(a.ID)

	_, err := svc.Emit(ctx, a.ID, b.ID, "liked your post", db.NotifyLike, nil, nil)
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))

	n, err := svc.UnreadCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	// cached value wins over the DB until invalidated
	require.NoError(t, mr.Set(key, "5"))
	n, err = svc.UnreadCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	_, err = svc.Emit(ctx, a.ID, b.ID, "commented on your post", db.NotifyComment, nil, nil)
	require.NoError(t, err)
	assert.False(t, mr.Exists(key), "emit invalidates")

	n, err = svc.UnreadCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	got, err = mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "2", got, "fill after invalidation is kept")
}

func TestUnreadCount_RedisDownFallsBackToDB(t *testing.T) {
	ctx := context.Background()
	appCtx, mr := testutil.NewAppContext(t)
	fx := testutil.NewFixtures(t, appCtx.DB)
	svc := notify.NewNotifyService(appCtx)

	a := fx.Account("alice")
	b := fx.Account("bob")
	_, err := svc.Emit(ctx, a.ID, b.ID, "liked your post", db.NotifyLike, nil, nil)
	require.NoError(t, err)

	mr.SetError("ERR redis is down")

	n, err := svc.UnreadCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestEmitWithTx_RollsBack(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	fx := testutil.NewFixtures(t, appCtx.DB)
	svc := notify.NewNotifyService(appCtx)

	a := fx.Account("alice")
	b := fx.Account("bob")

	err := appCtx.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.WithTx(tx).Emit(ctx, a.ID, b.ID, "liked your post", db.NotifyLike, nil, nil); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	all, err := svc.ListForUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListPage(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	fx := testutil.NewFixtures(t, appCtx.DB)
	svc := notify.NewNotifyService(appCtx)

	a := fx.Account("alice")
	b := fx.Account("bob")
	var emitted []uint64
	for i := 0; i < 7; i++ {
		n, err := svc.Emit(ctx, a.ID, b.ID, "liked your post", db.NotifyLike, nil, nil)
		require.NoError(t, err)
		emitted = append(emitted, n.ID)
	}

	items, next, err := svc.ListPage(ctx, a.ID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, items, 7, "default limit covers everything")
	assert.Nil(t, next)

	// walk in pages of 3: 3 + 3 + 1
	var walked []uint64
	var token *string
	var sizes []int
	for {
		items, next, err := svc.ListPage(ctx, a.ID, token, 3)
		require.NoError(t, err)
		sizes = append(sizes, len(items))
		for _, n := range items {
			walked = append(walked, n.ID)
		}
		if next == nil {
			break
		}
		token = next
	}
	assert.Equal(t, []int{3, 3, 1}, sizes)
	require.Len(t, walked, len(emitted))
	for i, id := range walked {
		assert.Equal(t, emitted[len(emitted)-1-i], id, "newest first")
	}

	// other recipients never leak into the page
	others, next, err := svc.ListPage(ctx, b.ID, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, others)
	assert.Nil(t, next)
}

func TestListPage_LimitIsCapped(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	fx := testutil.NewFixtures(t, appCtx.DB)
	svc := notify.NewNotifyService(appCtx)

	a := fx.Account("alice")
	b := fx.Account("bob")
	rows := make([]db.Notification, 0, 105)
	for i := 0; i < 105; i++ {
		rows = append(rows, db.Notification{RecipientID: a.ID, ActorID: b.ID, Message: "liked your post", Type: db.NotifyLike})
	}
	require.NoError(t, appCtx.DB.Create(&rows).Error)

	items, next, err := svc.ListPage(ctx, a.ID, nil, 500)
	require.NoError(t, err)
	assert.Len(t, items, 100)
	require.NotNil(t, next)

	rest, next, err := svc.ListPage(ctx, a.ID, next, 500)
	require.NoError(t, err)
	assert.Len(t, rest, 5)
	assert.Nil(t, next)
}

func TestListPage_Errors(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	fx := testutil.NewFixtures(t, appCtx.DB)
	svc := notify.NewNotifyService(appCtx)
	a := fx.Account("alice")

	bad := "%%%"
	_, _, err := svc.ListPage(ctx, a.ID, &bad, 10)
	assert.ErrorIs(t, err, svcErr.ErrInvalidOperation)

	sqlDB, err := appCtx.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, _, err = svc.ListPage(ctx, a.ID, nil, 10)
	require.Error(t, err)
	assert.NotErrorIs(t, err, svcErr.ErrInvalidOperation)
	assert.Equal(t, codes.Internal, svcErr.Code(err))
}
