// Package testutil wires in-memory SQLite and miniredis for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/social-graph/internal/app"
	"github.com/oggyb/social-graph/internal/cache"
	"github.com/oggyb/social-graph/internal/config"
	"github.com/oggyb/social-graph/internal/db"
	applog "github.com/oggyb/social-graph/internal/logger"
)

// OpenDB returns a migrated in-memory database private to the test.
//
// The pool is capped at one connection, so concurrent callers queue on it.
// Anything running inside a transaction must go through the tx handle or it
// will wait forever for the connection the tx holds.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// OpenRedis starts a miniredis and a cache client pointed at it.
func OpenRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

// NewAppContext builds an AppContext over fresh in-memory stores.
func NewAppContext(t *testing.T) (*app.AppContext, *miniredis.Miniredis) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Feed.DefaultPageSize = 20
	cfg.Feed.MaxPageSize = 100

	rc, mr := OpenRedis(t)
	return app.New(cfg, OpenDB(t), rc, applog.Discard()), mr
}
