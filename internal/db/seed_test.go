package db_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/social-graph/internal/db"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(database))
	return database
}

func TestSeedMinimalTestData(t *testing.T) {
	gdb := setupTestDB(t)

	require.NoError(t, db.SeedMinimalTestData(gdb))
	// second run starts from a clean slate
	require.NoError(t, db.SeedMinimalTestData(gdb))

	var accounts, posts, follows int64
	gdb.Model(&db.Account{}).Count(&accounts)
	gdb.Model(&db.Post{}).Count(&posts)
	gdb.Model(&db.Follow{}).Count(&follows)
	assert.Equal(t, int64(3), accounts)
	assert.Equal(t, int64(2), posts)
	assert.Equal(t, int64(1), follows)
}

func TestSeedTestData_CountersMatchJoinRows(t *testing.T) {
	gdb := setupTestDB(t)

	require.NoError(t, db.SeedTestData(gdb))

	var posts []db.Post
	require.NoError(t, gdb.Find(&posts).Error)
	require.NotEmpty(t, posts)

	for _, p := range posts {
		var likes, comments int64
		gdb.Model(&db.Like{}).Where("post_id = ?", p.ID).Count(&likes)
		gdb.Model(&db.Comment{}).Where("post_id = ? AND active = ?", p.ID, true).Count(&comments)
		assert.Equal(t, likes, p.LikeCount, "post %d like_count", p.ID)
		assert.Equal(t, comments, p.CommentCount, "post %d comment_count", p.ID)
	}

	var selfFollows int64
	gdb.Model(&db.Follow{}).Where("follower_id = following_id").Count(&selfFollows)
	assert.Zero(t, selfFollows)
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite", ""} {
		d, err := db.Dialector(driver, "x")
		assert.NoError(t, err, driver)
		assert.NotNil(t, d)
	}

	_, err := db.Dialector("oracle", "x")
	assert.Error(t, err)
}
