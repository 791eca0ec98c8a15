package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/social-graph/internal/db"
)

// Fixtures inserts rows directly, bypassing services, so tests can set up
// state that services would refuse to create.
type Fixtures struct {
	t  *testing.T
	db *gorm.DB
}

func NewFixtures(t *testing.T, database *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: database}
}

// Account creates an active account with the given handle.
func (f *Fixtures) Account(handle string) *db.Account {
	f.t.Helper()
	a := &db.Account{
		Handle:       handle,
		Email:        handle + "@test.com",
		PasswordHash: "x",
		Role:         db.RoleUser,
	}
	require.NoError(f.t, f.db.Create(a).Error)
	return a
}

// InactiveAccount creates an account and soft-disables it.
func (f *Fixtures) InactiveAccount(handle string) *db.Account {
	f.t.Helper()
	a := f.Account(handle)
	f.Disable(a)
	return a
}

// Disable soft-disables an existing account.
func (f *Fixtures) Disable(a *db.Account) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(a).Update("active", false).Error)
	a.Active = false
}

// Post creates an active text post.
func (f *Fixtures) Post(authorID uint64, content string) *db.Post {
	f.t.Helper()
	return f.PostAt(authorID, content, time.Time{})
}

// PostAt creates a post with an explicit creation time. Zero means now.
func (f *Fixtures) PostAt(authorID uint64, content string, at time.Time) *db.Post {
	f.t.Helper()
	p := &db.Post{
		AccountID: authorID,
		Content:   content,
		Type:      db.PostText,
		Privacy:   db.PrivacyPublic,
		CreatedAt: at,
	}
	require.NoError(f.t, f.db.Create(p).Error)
	return p
}

// PostWithLikes creates a post and sets its like counter directly.
func (f *Fixtures) PostWithLikes(authorID uint64, content string, likes int64) *db.Post {
	f.t.Helper()
	p := f.Post(authorID, content)
	require.NoError(f.t, f.db.Model(p).UpdateColumn("like_count", likes).Error)
	p.LikeCount = likes
	return p
}

// DeletedPost creates a post and soft-deletes it.
func (f *Fixtures) DeletedPost(authorID uint64, content string) *db.Post {
	f.t.Helper()
	p := f.Post(authorID, content)
	require.NoError(f.t, f.db.Model(p).Update("active", false).Error)
	p.Active = false
	return p
}

func (f *Fixtures) Follow(followerID, followingID uint64) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&db.Follow{FollowerID: followerID, FollowingID: followingID}).Error)
}

// MessageAt stores a message with an explicit send time.
func (f *Fixtures) MessageAt(from, to uint64, content string, at time.Time) *db.Message {
	f.t.Helper()
	m := &db.Message{SenderID: from, ReceiverID: to, Content: content, CreatedAt: at}
	require.NoError(f.t, f.db.Create(m).Error)
	return m
}

// Reload re-reads a post including its counters.
func (f *Fixtures) Reload(p *db.Post) *db.Post {
	f.t.Helper()
	var out db.Post
	require.NoError(f.t, f.db.First(&out, "id = ?", p.ID).Error)
	return &out
}
