package db

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

type PostType string

const (
	PostText  PostType = "text"
	PostImage PostType = "image"
	PostVideo PostType = "video"
	PostLink  PostType = "link"
)

type PostPrivacy string

const (
	PrivacyPublic  PostPrivacy = "public"
	PrivacyFriends PostPrivacy = "friends"
	PrivacyPrivate PostPrivacy = "private"
)

type NotificationType string

const (
	NotifyLike      NotificationType = "like"
	NotifyComment   NotificationType = "comment"
	NotifyFollow    NotificationType = "follow"
	NotifyMention   NotificationType = "mention"
	NotifyPostShare NotificationType = "post_share"
)

// Account table.
//
// Active is a soft-disable flag. Disabling an account never touches its
// posts; feed queries hide inactive authors instead.
//
// Note: gorm skips zero values for columns with a default, so an account
// created with Active=false is stored active. Use AccountRepository.SetActive.
type Account struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Handle       string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	FirstName    string `gorm:"size:100"`
	LastName     string `gorm:"size:100"`
	Bio          string `gorm:"size:500"`
	AvatarURL    string `gorm:"size:512"`
	CoverURL     string `gorm:"size:512"`
	Role         Role   `gorm:"size:16;not null;default:'user'"`
	Active       bool   `gorm:"not null;default:true;index"`
	Verified     bool   `gorm:"not null;default:false"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Post table.
//
// LikeCount and CommentCount are denormalized from likes / active comments.
// They are only ever changed by SQL deltas inside the transaction that
// writes the matching join row, never by read-modify-write.
type Post struct {
	ID           uint64      `gorm:"primaryKey;autoIncrement"`
	AccountID    uint64      `gorm:"not null;index:idx_posts_account_created,priority:1"`
	Content      string      `gorm:"type:text"`
	Type         PostType    `gorm:"size:16;not null"`
	Privacy      PostPrivacy `gorm:"size:16;not null"`
	MediaURL     string      `gorm:"size:512"`
	Location     string      `gorm:"size:255"`
	LikeCount    int64       `gorm:"not null;default:0;index;check:chk_posts_like_count,like_count >= 0"`
	CommentCount int64       `gorm:"not null;default:0;check:chk_posts_comment_count,comment_count >= 0"`
	ShareCount   int64       `gorm:"not null;default:0;check:chk_posts_share_count,share_count >= 0"`
	Active       bool        `gorm:"not null;default:true;index"`
	CreatedAt    time.Time   `gorm:"autoCreateTime;index;index:idx_posts_account_created,priority:2"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime"`
}

// Like represents an account's like on a post.
//
// Composite PK: (AccountID, PostID) – at most one like per pair, which is
// what makes concurrent likes collapse into a single row.
// Unlike is a hard delete.
type Like struct {
	AccountID uint64    `gorm:"primaryKey;autoIncrement:false"`
	PostID    uint64    `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Comment on a post. ParentID is nil for top-level comments; when set, the
// parent belongs to the same post (checked on write).
type Comment struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	PostID    uint64    `gorm:"not null;index:idx_comments_post_parent,priority:1"`
	AccountID uint64    `gorm:"not null;index"`
	ParentID  *uint64   `gorm:"index;index:idx_comments_post_parent,priority:2"`
	Content   string    `gorm:"type:text;not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Follow is a directed edge follower -> following.
//
// Composite PK: (FollowerID, FollowingID). Self edges are rejected by a
// check constraint as well as by the service.
type Follow struct {
	FollowerID  uint64    `gorm:"primaryKey;autoIncrement:false;check:chk_follows_not_self,follower_id <> following_id"`
	FollowingID uint64    `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Notification rows are append-only; only IsRead ever changes.
type Notification struct {
	ID          uint64           `gorm:"primaryKey;autoIncrement"`
	RecipientID uint64           `gorm:"not null;index:idx_notifications_recipient_read,priority:1"`
	ActorID     uint64           `gorm:"not null"`
	Message     string           `gorm:"size:255;not null"`
	Type        NotificationType `gorm:"size:16;not null"`
	PostID      *uint64
	CommentID   *uint64
	IsRead      bool      `gorm:"not null;default:false;index:idx_notifications_recipient_read,priority:2"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
}

// Message is a direct message. Immutable once sent except for IsRead.
type Message struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	SenderID   uint64    `gorm:"not null;index:idx_messages_pair,priority:1"`
	ReceiverID uint64    `gorm:"not null;index:idx_messages_pair,priority:2;index:idx_messages_receiver_read,priority:1"`
	Content    string    `gorm:"type:text;not null"`
	IsRead     bool      `gorm:"not null;default:false;index:idx_messages_receiver_read,priority:2"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&Account{},
		&Post{},
		&Like{},
		&Comment{},
		&Follow{},
		&Notification{},
		&Message{},
	}
}
