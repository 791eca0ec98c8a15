package db

import (
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/social-graph/internal/logger"
)

// tables in delete order (children first).
var seedTables = []string{"messages", "notifications", "follows", "comments", "likes", "posts", "accounts"}

var seedLines = []string{
	"hello world",
	"first day on the new job",
	"Coffee first, code later",
	"anyone up for a run tomorrow?",
	"shipping a release tonight",
	"the sunset today was unreal",
	"reading list for the weekend",
	"Hot take: tabs are fine",
}

// SeedTestData resets the database and populates it with a demo graph.
//
// Behavior:
//  1. Clears every table, children first.
//  2. Creates 20 accounts with bcrypt password hashes.
//  3. Gives each account a few posts, ~6 follows, random likes and comments.
//  4. Exchanges a handful of direct messages.
//  5. Recomputes post counters from the join tables so they start consistent.
//
// Works on MySQL, Postgres and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := clearTables(db); err != nil {
		return err
	}
	logger.Info("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	const accountCount = 20
	accounts := make([]Account, 0, accountCount)
	for i := 1; i <= accountCount; i++ {
		last := time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour)
		accounts = append(accounts, Account{
			Handle:       fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			FirstName:    "User",
			LastName:     fmt.Sprintf("%d", i),
			Role:         RoleUser,
			Active:       true,
			Verified:     i%4 == 0,
			LastLoginAt:  &last,
		})
	}
	if err := db.Create(&accounts).Error; err != nil {
		return fmt.Errorf("failed to seed accounts: %w", err)
	}
	logger.Info("seeded accounts", "count", len(accounts))

	var posts []Post
	for _, a := range accounts {
		for j := 0; j < 1+r.Intn(4); j++ {
			posts = append(posts, Post{
				AccountID: a.ID,
				Content:   seedLines[r.Intn(len(seedLines))],
				Type:      PostText,
				Privacy:   PrivacyPublic,
			})
		}
	}
	if err := db.Create(&posts).Error; err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	for _, a := range accounts {
		for j := 0; j < 6; j++ {
			target := accounts[r.Intn(len(accounts))]
			if target.ID == a.ID {
				continue
			}
			edge := Follow{FollowerID: a.ID, FollowingID: target.ID}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
				return fmt.Errorf("failed to seed follow: %w", err)
			}
		}
	}

	for _, p := range posts {
		for _, a := range accounts {
			// like probability 30%
			if r.Intn(100) >= 30 {
				continue
			}
			like := Like{AccountID: a.ID, PostID: p.ID}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}
		}
		if r.Intn(2) == 0 {
			c := Comment{
				PostID:    p.ID,
				AccountID: accounts[r.Intn(len(accounts))].ID,
				Content:   "nice one",
			}
			if err := db.Create(&c).Error; err != nil {
				return fmt.Errorf("failed to seed comment: %w", err)
			}
		}
	}

	for i := 0; i < 30; i++ {
		from := accounts[r.Intn(len(accounts))]
		to := accounts[r.Intn(len(accounts))]
		if from.ID == to.ID {
			continue
		}
		m := Message{SenderID: from.ID, ReceiverID: to.ID, Content: fmt.Sprintf("ping #%d", i)}
		if err := db.Create(&m).Error; err != nil {
			return fmt.Errorf("failed to seed message: %w", err)
		}
	}

	if err := RecountPosts(db); err != nil {
		return err
	}
	logger.Info("seeded demo graph", "posts", len(posts))
	return nil
}

// SeedMinimalTestData inserts a small deterministic dataset:
//
//   - accounts alice(1), bob(2), carol(3)
//   - alice follows bob
//   - bob posts "hello", carol posts "carol here"
//   - alice sends bob "hi"
func SeedMinimalTestData(db *gorm.DB) error {
	if err := clearTables(db); err != nil {
		return err
	}

	accounts := []Account{
		{ID: 1, Handle: "alice", Email: "alice@test.com", PasswordHash: "x", Role: RoleUser, Active: true},
		{ID: 2, Handle: "bob", Email: "bob@test.com", PasswordHash: "x", Role: RoleUser, Active: true},
		{ID: 3, Handle: "carol", Email: "carol@test.com", PasswordHash: "x", Role: RoleUser, Active: true},
	}
	if err := db.Create(&accounts).Error; err != nil {
		return err
	}

	posts := []Post{
		{ID: 1, AccountID: 2, Content: "hello", Type: PostText, Privacy: PrivacyPublic},
		{ID: 2, AccountID: 3, Content: "carol here", Type: PostText, Privacy: PrivacyPublic},
	}
	if err := db.Create(&posts).Error; err != nil {
		return err
	}

	if err := db.Create(&Follow{FollowerID: 1, FollowingID: 2}).Error; err != nil {
		return err
	}
	return db.Create(&Message{SenderID: 1, ReceiverID: 2, Content: "hi"}).Error
}

// RecountPosts rewrites every post's like and comment counters from the
// join tables.
func RecountPosts(db *gorm.DB) error {
	err := db.Exec(`
		UPDATE posts SET
			like_count = (SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id),
			comment_count = (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.active = ?)`,
		true,
	).Error
	if err != nil {
		return fmt.Errorf("failed to recount posts: %w", err)
	}
	return nil
}

func clearTables(db *gorm.DB) error {
	for _, t := range seedTables {
		if err := db.Exec("DELETE FROM " + t).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", t, err)
		}
	}

	// reset id sequences where the dialect keeps them; failures are harmless
	for _, t := range seedTables {
		switch db.Dialector.Name() {
		case "mysql":
			db.Exec("ALTER TABLE " + t + " AUTO_INCREMENT = 1")
		case "sqlite":
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", t)
		}
	}
	return nil
}
