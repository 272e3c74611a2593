package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rpupo63/verbavista-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// tickingClock hands out strictly increasing timestamps so ordering by
// updated_at is deterministic.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) Database {
	t.Helper()

	clock := &tickingClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: clock.Now,
		Logger:  logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	database := New(db)
	if err := database.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func createTestUser(t *testing.T, d Database, email string) *models.User {
	t.Helper()

	user := &models.User{Name: "Test " + email, Email: email, PasswordHash: "hash"}
	if err := d.UserRepo().Add(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

func createTestPost(t *testing.T, d Database, userID uuid.UUID, in BlogPostInput) *models.BlogPost {
	t.Helper()

	post, err := d.BlogPostRepo().Add(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("failed to create post %q: %v", in.Title, err)
	}
	return post
}

func createTestCategory(t *testing.T, d Database, userID uuid.UUID, name string) *models.Category {
	t.Helper()

	category, err := d.CategoryRepo().Add(context.Background(), userID, name)
	if err != nil {
		t.Fatalf("failed to create category %q: %v", name, err)
	}
	return category
}

func titles(posts []*models.BlogPost) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
