package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a per-user label. NameKey holds the lower-cased name and backs
// the case-insensitive uniqueness of names per owner.
type Category struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	UserID    uuid.UUID `json:"userId" db:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_category_owner_name,priority:1"`
	Name      string    `json:"name" db:"name" gorm:"type:text;not null"`
	NameKey   string    `json:"-" db:"name_key" gorm:"type:text;not null;uniqueIndex:idx_category_owner_name,priority:2"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CategoryNameKey normalises a category name for uniqueness checks.
func CategoryNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Name = strings.TrimSpace(c.Name)
	c.NameKey = CategoryNameKey(c.Name)
	return nil
}

// BlogPostCategory is a row of the post/category join table.
type BlogPostCategory struct {
	BlogPostID uuid.UUID `db:"blog_post_id" gorm:"type:uuid;primaryKey"`
	CategoryID uuid.UUID `db:"category_id" gorm:"type:uuid;primaryKey;index:idx_blog_post_category_category"`
}

func (BlogPostCategory) TableName() string { return "blog_post_categories" }
