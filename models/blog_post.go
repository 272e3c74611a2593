package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostStatus is the publication state of a blog post.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// BlogPost represents a post owned by a single user. Tags and categories are
// stored in their own tables and preloaded by the repository.
type BlogPost struct {
	ID         uuid.UUID  `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	UserID     uuid.UUID  `json:"userId" db:"user_id" gorm:"type:uuid;not null;index:idx_blog_post_user_updated,priority:1"`
	Title      string     `json:"title" db:"title" gorm:"type:text;not null;default:''"`
	Content    string     `json:"content" db:"content" gorm:"type:text;not null;default:''"`
	Status     PostStatus `json:"status" db:"status" gorm:"type:varchar(16);not null;default:'draft'"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at" gorm:"not null"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at" gorm:"not null;index:idx_blog_post_user_updated,priority:2"`
	Tags       []BlogTag  `json:"tags,omitempty" gorm:"foreignKey:BlogPostID;references:ID;constraint:OnDelete:CASCADE"`
	Categories []Category `json:"categories,omitempty" gorm:"many2many:blog_post_categories;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns the identity in Go so the schema works on every driver.
func (p *BlogPost) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TagValues returns the tag strings in their stored order.
func (p *BlogPost) TagValues() []string {
	values := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		values = append(values, tag.Value)
	}
	return values
}

// CategoryIDs returns the ids of the linked categories.
func (p *BlogPost) CategoryIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Categories))
	for _, category := range p.Categories {
		ids = append(ids, category.ID)
	}
	return ids
}
