package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlogTag is one entry of a post's ordered tag list. Duplicates are allowed,
// Position keeps the order the author typed them in.
type BlogTag struct {
	ID         uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	BlogPostID uuid.UUID `json:"blogPostId" db:"blog_post_id" gorm:"type:uuid;not null;index:idx_blog_tag_blog_post_id"`
	Value      string    `json:"value" db:"value" gorm:"type:text;not null"`
	Position   int       `json:"position" db:"position" gorm:"type:integer;not null;default:0"`
}

func (t *BlogTag) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
