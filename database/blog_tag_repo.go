package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/verbavista-backend/models"
	"gorm.io/gorm"
)

type BlogTagRepo struct {
	db *gorm.DB
}

func NewBlogTagRepo(db *gorm.DB) *BlogTagRepo {
	return &BlogTagRepo{db}
}

// FindByPost returns a post's tags in author order. The post must belong to userID.
func (r *BlogTagRepo) FindByPost(ctx context.Context, userID, postID uuid.UUID) ([]*models.BlogTag, error) {
	var blogTags []*models.BlogTag
	err := r.db.WithContext(ctx).
		Joins("JOIN blog_posts ON blog_posts.id = blog_tags.blog_post_id").
		Where("blog_posts.user_id = ? AND blog_tags.blog_post_id = ?", userID, postID).
		Order("blog_tags.position ASC").
		Find(&blogTags).Error
	return blogTags, err
}

// FindDistinctValues returns every tag the user has used, alphabetically.
func (r *BlogTagRepo) FindDistinctValues(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&models.BlogTag{}).
		Joins("JOIN blog_posts ON blog_posts.id = blog_tags.blog_post_id").
		Where("blog_posts.user_id = ?", userID).
		Distinct().
		Order("blog_tags.value ASC").
		Pluck("blog_tags.value", &values).Error
	return values, err
}

// replace swaps the tag list of a post inside tx.
func (r *BlogTagRepo) replace(tx *gorm.DB, postID uuid.UUID, values []string) error {
	if err := tx.Where("blog_post_id = ?", postID).Delete(&models.BlogTag{}).Error; err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	blogTags := make([]models.BlogTag, 0, len(values))
	for i, value := range values {
		blogTags = append(blogTags, models.BlogTag{
			BlogPostID: postID,
			Value:      value,
			Position:   i,
		})
	}
	return tx.Create(&blogTags).Error
}
