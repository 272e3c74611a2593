package database

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/verbavista-backend/errs"
	"github.com/rpupo63/verbavista-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlogPostInput carries the mutable fields of a post. An empty Status on
// update keeps the stored status.
type BlogPostInput struct {
	Title       string
	Content     string
	Status      models.PostStatus
	Tags        []string
	CategoryIDs []uuid.UUID
}

type BlogPostRepo struct {
	db   *gorm.DB
	tags *BlogTagRepo
}

func NewBlogPostRepo(db *gorm.DB, tags *BlogTagRepo) *BlogPostRepo {
	return &BlogPostRepo{db: db, tags: tags}
}

// scoped restricts every query to the posts of one owner.
func (r *BlogPostRepo) scoped(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Where("blog_posts.user_id = ?", userID)
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("blog_tags.position ASC")
		}).
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("categories.name_key ASC")
		})
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("blog_posts.updated_at DESC").Order("blog_posts.created_at DESC")
}

// FindAllByUser returns the user's posts, most recently updated first.
func (r *BlogPostRepo) FindAllByUser(ctx context.Context, userID uuid.UUID) ([]*models.BlogPost, error) {
	var blogPosts []*models.BlogPost
	err := newestFirst(withAssociations(r.scoped(ctx, userID))).Find(&blogPosts).Error
	return blogPosts, err
}

// FindByID returns the post if it exists and belongs to userID.
func (r *BlogPostRepo) FindByID(ctx context.Context, userID, id uuid.UUID) (*models.BlogPost, error) {
	var blogPost models.BlogPost
	err := withAssociations(r.scoped(ctx, userID)).
		Where("blog_posts.id = ?", id).
		First(&blogPost).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewNotFound("blog post")
	}
	if err != nil {
		return nil, err
	}
	return &blogPost, nil
}

// Search returns the user's posts whose title, content or any tag contains
// query, ignoring case. The query is matched literally.
func (r *BlogPostRepo) Search(ctx context.Context, userID uuid.UUID, query string) ([]*models.BlogPost, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	match := r.db.
		Where("LOWER(blog_posts.title) LIKE ? ESCAPE '!'", pattern).
		Or("LOWER(blog_posts.content) LIKE ? ESCAPE '!'", pattern).
		Or("EXISTS (SELECT 1 FROM blog_tags WHERE blog_tags.blog_post_id = blog_posts.id AND LOWER(blog_tags.value) LIKE ? ESCAPE '!')", pattern)

	var blogPosts []*models.BlogPost
	err := newestFirst(withAssociations(r.scoped(ctx, userID))).
		Where(match).
		Find(&blogPosts).Error
	return blogPosts, err
}

// Add inserts a new post owned by userID and returns it with associations loaded.
func (r *BlogPostRepo) Add(ctx context.Context, userID uuid.UUID, in BlogPostInput) (*models.BlogPost, error) {
	status := in.Status
	if status == "" {
		status = models.StatusDraft
	}
	categoryIDs := uniqueIDs(in.CategoryIDs)

	blogPost := models.BlogPost{
		UserID:  userID,
		Title:   in.Title,
		Content: in.Content,
		Status:  status,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategoryOwnership(tx, userID, categoryIDs); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&blogPost).Error; err != nil {
			return err
		}
		if err := r.tags.replace(tx, blogPost.ID, in.Tags); err != nil {
			return err
		}
		return replaceCategories(tx, blogPost.ID, categoryIDs)
	})
	if err != nil {
		return nil, transactionError("create blog post", err)
	}

	return r.FindByID(ctx, userID, blogPost.ID)
}

// Update overwrites the mutable fields of a post owned by userID. Ownership
// and identity never change.
func (r *BlogPostRepo) Update(ctx context.Context, userID, id uuid.UUID, in BlogPostInput) (*models.BlogPost, error) {
	categoryIDs := uniqueIDs(in.CategoryIDs)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategoryOwnership(tx, userID, categoryIDs); err != nil {
			return err
		}

		updates := map[string]any{
			"title":      in.Title,
			"content":    in.Content,
			"updated_at": tx.NowFunc(),
		}
		if in.Status != "" {
			updates["status"] = in.Status
		}

		result := tx.Model(&models.BlogPost{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.NewNotFound("blog post")
		}

		if err := r.tags.replace(tx, id, in.Tags); err != nil {
			return err
		}
		return replaceCategories(tx, id, categoryIDs)
	})
	if err != nil {
		return nil, transactionError("update blog post", err)
	}

	return r.FindByID(ctx, userID, id)
}

// Delete removes a post owned by userID together with its tags and category links.
func (r *BlogPostRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.BlogPost{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewNotFound("blog post")
		}

		if err := tx.Where("blog_post_id = ?", id).Delete(&models.BlogTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("blog_post_id = ?", id).Delete(&models.BlogPostCategory{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.BlogPost{}).Error
	})
	return transactionError("delete blog post", err)
}

func checkCategoryOwnership(tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	var count int64
	err := tx.Model(&models.Category{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Count(&count).Error
	if err != nil {
		return err
	}
	if int(count) != len(ids) {
		return errs.NewInvalidFieldError("categories", "unknown category")
	}
	return nil
}

func replaceCategories(tx *gorm.DB, postID uuid.UUID, ids []uuid.UUID) error {
	if err := tx.Where("blog_post_id = ?", postID).Delete(&models.BlogPostCategory{}).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	links := make([]models.BlogPostCategory, 0, len(ids))
	for _, id := range ids {
		links = append(links, models.BlogPostCategory{BlogPostID: postID, CategoryID: id})
	}
	return tx.Create(&links).Error
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// escapeLike makes % and _ literal for a LIKE ... ESCAPE '!' clause.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
