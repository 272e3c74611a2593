package database

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/verbavista-backend/errs"
	"github.com/rpupo63/verbavista-backend/models"
	"gorm.io/gorm"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db}
}

func emailTakenError(cause error) *errs.ApiErr {
	return errs.NewUniqueConstraintViolationError(http.StatusConflict, "account", "email", cause)
}

// Add inserts a new user. E-mails are unique regardless of case.
func (r *UserRepo) Add(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	user.Name = strings.TrimSpace(user.Name)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return emailTakenError(nil)
		}
		return tx.Create(user).Error
	})
	if errs.IsUniqueViolation(err) {
		return emailTakenError(err)
	}
	return transactionError("create user", err)
}

// FindByID returns a user by its ID
func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail returns a user by e-mail, case-insensitively.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", models.NormalizeEmail(email))
}

func (r *UserRepo) findOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewNotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateName renames the user and returns the fresh record.
func (r *UserRepo) UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	if err := r.update(ctx, id, map[string]any{"name": strings.TrimSpace(name)}); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// UpdatePasswordHash stores a new bcrypt hash for the user.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.update(ctx, id, map[string]any{"password_hash": hash})
}

func (r *UserRepo) update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	db := r.db.WithContext(ctx)
	updates["updated_at"] = db.NowFunc()

	result := db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewNotFound("user")
	}
	return nil
}

// Delete removes the account and everything it owns: posts, their tags and
// category links, and categories.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		const ownPosts = "SELECT id FROM blog_posts WHERE user_id = ?"
		const ownCategories = "SELECT id FROM categories WHERE user_id = ?"

		steps := []func() error{
			func() error { return tx.Where("blog_post_id IN ("+ownPosts+")", id).Delete(&models.BlogTag{}).Error },
			func() error { return tx.Where("blog_post_id IN ("+ownPosts+")", id).Delete(&models.BlogPostCategory{}).Error },
			func() error { return tx.Where("category_id IN ("+ownCategories+")", id).Delete(&models.BlogPostCategory{}).Error },
			func() error { return tx.Where("user_id = ?", id).Delete(&models.BlogPost{}).Error },
			func() error { return tx.Where("user_id = ?", id).Delete(&models.Category{}).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}

		result := tx.Where("id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.NewNotFound("user")
		}
		return nil
	})
	return transactionError("delete user", err)
}
