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

type CategoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) *CategoryRepo {
	return &CategoryRepo{db}
}

func categoryExistsError(cause error) *errs.ApiErr {
	return errs.NewUniqueConstraintViolationError(http.StatusBadRequest, "category", "name", cause)
}

// FindAllByUser returns the user's categories sorted by name.
func (r *CategoryRepo) FindAllByUser(ctx context.Context, userID uuid.UUID) ([]*models.Category, error) {
	var categories []*models.Category
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name_key ASC").
		Find(&categories).Error
	return categories, err
}

// FindByID returns the category if it exists and belongs to userID.
func (r *CategoryRepo) FindByID(ctx context.Context, userID, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewNotFound("category")
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Add creates a category. Names are unique per owner regardless of case.
func (r *CategoryRepo) Add(ctx context.Context, userID uuid.UUID, name string) (*models.Category, error) {
	category := models.Category{
		UserID: userID,
		Name:   strings.TrimSpace(name),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := nameTaken(tx, userID, category.Name, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return categoryExistsError(nil)
		}
		return tx.Create(&category).Error
	})
	if errs.IsUniqueViolation(err) {
		return nil, categoryExistsError(err)
	}
	if err != nil {
		return nil, transactionError("create category", err)
	}
	return &category, nil
}

// Rename changes the name of a category owned by userID.
func (r *CategoryRepo) Rename(ctx context.Context, userID, id uuid.UUID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&category).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewNotFound("category")
		}
		if err != nil {
			return err
		}

		if models.CategoryNameKey(name) != category.NameKey {
			taken, err := nameTaken(tx, userID, name, id)
			if err != nil {
				return err
			}
			if taken {
				return categoryExistsError(nil)
			}
		}

		return tx.Model(&models.Category{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(map[string]any{
				"name":       name,
				"name_key":   models.CategoryNameKey(name),
				"updated_at": tx.NowFunc(),
			}).Error
	})
	if errs.IsUniqueViolation(err) {
		return nil, categoryExistsError(err)
	}
	if err != nil {
		return nil, transactionError("rename category", err)
	}
	return r.FindByID(ctx, userID, id)
}

// Delete removes a category owned by userID and unlinks it from every post
// that referenced it. The posts themselves are kept.
func (r *CategoryRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Category{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewNotFound("category")
		}

		if err := tx.Where("category_id = ?", id).Delete(&models.BlogPostCategory{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Category{}).Error
	})
	return transactionError("delete category", err)
}

func nameTaken(tx *gorm.DB, userID uuid.UUID, name string, except uuid.UUID) (bool, error) {
	query := tx.Model(&models.Category{}).
		Where("user_id = ? AND name_key = ?", userID, models.CategoryNameKey(name))
	if except != uuid.Nil {
		query = query.Where("id <> ?", except)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
