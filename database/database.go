package database

import (
	"context"
	"errors"

	"github.com/rpupo63/verbavista-backend/errs"
	"github.com/rpupo63/verbavista-backend/models"
	"gorm.io/gorm"
)

type Database struct {
	db           *gorm.DB
	userRepo     *UserRepo
	blogPostRepo *BlogPostRepo
	blogTagRepo  *BlogTagRepo
	categoryRepo *CategoryRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	blogTagRepo := NewBlogTagRepo(db)
	return Database{
		db:           db,
		userRepo:     NewUserRepo(db),
		blogPostRepo: NewBlogPostRepo(db, blogTagRepo),
		blogTagRepo:  blogTagRepo,
		categoryRepo: NewCategoryRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}

func (d Database) BlogPostRepo() *BlogPostRepo {
	return d.blogPostRepo
}

func (d Database) BlogTagRepo() *BlogTagRepo {
	return d.blogTagRepo
}

func (d Database) CategoryRepo() *CategoryRepo {
	return d.categoryRepo
}

// Migrate brings the schema up to date with the models.
func (d Database) Migrate() error {
	return models.Migrate(d.db)
}

// Ping checks that the database answers.
func (d Database) Ping(ctx context.Context) error {
	var result int
	return d.db.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error
}

// ColumnMismatchReport lists, per table, columns that no model maps to.
func (d Database) ColumnMismatchReport() (map[string][]string, error) {
	return models.ColumnMismatchReport(d.db)
}

// transactionError classifies a failed transaction. Errors already raised as
// ApiErr inside it pass through untouched.
func transactionError(operation string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *errs.ApiErr
	if errors.As(err, &apiErr) {
		return err
	}
	return errs.NewTransactionFailedError(operation, err)
}
