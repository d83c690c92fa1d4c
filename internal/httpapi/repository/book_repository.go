package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"smartlib/internal/httpapi/models"
)

type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id string) (*models.Book, error)
	List(ctx context.Context, limit, offset int) ([]models.Book, error)
	Search(ctx context.Context, term string) ([]models.Book, error)
	IncrementReaders(ctx context.Context, id string) error
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (r *bookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	var b models.Book
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns a page of books in storage order. No ordering beyond that
// is guaranteed; callers must not depend on it.
func (r *bookRepository) List(ctx context.Context, limit, offset int) ([]models.Book, error) {
	var books []models.Book
	if err := r.db.WithContext(ctx).
		Limit(limit).
		Offset(offset).
		Find(&books).Error; err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// Search performs a case-insensitive substring match over id, name and
// description, OR-combined. An empty result is not an error.
func (r *bookRepository) Search(ctx context.Context, term string) ([]models.Book, error) {
	var books []models.Book
	pattern := "%" + strings.ToLower(term) + "%"
	if err := r.db.WithContext(ctx).
		Where("LOWER(id) LIKE ? OR LOWER(name) LIKE ? OR LOWER(description) LIKE ?",
			pattern, pattern, pattern).
		Find(&books).Error; err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return books, nil
}

func (r *bookRepository) IncrementReaders(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		UpdateColumn("readers", gorm.Expr("readers + 1")).Error
}
