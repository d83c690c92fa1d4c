package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"smartlib/internal/httpapi/models"
	"smartlib/internal/httpapi/repository"
)

var ErrBookNotFound = errors.New("book not found")

// AddBookInput carries the librarian-supplied fields; zero values fall
// back to the catalog defaults.
type AddBookInput struct {
	Name        string
	Description string
	LateFee     float64
	Condition   string
	ImagePath   *string
}

type CatalogService interface {
	List(ctx context.Context, limit, offset int) ([]models.Book, error)
	Get(ctx context.Context, id string) (*models.Book, error)
	Search(ctx context.Context, term string) ([]models.Book, error)
	Add(ctx context.Context, input AddBookInput) (*models.Book, error)
	CheckAvailability(ctx context.Context, id string) (*models.Book, bool, error)
}

type catalogService struct {
	bookRepo repository.BookRepository
	txRepo   repository.TransactionRepository
}

func NewCatalogService(bookRepo repository.BookRepository, txRepo repository.TransactionRepository) CatalogService {
	return &catalogService{bookRepo: bookRepo, txRepo: txRepo}
}

func (s *catalogService) List(ctx context.Context, limit, offset int) ([]models.Book, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookRepo.List(ctx, limit, offset)
}

func (s *catalogService) Get(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

func (s *catalogService) Search(ctx context.Context, term string) ([]models.Book, error) {
	return s.bookRepo.Search(ctx, term)
}

func (s *catalogService) Add(ctx context.Context, input AddBookInput) (*models.Book, error) {
	book := &models.Book{
		ID:          newBookID(),
		Name:        input.Name,
		Description: input.Description,
		Condition:   input.Condition,
		LateFee:     input.LateFee,
		Active:      true,
		Image:       input.ImagePath,
	}
	if book.Condition == "" {
		book.Condition = "Good"
	}
	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// CheckAvailability reports whether a book can be borrowed right now: it
// must exist, be active, and have no open transaction against it.
func (s *catalogService) CheckAvailability(ctx context.Context, id string) (*models.Book, bool, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !book.Active {
		return book, false, nil
	}
	borrowed, err := s.txRepo.ExistsOpenByBook(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return book, !borrowed, nil
}

// newBookID builds a collision-resistant, non-guessable identifier:
// unix-millis plus a random suffix.
func newBookID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}
