package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"smartlib/internal/httpapi/models"
	"smartlib/internal/httpapi/repository"
	"smartlib/internal/notify"
)

// Loans run for a fixed two weeks; the due date is stamped at borrow time.
const BorrowPeriod = 14 * 24 * time.Hour

// RatingWindowDays is the inclusive number of days after the scheduled
// return date during which a transaction may still be rated.
const RatingWindowDays = 30

var (
	ErrBorrowLimitExceeded  = errors.New("user has already borrowed the maximum number of books")
	ErrBookInactive         = errors.New("book is inactive")
	ErrBookUnavailable      = errors.New("book is not available to borrow")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrTransactionNotOpen   = errors.New("transaction is not open")
	ErrAlreadyRated         = errors.New("transaction is already rated")
	ErrRatingWindowExpired  = errors.New("rating cannot be added after 30 days from return date")
)

type LendingService interface {
	Borrow(ctx context.Context, email, bookID string) (*models.Transaction, error)
	Return(ctx context.Context, transactionID int64) (*models.Transaction, error)
	Rate(ctx context.Context, email string, transactionID int64, rating int) error
	History(ctx context.Context, email string, page, limit int) ([]models.Transaction, int64, error)
	Borrowed(ctx context.Context, email string) ([]models.Transaction, error)
	Fined(ctx context.Context, email string, page, limit int) ([]models.Transaction, int64, error)
}

type lendingService struct {
	txRepo   repository.TransactionRepository
	bookRepo repository.BookRepository
	userRepo repository.UserRepository
	queue    notify.Queue
	logger   *slog.Logger
}

func NewLendingService(
	txRepo repository.TransactionRepository,
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	queue notify.Queue,
	logger *slog.Logger,
) LendingService {
	return &lendingService{
		txRepo:   txRepo,
		bookRepo: bookRepo,
		userRepo: userRepo,
		queue:    queue,
		logger:   logger,
	}
}

// Borrow creates an issued transaction for the member. The open-loan
// uniqueness index is the final arbiter under concurrency: if two borrows
// race past the availability check, the second insert fails and is
// reported as unavailable.
func (s *lendingService) Borrow(ctx context.Context, email, bookID string) (*models.Transaction, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	open, err := s.txRepo.CountOpenByUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if open >= int64(user.MaxBooks) {
		return nil, ErrBorrowLimitExceeded
	}

	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	if !book.Active {
		return nil, ErrBookInactive
	}

	borrowed, err := s.txRepo.ExistsOpenByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if borrowed {
		return nil, ErrBookUnavailable
	}

	now := time.Now()
	tx := &models.Transaction{
		UserEmail:  email,
		BookID:     bookID,
		Status:     models.TxStatusIssued,
		BorrowDate: now,
		ReturnDate: now.Add(BorrowPeriod),
		LateFee:    book.LateFee,
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrOpenLoanExists) {
			return nil, ErrBookUnavailable
		}
		return nil, err
	}

	// Best-effort side effects: the borrow has committed, failures here
	// are logged and never invalidate it.
	if err := s.bookRepo.IncrementReaders(ctx, bookID); err != nil {
		s.logger.Error("reader count increment failed", "book_id", bookID, "error", err)
	}
	if err := s.queue.Enqueue(ctx, notify.BorrowConfirmation(email, book.Name, tx.ReturnDate)); err != nil {
		s.logger.Error("borrow confirmation enqueue failed", "email", email, "error", err)
	}

	return tx, nil
}

// Return closes an open transaction. The sweep-computed late-day and fee
// fields freeze at whatever they were when the return commits.
func (s *lendingService) Return(ctx context.Context, transactionID int64) (*models.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if tx.Status == models.TxStatusReturned {
		return nil, ErrTransactionNotOpen
	}

	if err := s.txRepo.MarkReturned(ctx, transactionID, time.Now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// lost the race against another return
			return nil, ErrTransactionNotOpen
		}
		return nil, err
	}

	return s.txRepo.GetByID(ctx, transactionID)
}

// Rate records the member's one-shot rating for their own transaction,
// within 30 days (inclusive) of the scheduled return date.
func (s *lendingService) Rate(ctx context.Context, email string, transactionID int64, rating int) error {
	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTransactionNotFound
		}
		return err
	}
	if tx.UserEmail != email {
		return ErrTransactionNotFound
	}
	if tx.Rating != nil {
		return ErrAlreadyRated
	}

	days := int(time.Since(tx.ReturnDate).Hours() / 24)
	if days > RatingWindowDays {
		return ErrRatingWindowExpired
	}

	if err := s.txRepo.SetRating(ctx, transactionID, email, rating); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// raced with another rating write
			return ErrAlreadyRated
		}
		return err
	}
	return nil
}

func (s *lendingService) History(ctx context.Context, email string, page, limit int) ([]models.Transaction, int64, error) {
	page, limit = NormalisePage(page, limit)
	return s.txRepo.HistoryByUser(ctx, email, page, limit)
}

func (s *lendingService) Borrowed(ctx context.Context, email string) ([]models.Transaction, error) {
	return s.txRepo.OpenByUser(ctx, email)
}

func (s *lendingService) Fined(ctx context.Context, email string, page, limit int) ([]models.Transaction, int64, error) {
	page, limit = NormalisePage(page, limit)
	return s.txRepo.FinedByUser(ctx, email, page, limit)
}

// NormalisePage clamps paging inputs to sane defaults.
func NormalisePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
