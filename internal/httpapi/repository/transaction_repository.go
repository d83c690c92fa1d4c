package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"smartlib/internal/httpapi/models"
)

// ErrOpenLoanExists is returned by Create when the open-loan uniqueness
// index rejects a second concurrent borrow of the same book.
var ErrOpenLoanExists = errors.New("an open transaction already exists for this book")

type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)
	CountOpenByUser(ctx context.Context, email string) (int64, error)
	ExistsOpenByBook(ctx context.Context, bookID string) (bool, error)
	MarkReturned(ctx context.Context, id int64, at time.Time) error
	SetRating(ctx context.Context, id int64, email string, rating int) error
	HistoryByUser(ctx context.Context, email string, page, limit int) ([]models.Transaction, int64, error)
	OpenByUser(ctx context.Context, email string) ([]models.Transaction, error)
	FinedByUser(ctx context.Context, email string, page, limit int) ([]models.Transaction, int64, error)
	ListOverdueOpen(ctx context.Context, now time.Time) ([]models.Transaction, error)
	ListDueWithin(ctx context.Context, now time.Time, window time.Duration) ([]models.Transaction, error)
	UpdateLateness(ctx context.Context, id int64, status string, lateDays int, latePayment float64) error
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrOpenLoanExists
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// isUniqueViolation recognises the duplicate-key error of the postgres
// driver (SQLSTATE 23505) as well as GORM's translated form, which the
// sqlite-backed tests produce.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).Preload("Book").First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) CountOpenByUser(ctx context.Context, email string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_email = ? AND transaction_status IN ?", email, models.OpenStatuses).
		Count(&count).Error
	return count, err
}

func (r *transactionRepository) ExistsOpenByBook(ctx context.Context, bookID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("book_id = ? AND transaction_status IN ?", bookID, models.OpenStatuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkReturned closes an open transaction. The status guard means a
// concurrent sweep run cannot resurrect a returned record, and returning
// twice reports gorm.ErrRecordNotFound.
func (r *transactionRepository) MarkReturned(ctx context.Context, id int64, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND transaction_status IN ?", id, models.OpenStatuses).
		Updates(map[string]interface{}{
			"transaction_status": models.TxStatusReturned,
			"returned_at":        at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *transactionRepository) SetRating(ctx context.Context, id int64, email string, rating int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND user_email = ? AND rating IS NULL", id, email).
		Update("rating", rating)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *transactionRepository) HistoryByUser(ctx context.Context, email string, page, limit int) ([]models.Transaction, int64, error) {
	return r.pagedByUser(ctx, email, page, limit,
		"user_email = ? AND transaction_status = ?", email, models.TxStatusReturned)
}

func (r *transactionRepository) OpenByUser(ctx context.Context, email string) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_email = ? AND transaction_status IN ?", email, models.OpenStatuses).
		Order("borrow_date DESC").
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("open transactions: %w", err)
	}
	return txs, nil
}

func (r *transactionRepository) FinedByUser(ctx context.Context, email string, page, limit int) ([]models.Transaction, int64, error) {
	return r.pagedByUser(ctx, email, page, limit,
		"user_email = ? AND late_days > 0 AND transaction_status IN ?",
		email, []string{models.TxStatusDue, models.TxStatusReturned})
}

func (r *transactionRepository) pagedByUser(ctx context.Context, email string, page, limit int, query string, args ...interface{}) ([]models.Transaction, int64, error) {
	var txs []models.Transaction
	var total int64

	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where(query, args...).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Preload("Book").
		Where(query, args...).
		Order("borrow_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

func (r *transactionRepository) ListOverdueOpen(ctx context.Context, now time.Time) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("transaction_status IN ? AND return_date < ?", models.OpenStatuses, now).
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("overdue transactions: %w", err)
	}
	return txs, nil
}

func (r *transactionRepository) ListDueWithin(ctx context.Context, now time.Time, window time.Duration) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Where("transaction_status IN ? AND return_date < ?", models.OpenStatuses, now.Add(window)).
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("due transactions: %w", err)
	}
	return txs, nil
}

// UpdateLateness writes the sweep-recomputed state. The guard on status
// keeps the sweep from overwriting a return that committed after the
// sweep read its snapshot.
func (r *transactionRepository) UpdateLateness(ctx context.Context, id int64, status string, lateDays int, latePayment float64) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND transaction_status <> ?", id, models.TxStatusReturned).
		Updates(map[string]interface{}{
			"transaction_status": status,
			"late_days":          lateDays,
			"late_payment":       latePayment,
		}).Error
}
