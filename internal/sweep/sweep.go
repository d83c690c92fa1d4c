// Package sweep recomputes lateness on open loans and mails due-date
// reminders on fixed intervals.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"smartlib/internal/httpapi/models"
	"smartlib/internal/httpapi/repository"
	"smartlib/internal/notify"
)

// ReminderWindow is how far ahead of the due date reminder mail goes out.
const ReminderWindow = 3 * 24 * time.Hour

// Sweeper walks open transactions and keeps their status, late-day
// count, and accrued fee consistent with the clock.
type Sweeper struct {
	txRepo repository.TransactionRepository
	queue  notify.Queue
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func New(txRepo repository.TransactionRepository, queue notify.Queue, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		txRepo: txRepo,
		queue:  queue,
		logger: logger,
		now:    time.Now,
	}
}

// Run recomputes lateness every interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("lateness sweep failed", "error", err)
			}
		}
	}
}

// RunOnce recomputes state for every open loan past its due date. The
// computation is absolute, not incremental, so a missed or repeated
// sweep converges to the same values. Each update is guarded against
// transactions returned mid-sweep; a concurrent return always wins.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	now := s.now()

	overdue, err := s.txRepo.ListOverdueOpen(ctx, now)
	if err != nil {
		return err
	}

	for _, tx := range overdue {
		lateDays := int(now.Sub(tx.ReturnDate).Hours() / 24)
		if lateDays < 0 {
			lateDays = 0
		}
		latePayment := float64(lateDays) * tx.LateFee

		if err := s.txRepo.UpdateLateness(ctx, tx.ID, models.TxStatusDue, lateDays, latePayment); err != nil {
			s.logger.Error("lateness update failed", "transaction_id", tx.ID, "error", err)
			continue
		}
	}

	if len(overdue) > 0 {
		s.logger.Info("lateness sweep complete", "overdue", len(overdue))
	}
	return nil
}

// RunReminder mails due-soon reminders every interval until the context
// is cancelled.
func (s *Sweeper) RunReminder(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RemindOnce(ctx); err != nil {
				s.logger.Error("reminder sweep failed", "error", err)
			}
		}
	}
}

// RemindOnce enqueues a reminder for every open loan due within the
// reminder window. Delivery is best effort; enqueue failures are logged
// and the sweep moves on.
func (s *Sweeper) RemindOnce(ctx context.Context) error {
	now := s.now()

	due, err := s.txRepo.ListDueWithin(ctx, now, ReminderWindow)
	if err != nil {
		return err
	}

	for _, tx := range due {
		bookName := tx.BookID
		if tx.Book != nil {
			bookName = tx.Book.Name
		}
		msg := notify.DueReminder(tx.UserEmail, bookName, tx.ReturnDate)
		if err := s.queue.Enqueue(ctx, msg); err != nil {
			s.logger.Error("reminder enqueue failed", "transaction_id", tx.ID, "error", err)
		}
	}
	return nil
}
