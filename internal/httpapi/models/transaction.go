package models

import "time"

// Transaction lifecycle: issued -> due (sweep, time-triggered) -> returned.
// A transaction in issued or due is "open".
const (
	TxStatusIssued   = "issued"
	TxStatusDue      = "due"
	TxStatusReturned = "returned"
)

// OpenStatuses lists the states that count against a book's availability
// and a member's borrow limit.
var OpenStatuses = []string{TxStatusIssued, TxStatusDue}

type Transaction struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"transaction_id"`
	UserEmail string `gorm:"not null;index" json:"user_email"`
	BookID    string `gorm:"not null;index" json:"book_id"`
	Status    string `gorm:"column:transaction_status;default:'issued';not null;index" json:"transaction_status"`

	BorrowDate time.Time  `json:"borrow_date"`
	ReturnDate time.Time  `json:"return_date"` // scheduled due date, borrow + 14 days
	ReturnedAt *time.Time `json:"returned_at,omitempty"`

	// LateFee is the per-day rate copied from the book at borrow time, so
	// later fee edits do not retroactively change open loans.
	LateFee     float64 `gorm:"default:0" json:"late_fee"`
	LateDays    int     `gorm:"default:0" json:"late_days"`
	LatePayment float64 `gorm:"default:0" json:"late_payment"`

	Rating *int `json:"rating,omitempty"` // 1..5, settable once within 30 days of ReturnDate

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	User *User `gorm:"foreignKey:UserEmail;references:Email" json:"user,omitempty"`
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}
