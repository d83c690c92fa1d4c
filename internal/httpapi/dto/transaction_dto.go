package dto

import (
	"time"

	"github.com/dustin/go-humanize"

	"smartlib/internal/httpapi/models"
)

type BorrowRequest struct {
	BookID string `json:"book_id" binding:"required"`
}

type ReturnRequest struct {
	TransactionID int64 `json:"transaction_id" binding:"required"`
}

type RateRequest struct {
	TransactionID int64 `json:"transaction_id" binding:"required"`
	Rating        int   `json:"rating" binding:"required,min=1,max=5"`
}

// PagedTransactionsRequest drives the history and fined projections.
// user_id is honoured for librarians only; members are pinned to
// themselves.
type PagedTransactionsRequest struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	UserID string `json:"user_id"`
}

type BorrowedRequest struct {
	UserID string `json:"user_id"`
}

type TransactionResponse struct {
	TransactionID int64      `json:"transaction_id"`
	UserEmail     string     `json:"user_email"`
	BookID        string     `json:"book_id"`
	Status        string     `json:"transaction_status"`
	BorrowDate    time.Time  `json:"borrow_date"`
	ReturnDate    time.Time  `json:"return_date"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
	LateFee       float64    `json:"late_fee"`
	LateDays      int        `json:"late_days"`
	LatePayment   float64    `json:"late_payment"`
	Rating        *int       `json:"rating,omitempty"`

	// Due is the read-time relative rendering of the scheduled return
	// date ("3 days remaining" / "5 days overdue"). Never stored.
	Due string `json:"transaction_return,omitempty"`

	Book *BookResponse `json:"book,omitempty"`
}

// FromTransactionModel maps a transaction, annotating open and fined
// records with the relative due string computed against now.
func FromTransactionModel(t models.Transaction, imageBaseURL string, now time.Time) TransactionResponse {
	resp := TransactionResponse{
		TransactionID: t.ID,
		UserEmail:     t.UserEmail,
		BookID:        t.BookID,
		Status:        t.Status,
		BorrowDate:    t.BorrowDate,
		ReturnDate:    t.ReturnDate,
		ReturnedAt:    t.ReturnedAt,
		LateFee:       t.LateFee,
		LateDays:      t.LateDays,
		LatePayment:   t.LatePayment,
		Rating:        t.Rating,
	}
	if t.Status != models.TxStatusReturned {
		resp.Due = humanize.RelTime(t.ReturnDate, now, "overdue", "remaining")
	}
	if t.Book != nil {
		book := FromBookModel(*t.Book, imageBaseURL)
		resp.Book = &book
	}
	return resp
}

type Pagination struct {
	Total int64 `json:"total"`
	Limit int   `json:"limit"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

func NewPagination(total int64, page, limit int) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{Total: total, Limit: limit, Page: page, Pages: pages}
}

type PagedTransactionsResponse struct {
	Message    string                `json:"message"`
	Data       []TransactionResponse `json:"data"`
	Pagination Pagination            `json:"pagination"`
}

type TransactionListResponse struct {
	Message string                `json:"message"`
	Data    []TransactionResponse `json:"data"`
}
