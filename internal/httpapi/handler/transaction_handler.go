package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smartlib/internal/httpapi/dto"
	"smartlib/internal/httpapi/middleware"
	"smartlib/internal/httpapi/models"
	"smartlib/internal/httpapi/service"
)

type TransactionHandler struct {
	lending service.LendingService
	baseURL string
	logger  *slog.Logger
}

func NewTransactionHandler(lending service.LendingService, baseURL string, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{lending: lending, baseURL: baseURL, logger: logger}
}

// RegisterRoutes mounts the lending endpoints. Borrowing and rating are
// member actions, accepting returns is a librarian action, and the
// listing endpoints are open to both roles.
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/borrow", middleware.RequireRoles(models.RoleMember), h.Borrow)
	rg.POST("/return", middleware.RequireRoles(models.RoleLibrarian), h.Return)
	rg.POST("/rate", middleware.RequireRoles(models.RoleMember), h.Rate)
	rg.POST("/history", h.History)
	rg.POST("/borrowed", h.Borrowed)
	rg.POST("/fined", h.Fined)
}

// Borrow opens a loan for the authenticated member.
// POST /transactions/borrow
func (h *TransactionHandler) Borrow(c *gin.Context) {
	var req dto.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": err.Error()})
		return
	}

	tx, err := h.lending.Borrow(c.Request.Context(), currentEmail(c), req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"action": false, "message": "Book not found"})
		case errors.Is(err, service.ErrBorrowLimitExceeded):
			c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": "Borrow limit reached"})
		case errors.Is(err, service.ErrBookInactive):
			c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": "Book is not active"})
		case errors.Is(err, service.ErrBookUnavailable):
			c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": "Book is not available for borrowing"})
		default:
			h.internal(c, "borrow failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action":  true,
		"message": "Book borrowed successfully",
		"data":    dto.FromTransactionModel(*tx, h.baseURL, time.Now()),
	})
}

// Return closes an open loan and freezes its fee.
// POST /transactions/return
func (h *TransactionHandler) Return(c *gin.Context) {
	var req dto.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": err.Error()})
		return
	}

	tx, err := h.lending.Return(c.Request.Context(), req.TransactionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTransactionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"action": false, "message": "Transaction not found"})
		case errors.Is(err, service.ErrTransactionNotOpen):
			c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": "Transaction is already returned"})
		default:
			h.internal(c, "return failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action":  true,
		"message": "Book returned successfully",
		"data":    dto.FromTransactionModel(*tx, h.baseURL, time.Now()),
	})
}

// Rate records a one-time rating on the caller's own returned loan.
// POST /transactions/rate
func (h *TransactionHandler) Rate(c *gin.Context) {
	var req dto.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": err.Error()})
		return
	}

	err := h.lending.Rate(c.Request.Context(), currentEmail(c), req.TransactionID, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTransactionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"action": false, "message": "Transaction not found"})
		case errors.Is(err, service.ErrAlreadyRated):
			c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": "Transaction already rated"})
		case errors.Is(err, service.ErrRatingWindowExpired):
			c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": "Rating window has expired"})
		default:
			h.internal(c, "rate failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": true, "message": "Rating saved successfully"})
}

// History lists the caller's returned loans, newest first. Librarians
// may pass user_id to inspect another account.
// POST /transactions/history
func (h *TransactionHandler) History(c *gin.Context) {
	var req dto.PagedTransactionsRequest
	_ = c.ShouldBindJSON(&req)

	email := h.targetEmail(c, req.UserID)
	page, limit := service.NormalisePage(req.Page, req.Limit)
	txs, total, err := h.lending.History(c.Request.Context(), email, page, limit)
	if err != nil {
		h.internal(c, "history failed", err)
		return
	}

	h.paged(c, txs, total, page, limit, "No previous transactions found")
}

// Fined lists the caller's loans that have accrued a late fee.
// POST /transactions/fined
func (h *TransactionHandler) Fined(c *gin.Context) {
	var req dto.PagedTransactionsRequest
	_ = c.ShouldBindJSON(&req)

	email := h.targetEmail(c, req.UserID)
	page, limit := service.NormalisePage(req.Page, req.Limit)
	txs, total, err := h.lending.Fined(c.Request.Context(), email, page, limit)
	if err != nil {
		h.internal(c, "fined failed", err)
		return
	}

	h.paged(c, txs, total, page, limit, "No fined transactions found")
}

// Borrowed lists the caller's open loans with a relative due phrase.
// POST /transactions/borrowed
func (h *TransactionHandler) Borrowed(c *gin.Context) {
	var req dto.BorrowedRequest
	_ = c.ShouldBindJSON(&req)

	email := h.targetEmail(c, req.UserID)
	txs, err := h.lending.Borrowed(c.Request.Context(), email)
	if err != nil {
		h.internal(c, "borrowed failed", err)
		return
	}

	if len(txs) == 0 {
		c.JSON(http.StatusNotFound, dto.TransactionListResponse{
			Message: "No borrowed books found",
			Data:    []dto.TransactionResponse{},
		})
		return
	}

	now := time.Now()
	out := make([]dto.TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, dto.FromTransactionModel(t, h.baseURL, now))
	}
	c.JSON(http.StatusOK, dto.TransactionListResponse{Message: "Success", Data: out})
}

// targetEmail resolves whose transactions a listing endpoint reads.
// Members are always pinned to their own account; librarians may name
// another user.
func (h *TransactionHandler) targetEmail(c *gin.Context, requested string) string {
	if requested != "" && currentRole(c) == models.RoleLibrarian {
		return requested
	}
	return currentEmail(c)
}

// paged writes the shared paginated listing shape. An empty page keeps
// the same body shape but reports 404, matching what clients expect.
func (h *TransactionHandler) paged(c *gin.Context, txs []models.Transaction, total int64, page, limit int, emptyMsg string) {
	now := time.Now()
	out := make([]dto.TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, dto.FromTransactionModel(t, h.baseURL, now))
	}

	resp := dto.PagedTransactionsResponse{
		Message:    "Success",
		Data:       out,
		Pagination: dto.NewPagination(total, page, limit),
	}
	if len(out) == 0 {
		resp.Message = emptyMsg
		c.JSON(http.StatusNotFound, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TransactionHandler) internal(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"action": false, "message": "Internal Server Error"})
}
