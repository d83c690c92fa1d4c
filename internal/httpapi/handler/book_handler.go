package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"smartlib/internal/httpapi/dto"
	"smartlib/internal/httpapi/middleware"
	"smartlib/internal/httpapi/models"
	"smartlib/internal/httpapi/service"
)

type BookHandler struct {
	catalog   service.CatalogService
	uploadDir string
	baseURL   string
	logger    *slog.Logger
}

func NewBookHandler(catalog service.CatalogService, uploadDir, baseURL string, logger *slog.Logger) *BookHandler {
	return &BookHandler{catalog: catalog, uploadDir: uploadDir, baseURL: baseURL, logger: logger}
}

// RegisterRoutes mounts the catalog endpoints. All of them require a
// valid token; mutation is restricted to librarians.
func (h *BookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/list", h.List)
	rg.POST("/one", h.One)
	rg.POST("/search", h.Search)
	rg.POST("/check", h.CheckAvailability)
	rg.POST("/add", middleware.RequireRoles(models.RoleLibrarian), h.Add)
}

// List returns a page of the catalog in storage order.
// POST /books/list
func (h *BookHandler) List(c *gin.Context) {
	var req dto.ListBooksRequest
	// Both fields are optional; an empty body falls back to defaults.
	_ = c.ShouldBindJSON(&req)

	books, err := h.catalog.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.internal(c, "list books failed", err)
		return
	}

	c.JSON(http.StatusOK, dto.BookListResponse{
		Action:  true,
		Message: "Success",
		Data:    h.toResponses(books),
	})
}

// One returns a single book by id.
// POST /books/one
func (h *BookHandler) One(c *gin.Context) {
	var req dto.BookIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": err.Error()})
		return
	}

	book, err := h.catalog.Get(c.Request.Context(), req.BookID)
	if err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"action": false, "message": "Book not found"})
			return
		}
		h.internal(c, "get book failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action":  true,
		"message": "Success",
		"data":    dto.FromBookModel(*book, h.baseURL),
	})
}

// Search matches the term against book id, name, and description,
// case-insensitively.
// POST /books/search
func (h *BookHandler) Search(c *gin.Context) {
	var req dto.SearchBooksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": err.Error()})
		return
	}

	books, err := h.catalog.Search(c.Request.Context(), req.SearchTerm)
	if err != nil {
		h.internal(c, "search books failed", err)
		return
	}
	if len(books) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"action":  false,
			"message": "No books found matching the search term",
		})
		return
	}

	c.JSON(http.StatusOK, dto.BookListResponse{
		Action:  true,
		Message: "Success",
		Data:    h.toResponses(books),
	})
}

// CheckAvailability reports whether a book can currently be borrowed.
// POST /books/check
func (h *BookHandler) CheckAvailability(c *gin.Context) {
	var req dto.BookIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": err.Error()})
		return
	}

	book, available, err := h.catalog.CheckAvailability(c.Request.Context(), req.BookID)
	if err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"action": false, "message": "Book not found"})
			return
		}
		h.internal(c, "check availability failed", err)
		return
	}

	message := "Book is available for borrowing"
	if !available {
		message = "Book is not available for borrowing"
	}
	c.JSON(http.StatusOK, dto.CheckAvailabilityResponse{
		Action:    true,
		Message:   message,
		Book:      dto.FromBookModel(*book, h.baseURL),
		Available: available,
	})
}

// Add creates a catalog entry from a multipart form, saving the cover
// image (when one is attached) under the upload directory.
// POST /books/add
func (h *BookHandler) Add(c *gin.Context) {
	var req dto.AddBookRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": err.Error()})
		return
	}

	var imagePath *string
	if file, err := c.FormFile("book_image"); err == nil && file != nil {
		name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(file.Filename))
		dst := filepath.Join(h.uploadDir, name)
		if err := c.SaveUploadedFile(file, dst); err != nil {
			h.internal(c, "save cover image failed", err)
			return
		}
		imagePath = &dst
	}

	book, err := h.catalog.Add(c.Request.Context(), service.AddBookInput{
		Name:        req.Name,
		Description: req.Description,
		LateFee:     req.LateFee,
		Condition:   req.Condition,
		ImagePath:   imagePath,
	})
	if err != nil {
		h.internal(c, "add book failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"action":  true,
		"message": "Book added successfully",
		"data":    dto.FromBookModel(*book, h.baseURL),
	})
}

func (h *BookHandler) toResponses(books []models.Book) []dto.BookResponse {
	out := make([]dto.BookResponse, 0, len(books))
	for i := range books {
		out = append(out, dto.FromBookModel(books[i], h.baseURL))
	}
	return out
}

func (h *BookHandler) internal(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"action": false, "message": "Internal Server Error"})
}
