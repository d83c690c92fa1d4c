package dto

import (
	"path/filepath"

	"smartlib/internal/httpapi/models"
)

type ListBooksRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type BookIDRequest struct {
	BookID string `json:"book_id" binding:"required"`
}

type SearchBooksRequest struct {
	SearchTerm string `json:"searchTerm" binding:"required"`
}

// AddBookRequest binds the multipart form of /books/add; the cover image
// file is read separately from the form.
type AddBookRequest struct {
	Name        string  `form:"book_name" binding:"required"`
	Description string  `form:"book_description" binding:"required"`
	LateFee     float64 `form:"book_late_fee"`
	Condition   string  `form:"book_condition"`
}

type BookResponse struct {
	BookID      string  `json:"book_id"`
	Name        string  `json:"book_name"`
	Description string  `json:"book_description"`
	Condition   string  `json:"book_condition"`
	LateFee     float64 `json:"book_late_fee"`
	Active      bool    `json:"book_status"`
	ImageURL    *string `json:"book_image,omitempty"`
	Readers     int64   `json:"book_readers"`
}

// FromBookModel maps a book record to its response shape, composing the
// stored image path with the configured public base URL.
func FromBookModel(b models.Book, imageBaseURL string) BookResponse {
	resp := BookResponse{
		BookID:      b.ID,
		Name:        b.Name,
		Description: b.Description,
		Condition:   b.Condition,
		LateFee:     b.LateFee,
		Active:      b.Active,
		Readers:     b.Readers,
	}
	if b.Image != nil {
		url := imageBaseURL + "/" + filepath.Base(*b.Image)
		resp.ImageURL = &url
	}
	return resp
}

type BookListResponse struct {
	Action  bool           `json:"action"`
	Message string         `json:"message"`
	Data    []BookResponse `json:"data"`
}

type CheckAvailabilityResponse struct {
	Action    bool         `json:"action"`
	Message   string       `json:"message"`
	Book      BookResponse `json:"book"`
	Available bool         `json:"available"`
}
