package models

import "time"

type Book struct {
	// IDs are generated as unix-millis plus a random suffix rather than a
	// sequential key, so they are not guessable.
	ID          string    `gorm:"primaryKey" json:"book_id"`
	Name        string    `gorm:"not null" json:"book_name"`
	Description string    `gorm:"not null" json:"book_description"`
	Condition   string    `gorm:"default:'Good'" json:"book_condition"`
	LateFee     float64   `gorm:"default:0" json:"book_late_fee"` // per day
	Active      bool      `gorm:"default:true" json:"book_status"`
	Image       *string   `json:"book_image,omitempty"`
	Readers     int64     `gorm:"default:0" json:"book_readers"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}
