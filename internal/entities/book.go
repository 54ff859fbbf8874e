package entities

import "time"

type BookStatus string

const (
	BookStatusAvailable BookStatus = "Available"
	BookStatusLoaned    BookStatus = "Loaned"
)

// Book is a catalog entry keyed by ISBN. Books are never hard-deleted;
// availability flips between Available and Loaned as loans are issued
// and returned.
type Book struct {
	ISBN            string     `gorm:"primaryKey;size:20" json:"isbn"`
	Title           string     `gorm:"index;size:512" json:"title"`
	Author          string     `gorm:"index;size:256" json:"author"`
	Genre           string     `gorm:"size:100" json:"genre,omitempty"`
	PublicationYear int        `json:"publication_year,omitempty"`
	Status          BookStatus `gorm:"size:20;default:'Available'" json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BookCategory is reference data for the catalog's genre list.
type BookCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Book) TableName() string {
	return "books"
}

func (BookCategory) TableName() string {
	return "book_categories"
}
