// Package books provides database operations for the catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByISBN("978-0134190440")
package books

import (
	"errors"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

var (
	ErrNotFound          = errors.New("book not found")
	ErrDuplicateISBN     = errors.New("a book with this ISBN already exists")
	ErrDuplicateCategory = errors.New("category already exists")
)

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create adds a book to the catalog with Available status. The ISBN is
// the primary key, so the constraint is the source of truth for
// duplicates.
func (r *Repository) Create(book *entities.Book) error {
	if book.Status == "" {
		book.Status = entities.BookStatusAvailable
	}
	if err := r.db.Create(book).Error; err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateISBN
		}
		return err
	}
	return nil
}

// GetByISBN retrieves a single book.
func (r *Repository) GetByISBN(isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("isbn = ?", isbn).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &book, nil
}

// ListAll returns the whole catalog ordered by title.
func (r *Repository) ListAll() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("title").Find(&books).Error
	return books, err
}

// ListAvailable returns books that can be loaned right now.
func (r *Repository) ListAvailable() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("status = ?", entities.BookStatusAvailable).Order("title").Find(&books).Error
	return books, err
}

// Search matches the term against title and author.
func (r *Repository) Search(term string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + term + "%"
	err := r.db.Where("title LIKE ? OR author LIKE ?", pattern, pattern).
		Order("title").Find(&books).Error
	return books, err
}

// SearchParams narrows an advanced catalog search. Zero values are
// ignored.
type SearchParams struct {
	Title        string
	Author       string
	Genre        string
	YearFrom     int
	YearTo       int
	Availability entities.BookStatus
}

// AdvancedSearch combines the individual filters with AND semantics.
func (r *Repository) AdvancedSearch(params SearchParams) ([]entities.Book, error) {
	query := r.db.Model(&entities.Book{})

	if params.Title != "" {
		query = query.Where("title LIKE ?", "%"+params.Title+"%")
	}
	if params.Author != "" {
		query = query.Where("author LIKE ?", "%"+params.Author+"%")
	}
	if params.Genre != "" {
		query = query.Where("genre = ?", params.Genre)
	}
	if params.YearFrom > 0 {
		query = query.Where("publication_year >= ?", params.YearFrom)
	}
	if params.YearTo > 0 {
		query = query.Where("publication_year <= ?", params.YearTo)
	}
	if params.Availability != "" {
		query = query.Where("status = ?", params.Availability)
	}

	var books []entities.Book
	err := query.Order("title").Find(&books).Error
	return books, err
}

// PopularBook pairs a catalog entry with its all-time loan count.
type PopularBook struct {
	entities.Book
	LoanCount int64 `json:"loan_count"`
}

// PopularBooks returns the most-loaned books, busiest first.
func (r *Repository) PopularBooks(limit int) ([]PopularBook, error) {
	if limit <= 0 {
		limit = 10
	}

	var results []PopularBook
	err := r.db.Model(&entities.Book{}).
		Select("books.*, COUNT(loans.id) AS loan_count").
		Joins("LEFT JOIN loans ON loans.book_isbn = books.isbn").
		Group("books.isbn").
		Order("loan_count DESC").
		Limit(limit).
		Find(&results).Error
	return results, err
}

// ListCategories returns the genre reference list ordered by name.
func (r *Repository) ListCategories() ([]entities.BookCategory, error) {
	var categories []entities.BookCategory
	err := r.db.Order("name").Find(&categories).Error
	return categories, err
}

// CreateCategory adds a genre to the reference list. Names are unique.
func (r *Repository) CreateCategory(name, description string) (*entities.BookCategory, error) {
	category := &entities.BookCategory{Name: name, Description: description}
	if err := r.db.Create(category).Error; err != nil {
		if isConstraintViolation(err) {
			return nil, ErrDuplicateCategory
		}
		return nil, err
	}
	return category, nil
}

// isConstraintViolation reports whether err is a SQLite UNIQUE or
// primary key constraint failure.
func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
