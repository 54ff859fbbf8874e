package books

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openshelf/openshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	t.Helper()
	dbPath := "./test_books_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Book{}, &entities.BookCategory{}, &entities.Loan{}, &entities.Member{}, &entities.MemberTier{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, db, cleanup
}

func addBook(t *testing.T, repo *Repository, isbn, title, author, genre string, year int) {
	t.Helper()
	err := repo.Create(&entities.Book{
		ISBN:            isbn,
		Title:           title,
		Author:          author,
		Genre:           genre,
		PublicationYear: year,
	})
	require.NoError(t, err)
}

func TestRepository_Create(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	addBook(t, repo, "978-1", "The Go Programming Language", "Donovan", "Technology", 2015)

	book, err := repo.GetByISBN("978-1")
	require.NoError(t, err)
	assert.Equal(t, "The Go Programming Language", book.Title)
	assert.Equal(t, entities.BookStatusAvailable, book.Status)
}

func TestRepository_Create_DuplicateISBN(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	addBook(t, repo, "978-1", "First", "Someone", "Fiction", 2000)

	err := repo.Create(&entities.Book{ISBN: "978-1", Title: "Second", Author: "Other"})
	assert.ErrorIs(t, err, ErrDuplicateISBN)
}

func TestRepository_Create_ConstraintMapsToDuplicate(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	// A row inserted behind the repository's back still reports a
	// duplicate, not a raw constraint error.
	require.NoError(t, db.Create(&entities.Book{ISBN: "978-9", Title: "First", Status: entities.BookStatusAvailable}).Error)

	err := repo.Create(&entities.Book{ISBN: "978-9", Title: "Second"})
	assert.ErrorIs(t, err, ErrDuplicateISBN)

	require.NoError(t, db.Create(&entities.BookCategory{Name: "Poetry"}).Error)
	_, err = repo.CreateCategory("Poetry", "")
	assert.ErrorIs(t, err, ErrDuplicateCategory)
}

func TestRepository_GetByISBN_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetByISBN("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Search(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	addBook(t, repo, "1", "Dune", "Frank Herbert", "Fantasy", 1965)
	addBook(t, repo, "2", "Dune Messiah", "Frank Herbert", "Fantasy", 1969)
	addBook(t, repo, "3", "Neuromancer", "William Gibson", "Fiction", 1984)

	results, err := repo.Search("Dune")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = repo.Search("Gibson")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Neuromancer", results[0].Title)

	results, err = repo.Search("nope")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRepository_AdvancedSearch(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	addBook(t, repo, "1", "Dune", "Frank Herbert", "Fantasy", 1965)
	addBook(t, repo, "2", "Neuromancer", "William Gibson", "Fiction", 1984)
	addBook(t, repo, "3", "Count Zero", "William Gibson", "Fiction", 1986)

	results, err := repo.AdvancedSearch(SearchParams{Author: "Gibson", YearFrom: 1985})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Count Zero", results[0].Title)

	results, err = repo.AdvancedSearch(SearchParams{Genre: "Fantasy"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Dune", results[0].Title)
}

func TestRepository_AdvancedSearch_Availability(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	addBook(t, repo, "1", "Dune", "Frank Herbert", "Fantasy", 1965)
	addBook(t, repo, "2", "Neuromancer", "William Gibson", "Fiction", 1984)

	err := db.Model(&entities.Book{}).Where("isbn = ?", "1").
		Update("status", entities.BookStatusLoaned).Error
	require.NoError(t, err)

	results, err := repo.AdvancedSearch(SearchParams{Availability: entities.BookStatusAvailable})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Neuromancer", results[0].Title)
}

func TestRepository_ListAvailable(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	addBook(t, repo, "1", "A", "X", "Fiction", 2001)
	addBook(t, repo, "2", "B", "Y", "Fiction", 2002)

	err := db.Model(&entities.Book{}).Where("isbn = ?", "2").
		Update("status", entities.BookStatusLoaned).Error
	require.NoError(t, err)

	available, err := repo.ListAvailable()
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "A", available[0].Title)
}

func TestRepository_PopularBooks(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	addBook(t, repo, "1", "Often Loaned", "X", "Fiction", 2001)
	addBook(t, repo, "2", "Rarely Loaned", "Y", "Fiction", 2002)

	now := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&entities.Loan{BookISBN: "1", MemberID: 1, LoanDate: now, DueDate: now}).Error)
	}
	require.NoError(t, db.Create(&entities.Loan{BookISBN: "2", MemberID: 1, LoanDate: now, DueDate: now}).Error)

	popular, err := repo.PopularBooks(10)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, "Often Loaned", popular[0].Title)
	assert.Equal(t, int64(3), popular[0].LoanCount)
}

func TestRepository_CreateCategory(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	category, err := repo.CreateCategory("Poetry", "Verse and collections")
	require.NoError(t, err)
	assert.NotZero(t, category.ID)

	_, err = repo.CreateCategory("Poetry", "")
	assert.ErrorIs(t, err, ErrDuplicateCategory)

	categories, err := repo.ListCategories()
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}
