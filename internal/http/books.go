package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/audit"
	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/entities"
)

type BooksController struct {
	repo    *books.Repository
	auditor *audit.Service
}

func NewBooksController(repo *books.Repository, auditor *audit.Service) *BooksController {
	return &BooksController{
		repo:    repo,
		auditor: auditor,
	}
}

// ListBooks returns the whole catalog, or only available copies when
// ?available=true is passed.
func (controller *BooksController) ListBooks(c *gin.Context) {
	var (
		list []entities.Book
		err  error
	)
	if parseQueryBool(c, "available") {
		list, err = controller.repo.ListAvailable()
	} else {
		list, err = controller.repo.ListAll()
	}
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// GetBook returns a single catalog entry by ISBN.
func (controller *BooksController) GetBook(c *gin.Context) {
	book, err := controller.repo.GetByISBN(c.Param("isbn"))
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

type createBookRequest struct {
	ISBN            string `json:"isbn" binding:"required"`
	Title           string `json:"title" binding:"required"`
	Author          string `json:"author" binding:"required"`
	Genre           string `json:"genre"`
	PublicationYear int    `json:"publication_year"`
}

// CreateBook adds a book to the catalog.
func (controller *BooksController) CreateBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "isbn, title and author are required")
		return
	}

	book := entities.Book{
		ISBN:            req.ISBN,
		Title:           req.Title,
		Author:          req.Author,
		Genre:           req.Genre,
		PublicationYear: req.PublicationYear,
	}
	if err := controller.repo.Create(&book); err != nil {
		if errors.Is(err, books.ErrDuplicateISBN) {
			respondConflict(c, err.Error())
			return
		}
		respondInternalError(c, err, "create book")
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "create_book", "books", book.ISBN, nil, book, c.ClientIP())
	respondCreated(c, book)
}

// SearchBooks matches the term against title, author and genre.
func (controller *BooksController) SearchBooks(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		respondBadRequest(c, "q query parameter is required")
		return
	}

	list, err := controller.repo.Search(term)
	if err != nil {
		respondInternalError(c, err, "search books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// AdvancedSearch combines field-level filters with AND semantics.
func (controller *BooksController) AdvancedSearch(c *gin.Context) {
	params := books.SearchParams{
		Title:    c.Query("title"),
		Author:   c.Query("author"),
		Genre:    c.Query("genre"),
		YearFrom: parseQueryInt(c, "year_from", 0),
		YearTo:   parseQueryInt(c, "year_to", 0),
	}
	if parseQueryBool(c, "available") {
		params.Availability = entities.BookStatusAvailable
	}

	list, err := controller.repo.AdvancedSearch(params)
	if err != nil {
		respondInternalError(c, err, "advanced search")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// PopularBooks returns the most-loaned books.
func (controller *BooksController) PopularBooks(c *gin.Context) {
	list, err := controller.repo.PopularBooks(parseQueryInt(c, "limit", 10))
	if err != nil {
		respondInternalError(c, err, "popular books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// ListCategories returns the catalog's category reference data.
func (controller *BooksController) ListCategories(c *gin.Context) {
	list, err := controller.repo.ListCategories()
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": list, "count": len(list)})
}

type createCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateCategory adds a category.
func (controller *BooksController) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	category, err := controller.repo.CreateCategory(req.Name, req.Description)
	if err != nil {
		if errors.Is(err, books.ErrDuplicateCategory) {
			respondConflict(c, err.Error())
			return
		}
		respondInternalError(c, err, "create category")
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "create_category", "book_categories", req.Name, nil, category, c.ClientIP())
	respondCreated(c, category)
}
