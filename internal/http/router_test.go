package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditsvc "github.com/openshelf/openshelf/internal/audit"
	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/circulation"
	auditdb "github.com/openshelf/openshelf/internal/database/audit"
	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/database/members"
	"github.com/openshelf/openshelf/internal/database/messages"
	"github.com/openshelf/openshelf/internal/database/settings"
	"github.com/openshelf/openshelf/internal/entities"
	"github.com/openshelf/openshelf/internal/settingsstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db          *gorm.DB
	circulation *circulation.Service
	auditor     *auditsvc.Service
}

func setupTestEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()
	dbPath := "./test_http_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&entities.MemberTier{},
		&entities.BookCategory{},
		&entities.Book{},
		&entities.Member{},
		&entities.User{},
		&entities.Loan{},
		&entities.Fine{},
		&entities.Reservation{},
		&entities.Message{},
		&entities.Announcement{},
		&entities.Setting{},
		&entities.AuditLog{},
	))

	require.NoError(t, db.Create(&entities.MemberTier{
		Name: "Standard", MaxBooks: 3, LoanPeriodDays: 14, FinePerDay: 0.50,
	}).Error)

	store := settingsstore.New(settings.NewRepository(db))
	env := &testEnv{
		db:          db,
		circulation: circulation.NewService(db, store),
		auditor:     auditsvc.NewService(auditdb.NewRepository(db)),
	}

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}
	return env, cleanup
}

// asUser injects an authenticated identity the way the session
// middleware would.
func asUser(userID uint, role entities.UserRole, memberID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, userID)
		c.Set(auth.ContextKeyRole, role)
		if memberID != 0 {
			c.Set(auth.ContextKeyMemberID, memberID)
		}
		c.Next()
	}
}

func jsonRequest(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (env *testEnv) addBook(t *testing.T, isbn, title string) {
	t.Helper()
	require.NoError(t, env.db.Create(&entities.Book{
		ISBN: isbn, Title: title, Author: "Author", Status: entities.BookStatusAvailable,
	}).Error)
}

func (env *testEnv) addMember(t *testing.T, name string) uint {
	t.Helper()
	member := entities.Member{
		Name: name, TierID: 1, Status: entities.MemberStatusActive,
		RegistrationDate: time.Now(),
	}
	require.NoError(t, env.db.Create(&member).Error)
	return member.ID
}

func TestBooksController_CreateAndGet(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	router := gin.New()
	router.Use(asUser(1, entities.RoleLibrarian, 0))
	controller := NewBooksController(books.NewRepository(env.db), env.auditor)
	router.POST("/api/books", controller.CreateBook)
	router.GET("/api/books/:isbn", controller.GetBook)

	w := jsonRequest(t, router, http.MethodPost, "/api/books", gin.H{
		"isbn": "978-1", "title": "Dune", "author": "Frank Herbert",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate ISBN is rejected
	w = jsonRequest(t, router, http.MethodPost, "/api/books", gin.H{
		"isbn": "978-1", "title": "Dune", "author": "Frank Herbert",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Missing required fields
	w = jsonRequest(t, router, http.MethodPost, "/api/books", gin.H{"isbn": "978-2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = jsonRequest(t, router, http.MethodGet, "/api/books/978-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dune", decodeBody(t, w)["title"])

	w = jsonRequest(t, router, http.MethodGet, "/api/books/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBooksController_ListAndSearch(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	env.addBook(t, "978-1", "Dune")
	env.addBook(t, "978-2", "Hyperion")
	require.NoError(t, env.db.Model(&entities.Book{}).
		Where("isbn = ?", "978-2").
		Update("status", entities.BookStatusLoaned).Error)

	router := gin.New()
	router.Use(asUser(1, entities.RoleLibrarian, 0))
	controller := NewBooksController(books.NewRepository(env.db), env.auditor)
	router.GET("/api/books", controller.ListBooks)
	router.GET("/api/books/search", controller.SearchBooks)

	w := jsonRequest(t, router, http.MethodGet, "/api/books", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decodeBody(t, w)["count"])

	w = jsonRequest(t, router, http.MethodGet, "/api/books?available=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeBody(t, w)["count"])

	w = jsonRequest(t, router, http.MethodGet, "/api/books/search?q=Dune", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeBody(t, w)["count"])

	w = jsonRequest(t, router, http.MethodGet, "/api/books/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoansController_IssueReturnRenew(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	env.addBook(t, "978-1", "Dune")
	memberID := env.addMember(t, "Ada")

	router := gin.New()
	router.Use(asUser(1, entities.RoleLibrarian, 0))
	controller := NewLoansController(env.circulation, env.auditor)
	router.POST("/api/loans", controller.IssueLoan)
	router.POST("/api/loans/:id/return", controller.ReturnLoan)
	router.POST("/api/loans/:id/renew", controller.RenewLoan)

	w := jsonRequest(t, router, http.MethodPost, "/api/loans", gin.H{
		"isbn": "978-1", "member_id": memberID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	loanID := itoa(uint(decodeBody(t, w)["id"].(float64)))

	// Same copy cannot be issued twice
	w = jsonRequest(t, router, http.MethodPost, "/api/loans", gin.H{
		"isbn": "978-1", "member_id": memberID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = jsonRequest(t, router, http.MethodPost, "/api/loans/"+loanID+"/renew", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeBody(t, w)["renewal_count"])

	w = jsonRequest(t, router, http.MethodPost, "/api/loans/"+loanID+"/return", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decodeBody(t, w)["return_date"])

	// Double return
	w = jsonRequest(t, router, http.MethodPost, "/api/loans/"+loanID+"/return", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

}

func TestMyController_ScopedToOwnMember(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	env.addBook(t, "978-1", "Dune")
	env.addBook(t, "978-2", "Hyperion")
	ownID := env.addMember(t, "Ada")
	otherID := env.addMember(t, "Grace")

	ownLoan, err := env.circulation.IssueLoan("978-1", ownID)
	require.NoError(t, err)
	otherLoan, err := env.circulation.IssueLoan("978-2", otherID)
	require.NoError(t, err)

	router := gin.New()
	router.Use(asUser(5, entities.RoleStudent, ownID))
	controller := NewMyController(env.circulation, env.auditor)
	router.GET("/api/my/loans", controller.MyLoans)
	router.POST("/api/my/loans/:id/renew", controller.RenewMyLoan)
	router.POST("/api/my/reservations", controller.ReserveBook)
	router.DELETE("/api/my/reservations/:id", controller.CancelMyReservation)

	w := jsonRequest(t, router, http.MethodGet, "/api/my/loans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeBody(t, w)["count"])

	// Renewing someone else's loan looks like a missing loan
	w = jsonRequest(t, router, http.MethodPost,
		"/api/my/loans/"+itoa(otherLoan.ID)+"/renew", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = jsonRequest(t, router, http.MethodPost,
		"/api/my/loans/"+itoa(ownLoan.ID)+"/renew", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Reserve and cancel
	w = jsonRequest(t, router, http.MethodPost, "/api/my/reservations", gin.H{"isbn": "978-2"})
	require.Equal(t, http.StatusCreated, w.Code)
	reservationID := decodeBody(t, w)["id"].(float64)

	w = jsonRequest(t, router, http.MethodDelete,
		"/api/my/reservations/"+itoa(uint(reservationID)), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMyController_NoMemberLink(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	router := gin.New()
	router.Use(asUser(5, entities.RoleStudent, 0))
	controller := NewMyController(env.circulation, env.auditor)
	router.GET("/api/my/loans", controller.MyLoans)

	w := jsonRequest(t, router, http.MethodGet, "/api/my/loans", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMessagesController_StudentInquiryFansOut(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	require.NoError(t, env.db.Create(&entities.User{
		Username: "lib1", Role: entities.RoleLibrarian, Name: "L One",
	}).Error)
	require.NoError(t, env.db.Create(&entities.User{
		Username: "lib2", Role: entities.RoleLibrarian, Name: "L Two",
	}).Error)
	require.NoError(t, env.db.Create(&entities.User{
		Username: "ada", Role: entities.RoleStudent, Name: "Ada",
	}).Error)

	repo := messages.NewRepository(env.db)

	student := gin.New()
	student.Use(asUser(3, entities.RoleStudent, 0))
	studentController := NewMessagesController(repo)
	student.POST("/api/messages", studentController.SendMessage)

	w := jsonRequest(t, student, http.MethodPost, "/api/messages", gin.H{
		"subject": "Missing pages", "body": "My copy is damaged.",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 2, decodeBody(t, w)["recipients"])

	// Each librarian sees the inquiry in their inbox
	librarian := gin.New()
	librarian.Use(asUser(1, entities.RoleLibrarian, 0))
	librarianController := NewMessagesController(repo)
	librarian.GET("/api/messages", librarianController.Inbox)
	librarian.GET("/api/messages/unread-count", librarianController.UnreadCount)
	librarian.POST("/api/messages/:id/read", librarianController.MarkRead)

	w = jsonRequest(t, librarian, http.MethodGet, "/api/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeBody(t, w)["count"])

	w = jsonRequest(t, librarian, http.MethodGet, "/api/messages/unread-count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeBody(t, w)["unread"])

	// Only the recipient can mark their copy as read
	var msg entities.Message
	require.NoError(t, env.db.Where("to_user_id = ?", 2).First(&msg).Error)
	w = jsonRequest(t, librarian, http.MethodPost, "/api/messages/"+itoa(msg.ID)+"/read", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessagesController_ReplyMarksOriginalRead(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	require.NoError(t, env.db.Create(&entities.User{
		Username: "lib1", Role: entities.RoleLibrarian, Name: "L One",
	}).Error)
	require.NoError(t, env.db.Create(&entities.User{
		Username: "ada", Role: entities.RoleStudent, Name: "Ada",
	}).Error)

	repo := messages.NewRepository(env.db)
	studentID := uint(2)
	original, err := repo.Send(messages.SendParams{
		FromUserID: &studentID,
		ToUserID:   func() *uint { id := uint(1); return &id }(),
		Subject:    "Hold question",
		Body:       "Can I extend my hold?",
		Type:       entities.MessageTypeStudentInquiry,
	})
	require.NoError(t, err)

	librarian := gin.New()
	librarian.Use(asUser(1, entities.RoleLibrarian, 0))
	controller := NewMessagesController(repo)
	librarian.POST("/api/messages", controller.SendMessage)

	w := jsonRequest(t, librarian, http.MethodPost, "/api/messages", gin.H{
		"in_reply_to": original.ID,
		"subject":     "Re: Hold question",
		"body":        "Yes, by three days.",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Reply is addressed to the original sender and typed as a reply
	var reply entities.Message
	require.NoError(t, env.db.Where("subject = ?", "Re: Hold question").First(&reply).Error)
	require.NotNil(t, reply.ToUserID)
	assert.Equal(t, studentID, *reply.ToUserID)
	assert.Equal(t, entities.MessageTypeLibrarianReply, reply.Type)

	// Original is now read
	var refreshed entities.Message
	require.NoError(t, env.db.First(&refreshed, original.ID).Error)
	assert.True(t, refreshed.IsRead)

	// Replying to a message addressed to someone else fails
	other, err := repo.Send(messages.SendParams{
		FromUserID: &studentID,
		ToUserID:   &studentID,
		Subject:    "note to self", Body: "x",
	})
	require.NoError(t, err)
	w = jsonRequest(t, librarian, http.MethodPost, "/api/messages", gin.H{
		"in_reply_to": other.ID,
		"subject":     "Re: note", "body": "y",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsController_Dashboard(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	env.addBook(t, "978-1", "Dune")
	env.addBook(t, "978-2", "Hyperion")
	memberID := env.addMember(t, "Ada")
	_, err := env.circulation.IssueLoan("978-1", memberID)
	require.NoError(t, err)

	router := gin.New()
	router.Use(asUser(1, entities.RoleLibrarian, 0))
	router.GET("/api/stats/dashboard", NewStatsController(env.db).Dashboard)

	w := jsonRequest(t, router, http.MethodGet, "/api/stats/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats DashboardStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.TotalBooks)
	assert.Equal(t, int64(1), stats.AvailableBooks)
	assert.Equal(t, int64(1), stats.ActiveMembers)
	assert.Equal(t, int64(1), stats.OutstandingLoans)
	assert.Equal(t, int64(0), stats.OverdueLoans)
}

func TestSettingsController_UpdateAndGet(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	router := gin.New()
	router.Use(asUser(1, entities.RoleLibrarian, 0))
	controller := NewSettingsController(settings.NewRepository(env.db), env.auditor)
	router.GET("/api/settings/:key", controller.GetSetting)
	router.PUT("/api/settings/:key", controller.UpdateSetting)

	w := jsonRequest(t, router, http.MethodPut, "/api/settings/max_renewals", gin.H{
		"value": "5", "description": "Maximum renewals",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = jsonRequest(t, router, http.MethodGet, "/api/settings/max_renewals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", decodeBody(t, w)["value"])

	w = jsonRequest(t, router, http.MethodGet, "/api/settings/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMembersController_RegisterAndRemove(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	router := gin.New()
	router.Use(asUser(1, entities.RoleLibrarian, 0))
	controller := NewMembersController(members.NewRepository(env.db), env.circulation, env.auditor)
	router.POST("/api/members", controller.RegisterMember)
	router.DELETE("/api/members/:id", controller.RemoveMember)

	w := jsonRequest(t, router, http.MethodPost, "/api/members", gin.H{
		"name": "Ada Lovelace", "contact_info": "ada@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	memberID := uint(decodeBody(t, w)["id"].(float64))

	// Member with an outstanding loan cannot be removed
	env.addBook(t, "978-1", "Dune")
	_, err := env.circulation.IssueLoan("978-1", memberID)
	require.NoError(t, err)

	w = jsonRequest(t, router, http.MethodDelete, "/api/members/"+itoa(memberID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	_, err = env.circulation.ReturnLoan(1)
	require.NoError(t, err)

	w = jsonRequest(t, router, http.MethodDelete, "/api/members/"+itoa(memberID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = jsonRequest(t, router, http.MethodDelete, "/api/members/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
