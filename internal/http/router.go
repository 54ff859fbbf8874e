package http

import (
	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by
	// CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	router.Use(cfg.AuthMiddleware.Handler())

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	// Login, logout and student signup
	authController, err := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.TemplatesPath, cfg.AuthConfig)
	if err == nil {
		authController.RegisterRoutes(router)
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.Books, cfg.Auditor)
	membersController := NewMembersController(cfg.Members, cfg.Circulation, cfg.Auditor)
	loansController := NewLoansController(cfg.Circulation, cfg.Auditor)
	finesController := NewFinesController(cfg.Circulation, cfg.Auditor)
	reservationsController := NewReservationsController(cfg.Circulation, cfg.Auditor)
	messagesController := NewMessagesController(cfg.Messages)
	announcementsController := NewAnnouncementsController(cfg.Announcements, cfg.Auditor)
	settingsController := NewSettingsController(cfg.Settings, cfg.Auditor)
	statsController := NewStatsController(cfg.Database.DB)
	auditController := NewAuditController(cfg.Auditor)
	myController := NewMyController(cfg.Circulation, cfg.Auditor)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Catalog endpoints, readable by any signed-in user
	router.GET("/api/books", booksController.ListBooks)
	router.GET("/api/books/search", booksController.SearchBooks)
	router.GET("/api/books/advanced-search", booksController.AdvancedSearch)
	router.GET("/api/books/popular", booksController.PopularBooks)
	router.GET("/api/books/:isbn", booksController.GetBook)
	router.GET("/api/categories", booksController.ListCategories)

	// Messaging endpoints
	router.POST("/api/messages", messagesController.SendMessage)
	router.GET("/api/messages", messagesController.Inbox)
	router.GET("/api/messages/unread-count", messagesController.UnreadCount)
	router.GET("/api/messages/:id", messagesController.GetMessage)
	router.POST("/api/messages/:id/read", messagesController.MarkRead)

	// Announcements visible to the caller's role
	router.GET("/api/announcements/active", announcementsController.ActiveAnnouncements)

	// Student self-service endpoints
	my := router.Group("/api/my")
	my.Use(cfg.AuthMiddleware.RequireStudent())
	{
		my.GET("/loans", myController.MyLoans)
		my.POST("/loans/:id/renew", myController.RenewMyLoan)
		my.GET("/fines", myController.MyFines)
		my.GET("/reservations", myController.MyReservations)
		my.POST("/reservations", myController.ReserveBook)
		my.DELETE("/reservations/:id", myController.CancelMyReservation)
	}

	// Librarian endpoints
	staff := router.Group("/api")
	staff.Use(cfg.AuthMiddleware.RequireLibrarian())
	{
		staff.POST("/books", booksController.CreateBook)
		staff.POST("/categories", booksController.CreateCategory)

		staff.POST("/members", membersController.RegisterMember)
		staff.GET("/members", membersController.ListMembers)
		staff.GET("/members/:id", membersController.GetMember)
		staff.PUT("/members/:id/tier", membersController.UpdateMemberTier)
		staff.DELETE("/members/:id", membersController.RemoveMember)
		staff.GET("/members/:id/loans", membersController.MemberLoans)
		staff.GET("/members/:id/fines", membersController.MemberFines)
		staff.GET("/members/:id/reservations", membersController.MemberReservations)
		staff.GET("/tiers", membersController.ListTiers)

		staff.POST("/loans", loansController.IssueLoan)
		staff.GET("/loans", loansController.ListLoans)
		staff.POST("/loans/:id/return", loansController.ReturnLoan)
		staff.POST("/loans/:id/renew", loansController.RenewLoan)

		staff.GET("/fines", finesController.ListUnpaidFines)
		staff.POST("/fines/calculate", finesController.CalculateFines)
		staff.POST("/fines/:id/pay", finesController.PayFine)

		staff.POST("/reservations", reservationsController.CreateReservation)
		staff.GET("/reservations", reservationsController.ListActiveReservations)
		staff.DELETE("/reservations/:id", reservationsController.CancelReservation)
		staff.POST("/reservations/expire", reservationsController.ExpireReservations)

		staff.POST("/announcements", announcementsController.CreateAnnouncement)
		staff.GET("/announcements", announcementsController.ListAnnouncements)
		staff.DELETE("/announcements/:id", announcementsController.DeactivateAnnouncement)

		staff.GET("/settings", settingsController.ListSettings)
		staff.GET("/settings/:key", settingsController.GetSetting)
		staff.PUT("/settings/:key", settingsController.UpdateSetting)

		staff.GET("/stats/dashboard", statsController.Dashboard)

		staff.GET("/audit", auditController.ListEvents)
		staff.GET("/audit/:table/:id", auditController.RecordHistory)
	}

	return router
}
