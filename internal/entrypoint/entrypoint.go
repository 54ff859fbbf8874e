package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	auditsvc "github.com/openshelf/openshelf/internal/audit"
	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/circulation"
	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/database/announcements"
	auditdb "github.com/openshelf/openshelf/internal/database/audit"
	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/database/members"
	"github.com/openshelf/openshelf/internal/database/messages"
	"github.com/openshelf/openshelf/internal/database/settings"
	http_controllers "github.com/openshelf/openshelf/internal/http"
	"github.com/openshelf/openshelf/internal/notify"
	"github.com/openshelf/openshelf/internal/scheduler"
	"github.com/openshelf/openshelf/internal/settingsstore"
	"github.com/openshelf/openshelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then drains it.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the application together and serves it.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting OpenShelf v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Repositories and domain services
	booksRepo := books.NewRepository(db.DB)
	membersRepo := members.NewRepository(db.DB)
	messagesRepo := messages.NewRepository(db.DB)
	announcementsRepo := announcements.NewRepository(db.DB)
	settingsRepo := settings.NewRepository(db.DB)

	store := settingsstore.New(settingsRepo)
	circulationService := circulation.NewService(db.DB, store)
	auditor := auditsvc.NewService(auditdb.NewRepository(db.DB))

	mailer := notify.NewMailer(cfg.SMTP)
	reminderService := notify.NewService(db.DB, mailer, store)
	if !mailer.Enabled() {
		log.Printf("SMTP not configured, reminder mail disabled")
	}

	// Task queue and scheduler
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var jobScheduler *scheduler.Scheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromAppConfig(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewCalculateFinesQueue(circulationService),
			tasks.NewSendRemindersQueue(reminderService),
			tasks.NewExpireReservationsQueue(circulationService),
			tasks.NewCleanupAuditEventsQueue(auditor),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		jobScheduler = scheduler.New(cfg.Schedules, taskClient)
		if err := jobScheduler.Start(taskCtx); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
	} else {
		log.Printf("Task queue disabled, periodic jobs will not run")
	}

	// Authentication
	authService := auth.NewService(db.DB, cfg.Auth)

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}
	authMiddleware := auth.NewMiddleware(authService, sessionManager)

	var csrfSecret []byte
	if cfg.Auth.SessionSecret != "" {
		csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
		if err != nil {
			// Not hex, use as raw bytes
			csrfSecret = []byte(cfg.Auth.SessionSecret)
		}
	} else {
		secret, err := auth.GenerateSessionSecret()
		if err != nil {
			log.Fatalf("Failed to generate CSRF secret: %v", err)
		}
		csrfSecret, _ = hex.DecodeString(secret)
		log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	}

	hasUsers, _ := authService.HasUsers()
	if !hasUsers {
		log.Printf("No users found. Run '%s create-user' to create a librarian account.", os.Args[0])
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		Circulation:    circulationService,
		Auditor:        auditor,
		Books:          booksRepo,
		Members:        membersRepo,
		Messages:       messagesRepo,
		Announcements:  announcementsRepo,
		Settings:       settingsRepo,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		SessionManager: sessionManager,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		if jobScheduler != nil {
			jobScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
