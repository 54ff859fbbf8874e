package http

import (
	"github.com/openshelf/openshelf/internal/audit"
	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/circulation"
	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/database/announcements"
	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/database/members"
	"github.com/openshelf/openshelf/internal/database/messages"
	"github.com/openshelf/openshelf/internal/database/settings"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces a long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database    *database.Database
	Circulation *circulation.Service
	Auditor     *audit.Service

	// Repositories
	Books         *books.Repository
	Members       *members.Repository
	Messages      *messages.Repository
	Announcements *announcements.Repository
	Settings      *settings.Repository

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// UI paths
	TemplatesPath string
	StaticPath    string

	// Application info
	Version string
}
