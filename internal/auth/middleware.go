package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyRole     = "auth_role"
	ContextKeyMemberID = "auth_member_id"
)

// Middleware resolves the session on each request and enforces role
// checks on protected routes.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	publicPaths    map[string]bool
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	publicPaths := map[string]bool{
		"/health":      true,
		"/ping":        true,
		"/login":       true,
		"/register":    true,
		"/favicon.ico": true,
	}

	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		publicPaths:    publicPaths,
	}
}

// Handler returns a Gin middleware that authenticates requests from
// their session cookie. Unauthenticated requests to protected paths get
// a 401 for API calls and a login redirect otherwise.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		if user := m.sessionUser(c); user != nil {
			c.Set(ContextKeyUserID, user.ID)
			c.Set(ContextKeyUsername, user.Username)
			c.Set(ContextKeyRole, user.Role)
			if user.MemberID != nil {
				c.Set(ContextKeyMemberID, *user.MemberID)
			}
			c.Next()
			return
		}

		if isAPIRequest(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		c.Redirect(http.StatusFound, "/login?next="+c.Request.URL.Path)
		c.Abort()
	}
}

// sessionUser resolves the session cookie to a user. A session whose
// user has since been demoted to inactive_student is treated as
// unauthenticated.
func (m *Middleware) sessionUser(c *gin.Context) *entities.User {
	if m.sessionManager == nil {
		return nil
	}

	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}

	user, err := m.service.GetUserByID(userID)
	if err != nil || !user.Role.Valid() {
		return nil
	}

	return user
}

func (m *Middleware) isPublicPath(path string) bool {
	if m.publicPaths[path] {
		return true
	}
	return strings.HasPrefix(path, "/static/")
}

// RequireRole returns a middleware that rejects requests whose
// authenticated role is not in the allowed set.
func (m *Middleware) RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	roleSet := make(map[entities.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		if !roleSet[GetUserRole(c)] {
			if isAPIRequest(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "insufficient permissions",
				})
			} else {
				c.AbortWithStatus(http.StatusForbidden)
			}
			return
		}
		c.Next()
	}
}

// RequireLibrarian gates staff-only routes.
func (m *Middleware) RequireLibrarian() gin.HandlerFunc {
	return m.RequireRole(entities.RoleLibrarian)
}

// RequireStudent gates routes scoped to the session's own member record.
func (m *Middleware) RequireStudent() gin.HandlerFunc {
	return m.RequireRole(entities.RoleStudent)
}

// isAPIRequest determines if this is an API request vs web browser request.
func isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// Helper functions to extract auth data from Gin context

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if not authenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}

// GetUserRole retrieves the authenticated user's role from the context.
func GetUserRole(c *gin.Context) entities.UserRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.UserRole); ok {
			return role
		}
	}
	return ""
}

// GetMemberID retrieves the authenticated student's member id from the
// context. Returns 0 for librarians and unauthenticated requests.
func GetMemberID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyMemberID); exists {
		if memberID, ok := id.(uint); ok {
			return memberID
		}
	}
	return 0
}
