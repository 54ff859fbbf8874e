package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/openshelf/openshelf/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuth injects an authenticated user into the Gin context, standing
// in for the session handler in route-level tests.
func fakeAuth(userID uint, role entities.UserRole, memberID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyRole, role)
		if memberID != 0 {
			c.Set(ContextKeyMemberID, memberID)
		}
		c.Next()
	}
}

func TestRequireRole(t *testing.T) {
	m := NewMiddleware(nil, nil)

	tests := []struct {
		name       string
		role       entities.UserRole
		guard      gin.HandlerFunc
		wantStatus int
	}{
		{"librarian passes librarian guard", entities.RoleLibrarian, m.RequireLibrarian(), http.StatusOK},
		{"student blocked by librarian guard", entities.RoleStudent, m.RequireLibrarian(), http.StatusForbidden},
		{"student passes student guard", entities.RoleStudent, m.RequireStudent(), http.StatusOK},
		{"librarian blocked by student guard", entities.RoleLibrarian, m.RequireStudent(), http.StatusForbidden},
		{"inactive student blocked everywhere", entities.RoleInactiveStudent, m.RequireStudent(), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/guarded", fakeAuth(1, tt.role, 0), tt.guard, func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRequireRole_JSONErrorForAPIRequests(t *testing.T) {
	m := NewMiddleware(nil, nil)
	router := gin.New()
	router.GET("/api/guarded", fakeAuth(1, entities.RoleStudent, 0), m.RequireLibrarian(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/guarded", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient permissions")
}

func TestContextHelpers(t *testing.T) {
	router := gin.New()
	router.GET("/whoami", fakeAuth(7, entities.RoleStudent, 3), func(c *gin.Context) {
		assert.Equal(t, uint(7), GetUserID(c))
		assert.Equal(t, entities.RoleStudent, GetUserRole(c))
		assert.Equal(t, uint(3), GetMemberID(c))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestContextHelpers_Unauthenticated(t *testing.T) {
	router := gin.New()
	router.GET("/whoami", func(c *gin.Context) {
		assert.Zero(t, GetUserID(c))
		assert.Empty(t, GetUserRole(c))
		assert.Zero(t, GetMemberID(c))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddlewareHandler_PublicPaths(t *testing.T) {
	m := NewMiddleware(nil, nil)
	router := gin.New()
	router.Use(m.Handler())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/books", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Protected API path without a session gets 401.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareHandler_RedirectsBrowsers(t *testing.T) {
	m := NewMiddleware(nil, nil)
	router := gin.New()
	router.Use(m.Handler())
	router.GET("/books", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Accept", "text/html")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/login")
}

func TestSanitizeRedirectPath(t *testing.T) {
	assert.Equal(t, "/books", sanitizeRedirectPath("/books"))
	assert.Equal(t, "/", sanitizeRedirectPath(""))
	assert.Equal(t, "/", sanitizeRedirectPath("//evil.com"))
	assert.Equal(t, "/", sanitizeRedirectPath("https://evil.com"))
	assert.Equal(t, "/", sanitizeRedirectPath("/\\evil"))
	assert.Equal(t, "/", sanitizeRedirectPath("relative"))
}
