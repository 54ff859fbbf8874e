package auth

import (
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/config"
)

// isLocalPath validates that a redirect path is local to prevent open
// redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") {
		return false
	}
	if strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// AuthController handles login, student registration and logout.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	templates      *template.Template
	config         config.Auth
	rateLimiter    *RateLimiter
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, sessionManager *SessionManager, templatesPath string, cfg config.Auth) (*AuthController, error) {
	// Parse auth templates; controllers fall back to JSON without them
	pattern := filepath.Join(templatesPath, "auth", "*.html")
	tmpl, err := template.ParseGlob(pattern)
	if err != nil {
		tmpl = nil
	}

	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		templates:      tmpl,
		config:         cfg,
		rateLimiter:    rateLimiter,
	}, nil
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout) // Support GET for simple logout links
	router.GET("/register", ac.RegisterPage)
	router.POST("/register", ac.Register)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if ac.sessionManager != nil && ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	ac.renderTemplate(c, "login.html", gin.H{
		"Title":     "Login",
		"Next":      sanitizeRedirectPath(c.Query("next")),
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))
	clientIP := c.ClientIP()

	if ac.rateLimiter != nil {
		allowed, retryAfter := ac.rateLimiter.Allow(clientIP, username)
		if !allowed {
			c.Header("Retry-After", retryAfter.String())
			ac.renderError(c, http.StatusTooManyRequests, "login.html", gin.H{
				"Title":      "Login",
				"Next":       next,
				"Username":   username,
				"CSRFToken":  GetCSRFToken(c),
				"Error":      "Too many login attempts. Please try again later.",
				"RetryAfter": retryAfter.String(),
			})
			return
		}
	}

	user, err := ac.service.Authenticate(username, password)
	if err != nil {
		if ac.rateLimiter != nil {
			ac.rateLimiter.RecordFailure(clientIP, username)
		}

		errorMsg := "Invalid username or password"
		if errors.Is(err, ErrAccountLocked) {
			errorMsg = "Account is locked. Please try again later."
		}

		ac.renderError(c, http.StatusUnauthorized, "login.html", gin.H{
			"Title":     "Login",
			"Next":      next,
			"Username":  username,
			"CSRFToken": GetCSRFToken(c),
			"Error":     errorMsg,
		})
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, username)
	}

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
			ac.renderError(c, http.StatusInternalServerError, "login.html", gin.H{
				"Title":     "Login",
				"Next":      next,
				"Username":  username,
				"CSRFToken": GetCSRFToken(c),
				"Error":     "Failed to create session",
			})
			return
		}
	}

	c.Redirect(http.StatusFound, next)
}

// Logout destroys the session and redirects to login.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		_ = ac.sessionManager.DestroySession(c.Request)
	}
	c.Redirect(http.StatusFound, "/login")
}

// RegisterPage renders the student signup form.
func (ac *AuthController) RegisterPage(c *gin.Context) {
	if ac.sessionManager != nil && ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	ac.renderTemplate(c, "register.html", gin.H{
		"Title":     "Register",
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Register handles the student signup form. It creates the login and
// the borrower record behind it; librarian accounts are created by the
// create-user CLI command, never here.
func (ac *AuthController) Register(c *gin.Context) {
	params := RegisterStudentParams{
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
		Name:     c.PostForm("name"),
		Email:    c.PostForm("email"),
		Address:  c.PostForm("address"),
	}

	if params.Password != c.PostForm("confirm_password") {
		ac.renderError(c, http.StatusBadRequest, "register.html", gin.H{
			"Title":     "Register",
			"Username":  params.Username,
			"Name":      params.Name,
			"Email":     params.Email,
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Passwords do not match",
		})
		return
	}

	user, err := ac.service.RegisterStudent(params)
	if err != nil {
		status := http.StatusBadRequest
		errorMsg := "Failed to create account"
		switch {
		case errors.Is(err, ErrPasswordTooShort):
			errorMsg = "Password must be at least 8 characters"
		case errors.Is(err, ErrPasswordTooLong):
			errorMsg = "Password exceeds maximum length of 72 characters"
		case errors.Is(err, ErrUsernameRequired), errors.Is(err, ErrUsernameInvalid):
			errorMsg = "Username must be 3-64 characters, alphanumeric with underscore/hyphen only"
		case errors.Is(err, ErrNameRequired):
			errorMsg = "Name is required"
		case errors.Is(err, ErrUserExists):
			status = http.StatusConflict
			errorMsg = "Username is already taken"
		default:
			status = http.StatusInternalServerError
		}

		ac.renderError(c, status, "register.html", gin.H{
			"Title":     "Register",
			"Username":  params.Username,
			"Name":      params.Name,
			"Email":     params.Email,
			"CSRFToken": GetCSRFToken(c),
			"Error":     errorMsg,
		})
		return
	}

	if ac.sessionManager != nil {
		_ = ac.sessionManager.CreateSession(c.Request, user)
	}

	c.Redirect(http.StatusFound, "/")
}

// renderTemplate renders an auth template or falls back to JSON.
func (ac *AuthController) renderTemplate(c *gin.Context, name string, data gin.H) {
	if ac.templates == nil {
		c.JSON(http.StatusOK, data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		c.String(http.StatusInternalServerError, "Template error: %v", err)
	}
}

// renderError renders a template with a non-200 status, or the same
// payload as JSON when templates are absent.
func (ac *AuthController) renderError(c *gin.Context, status int, name string, data gin.H) {
	if ac.templates == nil {
		c.JSON(status, data)
		return
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		c.String(http.StatusInternalServerError, "Template error: %v", err)
	}
}
