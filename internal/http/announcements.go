package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/audit"
	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database/announcements"
	"github.com/openshelf/openshelf/internal/entities"
)

type AnnouncementsController struct {
	repo    *announcements.Repository
	auditor *audit.Service
}

func NewAnnouncementsController(repo *announcements.Repository, auditor *audit.Service) *AnnouncementsController {
	return &AnnouncementsController{
		repo:    repo,
		auditor: auditor,
	}
}

type createAnnouncementRequest struct {
	Title     string                   `json:"title" binding:"required"`
	Content   string                   `json:"content" binding:"required"`
	ExpiresOn string                   `json:"expires_on"` // YYYY-MM-DD, optional
	Priority  entities.MessagePriority `json:"priority"`
	Audience  entities.Audience        `json:"audience"`
}

// CreateAnnouncement posts a new announcement.
func (controller *AnnouncementsController) CreateAnnouncement(c *gin.Context) {
	var req createAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title and content are required")
		return
	}

	params := announcements.CreateParams{
		Title:     req.Title,
		Content:   req.Content,
		CreatedBy: auth.GetUserID(c),
		Priority:  req.Priority,
		Audience:  req.Audience,
	}
	if req.ExpiresOn != "" {
		expires, err := time.Parse("2006-01-02", req.ExpiresOn)
		if err != nil {
			respondBadRequest(c, "expires_on must be YYYY-MM-DD")
			return
		}
		params.ExpiresOn = &expires
	}

	announcement, err := controller.repo.Create(params)
	if err != nil {
		respondInternalError(c, err, "create announcement")
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "create_announcement", "announcements", strconv.FormatUint(uint64(announcement.ID), 10), nil, announcement, c.ClientIP())
	respondCreated(c, announcement)
}

// ActiveAnnouncements returns unexpired active announcements visible to
// the current user's role.
func (controller *AnnouncementsController) ActiveAnnouncements(c *gin.Context) {
	audience := entities.AudienceLibrarians
	if auth.GetUserRole(c) == entities.RoleStudent {
		audience = entities.AudienceStudents
	}

	list, err := controller.repo.ActiveFor(audience, time.Now())
	if err != nil {
		respondInternalError(c, err, "active announcements")
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": list, "count": len(list)})
}

// ListAnnouncements returns every announcement regardless of state.
func (controller *AnnouncementsController) ListAnnouncements(c *gin.Context) {
	list, err := controller.repo.ListAll()
	if err != nil {
		respondInternalError(c, err, "list announcements")
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": list, "count": len(list)})
}

// DeactivateAnnouncement takes an announcement down.
func (controller *AnnouncementsController) DeactivateAnnouncement(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.repo.Deactivate(id); err != nil {
		if errors.Is(err, announcements.ErrNotFound) {
			respondNotFound(c, "announcement")
			return
		}
		respondInternalError(c, err, "deactivate announcement")
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "deactivate_announcement", "announcements", strconv.FormatUint(uint64(id), 10), nil, nil, c.ClientIP())
	respondSuccess(c, "announcement deactivated")
}
