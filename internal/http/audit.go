package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/audit"
)

type AuditController struct {
	service *audit.Service
}

func NewAuditController(service *audit.Service) *AuditController {
	return &AuditController{service: service}
}

// ListEvents returns paginated audit events, newest first. Supports
// ?user_id=, ?action=, ?limit= and ?offset= filters.
func (controller *AuditController) ListEvents(c *gin.Context) {
	userID := uint(parseQueryInt(c, "user_id", 0))
	action := c.Query("action")
	limit := parseQueryInt(c, "limit", 50)
	offset := parseQueryInt(c, "offset", 0)

	events, total, err := controller.service.GetEvents(userID, action, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}

// RecordHistory returns the audit trail of one row, oldest first.
func (controller *AuditController) RecordHistory(c *gin.Context) {
	table := c.Param("table")
	recordID := c.Param("id")

	events, err := controller.service.RecordHistory(table, recordID)
	if err != nil {
		respondInternalError(c, err, "record history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
