// Package audit provides high-level helpers for the append-only audit
// trail. Writes are fire-and-forget: a failed audit insert is logged
// and never fails the operation being audited.
package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/openshelf/openshelf/internal/database/audit"
	"github.com/openshelf/openshelf/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records an audit event synchronously.
func (s *Service) Log(event *entities.AuditLog) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditLog) {
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// LogChange records a row mutation with before/after JSON snapshots.
// Nil snapshots are stored as empty strings.
func (s *Service) LogChange(userID uint, action, tableName, recordID string, oldValues, newValues any, ipAddr string) {
	event := &entities.AuditLog{
		UserID:      userID,
		Action:      action,
		EntityTable: tableName,
		RecordID:    recordID,
		OldValues:   marshalSnapshot(oldValues),
		NewValues:   marshalSnapshot(newValues),
		IPAddress:   ipAddr,
	}

	s.LogAsync(event)
}

// LogAction records an event that is not tied to a single row, such as
// a batch job or a login.
func (s *Service) LogAction(userID uint, action, ipAddr string) {
	s.LogAsync(&entities.AuditLog{
		UserID:    userID,
		Action:    action,
		IPAddress: ipAddr,
	})
}

// GetEvents retrieves paginated audit events, newest first.
func (s *Service) GetEvents(userID uint, action string, limit, offset int) ([]entities.AuditLog, int64, error) {
	return s.repo.GetEvents(userID, action, limit, offset)
}

// RecordHistory retrieves the audit trail of a single row.
func (s *Service) RecordHistory(tableName, recordID string) ([]entities.AuditLog, error) {
	return s.repo.GetEventsForRecord(tableName, recordID)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func marshalSnapshot(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
