package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(event *entities.AuditLog) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.Create(event).Error
}

// GetEvents retrieves paginated audit events, ordered by most recent
// first. A zero userID matches all users; an empty action matches all
// actions.
func (r *Repository) GetEvents(userID uint, action string, limit, offset int) ([]entities.AuditLog, int64, error) {
	var events []entities.AuditLog
	var total int64

	query := r.db.Model(&entities.AuditLog{})
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if action != "" {
		query = query.Where("action = ?", action)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// GetEventsForRecord retrieves the history of a single row, most
// recent first.
func (r *Repository) GetEventsForRecord(tableName, recordID string) ([]entities.AuditLog, error) {
	var events []entities.AuditLog
	err := r.db.Where("table_name = ? AND record_id = ?", tableName, recordID).
		Order("created_at DESC").Find(&events).Error
	return events, err
}

// GetRecentEvents retrieves audit events since a specific time.
func (r *Repository) GetRecentEvents(userID uint, since time.Time) ([]entities.AuditLog, error) {
	var events []entities.AuditLog
	query := r.db.Where("created_at > ?", since).Order("created_at DESC")
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	err := query.Find(&events).Error
	return events, err
}

// DeleteOldEvents removes audit events older than the specified time.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(olderThan time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", olderThan).Delete(&entities.AuditLog{})
	return result.RowsAffected, result.Error
}
