// Package announcements provides database operations for library-wide
// notices shown on the dashboard.
package announcements

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

var ErrNotFound = errors.New("announcement not found")

// Repository handles all announcement database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new announcements repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateParams describes a new announcement.
type CreateParams struct {
	Title     string
	Content   string
	CreatedBy uint
	ExpiresOn *time.Time
	Priority  entities.MessagePriority
	Audience  entities.Audience
}

// Create publishes a new active announcement.
func (r *Repository) Create(params CreateParams) (*entities.Announcement, error) {
	announcement := &entities.Announcement{
		Title:     params.Title,
		Content:   params.Content,
		CreatedBy: params.CreatedBy,
		ExpiresOn: params.ExpiresOn,
		Priority:  params.Priority,
		Status:    entities.AnnouncementStatusActive,
		Audience:  params.Audience,
	}
	if announcement.Priority == "" {
		announcement.Priority = entities.PriorityNormal
	}
	if announcement.Audience == "" {
		announcement.Audience = entities.AudienceAll
	}

	if err := r.db.Create(announcement).Error; err != nil {
		return nil, err
	}
	return announcement, nil
}

// GetByID retrieves a single announcement.
func (r *Repository) GetByID(id uint) (*entities.Announcement, error) {
	var announcement entities.Announcement
	err := r.db.Preload("Creator").First(&announcement, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &announcement, nil
}

// ListAll returns every announcement, newest first. Used by librarians
// to manage past notices.
func (r *Repository) ListAll() ([]entities.Announcement, error) {
	var announcements []entities.Announcement
	err := r.db.Preload("Creator").Order("created_at DESC").Find(&announcements).Error
	return announcements, err
}

// ActiveFor returns active, unexpired announcements visible to the
// audience, newest first. Announcements addressed to "all" are always
// included.
func (r *Repository) ActiveFor(audience entities.Audience, now time.Time) ([]entities.Announcement, error) {
	var announcements []entities.Announcement
	err := r.db.Preload("Creator").
		Where("status = ?", entities.AnnouncementStatusActive).
		Where("audience IN ?", []entities.Audience{entities.AudienceAll, audience}).
		Where("expires_on IS NULL OR expires_on >= ?", now).
		Order("created_at DESC").
		Find(&announcements).Error
	return announcements, err
}

// Deactivate takes an announcement off the dashboard without deleting it.
func (r *Repository) Deactivate(id uint) error {
	result := r.db.Model(&entities.Announcement{}).Where("id = ?", id).
		Update("status", entities.AnnouncementStatusInactive)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
