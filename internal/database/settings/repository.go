// Package settings provides database operations for system settings.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	setting, err := repo.GetSetting(entities.SettingKeyFinePerDay)
package settings

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

var ErrNotFound = errors.New("setting not found")

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting retrieves a setting by key.
func (r *Repository) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &setting, nil
}

// SetSetting creates or updates a setting. The description is only
// written on create so seeded descriptions survive value changes.
func (r *Repository) SetSetting(key, value, description string) error {
	var setting entities.Setting
	result := r.db.Where("key = ?", key).First(&setting)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		setting = entities.Setting{
			Key:         key,
			Value:       value,
			Description: description,
		}
		return r.db.Create(&setting).Error
	} else if result.Error != nil {
		return result.Error
	}

	setting.Value = value
	return r.db.Save(&setting).Error
}

// ListSettings returns all settings ordered by key.
func (r *Repository) ListSettings() ([]entities.Setting, error) {
	var all []entities.Setting
	err := r.db.Order("key").Find(&all).Error
	return all, err
}

// DeleteSetting removes a setting by key.
func (r *Repository) DeleteSetting(key string) error {
	return r.db.Where("key = ?", key).Delete(&entities.Setting{}).Error
}
