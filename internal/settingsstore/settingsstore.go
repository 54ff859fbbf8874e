// Package settingsstore exposes typed accessors over the system_settings
// table. Priority: database > built-in default.
package settingsstore

import (
	"strconv"

	"github.com/openshelf/openshelf/internal/database/settings"
	"github.com/openshelf/openshelf/internal/entities"
)

// Built-in fallbacks, used when a setting row is missing or unparsable.
const (
	DefaultLoanPeriodDays      = 14
	DefaultMaxRenewals         = 2
	DefaultFinePerDay          = 0.50
	DefaultMaxBooksPerMember   = 3
	DefaultReservationHoldDays = 3
	DefaultLibraryName         = "City Library"
)

type SettingsStore struct {
	repo *settings.Repository
}

func New(repo *settings.Repository) *SettingsStore {
	return &SettingsStore{repo: repo}
}

func (s *SettingsStore) intSetting(key string, fallback int) int {
	setting, err := s.repo.GetSetting(key)
	if err != nil {
		return fallback
	}
	value, err := strconv.Atoi(setting.Value)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func (s *SettingsStore) floatSetting(key string, fallback float64) float64 {
	setting, err := s.repo.GetSetting(key)
	if err != nil {
		return fallback
	}
	value, err := strconv.ParseFloat(setting.Value, 64)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func (s *SettingsStore) stringSetting(key, fallback string) string {
	setting, err := s.repo.GetSetting(key)
	if err != nil || setting.Value == "" {
		return fallback
	}
	return setting.Value
}

// DefaultLoanPeriod returns the loan period in days used when a member's
// tier does not define one.
func (s *SettingsStore) DefaultLoanPeriod() int {
	return s.intSetting(entities.SettingKeyDefaultLoanPeriod, DefaultLoanPeriodDays)
}

// MaxRenewals returns how many times a single loan may be renewed.
func (s *SettingsStore) MaxRenewals() int {
	return s.intSetting(entities.SettingKeyMaxRenewals, DefaultMaxRenewals)
}

// FinePerDay returns the fallback daily fine rate for members whose tier
// does not define one.
func (s *SettingsStore) FinePerDay() float64 {
	return s.floatSetting(entities.SettingKeyFinePerDay, DefaultFinePerDay)
}

// MaxBooksPerMember returns the fallback loan cap for members whose tier
// does not define one.
func (s *SettingsStore) MaxBooksPerMember() int {
	return s.intSetting(entities.SettingKeyMaxBooksPerMember, DefaultMaxBooksPerMember)
}

// ReservationHoldDays returns how long a new reservation stays active.
func (s *SettingsStore) ReservationHoldDays() int {
	return s.intSetting(entities.SettingKeyReservationHoldDays, DefaultReservationHoldDays)
}

// LibraryName returns the display name used in pages and notifications.
func (s *SettingsStore) LibraryName() string {
	return s.stringSetting(entities.SettingKeyLibraryName, DefaultLibraryName)
}

// LibraryEmail returns the library's contact address.
func (s *SettingsStore) LibraryEmail() string {
	return s.stringSetting(entities.SettingKeyLibraryEmail, "")
}

// LibraryPhone returns the library's contact phone number.
func (s *SettingsStore) LibraryPhone() string {
	return s.stringSetting(entities.SettingKeyLibraryPhone, "")
}
