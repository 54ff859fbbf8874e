package entities

import (
	"time"
)

type Setting struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value       string    `gorm:"type:text" json:"value"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "system_settings"
}

// Known setting keys
const (
	SettingKeyDefaultLoanPeriod   = "default_loan_period"
	SettingKeyMaxRenewals         = "max_renewals"
	SettingKeyFinePerDay          = "fine_per_day"
	SettingKeyMaxBooksPerMember   = "max_books_per_member"
	SettingKeyReservationHoldDays = "reservation_hold_days"
	SettingKeyLibraryName         = "library_name"
	SettingKeyLibraryEmail        = "library_email"
	SettingKeyLibraryPhone        = "library_phone"
)
