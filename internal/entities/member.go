package entities

import "time"

type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// Member is a borrower record. Distinct from User: a User is a login,
// a Member is the party loans and fines are booked against. Members are
// soft-deleted by flipping Status to inactive so historical loans, fines
// and reservations stay queryable.
type Member struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	Name             string       `gorm:"index;size:256" json:"name"`
	ContactInfo      string       `gorm:"size:256" json:"contact_info,omitempty"`
	Address          string       `gorm:"size:512" json:"address,omitempty"`
	DateOfBirth      *time.Time   `json:"date_of_birth,omitempty"`
	RegistrationDate time.Time    `json:"registration_date"`
	TierID           uint         `gorm:"index;default:1" json:"tier_id"`
	Status           MemberStatus `gorm:"size:20;default:'active'" json:"status"`
	Tier             MemberTier   `gorm:"foreignKey:TierID" json:"tier,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// MemberTier defines borrowing limits, loan period and fine rate for a
// membership class. Read-only reference data, seeded at startup.
type MemberTier struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	Name           string  `gorm:"uniqueIndex;size:100" json:"name"`
	MaxBooks       int     `gorm:"default:3" json:"max_books"`
	LoanPeriodDays int     `gorm:"default:14" json:"loan_period_days"`
	FinePerDay     float64 `gorm:"default:0.5" json:"fine_per_day"`
	Description    string  `gorm:"size:500" json:"description,omitempty"`
}

func (Member) TableName() string {
	return "members"
}

func (MemberTier) TableName() string {
	return "member_tiers"
}
