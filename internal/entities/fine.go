package entities

import "time"

type FineType string

const (
	FineTypeOverdue FineType = "overdue"
	FineTypeDamage  FineType = "damage"
	FineTypeLost    FineType = "lost"
)

type FineStatus string

const (
	FineStatusUnpaid FineStatus = "unpaid"
	FineStatusPaid   FineStatus = "paid"
)

// Fine is a charge against a member, usually created by the overdue batch
// job. The loan link is nullable: a fine can outlive its loan's linkage.
// Fines are never deleted, only marked paid.
type Fine struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	MemberID    uint       `gorm:"index" json:"member_id"`
	LoanID      *uint      `gorm:"index" json:"loan_id,omitempty"`
	Type        FineType   `gorm:"size:20" json:"type"`
	Amount      float64    `json:"amount"`
	IssueDate   time.Time  `json:"issue_date"`
	PaidDate    *time.Time `json:"paid_date,omitempty"`
	Status      FineStatus `gorm:"index;size:20;default:'unpaid'" json:"status"`
	Description string     `gorm:"size:500" json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Fine) TableName() string {
	return "fines"
}
