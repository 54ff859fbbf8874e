package entities

import "time"

// Loan links one Book and one Member. A loan with a nil ReturnDate is
// outstanding; at most one outstanding loan may exist per book, and a
// book's status must be Loaned exactly while such a loan exists.
type Loan struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	BookISBN     string     `gorm:"index;size:20" json:"book_isbn"`
	MemberID     uint       `gorm:"index" json:"member_id"`
	LoanDate     time.Time  `json:"loan_date"`
	DueDate      time.Time  `gorm:"index" json:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty"`
	RenewalCount int        `gorm:"default:0" json:"renewal_count"`
	Book         Book       `gorm:"foreignKey:BookISBN;references:ISBN" json:"book,omitempty"`
	Member       Member     `gorm:"foreignKey:MemberID" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Outstanding reports whether the loan has not been returned yet.
func (l Loan) Outstanding() bool {
	return l.ReturnDate == nil
}

// Overdue reports whether the loan is outstanding and past its due date.
func (l Loan) Overdue(now time.Time) bool {
	return l.Outstanding() && l.DueDate.Before(now)
}

func (Loan) TableName() string {
	return "loans"
}
