package circulation

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// MemberFine is a fine row with the related book title when the fine is
// still linked to a loan.
type MemberFine struct {
	entities.Fine
	BookTitle string `json:"book_title,omitempty"`
}

// CalculateOverdueFines creates one overdue fine per overdue loan that
// does not already carry one. Amount is whole days overdue times the
// member tier's daily rate (fallback: fine_per_day setting). Running
// the batch twice creates no duplicates. Returns the number of fines
// created.
func (s *Service) CalculateOverdueFines() (int, error) {
	created := 0
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var overdue []entities.Loan
		err := tx.Preload("Member.Tier").Preload("Book").
			Where("return_date IS NULL AND due_date < ?", now).
			Find(&overdue).Error
		if err != nil {
			return err
		}

		for _, loan := range overdue {
			var existing int64
			err := tx.Model(&entities.Fine{}).
				Where("loan_id = ? AND type = ?", loan.ID, entities.FineTypeOverdue).
				Count(&existing).Error
			if err != nil {
				return err
			}
			if existing > 0 {
				continue
			}

			days := wholeDaysOverdue(loan.DueDate, now)
			if days <= 0 {
				continue
			}

			rate := loan.Member.Tier.FinePerDay
			if rate <= 0 {
				rate = s.settings.FinePerDay()
			}

			loanID := loan.ID
			fine := entities.Fine{
				MemberID:    loan.MemberID,
				LoanID:      &loanID,
				Type:        entities.FineTypeOverdue,
				Amount:      float64(days) * rate,
				IssueDate:   now,
				Status:      entities.FineStatusUnpaid,
				Description: fmt.Sprintf("Overdue by %d day(s): %s", days, loan.Book.Title),
			}
			if err := tx.Create(&fine).Error; err != nil {
				return fmt.Errorf("failed to create fine for loan %d: %w", loan.ID, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// PayFine marks a fine paid with today's date.
func (s *Service) PayFine(fineID uint) (*entities.Fine, error) {
	var fine entities.Fine

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&fine, fineID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFineNotFound
			}
			return err
		}
		if fine.Status == entities.FineStatusPaid {
			return ErrFineAlreadyPaid
		}

		now := time.Now()
		fine.Status = entities.FineStatusPaid
		fine.PaidDate = &now
		return tx.Model(&entities.Fine{}).Where("id = ?", fine.ID).Updates(map[string]any{
			"status":    entities.FineStatusPaid,
			"paid_date": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &fine, nil
}

// MemberFines returns a member's fines newest first, with the book
// title joined in where the fine is linked to a loan.
func (s *Service) MemberFines(memberID uint) ([]MemberFine, error) {
	var fines []MemberFine
	err := s.db.Table("fines").
		Select("fines.*, books.title AS book_title").
		Joins("LEFT JOIN loans ON loans.id = fines.loan_id").
		Joins("LEFT JOIN books ON books.isbn = loans.book_isbn").
		Where("fines.member_id = ?", memberID).
		Order("fines.issue_date DESC").
		Scan(&fines).Error
	return fines, err
}

// UnpaidFines returns all unpaid fines, newest first.
func (s *Service) UnpaidFines() ([]MemberFine, error) {
	var fines []MemberFine
	err := s.db.Table("fines").
		Select("fines.*, books.title AS book_title").
		Joins("LEFT JOIN loans ON loans.id = fines.loan_id").
		Joins("LEFT JOIN books ON books.isbn = loans.book_isbn").
		Where("fines.status = ?", entities.FineStatusUnpaid).
		Order("fines.issue_date DESC").
		Scan(&fines).Error
	return fines, err
}

// wholeDaysOverdue counts calendar days between the due date and now,
// so a loan due yesterday is one day overdue regardless of time of day.
func wholeDaysOverdue(due, now time.Time) int {
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, due.Location())
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(nowDay.Sub(dueDay).Hours() / 24)
}
