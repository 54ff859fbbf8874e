// Package circulation implements the lending workflows: issuing,
// returning and renewing loans, overdue fines, reservations and member
// removal. Multi-row writes run inside a single transaction so book
// status and loan rows never drift apart.
package circulation

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
	"github.com/openshelf/openshelf/internal/settingsstore"
)

var (
	ErrBookNotFound        = errors.New("book not found")
	ErrBookUnavailable     = errors.New("book is not available")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberInactive      = errors.New("member is not active")
	ErrLoanLimitReached    = errors.New("member has reached the loan limit")
	ErrLoanNotFound        = errors.New("loan not found")
	ErrLoanOverdue         = errors.New("loan is overdue")
	ErrRenewalLimitReached = errors.New("loan has reached the renewal limit")
	ErrFineNotFound        = errors.New("fine not found")
	ErrFineAlreadyPaid     = errors.New("fine is already paid")
	ErrAlreadyReserved     = errors.New("book already has an active reservation")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrHasActiveLoans      = errors.New("member has active loans")
	ErrHasUnpaidFines      = errors.New("member has unpaid fines")
)

// Service handles the circulation workflows.
type Service struct {
	db       *gorm.DB
	settings *settingsstore.SettingsStore
}

// NewService creates a new circulation service.
func NewService(db *gorm.DB, settings *settingsstore.SettingsStore) *Service {
	return &Service{db: db, settings: settings}
}

// IssueLoan lends a book to a member. The due date comes from the
// member's tier loan period, falling back to the default_loan_period
// setting. An active reservation the member holds on the book is
// marked fulfilled.
func (s *Service) IssueLoan(isbn string, memberID uint) (*entities.Loan, error) {
	var loan *entities.Loan

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, "isbn = ?", isbn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		if book.Status != entities.BookStatusAvailable {
			return ErrBookUnavailable
		}

		var member entities.Member
		if err := tx.Preload("Tier").First(&member, memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}
		if member.Status != entities.MemberStatusActive {
			return ErrMemberInactive
		}

		var outstanding int64
		err := tx.Model(&entities.Loan{}).
			Where("member_id = ? AND return_date IS NULL", memberID).
			Count(&outstanding).Error
		if err != nil {
			return err
		}

		maxBooks := member.Tier.MaxBooks
		if maxBooks <= 0 {
			maxBooks = s.settings.MaxBooksPerMember()
		}
		if outstanding >= int64(maxBooks) {
			return ErrLoanLimitReached
		}

		now := time.Now()
		loan = &entities.Loan{
			BookISBN: book.ISBN,
			MemberID: member.ID,
			LoanDate: now,
			DueDate:  now.AddDate(0, 0, s.loanPeriodFor(member.Tier)),
		}
		if err := tx.Create(loan).Error; err != nil {
			return fmt.Errorf("failed to create loan: %w", err)
		}

		err = tx.Model(&entities.Book{}).Where("isbn = ?", book.ISBN).
			Update("status", entities.BookStatusLoaned).Error
		if err != nil {
			return fmt.Errorf("failed to update book status: %w", err)
		}

		// The member picked up a book they had on hold.
		return tx.Model(&entities.Reservation{}).
			Where("book_isbn = ? AND member_id = ? AND status = ?",
				book.ISBN, member.ID, entities.ReservationStatusActive).
			Update("status", entities.ReservationStatusFulfilled).Error
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ReturnLoan closes an outstanding loan and makes the book available
// again. If the member has a linked student account, a return
// confirmation message is sent to it. Returning an already-returned
// loan fails with ErrLoanNotFound.
func (s *Service) ReturnLoan(loanID uint) (*entities.Loan, error) {
	var loan entities.Loan

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Book").First(&loan, loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}
		if !loan.Outstanding() {
			return ErrLoanNotFound
		}

		now := time.Now()
		loan.ReturnDate = &now
		err := tx.Model(&entities.Loan{}).Where("id = ?", loan.ID).
			Update("return_date", now).Error
		if err != nil {
			return fmt.Errorf("failed to close loan: %w", err)
		}

		err = tx.Model(&entities.Book{}).Where("isbn = ?", loan.BookISBN).
			Update("status", entities.BookStatusAvailable).Error
		if err != nil {
			return fmt.Errorf("failed to update book status: %w", err)
		}

		var user entities.User
		err = tx.Where("member_id = ?", loan.MemberID).First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		confirmation := &entities.Message{
			ToUserID: &user.ID,
			Subject:  "Book returned: " + loan.Book.Title,
			Body: fmt.Sprintf("Your return of %q has been recorded on %s. Thank you!",
				loan.Book.Title, now.Format("2006-01-02")),
			SentAt:   now,
			Type:     entities.MessageTypeReturnConfirmation,
			Priority: entities.PriorityNormal,
		}
		return tx.Create(confirmation).Error
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// RenewLoan extends an outstanding loan's due date by the member's tier
// loan period. Overdue loans and loans at the max_renewals cap cannot
// be renewed.
func (s *Service) RenewLoan(loanID uint) (*entities.Loan, error) {
	var loan entities.Loan

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Member.Tier").First(&loan, loanID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}
		if !loan.Outstanding() {
			return ErrLoanNotFound
		}

		now := time.Now()
		if loan.Overdue(now) {
			return ErrLoanOverdue
		}
		if loan.RenewalCount >= s.settings.MaxRenewals() {
			return ErrRenewalLimitReached
		}

		loan.DueDate = loan.DueDate.AddDate(0, 0, s.loanPeriodFor(loan.Member.Tier))
		loan.RenewalCount++
		return tx.Model(&entities.Loan{}).Where("id = ?", loan.ID).Updates(map[string]any{
			"due_date":      loan.DueDate,
			"renewal_count": loan.RenewalCount,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// MemberLoans returns a member's loans, most recent first. Returned
// loans are excluded unless includeReturned is set.
func (s *Service) MemberLoans(memberID uint, includeReturned bool) ([]entities.Loan, error) {
	query := s.db.Preload("Book").Where("member_id = ?", memberID)
	if !includeReturned {
		query = query.Where("return_date IS NULL")
	}

	var loans []entities.Loan
	err := query.Order("loan_date DESC").Find(&loans).Error
	return loans, err
}

// OutstandingLoans returns every loan not yet returned, due soonest
// first.
func (s *Service) OutstandingLoans() ([]entities.Loan, error) {
	var loans []entities.Loan
	err := s.db.Preload("Book").Preload("Member").
		Where("return_date IS NULL").
		Order("due_date").
		Find(&loans).Error
	return loans, err
}

// OverdueLoans returns outstanding loans past their due date, most
// overdue first.
func (s *Service) OverdueLoans(now time.Time) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := s.db.Preload("Book").Preload("Member").
		Where("return_date IS NULL AND due_date < ?", now).
		Order("due_date").
		Find(&loans).Error
	return loans, err
}

func (s *Service) loanPeriodFor(tier entities.MemberTier) int {
	if tier.LoanPeriodDays > 0 {
		return tier.LoanPeriodDays
	}
	return s.settings.DefaultLoanPeriod()
}
