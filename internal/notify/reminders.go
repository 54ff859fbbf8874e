package notify

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
	"github.com/openshelf/openshelf/internal/settingsstore"
)

// Service builds and sends loan reminder mail.
type Service struct {
	db       *gorm.DB
	mailer   *Mailer
	settings *settingsstore.SettingsStore
}

// NewService creates a new reminder service.
func NewService(db *gorm.DB, mailer *Mailer, settings *settingsstore.SettingsStore) *Service {
	return &Service{db: db, mailer: mailer, settings: settings}
}

// SendOverdueReminders mails every member holding an overdue loan, one
// message per member covering all their overdue books. Returns the
// number of reminders sent; addressless members are skipped.
func (s *Service) SendOverdueReminders(now time.Time) (int, error) {
	if !s.mailer.Enabled() {
		log.Printf("Overdue reminders skipped: %v", ErrDisabled)
		return 0, nil
	}

	var loans []entities.Loan
	err := s.db.Preload("Book").Preload("Member").
		Where("return_date IS NULL AND due_date < ?", now).
		Order("member_id, due_date").
		Find(&loans).Error
	if err != nil {
		return 0, err
	}

	return s.sendGrouped(loans, func(member entities.Member, lines []string) (string, string) {
		subject := fmt.Sprintf("%s: you have overdue books", s.settings.LibraryName())
		body := fmt.Sprintf("Dear %s,\n\nThe following books are overdue:\n\n%s\n"+
			"Please return them as soon as possible to avoid further fines.\n\n%s",
			member.Name, strings.Join(lines, "\n"), s.signature())
		return subject, body
	})
}

// SendDueSoonReminders mails members whose loans fall due within the
// next withinDays days.
func (s *Service) SendDueSoonReminders(now time.Time, withinDays int) (int, error) {
	if !s.mailer.Enabled() {
		log.Printf("Due-soon reminders skipped: %v", ErrDisabled)
		return 0, nil
	}

	horizon := now.AddDate(0, 0, withinDays)
	var loans []entities.Loan
	err := s.db.Preload("Book").Preload("Member").
		Where("return_date IS NULL AND due_date >= ? AND due_date <= ?", now, horizon).
		Order("member_id, due_date").
		Find(&loans).Error
	if err != nil {
		return 0, err
	}

	return s.sendGrouped(loans, func(member entities.Member, lines []string) (string, string) {
		subject := fmt.Sprintf("%s: books due soon", s.settings.LibraryName())
		body := fmt.Sprintf("Dear %s,\n\nThe following books are due soon:\n\n%s\n"+
			"Renew them or bring them back by the due date.\n\n%s",
			member.Name, strings.Join(lines, "\n"), s.signature())
		return subject, body
	})
}

// sendGrouped batches loans per member and sends one message each.
func (s *Service) sendGrouped(loans []entities.Loan, compose func(entities.Member, []string) (string, string)) (int, error) {
	byMember := make(map[uint][]entities.Loan)
	order := make([]uint, 0)
	for _, loan := range loans {
		if _, seen := byMember[loan.MemberID]; !seen {
			order = append(order, loan.MemberID)
		}
		byMember[loan.MemberID] = append(byMember[loan.MemberID], loan)
	}

	sent := 0
	for _, memberID := range order {
		memberLoans := byMember[memberID]
		member := memberLoans[0].Member
		if member.ContactInfo == "" || !strings.Contains(member.ContactInfo, "@") {
			continue
		}

		lines := make([]string, 0, len(memberLoans))
		for _, loan := range memberLoans {
			lines = append(lines, fmt.Sprintf("  - %q by %s, due %s",
				loan.Book.Title, loan.Book.Author, loan.DueDate.Format("2006-01-02")))
		}

		subject, body := compose(member, lines)
		if err := s.mailer.Send(member.ContactInfo, subject, body); err != nil {
			log.Printf("Failed to send reminder to member %d: %v", memberID, err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *Service) signature() string {
	sig := s.settings.LibraryName()
	if email := s.settings.LibraryEmail(); email != "" {
		sig += "\n" + email
	}
	if phone := s.settings.LibraryPhone(); phone != "" {
		sig += "\n" + phone
	}
	return sig
}
