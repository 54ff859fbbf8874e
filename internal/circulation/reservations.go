package circulation

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// CreateReservation places a hold on a book. Availability is not
// checked: reserving an already-loaned book queues the member for it.
// Only one active reservation may exist per book.
func (s *Service) CreateReservation(isbn string, memberID uint) (*entities.Reservation, error) {
	var reservation *entities.Reservation

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, "isbn = ?", isbn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		var member entities.Member
		if err := tx.First(&member, memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}
		if member.Status != entities.MemberStatusActive {
			return ErrMemberInactive
		}

		var active int64
		err := tx.Model(&entities.Reservation{}).
			Where("book_isbn = ? AND status = ?", isbn, entities.ReservationStatusActive).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrAlreadyReserved
		}

		now := time.Now()
		reservation = &entities.Reservation{
			BookISBN:        book.ISBN,
			MemberID:        member.ID,
			ReservationDate: now,
			ExpiryDate:      now.AddDate(0, 0, s.settings.ReservationHoldDays()),
			Status:          entities.ReservationStatusActive,
		}
		return tx.Create(reservation).Error
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// CancelReservation cancels an active reservation. Cancelled, expired
// and fulfilled reservations cannot be cancelled again.
func (s *Service) CancelReservation(id uint) error {
	result := s.db.Model(&entities.Reservation{}).
		Where("id = ? AND status = ?", id, entities.ReservationStatusActive).
		Update("status", entities.ReservationStatusCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// MemberReservations returns a member's reservations, newest first.
func (s *Service) MemberReservations(memberID uint) ([]entities.Reservation, error) {
	var reservations []entities.Reservation
	err := s.db.Preload("Book").
		Where("member_id = ?", memberID).
		Order("reservation_date DESC").
		Find(&reservations).Error
	return reservations, err
}

// ActiveReservations returns all active reservations, soonest to expire
// first.
func (s *Service) ActiveReservations() ([]entities.Reservation, error) {
	var reservations []entities.Reservation
	err := s.db.Preload("Book").
		Where("status = ?", entities.ReservationStatusActive).
		Order("expiry_date").
		Find(&reservations).Error
	return reservations, err
}

// ExpireReservations marks active reservations past their expiry date
// as expired. Returns the number of reservations expired.
func (s *Service) ExpireReservations(now time.Time) (int64, error) {
	result := s.db.Model(&entities.Reservation{}).
		Where("status = ? AND expiry_date < ?", entities.ReservationStatusActive, now).
		Update("status", entities.ReservationStatusExpired)
	return result.RowsAffected, result.Error
}
