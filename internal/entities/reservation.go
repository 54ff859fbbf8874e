package entities

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
	ReservationStatusFulfilled ReservationStatus = "fulfilled"
)

// Reservation is a time-limited hold on a book, independent of loan
// state: an already-loaned book can still be reserved. At most one
// active reservation may exist per book.
type Reservation struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	BookISBN        string            `gorm:"index;size:20" json:"book_isbn"`
	MemberID        uint              `gorm:"index" json:"member_id"`
	ReservationDate time.Time         `json:"reservation_date"`
	ExpiryDate      time.Time         `json:"expiry_date"`
	Status          ReservationStatus `gorm:"index;size:20;default:'active'" json:"status"`
	Book            Book              `gorm:"foreignKey:BookISBN;references:ISBN" json:"book,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (Reservation) TableName() string {
	return "book_reservations"
}
