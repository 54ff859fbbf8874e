// Package messages provides database operations for the internal
// messaging system between students and librarians.
package messages

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

var (
	ErrNotFound     = errors.New("message not found")
	ErrNoRecipients = errors.New("no recipients for role")
)

// Repository handles all message database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new messages repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SendParams describes an outgoing message. Exactly one of ToUserID and
// ToRole should be set.
type SendParams struct {
	FromUserID *uint
	ToUserID   *uint
	ToRole     entities.UserRole
	Subject    string
	Body       string
	Type       entities.MessageType
	Priority   entities.MessagePriority
}

// Send inserts a single message row.
func (r *Repository) Send(params SendParams) (*entities.Message, error) {
	msg := &entities.Message{
		FromUserID: params.FromUserID,
		ToUserID:   params.ToUserID,
		ToRole:     params.ToRole,
		Subject:    params.Subject,
		Body:       params.Body,
		SentAt:     time.Now(),
		Type:       params.Type,
		Priority:   params.Priority,
	}
	if msg.Type == "" {
		msg.Type = entities.MessageTypeGeneral
	}
	if msg.Priority == "" {
		msg.Priority = entities.PriorityNormal
	}

	if err := r.db.Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// Broadcast sends one copy of the message to every user holding the
// role. Each recipient gets their own row so read flags stay per-user.
func (r *Repository) Broadcast(params SendParams, role entities.UserRole) (int, error) {
	var recipients []entities.User
	err := r.db.Where("role = ?", role).Find(&recipients).Error
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, ErrNoRecipients
	}

	sent := 0
	for _, recipient := range recipients {
		id := recipient.ID
		params.ToUserID = &id
		params.ToRole = ""
		if _, err := r.Send(params); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// Inbox returns messages addressed to the user directly or to their
// role, newest first. typeFilter narrows by message type when non-empty.
func (r *Repository) Inbox(userID uint, role entities.UserRole, typeFilter entities.MessageType) ([]entities.Message, error) {
	query := r.db.Preload("Sender").
		Where("to_user_id = ? OR to_role = ?", userID, role)
	if typeFilter != "" {
		query = query.Where("type = ?", typeFilter)
	}

	var msgs []entities.Message
	err := query.Order("sent_at DESC").Find(&msgs).Error
	return msgs, err
}

// UnreadCount returns the number of unread messages for the user.
func (r *Repository) UnreadCount(userID uint, role entities.UserRole) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Message{}).
		Where("(to_user_id = ? OR to_role = ?) AND is_read = ?", userID, role, false).
		Count(&count).Error
	return count, err
}

// GetByID retrieves a single message.
func (r *Repository) GetByID(id uint) (*entities.Message, error) {
	var msg entities.Message
	err := r.db.Preload("Sender").First(&msg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// MarkRead sets the read flag. Idempotent: marking an already-read
// message succeeds.
func (r *Repository) MarkRead(id uint) error {
	result := r.db.Model(&entities.Message{}).Where("id = ?", id).Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish missing from already-read: UPDATE matches
		// already-read rows too, so zero affected means absent.
		var count int64
		r.db.Model(&entities.Message{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}
