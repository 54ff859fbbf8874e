package entities

import "time"

type MessageType string

const (
	MessageTypeGeneral            MessageType = "general"
	MessageTypeStudentInquiry     MessageType = "student_inquiry"
	MessageTypeLibrarianReply     MessageType = "librarian_reply"
	MessageTypeBookRequest        MessageType = "book_request"
	MessageTypeReturnConfirmation MessageType = "return_confirmation"
)

type MessagePriority string

const (
	PriorityLow    MessagePriority = "low"
	PriorityNormal MessagePriority = "normal"
	PriorityHigh   MessagePriority = "high"
)

// Message is an internal note between users. It is addressed either to a
// specific user (ToUserID) or to every holder of a role (ToRole); fan-out
// to "all librarians" inserts one row per recipient rather than a single
// shared row.
type Message struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	FromUserID *uint           `gorm:"index" json:"from_user_id,omitempty"`
	ToUserID   *uint           `gorm:"index" json:"to_user_id,omitempty"`
	ToRole     UserRole        `gorm:"index;size:20" json:"to_role,omitempty"`
	Subject    string          `gorm:"size:256" json:"subject"`
	Body       string          `gorm:"type:text" json:"body"`
	SentAt     time.Time       `gorm:"index" json:"sent_at"`
	IsRead     bool            `gorm:"default:false" json:"is_read"`
	Type       MessageType     `gorm:"index;size:30;default:'general'" json:"type"`
	Priority   MessagePriority `gorm:"size:10;default:'normal'" json:"priority"`
	Sender     *User           `gorm:"foreignKey:FromUserID" json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
