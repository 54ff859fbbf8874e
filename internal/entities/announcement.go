package entities

import "time"

type AnnouncementStatus string

const (
	AnnouncementStatusActive   AnnouncementStatus = "active"
	AnnouncementStatusInactive AnnouncementStatus = "inactive"
)

type Audience string

const (
	AudienceAll        Audience = "all"
	AudienceStudents   Audience = "students"
	AudienceLibrarians Audience = "librarians"
)

type Announcement struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	Title     string             `gorm:"size:256" json:"title"`
	Content   string             `gorm:"type:text" json:"content"`
	CreatedBy uint               `gorm:"index" json:"created_by"`
	ExpiresOn *time.Time         `json:"expires_on,omitempty"`
	Priority  MessagePriority    `gorm:"size:10;default:'normal'" json:"priority"`
	Status    AnnouncementStatus `gorm:"index;size:20;default:'active'" json:"status"`
	Audience  Audience           `gorm:"size:20;default:'all'" json:"audience"`
	Creator   User               `gorm:"foreignKey:CreatedBy" json:"-"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (Announcement) TableName() string {
	return "announcements"
}
