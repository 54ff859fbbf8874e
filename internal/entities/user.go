package entities

import "time"

// UserRole is a closed set of roles. Access control branches on this type
// at the middleware boundary rather than on free-form strings.
type UserRole string

const (
	RoleStudent   UserRole = "student"
	RoleLibrarian UserRole = "librarian"

	// RoleInactiveStudent is what a student account becomes when its
	// member record is deactivated. It cannot authenticate.
	RoleInactiveStudent UserRole = "inactive_student"
)

// Valid reports whether the role is one a user may log in with.
func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleLibrarian
}

// User is an authentication identity. Students are linked to the Member
// record that holds their loans; librarians have no member link.
type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Username         string     `gorm:"uniqueIndex;size:100" json:"username"`
	PasswordHash     string     `gorm:"size:100" json:"-"`
	Role             UserRole   `gorm:"index;size:20" json:"role"`
	Name             string     `gorm:"size:256" json:"name"`
	Email            string     `gorm:"size:255" json:"email,omitempty"`
	MemberID         *uint      `gorm:"uniqueIndex" json:"member_id,omitempty"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	FailedLoginCount int        `json:"-"`
	LockedUntil      *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
