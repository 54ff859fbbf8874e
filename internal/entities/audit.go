package entities

import "time"

// AuditLog is an append-only record of who did what. OldValues/NewValues
// hold JSON snapshots when the action mutated a row.
type AuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id"`
	Action      string    `gorm:"size:256" json:"action"`
	EntityTable string    `gorm:"column:table_name;size:50" json:"table_name,omitempty"`
	RecordID    string    `gorm:"size:64" json:"record_id,omitempty"`
	OldValues   string    `gorm:"type:text" json:"old_values,omitempty"`
	NewValues   string    `gorm:"type:text" json:"new_values,omitempty"`
	IPAddress   string    `gorm:"size:45" json:"ip_address,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
