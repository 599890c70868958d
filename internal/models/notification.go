package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationRecord is the reminder dedup ledger: one row per
// (item, notification kind), overwritten with the timestamp of the most
// recent send attempt. Rows are never deleted; the set is bounded by
// 2 x item count.
type NotificationRecord struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	ItemID     string    `gorm:"size:64;not null;uniqueIndex:idx_item_kind"`
	Kind       string    `gorm:"size:32;not null;uniqueIndex:idx_item_kind"`
	LastSentAt time.Time `gorm:"not null"`
}

// TableName overrides the table name for NotificationRecord
func (NotificationRecord) TableName() string {
	return "notification_records"
}

// EmailLog records every reminder send attempt, successful or not.
// Metadata holds the structured template parameters handed to the mail sink.
type EmailLog struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	ItemID    string         `gorm:"size:64;not null;index" json:"item_id"`
	Kind      string         `gorm:"size:32;not null" json:"type"`
	Recipient string         `gorm:"size:255;not null" json:"to"`
	Subject   string         `gorm:"size:512" json:"subject"`
	Body      string         `gorm:"size:8192" json:"body"`
	Sent      bool           `json:"sent"`
	Error     string         `gorm:"size:1024" json:"error,omitempty"`
	Metadata  datatypes.JSON `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"sent_at"`
}

// TableName overrides the table name for EmailLog
func (EmailLog) TableName() string {
	return "email_logs"
}
