package models

import (
	"time"
)

// ComplianceCategory groups compliance items. Categories are effectively
// immutable after creation; there is no update path.
type ComplianceCategory struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"size:1024" json:"description"`
	Color       string    `gorm:"size:32" json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName overrides the table name for ComplianceCategory
func (ComplianceCategory) TableName() string {
	return "compliance_categories"
}
