package models

import (
	"time"

	"github.com/localnerve/compliance-registry/internal/types"
)

// Compliance item statuses.
const (
	StatusPending      = "pending"
	StatusInProgress   = "in_progress"
	StatusNonCompliant = "non_compliant"
	StatusCompliant    = "compliant"
)

// Compliance item priorities.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Statuses lists the valid item statuses for input validation.
func Statuses() []interface{} {
	return []interface{}{StatusPending, StatusInProgress, StatusNonCompliant, StatusCompliant}
}

// Priorities lists the valid item priorities for input validation.
func Priorities() []interface{} {
	return []interface{}{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

// ComplianceItem is a single tracked compliance record, owned by a user.
// CategoryID is a soft reference: no FK constraint is created, and a dangling
// id resolves to a nil Category at read time rather than an error.
type ComplianceItem struct {
	ID               string              `gorm:"primaryKey;size:64" json:"id"`
	UserID           string              `gorm:"size:64;not null;index" json:"user_id"`
	CategoryID       *string             `gorm:"size:64" json:"category_id"`
	Title            string              `gorm:"size:255;not null" json:"title"`
	Description      string              `gorm:"size:2048" json:"description"`
	Status           string              `gorm:"size:32;not null;default:pending" json:"status"`
	Priority         string              `gorm:"size:32;not null;default:medium" json:"priority"`
	DueDate          *types.FlexDate     `gorm:"type:date" json:"due_date"`
	LastReviewedDate *types.FlexDate     `gorm:"type:date" json:"last_reviewed_date"`
	AssignedTo       string              `gorm:"size:255" json:"assigned_to"`
	OwnerEmail       string              `gorm:"size:255" json:"owner_email"`
	Notes            string              `gorm:"size:4096" json:"notes"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	Category         *ComplianceCategory `gorm:"foreignKey:CategoryID;references:ID" json:"compliance_categories"`
}

// TableName overrides the table name for ComplianceItem
func (ComplianceItem) TableName() string {
	return "compliance_items"
}

// CategoryName returns the resolved category name, or fallback when the
// reference is absent or dangling.
func (i ComplianceItem) CategoryName(fallback string) string {
	if i.Category != nil {
		return i.Category.Name
	}
	return fallback
}
