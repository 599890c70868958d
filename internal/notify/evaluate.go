package notify

import (
	"math"
	"strings"
	"time"

	"github.com/localnerve/compliance-registry/internal/models"
)

// Kind is the notification category for an item verdict.
type Kind string

// Notification kinds.
const (
	KindOverdue    Kind = "overdue"
	KindNearingDue Kind = "nearing_due"
)

// nearingDueDays is the reminder horizon: items due within this many days
// are nearing due.
const nearingDueDays = 3

// Verdict is the outcome of evaluating one item. The zero Verdict means no
// notification is warranted.
type Verdict struct {
	Notify        bool
	Kind          Kind
	DaysRemaining int
}

// Evaluate classifies an item against the current time. Compliant items,
// items without a due date, and items without an owner email never notify.
// An item due exactly now is nearing due, not overdue: the overdue boundary
// is exclusive (< 0 days), the nearing boundary inclusive (>= 0).
func Evaluate(item models.ComplianceItem, now time.Time) Verdict {
	if item.Status == models.StatusCompliant ||
		item.DueDate == nil ||
		strings.TrimSpace(item.OwnerEmail) == "" {
		return Verdict{}
	}

	days := DaysUntilDue(item.DueDate.Time, now)

	if !actionable(item.Status) {
		return Verdict{}
	}

	if days < 0 {
		return Verdict{Notify: true, Kind: KindOverdue}
	}
	if days <= nearingDueDays {
		return Verdict{Notify: true, Kind: KindNearingDue, DaysRemaining: days}
	}

	return Verdict{}
}

// DaysUntilDue computes calendar days until the due date, rounding fractional
// days up toward the later boundary.
func DaysUntilDue(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// actionable reports whether a status still requires attention.
func actionable(status string) bool {
	switch status {
	case models.StatusPending, models.StatusInProgress, models.StatusNonCompliant:
		return true
	}
	return false
}
