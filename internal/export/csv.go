package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/localnerve/compliance-registry/internal/models"
	"github.com/localnerve/compliance-registry/internal/types"
)

// csvHeader is the fixed export column set.
var csvHeader = []string{
	"Compliance ID",
	"Title",
	"Category",
	"Status",
	"Priority",
	"Due Date",
	"Last Reviewed Date",
	"Assigned To",
	"Owner Email",
	"Description",
	"Notes",
	"Created At",
	"Updated At",
}

// Write renders the items as a CSV document in the caller-supplied order.
// The Compliance ID column is a 1-based row number (COMP-001, COMP-002, ...),
// derived purely from row position at export time: it is not a stored
// identifier and is unstable under filtering or reordering.
func Write(w io.Writer, items []models.ComplianceItem) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, item := range items {
		assignee := item.AssignedTo
		if assignee == "" {
			assignee = "Unassigned"
		}

		record := []string{
			fmt.Sprintf("COMP-%03d", i+1),
			item.Title,
			item.CategoryName("Uncategorized"),
			formatStatus(item.Status),
			formatPriority(item.Priority),
			formatDate(item.DueDate),
			formatDate(item.LastReviewedDate),
			assignee,
			item.OwnerEmail,
			item.Description,
			item.Notes,
			item.CreatedAt.Format("01/02/2006"),
			item.UpdatedAt.Format("01/02/2006"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename returns the dated attachment name for an export.
func Filename(now time.Time) string {
	return fmt.Sprintf("compliance-registry-%s.csv", now.Format("2006-01-02"))
}

// formatStatus prettifies a status value: "in_progress" -> "In Progress".
func formatStatus(status string) string {
	words := strings.Split(strings.ReplaceAll(status, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// formatPriority capitalizes a priority value: "high" -> "High".
func formatPriority(priority string) string {
	if priority == "" {
		return ""
	}
	return strings.ToUpper(priority[:1]) + priority[1:]
}

// formatDate renders a nullable date as en-US MM/DD/YYYY, or empty.
func formatDate(d *types.FlexDate) string {
	if d == nil || d.Time.IsZero() {
		return ""
	}
	return d.Time.Format("01/02/2006")
}
