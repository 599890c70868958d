// dispatch.go
//
// A Go Fiber compliance tracking data service, drop-in replacement for the nodejs backend
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of compliance-registry.
// compliance-registry is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// compliance-registry is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with compliance-registry.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/localnerve/compliance-registry/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger tracks the last send attempt per (item, kind). Entries are upserted
// on every attempt and never deleted.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a ledger over the given database.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// LastSent returns the timestamp of the most recent attempt for the key,
// or false if none was ever made.
func (l *Ledger) LastSent(itemID string, kind Kind) (time.Time, bool, error) {
	var record models.NotificationRecord
	err := l.db.Where("item_id = ? AND kind = ?", itemID, string(kind)).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to read ledger: %w", err)
	}
	return record.LastSentAt, true, nil
}

// Record upserts the last-sent timestamp for the key.
func (l *Ledger) Record(itemID string, kind Kind, at time.Time) error {
	record := models.NotificationRecord{
		ItemID:     itemID,
		Kind:       string(kind),
		LastSentAt: at,
	}
	err := l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_sent_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}
	return nil
}

// Attempt describes one delivery attempt made during a dispatch pass.
type Attempt struct {
	ItemID string
	Kind   Kind
	To     string
	Sent   bool
	Err    error
}

// Dispatcher evaluates items and sends reminder mail for eligible ones,
// consulting the ledger to suppress repeats inside the dedup window. Sink
// failures are recorded, never propagated: an attempt counts against the
// window whether or not delivery succeeded, so a misconfigured sink is hit
// at most once per window per key.
type Dispatcher struct {
	db     *gorm.DB
	ledger *Ledger
	mailer Mailer
	window time.Duration
}

// NewDispatcher creates a dispatcher with the given dedup window.
func NewDispatcher(db *gorm.DB, mailer Mailer, window time.Duration) *Dispatcher {
	return &Dispatcher{
		db:     db,
		ledger: NewLedger(db),
		mailer: mailer,
		window: window,
	}
}

// Dispatch runs one pass over the items. Every item is evaluated against the
// same now snapshot. Safe to invoke repeatedly: within the window a key is
// attempted at most once.
func (d *Dispatcher) Dispatch(items []models.ComplianceItem, now time.Time) []Attempt {
	var attempts []Attempt

	for _, item := range items {
		verdict := Evaluate(item, now)
		if !verdict.Notify {
			continue
		}

		last, found, err := d.ledger.LastSent(item.ID, verdict.Kind)
		if err != nil {
			log.Printf("Ledger read failed for item %s (%s): %v", item.ID, verdict.Kind, err)
		} else if found && now.Sub(last) < d.window {
			continue
		}

		msg := BuildMessage(item, verdict)
		sendErr := d.mailer.Send(msg)

		switch {
		case sendErr == nil:
			log.Printf("Reminder sent: item=%s kind=%s to=%s", item.ID, verdict.Kind, msg.To)
		case errors.Is(sendErr, ErrNotConfigured):
			log.Printf("Reminder logged, mail sink not configured: item=%s kind=%s to=%s", item.ID, verdict.Kind, msg.To)
		default:
			log.Printf("Reminder send failed: item=%s kind=%s to=%s: %v", item.ID, verdict.Kind, msg.To, sendErr)
		}

		// The attempt counts regardless of outcome.
		if err := d.ledger.Record(item.ID, verdict.Kind, now); err != nil {
			log.Printf("Ledger write failed for item %s (%s): %v", item.ID, verdict.Kind, err)
		}
		d.logAttempt(item, verdict, msg, sendErr)

		attempts = append(attempts, Attempt{
			ItemID: item.ID,
			Kind:   verdict.Kind,
			To:     msg.To,
			Sent:   sendErr == nil,
			Err:    sendErr,
		})
	}

	return attempts
}

// logAttempt persists an email log row for the attempt. Best effort.
func (d *Dispatcher) logAttempt(item models.ComplianceItem, verdict Verdict, msg Message, sendErr error) {
	entry := models.EmailLog{
		ItemID:    item.ID,
		Kind:      string(verdict.Kind),
		Recipient: msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Sent:      sendErr == nil,
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
	}
	if meta, err := json.Marshal(msg.Metadata); err == nil {
		entry.Metadata = meta
	}

	if err := d.db.Create(&entry).Error; err != nil {
		log.Printf("Email log write failed for item %s: %v", item.ID, err)
	}
}

// BuildMessage renders the reminder subject, body and template metadata for
// an item and its verdict.
func BuildMessage(item models.ComplianceItem, verdict Verdict) Message {
	category := item.CategoryName("Uncategorized")
	assignee := item.AssignedTo
	if assignee == "" {
		assignee = "Unassigned"
	}
	dueDate := "Not set"
	if item.DueDate != nil {
		dueDate = item.DueDate.Time.Format("01/02/2006")
	}
	description := item.Description
	if description == "" {
		description = "No description provided"
	}
	notes := item.Notes
	if notes == "" {
		notes = "No additional notes"
	}

	var subject, body string
	if verdict.Kind == KindOverdue {
		subject = fmt.Sprintf("URGENT: Compliance Item Overdue - %s", item.Title)
		body = fmt.Sprintf(`Compliance Item Overdue

Title: %s
Category: %s
Status: %s
Priority: %s
Due Date: %s
Assigned To: %s

This compliance item is now overdue. Please take immediate action.

Description:
%s

Notes:
%s`, item.Title, category, item.Status, item.Priority, dueDate, assignee, description, notes)
	} else {
		subject = fmt.Sprintf("Reminder: Compliance Item Due Soon - %s", item.Title)
		body = fmt.Sprintf(`Compliance Item Due Soon

Title: %s
Category: %s
Status: %s
Priority: %s
Due Date: %s
Days Remaining: %d
Assigned To: %s

This compliance item is due in %d day(s). Please review and update the status.

Description:
%s

Notes:
%s`, item.Title, category, item.Status, item.Priority, dueDate, verdict.DaysRemaining, assignee, verdict.DaysRemaining, description, notes)
	}

	metadata := map[string]interface{}{
		"item_title":        item.Title,
		"item_category":     category,
		"item_status":       item.Status,
		"item_priority":     item.Priority,
		"due_date":          dueDate,
		"assigned_to":       assignee,
		"notification_type": string(verdict.Kind),
	}
	if verdict.Kind == KindNearingDue {
		metadata["days_remaining"] = strconv.Itoa(verdict.DaysRemaining)
	}

	return Message{
		To:       item.OwnerEmail,
		Subject:  subject,
		Body:     body,
		Metadata: metadata,
	}
}
