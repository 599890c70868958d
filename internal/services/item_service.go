// item_service.go
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

package services

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/localnerve/compliance-registry/internal/models"
	"github.com/localnerve/compliance-registry/internal/types"
	"gorm.io/gorm"
)

// ErrNotFound is returned when an item does not exist or is not owned by the
// requesting user. The two cases are indistinguishable to the caller.
var ErrNotFound = errors.New("not found")

// SortSpec describes the ordering of an item listing: sort column, direction,
// and where null values are placed (independent of direction).
type SortSpec struct {
	Key        string
	Desc       bool
	NullsFirst bool
}

// DefaultSort orders by due date ascending with undated items last, the
// dashboard's presentation order.
func DefaultSort() SortSpec {
	return SortSpec{Key: "due_date"}
}

// itemSortColumns whitelists sortable item columns. Keys are the API names,
// values the SQL column names.
var itemSortColumns = map[string]string{
	"due_date":           "due_date",
	"last_reviewed_date": "last_reviewed_date",
	"created_at":         "created_at",
	"updated_at":         "updated_at",
	"title":              "title",
	"status":             "status",
	"priority":           "priority",
}

// ValidSortKey reports whether key names a sortable item column.
func ValidSortKey(key string) bool {
	_, ok := itemSortColumns[key]
	return ok
}

// ItemInput is the payload for creating an item. Unspecified optional fields
// take their zero value; status and priority default explicitly.
type ItemInput struct {
	CategoryID       *string         `json:"category_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Status           string          `json:"status"`
	Priority         string          `json:"priority"`
	DueDate          *types.FlexDate `json:"due_date"`
	LastReviewedDate *types.FlexDate `json:"last_reviewed_date"`
	AssignedTo       string          `json:"assigned_to"`
	OwnerEmail       string          `json:"owner_email"`
	Notes            string          `json:"notes"`
}

// Validate implements input validation for ItemInput.
func (in ItemInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Status, validation.In(models.Statuses()...)),
		validation.Field(&in.Priority, validation.In(models.Priorities()...)),
	)
}

// ItemPatch is a partial update: each field is independently absent, null, or
// set. Absent fields leave the stored value unchanged.
type ItemPatch struct {
	CategoryID       types.Optional[string]         `json:"category_id"`
	Title            types.Optional[string]         `json:"title"`
	Description      types.Optional[string]         `json:"description"`
	Status           types.Optional[string]         `json:"status"`
	Priority         types.Optional[string]         `json:"priority"`
	DueDate          types.Optional[types.FlexDate] `json:"due_date"`
	LastReviewedDate types.Optional[types.FlexDate] `json:"last_reviewed_date"`
	AssignedTo       types.Optional[string]         `json:"assigned_to"`
	OwnerEmail       types.Optional[string]         `json:"owner_email"`
	Notes            types.Optional[string]         `json:"notes"`
}

// Validate checks only the fields the patch provides.
func (p ItemPatch) Validate() error {
	if p.Title.Present() {
		if err := validation.Validate(p.Title.Get(), validation.Required, validation.Length(1, 255)); err != nil {
			return fmt.Errorf("title: %w", err)
		}
	}
	if p.Status.Present() {
		if err := validation.Validate(p.Status.Get(), validation.In(models.Statuses()...)); err != nil {
			return fmt.Errorf("status: %w", err)
		}
	}
	if p.Priority.Present() {
		if err := validation.Validate(p.Priority.Get(), validation.In(models.Priorities()...)); err != nil {
			return fmt.Errorf("priority: %w", err)
		}
	}
	return nil
}

// ListItems returns the user's items with categories resolved, in the given
// order. Null sort keys are ranked by a computed prefix key so their placement
// is independent of direction; ties fall back to id for a stable order.
func ListItems(db *gorm.DB, userID string, sort SortSpec) ([]models.ComplianceItem, error) {
	column, ok := itemSortColumns[sort.Key]
	if !ok {
		column = "created_at"
	}

	nullRank := 1
	if sort.NullsFirst {
		nullRank = -1
	}
	direction := "ASC"
	if sort.Desc {
		direction = "DESC"
	}

	var items []models.ComplianceItem
	err := db.Preload("Category").
		Where("user_id = ?", userID).
		Order(fmt.Sprintf("CASE WHEN %s IS NULL THEN %d ELSE 0 END ASC", column, nullRank)).
		Order(fmt.Sprintf("%s %s", column, direction)).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// ListAllItems returns every item with categories resolved, for the reminder
// dispatch pass.
func ListAllItems(db *gorm.DB) ([]models.ComplianceItem, error) {
	var items []models.ComplianceItem
	if err := db.Preload("Category").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// CreateItem inserts a new item owned by userID, filling defaults, and
// returns it with the category resolved.
func CreateItem(db *gorm.DB, userID string, in ItemInput) (*models.ComplianceItem, error) {
	now := time.Now().UTC()

	item := models.ComplianceItem{
		ID:               "item_" + uuid.NewString(),
		UserID:           userID,
		CategoryID:       in.CategoryID,
		Title:            in.Title,
		Description:      in.Description,
		Status:           in.Status,
		Priority:         in.Priority,
		DueDate:          in.DueDate,
		LastReviewedDate: in.LastReviewedDate,
		AssignedTo:       in.AssignedTo,
		OwnerEmail:       in.OwnerEmail,
		Notes:            in.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if item.Status == "" {
		item.Status = models.StatusPending
	}
	if item.Priority == "" {
		item.Priority = models.PriorityMedium
	}

	if err := db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return getItem(db, userID, item.ID)
}

// UpdateItem merges the patch onto the stored record and stamps updated_at.
// Concurrent updates to the same item are last-writer-wins: there is no
// version token, so one of two racing writes can be lost silently.
func UpdateItem(db *gorm.DB, userID, id string, patch ItemPatch) (*models.ComplianceItem, error) {
	var item models.ComplianceItem
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}

	applyPatch(&item, patch)
	item.UpdatedAt = time.Now().UTC()

	if err := db.Save(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return getItem(db, userID, id)
}

// DeleteItem removes the user's item with the given id. Deleting an unknown
// or non-owned id is a silent no-op that still reports success, matching the
// wire contract the client expects.
func DeleteItem(db *gorm.DB, userID, id string) error {
	result := db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.ComplianceItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete item: %w", result.Error)
	}
	return nil
}

// getItem reloads an item scoped to its owner, with the category resolved.
func getItem(db *gorm.DB, userID, id string) (*models.ComplianceItem, error) {
	var item models.ComplianceItem
	err := db.Preload("Category").Where("id = ? AND user_id = ?", id, userID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	return &item, nil
}

// applyPatch merges provided patch fields onto the item, field by field.
func applyPatch(item *models.ComplianceItem, p ItemPatch) {
	if p.CategoryID.Present() {
		v := p.CategoryID.Get()
		item.CategoryID = &v
	} else if p.CategoryID.Null() {
		item.CategoryID = nil
	}
	if p.Title.Present() {
		item.Title = p.Title.Get()
	}
	if p.Description.Present() {
		item.Description = p.Description.Get()
	}
	if p.Status.Present() {
		item.Status = p.Status.Get()
	}
	if p.Priority.Present() {
		item.Priority = p.Priority.Get()
	}
	if p.DueDate.Present() {
		v := p.DueDate.Get()
		item.DueDate = &v
	} else if p.DueDate.Null() {
		item.DueDate = nil
	}
	if p.LastReviewedDate.Present() {
		v := p.LastReviewedDate.Get()
		item.LastReviewedDate = &v
	} else if p.LastReviewedDate.Null() {
		item.LastReviewedDate = nil
	}
	if p.AssignedTo.Present() {
		item.AssignedTo = p.AssignedTo.Get()
	}
	if p.OwnerEmail.Present() {
		item.OwnerEmail = p.OwnerEmail.Get()
	}
	if p.Notes.Present() {
		item.Notes = p.Notes.Get()
	}
}
