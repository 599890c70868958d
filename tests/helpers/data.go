// data.go
//
// Compliance tracking data service with email reminders
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

package helpers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/compliance-registry/internal/models"
	"github.com/localnerve/compliance-registry/internal/types"
	"gorm.io/gorm"
)

// CreateTestCategory creates a compliance category and returns its id
func CreateTestCategory(t *testing.T, db *gorm.DB, name string) string {
	t.Helper()
	cat := models.ComplianceCategory{
		ID:        "cat_" + uuid.NewString(),
		Name:      name,
		Color:     "#3B82F6",
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("Failed to create category %s: %v", name, err)
	}
	return cat.ID
}

// CreateTestItem creates a compliance item owned by userID and returns its id
func CreateTestItem(t *testing.T, db *gorm.DB, userID, title string, due *time.Time) string {
	t.Helper()
	now := time.Now().UTC()
	item := models.ComplianceItem{
		ID:        "item_" + uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Status:    models.StatusPending,
		Priority:  models.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if due != nil {
		item.DueDate = &types.FlexDate{Time: *due}
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("Failed to create item %s: %v", title, err)
	}
	return item.ID
}
