package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/compliance-registry/internal/models"
	"github.com/localnerve/compliance-registry/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.ComplianceCategory{},
		&models.ComplianceItem{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func flexDate(value string) *types.FlexDate {
	parsed, _ := time.Parse("2006-01-02", value)
	d := types.FlexDate{Time: parsed}
	return &d
}

func TestCreateItemDefaults(t *testing.T) {
	db := setupServiceDB(t)

	item, err := CreateItem(db, "user_a", ItemInput{Title: "SOC 2 audit"})
	if err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}

	if item.Status != models.StatusPending {
		t.Errorf("Expected default status pending, got %s", item.Status)
	}
	if item.Priority != models.PriorityMedium {
		t.Errorf("Expected default priority medium, got %s", item.Priority)
	}
	if item.UserID != "user_a" {
		t.Errorf("Expected owner user_a, got %s", item.UserID)
	}
	if item.ID == "" {
		t.Error("Expected a generated id")
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be stamped")
	}
}

func TestCreateItemResolvesCategory(t *testing.T) {
	db := setupServiceDB(t)

	cat, err := CreateCategory(db, CategoryInput{Name: "Tax Compliance", Color: "#EF4444"})
	if err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}

	item, err := CreateItem(db, "user_a", ItemInput{
		Title:      "Quarterly filing",
		CategoryID: &cat.ID,
	})
	if err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}

	if item.Category == nil || item.Category.Name != "Tax Compliance" {
		t.Errorf("Expected category resolved on the created item, got %+v", item.Category)
	}
}

func TestItemInputValidation(t *testing.T) {
	if err := (ItemInput{}).Validate(); err == nil {
		t.Error("Expected a missing title to fail validation")
	}
	if err := (ItemInput{Title: "ok", Status: "bogus"}).Validate(); err == nil {
		t.Error("Expected an unknown status to fail validation")
	}
	if err := (ItemInput{Title: "ok", Priority: "urgent"}).Validate(); err == nil {
		t.Error("Expected an unknown priority to fail validation")
	}
	if err := (ItemInput{Title: "ok", Status: models.StatusInProgress, Priority: models.PriorityCritical}).Validate(); err != nil {
		t.Errorf("Expected valid input to pass, got %v", err)
	}
}

func TestListItemsScopedToUser(t *testing.T) {
	db := setupServiceDB(t)

	if _, err := CreateItem(db, "user_a", ItemInput{Title: "Mine"}); err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}
	if _, err := CreateItem(db, "user_b", ItemInput{Title: "Theirs"}); err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}

	items, err := ListItems(db, "user_a", DefaultSort())
	if err != nil {
		t.Fatalf("Failed to list items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item for user_a, got %d", len(items))
	}
	if items[0].Title != "Mine" {
		t.Errorf("Expected item 'Mine', got %s", items[0].Title)
	}
}

func TestListItemsDefaultOrderNullsLast(t *testing.T) {
	db := setupServiceDB(t)

	// Created out of order, one without a due date.
	fixtures := []ItemInput{
		{Title: "later", DueDate: flexDate("2026-06-01")},
		{Title: "undated"},
		{Title: "sooner", DueDate: flexDate("2026-04-01")},
	}
	for _, in := range fixtures {
		if _, err := CreateItem(db, "user_a", in); err != nil {
			t.Fatalf("Failed to create item %s: %v", in.Title, err)
		}
	}

	items, err := ListItems(db, "user_a", DefaultSort())
	if err != nil {
		t.Fatalf("Failed to list items: %v", err)
	}

	var titles []string
	for _, item := range items {
		titles = append(titles, item.Title)
	}
	expected := []string{"sooner", "later", "undated"}
	for i := range expected {
		if titles[i] != expected[i] {
			t.Fatalf("Expected order %v, got %v", expected, titles)
		}
	}
}

func TestListItemsNullsFirstDescending(t *testing.T) {
	db := setupServiceDB(t)

	fixtures := []ItemInput{
		{Title: "sooner", DueDate: flexDate("2026-04-01")},
		{Title: "undated"},
		{Title: "later", DueDate: flexDate("2026-06-01")},
	}
	for _, in := range fixtures {
		if _, err := CreateItem(db, "user_a", in); err != nil {
			t.Fatalf("Failed to create item %s: %v", in.Title, err)
		}
	}

	items, err := ListItems(db, "user_a", SortSpec{Key: "due_date", Desc: true, NullsFirst: true})
	if err != nil {
		t.Fatalf("Failed to list items: %v", err)
	}

	var titles []string
	for _, item := range items {
		titles = append(titles, item.Title)
	}
	expected := []string{"undated", "later", "sooner"}
	for i := range expected {
		if titles[i] != expected[i] {
			t.Fatalf("Expected order %v, got %v", expected, titles)
		}
	}
}

func TestValidSortKey(t *testing.T) {
	for _, key := range []string{"due_date", "title", "created_at", "priority"} {
		if !ValidSortKey(key) {
			t.Errorf("Expected %s to be a valid sort key", key)
		}
	}
	for _, key := range []string{"owner_email; DROP TABLE", "id", ""} {
		if ValidSortKey(key) {
			t.Errorf("Expected %s to be rejected", key)
		}
	}
}

func TestUpdateItemPatchMerge(t *testing.T) {
	db := setupServiceDB(t)

	created, err := CreateItem(db, "user_a", ItemInput{
		Title:       "Policy review",
		Description: "Annual review of the data retention policy",
		DueDate:     flexDate("2026-05-01"),
		OwnerEmail:  "owner@example.com",
	})
	if err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}

	var patch ItemPatch
	body := []byte(`{"status":"compliant","due_date":null,"last_reviewed_date":"2026-03-15"}`)
	if err := json.Unmarshal(body, &patch); err != nil {
		t.Fatalf("Failed to unmarshal patch: %v", err)
	}
	if err := patch.Validate(); err != nil {
		t.Fatalf("Expected patch to validate: %v", err)
	}

	updated, err := UpdateItem(db, "user_a", created.ID, patch)
	if err != nil {
		t.Fatalf("Failed to update item: %v", err)
	}

	if updated.Status != models.StatusCompliant {
		t.Errorf("Expected status compliant, got %s", updated.Status)
	}
	if updated.DueDate != nil {
		t.Errorf("Expected explicit null to clear due date, got %v", updated.DueDate)
	}
	if updated.LastReviewedDate == nil {
		t.Fatal("Expected last reviewed date to be set")
	}
	// Absent fields are untouched.
	if updated.Title != "Policy review" {
		t.Errorf("Expected title unchanged, got %s", updated.Title)
	}
	if updated.Description != "Annual review of the data retention policy" {
		t.Errorf("Expected description unchanged, got %s", updated.Description)
	}
	if updated.OwnerEmail != "owner@example.com" {
		t.Errorf("Expected owner email unchanged, got %s", updated.OwnerEmail)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) && !updated.UpdatedAt.Equal(created.UpdatedAt) {
		t.Error("Expected updated_at to advance")
	}
}

func TestItemPatchValidation(t *testing.T) {
	var patch ItemPatch
	if err := json.Unmarshal([]byte(`{"status":"bogus"}`), &patch); err != nil {
		t.Fatalf("Failed to unmarshal patch: %v", err)
	}
	if err := patch.Validate(); err == nil {
		t.Error("Expected an unknown status to fail patch validation")
	}

	patch = ItemPatch{}
	if err := json.Unmarshal([]byte(`{"title":""}`), &patch); err != nil {
		t.Fatalf("Failed to unmarshal patch: %v", err)
	}
	if err := patch.Validate(); err == nil {
		t.Error("Expected an empty title to fail patch validation")
	}
}

func TestUpdateItemWrongUser(t *testing.T) {
	db := setupServiceDB(t)

	created, err := CreateItem(db, "user_a", ItemInput{Title: "Private"})
	if err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}

	var patch ItemPatch
	if err := json.Unmarshal([]byte(`{"title":"Hijacked"}`), &patch); err != nil {
		t.Fatalf("Failed to unmarshal patch: %v", err)
	}

	_, err = UpdateItem(db, "user_b", created.ID, patch)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for another user's item, got %v", err)
	}

	// Unchanged for the owner.
	items, _ := ListItems(db, "user_a", DefaultSort())
	if len(items) != 1 || items[0].Title != "Private" {
		t.Errorf("Expected owner's item untouched, got %+v", items)
	}
}

func TestDeleteItem(t *testing.T) {
	db := setupServiceDB(t)

	created, err := CreateItem(db, "user_a", ItemInput{Title: "Ephemeral"})
	if err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}

	// Another user's delete is a silent no-op.
	if err := DeleteItem(db, "user_b", created.ID); err != nil {
		t.Errorf("Expected cross-user delete to succeed silently, got %v", err)
	}
	items, _ := ListItems(db, "user_a", DefaultSort())
	if len(items) != 1 {
		t.Fatalf("Expected item to survive cross-user delete, got %d items", len(items))
	}

	// Owner delete removes it.
	if err := DeleteItem(db, "user_a", created.ID); err != nil {
		t.Fatalf("Failed to delete item: %v", err)
	}
	items, _ = ListItems(db, "user_a", DefaultSort())
	if len(items) != 0 {
		t.Errorf("Expected no items after delete, got %d", len(items))
	}

	// Deleting again still succeeds.
	if err := DeleteItem(db, "user_a", created.ID); err != nil {
		t.Errorf("Expected repeat delete to succeed silently, got %v", err)
	}
}

func TestUpdateItemClearCategory(t *testing.T) {
	db := setupServiceDB(t)

	cat, err := CreateCategory(db, CategoryInput{Name: "Audit & Assurance"})
	if err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	created, err := CreateItem(db, "user_a", ItemInput{Title: "External audit", CategoryID: &cat.ID})
	if err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}

	var patch ItemPatch
	if err := json.Unmarshal([]byte(`{"category_id":null}`), &patch); err != nil {
		t.Fatalf("Failed to unmarshal patch: %v", err)
	}

	updated, err := UpdateItem(db, "user_a", created.ID, patch)
	if err != nil {
		t.Fatalf("Failed to update item: %v", err)
	}
	if updated.CategoryID != nil {
		t.Errorf("Expected category cleared, got %v", *updated.CategoryID)
	}
}
