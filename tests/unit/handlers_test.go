package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/compliance-registry/internal/handlers"
	"github.com/localnerve/compliance-registry/internal/middleware"
	"github.com/localnerve/compliance-registry/internal/models"
	"github.com/localnerve/compliance-registry/internal/services"
	"github.com/localnerve/compliance-registry/internal/types"
	"github.com/localnerve/compliance-registry/tests/helpers"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	// Auto-migrate models
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

// setupTestApp wires the full route table the way cmd/server does
func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	db := setupTestDB(t)
	sessions := services.NewSessionStore()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*types.CustomError); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"message": err.Error(), "ok": false})
		},
	})

	authHandler := &handlers.AuthHandler{DB: db, Sessions: sessions}
	categoryHandler := &handlers.CategoryHandler{DB: db}
	itemHandler := &handlers.ItemHandler{DB: db}

	authRequired := middleware.AuthRequired(sessions)

	app.Post("/auth/signup", authHandler.Signup)
	app.Post("/auth/login", authHandler.Login)
	app.Post("/auth/logout", authRequired, authHandler.Logout)
	app.Get("/auth/user", authRequired, authHandler.CurrentUser)
	app.Get("/categories", authRequired, categoryHandler.GetCategories)
	app.Post("/categories", authRequired, categoryHandler.CreateCategory)
	app.Get("/items", authRequired, itemHandler.GetItems)
	app.Get("/items/export", authRequired, itemHandler.ExportItems)
	app.Post("/items", authRequired, itemHandler.CreateItem)
	app.Patch("/items", authRequired, itemHandler.UpdateItem)
	app.Delete("/items", authRequired, itemHandler.DeleteItem)

	return app, db
}

// TestAuthFlow tests signup, current user, logout and token invalidation
func TestAuthFlow(t *testing.T) {
	app, _ := setupTestApp(t)

	token := helpers.AcquireAccount(t, app, "flow@example.com", helpers.GeneratePassword())

	// Token resolves to the identity
	req := httptest.NewRequest("GET", "/auth/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 200)

	var userResult struct {
		User models.AuthUser `json:"user"`
	}
	helpers.ParseJSON(t, resp, &userResult)
	if userResult.User.Email != "flow@example.com" {
		t.Errorf("Expected identity email flow@example.com, got %s", userResult.User.Email)
	}

	// Logout invalidates the token
	req = httptest.NewRequest("POST", "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 200)

	req = httptest.NewRequest("GET", "/auth/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 401)
}

// TestSignupConflict tests duplicate email rejection
func TestSignupConflict(t *testing.T) {
	app, _ := setupTestApp(t)

	password := helpers.GeneratePassword()
	helpers.AcquireAccount(t, app, "dup@example.com", password)

	body, _ := json.Marshal(map[string]string{
		"email":    "dup@example.com",
		"password": helpers.GeneratePassword(),
	})
	req := httptest.NewRequest("POST", "/auth/signup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 400)
}

// TestMissingToken tests that protected routes reject anonymous requests
func TestMissingToken(t *testing.T) {
	app, _ := setupTestApp(t)

	for _, route := range []struct{ method, path string }{
		{"GET", "/items"},
		{"POST", "/items"},
		{"PATCH", "/items"},
		{"DELETE", "/items?id=x"},
		{"GET", "/items/export"},
		{"GET", "/categories"},
		{"GET", "/auth/user"},
	} {
		req := httptest.NewRequest(route.method, route.path, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to execute request: %v", err)
		}
		if resp.StatusCode != 401 {
			t.Errorf("%s %s: expected 401, got %d", route.method, route.path, resp.StatusCode)
		}
	}

	// Garbage token is equally rejected
	req := httptest.NewRequest("GET", "/items", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 401)
}

// TestItemLifecycle tests create, list, patch and delete over HTTP
func TestItemLifecycle(t *testing.T) {
	app, _ := setupTestApp(t)

	token := helpers.AcquireAccount(t, app, "items@example.com", helpers.GeneratePassword())

	// Create
	body, _ := json.Marshal(map[string]interface{}{
		"title":       "Renew insurance policy",
		"priority":    "high",
		"due_date":    "2026-10-01",
		"owner_email": "owner@example.com",
	})
	req := httptest.NewRequest("POST", "/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 200)

	var created models.ComplianceItem
	helpers.ParseJSON(t, resp, &created)
	if created.ID == "" {
		t.Fatal("Expected a generated item id")
	}
	if created.Status != "pending" {
		t.Errorf("Expected default status pending, got %s", created.Status)
	}

	// List
	req = httptest.NewRequest("GET", "/items", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 200)

	var items []models.ComplianceItem
	helpers.ParseJSON(t, resp, &items)
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}

	// Patch: set status, clear due date
	body, _ = json.Marshal(map[string]interface{}{
		"id":       created.ID,
		"status":   "compliant",
		"due_date": nil,
	})
	req = httptest.NewRequest("PATCH", "/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 200)

	var updated models.ComplianceItem
	helpers.ParseJSON(t, resp, &updated)
	if updated.Status != "compliant" {
		t.Errorf("Expected status compliant, got %s", updated.Status)
	}
	if updated.DueDate != nil {
		t.Errorf("Expected due date cleared, got %v", updated.DueDate)
	}
	if updated.Title != "Renew insurance policy" {
		t.Errorf("Expected title unchanged, got %s", updated.Title)
	}

	// Delete
	req = httptest.NewRequest("DELETE", "/items?id="+created.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 200)

	req = httptest.NewRequest("GET", "/items", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.ParseJSON(t, resp, &items)
	if len(items) != 0 {
		t.Errorf("Expected no items after delete, got %d", len(items))
	}
}

// TestItemValidation tests input rejection
func TestItemValidation(t *testing.T) {
	app, _ := setupTestApp(t)

	token := helpers.AcquireAccount(t, app, "validate@example.com", helpers.GeneratePassword())

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"status": "pending"}},
		{"bad status", map[string]interface{}{"title": "x", "status": "done"}},
		{"bad priority", map[string]interface{}{"title": "x", "priority": "urgent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest("POST", "/items", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Failed to execute request: %v", err)
			}
			helpers.AssertStatus(t, resp, 400)
		})
	}
}

// TestItemIsolation tests that one user cannot read or mutate another's items
func TestItemIsolation(t *testing.T) {
	app, _ := setupTestApp(t)

	tokenA := helpers.AcquireAccount(t, app, "a@example.com", helpers.GeneratePassword())
	tokenB := helpers.AcquireAccount(t, app, "b@example.com", helpers.GeneratePassword())

	body, _ := json.Marshal(map[string]interface{}{"title": "A's secret"})
	req := httptest.NewRequest("POST", "/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenA)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	var created models.ComplianceItem
	helpers.ParseJSON(t, resp, &created)

	// B sees nothing
	req = httptest.NewRequest("GET", "/items", nil)
	req.Header.Set("Authorization", "Bearer "+tokenB)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	var items []models.ComplianceItem
	helpers.ParseJSON(t, resp, &items)
	if len(items) != 0 {
		t.Errorf("Expected user B to see no items, got %d", len(items))
	}

	// B cannot patch A's item
	body, _ = json.Marshal(map[string]interface{}{"id": created.ID, "title": "Hijacked"})
	req = httptest.NewRequest("PATCH", "/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenB)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 404)

	// B's delete of A's item reports success but changes nothing
	req = httptest.NewRequest("DELETE", "/items?id="+created.ID, nil)
	req.Header.Set("Authorization", "Bearer "+tokenB)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 200)

	req = httptest.NewRequest("GET", "/items", nil)
	req.Header.Set("Authorization", "Bearer "+tokenA)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.ParseJSON(t, resp, &items)
	if len(items) != 1 || items[0].Title != "A's secret" {
		t.Errorf("Expected A's item untouched, got %+v", items)
	}
}

// TestCategories tests category listing and creation
func TestCategories(t *testing.T) {
	app, db := setupTestApp(t)

	token := helpers.AcquireAccount(t, app, "cats@example.com", helpers.GeneratePassword())

	helpers.CreateTestCategory(t, db, "Tax Compliance")

	body, _ := json.Marshal(map[string]string{"name": "Data Privacy", "color": "#8B5CF6"})
	req := httptest.NewRequest("POST", "/categories", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 200)

	req = httptest.NewRequest("GET", "/categories", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 200)

	var categories []models.ComplianceCategory
	helpers.ParseJSON(t, resp, &categories)
	if len(categories) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(categories))
	}

	// Missing name is rejected
	body, _ = json.Marshal(map[string]string{"color": "#000000"})
	req = httptest.NewRequest("POST", "/categories", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 400)
}

// TestExport tests the CSV download
func TestExport(t *testing.T) {
	app, _ := setupTestApp(t)

	token := helpers.AcquireAccount(t, app, "export@example.com", helpers.GeneratePassword())

	body, _ := json.Marshal(map[string]interface{}{
		"title":    `Quarterly, "Q3" Review`,
		"status":   "in_progress",
		"priority": "high",
	})
	req := httptest.NewRequest("POST", "/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if _, err := app.Test(req); err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}

	req = httptest.NewRequest("GET", "/items/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 200)

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Expected text/csv content type, got %s", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "compliance-registry-") {
		t.Errorf("Expected dated attachment filename, got %s", cd)
	}

	csvBody := string(helpers.ReadBody(t, resp))
	if !strings.Contains(csvBody, "Compliance ID") {
		t.Error("Expected CSV header row")
	}
	if !strings.Contains(csvBody, "COMP-001") {
		t.Error("Expected COMP-001 row id")
	}
	if !strings.Contains(csvBody, `"Quarterly, ""Q3"" Review"`) {
		t.Error("Expected quoted title in CSV output")
	}
}
