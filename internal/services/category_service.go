package services

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/localnerve/compliance-registry/internal/models"
	"gorm.io/gorm"
)

// CategoryInput is the payload for creating a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// Validate implements input validation for CategoryInput.
func (in CategoryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Description, validation.Length(0, 1024)),
		validation.Field(&in.Color, validation.Length(0, 32)),
	)
}

// ListCategories returns all categories in creation order.
func ListCategories(db *gorm.DB) ([]models.ComplianceCategory, error) {
	var categories []models.ComplianceCategory
	if err := db.Order("created_at ASC").Order("id ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory inserts a new category with a generated id and timestamp.
func CreateCategory(db *gorm.DB, in CategoryInput) (*models.ComplianceCategory, error) {
	category := models.ComplianceCategory{
		ID:          "cat_" + uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.Create(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}
