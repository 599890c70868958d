package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/compliance-registry/internal/services"
	"github.com/localnerve/compliance-registry/internal/utils"
	"gorm.io/gorm"
)

// CategoryHandler handles compliance category routes
type CategoryHandler struct {
	DB *gorm.DB
}

// GetCategories handles GET /categories
// @Summary List categories
// @Description List all compliance categories in creation order
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ComplianceCategory
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /categories [get]
func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := services.ListCategories(h.DB)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "getCategories")
	}
	return c.Status(fiber.StatusOK).JSON(categories)
}

// CreateCategory handles POST /categories
// @Summary Create a category
// @Description Create a compliance category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CategoryInput true "Category to create"
// @Success 200 {object} models.ComplianceCategory
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var body services.CategoryInput
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "categories.validation.input")
	}
	if err := body.Validate(); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "categories.validation.input")
	}

	category, err := services.CreateCategory(h.DB, body)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "createCategory")
	}
	return c.Status(fiber.StatusOK).JSON(category)
}
