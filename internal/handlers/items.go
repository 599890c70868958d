// items.go
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

package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/compliance-registry/internal/export"
	"github.com/localnerve/compliance-registry/internal/services"
	"github.com/localnerve/compliance-registry/internal/utils"
	"gorm.io/gorm"
)

// ItemHandler handles compliance item routes
type ItemHandler struct {
	DB *gorm.DB
}

// GetItems handles GET /items
// @Summary List items
// @Description List the caller's compliance items with categories resolved
// @Tags Items
// @Produce json
// @Security BearerAuth
// @Param sort query string false "Sort column (due_date, created_at, updated_at, title, status, priority, last_reviewed_date)"
// @Param order query string false "asc or desc"
// @Param nulls query string false "first or last"
// @Success 200 {array} models.ComplianceItem
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /items [get]
func (h *ItemHandler) GetItems(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusUnauthorized, "items.authorization")
	}

	items, err := services.ListItems(h.DB, user.ID, parseSortSpec(c))
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "getItems")
	}
	return c.Status(fiber.StatusOK).JSON(items)
}

// CreateItem handles POST /items
// @Summary Create an item
// @Description Create a compliance item owned by the caller
// @Tags Items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ItemInput true "Item to create"
// @Success 200 {object} models.ComplianceItem
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /items [post]
func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusUnauthorized, "items.authorization")
	}

	var body services.ItemInput
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "items.validation.input")
	}
	if err := body.Validate(); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "items.validation.input")
	}

	item, err := services.CreateItem(h.DB, user.ID, body)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "createItem")
	}
	return c.Status(fiber.StatusOK).JSON(item)
}

// patchItemBody is the PATCH /items payload: the target id plus the partial
// fields to merge.
type patchItemBody struct {
	ID string `json:"id"`
	services.ItemPatch
}

// UpdateItem handles PATCH /items
// @Summary Update an item
// @Description Merge the given fields onto the caller's item
// @Tags Items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body patchItemBody true "Item id and fields to update"
// @Success 200 {object} models.ComplianceItem
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /items [patch]
func (h *ItemHandler) UpdateItem(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusUnauthorized, "items.authorization")
	}

	var body patchItemBody
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "items.validation.input")
	}
	if body.ID == "" {
		return utils.ErrorResponse(c, "Item id is required", fiber.StatusBadRequest, "items.validation.input")
	}
	if err := body.ItemPatch.Validate(); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "items.validation.input")
	}

	item, err := services.UpdateItem(h.DB, user.ID, body.ID, body.ItemPatch)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, fmt.Sprintf("Item '%s' not found", body.ID))
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "updateItem")
	}
	return c.Status(fiber.StatusOK).JSON(item)
}

// DeleteItem handles DELETE /items?id=...
// Deleting an unknown or non-owned id reports success without mutating
// anything, matching the wire contract the client expects.
// @Summary Delete an item
// @Description Delete the caller's item by id
// @Tags Items
// @Produce json
// @Security BearerAuth
// @Param id query string true "Item id"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /items [delete]
func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusUnauthorized, "items.authorization")
	}

	id := c.Query("id", "")
	if id == "" {
		return utils.ErrorResponse(c, "Item id is required", fiber.StatusBadRequest, "items.validation.input")
	}

	if err := services.DeleteItem(h.DB, user.ID, id); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "deleteItem")
	}
	return utils.MessageResponse(c, "Deleted")
}

// ExportItems handles GET /items/export
// @Summary Export items as CSV
// @Description Stream the caller's items as a CSV document in the requested order
// @Tags Items
// @Produce text/csv
// @Security BearerAuth
// @Param sort query string false "Sort column"
// @Param order query string false "asc or desc"
// @Param nulls query string false "first or last"
// @Success 200 {string} string "CSV document"
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /items/export [get]
func (h *ItemHandler) ExportItems(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusUnauthorized, "items.authorization")
	}

	items, err := services.ListItems(h.DB, user.ID, parseSortSpec(c))
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "exportItems")
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, export.Filename(time.Now().UTC())))

	if err := export.Write(c.Response().BodyWriter(), items); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "exportItems")
	}
	return nil
}
