// common.go
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
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/compliance-registry/internal/models"
	"github.com/localnerve/compliance-registry/internal/services"
)

// getAuthUser extracts the identity set by the auth middleware.
func getAuthUser(c *fiber.Ctx) (models.AuthUser, error) {
	user, ok := c.Locals("user").(models.AuthUser)
	if !ok {
		return models.AuthUser{}, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// parseSortSpec reads the sort, order and nulls query parameters into a
// SortSpec. Unknown values fall back to the defaults.
func parseSortSpec(c *fiber.Ctx) services.SortSpec {
	spec := services.DefaultSort()

	if key := c.Query("sort", ""); key != "" && services.ValidSortKey(key) {
		spec.Key = key
	}
	if c.Query("order", "asc") == "desc" {
		spec.Desc = true
	}
	if c.Query("nulls", "last") == "first" {
		spec.NullsFirst = true
	}

	return spec
}
