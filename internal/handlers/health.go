package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/compliance-registry/internal/config"
	"github.com/localnerve/compliance-registry/internal/services"
	"gorm.io/gorm"
)

// HealthHandler handles the liveness route
type HealthHandler struct {
	Config *config.Config
	DB     *gorm.DB
}

// Health handles GET /health
// @Summary Liveness check
// @Description Report service health; no auth required
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(h.Config, h.DB)
	status := fiber.StatusOK
	if result.Status != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
