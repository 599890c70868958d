package services

import (
	"fmt"
	"log"

	"github.com/localnerve/compliance-registry/internal/config"
	"github.com/localnerve/compliance-registry/internal/utils"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Mail         string            `json:"mail"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck performs a health check of the service. An unconfigured mail
// sink is an expected state, not a failure.
func HealthCheck(cfg *config.Config, db *gorm.DB) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "ok",
		Details: make(map[string]string),
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Status = "unhealthy"
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		result.ErrorMessage = fmt.Sprintf("Database connection error: %v", err)
		log.Printf("Health check failed - database connection: %v", err)
	} else {
		if err := sqlDB.Ping(); err != nil {
			result.Status = "unhealthy"
			result.Database = "unreachable"
			result.Details["database_ping_error"] = err.Error()
			result.ErrorMessage = fmt.Sprintf("Database ping failed: %v", err)
			log.Printf("Health check failed - database ping: %v", err)
		} else {
			result.Database = "ok"
			result.Details["database_type"] = cfg.DBType
			result.Details["database_name"] = cfg.DBDatabase
		}
	}

	// Check SMTP reachability when configured
	if !cfg.MailConfigured() {
		result.Mail = "not_configured"
	} else if err := utils.PingSMTP(cfg.SMTPHost, cfg.SMTPPort); err != nil {
		// Reminders degrade to log-only; the service itself stays up.
		result.Mail = "unreachable"
		result.Details["smtp_error"] = err.Error()
		log.Printf("Health check - SMTP ping failed: %v", err)
	} else {
		result.Mail = "ok"
		result.Details["smtp_host"] = cfg.SMTPHost
	}

	return result
}
