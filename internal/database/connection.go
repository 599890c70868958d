// connection.go
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

package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/localnerve/compliance-registry/internal/config"
	"github.com/localnerve/compliance-registry/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect establishes a database connection based on the configured DB_TYPE
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DBType {
	case "mysql", "mariadb":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBDatabase,
		)
		dialector = mysql.Open(dsn)

	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBDatabase,
			cfg.DBPort,
		)
		dialector = postgres.Open(dsn)

	case "sqlite":
		// For SQLite, DBDatabase is the file path
		if dir := filepath.Dir(cfg.DBDatabase); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.DBDatabase)

	case "sqlserver", "mssql":
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBDatabase,
		)
		dialector = sqlserver.Open(dsn)

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// category_id is a soft reference; a dangling id must read back as
		// "no category", not fail a constraint.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB for connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(cfg.DBConnectionLimit)
	sqlDB.SetMaxIdleConns(cfg.DBConnectionLimit / 2)

	log.Printf("Connected to %s database: %s", cfg.DBType, cfg.DBDatabase)

	return db, nil
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.ComplianceCategory{},
		&models.ComplianceItem{},
		&models.NotificationRecord{},
		&models.EmailLog{},
	)
}

// SeedCategories inserts the default finance compliance categories when the
// table is empty.
func SeedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.ComplianceCategory{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	defaults := []models.ComplianceCategory{
		{ID: "1", Name: "Financial Reporting", Description: "Financial statements, disclosures, and reporting requirements", Color: "#dc2626", CreatedAt: now},
		{ID: "2", Name: "Tax Compliance", Description: "Tax filings, payments, and regulatory tax requirements", Color: "#dc2626", CreatedAt: now},
		{ID: "3", Name: "Audit & Controls", Description: "Internal controls, audit requirements, and risk management", Color: "#000000", CreatedAt: now},
		{ID: "4", Name: "Regulatory Compliance", Description: "Banking regulations, SOX, GAAP, and other financial regulations", Color: "#dc2626", CreatedAt: now},
		{ID: "5", Name: "Budget & Forecasting", Description: "Budget compliance, forecasting accuracy, and variance analysis", Color: "#000000", CreatedAt: now},
		{ID: "6", Name: "Accounts Payable/Receivable", Description: "AP/AR processes, payment terms, and collection compliance", Color: "#dc2626", CreatedAt: now},
		{ID: "7", Name: "Capital Management", Description: "Capital allocation, debt compliance, and liquidity requirements", Color: "#000000", CreatedAt: now},
	}

	if err := db.Create(&defaults).Error; err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	log.Printf("Seeded %d default compliance categories", len(defaults))
	return nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
