package database

import (
	"fmt"
	"postalops/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestConnection creates an in-memory SQLite database with the full schema
// migrated. Used by repository and service tests.
func NewTestConnection() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open test database: %w", err)
	}

	err = db.AutoMigrate(
		&domain.City{},
		&domain.CityRequirement{},
		&domain.ProductSeasonality{},
		&domain.Node{},
		&domain.Panelist{},
		&domain.Product{},
		&domain.AllocationPlan{},
		&domain.AllocationPlanDetail{},
		&domain.User{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate test schema: %w", err)
	}

	return db, nil
}
