package db

import (
	"fmt"

	"github.com/pwolcott/huntmaster/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration, parents first
// so foreign keys resolve.
func AllModels() []interface{} {
	return []interface{}{
		&models.Guild{},
		&models.Hunt{},
		&models.Round{},
		&models.Puzzle{},
		&models.Note{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
