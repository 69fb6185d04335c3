package db

import (
	"errors"
	"fmt"

	"github.com/zulandar/conductor/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Agent{},
		&models.Prompt{},
		&models.Execution{},
		&models.ExecutionCost{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedDefaultAgent inserts a default local-model agent if no agents exist,
// so a fresh install can stream immediately against a local Ollama server.
func SeedDefaultAgent(db *gorm.DB, ollamaBaseURL string) error {
	var agent models.Agent
	err := db.First(&agent).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: seed default agent: %w", err)
	}

	agent = models.Agent{
		Name:        "default-ollama",
		Provider:    models.ProviderOllama,
		Model:       "gemma:2b-instruct",
		Temperature: 0,
		BaseURL:     ollamaBaseURL,
		Active:      true,
	}
	if err := db.Create(&agent).Error; err != nil {
		return fmt.Errorf("db: seed default agent: %w", err)
	}
	return nil
}
