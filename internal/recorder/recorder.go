// Package recorder persists executions and their costs.
package recorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/conductor/internal/models"
	"gorm.io/gorm"
)

// Recorder writes and reads execution records. An execution and its cost
// row always land together or not at all.
type Recorder struct {
	db *gorm.DB
}

// New returns a Recorder over the given database.
func New(db *gorm.DB) (*Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("recorder: db is required")
	}
	return &Recorder{db: db}, nil
}

// Create persists one execution and its cost in a single transaction.
func (r *Recorder) Create(agent *models.Agent, input, output string, cost float64) (*models.Execution, error) {
	execution := models.Execution{
		AgentID:   agent.ID,
		Input:     input,
		Output:    output,
		CreatedAt: time.Now().UTC(),
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&execution).Error; err != nil {
			return err
		}
		executionCost := models.ExecutionCost{
			ExecutionID: execution.ID,
			AgentID:     agent.ID,
			Cost:        cost,
			CreatedAt:   execution.CreatedAt,
		}
		return tx.Create(&executionCost).Error
	})
	if err != nil {
		return nil, fmt.Errorf("recorder: create execution for agent %d: %w", agent.ID, err)
	}
	return &execution, nil
}

// Get returns one execution with its cost, or gorm.ErrRecordNotFound.
func (r *Recorder) Get(executionID uint) (*models.Execution, error) {
	var execution models.Execution
	if err := r.db.Preload("Cost").First(&execution, executionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("recorder: get execution %d: %w", executionID, err)
	}
	return &execution, nil
}

// List returns executions newest first, optionally filtered by agent.
func (r *Recorder) List(agentID *uint) ([]models.Execution, error) {
	query := r.db.Preload("Cost").Order("created_at DESC, id DESC")
	if agentID != nil {
		query = query.Where("agent_id = ?", *agentID)
	}

	var executions []models.Execution
	if err := query.Find(&executions).Error; err != nil {
		return nil, fmt.Errorf("recorder: list executions: %w", err)
	}
	return executions, nil
}

// Delete removes an execution and its cost row. Returns false if the
// execution does not exist.
func (r *Recorder) Delete(executionID uint) (bool, error) {
	var deleted bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Execution{}, executionID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Where("execution_id = ?", executionID).Delete(&models.ExecutionCost{}).Error
	})
	if err != nil {
		return false, fmt.Errorf("recorder: delete execution %d: %w", executionID, err)
	}
	return deleted, nil
}
