package models

import "time"

// Execution is one persisted input/output pair produced by running an agent.
// Rows are immutable after creation; only deletion is allowed.
type Execution struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AgentID   uint      `gorm:"index;not null" json:"agent_id"`
	Input     string    `gorm:"type:text" json:"input"`
	Output    string    `gorm:"type:text" json:"output"`
	CreatedAt time.Time `json:"created_at"`

	Cost *ExecutionCost `gorm:"foreignKey:ExecutionID;constraint:OnDelete:CASCADE" json:"cost,omitempty"`
}

// ExecutionCost is the monetary cost attached 1:1 to an Execution.
// AgentID is denormalized so per-agent aggregates avoid a join.
type ExecutionCost struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ExecutionID uint      `gorm:"index;not null" json:"execution_id"`
	AgentID     uint      `gorm:"index;not null" json:"agent_id"`
	Cost        float64   `gorm:"not null" json:"cost"`
	CreatedAt   time.Time `json:"created_at"`
}
