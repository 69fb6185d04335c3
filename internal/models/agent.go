package models

import "time"

// Provider tags accepted by the execution pipeline.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Agent is a named LLM configuration. It is read-only during an execution;
// mutation happens only through the CRUD endpoints.
type Agent struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:128;not null;uniqueIndex" json:"name"`
	OwnerID     *uint     `gorm:"index" json:"owner_id,omitempty"`
	Provider    string    `gorm:"size:16;default:ollama;index" json:"provider"`
	Model       string    `gorm:"size:64;not null" json:"model"`
	Temperature float64   `gorm:"default:0" json:"temperature"`
	BaseURL     string    `gorm:"size:255" json:"base_url,omitempty"`
	Active      bool      `gorm:"default:true" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Executions []Execution `gorm:"foreignKey:AgentID;constraint:OnDelete:CASCADE" json:"-"`
}
