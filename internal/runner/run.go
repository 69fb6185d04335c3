package runner

import (
	"context"
	"fmt"

	"github.com/zulandar/conductor/internal/memory"
	"github.com/zulandar/conductor/internal/models"
)

// Result is the outcome of a blocking run.
type Result struct {
	Answer      string         `json:"answer"`
	Memory      []memory.Entry `json:"memory"`
	Cost        float64        `json:"cost"`
	AgentName   string         `json:"agent_name"`
	Provider    string         `json:"provider"`
	Model       string         `json:"model"`
	ExecutionID uint           `json:"execution_id"`
}

// Run executes the agent and blocks until the run finishes, draining the
// same event stream the streaming endpoint uses.
func (r *Runner) Run(ctx context.Context, agent *models.Agent, input string) (*Result, error) {
	for ev := range r.RunStream(ctx, agent, input) {
		switch e := ev.(type) {
		case EndEvent:
			return &Result{
				Answer:      e.Answer,
				Memory:      e.Memory,
				Cost:        e.Cost,
				AgentName:   e.AgentName,
				Provider:    e.Provider,
				Model:       e.Model,
				ExecutionID: e.ExecutionID,
			}, nil
		case ErrorEvent:
			return nil, fmt.Errorf("runner: %s", e.Message)
		}
	}
	return nil, fmt.Errorf("runner: run abandoned: %w", ctx.Err())
}
