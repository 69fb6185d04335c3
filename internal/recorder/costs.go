package recorder

import (
	"fmt"
	"time"

	"github.com/zulandar/conductor/internal/models"
)

// AgentCost is one cost row in an agent's ledger.
type AgentCost struct {
	ExecutionID uint      `json:"execution_id"`
	Cost        float64   `json:"cost"`
	CreatedAt   time.Time `json:"created_at"`
}

// CostSummary aggregates an agent's execution costs.
type CostSummary struct {
	TotalCost   float64            `json:"total_cost"`
	AverageCost float64            `json:"average_cost"`
	Executions  int64              `json:"executions"`
	ByProvider  map[string]float64 `json:"by_provider"`
}

// AgentCosts returns the cost of every recorded execution for an agent,
// newest first.
func (r *Recorder) AgentCosts(agentID uint) ([]AgentCost, error) {
	var rows []models.ExecutionCost
	if err := r.db.Where("agent_id = ?", agentID).
		Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("recorder: costs for agent %d: %w", agentID, err)
	}

	costs := make([]AgentCost, 0, len(rows))
	for _, row := range rows {
		costs = append(costs, AgentCost{
			ExecutionID: row.ExecutionID,
			Cost:        row.Cost,
			CreatedAt:   row.CreatedAt,
		})
	}
	return costs, nil
}

// Summarize returns total, average, count, and a per-provider breakdown for
// one agent's costs. An agent with no executions summarizes to zeros.
func (r *Recorder) Summarize(agentID uint) (*CostSummary, error) {
	var agg struct {
		Total float64
		Count int64
	}
	err := r.db.Model(&models.ExecutionCost{}).
		Select("COALESCE(SUM(cost), 0) AS total, COUNT(id) AS count").
		Where("agent_id = ?", agentID).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("recorder: summarize agent %d: %w", agentID, err)
	}

	summary := &CostSummary{
		TotalCost:  agg.Total,
		Executions: agg.Count,
		ByProvider: map[string]float64{},
	}
	if agg.Count > 0 {
		summary.AverageCost = agg.Total / float64(agg.Count)
	}

	var breakdown []struct {
		Provider string
		Total    float64
	}
	err = r.db.Model(&models.ExecutionCost{}).
		Select("agents.provider AS provider, SUM(execution_costs.cost) AS total").
		Joins("JOIN agents ON agents.id = execution_costs.agent_id").
		Where("execution_costs.agent_id = ?", agentID).
		Group("agents.provider").
		Scan(&breakdown).Error
	if err != nil {
		return nil, fmt.Errorf("recorder: provider breakdown for agent %d: %w", agentID, err)
	}
	for _, b := range breakdown {
		summary.ByProvider[b.Provider] = b.Total
	}

	return summary, nil
}
