// Package memory keeps bounded short-term conversation history per agent.
package memory

import "context"

// Entry is one input/output interaction retained in an agent's memory.
type Entry struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Store is the bounded per-agent history. Entries are ordered
// most-recent-first and the retained length never exceeds the configured
// limit; the oldest entry is dropped once the bound is exceeded.
type Store interface {
	// Append pushes a new interaction to the front of the agent's history
	// and truncates to the limit.
	Append(ctx context.Context, agentID uint, input, output string) error

	// List returns the retained history, most-recent-first. A missing
	// history yields an empty slice, not an error.
	List(ctx context.Context, agentID uint) ([]Entry, error)

	// Clear removes the agent's entire history. Clearing an absent history
	// is not an error.
	Clear(ctx context.Context, agentID uint) error
}
