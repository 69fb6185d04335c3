package runner

import "github.com/zulandar/conductor/internal/memory"

// Event is one item of the caller-facing execution stream. Concrete types
// marshal directly to the wire shapes: zero or more token events, then
// exactly one end or error event.
type Event interface {
	isEvent()
}

// TokenEvent carries one text fragment, in provider order.
type TokenEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// EndEvent is the terminal success event.
type EndEvent struct {
	Type        string         `json:"type"`
	Answer      string         `json:"answer"`
	Memory      []memory.Entry `json:"memory"`
	Cost        float64        `json:"cost"`
	AgentName   string         `json:"agent_name"`
	Provider    string         `json:"provider"`
	Model       string         `json:"model"`
	ExecutionID uint           `json:"execution_id"`
}

// ErrorEvent is the terminal failure event. No end event follows it.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (TokenEvent) isEvent() {}
func (EndEvent) isEvent()   {}
func (ErrorEvent) isEvent() {}

func tokenEvent(content string) TokenEvent {
	return TokenEvent{Type: "token", Content: content}
}

func errorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: "error", Message: message}
}
