package runner

import (
	"fmt"
	"strings"

	"github.com/zulandar/conductor/internal/memory"
)

// buildPrompt prefixes the user input with the agent's retained history,
// oldest interaction first so the provider reads the conversation in order.
// The history is already bounded by the memory store; no extra windowing
// happens here.
func buildPrompt(history []memory.Entry, input string) string {
	if len(history) == 0 {
		return input
	}

	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for i := len(history) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "User: %s\nAgent: %s\n", history[i].Input, history[i].Output)
	}
	b.WriteString("\nUser: ")
	b.WriteString(input)
	b.WriteString("\nAgent:")
	return b.String()
}
