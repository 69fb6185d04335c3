// Package cost computes per-execution monetary cost estimates.
package cost

import (
	"math"
	"unicode/utf8"
)

// LocalUnitCost is the symbolic per-character rate charged for local-model
// runs. Local inference has no real billing; this keeps a cost signal in
// the ledger anyway.
const LocalUnitCost = 0.001

// Usage holds provider-reported token counts for one run.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// pricing is USD per 1K tokens, keyed by hosted model id.
var pricing = map[string]struct{ prompt, completion float64 }{
	"gpt-4o":      {prompt: 0.005, completion: 0.015},
	"gpt-4o-mini": {prompt: 0.003, completion: 0.006},
}

// Local returns the symbolic cost of a local-model answer: one unit per
// character of output.
func Local(answer string) float64 {
	return float64(utf8.RuneCountInString(answer)) * LocalUnitCost
}

// Hosted returns the cost of a hosted-API run from the static pricing table,
// rounded to 6 decimal places. An unpriced model costs 0.0; that is not an
// error.
func Hosted(model string, usage Usage) float64 {
	p, ok := pricing[model]
	if !ok {
		return 0.0
	}
	promptCost := float64(usage.PromptTokens) / 1000 * p.prompt
	completionCost := float64(usage.CompletionTokens) / 1000 * p.completion
	return round6(promptCost + completionCost)
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
