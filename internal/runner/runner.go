// Package runner orchestrates agent executions: it builds the prompt,
// drives the provider stream, accounts cost, and persists the result.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/zulandar/conductor/internal/cost"
	"github.com/zulandar/conductor/internal/memory"
	"github.com/zulandar/conductor/internal/models"
	"github.com/zulandar/conductor/internal/provider"
	"github.com/zulandar/conductor/internal/recorder"
)

// OpenFunc matches provider.Open. Injectable so tests can substitute a
// scripted stream.
type OpenFunc func(ctx context.Context, cfg provider.Config, req provider.Request) (provider.Stream, error)

// Opts holds configuration for a Runner.
type Opts struct {
	Recorder *recorder.Recorder
	Memory   memory.Store
	Provider provider.Config
	Open     OpenFunc      // defaults to provider.Open
	Timeout  time.Duration // per-run deadline, defaults to 5 minutes
}

// Runner executes agents. Each run is single-attempt end-to-end: no
// persistence or memory mutation happens unless the whole stream completed.
type Runner struct {
	recorder *recorder.Recorder
	memory   memory.Store
	provider provider.Config
	open     OpenFunc
	timeout  time.Duration
}

// New returns a Runner from validated options.
func New(opts Opts) (*Runner, error) {
	if opts.Recorder == nil {
		return nil, fmt.Errorf("runner: recorder is required")
	}
	if opts.Memory == nil {
		return nil, fmt.Errorf("runner: memory store is required")
	}
	if opts.Open == nil {
		opts.Open = provider.Open
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	return &Runner{
		recorder: opts.Recorder,
		memory:   opts.Memory,
		provider: opts.Provider,
		open:     opts.Open,
		timeout:  opts.Timeout,
	}, nil
}

// RunStream executes the agent against the input and returns the event
// stream. The channel is unbuffered: each token event is delivered to the
// consumer before the next provider chunk is requested, preserving provider
// order exactly. The channel closes after the terminal event, or early if
// ctx is cancelled.
func (r *Runner) RunStream(ctx context.Context, agent *models.Agent, input string) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		r.run(ctx, agent, input, events)
	}()
	return events
}

func (r *Runner) run(ctx context.Context, agent *models.Agent, input string, events chan<- Event) {
	// The deadline bounds provider and storage work only. Event delivery
	// watches the caller's own context, so a run that times out still gets
	// its terminal error event; emission gives up only when the caller is
	// actually gone.
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	history, err := r.memory.List(runCtx, agent.ID)
	if err != nil {
		log.Printf("runner: agent %d: read memory: %v", agent.ID, err)
		r.emit(ctx, events, errorEvent("could not load agent memory"))
		return
	}

	stream, err := r.open(runCtx, r.provider, provider.Request{
		Provider:    agent.Provider,
		Model:       agent.Model,
		BaseURL:     agent.BaseURL,
		Temperature: agent.Temperature,
		Prompt:      buildPrompt(history, input),
	})
	if err != nil {
		r.emit(ctx, events, errorEvent(r.describe(agent, err)))
		return
	}
	defer stream.Close()

	var answer strings.Builder
	var usage *provider.Usage
	for stream.Next() {
		chunk := stream.Current()
		answer.WriteString(chunk.Text)
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if !r.emit(ctx, events, tokenEvent(chunk.Text)) {
			// Caller gone mid-stream: abandon with no durable trace.
			return
		}
	}
	if err := stream.Err(); err != nil {
		r.emit(ctx, events, errorEvent(r.describe(agent, err)))
		return
	}

	full := answer.String()
	runCost := r.computeCost(agent, full, usage)

	execution, err := r.recorder.Create(agent, input, full, runCost)
	if err != nil {
		// Generation succeeded but the record is lost; the caller sees an
		// error even though tokens were delivered.
		log.Printf("runner: agent %d: record execution after successful stream: %v", agent.ID, err)
		r.emit(ctx, events, errorEvent("execution completed but could not be recorded"))
		return
	}

	if err := r.memory.Append(runCtx, agent.ID, input, full); err != nil {
		// Memory is advisory context, not a ledger; the execution stands.
		log.Printf("runner: agent %d: append memory: %v", agent.ID, err)
	}
	retained, err := r.memory.List(runCtx, agent.ID)
	if err != nil {
		log.Printf("runner: agent %d: re-read memory: %v", agent.ID, err)
		retained = []memory.Entry{}
	}

	r.emit(ctx, events, EndEvent{
		Type:        "end",
		Answer:      full,
		Memory:      retained,
		Cost:        runCost,
		AgentName:   agent.Name,
		Provider:    agent.Provider,
		Model:       agent.Model,
		ExecutionID: execution.ID,
	})
}

// computeCost picks the provider-specific cost model.
func (r *Runner) computeCost(agent *models.Agent, answer string, usage *provider.Usage) float64 {
	switch agent.Provider {
	case models.ProviderOpenAI:
		var u cost.Usage
		if usage != nil {
			u = cost.Usage{
				PromptTokens:     usage.PromptTokens,
				CompletionTokens: usage.CompletionTokens,
			}
		}
		return cost.Hosted(agent.Model, u)
	default:
		return cost.Local(answer)
	}
}

// describe maps a provider failure to the caller-facing message. Anything
// without a specific classification gets a generic message; the detail goes
// to the server log only.
func (r *Runner) describe(agent *models.Agent, err error) string {
	var perr *provider.Error
	if errors.As(err, &perr) {
		switch perr.Kind {
		case provider.KindUnsupported:
			return perr.Message
		case provider.KindAuth:
			return fmt.Sprintf("%s rejected the configured credentials", agent.Provider)
		case provider.KindRateLimit:
			return fmt.Sprintf("%s rate limit or quota exhausted, try again later", agent.Provider)
		}
	}
	log.Printf("runner: agent %d: provider failure: %v", agent.ID, err)
	return "the provider failed while generating a response"
}

// emit delivers one event, giving up if the caller disconnected.
func (r *Runner) emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
