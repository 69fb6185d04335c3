// Package provider adapts heterogeneous LLM backends to one streaming
// interface. Each backend turns a prompt into a finite, non-restartable
// sequence of text chunks; concatenating the chunks in order reconstructs
// the full answer.
package provider

import (
	"net/http"
	"time"
)

// Usage is a provider-reported token count snapshot. Hosted backends report
// it on the final stream chunk; local backends report eval counts when the
// generation finishes.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Chunk is one incremental fragment of generated text. Usage is nil unless
// this chunk carried a usage snapshot.
type Chunk struct {
	Text  string
	Usage *Usage
}

// Stream is a pull-based chunk sequence. The usual loop:
//
//	for stream.Next() {
//		chunk := stream.Current()
//	}
//	if err := stream.Err(); err != nil { ... }
//
// Next never reorders or batches: each call produces the next chunk exactly
// as the backend emitted it.
type Stream interface {
	Next() bool
	Current() Chunk
	Err() error
	Close() error
}

// Request describes one generation to stream.
type Request struct {
	Provider    string
	Model       string
	BaseURL     string // optional override of the configured endpoint
	Temperature float64
	Prompt      string // final prompt, history already included
}

// Config holds process-wide provider settings.
type Config struct {
	OpenAIAPIKey  string
	OllamaBaseURL string
}

// httpClient is shared by all streams. Streaming responses stay open for
// the whole generation, so no overall client timeout is set here; the
// caller bounds the run through the request context.
var httpClient = &http.Client{
	Transport: &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
	},
}
