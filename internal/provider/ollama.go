package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/zulandar/conductor/internal/models"
)

// ollamaChatRequest is the /api/chat request body.
type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  ollamaOptions       `json:"options"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

// ollamaChatChunk is one NDJSON line of the streamed response. The final
// line has Done set and carries the eval counts.
type ollamaChatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done            bool   `json:"done"`
	Error           string `json:"error"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// openOllama starts a streaming chat against a local Ollama server.
func openOllama(ctx context.Context, cfg Config, req Request) (Stream, error) {
	baseURL := req.BaseURL
	if baseURL == "" {
		baseURL = cfg.OllamaBaseURL
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model:    req.Model,
		Messages: []ollamaChatMessage{{Role: "user", Content: req.Prompt}},
		Stream:   true,
		Options:  ollamaOptions{Temperature: req.Temperature},
	})
	if err != nil {
		return nil, &Error{Kind: KindIO, Provider: models.ProviderOllama, Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindIO, Provider: models.ProviderOllama, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindIO, Provider: models.ProviderOllama, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &Error{
			Kind:     KindIO,
			Provider: models.ProviderOllama,
			Message:  fmt.Sprintf("status %d: %s", resp.StatusCode, bytes.TrimSpace(detail)),
		}
	}

	return &ollamaStream{body: resp.Body, dec: json.NewDecoder(resp.Body)}, nil
}

// ollamaStream decodes the NDJSON chat stream line by line.
type ollamaStream struct {
	body io.ReadCloser
	dec  *json.Decoder
	cur  Chunk
	err  error
	done bool
}

func (s *ollamaStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	var chunk ollamaChatChunk
	if err := s.dec.Decode(&chunk); err != nil {
		if err != io.EOF {
			s.err = &Error{Kind: KindIO, Provider: models.ProviderOllama, Err: fmt.Errorf("read stream: %w", err)}
		}
		return false
	}

	if chunk.Error != "" {
		s.err = &Error{Kind: KindIO, Provider: models.ProviderOllama, Message: chunk.Error}
		return false
	}

	s.cur = Chunk{Text: chunk.Message.Content}
	if chunk.Done {
		s.done = true
		s.cur.Usage = &Usage{
			PromptTokens:     chunk.PromptEvalCount,
			CompletionTokens: chunk.EvalCount,
		}
	}
	return true
}

func (s *ollamaStream) Current() Chunk { return s.cur }

func (s *ollamaStream) Err() error { return s.err }

func (s *ollamaStream) Close() error { return s.body.Close() }
