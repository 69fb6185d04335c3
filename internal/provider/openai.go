package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/zulandar/conductor/internal/models"
)

// defaultOpenAIBaseURL is the hosted API endpoint; agents can override it
// to target any OpenAI-compatible service.
const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openaiSSEChunk is one decoded `data:` payload. Usage is null on every
// chunk except the final one when include_usage is requested.
type openaiSSEChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// openOpenAI starts a streaming chat completion. The raw SSE body is read
// directly rather than through a client wrapper so usage snapshots and
// error statuses stay visible; message params still come from the official
// SDK so the request body matches the API schema.
func openOpenAI(ctx context.Context, cfg Config, req Request) (Stream, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, &Error{
			Kind:     KindAuth,
			Provider: models.ProviderOpenAI,
			Message:  "no API key configured",
		}
	}

	baseURL := req.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(req.Prompt),
	}
	body, err := json.Marshal(map[string]interface{}{
		"model":       req.Model,
		"messages":    messages,
		"temperature": req.Temperature,
		"stream":      true,
		"stream_options": map[string]bool{
			"include_usage": true,
		},
	})
	if err != nil {
		return nil, &Error{Kind: KindIO, Provider: models.ProviderOpenAI, Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindIO, Provider: models.ProviderOpenAI, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cfg.OpenAIAPIKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindIO, Provider: models.ProviderOpenAI, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, classifyStatus(resp.StatusCode, detail)
	}

	return &openaiStream{body: resp.Body, scanner: bufio.NewScanner(resp.Body)}, nil
}

// classifyStatus maps an error response to a typed kind so auth and quota
// failures keep their identity through the orchestrator.
func classifyStatus(status int, detail []byte) *Error {
	msg := fmt.Sprintf("status %d: %s", status, bytes.TrimSpace(detail))
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &Error{Kind: KindAuth, Provider: models.ProviderOpenAI, Message: msg}
	case http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimit, Provider: models.ProviderOpenAI, Message: msg}
	default:
		return &Error{Kind: KindIO, Provider: models.ProviderOpenAI, Message: msg}
	}
}

// openaiStream reads SSE `data:` lines until the [DONE] sentinel.
type openaiStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	cur     Chunk
	err     error
}

func (s *openaiStream) Next() bool {
	if s.err != nil {
		return false
	}

	for s.scanner.Scan() {
		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return false
		}

		var chunk openaiSSEChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}

		cur := Chunk{}
		if len(chunk.Choices) > 0 {
			cur.Text = chunk.Choices[0].Delta.Content
		}
		if chunk.Usage != nil {
			cur.Usage = &Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
			}
		}
		s.cur = cur
		return true
	}

	if err := s.scanner.Err(); err != nil {
		s.err = &Error{Kind: KindIO, Provider: models.ProviderOpenAI, Err: fmt.Errorf("read stream: %w", err)}
	}
	return false
}

func (s *openaiStream) Current() Chunk { return s.cur }

func (s *openaiStream) Err() error { return s.err }

func (s *openaiStream) Close() error { return s.body.Close() }
