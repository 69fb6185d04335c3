// Package rag talks to the external retrieval-augmented generation service.
// Document indexing and vector similarity live entirely in that service;
// this client only carries questions and uploads across.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Ragger is the retrieval collaborator consumed by the HTTP layer.
type Ragger interface {
	// Query answers a question from the indexed documents.
	Query(ctx context.Context, question string) (string, error)

	// Index uploads a document for processing and indexing.
	Index(ctx context.Context, filename string, r io.Reader) (*IndexResult, error)
}

// IndexResult reports the outcome of an upload.
type IndexResult struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
}

// Client is an HTTP Ragger.
type Client struct {
	baseURL    string
	topK       int
	httpClient *http.Client
}

// NewClient returns a Client for the RAG service at baseURL.
func NewClient(baseURL string, topK int) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("rag: base URL is required")
	}
	if topK <= 0 {
		topK = 4
	}
	return &Client{
		baseURL:    baseURL,
		topK:       topK,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

// Query posts the question and returns the service's answer.
func (c *Client) Query(ctx context.Context, question string) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"question": question,
		"top_k":    c.topK,
	})
	if err != nil {
		return "", fmt.Errorf("rag: marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("rag: query: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("rag: query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("rag: query: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	var result struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("rag: decode query response: %w", err)
	}
	return result.Answer, nil
}

// Index streams the document to the service as a multipart upload.
func (c *Client) Index(ctx context.Context, filename string, r io.Reader) (*IndexResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("rag: build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("rag: read document: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("rag: build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/index", &buf)
	if err != nil {
		return nil, fmt.Errorf("rag: index: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rag: index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("rag: index: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	var result IndexResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("rag: decode index response: %w", err)
	}
	if result.Filename == "" {
		result.Filename = filename
	}
	return &result, nil
}
