package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// runRequest is the payload for both the streaming and blocking run endpoints.
type runRequest struct {
	Input string `json:"input"`
}

func handleRunStream(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := findAgent(c, opts.DB)
		if !ok {
			return
		}

		var req runRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Input == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "input is required"})
			return
		}

		c.Writer.Header().Set("Content-Type", "application/x-ndjson")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.WriteHeader(http.StatusOK)

		enc := json.NewEncoder(c.Writer)
		for ev := range opts.Runner.RunStream(c.Request.Context(), agent, req.Input) {
			if err := enc.Encode(ev); err != nil {
				// Client is gone; the runner sees the context cancel.
				return
			}
			c.Writer.Flush()
		}
	}
}

func handleRun(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := findAgent(c, opts.DB)
		if !ok {
			return
		}

		var req runRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Input == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "input is required"})
			return
		}

		res, err := opts.Runner.Run(c.Request.Context(), agent, req.Input)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func handleClearMemory(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := findAgent(c, opts.DB)
		if !ok {
			return
		}
		if err := opts.Memory.Clear(c.Request.Context(), agent.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear memory"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "memory cleared", "agent_id": agent.ID})
	}
}
