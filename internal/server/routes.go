package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/conductor/internal/models"
	"gorm.io/gorm"
)

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, opts Opts) {
	// Agents and the execution pipeline.
	router.POST("/agents", handleCreateAgent(opts.DB))
	router.GET("/agents", handleListAgents(opts.DB))
	router.GET("/export/agents", handleExportAgents(opts.DB))
	router.POST("/import/agents", handleImportAgents(opts.DB))
	router.GET("/agents/:id", handleGetAgent(opts.DB))
	router.PUT("/agents/:id", handleUpdateAgent(opts.DB))
	router.DELETE("/agents/:id", handleDeleteAgent(opts.DB))

	router.POST("/agents/:id/run/stream", handleRunStream(opts))
	router.POST("/agents/:id/run", handleRun(opts))
	router.DELETE("/agents/:id/memory", handleClearMemory(opts))
	router.GET("/agents/:id/costs", handleAgentCosts(opts))
	router.GET("/agents/:id/costs/summary", handleCostSummary(opts))

	// Executions.
	router.GET("/executions", handleListExecutions(opts))
	router.GET("/executions/:id", handleGetExecution(opts))
	router.DELETE("/executions/:id", handleDeleteExecution(opts))

	// Plain persistence wrappers.
	router.POST("/users", handleCreateUser(opts.DB))
	router.GET("/users", handleListUsers(opts.DB))
	router.GET("/users/:id", handleGetUser(opts.DB))
	router.DELETE("/users/:id", handleDeleteUser(opts.DB))

	router.POST("/prompts", handleCreatePrompt(opts.DB))
	router.GET("/prompts", handleListPrompts(opts.DB))
	router.GET("/prompts/:id", handleGetPrompt(opts.DB))
	router.DELETE("/prompts/:id", handleDeletePrompt(opts.DB))

	// External retrieval collaborator.
	router.POST("/rag/query", handleRAGQuery(opts))
	router.POST("/rag/upload", handleRAGUpload(opts))

	router.GET("/health", handleHealth(opts))
}

// parseID reads a numeric path parameter, answering 400 when malformed.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// findAgent loads the agent for the :id parameter, answering 400/404 on
// failure.
func findAgent(c *gin.Context, db *gorm.DB) (*models.Agent, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}

	var agent models.Agent
	if err := db.First(&agent, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		}
		return nil, false
	}
	return &agent, true
}
