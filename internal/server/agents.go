package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/conductor/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// agentRequest is the create/update payload for an agent.
type agentRequest struct {
	Name        string   `json:"name"`
	OwnerID     *uint    `json:"owner_id"`
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	BaseURL     string   `json:"base_url"`
	Active      *bool    `json:"active"`
}

func handleCreateAgent(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req agentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.Name == "" || req.Model == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and model are required"})
			return
		}

		agent := models.Agent{
			Name:     req.Name,
			OwnerID:  req.OwnerID,
			Provider: req.Provider,
			Model:    req.Model,
			BaseURL:  req.BaseURL,
			Active:   true,
		}
		if agent.Provider == "" {
			agent.Provider = models.ProviderOllama
		}
		if req.Temperature != nil {
			agent.Temperature = *req.Temperature
		}
		if req.Active != nil {
			agent.Active = *req.Active
		}

		if err := db.Create(&agent).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create agent"})
			return
		}
		c.JSON(http.StatusCreated, agent)
	}
}

func handleListAgents(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var agents []models.Agent
		if err := db.Order("id ASC").Find(&agents).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list agents"})
			return
		}
		c.JSON(http.StatusOK, agents)
	}
}

func handleGetAgent(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := findAgent(c, db)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, agent)
	}
}

func handleUpdateAgent(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := findAgent(c, db)
		if !ok {
			return
		}

		var req agentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if req.Name != "" {
			agent.Name = req.Name
		}
		if req.Provider != "" {
			agent.Provider = req.Provider
		}
		if req.Model != "" {
			agent.Model = req.Model
		}
		if req.BaseURL != "" {
			agent.BaseURL = req.BaseURL
		}
		if req.OwnerID != nil {
			agent.OwnerID = req.OwnerID
		}
		if req.Temperature != nil {
			agent.Temperature = *req.Temperature
		}
		if req.Active != nil {
			agent.Active = *req.Active
		}

		if err := db.Save(agent).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update agent"})
			return
		}
		c.JSON(http.StatusOK, agent)
	}
}

func handleDeleteAgent(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := findAgent(c, db)
		if !ok {
			return
		}
		if err := db.Delete(agent).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete agent"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// agentExport is the portable agent bundle format.
type agentExport struct {
	Version int            `json:"version"`
	Agents  []models.Agent `json:"agents"`
}

func handleExportAgents(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var agents []models.Agent
		if err := db.Order("id ASC").Find(&agents).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not export agents"})
			return
		}
		c.JSON(http.StatusOK, agentExport{Version: 1, Agents: agents})
	}
}

func handleImportAgents(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bundle agentExport
		if err := c.ShouldBindJSON(&bundle); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bundle"})
			return
		}

		imported := 0
		for _, agent := range bundle.Agents {
			if agent.Name == "" || agent.Model == "" {
				continue
			}
			// Upsert by name so re-importing a bundle is idempotent.
			row := models.Agent{
				Name:        agent.Name,
				Provider:    agent.Provider,
				Model:       agent.Model,
				Temperature: agent.Temperature,
				BaseURL:     agent.BaseURL,
				Active:      agent.Active,
			}
			err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"provider", "model", "temperature", "base_url", "active"}),
			}).Create(&row).Error
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not import agents"})
				return
			}
			imported++
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "imported": imported})
	}
}
