package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/conductor/internal/models"
	"gorm.io/gorm"
)

func handleCreatePrompt(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Content     string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and content are required"})
			return
		}

		// A prompt re-created under an existing name becomes the next version.
		version := 1
		var latest models.Prompt
		err := db.Where("name = ?", req.Name).Order("version DESC").First(&latest).Error
		if err == nil {
			version = latest.Version + 1
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		prompt := models.Prompt{
			Name:        req.Name,
			Description: req.Description,
			Content:     req.Content,
			Version:     version,
		}
		if err := db.Create(&prompt).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create prompt"})
			return
		}
		c.JSON(http.StatusCreated, prompt)
	}
}

func handleListPrompts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var prompts []models.Prompt
		if err := db.Order("name ASC, version DESC").Find(&prompts).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list prompts"})
			return
		}
		c.JSON(http.StatusOK, prompts)
	}
}

func handleGetPrompt(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		var prompt models.Prompt
		if err := db.First(&prompt, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "prompt not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			}
			return
		}
		c.JSON(http.StatusOK, prompt)
	}
}

func handleDeletePrompt(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		res := db.Delete(&models.Prompt{}, id)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete prompt"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "prompt not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
