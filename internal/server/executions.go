package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func handleListExecutions(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var agentID *uint
		if raw := c.Query("agent_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent_id"})
				return
			}
			v := uint(id)
			agentID = &v
		}

		execs, err := opts.Recorder.List(agentID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list executions"})
			return
		}
		c.JSON(http.StatusOK, execs)
	}
}

func handleGetExecution(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		exec, err := opts.Recorder.Get(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "execution not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			}
			return
		}
		c.JSON(http.StatusOK, exec)
	}
}

func handleDeleteExecution(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		deleted, err := opts.Recorder.Delete(id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete execution"})
			return
		}
		if !deleted {
			c.JSON(http.StatusNotFound, gin.H{"error": "execution not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
