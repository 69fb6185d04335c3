package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func handleAgentCosts(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := findAgent(c, opts.DB)
		if !ok {
			return
		}

		costs, err := opts.Recorder.AgentCosts(agent.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list costs"})
			return
		}
		if len(costs) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no costs recorded for this agent"})
			return
		}
		c.JSON(http.StatusOK, costs)
	}
}

func handleCostSummary(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := findAgent(c, opts.DB)
		if !ok {
			return
		}

		summary, err := opts.Recorder.Summarize(agent.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not summarize costs"})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}
