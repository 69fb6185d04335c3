package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/conductor/internal/db"
)

func handleHealth(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		components := gin.H{}
		healthy := true

		if err := db.Ping(opts.DB); err != nil {
			components["database"] = "unreachable"
			healthy = false
		} else {
			components["database"] = "ok"
		}

		if opts.Redis != nil {
			if err := opts.Redis.Ping(c.Request.Context()).Err(); err != nil {
				components["redis"] = "unreachable"
				healthy = false
			} else {
				components["redis"] = "ok"
			}
		}

		if opts.Rag != nil {
			components["rag"] = "configured"
		}

		status := "ok"
		code := http.StatusOK
		if !healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "components": components})
	}
}
