package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func handleRAGQuery(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Rag == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rag service is not configured"})
			return
		}

		var req struct {
			Question string `json:"question"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Question == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
			return
		}

		answer, err := opts.Rag.Query(c.Request.Context(), req.Question)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "rag query failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"answer": answer})
	}
}

func handleRAGUpload(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Rag == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rag service is not configured"})
			return
		}

		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}

		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
			return
		}
		defer f.Close()

		result, err := opts.Rag.Index(c.Request.Context(), header.Filename, f)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "rag upload failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
