// Package server exposes the Conductor HTTP API.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/zulandar/conductor/internal/memory"
	"github.com/zulandar/conductor/internal/rag"
	"github.com/zulandar/conductor/internal/recorder"
	"github.com/zulandar/conductor/internal/runner"
	"gorm.io/gorm"
)

// Opts holds configuration and collaborators for the HTTP server.
type Opts struct {
	DB       *gorm.DB
	Runner   *runner.Runner
	Memory   memory.Store
	Recorder *recorder.Recorder
	Rag      rag.Ragger    // optional; RAG routes 503 without it
	Redis    *redis.Client // optional; health reports it when present
	Port     int
	Out      io.Writer
}

func (o *Opts) validate() error {
	if o.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if o.Runner == nil {
		return fmt.Errorf("server: runner is required")
	}
	if o.Memory == nil {
		return fmt.Errorf("server: memory store is required")
	}
	if o.Recorder == nil {
		return fmt.Errorf("server: recorder is required")
	}
	return nil
}

// Router builds the gin engine with all routes registered.
func Router(opts Opts) (*gin.Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, opts)
	return router, nil
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts Opts) error {
	if opts.Port <= 0 {
		opts.Port = 8000
	}

	router, err := Router(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Conductor listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
