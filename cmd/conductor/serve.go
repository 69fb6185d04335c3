package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/zulandar/conductor/internal/config"
	"github.com/zulandar/conductor/internal/db"
	"github.com/zulandar/conductor/internal/memory"
	"github.com/zulandar/conductor/internal/provider"
	"github.com/zulandar/conductor/internal/rag"
	"github.com/zulandar/conductor/internal/recorder"
	"github.com/zulandar/conductor/internal/runner"
	"github.com/zulandar/conductor/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Conductor API server",
		Long:  "Connects to the database and memory backend, migrates the schema, and serves the HTTP API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.OutOrStdout(), configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conductor.yaml", "path to Conductor config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func runServe(out io.Writer, configPath string, port int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := db.SeedDefaultAgent(gormDB, cfg.Providers.OllamaBaseURL); err != nil {
		return fmt.Errorf("seed default agent: %w", err)
	}

	ttl := time.Duration(cfg.Memory.TTLSeconds) * time.Second

	var store memory.Store
	var redisClient *redis.Client
	var sweeper *cron.Cron
	switch cfg.Memory.Backend {
	case "redis":
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("connect redis at %s: %w", cfg.Redis.Addr, err)
		}
		store = memory.NewRedisStore(redisClient, cfg.Memory.Limit, ttl)
	default:
		local := memory.NewLocalStore(cfg.Memory.Limit, ttl)
		store = local
		if ttl > 0 {
			// Redis expires keys on its own; the local backend needs a sweep.
			sweeper = cron.New()
			if _, err := sweeper.AddFunc("@every 1m", local.Sweep); err != nil {
				return fmt.Errorf("schedule memory sweep: %w", err)
			}
			sweeper.Start()
			defer sweeper.Stop()
		}
	}

	rec, err := recorder.New(gormDB)
	if err != nil {
		return err
	}

	run, err := runner.New(runner.Opts{
		Recorder: rec,
		Memory:   store,
		Provider: provider.Config{
			OpenAIAPIKey:  cfg.Providers.OpenAIAPIKey,
			OllamaBaseURL: cfg.Providers.OllamaBaseURL,
		},
		Timeout: time.Duration(cfg.Providers.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return err
	}

	var ragger rag.Ragger
	if cfg.RAG.BaseURL != "" {
		client, err := rag.NewClient(cfg.RAG.BaseURL, cfg.RAG.TopK)
		if err != nil {
			return err
		}
		ragger = client
	} else {
		log.Printf("serve: rag base_url not configured, rag endpoints disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx, server.Opts{
		DB:       gormDB,
		Runner:   run,
		Memory:   store,
		Recorder: rec,
		Rag:      ragger,
		Redis:    redisClient,
		Port:     cfg.Server.Port,
		Out:      out,
	})
}
