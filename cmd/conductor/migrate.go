package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zulandar/conductor/internal/config"
	"github.com/zulandar/conductor/internal/db"
)

func newMigrateCmd() *cobra.Command {
	var (
		configPath string
		seed       bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long:  "Runs the schema migrations against the configured database. Safe to run multiple times.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.OutOrStdout(), configPath, seed)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conductor.yaml", "path to Conductor config file")
	cmd.Flags().BoolVar(&seed, "seed", false, "create the default local agent if no agents exist")
	return cmd
}

func runMigrate(out io.Writer, configPath string, seed bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintln(out, "Schema up to date.")

	if seed {
		if err := db.SeedDefaultAgent(gormDB, cfg.Providers.OllamaBaseURL); err != nil {
			return fmt.Errorf("seed default agent: %w", err)
		}
		fmt.Fprintln(out, "Default agent ensured.")
	}
	return nil
}
