package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/tenxdev/internal/repository/sqlstore"
	"github.com/sakif/tenxdev/internal/server"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}
}

func runServe(cmd *cobra.Command, flags *globalFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(logger)

	srv, err := server.New(cmd.Context(), cfg, logger, version)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	// Start blocks until SIGINT or SIGTERM and closes everything it owns.
	return srv.Start()
}

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema and exit",
		Long: `Create or upgrade the database schema and exit.

Migrations are idempotent and also run on every server start; this command
is for deploy pipelines that want the schema in place before traffic arrives.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

			if err := server.EnsureSQLiteDir(cfg.Database); err != nil {
				return err
			}
			db, err := sqlstore.Open(cmd.Context(), cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			logger.Info("schema up to date", slog.String("driver", db.Driver()))
			return nil
		},
	}
}
