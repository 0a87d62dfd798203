// Command tenxdev runs the 10xDev content API and its maintenance tools.
//
//	tenxdev                         start the HTTP server (same as "serve")
//	tenxdev serve --port 9000
//	tenxdev migrate                 create or upgrade the schema and exit
//	tenxdev tags normalize "Auth" "golang"
//	tenxdev tags list
//	tenxdev validate card.json      check a card document offline
//
// Configuration comes from defaults, then --config (or CONFIG_FILE), then the
// environment and .env, then the flags below. See internal/config.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/tenxdev/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
	port       int
	dbDriver   string
	dbDSN      string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "tenxdev",
		Short: "10xDev content API",
		Long: `tenxdev serves the 10xDev REST API: card features, saved items,
videos and documents, and card reviews.

Run without a subcommand to start the server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML config file (default $CONFIG_FILE)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pf.IntVar(&flags.port, "port", 0, "HTTP port (overrides PORT)")
	pf.StringVar(&flags.dbDriver, "db-driver", "", "database driver: sqlite or postgres (overrides DB_DRIVER)")
	pf.StringVar(&flags.dbDSN, "db-dsn", "", "database DSN (overrides DB_DSN)")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	pf.StringVar(&flags.logFormat, "log-format", "", "text or json (overrides LOG_FORMAT)")

	root.AddCommand(
		newServeCmd(flags),
		newMigrateCmd(flags),
		newTagsCmd(),
		newValidateCmd(),
	)
	return root
}

// loadConfig applies the flag layer on top of config.Load. Only flags the
// user actually passed override the lower layers.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath, flags.envFile)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("port") {
		cfg.Port = flags.port
	}
	if changed("db-driver") {
		cfg.Database.Driver = flags.dbDriver
	}
	if changed("db-dsn") {
		cfg.Database.DSN = flags.dbDSN
	}
	if changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}
	return cfg, nil
}

// newLogger builds the process logger. Text is easier to read in a terminal;
// json is what log collectors expect.
func newLogger(w io.Writer, lc config.LogConf) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
