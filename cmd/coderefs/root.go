package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"coderefs/internal/config"
	"coderefs/internal/logging"
	"coderefs/internal/paths"
	"coderefs/internal/storage"
	"coderefs/internal/version"
)

var (
	configFile string
	envFile    string
	logFormat  string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "coderefs",
	Short: "Inventory of code references in documentation",
	Long: `coderefs scans docsets for :::code directives that pull samples from
external repositories, and writes a CSV inventory of every reference with the
article metadata and the resolved GitHub file URL.

Optionally each reference is enriched with the upstream commit history of the
referenced file, to find samples that changed after the article was written.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnvFile(envFile)
	},
}

func init() {
	rootCmd.SetVersionTemplate("coderefs version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.json", "Inventory config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before running")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Diagnostic log format (csv, human, json); default from config or terminal")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level (debug, info, warn, error)")
}

// loadEnvFile loads KEY=value pairs without overriding the environment.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// mustLoadConfig loads and validates the config file or exits.
func mustLoadConfig() *config.Config {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config %s: %v\n", configFile, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// loadConfigOrDefault is for commands that work without a config file.
func loadConfigOrDefault() *config.Config {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// mustGetRepoRoot returns CODEREFS_REPO_ROOT or exits.
func mustGetRepoRoot() string {
	root, err := paths.RepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Set %s to your repo root before running.\n", config.EnvRepoRoot)
		os.Exit(1)
	}
	return root
}

// mustGetResultsDir resolves and creates the results folder or exits.
func mustGetResultsDir(cfg *config.Config) string {
	dir, err := paths.ResultsDir(cfg.ResultsFolder)
	if err == nil {
		err = paths.EnsureDir(dir)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing results folder: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// mustOpenDB opens the run database in the results folder or exits.
func mustOpenDB(dir string, logger *logging.Logger) *storage.DB {
	db, err := storage.Open(dir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	return db
}

// newLogger builds the diagnostic logger. Diagnostics go to stderr so that
// command output on stdout stays parseable.
func newLogger(cfg *config.Config) *logging.Logger {
	format := logFormat
	level := logLevel
	if cfg != nil {
		if format == "" {
			format = cfg.Logging.Format
		}
		if level == "" {
			level = cfg.Logging.Level
		}
	}
	return logging.NewLogger(logging.Config{
		Format: logging.Format(format),
		Level:  logging.ParseLevel(level),
		Output: os.Stderr,
	})
}

// newContext returns a context canceled on interrupt.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// newTimeoutContext returns a context with a deadline, also canceled on interrupt.
func newTimeoutContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := newContext()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
