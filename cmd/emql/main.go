package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/koba/emql/internal/logging"
	"github.com/koba/emql/internal/storage"
)

var (
	backend   string
	dataPath  string
	logLevel  string
	logFormat string
	logFile   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "emql",
	Short:         "Query processor for the emql dialect",
	Long:          `Run emql statements against a database kept in sqlite, MySQL or PostgreSQL, and dump, copy or compare its databases.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&backend, "backend", "", "Storage backend: sqlite, mysql, postgres or pgx (default: $EMQL_BACKEND or sqlite)")
	flags.StringVar(&dataPath, "path", "", "sqlite data file (default: $EMQL_PATH or "+storage.DefaultPath+")")
	flags.StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	flags.StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(migrateCmd)
}

// session is the store and logger a command works with
type session struct {
	store  *storage.SQLStore
	logger *slog.Logger
	closer io.Closer
}

func (s *session) Close() error {
	err := s.store.Close()
	if cerr := s.closer.Close(); err == nil {
		err = cerr
	}
	return err
}

// openSession configures logging and opens the store from the environment
// and the persistent flags
func openSession(ctx context.Context) (*session, error) {
	// Configure logging
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.New(logging.Config{Level: level, Format: logFormat, OutputPath: logFile})
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	// Load storage configuration
	config, err := loadConfig()
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Connect to storage
	store, err := storage.Open(ctx, config, storage.WithLogger(logger))
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	logger.Info("storage opened", "backend", config.Backend)

	return &session{store: store, logger: logger, closer: closer}, nil
}

// loadConfig applies the flags over the environment
func loadConfig() (storage.Config, error) {
	if backend != "" {
		os.Setenv("EMQL_BACKEND", backend)
	}
	if dataPath != "" {
		os.Setenv("EMQL_PATH", dataPath)
	}
	return storage.LoadConfigFromEnv()
}
