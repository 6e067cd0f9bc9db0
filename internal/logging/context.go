package logging

import "log/slog"

// WithDatabase creates a logger with database context.
//
// Example:
//
//	log := logging.WithDatabase(logger, "loja")
//	log.Info("database selected")
func WithDatabase(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("database", name)
}

// WithTable creates a logger with database and table context
func WithTable(logger *slog.Logger, database, table string) *slog.Logger {
	return logger.With("database", database, "table", table)
}
