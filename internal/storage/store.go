// Package storage persists emql databases, tables and records.
//
// Every backend keeps the same three bookkeeping tables: one row per database,
// one row per table holding its schema as JSON, and one row per record holding
// the record as JSON. Tables are loaded and saved whole.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/koba/emql/internal/logging"
	"github.com/koba/emql/internal/schema"
)

var (
	// ErrExists is returned when creating a database or table that already exists
	ErrExists = errors.New("already exists")
	// ErrNotFound is returned when a database is missing
	ErrNotFound = errors.New("not found")
)

// Option configures a store
type Option func(*SQLStore)

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLStore) {
		s.logger = logger
	}
}

// SQLStore keeps emql data in a SQL database reached through database/sql
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

// Open connects to the configured backend and creates the bookkeeping tables
func Open(ctx context.Context, config Config, opts ...Option) (*SQLStore, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}

	driverName, dsn, err := config.driver()
	if err != nil {
		return nil, err
	}

	// Ensure the sqlite directory exists
	if driverName == "sqlite" {
		if dir := filepath.Dir(config.Path); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", config.Backend, err)
	}
	if driverName == "sqlite" {
		// One writer at a time avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", config.Backend, err)
	}

	if err := initializeSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize storage schema: %w", err)
	}

	s := &SQLStore{
		db:      db,
		dialect: dialectFor(config.Backend),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying connection
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateDatabase registers a new, empty database
func (s *SQLStore) CreateDatabase(ctx context.Context, name string) error {
	exists, err := s.DatabaseExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("database %s: %w", name, ErrExists)
	}

	_, err = s.db.ExecContext(ctx,
		s.dialect.rebind("INSERT INTO emql_databases (name, created_at) VALUES (?, ?)"),
		name, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}

	logging.WithDatabase(s.logger, name).Debug("database created")
	return nil
}

// DatabaseExists reports whether a database has been created
func (s *SQLStore) DatabaseExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind("SELECT COUNT(*) FROM emql_databases WHERE name = ?"), name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up database %s: %w", name, err)
	}
	return n > 0, nil
}

// ListDatabases returns every database name in sorted order
func (s *SQLStore) ListDatabases(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM emql_databases ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan database name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// ListTables returns the table names of a database in sorted order
func (s *SQLStore) ListTables(ctx context.Context, dbName string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		s.dialect.rebind("SELECT table_name FROM emql_tables WHERE db_name = ? ORDER BY table_name"), dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// CreateTable stores the schema of a new, empty table
func (s *SQLStore) CreateTable(ctx context.Context, dbName string, ts schema.TableSchema) error {
	exists, err := s.DatabaseExists(ctx, dbName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("database %s: %w", dbName, ErrNotFound)
	}

	if _, err := s.loadSchema(ctx, dbName, ts.Name); err == nil {
		return fmt.Errorf("table %s: %w", ts.Name, ErrExists)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	schemaJSON, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		s.dialect.rebind("INSERT INTO emql_tables (db_name, table_name, schema_json) VALUES (?, ?, ?)"),
		dbName, ts.Name, string(schemaJSON))
	if err != nil {
		return fmt.Errorf("failed to insert schema: %w", err)
	}

	logging.WithTable(s.logger, dbName, ts.Name).Debug("table created", "columns", len(ts.Columns))
	return nil
}

// LoadTable returns the table with all of its records, or nil when the table
// does not exist
func (s *SQLStore) LoadTable(ctx context.Context, dbName, tableName string) (*schema.Table, error) {
	// Load schema
	ts, err := s.loadSchema(ctx, dbName, tableName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	table := &schema.Table{Schema: *ts, Records: []schema.Record{}}

	// Load records
	rows, err := s.db.QueryContext(ctx,
		s.dialect.rebind("SELECT record_id, row_json FROM emql_records WHERE db_name = ? AND table_name = ? ORDER BY seq"),
		dbName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, rowJSON string
		if err := rows.Scan(&id, &rowJSON); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		var row schema.Row
		if err := json.Unmarshal([]byte(rowJSON), &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %s: %w", id, err)
		}

		table.Records = append(table.Records, schema.Record{ID: id, Row: row})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	logging.WithTable(s.logger, dbName, tableName).Debug("table loaded", "records", len(table.Records))
	return table, nil
}

func (s *SQLStore) loadSchema(ctx context.Context, dbName, tableName string) (*schema.TableSchema, error) {
	var schemaJSON string
	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind("SELECT schema_json FROM emql_tables WHERE db_name = ? AND table_name = ?"),
		dbName, tableName).Scan(&schemaJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query table schema: %w", err)
	}

	var ts schema.TableSchema
	if err := json.Unmarshal([]byte(schemaJSON), &ts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	return &ts, nil
}

// SaveTable replaces the schema and every record of a table in one transaction
func (s *SQLStore) SaveTable(ctx context.Context, dbName, tableName string, table *schema.Table) error {
	schemaJSON, err := json.Marshal(table.Schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	if _, err := s.loadSchema(ctx, dbName, tableName); errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("table %s: %w", tableName, ErrNotFound)
	} else if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		s.dialect.rebind("UPDATE emql_tables SET schema_json = ? WHERE db_name = ? AND table_name = ?"),
		string(schemaJSON), dbName, tableName); err != nil {
		return fmt.Errorf("failed to update schema: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		s.dialect.rebind("DELETE FROM emql_records WHERE db_name = ? AND table_name = ?"),
		dbName, tableName); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		s.dialect.rebind("INSERT INTO emql_records (db_name, table_name, seq, record_id, row_json) VALUES (?, ?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, rec := range table.Records {
		rowJSON, err := json.Marshal(rec.Row)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, dbName, tableName, i, rec.ID, string(rowJSON)); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logging.WithTable(s.logger, dbName, tableName).Debug("table saved", "records", len(table.Records))
	return nil
}

// Snapshot loads every table of a database
func (s *SQLStore) Snapshot(ctx context.Context, dbName string) (*Snapshot, error) {
	exists, err := s.DatabaseExists(ctx, dbName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("database %s: %w", dbName, ErrNotFound)
	}

	names, err := s.ListTables(ctx, dbName)
	if err != nil {
		return nil, err
	}

	snap := NewSnapshot(dbName)
	for _, name := range names {
		table, err := s.LoadTable(ctx, dbName, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load table %s: %w", name, err)
		}
		snap.Tables[name] = table
	}
	return snap, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
