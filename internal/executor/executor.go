// Package executor runs parsed statements against a Store.
//
// Each statement loads the tables it needs, works on them in memory and,
// when it mutates, saves the whole table back. A failed statement never
// reaches the store.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/koba/emql/internal/ast"
	"github.com/koba/emql/internal/logging"
	"github.com/koba/emql/internal/parser"
	"github.com/koba/emql/internal/schema"
)

// Store is the persistence the executor reads and writes tables through
type Store interface {
	// LoadTable returns nil, nil when the table does not exist
	LoadTable(ctx context.Context, dbName, tableName string) (*schema.Table, error)
	SaveTable(ctx context.Context, dbName, tableName string, table *schema.Table) error
	CreateTable(ctx context.Context, dbName string, ts schema.TableSchema) error
	CreateDatabase(ctx context.Context, name string) error
	DatabaseExists(ctx context.Context, name string) (bool, error)
}

// ErrorKind classifies execution errors
type ErrorKind int

const (
	MissingDatabase ErrorKind = iota
	MissingTable
	MissingColumn
	Arity
	UnsupportedOperator
	TypeMismatch
	AlreadyExists
	InvalidDefinition
)

var errorKindNames = map[ErrorKind]string{
	MissingDatabase:     "missing database",
	MissingTable:        "missing table",
	MissingColumn:       "missing column",
	Arity:               "arity mismatch",
	UnsupportedOperator: "unsupported operator",
	TypeMismatch:        "type mismatch",
	AlreadyExists:       "already exists",
	InvalidDefinition:   "invalid definition",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is an execution failure
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Result is the outcome of one statement. Rows and Columns are set for SELECT.
type Result struct {
	Success  bool
	Message  string
	Columns  []string
	Rows     []schema.Row
	Affected int
}

// Option configures an Executor
type Option func(*Executor)

// WithLogger sets the logger used for per-statement debug output
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithDatabase preselects a database, as if USE had run
func WithDatabase(name string) Option {
	return func(e *Executor) {
		e.database = name
	}
}

// Executor runs statements one at a time against a store
type Executor struct {
	store  Store
	logger *slog.Logger

	mu       sync.Mutex
	database string
}

// New creates an executor over store
func New(store Store, opts ...Option) *Executor {
	e := &Executor{
		store:  store,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Database returns the selected database, or "" when none is selected
func (e *Executor) Database() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.database
}

// Run parses and executes text, folding any error into a failed Result
func (e *Executor) Run(ctx context.Context, text string) *Result {
	stmt, err := parser.ParseString(text)
	if err != nil {
		return &Result{Success: false, Message: err.Error()}
	}

	result, err := e.Execute(ctx, stmt)
	if err != nil {
		return &Result{Success: false, Message: err.Error()}
	}
	return result
}

// Execute runs one statement. A StatementList runs in order and stops at the
// first failure; statements before it stay applied.
func (e *Executor) Execute(ctx context.Context, stmt ast.Statement) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.execute(ctx, stmt)
}

func (e *Executor) execute(ctx context.Context, stmt ast.Statement) (*Result, error) {
	start := time.Now()
	defer func() {
		e.logger.Debug("statement executed",
			"statement", fmt.Sprintf("%T", stmt),
			"database", e.database,
			"elapsed", time.Since(start))
	}()

	switch s := stmt.(type) {
	case *ast.StatementList:
		return e.executeList(ctx, s)
	case *ast.SelectStatement:
		return e.executeSelect(ctx, s)
	case *ast.InsertStatement:
		return e.executeInsert(ctx, s)
	case *ast.UpdateStatement:
		return e.executeUpdate(ctx, s)
	case *ast.DeleteStatement:
		return e.executeDelete(ctx, s)
	case *ast.CreateTableStatement:
		return e.executeCreateTable(ctx, s)
	case *ast.CreateDatabaseStatement:
		return e.executeCreateDatabase(ctx, s)
	case *ast.UseDatabaseStatement:
		return e.executeUse(ctx, s)
	default:
		return nil, errorf(UnsupportedOperator, "unsupported statement %T", stmt)
	}
}

func (e *Executor) executeList(ctx context.Context, list *ast.StatementList) (*Result, error) {
	var last *Result
	for i, stmt := range list.Statements {
		result, err := e.execute(ctx, stmt)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i+1, err)
		}
		last = result
	}
	if last == nil {
		return &Result{Success: true}, nil
	}
	return last, nil
}

func (e *Executor) executeCreateDatabase(ctx context.Context, stmt *ast.CreateDatabaseStatement) (*Result, error) {
	exists, err := e.store.DatabaseExists(ctx, stmt.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check database: %w", err)
	}
	if exists {
		return nil, errorf(AlreadyExists, "database %s already exists", stmt.Name)
	}

	if err := e.store.CreateDatabase(ctx, stmt.Name); err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	e.database = stmt.Name

	return &Result{Success: true, Message: fmt.Sprintf("database %s created", stmt.Name)}, nil
}

func (e *Executor) executeUse(ctx context.Context, stmt *ast.UseDatabaseStatement) (*Result, error) {
	exists, err := e.store.DatabaseExists(ctx, stmt.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check database: %w", err)
	}
	if !exists {
		return nil, errorf(MissingDatabase, "database %s does not exist", stmt.Name)
	}
	e.database = stmt.Name

	return &Result{Success: true, Message: fmt.Sprintf("using database %s", stmt.Name)}, nil
}

func (e *Executor) executeCreateTable(ctx context.Context, stmt *ast.CreateTableStatement) (*Result, error) {
	db, err := e.selectedDatabase()
	if err != nil {
		return nil, err
	}

	ts, err := buildSchema(stmt)
	if err != nil {
		return nil, err
	}

	existing, err := e.store.LoadTable(ctx, db, stmt.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", stmt.Table, err)
	}
	if existing != nil {
		return nil, errorf(AlreadyExists, "table %s already exists", stmt.Table)
	}

	if err := e.store.CreateTable(ctx, db, ts); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &Result{Success: true, Message: fmt.Sprintf("table %s created", stmt.Table)}, nil
}

// buildSchema converts a CREATE TABLE statement into stored metadata
func buildSchema(stmt *ast.CreateTableStatement) (schema.TableSchema, error) {
	ts := schema.TableSchema{Name: stmt.Table}

	for i, def := range stmt.Columns {
		col := schema.Column{Name: def.Name, Type: def.Type, Position: i}
		for _, cc := range def.Constraints {
			c := schema.ColumnConstraint{Kind: cc.Kind}
			if cc.Kind == schema.Default {
				lit, ok := cc.Default.(*ast.Literal)
				if !ok {
					return ts, errorf(InvalidDefinition, "DEFAULT for column %s must be a literal, got %s", def.Name, cc.Default)
				}
				c.Default = schema.FormatLiteral(lit.Value)
			}
			col.Constraints = append(col.Constraints, c)
		}
		ts.Columns = append(ts.Columns, col)
	}

	for _, tc := range stmt.Constraints {
		c := schema.TableConstraint{Type: tc.Kind, ColumnName: tc.Column}
		if tc.Kind == schema.ForeignKeyConstraint {
			c.References = &schema.ForeignKey{Table: tc.RefTable, Column: tc.RefColumn}
		}
		ts.Constraints = append(ts.Constraints, c)
	}

	if err := ts.Validate(); err != nil {
		return ts, errorf(InvalidDefinition, "invalid table %s: %v", stmt.Table, err)
	}
	return ts, nil
}

func (e *Executor) selectedDatabase() (string, error) {
	if e.database == "" {
		return "", errorf(MissingDatabase, "no database selected")
	}
	return e.database, nil
}

// loadTable loads a table of the selected database, failing when it is absent
func (e *Executor) loadTable(ctx context.Context, db, name string) (*schema.Table, error) {
	table, err := e.store.LoadTable(ctx, db, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", name, err)
	}
	if table == nil {
		return nil, errorf(MissingTable, "table %s does not exist in database %s", name, db)
	}
	return table, nil
}
