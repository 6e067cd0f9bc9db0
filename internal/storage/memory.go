package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/koba/emql/internal/schema"
)

// MemoryStore keeps databases in memory. Loaded tables are copies, so callers
// may mutate them freely until they save.
type MemoryStore struct {
	mu        sync.RWMutex
	databases map[string]map[string]*schema.Table
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{databases: make(map[string]map[string]*schema.Table)}
}

func (m *MemoryStore) CreateDatabase(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.databases[name]; ok {
		return fmt.Errorf("database %s: %w", name, ErrExists)
	}
	m.databases[name] = make(map[string]*schema.Table)
	return nil
}

func (m *MemoryStore) DatabaseExists(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.databases[name]
	return ok, nil
}

func (m *MemoryStore) ListDatabases(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedKeys(m.databases), nil
}

func (m *MemoryStore) ListTables(_ context.Context, dbName string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedKeys(m.databases[dbName]), nil
}

func (m *MemoryStore) CreateTable(_ context.Context, dbName string, ts schema.TableSchema) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tables, ok := m.databases[dbName]
	if !ok {
		return fmt.Errorf("database %s: %w", dbName, ErrNotFound)
	}
	if _, ok := tables[ts.Name]; ok {
		return fmt.Errorf("table %s: %w", ts.Name, ErrExists)
	}
	tables[ts.Name] = copyTable(&schema.Table{Schema: ts})
	return nil
}

func (m *MemoryStore) LoadTable(_ context.Context, dbName, tableName string) (*schema.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	table, ok := m.databases[dbName][tableName]
	if !ok {
		return nil, nil
	}
	return copyTable(table), nil
}

func (m *MemoryStore) SaveTable(_ context.Context, dbName, tableName string, table *schema.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tables := m.databases[dbName]
	if _, ok := tables[tableName]; !ok {
		return fmt.Errorf("table %s: %w", tableName, ErrNotFound)
	}
	tables[tableName] = copyTable(table)
	return nil
}

func (m *MemoryStore) Snapshot(ctx context.Context, dbName string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tables, ok := m.databases[dbName]
	if !ok {
		return nil, fmt.Errorf("database %s: %w", dbName, ErrNotFound)
	}

	snap := NewSnapshot(dbName)
	for name, table := range tables {
		snap.Tables[name] = copyTable(table)
	}
	return snap, nil
}

func copyTable(t *schema.Table) *schema.Table {
	out := &schema.Table{Schema: t.Schema, Records: make([]schema.Record, len(t.Records))}

	out.Schema.Columns = append([]schema.Column(nil), t.Schema.Columns...)
	for i := range out.Schema.Columns {
		out.Schema.Columns[i].Constraints = append([]schema.ColumnConstraint(nil), t.Schema.Columns[i].Constraints...)
	}
	out.Schema.Constraints = append([]schema.TableConstraint(nil), t.Schema.Constraints...)

	for i, rec := range t.Records {
		out.Records[i] = schema.Record{ID: rec.ID, Row: rec.Row.Clone()}
	}
	return out
}
