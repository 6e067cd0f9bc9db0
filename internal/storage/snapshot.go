package storage

import (
	"context"
	"fmt"

	"github.com/koba/emql/internal/schema"
)

// Snapshot represents every table of one database at a point in time
type Snapshot struct {
	Database string
	Tables   map[string]*schema.Table
}

// NewSnapshot creates an empty snapshot of a database
func NewSnapshot(database string) *Snapshot {
	return &Snapshot{
		Database: database,
		Tables:   make(map[string]*schema.Table),
	}
}

// TableNames returns the table names in sorted order
func (s *Snapshot) TableNames() []string {
	return sortedKeys(s.Tables)
}

// Writer is the subset of a store needed to write a snapshot back
type Writer interface {
	CreateDatabase(ctx context.Context, name string) error
	CreateTable(ctx context.Context, dbName string, ts schema.TableSchema) error
	SaveTable(ctx context.Context, dbName, tableName string, table *schema.Table) error
}

// Restore writes snap into dst as database name, which must not exist yet
func Restore(ctx context.Context, dst Writer, name string, snap *Snapshot) error {
	if err := dst.CreateDatabase(ctx, name); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	for _, tableName := range snap.TableNames() {
		table := snap.Tables[tableName]
		if err := dst.CreateTable(ctx, name, table.Schema); err != nil {
			return fmt.Errorf("failed to create table %s: %w", tableName, err)
		}
		if err := dst.SaveTable(ctx, name, tableName, table); err != nil {
			return fmt.Errorf("failed to save table %s: %w", tableName, err)
		}
	}

	return nil
}
