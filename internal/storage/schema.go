package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const (
	createDatabasesTable = `
		CREATE TABLE IF NOT EXISTS emql_databases (
			name VARCHAR(255) PRIMARY KEY,
			created_at VARCHAR(64) NOT NULL
		)
	`

	createTablesTable = `
		CREATE TABLE IF NOT EXISTS emql_tables (
			db_name VARCHAR(255) NOT NULL,
			table_name VARCHAR(255) NOT NULL,
			schema_json TEXT NOT NULL,
			PRIMARY KEY (db_name, table_name)
		)
	`

	createRecordsTable = `
		CREATE TABLE IF NOT EXISTS emql_records (
			db_name VARCHAR(255) NOT NULL,
			table_name VARCHAR(255) NOT NULL,
			seq INTEGER NOT NULL,
			record_id VARCHAR(64) NOT NULL,
			row_json TEXT NOT NULL,
			PRIMARY KEY (db_name, table_name, seq)
		)
	`
)

// initializeSchema creates the bookkeeping tables the store keeps its data in
func initializeSchema(ctx context.Context, db *sql.DB) error {
	schemas := []string{
		createDatabasesTable,
		createTablesTable,
		createRecordsTable,
	}

	for _, schema := range schemas {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return err
		}
	}

	return nil
}

// dialect rewrites '?' placeholders for drivers that want numbered ones
type dialect struct {
	numbered bool
}

func dialectFor(backend string) dialect {
	switch normalizeBackend(backend) {
	case BackendPostgres, BackendPgx:
		return dialect{numbered: true}
	default:
		return dialect{}
	}
}

func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
