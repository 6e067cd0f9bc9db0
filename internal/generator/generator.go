// Package generator renders databases and diffs as emql statements that the
// executor can replay.
package generator

import (
	"sort"
	"strings"

	"github.com/koba/emql/internal/diff"
	"github.com/koba/emql/internal/schema"
	"github.com/koba/emql/internal/storage"
)

// Dump renders snap as a script recreating it under the database name.
// Referenced tables come before the tables pointing at them.
func Dump(snap *storage.Snapshot, name string) string {
	ddlGen := NewDDLGenerator()
	dmlGen := NewDMLGenerator()

	sqlStatements := []string{ddlGen.CreateDatabase(name)}

	schemas := make(map[string]*schema.TableSchema, len(snap.Tables))
	for tableName, table := range snap.Tables {
		schemas[tableName] = &table.Schema
	}
	order := dependencyOrder(schemas)

	// Generate DDL statements
	for _, tableName := range order {
		sqlStatements = append(sqlStatements, ddlGen.CreateTable(schemas[tableName]))
	}

	// Generate DML statements
	for _, tableName := range order {
		table := snap.Tables[tableName]
		columns := table.Schema.ColumnNames()
		for _, row := range table.Rows() {
			sqlStatements = append(sqlStatements, dmlGen.Insert(tableName, columns, row))
		}
	}

	return strings.Join(sqlStatements, "\n") + "\n"
}

// GenerateSQL generates a migration script run against database. Changes the
// dialect cannot express are returned as warnings.
func GenerateSQL(result *diff.DiffResult, database string) (string, []string) {
	ddlGen := NewDDLGenerator()
	dmlGen := NewDMLGenerator()

	sqlStatements := []string{ddlGen.Use(database)}
	var warnings []string

	// Generate DDL statements
	added := make(map[string]*schema.TableSchema)
	for _, tableName := range result.SchemaTables() {
		schemaDiff := result.SchemaDiffs[tableName]
		if schemaDiff.Action == diff.ActionAdd {
			added[tableName] = schemaDiff.NewSchema
			continue
		}
		_, w := ddlGen.Generate(schemaDiff)
		warnings = append(warnings, w...)
	}
	for _, tableName := range dependencyOrder(added) {
		sql, _ := ddlGen.Generate(result.SchemaDiffs[tableName])
		sqlStatements = append(sqlStatements, sql)
	}

	// Generate DML statements
	schemas := make(map[string]*schema.TableSchema, len(result.DataDiffs))
	for tableName, dataDiff := range result.DataDiffs {
		schemas[tableName] = dataDiff.Schema
	}
	for _, tableName := range dependencyOrder(schemas) {
		if sql := dmlGen.Generate(result.DataDiffs[tableName]); sql != "" {
			sqlStatements = append(sqlStatements, sql)
		}
	}

	return strings.Join(sqlStatements, "\n\n") + "\n", warnings
}

// dependencyOrder sorts table names so that foreign key targets come first.
// References outside the set and cycles are ignored.
func dependencyOrder(schemas map[string]*schema.TableSchema) []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	var order []string
	visited := make(map[string]bool)

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, fk := range schemas[name].ForeignKeys() {
			if fk.References == nil {
				continue
			}
			if _, ok := schemas[fk.References.Table]; ok {
				visit(fk.References.Table)
			}
		}
		order = append(order, name)
	}

	for _, name := range names {
		visit(name)
	}
	return order
}
