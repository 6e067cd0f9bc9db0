package generator

import (
	"fmt"
	"strings"

	"github.com/koba/emql/internal/diff"
	"github.com/koba/emql/internal/schema"
)

// DMLGenerator generates INSERT, UPDATE and DELETE statements in the emql dialect
type DMLGenerator struct{}

// NewDMLGenerator creates a new DML generator
func NewDMLGenerator() *DMLGenerator {
	return &DMLGenerator{}
}

// Generate generates DML for a data diff
func (g *DMLGenerator) Generate(dataDiff *diff.DataDiff) string {
	var statements []string

	columns := dataDiff.Schema.ColumnNames()

	// Generate DELETE statements
	for _, row := range dataDiff.RowsDeleted {
		statements = append(statements, g.generateDelete(dataDiff.TableName, row, dataDiff.KeyColumns))
	}

	// Generate INSERT statements
	for _, row := range dataDiff.RowsAdded {
		statements = append(statements, g.Insert(dataDiff.TableName, columns, row))
	}

	// Generate UPDATE statements
	for _, mod := range dataDiff.RowsModified {
		if stmt := g.generateUpdate(dataDiff.TableName, mod, dataDiff.KeyColumns); stmt != "" {
			statements = append(statements, stmt)
		}
	}

	return strings.Join(statements, "\n")
}

// Insert generates an INSERT listing columns in the given order
func (g *DMLGenerator) Insert(tableName string, columns []string, row schema.Row) string {
	values := make([]string, len(columns))
	for i, col := range columns {
		values[i] = schema.FormatLiteral(row[col])
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(values, ", "),
	)
}

func (g *DMLGenerator) generateDelete(tableName string, row schema.Row, keyColumns []string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s;", tableName, g.buildWhereClause(row, keyColumns))
}

func (g *DMLGenerator) generateUpdate(tableName string, mod diff.RowModification, keyColumns []string) string {
	var setClauses []string
	for _, col := range mod.ChangedColumns() {
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", col, schema.FormatLiteral(mod.NewRow[col])))
	}

	if len(setClauses) == 0 {
		return ""
	}

	return fmt.Sprintf("UPDATE %s SET %s WHERE %s;",
		tableName,
		strings.Join(setClauses, ", "),
		g.buildWhereClause(mod.OldRow, keyColumns),
	)
}

// buildWhereClause matches a row by its key columns. Null compares equal to
// null in the dialect, so no IS NULL form is needed.
func (g *DMLGenerator) buildWhereClause(row schema.Row, keyColumns []string) string {
	conditions := make([]string, len(keyColumns))
	for i, col := range keyColumns {
		conditions[i] = fmt.Sprintf("%s = %s", col, schema.FormatLiteral(row[col]))
	}
	return strings.Join(conditions, " AND ")
}
