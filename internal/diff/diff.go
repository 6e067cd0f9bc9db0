// Package diff compares two database snapshots table by table.
package diff

import (
	"fmt"
	"io"
	"sort"

	"github.com/koba/emql/internal/storage"
)

// DiffResult holds the complete comparison result
type DiffResult struct {
	SchemaDiffs map[string]*SchemaDiff
	DataDiffs   map[string]*DataDiff
}

// Empty reports whether the snapshots were identical
func (r *DiffResult) Empty() bool {
	return len(r.SchemaDiffs) == 0 && len(r.DataDiffs) == 0
}

// SchemaTables returns the tables with schema differences in sorted order
func (r *DiffResult) SchemaTables() []string {
	return sortedNames(r.SchemaDiffs)
}

// DataTables returns the tables with data differences in sorted order
func (r *DiffResult) DataTables() []string {
	return sortedNames(r.DataDiffs)
}

// Compare compares two snapshots and returns the differences
func Compare(snap1, snap2 *storage.Snapshot) *DiffResult {
	result := &DiffResult{
		SchemaDiffs: make(map[string]*SchemaDiff),
		DataDiffs:   make(map[string]*DataDiff),
	}

	// Find all unique table names
	tableNames := make(map[string]bool)
	for name := range snap1.Tables {
		tableNames[name] = true
	}
	for name := range snap2.Tables {
		tableNames[name] = true
	}

	// Compare each table
	for tableName := range tableNames {
		table1, exists1 := snap1.Tables[tableName]
		table2, exists2 := snap2.Tables[tableName]

		if !exists1 {
			// Table added in snapshot2, its rows count as added data
			result.SchemaDiffs[tableName] = &SchemaDiff{
				TableName: tableName,
				Action:    ActionAdd,
				NewSchema: &table2.Schema,
			}
			if len(table2.Records) > 0 {
				result.DataDiffs[tableName] = &DataDiff{
					TableName:  tableName,
					Schema:     &table2.Schema,
					KeyColumns: keyColumns(&table2.Schema),
					RowsAdded:  table2.Rows(),
				}
			}
			continue
		}

		if !exists2 {
			// Table removed in snapshot2
			result.SchemaDiffs[tableName] = &SchemaDiff{
				TableName: tableName,
				Action:    ActionDrop,
				OldSchema: &table1.Schema,
			}
			continue
		}

		// Table exists in both snapshots - compare schema
		schemaDiff := compareSchemas(&table1.Schema, &table2.Schema)
		if schemaDiff != nil {
			result.SchemaDiffs[tableName] = schemaDiff
		}

		// Compare data
		dataDiff := compareData(tableName, table1.Rows(), table2.Rows(), &table2.Schema)
		if dataDiff != nil {
			result.DataDiffs[tableName] = dataDiff
		}
	}

	return result
}

// Display writes the diff result in a human-readable format
func Display(w io.Writer, result *DiffResult) {
	if result.Empty() {
		fmt.Fprintln(w, "No differences found.")
		return
	}

	// Display schema differences
	if len(result.SchemaDiffs) > 0 {
		fmt.Fprintln(w, "=== Schema Differences ===")
		fmt.Fprintln(w)
		for _, tableName := range result.SchemaTables() {
			displaySchemaDiff(w, tableName, result.SchemaDiffs[tableName])
		}
	}

	// Display data differences
	if len(result.DataDiffs) > 0 {
		fmt.Fprintln(w, "=== Data Differences ===")
		fmt.Fprintln(w)
		for _, tableName := range result.DataTables() {
			displayDataDiff(w, tableName, result.DataDiffs[tableName])
		}
	}
}

func displaySchemaDiff(w io.Writer, tableName string, diff *SchemaDiff) {
	fmt.Fprintf(w, "Table: %s\n", tableName)

	switch diff.Action {
	case ActionAdd:
		fmt.Fprintf(w, "  Action: ADD (new table)\n")
		fmt.Fprintf(w, "  Columns: %d\n", len(diff.NewSchema.Columns))
	case ActionDrop:
		fmt.Fprintf(w, "  Action: DROP (removed table)\n")
	case ActionModify:
		fmt.Fprintf(w, "  Action: MODIFY\n")
		if len(diff.ColumnChanges) > 0 {
			fmt.Fprintf(w, "  Column changes:\n")
			for _, change := range diff.ColumnChanges {
				fmt.Fprintf(w, "    - %s: %s\n", change.ColumnName, change.Action)
			}
		}
		if len(diff.ConstraintChanges) > 0 {
			fmt.Fprintf(w, "  Constraint changes:\n")
			for _, change := range diff.ConstraintChanges {
				fmt.Fprintf(w, "    - %s: %s\n", describeConstraint(change.Constraint), change.Action)
			}
		}
	}
	fmt.Fprintln(w)
}

func displayDataDiff(w io.Writer, tableName string, diff *DataDiff) {
	fmt.Fprintf(w, "Table: %s\n", tableName)
	fmt.Fprintf(w, "  Rows added: %d\n", len(diff.RowsAdded))
	fmt.Fprintf(w, "  Rows deleted: %d\n", len(diff.RowsDeleted))
	fmt.Fprintf(w, "  Rows modified: %d\n", len(diff.RowsModified))
	fmt.Fprintln(w)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
