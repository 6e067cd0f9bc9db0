package diff

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/koba/emql/internal/schema"
)

// DataDiff represents data differences for a table
type DataDiff struct {
	TableName    string
	Schema       *schema.TableSchema
	KeyColumns   []string
	RowsAdded    []schema.Row
	RowsDeleted  []schema.Row
	RowsModified []RowModification
}

// RowModification represents a modified row
type RowModification struct {
	OldRow schema.Row
	NewRow schema.Row
}

// compareData compares data between two tables. Rows are matched by primary
// key; without one, rows are matched by their full content.
func compareData(tableName string, oldData, newData []schema.Row, tableSchema *schema.TableSchema) *DataDiff {
	pkColumns := keyColumns(tableSchema)
	diff := &DataDiff{TableName: tableName, Schema: tableSchema, KeyColumns: pkColumns}

	// Create maps keyed by primary key
	oldRows := make(map[string]schema.Row)
	for _, row := range oldData {
		oldRows[rowKey(row, pkColumns)] = row
	}

	newRows := make(map[string]schema.Row)
	for _, row := range newData {
		newRows[rowKey(row, pkColumns)] = row
	}

	// Find added and modified rows
	for _, key := range sortedNames(newRows) {
		newRow := newRows[key]
		if oldRow, exists := oldRows[key]; exists {
			if !rowsEqual(oldRow, newRow) {
				diff.RowsModified = append(diff.RowsModified, RowModification{
					OldRow: oldRow,
					NewRow: newRow,
				})
			}
		} else {
			diff.RowsAdded = append(diff.RowsAdded, newRow)
		}
	}

	// Find deleted rows
	for _, key := range sortedNames(oldRows) {
		if _, exists := newRows[key]; !exists {
			diff.RowsDeleted = append(diff.RowsDeleted, oldRows[key])
		}
	}

	// Return nil if no changes
	if len(diff.RowsAdded) == 0 && len(diff.RowsDeleted) == 0 && len(diff.RowsModified) == 0 {
		return nil
	}

	return diff
}

// keyColumns returns the primary key, or every column when there is none
func keyColumns(tableSchema *schema.TableSchema) []string {
	if pk := tableSchema.PrimaryKey(); len(pk) > 0 {
		return pk
	}
	return tableSchema.ColumnNames()
}

// rowKey generates a unique key for a row based on key columns
func rowKey(row schema.Row, keyColumns []string) string {
	keyParts := make([]interface{}, len(keyColumns))
	for i, col := range keyColumns {
		keyParts[i] = row[col]
	}

	// Use JSON encoding for consistent key generation
	keyJSON, err := json.Marshal(keyParts)
	if err != nil {
		return fmt.Sprintf("%v", keyParts)
	}

	return string(keyJSON)
}

// rowsEqual checks if two rows are equal
func rowsEqual(a, b schema.Row) bool {
	if len(a) != len(b) {
		return false
	}

	for key, valA := range a {
		valB, exists := b[key]
		if !exists {
			return false
		}

		// Use JSON comparison for consistent equality check
		jsonA, _ := json.Marshal(valA)
		jsonB, _ := json.Marshal(valB)

		if string(jsonA) != string(jsonB) {
			return false
		}
	}

	return true
}

// ChangedColumns returns the columns whose values differ, sorted by name
func (m RowModification) ChangedColumns() []string {
	var cols []string
	for key, valNew := range m.NewRow {
		if valOld, ok := m.OldRow[key]; !ok || !rowsEqual(schema.Row{key: valOld}, schema.Row{key: valNew}) {
			cols = append(cols, key)
		}
	}
	sort.Strings(cols)
	return cols
}
