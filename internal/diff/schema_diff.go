package diff

import (
	"fmt"

	"github.com/koba/emql/internal/schema"
)

// Action represents the type of change
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionDrop   Action = "DROP"
	ActionModify Action = "MODIFY"
)

// SchemaDiff represents schema differences for a table
type SchemaDiff struct {
	TableName         string
	Action            Action
	OldSchema         *schema.TableSchema
	NewSchema         *schema.TableSchema
	ColumnChanges     []ColumnChange
	ConstraintChanges []ConstraintChange
}

// ColumnChange represents a change to a column
type ColumnChange struct {
	ColumnName string
	Action     Action
	OldColumn  *schema.Column
	NewColumn  *schema.Column
}

// ConstraintChange represents a table constraint added or dropped. A changed
// constraint shows up as one drop and one add.
type ConstraintChange struct {
	Action     Action
	Constraint schema.TableConstraint
}

// compareSchemas compares two table schemas. Changes are listed in column
// declaration order: new schema first, then dropped columns.
func compareSchemas(old, new *schema.TableSchema) *SchemaDiff {
	diff := &SchemaDiff{
		TableName: new.Name,
		Action:    ActionModify,
		OldSchema: old,
		NewSchema: new,
	}

	// Find added and modified columns
	for i := range new.Columns {
		newCol := &new.Columns[i]
		oldCol, exists := old.Column(newCol.Name)
		if !exists {
			diff.ColumnChanges = append(diff.ColumnChanges, ColumnChange{
				ColumnName: newCol.Name,
				Action:     ActionAdd,
				NewColumn:  newCol,
			})
			continue
		}
		if !columnsEqual(oldCol, newCol) {
			diff.ColumnChanges = append(diff.ColumnChanges, ColumnChange{
				ColumnName: newCol.Name,
				Action:     ActionModify,
				OldColumn:  oldCol,
				NewColumn:  newCol,
			})
		}
	}

	// Find deleted columns
	for i := range old.Columns {
		oldCol := &old.Columns[i]
		if _, exists := new.Column(oldCol.Name); !exists {
			diff.ColumnChanges = append(diff.ColumnChanges, ColumnChange{
				ColumnName: oldCol.Name,
				Action:     ActionDrop,
				OldColumn:  oldCol,
			})
		}
	}

	// Compare table constraints
	oldConstraints := make(map[string]bool)
	for _, tc := range old.Constraints {
		oldConstraints[describeConstraint(tc)] = true
	}
	newConstraints := make(map[string]bool)
	for _, tc := range new.Constraints {
		newConstraints[describeConstraint(tc)] = true
	}

	for _, tc := range new.Constraints {
		if !oldConstraints[describeConstraint(tc)] {
			diff.ConstraintChanges = append(diff.ConstraintChanges, ConstraintChange{Action: ActionAdd, Constraint: tc})
		}
	}
	for _, tc := range old.Constraints {
		if !newConstraints[describeConstraint(tc)] {
			diff.ConstraintChanges = append(diff.ConstraintChanges, ConstraintChange{Action: ActionDrop, Constraint: tc})
		}
	}

	// Return nil if no changes
	if len(diff.ColumnChanges) == 0 && len(diff.ConstraintChanges) == 0 {
		return nil
	}

	return diff
}

func columnsEqual(a, b *schema.Column) bool {
	if a.Name != b.Name || a.Type != b.Type {
		return false
	}
	return schema.EncodeConstraints(a.Constraints) == schema.EncodeConstraints(b.Constraints)
}

// describeConstraint renders a table constraint, e.g. FOREIGN_KEY(cliente_id)->clientes(id)
func describeConstraint(tc schema.TableConstraint) string {
	s := fmt.Sprintf("%s(%s)", tc.Type, tc.ColumnName)
	if tc.References != nil {
		s += fmt.Sprintf("->%s(%s)", tc.References.Table, tc.References.Column)
	}
	return s
}
