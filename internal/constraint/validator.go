// Package constraint enforces column and table constraints on a candidate
// record before it is written.
//
// PrepareAndValidate runs in a fixed order: generated values are filled in
// first (auto-increment, uuid, defaults), then per-column NOT NULL, PRIMARY
// KEY and UNIQUE checks run, then table-level constraints including foreign
// keys. Every violation is collected; nothing short-circuits.
package constraint

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/koba/emql/internal/schema"
)

// Lookup loads tables referenced by foreign keys. A nil table means the
// table does not exist.
type Lookup interface {
	LoadTable(ctx context.Context, name string) (*schema.Table, error)
}

// LookupFunc adapts a function to Lookup
type LookupFunc func(ctx context.Context, name string) (*schema.Table, error)

func (f LookupFunc) LoadTable(ctx context.Context, name string) (*schema.Table, error) {
	return f(ctx, name)
}

// Violation is one broken rule
type Violation struct {
	Rule    schema.ConstraintKind
	Column  string
	Message string
}

func (v Violation) String() string {
	return v.Message
}

// ViolationError aggregates the violations of one mutation
type ViolationError struct {
	Table      string
	Violations []Violation
}

func (e *ViolationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return fmt.Sprintf("constraint violation on %s: %s", e.Table, strings.Join(msgs, "; "))
}

// Validator checks candidate records against a table's constraints
type Validator struct {
	lookup Lookup
}

// New creates a validator resolving foreign keys through lookup
func New(lookup Lookup) *Validator {
	return &Validator{lookup: lookup}
}

// PrepareAndValidate fills generated values into rec and returns every
// constraint it violates. selfID names the record being updated, which is
// excluded from uniqueness checks; it is empty for inserts. A non-nil error
// means the check itself failed, not that rec is invalid.
func (v *Validator) PrepareAndValidate(ctx context.Context, table *schema.Table, rec schema.Row, selfID string) ([]Violation, error) {
	if err := fillGenerated(table, rec); err != nil {
		return nil, err
	}

	var violations []Violation
	ts := &table.Schema

	// Column constraints
	for _, col := range ts.Columns {
		value := rec[col.Name]

		if col.Has(schema.NotNull) && value == nil {
			violations = append(violations, notNull(schema.NotNull, col.Name))
		}

		switch {
		case col.Has(schema.PrimaryKey):
			if value == nil {
				violations = append(violations, notNull(schema.PrimaryKey, col.Name))
			} else if taken(table, col.Name, value, selfID) {
				violations = append(violations, duplicate(schema.PrimaryKey, col.Name, value))
			}
		case col.Has(schema.Unique):
			if value != nil && taken(table, col.Name, value, selfID) {
				violations = append(violations, duplicate(schema.Unique, col.Name, value))
			}
		}
	}

	// Table constraints
	for _, tc := range ts.Constraints {
		value := rec[tc.ColumnName]
		col, _ := ts.Column(tc.ColumnName)

		switch tc.Type {
		case schema.PrimaryKey:
			if col != nil && col.Has(schema.PrimaryKey) {
				continue
			}
			if value == nil {
				violations = append(violations, notNull(schema.PrimaryKey, tc.ColumnName))
			} else if taken(table, tc.ColumnName, value, selfID) {
				violations = append(violations, duplicate(schema.PrimaryKey, tc.ColumnName, value))
			}
		case schema.Unique:
			if col != nil && (col.Has(schema.Unique) || col.Has(schema.PrimaryKey)) {
				continue
			}
			if value != nil && taken(table, tc.ColumnName, value, selfID) {
				violations = append(violations, duplicate(schema.Unique, tc.ColumnName, value))
			}
		case schema.ForeignKeyConstraint:
			if value == nil || tc.References == nil {
				continue
			}
			violation, err := v.checkForeignKey(ctx, tc, value)
			if err != nil {
				return nil, err
			}
			if violation != nil {
				violations = append(violations, *violation)
			}
		}
	}

	return violations, nil
}

// fillGenerated sets auto-increment, uuid and default values that rec lacks
func fillGenerated(table *schema.Table, rec schema.Row) error {
	for _, col := range table.Schema.Columns {
		if col.Has(schema.AutoIncrement) && rec[col.Name] == nil {
			rec[col.Name] = nextSequence(table, col.Name)
		}

		if col.Type.Base == schema.TypeUUID && rec[col.Name] == nil {
			rec[col.Name] = uuid.NewString()
		}

		if cc, ok := col.Constraint(schema.Default); ok && rec[col.Name] == nil {
			value, err := schema.ParseDefault(cc.Default, col.Type)
			if err != nil {
				return fmt.Errorf("failed to apply default for %s: %w", col.Name, err)
			}
			rec[col.Name] = value
		}
	}
	return nil
}

// nextSequence returns one plus the largest numeric value in column, or 1
// when there is none. Values freed by deletes can be handed out again.
func nextSequence(table *schema.Table, column string) float64 {
	highest, found := 0.0, false
	for _, r := range table.Records {
		if n, ok := r.Row[column].(float64); ok && (!found || n > highest) {
			highest, found = n, true
		}
	}
	return highest + 1
}

// taken reports whether another record already holds value in column
func taken(table *schema.Table, column string, value interface{}, selfID string) bool {
	for _, r := range table.Records {
		if selfID != "" && r.ID == selfID {
			continue
		}
		if r.Row[column] == value {
			return true
		}
	}
	return false
}

func (v *Validator) checkForeignKey(ctx context.Context, tc schema.TableConstraint, value interface{}) (*Violation, error) {
	ref := tc.References

	var target *schema.Table
	if v.lookup != nil {
		var err error
		target, err = v.lookup.LoadTable(ctx, ref.Table)
		if err != nil {
			return nil, fmt.Errorf("failed to load referenced table %s: %w", ref.Table, err)
		}
	}
	if target == nil {
		return &Violation{
			Rule:    schema.ForeignKeyConstraint,
			Column:  tc.ColumnName,
			Message: fmt.Sprintf("foreign key %s references missing table %s", tc.ColumnName, ref.Table),
		}, nil
	}

	for _, r := range target.Records {
		if r.Row[ref.Column] == value {
			return nil, nil
		}
	}
	return &Violation{
		Rule:   schema.ForeignKeyConstraint,
		Column: tc.ColumnName,
		Message: fmt.Sprintf("foreign key %s = %s has no match in %s.%s",
			tc.ColumnName, schema.FormatLiteral(value), ref.Table, ref.Column),
	}, nil
}

func notNull(rule schema.ConstraintKind, column string) Violation {
	msg := fmt.Sprintf("column %s cannot be null", column)
	if rule == schema.PrimaryKey {
		msg = fmt.Sprintf("primary key %s cannot be null", column)
	}
	return Violation{Rule: rule, Column: column, Message: msg}
}

func duplicate(rule schema.ConstraintKind, column string, value interface{}) Violation {
	what := "unique column"
	if rule == schema.PrimaryKey {
		what = "primary key"
	}
	return Violation{
		Rule:    rule,
		Column:  column,
		Message: fmt.Sprintf("duplicate value %s for %s %s", schema.FormatLiteral(value), what, column),
	}
}
