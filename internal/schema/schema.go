package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// BaseType is a declared scalar column type
type BaseType string

const (
	TypeNumber  BaseType = "numero"
	TypeText    BaseType = "texto"
	TypeBoolean BaseType = "booleano"
	TypeUUID    BaseType = "uuid"
)

// DataType is a column type with an optional size suffix, e.g. texto(20)
type DataType struct {
	Base BaseType
	Size int
}

// ParseDataType parses a declared type such as "numero" or "texto(40)"
func ParseDataType(s string) (DataType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	name, size := s, 0
	if open := strings.IndexByte(s, '('); open >= 0 {
		if !strings.HasSuffix(s, ")") {
			return DataType{}, fmt.Errorf("invalid type %q", s)
		}
		n, err := strconv.Atoi(strings.TrimSpace(s[open+1 : len(s)-1]))
		if err != nil || n <= 0 {
			return DataType{}, fmt.Errorf("invalid size in type %q", s)
		}
		name, size = strings.TrimSpace(s[:open]), n
	}

	switch BaseType(name) {
	case TypeNumber, TypeBoolean, TypeUUID:
		if size > 0 {
			return DataType{}, fmt.Errorf("type %s does not take a size", name)
		}
	case TypeText:
	default:
		return DataType{}, fmt.Errorf("unknown type %q", name)
	}

	return DataType{Base: BaseType(name), Size: size}, nil
}

func (d DataType) String() string {
	if d.Size > 0 {
		return fmt.Sprintf("%s(%d)", d.Base, d.Size)
	}
	return string(d.Base)
}

// Check reports whether value is acceptable for the type. Null is always accepted.
func (d DataType) Check(value interface{}) error {
	if value == nil {
		return nil
	}

	switch d.Base {
	case TypeNumber:
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("expects %s, got %s", d, TypeOf(value))
		}
	case TypeText:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expects %s, got %s", d, TypeOf(value))
		}
		if d.Size > 0 && len([]rune(s)) > d.Size {
			return fmt.Errorf("value exceeds %s (%d characters)", d, len([]rune(s)))
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expects %s, got %s", d, TypeOf(value))
		}
	case TypeUUID:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expects %s, got %s", d, TypeOf(value))
		}
		if _, err := uuid.Parse(s); err != nil {
			return fmt.Errorf("invalid uuid %q", s)
		}
	}

	return nil
}

// TypeOf names the dialect type of a runtime value
func TypeOf(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case float64:
		return string(TypeNumber)
	case string:
		return string(TypeText)
	case bool:
		return string(TypeBoolean)
	default:
		return fmt.Sprintf("%T", value)
	}
}

// Column represents a table column
type Column struct {
	Name        string             `json:"name"`
	Type        DataType           `json:"-"`
	Constraints []ColumnConstraint `json:"-"`
	Position    int                `json:"position"`
}

// Has reports whether the column carries a constraint of the given kind
func (c *Column) Has(kind ConstraintKind) bool {
	_, ok := c.Constraint(kind)
	return ok
}

// Constraint returns the first constraint of the given kind
func (c *Column) Constraint(kind ConstraintKind) (ColumnConstraint, bool) {
	for _, cc := range c.Constraints {
		if cc.Kind == kind {
			return cc, true
		}
	}
	return ColumnConstraint{}, false
}

// ForeignKey is the target of a FOREIGN KEY table constraint
type ForeignKey struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// TableConstraint is a constraint declared apart from a column definition
type TableConstraint struct {
	Type       ConstraintKind `json:"type"`
	ColumnName string         `json:"column_name"`
	References *ForeignKey    `json:"options,omitempty"`
}

// TableSchema represents a complete table schema
type TableSchema struct {
	Name        string            `json:"name"`
	Columns     []Column          `json:"columns"`
	Constraints []TableConstraint `json:"table_constraints"`
}

// Column looks a column up by name
func (s *TableSchema) Column(name string) (*Column, bool) {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i], true
		}
	}
	return nil, false
}

// ColumnNames returns the column names in declaration order
func (s *TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// PrimaryKey returns the primary key columns, column-level first
func (s *TableSchema) PrimaryKey() []string {
	var pk []string
	for _, col := range s.Columns {
		if col.Has(PrimaryKey) {
			pk = append(pk, col.Name)
		}
	}
	for _, tc := range s.Constraints {
		if tc.Type == PrimaryKey && !contains(pk, tc.ColumnName) {
			pk = append(pk, tc.ColumnName)
		}
	}
	return pk
}

// ForeignKeys returns the FOREIGN KEY table constraints
func (s *TableSchema) ForeignKeys() []TableConstraint {
	var fks []TableConstraint
	for _, tc := range s.Constraints {
		if tc.Type == ForeignKeyConstraint {
			fks = append(fks, tc)
		}
	}
	return fks
}

// Validate checks that every constraint names a declared column
func (s *TableSchema) Validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", s.Name)
	}

	seen := make(map[string]bool)
	for _, col := range s.Columns {
		if seen[col.Name] {
			return fmt.Errorf("duplicate column %s", col.Name)
		}
		seen[col.Name] = true
		if col.Has(AutoIncrement) && col.Type.Base != TypeNumber {
			return fmt.Errorf("column %s: AUTO INCREMENT requires %s", col.Name, TypeNumber)
		}
		if cc, ok := col.Constraint(Default); ok {
			if _, err := ParseDefault(cc.Default, col.Type); err != nil {
				return fmt.Errorf("column %s: %w", col.Name, err)
			}
		}
	}

	for _, tc := range s.Constraints {
		if !seen[tc.ColumnName] {
			return fmt.Errorf("%s references unknown column %s", tc.Type, tc.ColumnName)
		}
		if tc.Type == ForeignKeyConstraint && tc.References == nil {
			return fmt.Errorf("foreign key on %s has no referenced column", tc.ColumnName)
		}
	}

	return nil
}

// Row represents a single record: column name to float64, string, bool or nil
type Row map[string]interface{}

// Clone returns a shallow copy of the row
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Record pairs a row with the identifier the store keeps it under
type Record struct {
	ID  string `json:"id"`
	Row Row    `json:"row"`
}

// NewRecordID generates an opaque record identifier
func NewRecordID() string {
	return uuid.NewString()
}

// Table represents a table with its schema and data
type Table struct {
	Schema  TableSchema
	Records []Record
}

// Rows returns the table rows in storage order
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.Records))
	for i, rec := range t.Records {
		rows[i] = rec.Row
	}
	return rows
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
