package generator

import (
	"fmt"
	"strings"

	"github.com/koba/emql/internal/diff"
	"github.com/koba/emql/internal/schema"
)

// DDLGenerator generates CREATE statements in the emql dialect
type DDLGenerator struct{}

// NewDDLGenerator creates a new DDL generator
func NewDDLGenerator() *DDLGenerator {
	return &DDLGenerator{}
}

// Generate generates DDL for a schema diff. The dialect has no DROP or ALTER,
// so every other change is returned as a warning instead.
func (g *DDLGenerator) Generate(schemaDiff *diff.SchemaDiff) (string, []string) {
	var warnings []string

	switch schemaDiff.Action {
	case diff.ActionAdd:
		return g.CreateTable(schemaDiff.NewSchema), nil

	case diff.ActionDrop:
		warnings = append(warnings, fmt.Sprintf("table %s: dropped table cannot be expressed", schemaDiff.TableName))

	case diff.ActionModify:
		for _, colChange := range schemaDiff.ColumnChanges {
			warnings = append(warnings, fmt.Sprintf("table %s: column %s %s cannot be expressed",
				schemaDiff.TableName, colChange.ColumnName, strings.ToLower(string(colChange.Action))))
		}
		for _, change := range schemaDiff.ConstraintChanges {
			warnings = append(warnings, fmt.Sprintf("table %s: constraint %s %s cannot be expressed",
				schemaDiff.TableName, describe(change.Constraint), strings.ToLower(string(change.Action))))
		}
	}

	return "", warnings
}

// CreateDatabase generates CREATE DATABASE, which also selects it
func (g *DDLGenerator) CreateDatabase(name string) string {
	return fmt.Sprintf("CREATE DATABASE %s;", name)
}

// Use generates USE
func (g *DDLGenerator) Use(name string) string {
	return fmt.Sprintf("USE %s;", name)
}

// CreateTable generates CREATE TABLE with column and table constraints
func (g *DDLGenerator) CreateTable(tableSchema *schema.TableSchema) string {
	var parts []string

	// Column definitions
	for i := range tableSchema.Columns {
		parts = append(parts, g.columnDefinition(&tableSchema.Columns[i]))
	}

	// Table constraints
	for _, tc := range tableSchema.Constraints {
		parts = append(parts, describe(tc))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", tableSchema.Name, strings.Join(parts, ",\n  "))
}

func (g *DDLGenerator) columnDefinition(col *schema.Column) string {
	def := fmt.Sprintf("%s: %s", col.Name, col.Type)

	for _, cc := range col.Constraints {
		switch cc.Kind {
		case schema.PrimaryKey:
			def += " PRIMARY KEY"
		case schema.Unique:
			def += " UNIQUE"
		case schema.NotNull:
			def += " NOT NULL"
		case schema.AutoIncrement:
			def += " AUTO_INCREMENT"
		case schema.Default:
			def += " DEFAULT " + cc.Default
		}
	}

	return def
}

// describe renders a table constraint the way CREATE TABLE declares it
func describe(tc schema.TableConstraint) string {
	switch tc.Type {
	case schema.PrimaryKey:
		return fmt.Sprintf("PRIMARY KEY (%s)", tc.ColumnName)
	case schema.Unique:
		return fmt.Sprintf("UNIQUE (%s)", tc.ColumnName)
	default:
		ref := tc.References
		if ref == nil {
			ref = &schema.ForeignKey{}
		}
		return fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)", tc.ColumnName, ref.Table, ref.Column)
	}
}
