package executor

import (
	"context"
	"fmt"

	"github.com/koba/emql/internal/ast"
	"github.com/koba/emql/internal/constraint"
	"github.com/koba/emql/internal/schema"
)

// validator returns a constraint validator resolving foreign keys in db
func (e *Executor) validator(db string) *constraint.Validator {
	return constraint.New(constraint.LookupFunc(func(ctx context.Context, name string) (*schema.Table, error) {
		return e.store.LoadTable(ctx, db, name)
	}))
}

func (e *Executor) executeInsert(ctx context.Context, stmt *ast.InsertStatement) (*Result, error) {
	db, err := e.selectedDatabase()
	if err != nil {
		return nil, err
	}

	table, err := e.loadTable(ctx, db, stmt.Table)
	if err != nil {
		return nil, err
	}

	// Effective column list
	columns := stmt.Columns
	if len(columns) == 0 {
		columns = table.Schema.ColumnNames()
	}
	for _, name := range columns {
		if _, ok := table.Schema.Column(name); !ok {
			return nil, errorf(MissingColumn, "table %s has no column %s", stmt.Table, name)
		}
	}
	if len(columns) != len(stmt.Values) {
		return nil, errorf(Arity, "table %s: %d column(s) but %d value(s)", stmt.Table, len(columns), len(stmt.Values))
	}

	// Values see an empty row, so they cannot reference columns
	rec := make(schema.Row, len(table.Schema.Columns))
	for i, expr := range stmt.Values {
		value, err := evaluate(expr, row{})
		if err != nil {
			return nil, err
		}
		col, _ := table.Schema.Column(columns[i])
		if err := col.Type.Check(value); err != nil {
			return nil, errorf(TypeMismatch, "column %s %s", col.Name, err)
		}
		rec[col.Name] = value
	}

	violations, err := e.validator(db).PrepareAndValidate(ctx, table, rec, "")
	if err != nil {
		return nil, fmt.Errorf("failed to validate record: %w", err)
	}
	if len(violations) > 0 {
		return nil, &constraint.ViolationError{Table: stmt.Table, Violations: violations}
	}

	for _, col := range table.Schema.Columns {
		if _, ok := rec[col.Name]; !ok {
			rec[col.Name] = nil
		}
	}
	table.Records = append(table.Records, schema.Record{ID: schema.NewRecordID(), Row: rec})

	if err := e.store.SaveTable(ctx, db, stmt.Table, table); err != nil {
		return nil, fmt.Errorf("failed to save table %s: %w", stmt.Table, err)
	}

	return &Result{Success: true, Message: "1 row inserted", Affected: 1}, nil
}

func (e *Executor) executeUpdate(ctx context.Context, stmt *ast.UpdateStatement) (*Result, error) {
	db, err := e.selectedDatabase()
	if err != nil {
		return nil, err
	}

	table, err := e.loadTable(ctx, db, stmt.Table)
	if err != nil {
		return nil, err
	}

	for _, a := range stmt.Assignments {
		if _, ok := table.Schema.Column(a.Column); !ok {
			return nil, errorf(MissingColumn, "table %s has no column %s", stmt.Table, a.Column)
		}
	}

	src := source{name: stmt.Table, columns: table.Schema.ColumnNames()}
	validator := e.validator(db)
	affected := 0

	// Records are replaced one by one, so later records are checked against
	// the already updated ones
	for i, rec := range table.Records {
		current := recordRow(src, rec.Row)
		if stmt.Where != nil {
			ok, err := matches(stmt.Where.Condition, current)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}

		updated := rec.Row.Clone()
		for _, a := range stmt.Assignments {
			value, err := evaluate(a.Value, current)
			if err != nil {
				return nil, err
			}
			col, _ := table.Schema.Column(a.Column)
			if err := col.Type.Check(value); err != nil {
				return nil, errorf(TypeMismatch, "column %s %s", col.Name, err)
			}
			updated[a.Column] = value
		}

		violations, err := validator.PrepareAndValidate(ctx, table, updated, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to validate record: %w", err)
		}
		if len(violations) > 0 {
			return nil, &constraint.ViolationError{Table: stmt.Table, Violations: violations}
		}

		table.Records[i].Row = updated
		affected++
	}

	if affected > 0 {
		if err := e.store.SaveTable(ctx, db, stmt.Table, table); err != nil {
			return nil, fmt.Errorf("failed to save table %s: %w", stmt.Table, err)
		}
	}

	return &Result{Success: true, Message: fmt.Sprintf("%d row(s) updated", affected), Affected: affected}, nil
}

func (e *Executor) executeDelete(ctx context.Context, stmt *ast.DeleteStatement) (*Result, error) {
	db, err := e.selectedDatabase()
	if err != nil {
		return nil, err
	}

	table, err := e.loadTable(ctx, db, stmt.Table)
	if err != nil {
		return nil, err
	}

	src := source{name: stmt.Table, columns: table.Schema.ColumnNames()}
	kept := make([]schema.Record, 0, len(table.Records))
	for _, rec := range table.Records {
		if stmt.Where != nil {
			ok, err := matches(stmt.Where.Condition, recordRow(src, rec.Row))
			if err != nil {
				return nil, err
			}
			if !ok {
				kept = append(kept, rec)
				continue
			}
		}
	}

	affected := len(table.Records) - len(kept)
	if affected > 0 {
		table.Records = kept
		if err := e.store.SaveTable(ctx, db, stmt.Table, table); err != nil {
			return nil, fmt.Errorf("failed to save table %s: %w", stmt.Table, err)
		}
	}

	return &Result{Success: true, Message: fmt.Sprintf("%d row(s) deleted", affected), Affected: affected}, nil
}
