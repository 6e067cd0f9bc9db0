package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/koba/emql/internal/ast"
	"github.com/koba/emql/internal/schema"
)

func (e *Executor) executeSelect(ctx context.Context, stmt *ast.SelectStatement) (*Result, error) {
	db, err := e.selectedDatabase()
	if err != nil {
		return nil, err
	}

	// FROM
	table, err := e.loadTable(ctx, db, stmt.From.Table)
	if err != nil {
		return nil, err
	}
	src, rows := materialize(stmt.From.Name(), table)
	sources := []source{src}

	// Joins
	for _, join := range stmt.Joins {
		joined, err := e.loadTable(ctx, db, join.Table)
		if err != nil {
			return nil, err
		}
		right, rightRows := materialize(join.Name(), joined)

		rows, err = nestedLoopJoin(join, sources, rows, right, rightRows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, right)
	}

	// WHERE
	if stmt.Where != nil {
		rows, err = filter(rows, stmt.Where.Condition)
		if err != nil {
			return nil, err
		}
	}

	// GROUP BY
	if stmt.GroupBy != nil {
		rows, err = firstPerGroup(rows, stmt.GroupBy.Exprs)
		if err != nil {
			return nil, err
		}
	}

	// Projection
	columns, out, err := project(stmt.Columns, sources, len(stmt.Joins) > 0, rows)
	if err != nil {
		return nil, err
	}

	// ORDER BY
	if stmt.OrderBy != nil {
		if err := orderRows(stmt.OrderBy.Terms, rows, out); err != nil {
			return nil, err
		}
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("%d row(s) selected", len(out)),
		Columns: columns,
		Rows:    out,
	}, nil
}

// nestedLoopJoin joins every left row against every right row
func nestedLoopJoin(join ast.JoinClause, leftSources []source, left []row, right source, rightRows []row) ([]row, error) {
	var out []row

	if join.Type == ast.RightJoin {
		for _, r := range rightRows {
			matched := false
			for _, l := range left {
				merged := merge(l, r)
				ok, err := matches(join.On, merged)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, merged)
					matched = true
				}
			}
			if !matched {
				out = append(out, padNulls(r, leftSources))
			}
		}
		return out, nil
	}

	for _, l := range left {
		matched := false
		for _, r := range rightRows {
			merged := merge(l, r)
			ok, err := matches(join.On, merged)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, merged)
				matched = true
			}
		}
		if !matched && join.Type == ast.LeftJoin {
			out = append(out, padNulls(l, []source{right}))
		}
	}
	return out, nil
}

func matches(cond ast.Expression, r row) (bool, error) {
	v, err := evaluate(cond, r)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

func filter(rows []row, cond ast.Expression) ([]row, error) {
	var out []row
	for _, r := range rows {
		ok, err := matches(cond, r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// firstPerGroup keeps the first row of every distinct group key. No
// aggregates are computed.
func firstPerGroup(rows []row, exprs []ast.Expression) ([]row, error) {
	seen := make(map[string]bool)
	var out []row

	for _, r := range rows {
		values := make([]interface{}, len(exprs))
		for i, expr := range exprs {
			v, err := evaluate(expr, r)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}

		key, err := groupKey(values)
		if err != nil {
			return nil, err
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out, nil
}

// groupKey encodes values so that "1" and 1 stay distinct keys
func groupKey(values []interface{}) (string, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode group key: %w", err)
	}
	return string(data), nil
}

// output is one projected column: a ref copied from the row for * and t.*,
// or an expression to evaluate
type output struct {
	key  string
	ref  *ColumnRef
	expr ast.Expression
}

// project applies the select list. With joins, * keys columns as
// "table.column"; without, by the bare column name.
func project(items []ast.SelectItem, sources []source, joined bool, rows []row) ([]string, []schema.Row, error) {
	outputs, err := resolveOutputs(items, sources, joined)
	if err != nil {
		return nil, nil, err
	}

	var columns []string
	seen := make(map[string]bool)
	for _, o := range outputs {
		if !seen[o.key] {
			seen[o.key] = true
			columns = append(columns, o.key)
		}
	}

	// An empty result still reports unknown columns
	if len(rows) == 0 {
		empty := padNulls(row{}, sources)
		for _, o := range outputs {
			if o.expr == nil {
				continue
			}
			if _, err := evaluate(o.expr, empty); err != nil {
				return nil, nil, err
			}
		}
	}

	out := make([]schema.Row, len(rows))
	for i, r := range rows {
		projected := make(schema.Row, len(columns))
		for _, o := range outputs {
			if o.ref != nil {
				projected[o.key] = r[*o.ref]
				continue
			}
			v, err := evaluate(o.expr, r)
			if err != nil {
				return nil, nil, err
			}
			projected[o.key] = v
		}
		out[i] = projected
	}

	return columns, out, nil
}

func resolveOutputs(items []ast.SelectItem, sources []source, joined bool) ([]output, error) {
	var outputs []output

	for _, item := range items {
		all, ok := item.Expr.(*ast.AllColumns)
		if !ok {
			key := item.Alias
			if key == "" {
				key = item.Expr.String()
			}
			outputs = append(outputs, output{key: key, expr: item.Expr})
			continue
		}

		matched := false
		for _, src := range sources {
			if all.Table != "" && src.name != all.Table {
				continue
			}
			matched = true
			for _, col := range src.columns {
				key := col
				if joined && all.Table == "" {
					key = src.name + "." + col
				}
				outputs = append(outputs, output{key: key, ref: &ColumnRef{Table: src.name, Name: col}})
			}
		}
		if !matched {
			return nil, errorf(MissingTable, "unknown table %s in %s", all.Table, all)
		}
	}

	return outputs, nil
}

// orderRows sorts out and rows together with a stable multi-key sort. Keys
// naming an output column use the projected value, others are evaluated
// against the source row.
func orderRows(terms []ast.OrderTerm, rows []row, out []schema.Row) error {
	keys := make([][]interface{}, len(out))
	for i := range out {
		keys[i] = make([]interface{}, len(terms))
		for j, term := range terms {
			if v, ok := out[i][term.Expr.String()]; ok {
				keys[i][j] = v
				continue
			}
			v, err := evaluate(term.Expr, rows[i])
			if err != nil {
				return err
			}
			keys[i][j] = v
		}
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		for j, term := range terms {
			c := orderValues(keys[idx[a]][j], keys[idx[b]][j])
			if c == 0 {
				continue
			}
			if term.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	sorted := make([]schema.Row, len(out))
	for i, k := range idx {
		sorted[i] = out[k]
	}
	copy(out, sorted)
	return nil
}
