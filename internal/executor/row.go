package executor

import "github.com/koba/emql/internal/schema"

// ColumnRef names a value in a result row. Table is the alias or table name
// the column came from; an empty Table is the bare column name.
type ColumnRef struct {
	Table string
	Name  string
}

// row is a result row during SELECT. Every column is reachable by its
// qualified ref and by its bare name; the bare name holds the value of the
// most recently merged table carrying that column.
type row map[ColumnRef]interface{}

// get resolves a column: the qualified ref when table is given, falling back
// to the bare name
func (r row) get(table, name string) (interface{}, bool) {
	if table != "" {
		if v, ok := r[ColumnRef{Table: table, Name: name}]; ok {
			return v, true
		}
	}
	v, ok := r[ColumnRef{Name: name}]
	return v, ok
}

// source is one table taking part in a SELECT, under its alias
type source struct {
	name    string
	columns []string
}

// materialize converts records into rows qualified by name
func materialize(name string, table *schema.Table) (source, []row) {
	src := source{name: name, columns: table.Schema.ColumnNames()}

	rows := make([]row, len(table.Records))
	for i, rec := range table.Records {
		rows[i] = recordRow(src, rec.Row)
	}
	return src, rows
}

func recordRow(src source, values schema.Row) row {
	r := make(row, 2*len(src.columns))
	for _, col := range src.columns {
		v := values[col]
		r[ColumnRef{Table: src.name, Name: col}] = v
		r[ColumnRef{Name: col}] = v
	}
	return r
}

// merge combines a left and a right row; bare names take the right value
func merge(left, right row) row {
	out := make(row, len(left)+len(right))
	for k, v := range left {
		out[k] = v
	}
	for k, v := range right {
		out[k] = v
	}
	return out
}

// padNulls adds null columns for sources absent from an outer join match.
// Bare names already present in r keep their value.
func padNulls(r row, sources []source) row {
	out := make(row, len(r))
	for k, v := range r {
		out[k] = v
	}
	for _, src := range sources {
		for _, col := range src.columns {
			out[ColumnRef{Table: src.name, Name: col}] = nil
			if _, ok := out[ColumnRef{Name: col}]; !ok {
				out[ColumnRef{Name: col}] = nil
			}
		}
	}
	return out
}
