package diff

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/koba/emql/internal/schema"
	"github.com/koba/emql/internal/storage"
)

func mustType(t *testing.T, s string) schema.DataType {
	t.Helper()
	dt, err := schema.ParseDataType(s)
	if err != nil {
		t.Fatalf("ParseDataType(%q): %v", s, err)
	}
	return dt
}

func clientesSchema(t *testing.T) schema.TableSchema {
	return schema.TableSchema{
		Name: "clientes",
		Columns: []schema.Column{
			{Name: "id", Type: mustType(t, "numero"), Constraints: []schema.ColumnConstraint{{Kind: schema.PrimaryKey}}},
			{Name: "nome", Type: mustType(t, "texto(40)"), Position: 1},
		},
	}
}

func record(row schema.Row) schema.Record {
	return schema.Record{ID: schema.NewRecordID(), Row: row}
}

func snapshotOf(name string, tables ...*schema.Table) *storage.Snapshot {
	snap := storage.NewSnapshot(name)
	for _, table := range tables {
		snap.Tables[table.Schema.Name] = table
	}
	return snap
}

func TestCompareIdentical(t *testing.T) {
	table := &schema.Table{
		Schema:  clientesSchema(t),
		Records: []schema.Record{record(schema.Row{"id": float64(1), "nome": "Ana"})},
	}
	other := &schema.Table{
		Schema:  clientesSchema(t),
		Records: []schema.Record{record(schema.Row{"id": float64(1), "nome": "Ana"})},
	}

	result := Compare(snapshotOf("a", table), snapshotOf("b", other))
	if !result.Empty() {
		t.Fatalf("expected no differences, got %+v", result)
	}

	var buf bytes.Buffer
	Display(&buf, result)
	if got := buf.String(); got != "No differences found.\n" {
		t.Errorf("Display() = %q", got)
	}
}

func TestCompareTables(t *testing.T) {
	clientes := &schema.Table{Schema: clientesSchema(t)}
	pedidos := &schema.Table{
		Schema: schema.TableSchema{
			Name:    "pedidos",
			Columns: []schema.Column{{Name: "id", Type: mustType(t, "numero")}},
		},
		Records: []schema.Record{record(schema.Row{"id": float64(7)})},
	}

	result := Compare(snapshotOf("a", clientes), snapshotOf("b", pedidos))

	if got := result.SchemaTables(); !reflect.DeepEqual(got, []string{"clientes", "pedidos"}) {
		t.Fatalf("SchemaTables() = %v", got)
	}
	if got := result.SchemaDiffs["clientes"].Action; got != ActionDrop {
		t.Errorf("clientes action = %s, want DROP", got)
	}
	if got := result.SchemaDiffs["pedidos"].Action; got != ActionAdd {
		t.Errorf("pedidos action = %s, want ADD", got)
	}

	added := result.DataDiffs["pedidos"]
	if added == nil || len(added.RowsAdded) != 1 {
		t.Fatalf("expected the new table's row as added data, got %+v", added)
	}
	if !reflect.DeepEqual(added.KeyColumns, []string{"id"}) {
		t.Errorf("KeyColumns = %v, want every column when there is no primary key", added.KeyColumns)
	}
}

func TestCompareSchemas(t *testing.T) {
	old := clientesSchema(t)
	changed := clientesSchema(t)
	changed.Columns[1].Type = mustType(t, "texto(80)")
	changed.Columns = append(changed.Columns, schema.Column{Name: "ativo", Type: mustType(t, "booleano"), Position: 2})
	changed.Constraints = []schema.TableConstraint{{Type: schema.Unique, ColumnName: "nome"}}

	result := Compare(
		snapshotOf("a", &schema.Table{Schema: old}),
		snapshotOf("b", &schema.Table{Schema: changed}),
	)

	sd := result.SchemaDiffs["clientes"]
	if sd == nil || sd.Action != ActionModify {
		t.Fatalf("expected MODIFY, got %+v", sd)
	}

	var got []string
	for _, c := range sd.ColumnChanges {
		got = append(got, c.ColumnName+":"+string(c.Action))
	}
	want := []string{"nome:MODIFY", "ativo:ADD"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("column changes = %v, want %v", got, want)
	}

	if len(sd.ConstraintChanges) != 1 || sd.ConstraintChanges[0].Action != ActionAdd {
		t.Errorf("constraint changes = %+v", sd.ConstraintChanges)
	}

	var buf bytes.Buffer
	Display(&buf, result)
	for _, want := range []string{"Action: MODIFY", "- ativo: ADD", "- UNIQUE(nome): ADD"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Display() missing %q:\n%s", want, buf.String())
		}
	}
}

func TestCompareData(t *testing.T) {
	old := &schema.Table{
		Schema: clientesSchema(t),
		Records: []schema.Record{
			record(schema.Row{"id": float64(1), "nome": "Ana"}),
			record(schema.Row{"id": float64(2), "nome": "Bruno"}),
		},
	}
	current := &schema.Table{
		Schema: clientesSchema(t),
		Records: []schema.Record{
			record(schema.Row{"id": float64(1), "nome": "Ana Maria"}),
			record(schema.Row{"id": float64(3), "nome": "Carla"}),
		},
	}

	result := Compare(snapshotOf("a", old), snapshotOf("b", current))
	if len(result.SchemaDiffs) != 0 {
		t.Errorf("unexpected schema diffs: %+v", result.SchemaDiffs)
	}

	dd := result.DataDiffs["clientes"]
	if dd == nil {
		t.Fatal("expected data diff for clientes")
	}
	if len(dd.RowsAdded) != 1 || dd.RowsAdded[0]["nome"] != "Carla" {
		t.Errorf("RowsAdded = %v", dd.RowsAdded)
	}
	if len(dd.RowsDeleted) != 1 || dd.RowsDeleted[0]["nome"] != "Bruno" {
		t.Errorf("RowsDeleted = %v", dd.RowsDeleted)
	}
	if len(dd.RowsModified) != 1 {
		t.Fatalf("RowsModified = %v", dd.RowsModified)
	}
	if got := dd.RowsModified[0].ChangedColumns(); !reflect.DeepEqual(got, []string{"nome"}) {
		t.Errorf("ChangedColumns() = %v, want [nome]", got)
	}
}

func TestRowKeyKeepsTypes(t *testing.T) {
	a := rowKey(schema.Row{"id": float64(1)}, []string{"id"})
	b := rowKey(schema.Row{"id": "1"}, []string{"id"})
	if a == b {
		t.Errorf("number and text keys collide: %s", a)
	}
}
