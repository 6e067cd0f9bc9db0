package schema

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseDataType(t *testing.T) {
	tests := []struct {
		in      string
		want    DataType
		wantErr bool
	}{
		{"numero", DataType{Base: TypeNumber}, false},
		{"TEXTO", DataType{Base: TypeText}, false},
		{"texto(20)", DataType{Base: TypeText, Size: 20}, false},
		{"texto( 5 )", DataType{Base: TypeText, Size: 5}, false},
		{"booleano", DataType{Base: TypeBoolean}, false},
		{"uuid", DataType{Base: TypeUUID}, false},
		{"numero(3)", DataType{}, true},
		{"texto(0)", DataType{}, true},
		{"texto(20", DataType{}, true},
		{"data", DataType{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDataType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDataType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDataType(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDataTypeCheck(t *testing.T) {
	tests := []struct {
		name    string
		typ     DataType
		value   interface{}
		wantErr bool
	}{
		{"null always accepted", DataType{Base: TypeNumber}, nil, false},
		{"number", DataType{Base: TypeNumber}, float64(3), false},
		{"text as number", DataType{Base: TypeNumber}, "3", true},
		{"text within size", DataType{Base: TypeText, Size: 4}, "joão", false},
		{"text over size", DataType{Base: TypeText, Size: 3}, "joão", true},
		{"boolean", DataType{Base: TypeBoolean}, true, false},
		{"number as boolean", DataType{Base: TypeBoolean}, float64(1), true},
		{"uuid", DataType{Base: TypeUUID}, "6f1c2a3e-2b4d-4c5e-9f60-718293a4b5c6", false},
		{"invalid uuid", DataType{Base: TypeUUID}, "abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.typ.Check(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("%s.Check(%v) error = %v, wantErr %v", tt.typ, tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestConstraintTokens(t *testing.T) {
	cs := []ColumnConstraint{
		{Kind: PrimaryKey},
		{Kind: NotNull},
		{Kind: Default, Default: `"a, b"`},
		{Kind: AutoIncrement},
	}

	encoded := EncodeConstraints(cs)
	if want := `PRIMARY_KEY,NOT_NULL,DEFAULT:"a, b",AUTO_INCREMENT`; encoded != want {
		t.Fatalf("EncodeConstraints() = %s, want %s", encoded, want)
	}

	decoded, err := DecodeConstraints(encoded)
	if err != nil {
		t.Fatalf("DecodeConstraints: %v", err)
	}
	if !reflect.DeepEqual(decoded, cs) {
		t.Errorf("DecodeConstraints() = %+v, want %+v", decoded, cs)
	}

	if _, err := DecodeConstraints("CHECK"); err == nil {
		t.Error("expected an error for an unknown token")
	}
}

func TestParseDefault(t *testing.T) {
	tests := []struct {
		lit     string
		typ     DataType
		want    interface{}
		wantErr bool
	}{
		{"10", DataType{Base: TypeNumber}, float64(10), false},
		{`"10"`, DataType{Base: TypeNumber}, float64(10), false},
		{"-2.5", DataType{Base: TypeNumber}, -2.5, false},
		{"abc", DataType{Base: TypeNumber}, nil, true},
		{`"ola\tmundo"`, DataType{Base: TypeText}, "ola\tmundo", false},
		{"'x'", DataType{Base: TypeText}, "x", false},
		{"verdadeiro", DataType{Base: TypeBoolean}, true, false},
		{"0", DataType{Base: TypeBoolean}, false, false},
		{"nulo", DataType{Base: TypeText}, nil, false},
		{`"longo"`, DataType{Base: TypeText, Size: 2}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.lit, func(t *testing.T) {
			got, err := ParseDefault(tt.lit, tt.typ)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDefault(%s) error = %v, wantErr %v", tt.lit, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDefault(%s) = %#v, want %#v", tt.lit, got, tt.want)
			}
		})
	}
}

func TestFormatLiteralQuotes(t *testing.T) {
	tests := []struct {
		value interface{}
		want  string
	}{
		{nil, "null"},
		{true, "true"},
		{float64(42), "42"},
		{0.5, "0.5"},
		{`diz "oi"`, `"diz \"oi\""`},
		{"a\\b\n", `"a\\b\n"`},
	}

	for _, tt := range tests {
		got := FormatLiteral(tt.value)
		if got != tt.want {
			t.Errorf("FormatLiteral(%#v) = %s, want %s", tt.value, got, tt.want)
		}
		if s, ok := tt.value.(string); ok {
			back, err := UnquoteString(got)
			if err != nil || back != s {
				t.Errorf("UnquoteString(%s) = %q, %v; want %q", got, back, err, s)
			}
		}
	}
}

func TestColumnJSON(t *testing.T) {
	col := Column{
		Name:        "nome",
		Type:        DataType{Base: TypeText, Size: 40},
		Constraints: []ColumnConstraint{{Kind: NotNull}, {Kind: Default, Default: `"anon"`}},
		Position:    1,
	}

	data, err := json.Marshal(col)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"name":"nome","type":"texto(40)","constraints":"NOT_NULL,DEFAULT:\"anon\"","position":1}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var back Column
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back, col) {
		t.Errorf("Unmarshal() = %+v, want %+v", back, col)
	}
}

func TestTableSchema(t *testing.T) {
	ts := TableSchema{
		Name: "pedidos",
		Columns: []Column{
			{Name: "id", Type: DataType{Base: TypeNumber}, Constraints: []ColumnConstraint{{Kind: PrimaryKey}}},
			{Name: "cliente_id", Type: DataType{Base: TypeNumber}, Position: 1},
		},
		Constraints: []TableConstraint{
			{Type: PrimaryKey, ColumnName: "id"},
			{Type: ForeignKeyConstraint, ColumnName: "cliente_id", References: &ForeignKey{Table: "clientes", Column: "id"}},
		},
	}

	if err := ts.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := ts.PrimaryKey(); !reflect.DeepEqual(got, []string{"id"}) {
		t.Errorf("PrimaryKey() = %v, want [id]", got)
	}
	if got := ts.ForeignKeys(); len(got) != 1 || got[0].References.Table != "clientes" {
		t.Errorf("ForeignKeys() = %+v", got)
	}

	invalid := []struct {
		name string
		ts   TableSchema
	}{
		{"no columns", TableSchema{Name: "t"}},
		{"duplicate column", TableSchema{Name: "t", Columns: []Column{
			{Name: "a", Type: DataType{Base: TypeNumber}},
			{Name: "a", Type: DataType{Base: TypeText}},
		}}},
		{"auto increment on text", TableSchema{Name: "t", Columns: []Column{
			{Name: "a", Type: DataType{Base: TypeText}, Constraints: []ColumnConstraint{{Kind: AutoIncrement}}},
		}}},
		{"bad default", TableSchema{Name: "t", Columns: []Column{
			{Name: "a", Type: DataType{Base: TypeNumber}, Constraints: []ColumnConstraint{{Kind: Default, Default: `"x"`}}},
		}}},
		{"unknown constraint column", TableSchema{Name: "t",
			Columns:     []Column{{Name: "a", Type: DataType{Base: TypeNumber}}},
			Constraints: []TableConstraint{{Type: Unique, ColumnName: "b"}},
		}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.ts.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
