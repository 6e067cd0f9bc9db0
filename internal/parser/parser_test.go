package parser

import (
	"errors"
	"reflect"
	"testing"

	"github.com/koba/emql/internal/ast"
	"github.com/koba/emql/internal/lexer"
	"github.com/koba/emql/internal/schema"
)

func mustParse(t *testing.T, input string) ast.Statement {
	t.Helper()
	stmt, err := ParseString(input)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", input, err)
	}
	return stmt
}

func TestParseRootKind(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected ast.Statement
	}{
		{name: "select", input: "SELECT * FROM t", expected: &ast.SelectStatement{}},
		{name: "insert", input: "INSERT INTO t VALUES (1)", expected: &ast.InsertStatement{}},
		{name: "update", input: "UPDATE t SET a = 1", expected: &ast.UpdateStatement{}},
		{name: "delete", input: "DELETE FROM t", expected: &ast.DeleteStatement{}},
		{name: "create table", input: "CREATE TABLE t (a: numero)", expected: &ast.CreateTableStatement{}},
		{name: "create database", input: "CREATE DATABASE loja", expected: &ast.CreateDatabaseStatement{}},
		{name: "use", input: "USE loja", expected: &ast.UseDatabaseStatement{}},
		{name: "trailing semicolon", input: "SELECT * FROM t;", expected: &ast.SelectStatement{}},
		{name: "statement list", input: "USE loja; SELECT * FROM t", expected: &ast.StatementList{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := mustParse(t, tt.input)
			if reflect.TypeOf(stmt) != reflect.TypeOf(tt.expected) {
				t.Errorf("expected %T, got %T", tt.expected, stmt)
			}
		})
	}
}

func TestParseSelect(t *testing.T) {
	stmt := mustParse(t, "SELECT u.nome, p.titulo AS t, preco * 2 total FROM usuarios u "+
		"LEFT JOIN posts p ON u.id = p.usuario_id WHERE preco > 10 AND nome LIKE 'a%' "+
		"GROUP BY u.nome ORDER BY preco DESC, nome").(*ast.SelectStatement)

	if len(stmt.Columns) != 3 {
		t.Fatalf("expected 3 select items, got %d", len(stmt.Columns))
	}
	if got := stmt.Columns[0].Expr.String(); got != "u.nome" {
		t.Errorf("item 0: expected u.nome, got %s", got)
	}
	if stmt.Columns[1].Alias != "t" || stmt.Columns[2].Alias != "total" {
		t.Errorf("unexpected aliases %q, %q", stmt.Columns[1].Alias, stmt.Columns[2].Alias)
	}
	if got := stmt.Columns[2].Expr.String(); got != "(preco * 2)" {
		t.Errorf("item 2: expected (preco * 2), got %s", got)
	}

	if stmt.From != (ast.FromClause{Table: "usuarios", Alias: "u"}) {
		t.Errorf("unexpected FROM %+v", stmt.From)
	}

	if len(stmt.Joins) != 1 {
		t.Fatalf("expected 1 join, got %d", len(stmt.Joins))
	}
	join := stmt.Joins[0]
	if join.Type != ast.LeftJoin || join.Table != "posts" || join.Alias != "p" {
		t.Errorf("unexpected join %+v", join)
	}
	if got := join.On.String(); got != "(u.id = p.usuario_id)" {
		t.Errorf("unexpected ON %s", got)
	}

	if got := stmt.Where.Condition.String(); got != `((preco > 10) and (nome like "a%"))` {
		t.Errorf("unexpected WHERE %s", got)
	}
	if len(stmt.GroupBy.Exprs) != 1 {
		t.Errorf("expected 1 group expression, got %d", len(stmt.GroupBy.Exprs))
	}
	if len(stmt.OrderBy.Terms) != 2 || !stmt.OrderBy.Terms[0].Descending || stmt.OrderBy.Terms[1].Descending {
		t.Errorf("unexpected ORDER BY %+v", stmt.OrderBy.Terms)
	}
}

func TestParseSelectItems(t *testing.T) {
	stmt := mustParse(t, "SELECT *, p.* FROM posts p").(*ast.SelectStatement)

	all, ok := stmt.Columns[0].Expr.(*ast.AllColumns)
	if !ok || all.Table != "" {
		t.Errorf("expected *, got %v", stmt.Columns[0].Expr)
	}
	qualified, ok := stmt.Columns[1].Expr.(*ast.AllColumns)
	if !ok || qualified.Table != "p" {
		t.Errorf("expected p.*, got %v", stmt.Columns[1].Expr)
	}
}

func TestParseJoinTypes(t *testing.T) {
	tests := []struct {
		input    string
		expected ast.JoinType
	}{
		{input: "SELECT * FROM a JOIN b ON a.id = b.id", expected: ast.InnerJoin},
		{input: "SELECT * FROM a INNER JOIN b ON a.id = b.id", expected: ast.InnerJoin},
		{input: "SELECT * FROM a LEFT JOIN b ON a.id = b.id", expected: ast.LeftJoin},
		{input: "SELECT * FROM a RIGHT JOIN b ON a.id = b.id", expected: ast.RightJoin},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			stmt := mustParse(t, tt.input).(*ast.SelectStatement)
			if stmt.Joins[0].Type != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, stmt.Joins[0].Type)
			}
		})
	}
}

func TestParseContextualKeyword(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "insert em", input: "INSERT em produtos VALUES (1)"},
		{name: "join em with alias", input: "SELECT * FROM usuarios u JOIN posts p em u.id = p.usuario_id"},
		{name: "join em without alias", input: "SELECT * FROM usuarios JOIN posts em usuarios.id = posts.usuario_id"},
		// The lexer resolves this "em" to INTO; the parser still reads it as ON
		{name: "join em outside lexer window", input: "SELECT * FROM usuarios u JOIN posts AS p em u.id = p.usuario_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustParse(t, tt.input)
		})
	}
}

func TestParseOrderDirection(t *testing.T) {
	tests := []struct {
		word       string
		descending bool
	}{
		{word: "", descending: false},
		{word: "ASC", descending: false},
		{word: "DESC", descending: true},
		{word: "crescente", descending: false},
		{word: "decrescente", descending: true},
		{word: "descendente", descending: true},
		{word: "ascendente", descending: false},
		{word: "qualquer", descending: false},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			stmt := mustParse(t, "SELECT * FROM t ORDER BY preco "+tt.word).(*ast.SelectStatement)
			if got := stmt.OrderBy.Terms[0].Descending; got != tt.descending {
				t.Errorf("expected descending=%v, got %v", tt.descending, got)
			}
		})
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "a = 1 OR b = 2 AND c = 3", expected: "((a = 1) or ((b = 2) and (c = 3)))"},
		{input: "a + b * c > 10", expected: "((a + (b * c)) > 10)"},
		{input: "(a + b) * c", expected: "((a + b) * c)"},
		{input: "a - b - c", expected: "((a - b) - c)"},
		{input: "-5", expected: "-5"},
		{input: "-preco", expected: "-preco"},
		{input: "x = verdadeiro", expected: "(x = true)"},
		{input: "x != nulo", expected: "(x != null)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			stmt := mustParse(t, "SELECT * FROM t WHERE "+tt.input).(*ast.SelectStatement)
			if got := stmt.Where.Condition.String(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseInsert(t *testing.T) {
	stmt := mustParse(t, "INSERT INTO produtos (id, nome, preco) VALUES (1, 'Mouse', 50)").(*ast.InsertStatement)

	if stmt.Table != "produtos" {
		t.Errorf("expected table produtos, got %s", stmt.Table)
	}
	if !reflect.DeepEqual(stmt.Columns, []string{"id", "nome", "preco"}) {
		t.Errorf("unexpected columns %v", stmt.Columns)
	}
	if len(stmt.Values) != 3 || stmt.Values[1].(*ast.Literal).Value != "Mouse" {
		t.Errorf("unexpected values %v", stmt.Values)
	}

	noColumns := mustParse(t, "INSERT INTO produtos VALUES (1)").(*ast.InsertStatement)
	if noColumns.Columns != nil {
		t.Errorf("expected no column list, got %v", noColumns.Columns)
	}
}

func TestParseUpdateDelete(t *testing.T) {
	upd := mustParse(t, "UPDATE produtos SET preco = preco + 1, nome = 'x' WHERE id = 2").(*ast.UpdateStatement)
	if len(upd.Assignments) != 2 || upd.Assignments[0].Column != "preco" {
		t.Errorf("unexpected assignments %+v", upd.Assignments)
	}
	if got := upd.Assignments[0].Value.String(); got != "(preco + 1)" {
		t.Errorf("unexpected assignment value %s", got)
	}
	if upd.Where == nil {
		t.Error("expected WHERE clause")
	}

	del := mustParse(t, "DELETE FROM produtos").(*ast.DeleteStatement)
	if del.Table != "produtos" || del.Where != nil {
		t.Errorf("unexpected delete %+v", del)
	}
}

func TestParseCreateTable(t *testing.T) {
	stmt := mustParse(t, `CREATE TABLE posts (
		id: numero PRIMARY KEY AUTO INCREMENT,
		titulo: texto(40) NOT NULL UNIQUE,
		ativo: booleano DEFAULT verdadeiro,
		saldo: numero DEFAULT -1 AUTO_INCREMENT,
		codigo: uuid,
		usuario_id: numero,
		FOREIGN KEY (usuario_id) REFERENCES usuarios(id),
		UNIQUE (codigo)
	)`).(*ast.CreateTableStatement)

	if stmt.Table != "posts" || len(stmt.Columns) != 6 || len(stmt.Constraints) != 2 {
		t.Fatalf("unexpected statement: %d columns, %d constraints", len(stmt.Columns), len(stmt.Constraints))
	}

	kindsOf := func(col ast.ColumnDefinition) []schema.ConstraintKind {
		var out []schema.ConstraintKind
		for _, cc := range col.Constraints {
			out = append(out, cc.Kind)
		}
		return out
	}

	tests := []struct {
		index    int
		typ      string
		expected []schema.ConstraintKind
	}{
		{index: 0, typ: "numero", expected: []schema.ConstraintKind{schema.PrimaryKey, schema.AutoIncrement}},
		{index: 1, typ: "texto(40)", expected: []schema.ConstraintKind{schema.NotNull, schema.Unique}},
		{index: 2, typ: "booleano", expected: []schema.ConstraintKind{schema.Default}},
		{index: 3, typ: "numero", expected: []schema.ConstraintKind{schema.Default, schema.AutoIncrement}},
		{index: 4, typ: "uuid", expected: nil},
	}
	for _, tt := range tests {
		col := stmt.Columns[tt.index]
		if col.Type.String() != tt.typ {
			t.Errorf("column %s: expected type %s, got %s", col.Name, tt.typ, col.Type)
		}
		if got := kindsOf(col); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("column %s: expected %v, got %v", col.Name, tt.expected, got)
		}
	}

	if got := stmt.Columns[3].Constraints[0].Default.String(); got != "-1" {
		t.Errorf("expected default -1, got %s", got)
	}

	fk := stmt.Constraints[0]
	if fk.Kind != schema.ForeignKeyConstraint || fk.Column != "usuario_id" || fk.RefTable != "usuarios" || fk.RefColumn != "id" {
		t.Errorf("unexpected foreign key %+v", fk)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		offset   int
		expected string
	}{
		{name: "empty", input: "", offset: 0, expected: "statement"},
		{name: "unknown statement", input: "DROP TABLE t", offset: 0},
		{name: "missing from", input: "SELECT nome", offset: 11, expected: "FROM"},
		{name: "chained comparison", input: "SELECT * FROM t WHERE a < b < c", offset: 28},
		{name: "missing on", input: "SELECT * FROM a JOIN b WHERE x = 1", offset: 23, expected: "ON"},
		{name: "unknown type", input: "CREATE TABLE t (a: inteiro)", offset: 19, expected: "column type"},
		{name: "missing colon", input: "CREATE TABLE t (a numero)", offset: 18, expected: ":"},
		{name: "unclosed paren", input: "INSERT INTO t VALUES (1, 2", offset: 26, expected: ")"},
		{name: "missing assignment", input: "UPDATE t SET a 1", offset: 15, expected: "="},
		{name: "create nothing", input: "CREATE INDEX i", offset: 7, expected: "TABLE or DATABASE"},
		{name: "quoted em after insert", input: `INSERT "em" t VALUES (1)`, offset: 7, expected: "INTO"},
		{name: "quoted em after join", input: `SELECT * FROM a JOIN b "em" a.id = b.a_id`, offset: 23, expected: "ON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input)
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("expected *SyntaxError, got %v", err)
			}
			if syntaxErr.Offset != tt.offset {
				t.Errorf("expected offset %d, got %d (%v)", tt.offset, syntaxErr.Offset, err)
			}
			if tt.expected != "" && syntaxErr.Expected != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, syntaxErr.Expected)
			}
		})
	}
}

func TestParseLexicalErrorPassesThrough(t *testing.T) {
	_, err := ParseString("SELECT 'abc")
	var lexErr *lexer.Error
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected *lexer.Error, got %v", err)
	}
}

func TestParseWithoutEOF(t *testing.T) {
	tokens, err := lexer.Tokenize("DELETE FROM t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stmt, err := Parse(tokens[:len(tokens)-1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := stmt.(*ast.DeleteStatement); !ok {
		t.Errorf("expected *ast.DeleteStatement, got %T", stmt)
	}
}
