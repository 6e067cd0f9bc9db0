package main

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/koba/emql/internal/executor"
	"github.com/koba/emql/internal/schema"
	"github.com/koba/emql/internal/storage"
)

func TestReadLoop(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "one statement per line",
			input: "CREATE DATABASE a;\nUSE a;\n",
			want:  []string{"CREATE DATABASE a;\n", "USE a;\n"},
		},
		{
			name:  "statement over several lines",
			input: "SELECT *\nFROM t\nWHERE x = 1;\n",
			want:  []string{"SELECT *\nFROM t\nWHERE x = 1;\n"},
		},
		{
			name:  "quit stops reading",
			input: "USE a;\n\\q\nUSE b;\n",
			want:  []string{"USE a;\n"},
		},
		{
			name:  "trailing statement without semicolon",
			input: "\nUSE a",
			want:  []string{"USE a\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			var out bytes.Buffer
			err := readLoop(strings.NewReader(tt.input), &out, func() string { return "" }, func(text string) {
				got = append(got, text)
			})
			if err != nil {
				t.Fatalf("readLoop: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("statements = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunScript(t *testing.T) {
	e := executor.New(storage.NewMemoryStore())
	var out bytes.Buffer

	err := runScript(context.Background(), e, `
CREATE DATABASE loja;
CREATE TABLE produtos (id: numero PRIMARY KEY, nome: texto, preco: numero);
INSERT INTO produtos VALUES (1, "Caneta", 2.5);
INSERT INTO produtos (id, nome) VALUES (2, "Lapis");
SELECT nome, preco FROM produtos ORDER BY id`, &out)
	if err != nil {
		t.Fatalf("runScript: %v", err)
	}

	for _, want := range []string{"table produtos created", "Caneta", "2.5", "Lapis", "null", "2 rows"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunScriptStopsAtFailure(t *testing.T) {
	e := executor.New(storage.NewMemoryStore())
	var out bytes.Buffer

	err := runScript(context.Background(), e, "CREATE DATABASE a; SELECT * FROM nada; CREATE DATABASE b", &out)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "statement 2") {
		t.Errorf("error = %v, want it to name statement 2", err)
	}
	if e.Database() != "a" {
		t.Errorf("database = %q, want a", e.Database())
	}
}

func TestRenderResult(t *testing.T) {
	var out bytes.Buffer
	renderResult(&out, &executor.Result{
		Success: true,
		Message: "1 row(s) selected",
		Columns: []string{"nome", "ativo"},
		Rows:    []schema.Row{{"nome": "Ana", "ativo": true}},
	}, time.Millisecond)

	for _, want := range []string{"nome", "ativo", "Ana", "true", "1 row "} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}
