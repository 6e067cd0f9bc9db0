package lexer

import (
	"errors"
	"strings"
	"testing"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func equalKinds(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTokenizeKinds(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Kind
	}{
		{
			name:     "select with comparison",
			input:    "SELECT * FROM produtos WHERE preco > 10",
			expected: []Kind{SELECT, ASTERISK, FROM, IDENTIFIER, WHERE, IDENTIFIER, GT, NUMBER, EOF},
		},
		{
			name:     "two character operators before prefixes",
			input:    "a != b <= c >= d <> e < f",
			expected: []Kind{IDENTIFIER, NEQ, IDENTIFIER, LTE, IDENTIFIER, GTE, IDENTIFIER, NEQ, IDENTIFIER, LT, IDENTIFIER, EOF},
		},
		{
			name:     "qualified identifier",
			input:    "u.nome",
			expected: []Kind{IDENTIFIER, DOT, IDENTIFIER, EOF},
		},
		{
			name:     "column definition",
			input:    "nome: texto(20) NOT NULL",
			expected: []Kind{IDENTIFIER, COLON, IDENTIFIER, LPAREN, NUMBER, RPAREN, NOT, NULL, EOF},
		},
		{
			name:     "case insensitive keywords",
			input:    "sElEcT FrOm",
			expected: []Kind{SELECT, FROM, EOF},
		},
		{
			name:     "portuguese literals",
			input:    "verdadeiro falso nulo",
			expected: []Kind{TRUE, FALSE, NULL, EOF},
		},
		{
			name:     "empty input",
			input:    "   ",
			expected: []Kind{EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := kinds(tokens); !equalKinds(got, tt.expected) {
				t.Errorf("kinds mismatch: expected=%v, got=%v", tt.expected, got)
			}
		})
	}
}

func TestTokenizeOffsets(t *testing.T) {
	tokens, err := Tokenize("SELECT nome FROM t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []int{0, 7, 12, 17, 18}
	for i, tok := range tokens {
		if tok.Offset != expected[i] {
			t.Errorf("token %d (%s): expected offset %d, got %d", i, tok.Kind, expected[i], tok.Offset)
		}
	}
}

func TestTokenizeLiterals(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kind   Kind
		text   string
		number float64
	}{
		{name: "integer", input: "42", kind: NUMBER, text: "42", number: 42},
		{name: "decimal", input: "3.25", kind: NUMBER, text: "3.25", number: 3.25},
		{name: "double quoted keeps case", input: `"Mouse"`, kind: STRING, text: "Mouse"},
		{name: "single quoted", input: `'joao'`, kind: STRING, text: "joao"},
		{name: "escapes", input: `"a\nb\tc\\d\"e\'f"`, kind: STRING, text: "a\nb\tc\\d\"e'f"},
		{name: "unknown escape passes through", input: `"\q"`, kind: STRING, text: "q"},
		{name: "other quote inside", input: `"it's"`, kind: STRING, text: "it's"},
		{name: "identifier lower-cased", input: "Produtos_2", kind: IDENTIFIER, text: "produtos_2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tokens) != 2 {
				t.Fatalf("expected 2 tokens, got %d", len(tokens))
			}
			tok := tokens[0]
			if tok.Kind != tt.kind || tok.Text != tt.text || tok.Number != tt.number {
				t.Errorf("expected %s %q %v, got %s %q %v", tt.kind, tt.text, tt.number, tok.Kind, tok.Text, tok.Number)
			}
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		offset int
	}{
		{name: "unterminated string", input: `SELECT "abc`, offset: 7},
		{name: "unknown character", input: "SELECT # FROM t", offset: 7},
		{name: "lone bang", input: "a ! b", offset: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			var lexErr *Error
			if !errors.As(err, &lexErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if lexErr.Offset != tt.offset {
				t.Errorf("expected offset %d, got %d", tt.offset, lexErr.Offset)
			}
		})
	}
}

func TestContextualKeyword(t *testing.T) {
	tests := []struct {
		name  string
		input string
		index int
		kind  Kind
	}{
		{name: "after insert", input: "INSERT em produtos VALUES (1)", index: 1, kind: INTO},
		{name: "after join with alias", input: "SELECT * FROM usuarios u JOIN posts p em u.id = p.usuario_id", index: 8, kind: ON},
		{name: "after join without alias", input: "SELECT * FROM usuarios JOIN posts em usuarios.id = posts.usuario_id", index: 6, kind: ON},
		{name: "default is into", input: "em", index: 0, kind: INTO},
		{name: "join outside window", input: "JOIN a b c em", index: 4, kind: INTO},
		{name: "insert beats join", input: "INSERT JOIN em", index: 2, kind: INTO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tok := tokens[tt.index]
			if tok.Text != "em" {
				t.Fatalf("token %d is %q, not em", tt.index, tok.Text)
			}
			if tok.Kind != tt.kind {
				t.Errorf("expected %s, got %s", tt.kind, tok.Kind)
			}
		})
	}
}

func TestHistoryIsBounded(t *testing.T) {
	l := New(strings.Repeat("a ", 50))
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(l.history) > historySize {
			t.Fatalf("history grew to %d tokens", len(l.history))
		}
		if tok.Kind == EOF {
			break
		}
	}
}

func TestResetRestartsScan(t *testing.T) {
	l := New("SELECT 1")
	first, _ := l.Next()
	l.Next()
	l.Reset()
	again, _ := l.Next()
	if first != again {
		t.Errorf("expected %v after reset, got %v", first, again)
	}
}

// Tokenizing and re-joining token texts reproduces the statement modulo
// whitespace and case.
func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"SELECT u.nome, p.titulo FROM usuarios u LEFT JOIN posts p ON u.id = p.usuario_id",
		"INSERT INTO produtos (id, nome, preco) VALUES (1, 'Mouse', 50)",
		"CREATE TABLE t (id: numero PRIMARY KEY, nome: texto(10) NOT NULL)",
		"UPDATE t SET preco = preco * 2 WHERE id >= 3",
	}

	for _, input := range inputs {
		tokens, err := Tokenize(input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parts []string
		for _, tok := range tokens {
			if tok.Kind.IsKeyword() && LookupKeyword(tok.Text, nil) != tok.Kind {
				t.Errorf("keyword token %q has kind %s", tok.Text, tok.Kind)
			}
			if tok.Kind == IDENTIFIER && LookupKeyword(tok.Text, nil).IsKeyword() {
				t.Errorf("reserved word %q lexed as identifier", tok.Text)
			}
			switch tok.Kind {
			case EOF:
			case STRING:
				parts = append(parts, "'"+tok.Text+"'")
			default:
				parts = append(parts, tok.Text)
			}
		}

		normalize := func(s string) string {
			return strings.Join(strings.Fields(strings.ToLower(s)), "")
		}
		if got := normalize(strings.Join(parts, " ")); got != normalize(input) {
			t.Errorf("round trip mismatch:\n  input: %s\n  got:   %s", normalize(input), got)
		}
	}
}
