package lexer

import (
	"fmt"
	"strconv"
	"strings"
)

// historySize bounds the trailing window of emitted tokens
const historySize = 10

// Error is a lexical error at a byte offset of the input
type Error struct {
	Offset int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lexical error at offset %d: %s", e.Offset, e.Msg)
}

// Lexer converts raw text into tokens
type Lexer struct {
	input   string
	pos     int
	history []Token
}

// New creates a lexer positioned at the start of input
func New(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize scans the whole input. The result always ends with an EOF token.
func Tokenize(input string) ([]Token, error) {
	l := New(input)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

// Reset rewinds the lexer so the input can be scanned again
func (l *Lexer) Reset() {
	l.pos = 0
	l.history = l.history[:0]
}

// Next returns the next token
func (l *Lexer) Next() (Token, error) {
	tok, err := l.scan()
	if err != nil {
		return Token{}, err
	}
	l.remember(tok)
	return tok, nil
}

func (l *Lexer) remember(tok Token) {
	l.history = append(l.history, tok)
	if len(l.history) > historySize {
		l.history = l.history[len(l.history)-historySize:]
	}
}

func (l *Lexer) scan() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Kind: EOF, Offset: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	switch {
	case ch == '\'' || ch == '"':
		return l.readString(start)
	case isDigit(ch):
		return l.readNumber(start), nil
	case isIdentStart(ch):
		return l.readIdentifier(start), nil
	}

	if l.pos+1 < len(l.input) {
		switch l.input[l.pos : l.pos+2] {
		case "!=", "<>":
			l.pos += 2
			return Token{Kind: NEQ, Text: "!=", Offset: start}, nil
		case "<=":
			l.pos += 2
			return Token{Kind: LTE, Text: "<=", Offset: start}, nil
		case ">=":
			l.pos += 2
			return Token{Kind: GTE, Text: ">=", Offset: start}, nil
		}
	}

	var kind Kind
	switch ch {
	case '=':
		kind = EQ
	case '<':
		kind = LT
	case '>':
		kind = GT
	case '+':
		kind = PLUS
	case '-':
		kind = MINUS
	case '*':
		kind = ASTERISK
	case '/':
		kind = SLASH
	case ',':
		kind = COMMA
	case ';':
		kind = SEMICOLON
	case '(':
		kind = LPAREN
	case ')':
		kind = RPAREN
	case '.':
		kind = DOT
	case ':':
		kind = COLON
	default:
		return Token{}, &Error{Offset: start, Msg: fmt.Sprintf("unexpected character %q", ch)}
	}

	l.pos++
	return Token{Kind: kind, Text: string(ch), Offset: start}, nil
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) readString(start int) (Token, error) {
	quote := l.input[l.pos]
	l.pos++ // Skip opening quote

	var b strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == quote:
			l.pos++
			return Token{Kind: STRING, Text: b.String(), Offset: start}, nil
		case ch == '\\' && l.pos+1 < len(l.input):
			l.pos++
			b.WriteByte(unescape(l.input[l.pos]))
		default:
			b.WriteByte(ch)
		}
		l.pos++
	}

	return Token{}, &Error{Offset: start, Msg: "unterminated string"}
}

func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		// \\, \", \' and unknown escapes yield the character itself
		return ch
	}
}

func (l *Lexer) readNumber(start int) Token {
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos+1 < len(l.input) && l.input[l.pos] == '.' && isDigit(l.input[l.pos+1]) {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}

	text := l.input[start:l.pos]
	n, _ := strconv.ParseFloat(text, 64)
	return Token{Kind: NUMBER, Text: text, Number: n, Offset: start}
}

func (l *Lexer) readIdentifier(start int) Token {
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}

	text := strings.ToLower(l.input[start:l.pos])
	return Token{Kind: LookupKeyword(text, l.history), Text: text, Offset: start}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
