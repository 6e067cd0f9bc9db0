package parser

import (
	"fmt"

	"github.com/koba/emql/internal/ast"
	"github.com/koba/emql/internal/lexer"
)

// SyntaxError reports an unmet expectation at a token
type SyntaxError struct {
	Offset   int
	Expected string
	Found    lexer.Token
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: expected %s, found %s", e.Offset, e.Expected, e.Found)
}

// Parser is a single-pass recursive-descent parser over a token slice
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// New creates a parser over tokens, appending EOF when it is missing
func New(tokens []lexer.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.EOF {
		offset := 0
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			offset = last.Offset + len(last.Text)
		}
		tokens = append(tokens, lexer.Token{Kind: lexer.EOF, Offset: offset})
	}
	return &Parser{tokens: tokens}
}

// Parse parses tokens into one statement, or an *ast.StatementList when
// several ';'-separated statements are present
func Parse(tokens []lexer.Token) (ast.Statement, error) {
	return New(tokens).Parse()
}

// ParseString tokenizes and parses text
func ParseString(text string) (ast.Statement, error) {
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// Parse parses every statement up to EOF
func (p *Parser) Parse() (ast.Statement, error) {
	var stmts []ast.Statement

	for {
		for p.accept(lexer.SEMICOLON) {
		}
		if p.peek().Kind == lexer.EOF {
			break
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		if !p.accept(lexer.SEMICOLON) && p.peek().Kind != lexer.EOF {
			return nil, p.errorf("';' or end of input")
		}
	}

	switch len(stmts) {
	case 0:
		return nil, p.errorf("statement")
	case 1:
		return stmts[0], nil
	default:
		return &ast.StatementList{Statements: stmts}, nil
	}
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.peek().Kind {
	case lexer.SELECT:
		return p.parseSelect()
	case lexer.INSERT:
		return p.parseInsert()
	case lexer.UPDATE:
		return p.parseUpdate()
	case lexer.DELETE:
		return p.parseDelete()
	case lexer.CREATE:
		return p.parseCreate()
	case lexer.USE:
		return p.parseUse()
	default:
		return nil, p.errorf("SELECT, INSERT, UPDATE, DELETE, CREATE or USE")
	}
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) next() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Kind != lexer.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) accept(kind lexer.Kind) bool {
	if p.peek().Kind == kind {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expect(kind lexer.Kind) (lexer.Token, error) {
	if p.peek().Kind != kind {
		return lexer.Token{}, p.errorf(kind.String())
	}
	return p.next(), nil
}

// expectContextual accepts kind or the contextual keyword "em", whichever of
// INTO and ON the lexer resolved it to
func (p *Parser) expectContextual(kind lexer.Kind) error {
	tok := p.peek()
	if tok.Kind == kind || isContextualEm(tok) {
		p.next()
		return nil
	}
	return p.errorf(kind.String())
}

func isContextualEm(tok lexer.Token) bool {
	return (tok.Kind == lexer.INTO || tok.Kind == lexer.ON) && tok.Text == "em"
}

func (p *Parser) expectIdentifier() (string, error) {
	tok, err := p.expect(lexer.IDENTIFIER)
	if err != nil {
		return "", err
	}
	return tok.Text, nil
}

// parseIdentifierList parses '(' ident (',' ident)* ')'
func (p *Parser) parseIdentifierList() ([]string, error) {
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}

	var names []string
	for {
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if !p.accept(lexer.COMMA) {
			break
		}
	}

	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return names, nil
}

func (p *Parser) errorf(expected string) *SyntaxError {
	tok := p.peek()
	return &SyntaxError{Offset: tok.Offset, Expected: expected, Found: tok}
}
