package parser

import (
	"fmt"

	"github.com/koba/emql/internal/ast"
	"github.com/koba/emql/internal/lexer"
	"github.com/koba/emql/internal/schema"
)

// parseCreate parses CREATE DATABASE name or CREATE TABLE name (...)
func (p *Parser) parseCreate() (ast.Statement, error) {
	if _, err := p.expect(lexer.CREATE); err != nil {
		return nil, err
	}

	if p.accept(lexer.DATABASE) {
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.CreateDatabaseStatement{Name: name}, nil
	}

	if !p.accept(lexer.TABLE) {
		return nil, p.errorf("TABLE or DATABASE")
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	stmt := &ast.CreateTableStatement{Table: name}

	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	for {
		switch p.peek().Kind {
		case lexer.PRIMARY, lexer.UNIQUE, lexer.FOREIGN:
			tc, err := p.parseTableConstraint()
			if err != nil {
				return nil, err
			}
			stmt.Constraints = append(stmt.Constraints, tc)
		default:
			col, err := p.parseColumnDefinition()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
		}
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}

	return stmt, nil
}

// parseColumnDefinition parses name ':' type ['(' size ')'] constraint*
func (p *Parser) parseColumnDefinition() (ast.ColumnDefinition, error) {
	var col ast.ColumnDefinition

	name, err := p.expectIdentifier()
	if err != nil {
		return col, err
	}
	col.Name = name

	if _, err := p.expect(lexer.COLON); err != nil {
		return col, err
	}
	if col.Type, err = p.parseDataType(); err != nil {
		return col, err
	}

	// Constraints in any order
	for {
		var cc ast.ColumnConstraint
		switch p.peek().Kind {
		case lexer.PRIMARY:
			p.next()
			if _, err := p.expect(lexer.KEY); err != nil {
				return col, err
			}
			cc.Kind = schema.PrimaryKey
		case lexer.UNIQUE:
			p.next()
			cc.Kind = schema.Unique
		case lexer.NOT:
			p.next()
			if _, err := p.expect(lexer.NULL); err != nil {
				return col, err
			}
			cc.Kind = schema.NotNull
		case lexer.AUTO:
			p.next()
			if _, err := p.expect(lexer.INCREMENT); err != nil {
				return col, err
			}
			cc.Kind = schema.AutoIncrement
		case lexer.AUTO_INCREMENT:
			p.next()
			cc.Kind = schema.AutoIncrement
		case lexer.DEFAULT:
			p.next()
			expr, err := p.parseAdditive()
			if err != nil {
				return col, err
			}
			cc.Kind = schema.Default
			cc.Default = expr
		default:
			return col, nil
		}
		col.Constraints = append(col.Constraints, cc)
	}
}

func (p *Parser) parseDataType() (schema.DataType, error) {
	tok := p.peek()
	if tok.Kind != lexer.IDENTIFIER {
		return schema.DataType{}, p.errorf("column type")
	}
	p.next()

	text := tok.Text
	if p.accept(lexer.LPAREN) {
		size, err := p.expect(lexer.NUMBER)
		if err != nil {
			return schema.DataType{}, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return schema.DataType{}, err
		}
		text = fmt.Sprintf("%s(%s)", text, size.Text)
	}

	dt, err := schema.ParseDataType(text)
	if err != nil {
		return schema.DataType{}, &SyntaxError{Offset: tok.Offset, Expected: "column type", Found: tok}
	}
	return dt, nil
}

// parseTableConstraint parses PRIMARY KEY (c), UNIQUE (c) or
// FOREIGN KEY (c) REFERENCES table (c)
func (p *Parser) parseTableConstraint() (ast.TableConstraint, error) {
	var tc ast.TableConstraint

	switch p.next().Kind {
	case lexer.PRIMARY:
		if _, err := p.expect(lexer.KEY); err != nil {
			return tc, err
		}
		tc.Kind = schema.PrimaryKey
	case lexer.UNIQUE:
		tc.Kind = schema.Unique
	case lexer.FOREIGN:
		if _, err := p.expect(lexer.KEY); err != nil {
			return tc, err
		}
		tc.Kind = schema.ForeignKeyConstraint
	}

	column, err := p.parseSingleColumn()
	if err != nil {
		return tc, err
	}
	tc.Column = column

	if tc.Kind != schema.ForeignKeyConstraint {
		return tc, nil
	}

	if _, err := p.expect(lexer.REFERENCES); err != nil {
		return tc, err
	}
	if tc.RefTable, err = p.expectIdentifier(); err != nil {
		return tc, err
	}
	if tc.RefColumn, err = p.parseSingleColumn(); err != nil {
		return tc, err
	}
	return tc, nil
}

// parseSingleColumn parses '(' identifier ')'
func (p *Parser) parseSingleColumn() (string, error) {
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return "", err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return "", err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return "", err
	}
	return name, nil
}
