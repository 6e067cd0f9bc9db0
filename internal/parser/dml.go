package parser

import (
	"github.com/koba/emql/internal/ast"
	"github.com/koba/emql/internal/lexer"
)

// parseInsert parses INSERT INTO|em table [(columns)] VALUES (expr, ...)
func (p *Parser) parseInsert() (*ast.InsertStatement, error) {
	if _, err := p.expect(lexer.INSERT); err != nil {
		return nil, err
	}
	if err := p.expectContextual(lexer.INTO); err != nil {
		return nil, err
	}

	table, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	stmt := &ast.InsertStatement{Table: table}

	if p.peek().Kind == lexer.LPAREN {
		if stmt.Columns, err = p.parseIdentifierList(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.VALUES); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	for {
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Values = append(stmt.Values, value)
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}

	return stmt, nil
}

// parseUpdate parses UPDATE table SET column = expr, ... [WHERE expr]
func (p *Parser) parseUpdate() (*ast.UpdateStatement, error) {
	if _, err := p.expect(lexer.UPDATE); err != nil {
		return nil, err
	}

	table, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	stmt := &ast.UpdateStatement{Table: table}

	if _, err := p.expect(lexer.SET); err != nil {
		return nil, err
	}
	for {
		column, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.EQ); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, ast.Assignment{Column: column, Value: value})
		if !p.accept(lexer.COMMA) {
			break
		}
	}

	if stmt.Where, err = p.parseWhere(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseDelete parses DELETE FROM table [WHERE expr]
func (p *Parser) parseDelete() (*ast.DeleteStatement, error) {
	if _, err := p.expect(lexer.DELETE); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.FROM); err != nil {
		return nil, err
	}

	table, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	stmt := &ast.DeleteStatement{Table: table}

	if stmt.Where, err = p.parseWhere(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseUse parses USE name
func (p *Parser) parseUse() (*ast.UseDatabaseStatement, error) {
	if _, err := p.expect(lexer.USE); err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	return &ast.UseDatabaseStatement{Name: name}, nil
}

func (p *Parser) parseWhere() (*ast.WhereClause, error) {
	if !p.accept(lexer.WHERE) {
		return nil, nil
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.WhereClause{Condition: cond}, nil
}
