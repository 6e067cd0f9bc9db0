package parser

import (
	"github.com/koba/emql/internal/ast"
	"github.com/koba/emql/internal/lexer"
)

// directionWords are the identifiers accepted after an ORDER BY term, besides
// the ASC and DESC keywords. Any other identifier is consumed as ascending.
var directionWords = map[string]bool{
	"asc":         false,
	"ascendente":  false,
	"crescente":   false,
	"desc":        true,
	"descendente": true,
	"decrescente": true,
}

func (p *Parser) parseSelect() (*ast.SelectStatement, error) {
	if _, err := p.expect(lexer.SELECT); err != nil {
		return nil, err
	}

	stmt := &ast.SelectStatement{}

	// Select list
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, item)
		if !p.accept(lexer.COMMA) {
			break
		}
	}

	// FROM
	if _, err := p.expect(lexer.FROM); err != nil {
		return nil, err
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	alias, err := p.parseAlias()
	if err != nil {
		return nil, err
	}
	stmt.From = ast.FromClause{Table: table, Alias: alias}

	// Joins
	for {
		join, ok, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		stmt.Joins = append(stmt.Joins, join)
	}

	if stmt.Where, err = p.parseWhere(); err != nil {
		return nil, err
	}

	if p.accept(lexer.GROUP) {
		if _, err := p.expect(lexer.BY); err != nil {
			return nil, err
		}
		group := &ast.GroupByClause{}
		for {
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			group.Exprs = append(group.Exprs, expr)
			if !p.accept(lexer.COMMA) {
				break
			}
		}
		stmt.GroupBy = group
	}

	if p.accept(lexer.ORDER) {
		if _, err := p.expect(lexer.BY); err != nil {
			return nil, err
		}
		order := &ast.OrderByClause{}
		for {
			term, err := p.parseOrderTerm()
			if err != nil {
				return nil, err
			}
			order.Terms = append(order.Terms, term)
			if !p.accept(lexer.COMMA) {
				break
			}
		}
		stmt.OrderBy = order
	}

	return stmt, nil
}

func (p *Parser) parseSelectItem() (ast.SelectItem, error) {
	if p.accept(lexer.ASTERISK) {
		return ast.SelectItem{Expr: &ast.AllColumns{}}, nil
	}

	// table.*
	if p.peek().Kind == lexer.IDENTIFIER && p.peekAt(1).Kind == lexer.DOT && p.peekAt(2).Kind == lexer.ASTERISK {
		table := p.next().Text
		p.next()
		p.next()
		return ast.SelectItem{Expr: &ast.AllColumns{Table: table}}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return ast.SelectItem{}, err
	}
	alias, err := p.parseAlias()
	if err != nil {
		return ast.SelectItem{}, err
	}
	return ast.SelectItem{Expr: expr, Alias: alias}, nil
}

// parseAlias parses an optional `[AS] identifier`. Clause keywords have their
// own kinds, so a bare identifier here is always an alias.
func (p *Parser) parseAlias() (string, error) {
	if p.accept(lexer.AS) {
		return p.expectIdentifier()
	}
	if p.peek().Kind == lexer.IDENTIFIER {
		return p.next().Text, nil
	}
	return "", nil
}

// parseJoin parses one join clause; ok is false when none follows
func (p *Parser) parseJoin() (join ast.JoinClause, ok bool, err error) {
	switch p.peek().Kind {
	case lexer.JOIN:
		join.Type = ast.InnerJoin
	case lexer.INNER:
		p.next()
		join.Type = ast.InnerJoin
	case lexer.LEFT:
		p.next()
		join.Type = ast.LeftJoin
	case lexer.RIGHT:
		p.next()
		join.Type = ast.RightJoin
	default:
		return join, false, nil
	}

	if _, err := p.expect(lexer.JOIN); err != nil {
		return join, false, err
	}
	if join.Table, err = p.expectIdentifier(); err != nil {
		return join, false, err
	}
	if join.Alias, err = p.parseAlias(); err != nil {
		return join, false, err
	}
	if err := p.expectContextual(lexer.ON); err != nil {
		return join, false, err
	}
	if join.On, err = p.parseExpression(); err != nil {
		return join, false, err
	}
	return join, true, nil
}

func (p *Parser) parseOrderTerm() (ast.OrderTerm, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return ast.OrderTerm{}, err
	}

	term := ast.OrderTerm{Expr: expr}
	switch tok := p.peek(); tok.Kind {
	case lexer.ASC:
		p.next()
	case lexer.DESC:
		p.next()
		term.Descending = true
	case lexer.IDENTIFIER:
		p.next()
		term.Descending = directionWords[tok.Text]
	}
	return term, nil
}
