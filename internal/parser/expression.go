package parser

import (
	"github.com/koba/emql/internal/ast"
	"github.com/koba/emql/internal/lexer"
)

var comparators = map[lexer.Kind]string{
	lexer.EQ:   ast.OpEq,
	lexer.NEQ:  ast.OpNeq,
	lexer.LT:   ast.OpLt,
	lexer.GT:   ast.OpGt,
	lexer.LTE:  ast.OpLte,
	lexer.GTE:  ast.OpGte,
	lexer.LIKE: ast.OpLike,
}

// parseExpression parses an OR expression, the lowest precedence level
func (p *Parser) parseExpression() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.accept(lexer.OR) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: ast.OpOr, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	for p.accept(lexer.AND) {
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: ast.OpAnd, Right: right}
	}
	return left, nil
}

// parseComparison allows at most one comparator, so a < b < c does not parse
func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	op, ok := comparators[p.peek().Kind]
	if !ok {
		return left, nil
	}
	p.next()

	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpression{Left: left, Operator: op, Right: right}, nil
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		var op string
		switch p.peek().Kind {
		case lexer.PLUS:
			op = ast.OpAdd
		case lexer.MINUS:
			op = ast.OpSub
		default:
			return left, nil
		}
		p.next()

		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right}
	}
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		var op string
		switch p.peek().Kind {
		case lexer.ASTERISK:
			op = ast.OpMul
		case lexer.SLASH:
			op = ast.OpDiv
		default:
			return left, nil
		}
		p.next()

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right}
	}
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	if !p.accept(lexer.MINUS) {
		return p.parsePrimary()
	}

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	// Fold negative number literals so DEFAULT -1 stays a literal
	if lit, ok := operand.(*ast.Literal); ok {
		if n, ok := lit.Value.(float64); ok {
			return &ast.Literal{Value: -n}, nil
		}
	}
	return &ast.UnaryExpression{Operator: ast.OpSub, Operand: operand}, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.peek()

	switch tok.Kind {
	case lexer.NUMBER:
		p.next()
		return &ast.Literal{Value: tok.Number}, nil
	case lexer.STRING:
		p.next()
		return &ast.Literal{Value: tok.Text}, nil
	case lexer.TRUE:
		p.next()
		return &ast.Literal{Value: true}, nil
	case lexer.FALSE:
		p.next()
		return &ast.Literal{Value: false}, nil
	case lexer.NULL:
		p.next()
		return &ast.Literal{Value: nil}, nil
	case lexer.IDENTIFIER:
		p.next()
		if p.peek().Kind == lexer.DOT && p.peekAt(1).Kind == lexer.IDENTIFIER {
			p.next()
			column := p.next()
			return &ast.Identifier{Table: tok.Text, Name: column.Text}, nil
		}
		return &ast.Identifier{Name: tok.Text}, nil
	case lexer.LPAREN:
		p.next()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, p.errorf("expression")
	}
}
