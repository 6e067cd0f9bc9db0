package executor

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/koba/emql/internal/ast"
	"github.com/koba/emql/internal/schema"
)

// evaluate computes expr against r
func evaluate(expr ast.Expression, r row) (interface{}, error) {
	switch x := expr.(type) {
	case *ast.Literal:
		return x.Value, nil
	case *ast.Identifier:
		value, ok := r.get(x.Table, x.Name)
		if !ok {
			return nil, errorf(MissingColumn, "unknown column %s", x)
		}
		return value, nil
	case *ast.UnaryExpression:
		return evaluateUnary(x, r)
	case *ast.BinaryExpression:
		return evaluateBinary(x, r)
	case *ast.AllColumns:
		return nil, errorf(UnsupportedOperator, "%s is only allowed in the select list", x)
	default:
		return nil, errorf(UnsupportedOperator, "unsupported expression %T", expr)
	}
}

func evaluateUnary(x *ast.UnaryExpression, r row) (interface{}, error) {
	operand, err := evaluate(x.Operand, r)
	if err != nil {
		return nil, err
	}
	if x.Operator != ast.OpSub {
		return nil, errorf(UnsupportedOperator, "unsupported unary operator %s", x.Operator)
	}

	switch v := operand.(type) {
	case nil:
		return nil, nil
	case float64:
		return -v, nil
	default:
		return nil, errorf(TypeMismatch, "cannot negate %s", schema.TypeOf(operand))
	}
}

func evaluateBinary(x *ast.BinaryExpression, r row) (interface{}, error) {
	// Both operands are always evaluated, AND and OR included
	left, err := evaluate(x.Left, r)
	if err != nil {
		return nil, err
	}
	right, err := evaluate(x.Right, r)
	if err != nil {
		return nil, err
	}

	switch x.Operator {
	case ast.OpAnd:
		return truthy(left) && truthy(right), nil
	case ast.OpOr:
		return truthy(left) || truthy(right), nil
	case ast.OpEq:
		return looseEqual(left, right), nil
	case ast.OpNeq:
		return !looseEqual(left, right), nil
	case ast.OpLt, ast.OpGt, ast.OpLte, ast.OpGte:
		return compareOp(x.Operator, left, right), nil
	case ast.OpLike:
		return like(left, right)
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		return arithmetic(x.Operator, left, right)
	default:
		return nil, errorf(UnsupportedOperator, "unsupported operator %s", x.Operator)
	}
}

// truthy follows the dialect's loose truth rules: null, false, 0, NaN and ""
// are false
func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}

// toNumber coerces numbers, booleans and numeric strings
func toNumber(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// looseEqual compares values of the untyped literal model: values of the same
// type compare directly, mixed types compare numerically, null only equals null
func looseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return x == y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x == y
		}
	case bool:
		if y, ok := b.(bool); ok {
			return x == y
		}
	}

	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	return aok && bok && an == bn
}

// compareOp applies a relational operator; null or incomparable operands
// yield false
func compareOp(op string, a, b interface{}) bool {
	c, ok := compareLoose(a, b)
	if !ok {
		return false
	}

	switch op {
	case ast.OpLt:
		return c < 0
	case ast.OpGt:
		return c > 0
	case ast.OpLte:
		return c <= 0
	default:
		return c >= 0
	}
}

func compareLoose(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}

	if x, ok := a.(string); ok {
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
	}

	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if !aok || !bok {
		return 0, false
	}
	return compareFloat(an, bn), true
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// orderValues is the total order ORDER BY sorts with: null first, then
// numbers, then text, then booleans with false before true
func orderValues(a, b interface{}) int {
	ra, rb := orderRank(a), orderRank(b)
	if ra != rb {
		return ra - rb
	}

	switch x := a.(type) {
	case float64:
		return compareFloat(x, b.(float64))
	case string:
		return strings.Compare(x, b.(string))
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	default:
		return 0
	}
}

func orderRank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case float64:
		return 1
	case string:
		return 2
	case bool:
		return 3
	default:
		return 4
	}
}

func arithmetic(op string, a, b interface{}) (interface{}, error) {
	if a == nil || b == nil {
		return nil, nil
	}

	// Text concatenation
	if op == ast.OpAdd {
		if x, ok := a.(string); ok {
			if y, ok := b.(string); ok {
				return x + y, nil
			}
		}
	}

	x, xok := a.(float64)
	y, yok := b.(float64)
	if !xok || !yok {
		return nil, errorf(TypeMismatch, "operator %s expects %s operands, got %s and %s",
			op, schema.TypeNumber, schema.TypeOf(a), schema.TypeOf(b))
	}

	switch op {
	case ast.OpAdd:
		return x + y, nil
	case ast.OpSub:
		return x - y, nil
	case ast.OpMul:
		return x * y, nil
	default:
		if y == 0 {
			return nil, errorf(TypeMismatch, "division by zero")
		}
		return x / y, nil
	}
}

var likeCache sync.Map

// likePattern compiles a LIKE pattern: '%' matches any run, '_' any single
// character, matching is anchored and case-insensitive
func likePattern(pattern string) *regexp.Regexp {
	if re, ok := likeCache.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}

	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re := regexp.MustCompile(b.String())
	likeCache.Store(pattern, re)
	return re
}

func like(value, pattern interface{}) (interface{}, error) {
	if value == nil || pattern == nil {
		return false, nil
	}

	p, ok := pattern.(string)
	if !ok {
		return nil, errorf(TypeMismatch, "LIKE pattern must be %s, got %s", schema.TypeText, schema.TypeOf(pattern))
	}

	return likePattern(p).MatchString(textOf(value)), nil
}

// textOf renders a value the way it is matched by LIKE
func textOf(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return schema.FormatLiteral(v)
}
