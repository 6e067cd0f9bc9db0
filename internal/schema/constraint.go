package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ConstraintKind identifies a column or table constraint
type ConstraintKind string

const (
	PrimaryKey           ConstraintKind = "PRIMARY_KEY"
	Unique               ConstraintKind = "UNIQUE"
	NotNull              ConstraintKind = "NOT_NULL"
	AutoIncrement        ConstraintKind = "AUTO_INCREMENT"
	Default              ConstraintKind = "DEFAULT"
	ForeignKeyConstraint ConstraintKind = "FOREIGN_KEY"
)

// ColumnConstraint is one column-level constraint. Default holds the literal
// source text of a DEFAULT value, e.g. `10`, `"abc"` or `null`.
type ColumnConstraint struct {
	Kind    ConstraintKind
	Default string
}

func (c ColumnConstraint) String() string {
	if c.Kind == Default {
		return string(Default) + ":" + c.Default
	}
	return string(c.Kind)
}

// EncodeConstraints serializes constraints as comma-joined tokens
func EncodeConstraints(cs []ColumnConstraint) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// DecodeConstraints parses the output of EncodeConstraints. Commas inside a
// quoted DEFAULT literal do not split tokens.
func DecodeConstraints(s string) ([]ColumnConstraint, error) {
	var cs []ColumnConstraint
	for _, tok := range splitTokens(s) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if lit, ok := strings.CutPrefix(tok, string(Default)+":"); ok {
			cs = append(cs, ColumnConstraint{Kind: Default, Default: lit})
			continue
		}
		switch kind := ConstraintKind(tok); kind {
		case PrimaryKey, Unique, NotNull, AutoIncrement:
			cs = append(cs, ColumnConstraint{Kind: kind})
		default:
			return nil, fmt.Errorf("unknown constraint token %q", tok)
		}
	}
	return cs, nil
}

func splitTokens(s string) []string {
	var (
		parts []string
		cur   strings.Builder
		quote byte
	)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(ch)
			if ch == '\\' && i+1 < len(s) {
				i++
				cur.WriteByte(s[i])
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
			cur.WriteByte(ch)
		case ch == ',':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	return append(parts, cur.String())
}

// ParseDefault converts a DEFAULT literal into a value of the column type
func ParseDefault(lit string, t DataType) (interface{}, error) {
	lit = strings.TrimSpace(lit)
	if isNullWord(lit) {
		return nil, nil
	}

	text := lit
	if len(lit) >= 2 && (lit[0] == '"' || lit[0] == '\'') && lit[len(lit)-1] == lit[0] {
		unquoted, err := UnquoteString(lit)
		if err != nil {
			return nil, err
		}
		text = unquoted
	}

	var value interface{}
	switch t.Base {
	case TypeNumber:
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s default %s", t, lit)
		}
		value = n
	case TypeBoolean:
		switch strings.ToLower(text) {
		case "true", "verdadeiro", "1":
			value = true
		case "false", "falso", "0":
			value = false
		default:
			return nil, fmt.Errorf("invalid %s default %s", t, lit)
		}
	default:
		value = text
	}

	if err := t.Check(value); err != nil {
		return nil, fmt.Errorf("invalid default %s: %w", lit, err)
	}
	return value, nil
}

func isNullWord(s string) bool {
	switch strings.ToLower(s) {
	case "null", "nulo":
		return true
	}
	return false
}

// QuoteString renders s as a double-quoted dialect string literal
func QuoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// UnquoteString reverses QuoteString; single-quoted literals are accepted too
func UnquoteString(lit string) (string, error) {
	if len(lit) < 2 || (lit[0] != '"' && lit[0] != '\'') || lit[len(lit)-1] != lit[0] {
		return "", fmt.Errorf("not a string literal: %s", lit)
	}

	var b strings.Builder
	body := lit[1 : len(lit)-1]
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' || i+1 == len(body) {
			b.WriteByte(ch)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String(), nil
}

// FormatLiteral renders a runtime value as a dialect literal
func FormatLiteral(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return QuoteString(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return QuoteString(fmt.Sprintf("%v", v))
	}
}

type columnJSON struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Constraints string `json:"constraints"`
	Position    int    `json:"position"`
}

// MarshalJSON stores the type as text and the constraints as comma-joined tokens
func (c Column) MarshalJSON() ([]byte, error) {
	return json.Marshal(columnJSON{
		Name:        c.Name,
		Type:        c.Type.String(),
		Constraints: EncodeConstraints(c.Constraints),
		Position:    c.Position,
	})
}

// UnmarshalJSON reverses MarshalJSON
func (c *Column) UnmarshalJSON(data []byte) error {
	var raw columnJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t, err := ParseDataType(raw.Type)
	if err != nil {
		return fmt.Errorf("column %s: %w", raw.Name, err)
	}
	cs, err := DecodeConstraints(raw.Constraints)
	if err != nil {
		return fmt.Errorf("column %s: %w", raw.Name, err)
	}

	*c = Column{Name: raw.Name, Type: t, Constraints: cs, Position: raw.Position}
	return nil
}
