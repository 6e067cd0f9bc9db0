package lexer

import "fmt"

// Kind is the type of a lexical token
type Kind int

const (
	EOF Kind = iota

	// Literals
	IDENTIFIER
	NUMBER
	STRING

	// Keywords
	SELECT
	FROM
	WHERE
	INSERT
	INTO
	VALUES
	UPDATE
	SET
	DELETE
	CREATE
	TABLE
	DATABASE
	USE
	JOIN
	INNER
	LEFT
	RIGHT
	ON
	AS
	AND
	OR
	LIKE
	ORDER
	GROUP
	BY
	ASC
	DESC
	PRIMARY
	KEY
	FOREIGN
	REFERENCES
	UNIQUE
	NOT
	NULL
	AUTO
	INCREMENT
	AUTO_INCREMENT
	DEFAULT
	TRUE
	FALSE

	// Operators
	EQ  // =
	NEQ // != or <>
	LT  // <
	GT  // >
	LTE // <=
	GTE // >=
	PLUS
	MINUS
	ASTERISK
	SLASH

	// Punctuation
	COMMA
	SEMICOLON
	LPAREN
	RPAREN
	DOT
	COLON
)

var kindNames = map[Kind]string{
	EOF:            "EOF",
	IDENTIFIER:     "IDENTIFIER",
	NUMBER:         "NUMBER",
	STRING:         "STRING",
	SELECT:         "SELECT",
	FROM:           "FROM",
	WHERE:          "WHERE",
	INSERT:         "INSERT",
	INTO:           "INTO",
	VALUES:         "VALUES",
	UPDATE:         "UPDATE",
	SET:            "SET",
	DELETE:         "DELETE",
	CREATE:         "CREATE",
	TABLE:          "TABLE",
	DATABASE:       "DATABASE",
	USE:            "USE",
	JOIN:           "JOIN",
	INNER:          "INNER",
	LEFT:           "LEFT",
	RIGHT:          "RIGHT",
	ON:             "ON",
	AS:             "AS",
	AND:            "AND",
	OR:             "OR",
	LIKE:           "LIKE",
	ORDER:          "ORDER",
	GROUP:          "GROUP",
	BY:             "BY",
	ASC:            "ASC",
	DESC:           "DESC",
	PRIMARY:        "PRIMARY",
	KEY:            "KEY",
	FOREIGN:        "FOREIGN",
	REFERENCES:     "REFERENCES",
	UNIQUE:         "UNIQUE",
	NOT:            "NOT",
	NULL:           "NULL",
	AUTO:           "AUTO",
	INCREMENT:      "INCREMENT",
	AUTO_INCREMENT: "AUTO_INCREMENT",
	DEFAULT:        "DEFAULT",
	TRUE:           "TRUE",
	FALSE:          "FALSE",
	EQ:             "=",
	NEQ:            "!=",
	LT:             "<",
	GT:             ">",
	LTE:            "<=",
	GTE:            ">=",
	PLUS:           "+",
	MINUS:          "-",
	ASTERISK:       "*",
	SLASH:          "/",
	COMMA:          ",",
	SEMICOLON:      ";",
	LPAREN:         "(",
	RPAREN:         ")",
	DOT:            ".",
	COLON:          ":",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether k is a reserved word
func (k Kind) IsKeyword() bool {
	return k >= SELECT && k <= FALSE
}

// Token is a single lexical token. Text holds the lower-cased lexeme for
// identifiers, keywords and operators, and the decoded contents for strings.
type Token struct {
	Kind   Kind
	Text   string
	Number float64
	Offset int
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case STRING:
		return fmt.Sprintf("string %q", t.Text)
	case NUMBER, IDENTIFIER:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	default:
		return fmt.Sprintf("%q", t.Text)
	}
}

// keyword maps identifier text to a fixed kind or a resolver over the
// recently emitted tokens
type keyword struct {
	kind    Kind
	resolve func(history []Token) Kind
}

var keywords = map[string]keyword{
	"select":         {kind: SELECT},
	"from":           {kind: FROM},
	"where":          {kind: WHERE},
	"insert":         {kind: INSERT},
	"into":           {kind: INTO},
	"values":         {kind: VALUES},
	"update":         {kind: UPDATE},
	"set":            {kind: SET},
	"delete":         {kind: DELETE},
	"create":         {kind: CREATE},
	"table":          {kind: TABLE},
	"database":       {kind: DATABASE},
	"use":            {kind: USE},
	"join":           {kind: JOIN},
	"inner":          {kind: INNER},
	"left":           {kind: LEFT},
	"right":          {kind: RIGHT},
	"on":             {kind: ON},
	"em":             {resolve: resolveEm},
	"as":             {kind: AS},
	"and":            {kind: AND},
	"or":             {kind: OR},
	"like":           {kind: LIKE},
	"order":          {kind: ORDER},
	"group":          {kind: GROUP},
	"by":             {kind: BY},
	"asc":            {kind: ASC},
	"desc":           {kind: DESC},
	"primary":        {kind: PRIMARY},
	"key":            {kind: KEY},
	"foreign":        {kind: FOREIGN},
	"references":     {kind: REFERENCES},
	"unique":         {kind: UNIQUE},
	"not":            {kind: NOT},
	"null":           {kind: NULL},
	"nulo":           {kind: NULL},
	"auto":           {kind: AUTO},
	"increment":      {kind: INCREMENT},
	"auto_increment": {kind: AUTO_INCREMENT},
	"default":        {kind: DEFAULT},
	"true":           {kind: TRUE},
	"verdadeiro":     {kind: TRUE},
	"false":          {kind: FALSE},
	"falso":          {kind: FALSE},
}

// contextWindow is how many of the most recent tokens resolveEm inspects
const contextWindow = 3

// resolveEm decides between INTO and ON for the word "em". INSERT wins over
// JOIN when both are in the window.
func resolveEm(history []Token) Kind {
	recent := history
	if len(recent) > contextWindow {
		recent = recent[len(recent)-contextWindow:]
	}
	for _, t := range recent {
		if t.Kind == INSERT {
			return INTO
		}
	}
	for _, t := range recent {
		if t.Kind == JOIN {
			return ON
		}
	}
	return INTO
}

// LookupKeyword returns the kind for an identifier given the tokens emitted
// before it, or IDENTIFIER when text is not reserved
func LookupKeyword(text string, history []Token) Kind {
	kw, ok := keywords[text]
	if !ok {
		return IDENTIFIER
	}
	if kw.resolve != nil {
		return kw.resolve(history)
	}
	return kw.kind
}
