// Package lexer implements the tokenizer for the emql dialect.
//
// The lexer converts raw text into a slice of typed tokens ending in EOF.
// Identifiers and keywords are lower-cased so keyword matching is
// case-insensitive; string literal contents keep their case.
//
// # Usage
//
//	tokens, err := lexer.Tokenize(`SELECT nome FROM produtos WHERE preco > 10`)
//	if err != nil {
//	    return err
//	}
//	for _, tok := range tokens {
//	    fmt.Println(tok.Kind, tok.Text)
//	}
//
// # Contextual keywords
//
// The word "em" introduces either an INSERT target ("insert em produtos ...")
// or a join condition ("join posts p em u.id = p.usuario_id"). The lexer keeps
// the last ten tokens it emitted and resolves "em" from the three most recent:
// INSERT gives INTO, JOIN gives ON, anything else gives INTO. Token.Text stays
// "em" so the parser can also resolve it from grammar context.
package lexer
