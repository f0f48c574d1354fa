package parser

import (
	"testing"

	"github.com/leapstack-labs/leaplineage/pkg/dialects/postgres"
	"github.com/leapstack-labs/leaplineage/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(toks []token.Token) []token.TokenType {
	types := make([]token.TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestTokenize(t *testing.T) {
	toks := Tokenize("SELECT a.b, 'it''s', 1.5e3 -- comment\nFROM /* block */ t WHERE x <> 2 || y", nil)

	assert.Equal(t, []token.TokenType{
		token.SELECT, token.IDENT, token.DOT, token.IDENT, token.COMMA,
		token.STRING, token.COMMA, token.NUMBER,
		token.FROM, token.IDENT, token.WHERE, token.IDENT, token.NE, token.NUMBER, token.DPIPE, token.IDENT,
		token.EOF,
	}, tokenTypes(toks))

	assert.Equal(t, "it's", toks[5].Literal)
	assert.Equal(t, "1.5e3", toks[7].Literal)
	assert.Equal(t, 2, toks[8].Pos.Line)
}

func TestTokenizeQuotedIdentifier(t *testing.T) {
	toks := Tokenize(`SELECT "Order ""Id"""`, nil)
	require.Len(t, toks, 3)
	assert.Equal(t, token.IDENT, toks[1].Type)
	assert.Equal(t, `Order "Id"`, toks[1].Literal)
}

func TestTokenizeDialectSymbols(t *testing.T) {
	toks := Tokenize("x::int ILIKE y", postgres.Postgres)
	assert.Equal(t, []token.TokenType{
		token.IDENT, token.DCOLON, token.IDENT, token.ILIKE, token.IDENT, token.EOF,
	}, tokenTypes(toks))

	// Without a dialect ILIKE is a plain identifier
	toks = Tokenize("ILIKE", nil)
	assert.Equal(t, token.IDENT, toks[0].Type)
}

func TestLexerUnterminatedString(t *testing.T) {
	l := NewLexer("'abc", nil)
	tok := l.NextToken()
	assert.Equal(t, token.STRING, tok.Type)
	require.Len(t, l.Errors(), 1)
	assert.Contains(t, l.Errors()[0].Error(), ErrUnterminatedString)
}
