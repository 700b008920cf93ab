package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gopherdb/notionsql/internal/nerr"
	"github.com/gopherdb/notionsql/lexer"
)

func tokens(t *testing.T, src string) []lexer.Token {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	return toks
}

func TestLexKeywordsCaseInsensitive(t *testing.T) {
	toks := tokens(t, "select * from widgets")
	require.Equal(t, lexer.KEYWORD, toks[0].Kind)
	require.Equal(t, "SELECT", toks[0].Lexeme)
	require.Equal(t, lexer.SYMBOL, toks[1].Kind)
	require.Equal(t, "*", toks[1].Lexeme)
	require.Equal(t, lexer.KEYWORD, toks[2].Kind)
	require.Equal(t, "FROM", toks[2].Lexeme)
	require.Equal(t, lexer.IDENTIFIER, toks[3].Kind)
	require.Equal(t, "widgets", toks[3].Lexeme)
	require.Equal(t, lexer.EOF, toks[4].Kind)
}

func TestLexIdentifierPreservesCase(t *testing.T) {
	toks := tokens(t, "SeLeCt Some_Col")
	require.Equal(t, "SELECT", toks[0].Lexeme)
	require.Equal(t, lexer.IDENTIFIER, toks[1].Kind)
	require.Equal(t, "Some_Col", toks[1].Lexeme)
}

func TestLexTitleVarcharKeyword(t *testing.T) {
	toks := tokens(t, "title_varchar(255)")
	require.Equal(t, lexer.KEYWORD, toks[0].Kind)
	require.Equal(t, "TITLE_VARCHAR", toks[0].Lexeme)
	require.Equal(t, "(", toks[1].Lexeme)
	require.Equal(t, lexer.NUMBER, toks[2].Kind)
	require.Equal(t, "255", toks[2].Lexeme)
	require.Equal(t, ")", toks[3].Lexeme)
}

func TestLexComparisonOperators(t *testing.T) {
	toks := tokens(t, "= != < <= > >=")
	want := []string{"=", "!=", "<", "<=", ">", ">="}
	for i, w := range want {
		require.Equal(t, lexer.SYMBOL, toks[i].Kind)
		require.Equal(t, w, toks[i].Lexeme)
	}
}

func TestLexStringLiteralWithEscapes(t *testing.T) {
	toks := tokens(t, `'it''s a \ttab'`)
	require.Equal(t, lexer.STRING, toks[0].Kind)
	require.Equal(t, "it's a \ttab", toks[0].Lexeme)
}

func TestLexUnterminatedStringIsSyntaxError(t *testing.T) {
	_, err := lexer.Lex("'unterminated")
	require.Error(t, err)
	require.True(t, errorsIsSyntax(err))
}

func TestLexUnexpectedCharacterIsSyntaxError(t *testing.T) {
	_, err := lexer.Lex("select # from widgets")
	require.Error(t, err)
	require.True(t, errorsIsSyntax(err))
}

func TestLexNamedParameter(t *testing.T) {
	toks := tokens(t, "WHERE id = :wid")
	require.Equal(t, lexer.SYMBOL, toks[3].Kind)
	require.Equal(t, ":", toks[3].Lexeme)
	require.Equal(t, lexer.IDENTIFIER, toks[4].Kind)
	require.Equal(t, "wid", toks[4].Lexeme)
}

func TestLexDecimalNumber(t *testing.T) {
	toks := tokens(t, "19.99")
	require.Equal(t, lexer.NUMBER, toks[0].Kind)
	require.Equal(t, "19.99", toks[0].Lexeme)
}

func TestLexSequenceTerminatesWithEOF(t *testing.T) {
	toks := tokens(t, "")
	require.Len(t, toks, 1)
	require.Equal(t, lexer.EOF, toks[0].Kind)
}

func errorsIsSyntax(err error) bool {
	var e *nerr.Error
	if x, ok := err.(*nerr.Error); ok {
		e = x
	} else {
		return false
	}
	return e.Kind == nerr.KindSyntax
}
