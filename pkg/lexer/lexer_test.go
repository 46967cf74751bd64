package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tokenTypes(toks []Token) []TokenType {
	types := make([]TokenType, len(toks))
	for i, t := range toks {
		types[i] = t.Type
	}
	return types
}

func TestNumberLiterals(t *testing.T) {
	toks := New("10 3.14 0x1F 0b101 0c17 1_000_000 1e10 1.5e-3").Tokenize()
	for i := 0; i < 8; i++ {
		require.Equal(t, TokenNumber, toks[i].Type, "token %d: %q", i, toks[i].Lexeme)
	}
}

func TestNumberLiteralAdjacentUnderscoreIsError(t *testing.T) {
	tok := New("1__000").NextToken()
	require.Equal(t, TokenError, tok.Type)
}

func TestStringEscapes(t *testing.T) {
	tok := New(`"a\nb\tc\x41"`).NextToken()
	require.Equal(t, TokenString, tok.Type)
	require.Equal(t, "a\nb\tcA", tok.Lexeme)
}

func TestStringInterpolation(t *testing.T) {
	toks := New(`"x = {1 + 2}!"`).Tokenize()
	require.Equal(t, []TokenType{TokenInterpolation, TokenNumber, TokenPlus, TokenNumber, TokenString, TokenEOF}, tokenTypes(toks))
	require.Equal(t, "x = ", toks[0].Lexeme)
	require.Equal(t, "!", toks[4].Lexeme)
}

func TestRawStringIgnoresEscapes(t *testing.T) {
	tok := New(`r"a\nb"`).NextToken()
	require.Equal(t, TokenString, tok.Type)
	require.Equal(t, `a\nb`, tok.Lexeme)
}

func TestComments(t *testing.T) {
	toks := New("1 // comment\n2 /* block /* nested */ still */ 3").Tokenize()
	require.Equal(t, []TokenType{TokenNumber, TokenNumber, TokenNumber, TokenEOF}, tokenTypes(toks))
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks := New("var x = function class").Tokenize()
	require.Equal(t, []TokenType{TokenVar, TokenName, TokenEqual, TokenFunction, TokenClass, TokenEOF}, tokenTypes(toks))
}

func TestShebangAndBOM(t *testing.T) {
	toks := New("\xEF\xBB\xBF#!/usr/bin/env tea\nvar x").Tokenize()
	require.Equal(t, []TokenType{TokenVar, TokenName, TokenEOF}, tokenTypes(toks))
}

// TestTokenRoundTrip is testable property 10: lexing then re-slicing tokens
// by their lexemes reproduces the source modulo whitespace/comments.
func TestTokenRoundTrip(t *testing.T) {
	src := "var x = 1 + 2 * 3"
	toks := New(src).Tokenize()
	var rebuilt string
	for _, tok := range toks {
		if tok.Type == TokenEOF {
			break
		}
		if rebuilt != "" {
			rebuilt += " "
		}
		rebuilt += tok.Lexeme
	}
	require.Equal(t, src, rebuilt)
}
