package cparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMissingFileFails(t *testing.T) {
	_, err := Parse("/nonexistent/does-not-exist.c", Options{})
	require.Error(t, err)
}

func TestScanTokensIdentifiersAndPunctuation(t *testing.T) {
	tokens := scanTokens("int x = 1;")
	var spellings []string
	for _, tok := range tokens {
		spellings = append(spellings, tok.Spelling)
	}
	require.Equal(t, []string{"int", "x", "=", "1", ";"}, spellings)
}

func TestScanTokensStringAndCharLiterals(t *testing.T) {
	tokens := scanTokens(`char c = 'a'; char *s = "hi\"there";`)
	var kinds []TokenKind
	for _, tok := range tokens {
		if tok.Kind == TokenCharConstant || tok.Kind == TokenStringLiteral {
			kinds = append(kinds, tok.Kind)
		}
	}
	require.Equal(t, []TokenKind{TokenCharConstant, TokenStringLiteral}, kinds)
}

func TestScanTokensTracksLineNumbers(t *testing.T) {
	tokens := scanTokens("int a;\nint b;")
	require.Equal(t, 1, tokens[0].Line)
	last := tokens[len(tokens)-1]
	require.Equal(t, 2, last.Line)
}

func TestTokensBetweenReturnsSubrange(t *testing.T) {
	tu := &TranslationUnit{Source: "int x = 1 + 2;"}
	tu.Tokens = scanTokens(tu.Source)
	sub := tu.TokensBetween(8, 13)
	var spellings []string
	for _, tok := range sub {
		spellings = append(spellings, tok.Spelling)
	}
	require.Equal(t, []string{"1", "+", "2"}, spellings)
}

func TestVisitChildrenRecursion(t *testing.T) {
	leaf := &Cursor{Kind: KindVarDecl, Spelling: "leaf"}
	mid := &Cursor{Kind: KindCompoundStmt, Children: []*Cursor{leaf}}
	root := &Cursor{Kind: KindTranslationUnit, Children: []*Cursor{mid}}

	var seen []string
	root.VisitChildren(func(c, parent *Cursor) VisitResult {
		seen = append(seen, c.Spelling)
		return VisitRecurse
	})
	require.Equal(t, []string{"", "leaf"}, seen)
}
