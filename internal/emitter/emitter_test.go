package emitter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"codeberg.org/saruga/c99to89/internal/cparse"
	"codeberg.org/saruga/c99to89/internal/rewrite"
	"codeberg.org/saruga/c99to89/internal/symbols"
)

func TestEmitPlainTokensUnchanged(t *testing.T) {
	tu := &cparse.TranslationUnit{
		Source: "int x ;",
		Tokens: []cparse.Token{
			{Kind: cparse.TokenIdentifier, Spelling: "int", Offset: 0, EndOffset: 3, Line: 1},
			{Kind: cparse.TokenIdentifier, Spelling: "x", Offset: 4, EndOffset: 5, Line: 1},
			{Kind: cparse.TokenPunctuator, Spelling: ";", Offset: 6, EndOffset: 7, Line: 1},
		},
	}
	syms := symbols.New()
	e := New(tu, syms, &rewrite.Tables{})
	out := e.Emit()
	require.Equal(t, "int x;", out)
}

func TestEmitAdvancesLinesMonotonically(t *testing.T) {
	tu := &cparse.TranslationUnit{
		Source: "int x;\nint y;",
		Tokens: []cparse.Token{
			{Kind: cparse.TokenIdentifier, Spelling: "int", Offset: 0, EndOffset: 3, Line: 1},
			{Kind: cparse.TokenIdentifier, Spelling: "x", Offset: 4, EndOffset: 5, Line: 1},
			{Kind: cparse.TokenPunctuator, Spelling: ";", Offset: 5, EndOffset: 6, Line: 1},
			{Kind: cparse.TokenIdentifier, Spelling: "int", Offset: 7, EndOffset: 10, Line: 2},
			{Kind: cparse.TokenIdentifier, Spelling: "y", Offset: 11, EndOffset: 12, Line: 2},
			{Kind: cparse.TokenPunctuator, Spelling: ";", Offset: 12, EndOffset: 13, Line: 2},
		},
	}
	syms := symbols.New()
	e := New(tu, syms, &rewrite.Tables{})
	out := e.Emit()
	require.Equal(t, "int x;\nint y;", out)
}

func TestEmitSplicesCompoundLiteralReference(t *testing.T) {
	tu := &cparse.TranslationUnit{
		Source: "f((Point){1, 2});",
		Tokens: []cparse.Token{
			{Kind: cparse.TokenIdentifier, Spelling: "f", Offset: 0, EndOffset: 1, Line: 1},
			{Kind: cparse.TokenPunctuator, Spelling: "(", Offset: 1, EndOffset: 2, Line: 1},
			{Kind: cparse.TokenPunctuator, Spelling: "(", Offset: 2, EndOffset: 3, Line: 1},
			{Kind: cparse.TokenIdentifier, Spelling: "Point", Offset: 3, EndOffset: 8, Line: 1},
			{Kind: cparse.TokenPunctuator, Spelling: ")", Offset: 8, EndOffset: 9, Line: 1},
			{Kind: cparse.TokenPunctuator, Spelling: "{", Offset: 9, EndOffset: 10, Line: 1},
			{Kind: cparse.TokenIntegerConstant, Spelling: "1", Offset: 10, EndOffset: 11, Line: 1},
			{Kind: cparse.TokenPunctuator, Spelling: ",", Offset: 11, EndOffset: 12, Line: 1},
			{Kind: cparse.TokenIntegerConstant, Spelling: "2", Offset: 13, EndOffset: 14, Line: 1},
			{Kind: cparse.TokenPunctuator, Spelling: "}", Offset: 14, EndOffset: 15, Line: 1},
			{Kind: cparse.TokenPunctuator, Spelling: ")", Offset: 15, EndOffset: 16, Line: 1},
			{Kind: cparse.TokenPunctuator, Spelling: ";", Offset: 16, EndOffset: 17, Line: 1},
		},
	}
	syms := symbols.New()
	tables := &rewrite.Tables{
		CLRecords: []rewrite.CLRecord{
			{Class: rewrite.ClassTempAssign, TempName: "tmp__0", CastStart: 2, CastEnd: 15},
		},
	}
	e := New(tu, syms, tables)
	out := e.Emit()
	require.Equal(t, "f(tmp__0);", out)
}
