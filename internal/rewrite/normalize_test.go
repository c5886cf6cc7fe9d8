package rewrite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"codeberg.org/saruga/c99to89/internal/symbols"
)

func newStructTable(t *testing.T) (*symbols.Table, symbols.Ref) {
	t.Helper()
	tb := symbols.New()
	ref := tb.AddTag(symbols.Tag{
		Kind: symbols.TagStruct,
		Name: "AVRational",
		Fields: []symbols.Field{
			{Name: "num", ArrayLen: -1},
			{Name: "den", ArrayLen: -1},
		},
	})
	return tb, ref
}

func TestNormalizeStructPositional(t *testing.T) {
	tb, ref := newStructTable(t)
	rec := ILRecord{
		TagRef: ref,
		Designators: []Designator{
			{Index: -1, Expr: "1"},
			{Index: -1, Expr: "2"},
		},
	}
	ni, err := Normalize(rec, tb)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, ni.Elements)
}

func TestNormalizeStructDesignatedOutOfOrder(t *testing.T) {
	tb, ref := newStructTable(t)
	rec := ILRecord{
		TagRef: ref,
		Designators: []Designator{
			{Field: "den", Index: -1, Expr: "2"},
			{Field: "num", Index: -1, Expr: "1"},
		},
	}
	ni, err := Normalize(rec, tb)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, ni.Elements)
}

func TestNormalizeStructFillsGapWithZero(t *testing.T) {
	tb, ref := newStructTable(t)
	rec := ILRecord{
		TagRef: ref,
		Designators: []Designator{
			{Field: "den", Index: -1, Expr: "2"},
		},
	}
	ni, err := Normalize(rec, tb)
	require.NoError(t, err)
	require.Equal(t, []string{"0", "2"}, ni.Elements)
}

func TestNormalizeUnionFirstMemberIsPositional(t *testing.T) {
	tb := symbols.New()
	ref := tb.AddTag(symbols.Tag{
		Kind: symbols.TagUnion,
		Name: "Value",
		Fields: []symbols.Field{
			{Name: "i", ArrayLen: -1},
			{Name: "f", ArrayLen: -1},
		},
	})
	rec := ILRecord{TagRef: ref, Designators: []Designator{{Field: "i", Index: -1, Expr: "42"}}}
	ni, err := Normalize(rec, tb)
	require.NoError(t, err)
	require.Equal(t, []string{"42"}, ni.Elements)
	require.Empty(t, ni.UnionField)
}

func TestNormalizeUnionNonFirstMemberNeedsAssignment(t *testing.T) {
	tb := symbols.New()
	ref := tb.AddTag(symbols.Tag{
		Kind: symbols.TagUnion,
		Name: "Value",
		Fields: []symbols.Field{
			{Name: "i", ArrayLen: -1},
			{Name: "f", ArrayLen: -1},
		},
	})
	rec := ILRecord{TagRef: ref, Designators: []Designator{{Field: "f", Index: -1, Expr: "1.5"}}}
	ni, err := Normalize(rec, tb)
	require.NoError(t, err)
	require.Nil(t, ni.Elements)
	require.Equal(t, "f", ni.UnionField)
	require.Equal(t, "1.5", ni.UnionExpr)
}

func TestNormalizeUnionRejectsMultipleMembers(t *testing.T) {
	tb := symbols.New()
	ref := tb.AddTag(symbols.Tag{Kind: symbols.TagUnion, Name: "Value", Fields: []symbols.Field{{Name: "i", ArrayLen: -1}, {Name: "f", ArrayLen: -1}}})
	rec := ILRecord{TagRef: ref, Designators: []Designator{{Field: "i", Expr: "1"}, {Field: "f", Expr: "2.0"}}}
	_, err := Normalize(rec, tb)
	require.Error(t, err)
}
