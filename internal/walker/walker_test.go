package walker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"codeberg.org/saruga/c99to89/internal/cparse"
	"codeberg.org/saruga/c99to89/internal/rewrite"
)

func TestWalkRegistersStructFields(t *testing.T) {
	root := &cparse.Cursor{
		Kind: cparse.KindTranslationUnit,
		Children: []*cparse.Cursor{
			{
				Kind:     cparse.KindStructDecl,
				Spelling: "Point",
				Children: []*cparse.Cursor{
					{Kind: cparse.KindFieldDecl, Spelling: "x", TypeName: "int"},
					{Kind: cparse.KindFieldDecl, Spelling: "y", TypeName: "int"},
				},
			},
		},
	}
	tu := &cparse.TranslationUnit{Root: root}
	w := New(tu)
	res, err := w.Walk()
	require.NoError(t, err)

	ref := res.Symbols.TagByName("Point")
	require.True(t, ref.IsValid())
	tag := res.Symbols.Tag(ref)
	require.Len(t, tag.Fields, 2)
	require.Equal(t, "x", tag.Fields[0].Name)
	require.Equal(t, "y", tag.Fields[1].Name)
}

func TestWalkRegistersEnumerators(t *testing.T) {
	root := &cparse.Cursor{
		Kind: cparse.KindTranslationUnit,
		Children: []*cparse.Cursor{
			{
				Kind:     cparse.KindEnumDecl,
				Spelling: "Color",
				Children: []*cparse.Cursor{
					{Kind: cparse.KindEnumConstantDecl, Spelling: "RED"},
					{Kind: cparse.KindEnumConstantDecl, Spelling: "BLUE"},
				},
			},
		},
	}
	tu := &cparse.TranslationUnit{Root: root}
	w := New(tu)
	res, err := w.Walk()
	require.NoError(t, err)

	v, ok := res.Symbols.EnumConstant("BLUE")
	require.True(t, ok)
	require.Equal(t, int64(1), v)
}

func TestWalkRecordsCompoundLiteralAsTempAssignByDefault(t *testing.T) {
	root := &cparse.Cursor{
		Kind: cparse.KindTranslationUnit,
		Children: []*cparse.Cursor{
			{
				Kind: cparse.KindFunctionDecl,
				Children: []*cparse.Cursor{
					{
						Kind: cparse.KindCompoundStmt,
						Children: []*cparse.Cursor{
							{Kind: cparse.KindCompoundLiteralExpr, TypeName: "struct Point", Extent: cparse.Extent{StartOffset: 10, EndOffset: 20}},
						},
					},
				},
			},
		},
	}
	tu := &cparse.TranslationUnit{Root: root}
	w := New(tu)
	res, err := w.Walk()
	require.NoError(t, err)

	require.Len(t, res.Rewrite.CLRecords, 1)
	require.Equal(t, rewrite.ClassTempAssign, res.Rewrite.CLRecords[0].Class)
	require.NotEmpty(t, res.Rewrite.CLRecords[0].TempName)
}

func TestWalkTypedefResolvesToTag(t *testing.T) {
	root := &cparse.Cursor{
		Kind: cparse.KindTranslationUnit,
		Children: []*cparse.Cursor{
			{Kind: cparse.KindStructDecl, Spelling: "AVRational"},
			{Kind: cparse.KindTypedefDecl, Spelling: "Rational", TypeName: "AVRational"},
		},
	}
	tu := &cparse.TranslationUnit{Root: root}
	w := New(tu)
	res, err := w.Walk()
	require.NoError(t, err)

	tdRef := res.Symbols.TypedefByName("Rational")
	require.True(t, tdRef.IsValid())
	require.True(t, res.Symbols.Typedefs[tdRef].TagRef.IsValid())
}
