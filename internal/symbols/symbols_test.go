package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAndLookupTag(t *testing.T) {
	tb := New()
	ref := tb.AddTag(Tag{Kind: TagStruct, Name: "Point", Fields: []Field{
		{Name: "x", ArrayLen: -1},
		{Name: "y", ArrayLen: -1},
	}})
	require.True(t, ref.IsValid())
	require.Equal(t, ref, tb.TagByName("Point"))
	require.Equal(t, 0, tb.Tag(ref).FieldIndex("x"))
	require.Equal(t, 1, tb.Tag(ref).FieldIndex("y"))
	require.Equal(t, -1, tb.Tag(ref).FieldIndex("z"))
}

func TestAddTagReopensForwardDecl(t *testing.T) {
	tb := New()
	fwd := tb.AddTag(Tag{Kind: TagStruct, Name: "Node", Complete: false})
	full := tb.AddTag(Tag{Kind: TagStruct, Name: "Node", Fields: []Field{{Name: "next", ArrayLen: -1}}, Complete: true})
	require.Equal(t, fwd, full)
	require.True(t, tb.Tag(fwd).Complete)
}

func TestEnumConstantLookupAcrossEnums(t *testing.T) {
	tb := New()
	tb.AddEnum(Enum{Name: "Color", Enumerators: []Enumerator{{Name: "RED", Value: 0}, {Name: "BLUE", Value: 1}}})
	tb.AddEnum(Enum{Name: "Size", Enumerators: []Enumerator{{Name: "SMALL", Value: 0}}})

	v, ok := tb.EnumConstant("BLUE")
	require.True(t, ok)
	require.Equal(t, int64(1), v)

	_, ok = tb.EnumConstant("MISSING")
	require.False(t, ok)
}

func TestResolveTagThroughTypedefChain(t *testing.T) {
	tb := New()
	tagRef := tb.AddTag(Tag{Kind: TagStruct, Name: "AVRational"})
	tb.AddTypedef(Typedef{Name: "Rational", Underlying: "AVRational", TagRef: InvalidRef})
	tb.AddTypedef(Typedef{Name: "RationalAlias", Underlying: "Rational", TagRef: InvalidRef})

	require.Equal(t, tagRef, tb.ResolveTag("AVRational"))
	require.Equal(t, tagRef, tb.ResolveTag("Rational"))
	require.Equal(t, tagRef, tb.ResolveTag("RationalAlias"))
}

func TestResolveTagBoundsCycles(t *testing.T) {
	tb := New()
	tb.AddTypedef(Typedef{Name: "A", Underlying: "B", TagRef: InvalidRef})
	tb.AddTypedef(Typedef{Name: "B", Underlying: "A", TagRef: InvalidRef})

	require.Equal(t, InvalidRef, tb.ResolveTag("A"))
}

func TestInvalidRefSentinel(t *testing.T) {
	require.False(t, InvalidRef.IsValid())
	tb := New()
	require.Nil(t, tb.Tag(InvalidRef))
	require.Nil(t, tb.Enum(InvalidRef))
}
