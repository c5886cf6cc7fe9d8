package rewrite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextTempNameIsMonotonic(t *testing.T) {
	l := NewLowerer()
	require.Equal(t, "tmp__0", l.NextTempName("int"))
	require.Equal(t, "tmp__1", l.NextTempName("int"))
	require.Equal(t, "tmp__2", l.NextTempName("struct Point"))
}

func TestClassifyAggregateInitOmitsCast(t *testing.T) {
	l := NewLowerer()
	rec := CLRecord{}
	l.Classify(&rec, Context{InAggregateInit: true})
	require.Equal(t, ClassOmitCast, rec.Class)
	require.Empty(t, rec.TempName)
}

func TestClassifyLoopBodyGetsTempName(t *testing.T) {
	l := NewLowerer()
	rec := CLRecord{TypeSpec: "struct Point"}
	l.Classify(&rec, Context{InLoopBody: true})
	require.Equal(t, ClassLoopContext, rec.Class)
	require.NotEmpty(t, rec.TempName)
}

func TestClassifyDefaultIsTempAssign(t *testing.T) {
	l := NewLowerer()
	rec := CLRecord{TypeSpec: "struct Point"}
	l.Classify(&rec, Context{})
	require.Equal(t, ClassTempAssign, rec.Class)
	require.NotEmpty(t, rec.TempName)
}

func TestInsertCLRecordKeepsContextStartOrder(t *testing.T) {
	var tables Tables
	tables.InsertCLRecord(CLRecord{ContextStart: 30})
	tables.InsertCLRecord(CLRecord{ContextStart: 10})
	tables.InsertCLRecord(CLRecord{ContextStart: 20})

	require.Len(t, tables.CLRecords, 3)
	require.Equal(t, 10, tables.CLRecords[0].ContextStart)
	require.Equal(t, 20, tables.CLRecords[1].ContextStart)
	require.Equal(t, 30, tables.CLRecords[2].ContextStart)
}

func TestLowerUnionInitRendersAssignment(t *testing.T) {
	ni := NormalizedInit{UnionField: "f", UnionExpr: "1.5"}
	decl, assign := LowerUnionInit("v", ni)
	require.Empty(t, decl)
	require.Equal(t, "v.f = 1.5;", assign)
}

func TestLowerUnionInitNoOpWhenNoUnionField(t *testing.T) {
	decl, assign := LowerUnionInit("v", NormalizedInit{Elements: []string{"1"}})
	require.Empty(t, decl)
	require.Empty(t, assign)
}
