package rewrite

import "fmt"

// Lowerer classifies compound-literal records and assigns their hoisted
// temporary names. Keeping CLRecords ordered by ContextStart is done by
// Tables.InsertCLRecord: records can arrive out of order because a
// hoisted record's ContextStart is moved back to the start of its
// enclosing statement, before literals already recorded. Since records
// arrive mostly in order, ordering is maintained with an insertion sort
// on each append rather than a post-pass full sort.
type Lowerer struct {
	counter int
	temps   []tempDecl
}

type tempDecl struct {
	name     string
	typeSpec string
}

// NewLowerer returns a Lowerer with its temp-name counter at zero.
func NewLowerer() *Lowerer {
	return &Lowerer{}
}

// NextTempName returns the next `tmp__<N>` name from this Lowerer's
// monotonic counter (spec §4.5) and appends the name and its declared
// type to the Lowerer's own temps list.
func (l *Lowerer) NextTempName(typeSpec string) string {
	name := fmt.Sprintf("tmp__%d", l.counter)
	l.counter++
	l.temps = append(l.temps, tempDecl{name: name, typeSpec: typeSpec})
	return name
}

// Classify assigns rec's Class and TempName in place according to the
// syntactic context the walker observed: ctx names the enclosing
// construct the compound literal was found in.
type Context struct {
	// InAggregateInit reports the literal appears anywhere inside an
	// element of another aggregate initializer list, where the cast
	// prefix is treated as redundant; the types are not compared.
	InAggregateInit bool
	// InLoopBody reports the literal is evaluated once per iteration
	// of an enclosing loop.
	InLoopBody bool
	// IsConstant reports the literal's elements are all compile-time
	// constant expressions (spec §4.5 const-decl class).
	IsConstant bool
	// NeedsOwnScope reports the literal appears in a context with no
	// enclosing compound statement to hoist a declaration into (e.g.
	// directly in a ternary arm); it selects ClassNewContext, which is
	// emitted like ClassTempAssign, with no block synthesized.
	NeedsOwnScope bool
	// AtFileScope reports the literal's enclosing declaration sits
	// outside any function body, where only a constant initializer is
	// legal in the first place — a file-scope literal that is not
	// InAggregateInit is hoisted to its own declaration.
	AtFileScope bool
}

// Classify decides rec.Class from ctx and, for the classes that need
// one, assigns a temp name via l. InAggregateInit is checked first and
// yields ClassOmitCast even at file scope; after it, file scope takes
// priority over the remaining contexts because a file-scope declaration
// is the only place a literal's value can be required to be constant
// by the language itself, ahead of the narrower per-use heuristics.
func (l *Lowerer) Classify(rec *CLRecord, ctx Context) {
	switch {
	case ctx.InAggregateInit:
		rec.Class = ClassOmitCast
	case ctx.AtFileScope:
		rec.Class = ClassConstDecl
		rec.TempName = l.NextTempName(rec.TypeSpec)
	case ctx.NeedsOwnScope:
		rec.Class = ClassNewContext
		rec.TempName = l.NextTempName(rec.TypeSpec)
	case ctx.InLoopBody:
		rec.Class = ClassLoopContext
		rec.TempName = l.NextTempName(rec.TypeSpec)
	case ctx.IsConstant:
		rec.Class = ClassConstDecl
		rec.TempName = l.NextTempName(rec.TypeSpec)
	default:
		rec.Class = ClassTempAssign
		rec.TempName = l.NextTempName(rec.TypeSpec)
	}
}

// InsertCLRecord inserts rec into t.CLRecords keeping the slice sorted
// by ContextStart, per the ordering note above.
func (t *Tables) InsertCLRecord(rec CLRecord) Ref {
	i := len(t.CLRecords)
	for i > 0 && t.CLRecords[i-1].ContextStart > rec.ContextStart {
		i--
	}
	t.CLRecords = append(t.CLRecords, CLRecord{})
	copy(t.CLRecords[i+1:], t.CLRecords[i:])
	t.CLRecords[i] = rec
	return Ref(i)
}

// LowerUnionInit renders the assignment statement an out-of-first-
// member union initializer lowers to (spec §4.4): `var.member = expr;`,
// which the walker schedules as an EndScopeRecord right after the
// declaration's ';'. declSuffix is always empty: the declaration is not
// emitted bare, it keeps the `{0}` initializer the emitter writes in
// place of the original braces.
func LowerUnionInit(varName string, ni NormalizedInit) (declSuffix, assignStmt string) {
	if ni.UnionField == "" {
		return "", ""
	}
	return "", fmt.Sprintf("%s.%s = %s;", varName, ni.UnionField, ni.UnionExpr)
}
