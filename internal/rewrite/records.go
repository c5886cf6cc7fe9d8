// Package rewrite holds the append-only rewrite-record tables phase one
// fills and phase two consults: initializer-list (IL) records, compound-
// literal (CL) records, and end-scope records. It also implements the
// two algorithms that operate on those tables — the initializer-list
// normalizer and the compound-literal lowerer — since in this codebase
// the record shapes and the logic that interprets them live together.
package rewrite

import "codeberg.org/saruga/c99to89/internal/symbols"

// Ref indexes one row of a rewrite table. Absent is represented by
// InvalidRef, mirroring symbols.Ref.
type Ref = symbols.Ref

const InvalidRef = symbols.InvalidRef

// ILRecord describes one brace-initializer that needs positional
// normalization: C99 designated initializers (`{.b = 1, .a = 2}`,
// `[3] = x`) rewritten into the plain positional form C89 requires,
// with gaps filled and unions reduced to their single active member.
type ILRecord struct {
	// TagRef is the struct/union this initializer targets; InvalidRef
	// when IsArray is true, since a plain array has no tag to consult.
	TagRef symbols.Ref
	// Start/End bound the brace-initializer's token range in source.
	Start, End int
	// Designators holds one entry per element of the source
	// initializer list, in source order; an element with an empty
	// Designator targets the next implicit position.
	Designators []Designator
	// IsUnion mirrors symbols.Tag.Kind == TagUnion for quick access.
	IsUnion bool
	// IsArray marks a plain (non-struct, non-union) array initializer,
	// normalized by length alone rather than by field lookup.
	IsArray bool
	// ArrayLen is the declared length of the array IsArray targets.
	ArrayLen int
	// VarName is the name of the variable this initializer belongs to.
	// The walker sets it only for array initializers and nothing reads
	// it; the union assignment (LowerUnionInit) takes the variable name
	// from the walker directly.
	VarName string
}

// Designator is one `{.field = expr}` or `{[index] = expr}` entry, or
// a plain `{expr}` entry with Field == "" and Index == -1.
type Designator struct {
	Field string
	Index int // -1 if this is a field designator or a positional entry
	Expr  string
}

// NormalizedInit is the positional-form output of normalizing one
// ILRecord: a flat, gap-filled sequence of element expressions in
// declaration order, plus (for unions) the single active member.
type NormalizedInit struct {
	Elements []string // one entry per struct field / array element, in order
	// UnionField/UnionExpr are set instead of Elements when the record
	// targets a union member other than the first: C89 can only ever
	// initialize a union's first member positionally, so any other
	// active member must be lowered to an assignment after declaration
	// (see LowerUnionInit). A first-member union initializer uses
	// Elements.
	UnionField string
	UnionExpr  string
}

// CLClass classifies how one compound literal must be rewritten, since
// C89 has no compound-literal syntax at all. Which class applies
// depends on the syntactic context the literal appears in.
type CLClass uint8

const (
	// ClassOmitCast drops a redundant `(T){...}` cast-like prefix
	// where plain `{...}` is already legal, e.g. inside another
	// aggregate initializer of the same type.
	ClassOmitCast CLClass = iota
	// ClassTempAssign introduces a hoisted temporary, declared with the
	// literal's elements as its initializer in a single declaration
	// ahead of the enclosing statement, and replaces the literal with a
	// reference to the temporary. Used when the literal appears as a
	// value in an expression context (a call argument, a return, an
	// operand).
	ClassTempAssign
	// ClassConstDecl hoists the literal out to a plain (neither static
	// nor const) initialized declaration. It is chosen for a literal at
	// file scope, or one whose elements are all numeric constants; how
	// the literal is used afterwards is not examined.
	ClassConstDecl
	// ClassNewContext is chosen for a literal with no enclosing block
	// scope (e.g. nested inside a ternary arm). It is emitted exactly
	// like ClassTempAssign; no compound statement is synthesized. The
	// walker treats every position as having block scope, so it never
	// assigns this class.
	ClassNewContext
	// ClassLoopContext handles a literal evaluated once per loop
	// iteration, where the hoisted temporary must be re-initialized on
	// every pass rather than once before the loop.
	ClassLoopContext
)

// CLRecord describes one compound literal and how it must be lowered.
// It carries two offsets: the literal's enclosing context start
// (ContextStart) and the cast token's own start (CastStart). The walker
// fills both in a single visit of the literal, using the context
// (statement start, loop vs. straight-line) that its frame already
// carries from the literal's ancestors.
type CLRecord struct {
	Class        CLClass
	TypeSpec     string
	TagRef       symbols.Ref
	ContextStart int
	CastStart    int
	CastEnd      int
	Elements     []string // positional initializer elements, post-normalization
	TempName     string   // filled in by the lowerer, e.g. "tmp__3"
	// NeedsPreamble marks a record whose ContextStart is the start of
	// the enclosing statement (not the literal's own CastStart): the
	// emitter must splice a hoisted declaration there before streaming
	// that statement's tokens. Only set when Class != ClassOmitCast.
	NeedsPreamble bool
}

// EndScopeRecord marks a byte offset immediately after which
// additional text must be spliced into the output — used for the
// assignment statement a union's out-of-first-member initializer
// lowers to (LowerUnionInit), emitted right after the
// declaration it belongs to.
type EndScopeRecord struct {
	Offset int
	Text   string
}

// Tables is the complete set of rewrite tables for one translation
// unit, filled by the walker and consulted by the emitter.
type Tables struct {
	ILRecords  []ILRecord
	CLRecords  []CLRecord
	EndScopes  []EndScopeRecord
}

// AddIL appends r and returns its Ref.
func (t *Tables) AddIL(r ILRecord) Ref {
	ref := Ref(len(t.ILRecords))
	t.ILRecords = append(t.ILRecords, r)
	return ref
}

// AddEndScope appends r.
func (t *Tables) AddEndScope(r EndScopeRecord) {
	t.EndScopes = append(t.EndScopes, r)
}
