// Package walker implements phase one: a single recursive traversal of
// the parsed translation unit that fills the symbol tables and the
// rewrite-record tables. It never writes output; that is phase two's
// job (internal/emitter).
package walker

import (
	"strings"

	"github.com/pkg/errors"

	"codeberg.org/saruga/c99to89/internal/cparse"
	"codeberg.org/saruga/c99to89/internal/eval"
	"codeberg.org/saruga/c99to89/internal/rewrite"
	"codeberg.org/saruga/c99to89/internal/symbols"
)

// Result is everything phase one produces for phase two to consume.
type Result struct {
	Symbols *symbols.Table
	Rewrite *rewrite.Tables
}

// frame is the recursion record threaded through the walk: it carries
// the state a child visit needs from its ancestors (the enclosing
// aggregate's tag or array length, whether we're at file scope, inside
// a loop body, inside another aggregate's initializer, or whether the
// current statement position has a block to hoist declarations into)
// without requiring the Cursor tree itself to carry that state. This
// mirrors the original walker's client-data frame chain (spec §4.3,
// §9 "recursive visitation callback").
type frame struct {
	parent          *frame
	enclosingTag    symbols.Ref
	inLoopBody      bool
	inAggregateInit bool
	hasBlockScope   bool
	atFileScope     bool

	// arrayLen is the declared length of the array initializer in
	// scope, or -1 when the current initializer context is a struct,
	// union, or nothing at all.
	arrayLen int
	// varName is the name of the variable the current initializer or
	// compound literal belongs to.
	varName string
	// stmtStart is the byte offset of the statement currently being
	// descended into, the point at which a hoisted declaration for a
	// compound literal inside it must be spliced. -1 when not known
	// (outside any tracked statement).
	stmtStart int
	// declEnd is the byte offset immediately after the enclosing
	// declaration statement's terminating ';', where a union's
	// out-of-first-member assignment must be spliced.
	declEnd int
}

func (f *frame) child() *frame {
	return &frame{
		parent:          f,
		enclosingTag:    f.enclosingTag,
		inLoopBody:      f.inLoopBody,
		inAggregateInit: f.inAggregateInit,
		hasBlockScope:   f.hasBlockScope,
		atFileScope:     f.atFileScope,
		arrayLen:        f.arrayLen,
		varName:         f.varName,
		stmtStart:       f.stmtStart,
		declEnd:         f.declEnd,
	}
}

// Walker owns the tables being filled during one pass and the
// monotonic temp-name counter shared by every compound-literal record
// discovered along the way.
type Walker struct {
	tu      *cparse.TranslationUnit
	symbols *symbols.Table
	tables  *rewrite.Tables
	lowerer *rewrite.Lowerer
}

// New returns a Walker ready to walk tu.
func New(tu *cparse.TranslationUnit) *Walker {
	return &Walker{
		tu:      tu,
		symbols: symbols.New(),
		tables:  &rewrite.Tables{},
		lowerer: rewrite.NewLowerer(),
	}
}

// Walk traverses the translation unit's root cursor once, filling the
// symbol and rewrite tables, and returns the completed Result.
func (w *Walker) Walk() (*Result, error) {
	if w.tu == nil || w.tu.Root == nil {
		return nil, errors.New("walker: nil translation unit")
	}
	root := &frame{
		enclosingTag:  symbols.InvalidRef,
		hasBlockScope: true,
		atFileScope:   true,
		arrayLen:      -1,
		stmtStart:     -1,
	}
	for _, child := range w.tu.Root.Children {
		topFrame := root.child()
		topFrame.stmtStart = child.Extent.StartOffset
		if err := w.visit(child, topFrame); err != nil {
			return nil, err
		}
	}
	return &Result{Symbols: w.symbols, Rewrite: w.tables}, nil
}

// visit dispatches one cursor to the handler for its Kind, descending
// into children with a frame appropriate to what was just entered.
func (w *Walker) visit(c *cparse.Cursor, f *frame) error {
	switch c.Kind {
	case cparse.KindStructDecl, cparse.KindUnionDecl:
		return w.visitTag(c, f)
	case cparse.KindEnumDecl:
		return w.visitEnum(c, f)
	case cparse.KindTypedefDecl:
		return w.visitTypedef(c, f)
	case cparse.KindFunctionDecl:
		child := f.child()
		child.atFileScope = false
		return w.visitChildren(c, child)
	case cparse.KindCompoundStmt:
		return w.visitCompoundStmt(c, f)
	case cparse.KindLoopStmt:
		child := f.child()
		child.inLoopBody = true
		return w.visitChildren(c, child)
	case cparse.KindDeclStmt:
		return w.visitDeclStmt(c, f)
	case cparse.KindDesignatedInitExpr:
		child := f.child()
		child.inAggregateInit = true
		return w.visitChildren(c, child)
	case cparse.KindInitListExpr:
		return w.visitInitList(c, f)
	case cparse.KindCompoundLiteralExpr:
		return w.visitCompoundLiteral(c, f)
	default:
		return w.visitChildren(c, f)
	}
}

func (w *Walker) visitChildren(c *cparse.Cursor, f *frame) error {
	for _, child := range c.Children {
		if err := w.visit(child, f); err != nil {
			return err
		}
	}
	return nil
}

// visitCompoundStmt enters a new block scope and tracks, for each
// direct child statement, the byte offset that statement starts at —
// the hoist point a compound literal found anywhere inside it must
// splice its declaration ahead of (spec §4.5).
func (w *Walker) visitCompoundStmt(c *cparse.Cursor, f *frame) error {
	child := f.child()
	child.hasBlockScope = true
	for _, stmt := range c.Children {
		stmtFrame := child.child()
		stmtFrame.stmtStart = stmt.Extent.StartOffset
		if err := w.visit(stmt, stmtFrame); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) visitTag(c *cparse.Cursor, f *frame) error {
	kind := symbols.TagStruct
	if c.Kind == cparse.KindUnionDecl {
		kind = symbols.TagUnion
	}
	var fields []symbols.Field
	for _, child := range c.Children {
		if child.Kind == cparse.KindFieldDecl {
			fields = append(fields, symbols.Field{
				Name:     child.Spelling,
				TypeSpec: child.TypeName,
				ArrayLen: child.ArrayLen,
			})
		}
	}
	ref := w.symbols.AddTag(symbols.Tag{
		Kind:     kind,
		Name:     c.Spelling,
		Fields:   fields,
		Offset:   c.Extent.StartOffset,
		Complete: len(fields) > 0,
	})
	child := f.child()
	child.enclosingTag = ref
	return w.visitChildren(c, child)
}

// visitEnum resolves each enumerator's value, folding an explicit
// initializer expression with eval.EvalInt when present (spec §4.2)
// and falling back to one-past-the-previous value otherwise. The
// lookup function consults this enum's own already-resolved constants
// before falling back to every other enum in the table, since a later
// enumerator may reference an earlier one from the same declaration
// before it has been added to the symbol table.
func (w *Walker) visitEnum(c *cparse.Cursor, f *frame) error {
	var next int64
	var enumerators []symbols.Enumerator
	lookup := func(name string) (int64, bool) {
		for _, e := range enumerators {
			if e.Name == name {
				return e.Value, true
			}
		}
		return w.symbols.EnumConstant(name)
	}
	for _, child := range c.Children {
		if child.Kind != cparse.KindEnumConstantDecl {
			continue
		}
		v := next
		if len(child.ValueTokens) > 0 {
			if parsed, err := eval.EvalInt(child.ValueTokens, lookup); err == nil {
				v = parsed
			}
		}
		enumerators = append(enumerators, symbols.Enumerator{Name: child.Spelling, Value: v})
		next = v + 1
	}
	w.symbols.AddEnum(symbols.Enum{Name: c.Spelling, Enumerators: enumerators, Offset: c.Extent.StartOffset})
	return nil
}

func (w *Walker) visitTypedef(c *cparse.Cursor, f *frame) error {
	td := symbols.Typedef{Name: c.Spelling, Underlying: c.TypeName, TagRef: symbols.InvalidRef}
	if tagRef := resolveTypeTag(w.symbols, c.TypeName); tagRef.IsValid() {
		td.TagRef = tagRef
	}
	w.symbols.AddTypedef(td)
	return nil
}

// visitDeclStmt resolves the declared variable's type to a tag
// reference (for a struct/union initializer) or records the declared
// array length (for a plain array initializer), then descends with
// that context available to the initializer it may contain. This
// replaces the previous structurally-wrong reliance on enclosingTag
// only ever being set while walking a tag's own member list.
func (w *Walker) visitDeclStmt(c *cparse.Cursor, f *frame) error {
	child := f.child()
	child.varName = c.Spelling
	child.declEnd = c.Extent.EndOffset
	if c.IsArray {
		child.enclosingTag = symbols.InvalidRef
		child.arrayLen = c.ArrayLen
	} else {
		child.enclosingTag = resolveTypeTag(w.symbols, c.TypeName)
		child.arrayLen = -1
	}
	return w.visitChildren(c, child)
}

// visitInitList records an ILRecord for a brace-initializer targeting
// the struct/union/array currently in scope, capturing its designators
// positionally in source order (spec §4.1/§4.4). A union target whose
// active member isn't the first also gets its assignment-lowering
// scheduled immediately, since the tag and its fields are already
// known by the time this initializer is reached.
func (w *Walker) visitInitList(c *cparse.Cursor, f *frame) error {
	designators := w.buildDesignators(c)
	rec := rewrite.ILRecord{
		Start:       c.Extent.StartOffset,
		End:         c.Extent.EndOffset,
		Designators: designators,
	}
	switch {
	case f.enclosingTag.IsValid():
		rec.TagRef = f.enclosingTag
		rec.IsUnion = tagIsUnion(w.symbols, f.enclosingTag)
		w.tables.AddIL(rec)
		if rec.IsUnion {
			w.scheduleUnionAssignment(rec, f)
		}
	case f.arrayLen >= 0:
		rec.IsArray = true
		rec.ArrayLen = f.arrayLen
		rec.VarName = f.varName
		w.tables.AddIL(rec)
	}
	return w.visitChildren(c, f)
}

// buildDesignators converts one InitListExpr cursor's children into the
// flat Designator sequence ILRecord needs, folding an array-index
// designator's token run with eval.EvalInt so `[C] = x` resolves
// through an enum constant the same way a plain array index would.
func (w *Walker) buildDesignators(c *cparse.Cursor) []rewrite.Designator {
	var designators []rewrite.Designator
	for _, child := range c.Children {
		d := rewrite.Designator{Index: -1, Expr: exprText(child)}
		switch {
		case child.DesigField != "":
			d.Field = child.DesigField
		case len(child.DesigIndexTokens) > 0:
			if v, err := eval.EvalInt(child.DesigIndexTokens, w.symbols.EnumConstant); err == nil {
				d.Index = int(v)
			}
		}
		designators = append(designators, d)
	}
	return designators
}

// scheduleUnionAssignment normalizes rec immediately and, if the
// active member isn't the union's first, schedules the resulting
// assignment statement to be spliced right after the declaration ends
// (spec §4.4's union single-initializer rule), wiring Normalize,
// LowerUnionInit, and AddEndScope together at the one point phase one
// already knows everything the lowering needs.
func (w *Walker) scheduleUnionAssignment(rec rewrite.ILRecord, f *frame) {
	norm, err := rewrite.Normalize(rec, w.symbols)
	if err != nil || norm.UnionField == "" {
		return
	}
	_, assign := rewrite.LowerUnionInit(f.varName, norm)
	if assign == "" {
		return
	}
	w.tables.AddEndScope(rewrite.EndScopeRecord{Offset: f.declEnd, Text: " " + assign})
}

// visitCompoundLiteral records a CLRecord for `(T){...}`, classifying
// it from the enclosing frame's context. Every class but ClassOmitCast
// needs a declaration hoisted ahead of the statement that contains the
// literal, so ContextStart is moved from the literal's own position to
// the statement's start and NeedsPreamble is set, telling the emitter
// where to splice it.
func (w *Walker) visitCompoundLiteral(c *cparse.Cursor, f *frame) error {
	rec := rewrite.CLRecord{
		TypeSpec:     c.TypeName,
		ContextStart: c.Extent.StartOffset,
		CastStart:    c.Extent.StartOffset,
		CastEnd:      c.Extent.EndOffset,
	}
	if tagRef := resolveTypeTag(w.symbols, c.TypeName); tagRef.IsValid() {
		rec.TagRef = tagRef
	}
	var initList *cparse.Cursor
	if len(c.Children) > 0 && c.Children[0].Kind == cparse.KindInitListExpr {
		initList = c.Children[0]
		rec.Elements = initListElements(initList)
	}
	w.lowerer.Classify(&rec, rewrite.Context{
		InAggregateInit: f.inAggregateInit,
		InLoopBody:      f.inLoopBody,
		IsConstant:      isConstantInitList(initList),
		NeedsOwnScope:   !f.hasBlockScope,
		AtFileScope:     f.atFileScope,
	})
	if rec.Class != rewrite.ClassOmitCast && f.stmtStart >= 0 {
		rec.ContextStart = f.stmtStart
		rec.NeedsPreamble = true
	}
	w.tables.InsertCLRecord(rec)
	return w.visitChildren(c, f)
}

func tagIsUnion(tb *symbols.Table, ref symbols.Ref) bool {
	tag := tb.Tag(ref)
	return tag != nil && tag.Kind == symbols.TagUnion
}

// resolveTypeTag strips a leading struct/union/enum keyword (the form
// a FieldDecl or DeclStmt's TypeName carries when written out
// explicitly, e.g. "struct Point") before resolving through
// symbols.Table.ResolveTag, which otherwise expects the bare tag or
// typedef spelling.
func resolveTypeTag(tb *symbols.Table, typeName string) symbols.Ref {
	name := typeName
	for _, kw := range [...]string{"struct ", "union ", "enum "} {
		if strings.HasPrefix(name, kw) {
			name = strings.TrimSpace(name[len(kw):])
			break
		}
	}
	return tb.ResolveTag(name)
}

// exprText renders a DesignatedInitExpr (or any similarly-shaped)
// cursor's value as source text: the omit-cast rendering of a nested
// compound literal, the bracketed reconstruction of a nested plain
// initializer list, or its own value tokens otherwise. The nested-CL
// case must be checked ahead of ValueTokens because
// parseInitListEntry always records both: a compound literal nested
// in an aggregate initializer is ClassOmitCast (its cast prefix is
// always redundant there), but the enclosing initializer list's own
// splice consumes its tokens wholesale rather than going through that
// literal's own CLRecord, so the cast has to be dropped right here.
func exprText(c *cparse.Cursor) string {
	if len(c.Children) == 1 {
		switch c.Children[0].Kind {
		case cparse.KindCompoundLiteralExpr:
			return "{" + strings.Join(initListElements(compoundLiteralInitList(c.Children[0])), ", ") + "}"
		case cparse.KindInitListExpr:
			return nestedInitText(c.Children[0])
		}
	}
	if len(c.ValueTokens) > 0 {
		return strings.Join(c.ValueTokens, " ")
	}
	return ""
}

func compoundLiteralInitList(cl *cparse.Cursor) *cparse.Cursor {
	if len(cl.Children) > 0 && cl.Children[0].Kind == cparse.KindInitListExpr {
		return cl.Children[0]
	}
	return nil
}

func nestedInitText(il *cparse.Cursor) string {
	parts := make([]string, 0, len(il.Children))
	for _, entry := range il.Children {
		parts = append(parts, exprText(entry))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// initListElements renders an InitListExpr's children positionally, in
// source order, for a compound literal's Elements — the plain-brace
// rendering the ClassOmitCast/TempAssign/ConstDecl emit paths all need,
// ignoring any designators a literal's own initializer might carry.
func initListElements(il *cparse.Cursor) []string {
	if il == nil {
		return nil
	}
	elems := make([]string, 0, len(il.Children))
	for _, child := range il.Children {
		elems = append(elems, exprText(child))
	}
	return elems
}

// isConstantInitList reports whether every element of il is a
// compile-time numeric constant expression (spec §4.5's const-decl
// class): a plain run of digits, arithmetic operators, and
// parentheses, recursively through any nested initializer list.
func isConstantInitList(il *cparse.Cursor) bool {
	if il == nil {
		return false
	}
	for _, child := range il.Children {
		if len(child.Children) == 1 && child.Children[0].Kind == cparse.KindInitListExpr {
			if !isConstantInitList(child.Children[0]) {
				return false
			}
			continue
		}
		if len(child.ValueTokens) == 0 || !isConstantTokenRun(child.ValueTokens) {
			return false
		}
	}
	return true
}

func isConstantTokenRun(toks []string) bool {
	for _, t := range toks {
		if t == "" {
			continue
		}
		switch {
		case t[0] >= '0' && t[0] <= '9':
		case t == "+" || t == "-" || t == "*" || t == "/" || t == "(" || t == ")" || t == ".":
		default:
			return false
		}
	}
	return true
}
