// Package emitter implements phase two: it streams the translation
// unit's original tokens to output verbatim, except where a rewrite
// record says to splice in replacement text instead. Unlike an
// AST-to-text pretty-printer, it never re-derives syntax from the
// tree — it walks the flat token stream and consults the rewrite
// tables by offset.
package emitter

import (
	"sort"
	"strings"

	"codeberg.org/saruga/c99to89/internal/cparse"
	"codeberg.org/saruga/c99to89/internal/rewrite"
	"codeberg.org/saruga/c99to89/internal/symbols"
)

// Emitter streams tokens from one TranslationUnit to a strings.Builder,
// splicing compound-literal and initializer-list rewrites in as their
// offsets are reached. outputLine tracks the monotone line cursor
// invariant (spec §8): the emitter never emits a character whose line
// is less than the previous token's line.
type Emitter struct {
	tu      *cparse.TranslationUnit
	symbols *symbols.Table
	tables  *rewrite.Tables
	buf     strings.Builder

	outputLine       int
	clByStart        map[int]*rewrite.CLRecord
	clContextByStart map[int]*rewrite.CLRecord
	ilByStart        map[int]*rewrite.ILRecord
	endScopeByOffset map[int]string
}

// New returns an Emitter ready to stream tu's tokens against the
// tables phase one produced.
func New(tu *cparse.TranslationUnit, syms *symbols.Table, tables *rewrite.Tables) *Emitter {
	e := &Emitter{
		tu:               tu,
		symbols:          syms,
		tables:           tables,
		outputLine:       1,
		clByStart:        make(map[int]*rewrite.CLRecord),
		clContextByStart: make(map[int]*rewrite.CLRecord),
		ilByStart:        make(map[int]*rewrite.ILRecord),
		endScopeByOffset: make(map[int]string),
	}
	for i := range tables.CLRecords {
		rec := &tables.CLRecords[i]
		e.clByStart[rec.CastStart] = rec
		if rec.NeedsPreamble {
			e.clContextByStart[rec.ContextStart] = rec
		}
	}
	for i := range tables.ILRecords {
		e.ilByStart[tables.ILRecords[i].Start] = &tables.ILRecords[i]
	}
	for _, es := range tables.EndScopes {
		e.endScopeByOffset[es.Offset] += es.Text
	}
	return e
}

// Emit streams the whole translation unit and returns the rewritten
// C89 source text.
func (e *Emitter) Emit() string {
	tokens := e.tu.Tokens
	skipUntil := -1
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if skipUntil >= 0 {
			if tok.Offset < skipUntil {
				continue
			}
			skipUntil = -1
		}

		if cl, ok := e.clContextByStart[tok.Offset]; ok {
			e.emitDeclPreamble(cl)
		}
		if cl, ok := e.clByStart[tok.Offset]; ok {
			e.emitCompoundLiteral(cl)
			skipUntil = cl.CastEnd
			continue
		}
		if il, ok := e.ilByStart[tok.Offset]; ok {
			e.emitInitList(il)
			skipUntil = il.End
			continue
		}

		e.advanceTo(tok.Line)
		e.buf.WriteString(tok.Spelling)
		if needsSpaceAfter(tok, tokens, i) {
			e.buf.WriteByte(' ')
		}
		if text, ok := e.endScopeByOffset[tok.EndOffset]; ok {
			e.buf.WriteString(text)
		}
	}
	return e.buf.String()
}

// emitDeclPreamble splices the hoisted temporary declaration a
// TempAssign/ConstDecl/NewContext/LoopContext compound literal needs
// ahead of the statement containing it, reusing DeclStatements' own
// rendering so there is exactly one place that knows the declaration's
// text shape.
func (e *Emitter) emitDeclPreamble(cl *rewrite.CLRecord) {
	for _, stmt := range DeclStatements([]rewrite.CLRecord{*cl}) {
		e.buf.WriteString(stmt)
		e.buf.WriteByte(' ')
	}
}

// advanceTo emits newlines until the output line reaches line,
// enforcing the monotone-line-cursor invariant: it is a programming
// error for line to be less than e.outputLine, since phase one and the
// token stream are both strictly source-order.
func (e *Emitter) advanceTo(line int) {
	for e.outputLine < line {
		e.buf.WriteByte('\n')
		e.outputLine++
	}
}

func (e *Emitter) emitInitList(il *rewrite.ILRecord) {
	var norm rewrite.NormalizedInit
	var err error
	if il.IsArray {
		norm, err = rewrite.NormalizeArray(*il)
	} else {
		norm, err = rewrite.Normalize(*il, e.symbols)
	}
	if err != nil {
		// Diagnostics for a malformed initializer are raised during
		// phase one; by phase two any such record is dropped rather
		// than re-validated. Emit a conservative empty-brace fallback
		// so output stays syntactically well-formed.
		e.buf.WriteString("{0}")
		return
	}
	if norm.UnionField != "" {
		// The active member isn't the union's first: the original
		// braces are replaced by `{0}` (the declaration is not left
		// bare; its first member is zero-initialized), and the walker
		// already scheduled the assignment to the active member as an
		// EndScopeRecord right after the declaration's ';'.
		e.buf.WriteString("{0}")
		return
	}
	e.buf.WriteByte('{')
	for i, elem := range norm.Elements {
		if i > 0 {
			e.buf.WriteString(", ")
		}
		e.buf.WriteString(elem)
	}
	e.buf.WriteByte('}')
}

func (e *Emitter) emitCompoundLiteral(cl *rewrite.CLRecord) {
	switch cl.Class {
	case rewrite.ClassOmitCast:
		e.buf.WriteByte('{')
		e.buf.WriteString(strings.Join(cl.Elements, ", "))
		e.buf.WriteByte('}')
	default:
		// TempAssign / ConstDecl / NewContext / LoopContext all
		// resolve to "reference the hoisted temporary here"; the
		// temporary's declaration is spliced ahead of the statement
		// that contains this reference by emitDeclPreamble, keyed by
		// cl.ContextStart.
		e.buf.WriteString(cl.TempName)
	}
}

// needsSpaceAfter reports whether a space must separate tok from the
// next token to avoid accidental token-pasting (e.g. two adjacent
// identifiers, or `+` followed by `+`).
func needsSpaceAfter(tok cparse.Token, tokens []cparse.Token, i int) bool {
	if i+1 >= len(tokens) {
		return false
	}
	next := tokens[i+1]
	if next.Line != tok.Line {
		return false
	}
	if isWordLike(tok) && isWordLike(next) {
		return true
	}
	return false
}

func isWordLike(t cparse.Token) bool {
	switch t.Kind {
	case cparse.TokenIdentifier, cparse.TokenIntegerConstant, cparse.TokenFloatingConstant:
		return true
	}
	return false
}

// DeclStatements renders the hoisted temporary declarations for
// records, sorted by ContextStart, for emitDeclPreamble to splice
// before the statement containing each literal. An array type such as
// `int[2]` is split so its bracket suffix follows the temporary's name.
func DeclStatements(records []rewrite.CLRecord) []string {
	sorted := append([]rewrite.CLRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ContextStart < sorted[j].ContextStart })
	var out []string
	for _, r := range sorted {
		if r.TempName == "" {
			continue
		}
		typ, suffix := r.TypeSpec, ""
		if i := strings.Index(typ, "["); i >= 0 {
			typ, suffix = strings.TrimSpace(typ[:i]), typ[i:]
		}
		out = append(out, typ+" "+r.TempName+suffix+" = {"+strings.Join(r.Elements, ", ")+"};")
	}
	return out
}
