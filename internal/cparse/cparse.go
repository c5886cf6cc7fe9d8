// Package cparse adapts modernc.org/cc/v4, a pure-Go C99 front end, to
// the minimal cursor/token/visitor contract the rewriter core is
// written against. It is the only package in this module that imports
// "modernc.org/cc/v4" directly: everything downstream of Parse walks
// *Cursor and *Token values, never cc.Node.
//
// The shape mirrors libclang's CXCursor / CXChildVisitResult /
// clang_visitChildren, which is what the original rewriter was built
// on top of before this port.
package cparse

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	cc "modernc.org/cc/v4"
)

// Kind classifies a Cursor the way CXCursorKind classifies a CXCursor.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindTranslationUnit
	KindStructDecl
	KindUnionDecl
	KindEnumDecl
	KindTypedefDecl
	KindFieldDecl
	KindEnumConstantDecl
	KindFunctionDecl
	KindVarDecl
	KindParmDecl
	KindCompoundStmt
	KindDeclStmt
	KindLoopStmt
	KindInitListExpr
	KindDesignatedInitExpr
	KindCompoundLiteralExpr
	KindCastExpr
	KindDeclRefExpr
	KindIntegerLiteral
	KindFloatingLiteral
	KindUnexposedExpr
)

func (k Kind) String() string {
	names := [...]string{
		"Invalid", "TranslationUnit", "StructDecl", "UnionDecl", "EnumDecl",
		"TypedefDecl", "FieldDecl", "EnumConstantDecl", "FunctionDecl",
		"VarDecl", "ParmDecl", "CompoundStmt", "DeclStmt", "LoopStmt",
		"InitListExpr", "DesignatedInitExpr", "CompoundLiteralExpr",
		"CastExpr", "DeclRefExpr", "IntegerLiteral", "FloatingLiteral",
		"UnexposedExpr",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Extent is a half-open byte range plus its resolved line/column
// endpoints, the Go analogue of CXSourceRange.
type Extent struct {
	StartOffset, EndOffset int
	StartLine, StartColumn int
	EndLine, EndColumn     int
}

// Cursor is the Go analogue of CXCursor: one AST node, its spelling,
// its source extent, and its children.
//
// A handful of fields only apply to specific Kinds (the walker knows
// which): DesigField/DesigIndexTokens mark an InitListExpr entry as a
// designator, ValueTokens holds the spelling run of a value expression
// an evaluator may need to fold, ArrayLen/IsArray describe a
// FieldDecl's or DeclStmt's declared array-ness.
type Cursor struct {
	Kind     Kind
	Spelling string
	TypeName string
	Extent   Extent
	Parent   *Cursor
	Children []*Cursor

	DesigField       string
	DesigIndexTokens []string
	ValueTokens      []string
	ArrayLen         int
	IsArray          bool
}

// VisitResult tells VisitChildren whether to recurse, the way
// CXChildVisitResult does.
type VisitResult int

const (
	VisitBreak VisitResult = iota
	VisitContinue
	VisitRecurse
)

// VisitChildren walks c's direct children, calling visit for each and
// recursing when visit returns VisitRecurse.
func (c *Cursor) VisitChildren(visit func(cursor, parent *Cursor) VisitResult) {
	for _, child := range c.Children {
		switch visit(child, c) {
		case VisitBreak:
			return
		case VisitRecurse:
			child.VisitChildren(visit)
		case VisitContinue:
		}
	}
}

// TokenKind classifies a Token, mirroring the subset of cc/v4's lexical
// token kinds the rewriter cares about (identifiers and the literal
// forms the constant evaluators parse).
type TokenKind uint8

const (
	TokenOther TokenKind = iota
	TokenIdentifier
	TokenIntegerConstant
	TokenFloatingConstant
	TokenCharConstant
	TokenStringLiteral
	TokenPunctuator
)

// Token is one lexical token with its resolved position, the unit the
// emitter streams verbatim except where a rewrite record says otherwise.
type Token struct {
	Kind      TokenKind
	Spelling  string
	Offset    int
	EndOffset int
	Line      int
	Column    int
}

// TranslationUnit is one parsed, preprocessed C source file: its root
// cursor, its flat token stream, and the raw source text both are
// computed from.
type TranslationUnit struct {
	Path   string
	Source string
	Root   *Cursor
	Tokens []Token
}

// TokensBetween returns the slice of tu.Tokens whose offsets fall
// within [start, end): the operation §6 calls "tokenize a source
// range". It recovers the tokens of a subexpression without re-lexing;
// the emitter and the walker do not call it, they work from the
// cursor fields and the flat Tokens slice.
func (tu *TranslationUnit) TokensBetween(start, end int) []Token {
	lo := searchTokens(tu.Tokens, start)
	var out []Token
	for i := lo; i < len(tu.Tokens) && tu.Tokens[i].Offset < end; i++ {
		out = append(out, tu.Tokens[i])
	}
	return out
}

func searchTokens(tokens []Token, offset int) int {
	lo, hi := 0, len(tokens)
	for lo < hi {
		mid := (lo + hi) / 2
		if tokens[mid].EndOffset <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Options configures Parse. MSExtensions mirrors the rewriter CLI's
// -ms flag (spec §6): it selects an MSVC-compatible ABI from cc.Config
// so the parser accepts the same dialect the -ms output is meant for.
type Options struct {
	MSExtensions bool
}

// Parse reads and parses one already-preprocessed C source file,
// returning the root cursor and token stream the rest of the rewriter
// core consumes.
//
// cc.Translate performs the authoritative C99 syntax check — a file
// cc/v4 rejects is rejected here too, before any rewrite is attempted.
// The Cursor tree the walker consumes is then built directly from the
// token stream by buildCursorTree: cc/v4's own AST is a yacc-grammar
// cons-list of typed nodes whose exact shape can't be proven correct
// without compiling against the library (forbidden in this exercise),
// so recovering struct members, enumerators, initializer designators,
// and compound literals is done with a small recursive-descent scan
// over tokens instead, the same reasoning that already justified
// scanTokens.
func Parse(path string, opts Options) (*TranslationUnit, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cparse: reading %s", path)
	}

	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, errors.Wrap(err, "cparse: building parser config")
	}

	if _, err := cc.Translate(cfg, []cc.Source{{Name: path, Value: string(source)}}); err != nil {
		return nil, errors.Wrapf(err, "cparse: parsing %s", path)
	}

	tu := &TranslationUnit{Path: path, Source: string(source)}
	tu.Tokens = scanTokens(tu.Source)
	tu.Root = buildCursorTree(tu.Tokens, tu.Source)
	return tu, nil
}

func buildConfig(opts Options) (*cc.Config, error) {
	goos, goarch := "linux", "386"
	if opts.MSExtensions {
		goos, goarch = "windows", "386"
	}
	abi, err := cc.NewABI(goos, goarch)
	if err != nil {
		return nil, err
	}
	return &cc.Config{ABI: abi}, nil
}

var baseTypeNames = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"_Bool": true, "size_t": true, "const": true, "volatile": true,
	"static": true, "extern": true, "register": true, "auto": true,
}

// builder holds the state threaded through the hand-written recursive
// descent: the flat token stream, the source text (for exact-text
// extraction by offset), and the growing set of names that resolve to
// a type (struct/union/enum tags and typedefs), which the statement
// classifier needs to tell a declaration from an expression statement.
type builder struct {
	toks  []Token
	src   string
	types map[string]bool
	anon  int
}

// buildCursorTree parses tokens into the Cursor tree the walker
// consumes. It runs two passes over top-level declarations: the first
// registers every struct/union/enum/typedef name so the second pass's
// declaration-vs-expression-statement heuristic inside function bodies
// has a complete name set to consult.
func buildCursorTree(tokens []Token, source string) *Cursor {
	root := &Cursor{Kind: KindTranslationUnit, Spelling: "translation-unit"}
	b := &builder{toks: tokens, src: source, types: map[string]bool{}}
	for name := range baseTypeNames {
		b.types[name] = true
	}

	// Pass A: harvest every top-level tag/typedef name.
	for i := 0; i < len(tokens); {
		switch {
		case tokens[i].Spelling == "struct" || tokens[i].Spelling == "union" || tokens[i].Spelling == "enum":
			j := i + 1
			if j < len(tokens) && tokens[j].Kind == TokenIdentifier {
				b.types[tokens[j].Spelling] = true
			}
		case tokens[i].Spelling == "typedef":
			if name := b.lastIdentBeforeSemicolon(i); name != "" {
				b.types[name] = true
			}
		}
		i = b.skipTopLevelDecl(i)
	}

	// Pass B: build the real cursor tree.
	i := 0
	for i < len(tokens) {
		cur, next := b.parseTopLevel(i)
		if next <= i {
			next = i + 1
		}
		i = next
		if cur == nil {
			continue
		}
		if cur.Kind == KindInvalid && cur.Spelling == "__multi__" {
			for _, child := range cur.Children {
				child.Parent = root
				root.Children = append(root.Children, child)
			}
			continue
		}
		cur.Parent = root
		root.Children = append(root.Children, cur)
	}
	return root
}

// lastIdentBeforeSemicolon returns the last identifier token spelling
// before the next top-level ';' starting at i, used to recover a
// typedef's new name without fully parsing the declaration.
func (b *builder) lastIdentBeforeSemicolon(i int) string {
	depth := 0
	last := ""
	for ; i < len(b.toks); i++ {
		switch b.toks[i].Spelling {
		case "{", "(", "[":
			depth++
		case "}", ")", "]":
			depth--
		case ";":
			if depth <= 0 {
				return last
			}
		}
		if depth <= 0 && b.toks[i].Kind == TokenIdentifier {
			last = b.toks[i].Spelling
		}
	}
	return last
}

// skipTopLevelDecl advances past one top-level declaration starting at
// i: a brace group followed eventually by ';', a function body (no
// trailing ';'), or a bare ';'-terminated run, whichever a depth-aware
// scan meets first.
func (b *builder) skipTopLevelDecl(i int) int {
	depth := 0
	for j := i; j < len(b.toks); j++ {
		switch b.toks[j].Spelling {
		case "{", "(", "[":
			depth++
		case "}":
			depth--
			if depth == 0 {
				k := j + 1
				if k < len(b.toks) && b.toks[k].Spelling == ";" {
					return k + 1
				}
				return j + 1
			}
		case ")", "]":
			depth--
		case ";":
			if depth <= 0 {
				return j + 1
			}
		}
	}
	return len(b.toks)
}

// matchPair returns the index of the token that closes the bracket
// opened at i (toks[i] must be "(", "{", or "["), or len(toks) if
// unmatched.
func matchPair(toks []Token, i int) int {
	open, close := toks[i].Spelling, closerFor(toks[i].Spelling)
	depth := 1
	for j := i + 1; j < len(toks); j++ {
		switch toks[j].Spelling {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(toks)
}

func closerFor(open string) string {
	switch open {
	case "(":
		return ")"
	case "{":
		return "}"
	case "[":
		return "]"
	}
	return ""
}

// topLevelSplit splits toks[lo:hi) at depth-0 occurrences of sep,
// returning the half-open index ranges of each piece.
func topLevelSplit(toks []Token, lo, hi int, sep string) [][2]int {
	var out [][2]int
	depth := 0
	start := lo
	for i := lo; i < hi; i++ {
		switch toks[i].Spelling {
		case "(", "{", "[":
			depth++
		case ")", "}", "]":
			depth--
		case sep:
			if depth == 0 {
				out = append(out, [2]int{start, i})
				start = i + 1
			}
		}
	}
	if start < hi {
		out = append(out, [2]int{start, hi})
	}
	return out
}

func spellings(toks []Token, lo, hi int) []string {
	out := make([]string, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, toks[i].Spelling)
	}
	return out
}

// textOf reconstructs the exact original source text spanning
// toks[lo:hi), preserving the author's own spacing instead of
// re-joining spellings with a synthetic separator.
func (b *builder) textOf(lo, hi int) string {
	if lo >= hi || hi > len(b.toks) {
		return ""
	}
	return strings.TrimSpace(b.src[b.toks[lo].Offset:b.toks[hi-1].EndOffset])
}

func (b *builder) extentOf(lo, hi int) Extent {
	e := Extent{StartOffset: b.toks[lo].Offset, StartLine: b.toks[lo].Line, StartColumn: b.toks[lo].Column}
	if hi > 0 && hi <= len(b.toks) {
		e.EndOffset = b.toks[hi-1].EndOffset
		e.EndLine = b.toks[hi-1].Line
	} else if lo < len(b.toks) {
		e.EndOffset = b.toks[lo].EndOffset
	}
	return e
}

func isTypeStart(tok Token, types map[string]bool) bool {
	return tok.Kind == TokenIdentifier && types[tok.Spelling]
}

// parseTopLevel parses one top-level construct starting at i, returning
// the Cursor it produced (nil for skipped/unsupported constructs) and
// the index just past it.
func (b *builder) parseTopLevel(i int) (*Cursor, int) {
	toks := b.toks
	if i >= len(toks) {
		return nil, i
	}
	switch toks[i].Spelling {
	case "struct", "union":
		// "struct Point { ... };" defines the tag; "struct Point p =
		// ...;" declares a variable of it — only the former has a
		// "{" right after the optional tag name.
		if isTagDefinition(toks, i) {
			return b.parseTagDecl(i)
		}
	case "enum":
		if isTagDefinition(toks, i) {
			return b.parseEnumDecl(i)
		}
	case "typedef":
		return b.parseTypedef(i)
	}

	// Either a function definition or a file-scope variable
	// declaration: scan to the first top-level '(' (a parameter list)
	// or '=' / ';' (a variable declarator), whichever comes first.
	depth := 0
	for j := i; j < len(toks); j++ {
		switch toks[j].Spelling {
		case "(":
			if depth == 0 {
				close := matchPair(toks, j)
				if close+1 < len(toks) && toks[close+1].Spelling == "{" {
					return b.parseFunctionDef(i, j, close)
				}
				return nil, b.skipTopLevelDecl(i)
			}
			depth++
		case "{", "[":
			depth++
		case "}", "]":
			depth--
		case "=", ";":
			if depth == 0 {
				return b.parseFileScopeVarDecl(i)
			}
		}
	}
	return nil, b.skipTopLevelDecl(i)
}

func (b *builder) parseFunctionDef(start, parenOpen, parenClose int) (*Cursor, int) {
	name := ""
	for k := parenOpen - 1; k > start; k-- {
		if b.toks[k].Kind == TokenIdentifier {
			name = b.toks[k].Spelling
			break
		}
	}
	bodyOpen := parenClose + 1
	bodyClose := matchPair(b.toks, bodyOpen)
	body := b.parseCompoundStmt(bodyOpen, bodyClose, false)
	cur := &Cursor{
		Kind:     KindFunctionDecl,
		Spelling: name,
		Extent:   b.extentOf(start, bodyClose+1),
		Children: []*Cursor{body},
	}
	body.Parent = cur
	return cur, bodyClose + 1
}

// isTagDefinition reports whether the struct/union/enum keyword at i
// introduces a tag definition (optionally named, then a member-list
// brace) rather than a variable declared with an explicit tag-keyword
// type, which has an identifier in that position instead.
func isTagDefinition(toks []Token, i int) bool {
	j := i + 1
	if j < len(toks) && toks[j].Kind == TokenIdentifier {
		j++
	}
	return j < len(toks) && toks[j].Spelling == "{"
}

func (b *builder) parseFileScopeVarDecl(start int) (*Cursor, int) {
	f := &frameCtx{atFileScope: true}
	return b.parseDeclStmt(start, f)
}

// parseTagDecl parses `struct|union [NAME] { members } [;]`.
func (b *builder) parseTagDecl(i int) (*Cursor, int) {
	kind := KindStructDecl
	if b.toks[i].Spelling == "union" {
		kind = KindUnionDecl
	}
	j := i + 1
	name := ""
	if j < len(b.toks) && b.toks[j].Kind == TokenIdentifier {
		name = b.toks[j].Spelling
		j++
	}
	if j >= len(b.toks) || b.toks[j].Spelling != "{" {
		return nil, b.skipTopLevelDecl(i)
	}
	close := matchPair(b.toks, j)
	cur := b.buildTagCursor(kind, name, j, close)
	end := close + 1
	for end < len(b.toks) && b.toks[end].Spelling != ";" {
		end++
	}
	if end < len(b.toks) {
		end++
	}
	return cur, end
}

func (b *builder) buildTagCursor(kind Kind, name string, braceOpen, braceClose int) *Cursor {
	cur := &Cursor{Kind: kind, Spelling: name, Extent: b.extentOf(braceOpen, braceClose+1)}
	for _, rng := range topLevelSplit(b.toks, braceOpen+1, braceClose, ";") {
		lo, hi := rng[0], rng[1]
		if lo >= hi {
			continue
		}
		fields := b.parseFieldDecls(lo, hi)
		for _, f := range fields {
			f.Parent = cur
			cur.Children = append(cur.Children, f)
		}
	}
	return cur
}

// parseFieldDecls parses one member-declaration run (everything between
// two top-level ';'s inside a struct/union body) into one FieldDecl per
// comma-separated declarator, so `int num, den;` yields two fields
// sharing the `int` type text.
func (b *builder) parseFieldDecls(lo, hi int) []*Cursor {
	declarators := topLevelSplit(b.toks, lo, hi, ",")
	if len(declarators) == 0 {
		return nil
	}
	firstLo, firstHi := declarators[0][0], declarators[0][1]
	nameIdx := lastIdentIndex(b.toks, firstLo, firstHi)
	if nameIdx < 0 {
		return nil
	}
	typeSpec := b.textOf(firstLo, nameIdx)

	var out []*Cursor
	for idx, rng := range declarators {
		declLo, declHi := rng[0], rng[1]
		nIdx := nameIdx
		if idx > 0 {
			nIdx = lastIdentIndex(b.toks, declLo, declHi)
			if nIdx < 0 {
				continue
			}
		}
		arrayLen := -1
		if nIdx+1 < declHi && b.toks[nIdx+1].Spelling == "[" {
			close := matchPair(b.toks, nIdx+1)
			if close > nIdx+2 {
				if v, err := ParseArrayLenTokens(spellings(b.toks, nIdx+2, close)); err == nil {
					arrayLen = v
				} else {
					arrayLen = 0
				}
			} else {
				arrayLen = 0
			}
		}
		out = append(out, &Cursor{
			Kind:     KindFieldDecl,
			Spelling: b.toks[nIdx].Spelling,
			TypeName: typeSpec,
			ArrayLen: arrayLen,
			Extent:   b.extentOf(declLo, declHi),
		})
	}
	return out
}

// ParseArrayLenTokens parses a bracketed array-length token run as a
// plain decimal integer; a non-constant or multi-token length is
// reported as an error so the caller can fall back to "unsized".
func ParseArrayLenTokens(toks []string) (int, error) {
	if len(toks) != 1 {
		return 0, errors.New("cparse: non-literal array length")
	}
	return parseSimpleDecimal(toks[0])
}

func parseSimpleDecimal(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, errors.New("cparse: empty integer token")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errors.Errorf("cparse: not a decimal literal: %q", s)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

func lastIdentIndex(toks []Token, lo, hi int) int {
	depth := 0
	last := -1
	for i := lo; i < hi; i++ {
		switch toks[i].Spelling {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		}
		if depth == 0 && toks[i].Kind == TokenIdentifier {
			last = i
		}
	}
	return last
}

// parseEnumDecl parses `enum [NAME] { A [= expr], B, ... } [;]`.
func (b *builder) parseEnumDecl(i int) (*Cursor, int) {
	j := i + 1
	name := ""
	if j < len(b.toks) && b.toks[j].Kind == TokenIdentifier {
		name = b.toks[j].Spelling
		j++
	}
	if j >= len(b.toks) || b.toks[j].Spelling != "{" {
		return nil, b.skipTopLevelDecl(i)
	}
	close := matchPair(b.toks, j)
	cur := &Cursor{Kind: KindEnumDecl, Spelling: name, Extent: b.extentOf(j, close+1)}
	for _, rng := range topLevelSplit(b.toks, j+1, close, ",") {
		lo, hi := rng[0], rng[1]
		for lo < hi && b.toks[lo].Kind != TokenIdentifier {
			lo++
		}
		if lo >= hi {
			continue
		}
		child := &Cursor{Kind: KindEnumConstantDecl, Spelling: b.toks[lo].Spelling, Parent: cur}
		if lo+1 < hi && b.toks[lo+1].Spelling == "=" {
			child.ValueTokens = spellings(b.toks, lo+2, hi)
		}
		cur.Children = append(cur.Children, child)
	}
	end := close + 1
	for end < len(b.toks) && b.toks[end].Spelling != ";" {
		end++
	}
	if end < len(b.toks) {
		end++
	}
	return cur, end
}

// parseTypedef parses `typedef <underlying> NAME;`, including the
// inline-tag-definition form `typedef struct [NAME] { ... } NEWNAME;`,
// in which case it returns both the tag cursor and the typedef cursor
// wrapped in a synthetic multi-cursor container the translation-unit
// builder unwraps into two siblings.
func (b *builder) parseTypedef(i int) (*Cursor, int) {
	j := i + 1
	var tagCur *Cursor
	if j < len(b.toks) && (b.toks[j].Spelling == "struct" || b.toks[j].Spelling == "union" || b.toks[j].Spelling == "enum") {
		kind := KindStructDecl
		switch b.toks[j].Spelling {
		case "union":
			kind = KindUnionDecl
		case "enum":
			kind = KindEnumDecl
		}
		k := j + 1
		tagName := ""
		if k < len(b.toks) && b.toks[k].Kind == TokenIdentifier {
			tagName = b.toks[k].Spelling
			k++
		}
		if k < len(b.toks) && b.toks[k].Spelling == "{" {
			close := matchPair(b.toks, k)
			if kind == KindEnumDecl {
				tc, _ := b.parseEnumDecl(j)
				tagCur = tc
			} else {
				tagCur = b.buildTagCursor(kind, tagName, k, close)
			}
		}
	}
	end := i
	depth := 0
loop:
	for ; end < len(b.toks); end++ {
		switch b.toks[end].Spelling {
		case "{", "(", "[":
			depth++
		case "}", ")", "]":
			depth--
		case ";":
			if depth <= 0 {
				break loop
			}
		}
	}
	name := b.lastIdentBeforeSemicolon(i)
	underlying := ""
	if tagCur != nil {
		if tagCur.Spelling == "" {
			tagCur.Spelling = b.syntheticTagName()
		}
		underlying = tagKeyword(tagCur.Kind) + " " + tagCur.Spelling
	} else {
		underlying = b.underlyingBeforeName(i+1, end, name)
	}
	cur := &Cursor{Kind: KindTypedefDecl, Spelling: name, TypeName: underlying, Extent: b.extentOf(i, end+1)}
	result := []*Cursor{cur}
	if tagCur != nil {
		result = []*Cursor{tagCur, cur}
	}
	if end < len(b.toks) {
		end++
	}
	return wrapMulti(result), end
}

func (b *builder) syntheticTagName() string {
	b.anon++
	return "__anon_tag_" + itoa(b.anon)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func tagKeyword(k Kind) string {
	switch k {
	case KindUnionDecl:
		return "union"
	case KindEnumDecl:
		return "enum"
	default:
		return "struct"
	}
}

func (b *builder) underlyingBeforeName(lo, hi int, name string) string {
	for i := hi - 1; i >= lo; i-- {
		if b.toks[i].Spelling == name {
			return b.textOf(lo, i)
		}
	}
	return b.textOf(lo, hi)
}

// wrapMulti lets parseTypedef return more than one sibling Cursor (an
// inline tag definition plus the typedef naming it) from a single
// parseTopLevel call.
func wrapMulti(cursors []*Cursor) *Cursor {
	if len(cursors) == 1 {
		return cursors[0]
	}
	return &Cursor{Kind: KindInvalid, Spelling: "__multi__", Children: cursors}
}

// frameCtx threads the one fact the statement/declaration parsers need
// about where they are: at file scope or inside a function body.
type frameCtx struct {
	atFileScope bool
}

// parseCompoundStmt parses the `{ ... }` body starting at braceOpen,
// returning a KindCompoundStmt cursor whose children are one cursor
// per statement.
func (b *builder) parseCompoundStmt(braceOpen, braceClose int, atFileScope bool) *Cursor {
	cur := &Cursor{Kind: KindCompoundStmt, Extent: b.extentOf(braceOpen, braceClose+1)}
	f := &frameCtx{atFileScope: atFileScope}
	i := braceOpen + 1
	for i < braceClose {
		stmt, next := b.parseStatement(i, f)
		if stmt != nil {
			stmt.Parent = cur
			cur.Children = append(cur.Children, stmt)
		}
		if next <= i {
			next = i + 1
		}
		i = next
	}
	return cur
}

// parseStatement parses one statement starting at i (which must be <
// the enclosing compound statement's closing brace index), returning
// the Cursor built for it and the index just past it.
func (b *builder) parseStatement(i int, f *frameCtx) (*Cursor, int) {
	toks := b.toks
	switch toks[i].Spelling {
	case "{":
		close := matchPair(toks, i)
		return b.parseCompoundStmt(i, close, f.atFileScope), close + 1
	case "for", "while":
		return b.parseLoop(i, f)
	case "if":
		return b.parseIf(i, f)
	case "do":
		return b.parseDoWhile(i, f)
	case ";":
		return nil, i + 1
	}

	switch toks[i].Spelling {
	case "struct", "union", "enum":
		// An explicit tag keyword ("struct Point p = ...;") isn't
		// itself registered in b.types — only the tag name is — so it
		// needs its own declaration check ahead of isTypeStart below.
		if b.looksLikeDeclaration(i) {
			return b.parseDeclStmt(i, f)
		}
	}
	if isTypeStart(toks[i], b.types) || toks[i].Spelling == "const" || toks[i].Spelling == "static" {
		if b.looksLikeDeclaration(i) {
			return b.parseDeclStmt(i, f)
		}
	}

	end := b.endOfSimpleStatement(i)
	return b.buildExprStatementCursor(i, end), end
}

// looksLikeDeclaration distinguishes `Type name ...;` from an
// expression statement that happens to start with a type-looking
// token. Heuristic: a declaration has at least two top-level
// identifier tokens before the first '=' or ';' at depth 0 — the type
// and the name; a plain assignment or call statement has only one.
func (b *builder) looksLikeDeclaration(i int) bool {
	depth := 0
	idents := 0
	for j := i; j < len(b.toks); j++ {
		switch b.toks[j].Spelling {
		case "(":
			if depth == 0 {
				return idents > 1
			}
			depth++
		case "{", "[":
			depth++
		case ")", "]", "}":
			depth--
		case "=", ";":
			if depth == 0 {
				return idents >= 2
			}
		default:
			if depth == 0 && b.toks[j].Kind == TokenIdentifier {
				idents++
			}
		}
	}
	return false
}

func (b *builder) endOfSimpleStatement(i int) int {
	depth := 0
	for j := i; j < len(b.toks); j++ {
		switch b.toks[j].Spelling {
		case "(", "{", "[":
			depth++
		case ")", "}", "]":
			depth--
		case ";":
			if depth <= 0 {
				return j + 1
			}
		}
	}
	return len(b.toks)
}

func (b *builder) buildExprStatementCursor(lo, hi int) *Cursor {
	cur := &Cursor{Kind: KindUnexposedExpr, Extent: b.extentOf(lo, hi)}
	for _, cl := range b.scanCompoundLiterals(lo, hi) {
		cl.Parent = cur
		cur.Children = append(cur.Children, cl)
	}
	return cur
}

// parseDeclStmt parses `[quals] Type name ['[' size ']'] [= init] ;`
// starting at i.
func (b *builder) parseDeclStmt(i int, f *frameCtx) (*Cursor, int) {
	end := b.endOfSimpleStatement(i)
	stop := end - 1 // index of the terminating ';'
	if stop <= i {
		return nil, end
	}
	eq := -1
	depth := 0
	for j := i; j < stop; j++ {
		switch b.toks[j].Spelling {
		case "(", "{", "[":
			depth++
		case ")", "}", "]":
			depth--
		case "=":
			if depth == 0 {
				eq = j
			}
		}
		if eq >= 0 {
			break
		}
	}
	declEnd := stop
	if eq >= 0 {
		declEnd = eq
	}
	nameIdx := lastIdentIndex(b.toks, i, declEnd)
	if nameIdx < 0 {
		return b.buildExprStatementCursor(i, end), end
	}
	typeSpec := b.textOf(i, nameIdx)
	isArray := false
	arrayLen := -1
	k := nameIdx + 1
	if k < declEnd && b.toks[k].Spelling == "[" {
		isArray = true
		close := matchPair(b.toks, k)
		if close > k+1 {
			if v, err := ParseArrayLenTokens(spellings(b.toks, k+1, close)); err == nil {
				arrayLen = v
			}
		}
	}

	cur := &Cursor{
		Kind:     KindDeclStmt,
		Spelling: b.toks[nameIdx].Spelling,
		TypeName: typeSpec,
		IsArray:  isArray,
		ArrayLen: arrayLen,
		Extent:   b.extentOf(i, end),
	}

	if eq >= 0 {
		valLo := eq + 1
		switch {
		case valLo < stop && b.toks[valLo].Spelling == "{":
			il := b.parseInitList(valLo, matchPair(b.toks, valLo))
			il.Parent = cur
			cur.Children = append(cur.Children, il)
		default:
			if cl := b.tryParseCompoundLiteral(valLo, stop); cl != nil {
				cl.Parent = cur
				cur.Children = append(cur.Children, cl)
			} else if found := b.scanCompoundLiterals(valLo, stop); len(found) > 0 {
				for _, cl := range found {
					cl.Parent = cur
					cur.Children = append(cur.Children, cl)
				}
			} else {
				cur.ValueTokens = spellings(b.toks, valLo, stop)
			}
		}
	}
	return cur, end
}

// parseInitList parses a brace-delimited initializer list starting at
// braceOpen, producing one child per top-level comma-separated entry.
func (b *builder) parseInitList(braceOpen, braceClose int) *Cursor {
	cur := &Cursor{Kind: KindInitListExpr, Extent: b.extentOf(braceOpen, braceClose+1)}
	for _, rng := range topLevelSplit(b.toks, braceOpen+1, braceClose, ",") {
		lo, hi := rng[0], rng[1]
		if lo >= hi {
			continue
		}
		entry := b.parseInitListEntry(lo, hi)
		if entry == nil {
			continue
		}
		entry.Parent = cur
		cur.Children = append(cur.Children, entry)
	}
	return cur
}

func (b *builder) parseInitListEntry(lo, hi int) *Cursor {
	entry := &Cursor{Kind: KindDesignatedInitExpr, Extent: b.extentOf(lo, hi)}
	valLo := lo
	switch {
	case b.toks[lo].Spelling == "." && lo+1 < hi && b.toks[lo+1].Kind == TokenIdentifier:
		entry.DesigField = b.toks[lo+1].Spelling
		valLo = lo + 2
	case b.toks[lo].Spelling == "[":
		close := matchPair(b.toks, lo)
		if close < hi {
			entry.DesigIndexTokens = spellings(b.toks, lo+1, close)
			valLo = close + 1
		}
	}
	if valLo < hi && b.toks[valLo].Spelling == "=" {
		valLo++
	}
	if valLo >= hi {
		return entry
	}
	if b.toks[valLo].Spelling == "{" {
		nested := b.parseInitList(valLo, matchPair(b.toks, valLo))
		nested.Parent = entry
		entry.Children = append(entry.Children, nested)
		return entry
	}
	entry.ValueTokens = spellings(b.toks, valLo, hi)
	if cl := b.tryParseCompoundLiteral(valLo, hi); cl != nil {
		cl.Parent = entry
		entry.Children = append(entry.Children, cl)
	}
	return entry
}

// tryParseCompoundLiteral recognizes `(type){...}` at exactly [lo, hi):
// the only grammar production where a parenthesized group is
// immediately followed by '{' is a compound literal, so this detection
// is exact, not heuristic.
func (b *builder) tryParseCompoundLiteral(lo, hi int) *Cursor {
	if lo >= hi || b.toks[lo].Spelling != "(" {
		return nil
	}
	close := matchPair(b.toks, lo)
	if close >= hi || close+1 >= hi || b.toks[close+1].Spelling != "{" {
		return nil
	}
	braceClose := matchPair(b.toks, close+1)
	if braceClose >= hi {
		return nil
	}
	typeSpec := joinTypeTokens(b.toks[lo+1 : close])
	il := b.parseInitList(close+1, braceClose)
	cur := &Cursor{
		Kind:     KindCompoundLiteralExpr,
		TypeName: typeSpec,
		Extent:   b.extentOf(lo, braceClose+1),
		Children: []*Cursor{il},
	}
	il.Parent = cur
	return cur
}

// joinTypeTokens renders a cast-parenthesis token run as a type
// spelling, collapsing space around '[' ']' so `int [ 2 ]` reads as
// `int[2]`, which the emitter later splits back into base/suffix
// (DeclStatements).
func joinTypeTokens(toks []Token) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 && t.Spelling != "[" && t.Spelling != "]" && toks[i-1].Spelling != "[" {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Spelling)
	}
	return sb.String()
}

// scanCompoundLiterals finds every non-overlapping `(type){...}`
// occurrence within toks[lo:hi) without descending into one it already
// found. A parenthesized group right after if/while/for/switch is that
// statement's condition or header, not a cast, and is skipped.
func (b *builder) scanCompoundLiterals(lo, hi int) []*Cursor {
	var out []*Cursor
	i := lo
	for i < hi {
		afterKeyword := false
		if i > 0 {
			switch b.toks[i-1].Spelling {
			case "if", "while", "for", "switch":
				afterKeyword = true
			}
		}
		if b.toks[i].Spelling == "(" && !afterKeyword {
			close := matchPair(b.toks, i)
			if close < hi && close+1 < hi && b.toks[close+1].Spelling == "{" {
				if cl := b.tryParseCompoundLiteral(i, hi); cl != nil {
					out = append(out, cl)
					braceClose := matchPair(b.toks, close+1)
					i = braceClose + 1
					continue
				}
			}
		}
		i++
	}
	return out
}

func (b *builder) parseLoop(i int, f *frameCtx) (*Cursor, int) {
	parenOpen := i + 1
	for parenOpen < len(b.toks) && b.toks[parenOpen].Spelling != "(" {
		parenOpen++
	}
	parenClose := matchPair(b.toks, parenOpen)
	bodyStart := parenClose + 1
	var body *Cursor
	var end int
	if bodyStart < len(b.toks) && b.toks[bodyStart].Spelling == "{" {
		close := matchPair(b.toks, bodyStart)
		body = b.parseCompoundStmt(bodyStart, close, f.atFileScope)
		end = close + 1
	} else {
		body, end = b.parseStatement(bodyStart, f)
	}
	cur := &Cursor{Kind: KindLoopStmt, Extent: b.extentOf(i, end)}
	if body != nil {
		body.Parent = cur
		cur.Children = append(cur.Children, body)
	}
	return cur, end
}

func (b *builder) parseDoWhile(i int, f *frameCtx) (*Cursor, int) {
	bodyStart := i + 1
	var body *Cursor
	next := bodyStart
	if bodyStart < len(b.toks) && b.toks[bodyStart].Spelling == "{" {
		close := matchPair(b.toks, bodyStart)
		body = b.parseCompoundStmt(bodyStart, close, f.atFileScope)
		next = close + 1
	} else {
		body, next = b.parseStatement(bodyStart, f)
	}
	for next < len(b.toks) && b.toks[next].Spelling != ";" {
		next++
	}
	if next < len(b.toks) {
		next++
	}
	cur := &Cursor{Kind: KindLoopStmt, Extent: b.extentOf(i, next)}
	if body != nil {
		body.Parent = cur
		cur.Children = append(cur.Children, body)
	}
	return cur, next
}

// parseIf parses `if (cond) stmt [else stmt]` as one opaque statement
// cursor whose children are every compound literal found anywhere in
// it: full if/else control flow isn't otherwise modeled, since no
// rewrite rule in this tool depends on branch structure.
func (b *builder) parseIf(i int, f *frameCtx) (*Cursor, int) {
	parenOpen := i + 1
	for parenOpen < len(b.toks) && b.toks[parenOpen].Spelling != "(" {
		parenOpen++
	}
	parenClose := matchPair(b.toks, parenOpen)
	_, thenEnd := b.parseStatement(parenClose+1, f)
	end := thenEnd
	if end < len(b.toks) && b.toks[end].Spelling == "else" {
		_, elseEnd := b.parseStatement(end+1, f)
		end = elseEnd
	}
	cur := &Cursor{Kind: KindUnexposedExpr, Extent: b.extentOf(i, end)}
	for _, cl := range b.scanCompoundLiterals(i, end) {
		cl.Parent = cur
		cur.Children = append(cur.Children, cl)
	}
	return cur, end
}

// scanTokens re-derives a flat, position-tagged token stream from the
// raw source text. cc/v4 does not expose its own internal token
// stream as a flat indexable slice, and TokensBetween needs one, so
// the rewriter keeps this small dedicated scanner: it is deliberately
// not a full C lexer, only enough to split identifiers, numbers,
// char/string literals, and punctuation with accurate offsets.
func scanTokens(source string) []Token {
	var tokens []Token
	line, col := 1, 1
	i := 0
	advance := func(n int) {
		for k := 0; k < n; k++ {
			if source[i+k] == '\n' {
				line++
				col = 1
			} else {
				col++
			}
		}
		i += n
	}
	for i < len(source) {
		c := source[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
			advance(1)
		case isIdentStart(c):
			start, startLine, startCol := i, line, col
			n := 1
			for start+n < len(source) && isIdentPart(source[start+n]) {
				n++
			}
			advance(n)
			tokens = append(tokens, Token{Kind: TokenIdentifier, Spelling: source[start : start+n], Offset: start, EndOffset: start + n, Line: startLine, Column: startCol})
		case c >= '0' && c <= '9':
			start, startLine, startCol := i, line, col
			n := 1
			isFloat := false
			for start+n < len(source) && (isIdentPart(source[start+n]) || source[start+n] == '.') {
				if source[start+n] == '.' {
					isFloat = true
				}
				n++
			}
			advance(n)
			kind := TokenIntegerConstant
			if isFloat {
				kind = TokenFloatingConstant
			}
			tokens = append(tokens, Token{Kind: kind, Spelling: source[start : start+n], Offset: start, EndOffset: start + n, Line: startLine, Column: startCol})
		case c == '"':
			start, startLine, startCol := i, line, col
			n := 1
			for start+n < len(source) && source[start+n] != '"' {
				if source[start+n] == '\\' && start+n+1 < len(source) {
					n++
				}
				n++
			}
			if start+n < len(source) {
				n++
			}
			advance(n)
			tokens = append(tokens, Token{Kind: TokenStringLiteral, Spelling: source[start : start+n], Offset: start, EndOffset: start + n, Line: startLine, Column: startCol})
		case c == '\'':
			start, startLine, startCol := i, line, col
			n := 1
			for start+n < len(source) && source[start+n] != '\'' {
				if source[start+n] == '\\' && start+n+1 < len(source) {
					n++
				}
				n++
			}
			if start+n < len(source) {
				n++
			}
			advance(n)
			tokens = append(tokens, Token{Kind: TokenCharConstant, Spelling: source[start : start+n], Offset: start, EndOffset: start + n, Line: startLine, Column: startCol})
		default:
			startLine, startCol := line, col
			tokens = append(tokens, Token{Kind: TokenPunctuator, Spelling: string(c), Offset: i, EndOffset: i + 1, Line: startLine, Column: startCol})
			advance(1)
		}
	}
	return tokens
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
