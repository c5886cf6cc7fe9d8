// Package symbols holds the struct/union, enum, and typedef tables the
// walker fills during phase one and the emitter consults during phase
// two. Rows are referenced by index, never by pointer, so phase two can
// run over a frozen snapshot of phase one's work without aliasing it.
package symbols

// Ref is an index into one of Table's row slices. InvalidRef is the
// sentinel for "absent" (the original used (unsigned)-1); it is never
// a valid index because Table never allocates row 0xffffffff rows.
type Ref uint32

const InvalidRef Ref = ^Ref(0)

// IsValid reports whether r refers to an actual row.
func (r Ref) IsValid() bool { return r != InvalidRef }

// Field is one member of a struct or union declaration.
type Field struct {
	Name      string
	TypeSpec  string // the member's declared type, as written in source
	ArrayLen  int    // -1 if not an array
	IsBitfield bool
	BitWidth  int
}

// TagKind distinguishes a struct from a union; both share one table
// because the compound-literal lowerer and the initializer normalizer
// (spec §4.4) treat them almost identically except for the union
// single-initializer rule.
type TagKind uint8

const (
	TagStruct TagKind = iota
	TagUnion
)

// Tag is one struct or union declaration, keyed by its spelling.
type Tag struct {
	Kind     TagKind
	Name     string // empty for an anonymous tag
	Fields   []Field
	Offset   int // byte offset of the tag's extent, for diagnostics
	Complete bool
}

// FieldIndex returns the index of the named field, or -1.
func (t *Tag) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Enumerator is one enum constant with its resolved value.
type Enumerator struct {
	Name  string
	Value int64
}

// Enum is one enum declaration.
type Enum struct {
	Name       string
	Enumerators []Enumerator
	Offset     int
}

// ValueOf returns the value of the named enumerator and true, or
// (0, false) if name is not one of this enum's constants.
func (e *Enum) ValueOf(name string) (int64, bool) {
	for _, m := range e.Enumerators {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

// Typedef is one typedef declaration. Underlying resolves through
// chains of typedefs (`typedef A B; typedef B C;`) to the tag it
// ultimately names, if any — the "cyclic reference" design note in
// spec §9 is handled by ResolveTag below bounding the chain length.
type Typedef struct {
	Name       string
	Underlying string // the spelling of the type the typedef names
	TagRef     Ref    // InvalidRef if the underlying type is not a tag
}

// Table is the complete set of symbol tables for one translation unit.
// Rows are appended during the walk and never removed or reordered, so
// a Ref handed out early stays valid for the table's whole lifetime.
type Table struct {
	Tags     []Tag
	Enums    []Enum
	Typedefs []Typedef

	tagByName     map[string]Ref
	enumByName    map[string]Ref
	typedefByName map[string]Ref
}

// New returns an empty Table ready for the walker to fill.
func New() *Table {
	return &Table{
		tagByName:     make(map[string]Ref),
		enumByName:    make(map[string]Ref),
		typedefByName: make(map[string]Ref),
	}
}

// AddTag appends t and returns its Ref. A named tag also becomes
// look-up-able by AddTag's caller re-opening it later (forward
// declaration completed by a later definition): callers pass the same
// name and get the existing Ref with Tags[ref] updated in place.
func (tb *Table) AddTag(t Tag) Ref {
	if t.Name != "" {
		if ref, ok := tb.tagByName[t.Name]; ok {
			tb.Tags[ref] = t
			return ref
		}
	}
	ref := Ref(len(tb.Tags))
	tb.Tags = append(tb.Tags, t)
	if t.Name != "" {
		tb.tagByName[t.Name] = ref
	}
	return ref
}

// Tag returns the row for ref, or nil if ref is invalid.
func (tb *Table) Tag(ref Ref) *Tag {
	if !ref.IsValid() || int(ref) >= len(tb.Tags) {
		return nil
	}
	return &tb.Tags[ref]
}

// TagByName looks up a struct/union tag by spelling.
func (tb *Table) TagByName(name string) Ref {
	if ref, ok := tb.tagByName[name]; ok {
		return ref
	}
	return InvalidRef
}

// AddEnum appends e and returns its Ref.
func (tb *Table) AddEnum(e Enum) Ref {
	ref := Ref(len(tb.Enums))
	tb.Enums = append(tb.Enums, e)
	if e.Name != "" {
		tb.enumByName[e.Name] = ref
	}
	return ref
}

// Enum returns the row for ref, or nil if ref is invalid.
func (tb *Table) Enum(ref Ref) *Enum {
	if !ref.IsValid() || int(ref) >= len(tb.Enums) {
		return nil
	}
	return &tb.Enums[ref]
}

// EnumConstant looks an identifier up across every enum, since enum
// constants share the ordinary identifier namespace in C.
func (tb *Table) EnumConstant(name string) (int64, bool) {
	for i := range tb.Enums {
		if v, ok := tb.Enums[i].ValueOf(name); ok {
			return v, true
		}
	}
	return 0, false
}

// AddTypedef appends td and returns its Ref.
func (tb *Table) AddTypedef(td Typedef) Ref {
	ref := Ref(len(tb.Typedefs))
	tb.Typedefs = append(tb.Typedefs, td)
	tb.typedefByName[td.Name] = ref
	return ref
}

// TypedefByName looks up a typedef by spelling.
func (tb *Table) TypedefByName(name string) Ref {
	if ref, ok := tb.typedefByName[name]; ok {
		return ref
	}
	return InvalidRef
}

// ResolveTag follows a type spelling through typedef chains to the tag
// it ultimately names, bounding the walk to guard against a
// pathological self-referential typedef chain reaching back on itself.
func (tb *Table) ResolveTag(typeName string) Ref {
	seen := make(map[string]bool)
	name := typeName
	for i := 0; i < len(tb.Typedefs)+1; i++ {
		if seen[name] {
			return InvalidRef
		}
		seen[name] = true
		if ref := tb.TagByName(name); ref.IsValid() {
			return ref
		}
		tdRef := tb.TypedefByName(name)
		if !tdRef.IsValid() {
			return InvalidRef
		}
		td := tb.Typedefs[tdRef]
		if td.TagRef.IsValid() {
			return td.TagRef
		}
		name = td.Underlying
	}
	return InvalidRef
}
