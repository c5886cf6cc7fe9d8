package rewrite

import (
	"strings"

	"github.com/pkg/errors"

	"codeberg.org/saruga/c99to89/internal/symbols"
)

// Normalize resolves a C99 designated initializer into the plain
// positional form C89 accepts: every element gets an explicit value in
// declaration order, gaps left by skipped designators are filled with
// a zero initializer (`0` for scalar fields, `{0}` for aggregate
// fields), and a union initializer that targets anything but the
// union's first member is flagged for assignment-lowering instead of
// inline initialization (spec §4.4's union single-initializer rule).
func Normalize(rec ILRecord, tags *symbols.Table) (NormalizedInit, error) {
	if rec.IsArray {
		return NormalizeArray(rec)
	}
	tag := tags.Tag(rec.TagRef)
	if tag == nil {
		return NormalizedInit{}, errors.Errorf("rewrite: normalize: unknown tag for initializer at %d", rec.Start)
	}

	if tag.Kind == symbols.TagUnion {
		return normalizeUnion(rec, tag)
	}
	return normalizeStruct(rec, tag, tags)
}

// NormalizeArray resolves a plain array's designated initializer
// (`{[2] = 5, 6}`) into positional form the same way normalizeStruct
// does for a struct, except a scalar array has no field table to
// consult — its declared length is the only shape information
// available, so every gap is filled with a scalar zero.
func NormalizeArray(rec ILRecord) (NormalizedInit, error) {
	if rec.ArrayLen < 0 {
		return NormalizedInit{}, errors.Errorf("rewrite: normalize: array initializer at %d has no known length", rec.Start)
	}
	elements := make([]string, rec.ArrayLen)
	filled := make([]bool, rec.ArrayLen)

	nextPos := 0
	for _, d := range rec.Designators {
		idx := nextPos
		if d.Index >= 0 {
			idx = d.Index
		}
		if idx < 0 || idx >= len(elements) {
			return NormalizedInit{}, errors.Errorf("rewrite: normalize: array index %d out of range (len %d)", idx, rec.ArrayLen)
		}
		elements[idx] = d.Expr
		filled[idx] = true
		nextPos = idx + 1
	}
	for i := range elements {
		if !filled[i] {
			elements[i] = "0"
		}
	}
	return NormalizedInit{Elements: elements}, nil
}

func normalizeUnion(rec ILRecord, tag *symbols.Tag) (NormalizedInit, error) {
	if len(rec.Designators) == 0 {
		return NormalizedInit{}, nil
	}
	if len(rec.Designators) > 1 {
		return NormalizedInit{}, errors.Errorf("rewrite: normalize: union initializer at %d has more than one member", rec.Start)
	}
	d := rec.Designators[0]
	fieldName := d.Field
	if fieldName == "" {
		if len(tag.Fields) == 0 {
			return NormalizedInit{}, errors.Errorf("rewrite: normalize: union %q has no members", tag.Name)
		}
		fieldName = tag.Fields[0].Name
	}
	if fieldName == tag.Fields[0].Name {
		// C89 allows initializing a union's first member positionally.
		return NormalizedInit{Elements: []string{d.Expr}}, nil
	}
	return NormalizedInit{UnionField: fieldName, UnionExpr: d.Expr}, nil
}

func normalizeStruct(rec ILRecord, tag *symbols.Tag, tags *symbols.Table) (NormalizedInit, error) {
	elements := make([]string, len(tag.Fields))
	filled := make([]bool, len(tag.Fields))

	nextPos := 0
	for _, d := range rec.Designators {
		idx := nextPos
		switch {
		case d.Field != "":
			i := tag.FieldIndex(d.Field)
			if i < 0 {
				return NormalizedInit{}, errors.Errorf("rewrite: normalize: %q has no field %q", tag.Name, d.Field)
			}
			idx = i
		case d.Index >= 0:
			idx = d.Index
		}
		if idx < 0 || idx >= len(elements) {
			return NormalizedInit{}, errors.Errorf("rewrite: normalize: designator index %d out of range for %q", idx, tag.Name)
		}
		elements[idx] = d.Expr
		filled[idx] = true
		nextPos = idx + 1
	}

	for i := range elements {
		if filled[i] {
			continue
		}
		elements[i] = zeroValueFor(tag.Fields[i], tags)
	}

	return NormalizedInit{Elements: elements}, nil
}

// zeroValueFor returns the C89 zero-initializer text for a gap left by
// a skipped designator: `{0}` for an array member or a non-pointer
// member whose type names a struct or union (directly or through a
// typedef chain, resolved via tags), plain `0` for anything else.
func zeroValueFor(f symbols.Field, tags *symbols.Table) string {
	if f.ArrayLen >= 0 {
		return "{0}"
	}
	words := strings.Fields(f.TypeSpec)
	if len(words) > 0 && !strings.Contains(f.TypeSpec, "*") && tags.ResolveTag(words[len(words)-1]).IsValid() {
		return "{0}"
	}
	return "0"
}
