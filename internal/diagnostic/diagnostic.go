// Package diagnostic formats the rewriter's fatal errors with source
// context, the way a compiler front end reports a single hard failure.
package diagnostic

import (
	"fmt"
	"strings"

	"codeberg.org/saruga/c99to89/internal/linemap"
)

// Severity classifies a Diagnostic. The rewriter itself only ever
// produces Error (every condition it detects is fatal); Warning and
// Note values are constructed only by tests.
type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Position is a 1-based line/column pair plus the byte offset it came from.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Diagnostic is one fatal condition: what went wrong and where.
type Diagnostic struct {
	Severity Severity
	File     string
	Pos      Position
	Message  string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Pos.Line, d.Pos.Column, d.Severity, d.Message)
}

// New builds a Diagnostic from a byte offset, resolving it through idx.
func New(sev Severity, file string, idx *linemap.Index, offset int, format string, args ...interface{}) Diagnostic {
	line, col := idx.Position(offset)
	return Diagnostic{
		Severity: sev,
		File:     file,
		Pos:      Position{Offset: offset, Line: line, Column: col},
		Message:  fmt.Sprintf(format, args...),
	}
}

// Format renders d plus one line of source context with a caret under
// the offending column, the way a C compiler prints a single error.
func Format(d Diagnostic, idx *linemap.Index) string {
	var b strings.Builder
	b.WriteString(d.Error())
	b.WriteByte('\n')
	line := idx.LineText(d.Pos.Line)
	if line != "" {
		b.WriteString(line)
		b.WriteByte('\n')
		col := d.Pos.Column - 1
		if col < 0 {
			col = 0
		}
		if col > len(line) {
			col = len(line)
		}
		b.WriteString(strings.Repeat(" ", col))
		b.WriteString("^\n")
	}
	return b.String()
}
