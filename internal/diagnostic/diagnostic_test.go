package diagnostic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"codeberg.org/saruga/c99to89/internal/linemap"
)

func TestNewResolvesPosition(t *testing.T) {
	src := "int x;\nint y = BAD;\n"
	idx := linemap.New(src)
	d := New(Error, "t.c", idx, 15, "unresolved identifier %q", "BAD")
	require.Equal(t, 2, d.Pos.Line)
	require.Equal(t, "unresolved identifier \"BAD\"", d.Message)
}

func TestErrorStringFormat(t *testing.T) {
	d := Diagnostic{Severity: Error, File: "t.c", Pos: Position{Line: 3, Column: 5}, Message: "boom"}
	require.Equal(t, "t.c:3:5: error: boom", d.Error())
}

func TestFormatIncludesCaretUnderColumn(t *testing.T) {
	src := "int y = BAD;\n"
	idx := linemap.New(src)
	d := New(Error, "t.c", idx, 8, "bad identifier")
	out := Format(d, idx)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "int y = BAD;", lines[1])
	require.Equal(t, strings.Repeat(" ", 8)+"^", lines[2])
}

func TestSeverityString(t *testing.T) {
	require.Equal(t, "error", Error.String())
	require.Equal(t, "warning", Warning.String())
	require.Equal(t, "note", Note.String())
}
