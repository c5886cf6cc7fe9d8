package linemap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPositionFirstLine(t *testing.T) {
	idx := New("int x;\nint y;\n")
	line, col := idx.Position(0)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)
}

func TestPositionSecondLine(t *testing.T) {
	idx := New("int x;\nint y;\n")
	line, col := idx.Position(7)
	require.Equal(t, 2, line)
	require.Equal(t, 1, col)
}

func TestPositionMidLine(t *testing.T) {
	idx := New("int x;\nint y;\n")
	line, col := idx.Position(11) // 'y' in "int y;"
	require.Equal(t, 2, line)
	require.Equal(t, 5, col)
}

func TestOffsetRoundTrip(t *testing.T) {
	src := "int x;\nint y;\n"
	idx := New(src)
	for _, offset := range []int{0, 3, 7, 11, len(src) - 1} {
		line, col := idx.Position(offset)
		require.Equal(t, offset, idx.Offset(line, col))
	}
}

func TestLineTextStripsTerminator(t *testing.T) {
	idx := New("int x;\r\nint y;\n")
	require.Equal(t, "int x;", idx.LineText(1))
	require.Equal(t, "int y;", idx.LineText(2))
}

func TestPositionClampsOutOfRange(t *testing.T) {
	idx := New("abc")
	line, col := idx.Position(1000)
	require.Equal(t, 1, line)
	require.Equal(t, 4, col)
}
