// Package linemap converts byte offsets into line/column positions.
//
// Its user is the diagnostic package, which resolves offsets and prints
// source context through it; the rewriter orchestrator builds an Index
// per file. The walker and the emitter do not use it: the emitter takes
// line numbers from the tokens themselves.
package linemap

import "sort"

// Index provides byte-offset-to-line/column lookups for one source file.
// Lines and columns are both 1-based, matching the convention the parser
// reports and the one the emitter must reproduce on output.
type Index struct {
	source     string
	lineStarts []int
}

// New builds an Index over source, scanning once for line starts.
func New(source string) *Index {
	idx := &Index{source: source, lineStarts: []int{0}}
	for i := 0; i < len(source); i++ {
		switch source[i] {
		case '\n':
			idx.lineStarts = append(idx.lineStarts, i+1)
		case '\r':
			if i+1 < len(source) && source[i+1] == '\n' {
				i++
			}
			idx.lineStarts = append(idx.lineStarts, i+1)
		}
	}
	return idx
}

// LineCount returns the number of lines in the source.
func (idx *Index) LineCount() int {
	return len(idx.lineStarts)
}

// Position converts a 0-based byte offset to a 1-based (line, column) pair.
func (idx *Index) Position(offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(idx.source) {
		offset = len(idx.source)
	}
	i := sort.Search(len(idx.lineStarts), func(i int) bool {
		return idx.lineStarts[i] > offset
	}) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, offset - idx.lineStarts[i] + 1
}

// Offset converts a 1-based (line, column) pair back to a byte offset,
// clamped to the bounds of the source.
func (idx *Index) Offset(line, col int) int {
	line--
	if line < 0 {
		line = 0
	}
	if line >= len(idx.lineStarts) {
		line = len(idx.lineStarts) - 1
	}
	offset := idx.lineStarts[line] + (col - 1)
	if offset < 0 {
		return 0
	}
	if offset > len(idx.source) {
		return len(idx.source)
	}
	return offset
}

// LineText returns the text of the given 1-based line, without its
// terminator, for use in diagnostic source-context rendering.
func (idx *Index) LineText(line int) string {
	line--
	if line < 0 || line >= len(idx.lineStarts) {
		return ""
	}
	start := idx.lineStarts[line]
	end := len(idx.source)
	if line+1 < len(idx.lineStarts) {
		end = idx.lineStarts[line+1]
	}
	text := idx.source[start:end]
	for len(text) > 0 && (text[len(text)-1] == '\n' || text[len(text)-1] == '\r') {
		text = text[:len(text)-1]
	}
	return text
}
