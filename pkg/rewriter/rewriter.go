// Package rewriter is the public, programmatic entry point for
// converting a preprocessed C99 translation unit to C89. For CLI
// usage, see cmd/c99to89.
package rewriter

import (
	"codeberg.org/saruga/c99to89/internal/rewriter"
)

// Options controls one conversion.
type Options struct {
	// MSExtensions targets the MSVC-compatible C89 dialect.
	MSExtensions bool
}

// Result contains the conversion output.
type Result struct {
	// Code is the rewritten C89 source.
	Code string
}

// Convert reads the C99 source at path and returns its C89 rewrite.
// Every error this package can return is fatal. A parse failure is
// wrapped with the file name (`rewriter: file: ...`); a phase-one
// failure reads `file:0:0: error: message`, without a real position.
func Convert(path string, opts Options) (Result, error) {
	res, err := rewriter.Convert(path, rewriter.Options{MSExtensions: opts.MSExtensions})
	if err != nil {
		return Result{}, err
	}
	return Result{Code: res.Code}, nil
}

// ConvertToFile converts the C99 source at inPath and writes the C89
// result to outPath.
func ConvertToFile(inPath, outPath string, opts Options) error {
	return rewriter.ConvertToFile(inPath, outPath, rewriter.Options{MSExtensions: opts.MSExtensions})
}
