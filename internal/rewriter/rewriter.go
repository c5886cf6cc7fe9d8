// Package rewriter orchestrates the two-phase pipeline: parse, walk
// (phase one), then emit (phase two). It is the seam pkg/rewriter and
// both CLIs call into.
package rewriter

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"codeberg.org/saruga/c99to89/internal/cparse"
	"codeberg.org/saruga/c99to89/internal/diagnostic"
	"codeberg.org/saruga/c99to89/internal/emitter"
	"codeberg.org/saruga/c99to89/internal/linemap"
	"codeberg.org/saruga/c99to89/internal/walker"
)

// Options controls one Convert call.
type Options struct {
	// MSExtensions selects the MSVC-compatible dialect (the rewriter
	// CLI's -ms flag, spec §6).
	MSExtensions bool
	// Logger receives structured operational detail; a nop logger is
	// used if nil.
	Logger hclog.Logger
}

// Result is the outcome of converting one translation unit.
type Result struct {
	Code string
}

// Convert reads, parses, and rewrites the C99 source at path into C89
// text. Every failure mode is fatal (spec §7): Convert returns the
// first error it hits and no partial output. The error carries no
// source context line.
func Convert(path string, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	log.Debug("parsing", "path", path, "ms", opts.MSExtensions)
	tu, err := cparse.Parse(path, cparse.Options{MSExtensions: opts.MSExtensions})
	if err != nil {
		return nil, errors.Wrapf(err, "rewriter: %s", path)
	}

	idx := linemap.New(tu.Source)

	log.Debug("walking", "path", path)
	w := walker.New(tu)
	res, err := w.Walk()
	if err != nil {
		return nil, diagnosticError(path, idx, err)
	}

	log.Debug("emitting", "path", path)
	em := emitter.New(tu, res.Symbols, res.Rewrite)
	code := em.Emit()

	return &Result{Code: code}, nil
}

// ConvertToFile runs Convert and writes the result to outPath,
// matching the rewriter CLI's <input.c> <output.c> contract (spec §6).
// On error, no output file is written or left partially written.
func ConvertToFile(inPath, outPath string, opts Options) error {
	result, err := Convert(inPath, opts)
	if err != nil {
		return err
	}
	tmp := outPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(result.Code), 0644); err != nil {
		return errors.Wrapf(err, "rewriter: writing %s", tmp)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "rewriter: finalizing %s", outPath)
	}
	return nil
}

// diagnosticError wraps a phase-one failure with the offending file's
// name as a Diagnostic error. Its position is left unset, so the
// message reads `file:0:0: error: ...`; idx is not consulted.
func diagnosticError(path string, idx *linemap.Index, err error) error {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.Error,
		File:     path,
		Message:  err.Error(),
	}
	return errors.New(d.Error())
}
