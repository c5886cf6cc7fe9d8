// Command c99to89 rewrites one preprocessed C99 translation unit into
// C89 text acceptable to strict C89 compilers.
//
// Usage:
//
//	c99to89 [-ms] <input.c> <output.c>
package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"codeberg.org/saruga/c99to89/internal/rewriter"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := os.Args[1:]
	msExtensions := false
	var positional []string

	for _, a := range args {
		switch a {
		case "-ms":
			msExtensions = true
		case "-h", "--help":
			usage()
			return nil
		default:
			positional = append(positional, a)
		}
	}

	if len(positional) != 2 {
		usage()
		return fmt.Errorf("expected exactly 2 positional arguments, got %d", len(positional))
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "c99to89",
		Level: hclog.LevelFromString(os.Getenv("C99TO89_LOG")),
	})

	return rewriter.ConvertToFile(positional[0], positional[1], rewriter.Options{
		MSExtensions: msExtensions,
		Logger:       log,
	})
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: c99to89 [-ms] <input.c> <output.c>\n")
}
