// Command c99wrap wraps a C compiler invocation with the c99to89
// rewriter: it runs the system preprocessor, rewrites the preprocessed
// output to C89, then invokes the real compiler on the rewritten file.
//
// Ported from the original C99-to-MSVC-C89 compiler wrapper
// (compilewrap.c): argument classification, temp file naming, and the
// cl/icl MSVC-mode auto-detection are preserved from that tool.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	flag "github.com/spf13/pflag"

	"codeberg.org/saruga/c99to89/internal/rewriter"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "c99wrap: error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("c99wrap", flag.ContinueOnError)
	keep := fs.Bool("keep", false, "keep intermediate preprocessed/converted files")
	noconv := fs.Bool("noconv", false, "skip the C99-to-C89 rewrite, pass through unmodified")
	fs.SetInterspersed(false)
	// pflag reads a single-dash word such as -keep as a run of one-letter
	// shorthands, so the leading -keep/-noconv get their double-dash
	// spelling before parsing.
	args = append([]string(nil), args...)
	for i, a := range args {
		if a == "-keep" || a == "-noconv" {
			args[i] = "-" + a
		} else if a != "--keep" && a != "--noconv" {
			break
		}
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keep && *noconv {
		return fmt.Errorf("-keep and -noconv are mutually exclusive")
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("no compiler command given")
	}

	log := hclog.New(&hclog.LoggerOptions{Name: "c99wrap", Level: hclog.LevelFromString(os.Getenv("C99TO89_LOG"))})

	backend := rest[0]
	passArgs := rest[1:]
	msvc := isMSVCBackend(backend)

	cls := classifyArgs(passArgs)
	if len(cls.inputs) == 0 {
		// Nothing to preprocess/rewrite/compile — pass straight through
		// (handles e.g. `cl /help`, link-only invocations).
		return passthrough(backend, passArgs)
	}

	pid := os.Getpid()
	outBase := cls.outputBase
	preTmp := tempName(outBase, "preprocessed", pid)
	convTmp := tempName(outBase, "converted", pid)
	defer func() {
		if !*keep {
			os.Remove(preTmp)
			os.Remove(convTmp)
		}
	}()

	for _, input := range cls.inputs {
		log.Debug("preprocessing", "input", input, "out", preTmp)
		if err := runPreprocessor(backend, msvc, input, cls.extra, preTmp); err != nil {
			return err
		}

		rewritten := preTmp
		if !*noconv {
			log.Debug("rewriting", "in", preTmp, "out", convTmp)
			if err := rewriter.ConvertToFile(preTmp, convTmp, rewriter.Options{MSExtensions: msvc}); err != nil {
				return err
			}
			rewritten = convTmp
		}

		log.Debug("compiling", "input", rewritten)
		if err := runCompile(backend, msvc, rewritten, cls, input); err != nil {
			return err
		}
	}

	return nil
}

// isMSVCBackend decides MSVC mode from the backend command word after
// -keep/-noconv: a command whose base name, compared case-insensitively
// and without a .exe suffix, is exactly `cl` or `icl` flips MSVC mode
// and its implied -ms rewrite dialect.
func isMSVCBackend(backend string) bool {
	name := strings.ToLower(filepath.Base(backend))
	name = strings.TrimSuffix(name, ".exe")
	return name == "cl" || name == "icl"
}

type argClass struct {
	inputs      []string // .c/.s/.S source files to preprocess+rewrite+compile
	extra       []string // flags forwarded to both cpp and cc unchanged
	outputBase  string   // derived from an explicit -o/-Fo/-Fe/-out: flag, if any
	outputFlag  string   // the exact output-naming flag seen, for runCompile
	compileOnly bool     // -c seen: don't link
}

// classifyArgs sorts the passed-through arguments into source inputs,
// one output-naming flag (handed to the compiler only), and everything
// else (handed to both the preprocessor and the compiler); there is no
// preprocessor-only bucket. It recognizes the output-naming flags that
// differ across gcc/cl/icl dialects (-o, -Fo, -Fe, -Fi, -out:).
func classifyArgs(args []string) argClass {
	var cls argClass
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case strings.HasSuffix(a, ".c") || strings.HasSuffix(a, ".s") || strings.HasSuffix(a, ".S"):
			cls.inputs = append(cls.inputs, a)
		case a == "-c":
			cls.compileOnly = true
			cls.extra = append(cls.extra, a)
		case a == "-o" && i+1 < len(args):
			i++
			cls.outputFlag = "-o" + args[i]
			cls.outputBase = args[i]
		case strings.HasPrefix(a, "-o") && !strings.HasPrefix(a, "-out:"):
			cls.outputFlag = a
			cls.outputBase = strings.TrimPrefix(a, "-o")
		case strings.HasPrefix(a, "-Fo") || strings.HasPrefix(a, "-Fe") || strings.HasPrefix(a, "-Fi"):
			cls.outputFlag = a
			cls.outputBase = a[3:]
		case strings.HasPrefix(a, "-out:"):
			cls.outputFlag = a
			cls.outputBase = strings.TrimPrefix(a, "-out:")
		default:
			cls.extra = append(cls.extra, a)
		}
	}
	return cls
}

// tempName follows compilewrap.c's two naming schemes: `<out>_<kind>.c`
// once an output base is known, otherwise `<kind>_<pid>.c`.
func tempName(outBase, kind string, pid int) string {
	if outBase != "" {
		return fmt.Sprintf("%s_%s.c", strings.TrimSuffix(outBase, filepath.Ext(outBase)), kind)
	}
	return fmt.Sprintf("%s_%d.c", kind, pid)
}

func runPreprocessor(backend string, msvc bool, input string, extra []string, outFile string) error {
	var args []string
	if msvc {
		args = append(args, "-E", "-P")
	} else {
		args = append(args, "-E")
	}
	args = append(args, extra...)
	args = append(args, input)
	out, err := exec.Command(cppFor(backend, msvc), args...).Output()
	if err != nil {
		return fmt.Errorf("preprocessing %s: %w", input, err)
	}
	return os.WriteFile(outFile, out, 0644)
}

func cppFor(backend string, msvc bool) string {
	if msvc {
		return backend // cl/icl preprocess through the same binary with -E
	}
	return "cpp"
}

func runCompile(backend string, msvc bool, source string, cls argClass, origInput string) error {
	args := append([]string(nil), cls.extra...)
	if cls.outputFlag != "" {
		args = append(args, cls.outputFlag)
	}
	args = append(args, source)
	cmd := exec.Command(backend, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("compiling %s (from %s): %w", source, origInput, err)
	}
	return nil
}

func passthrough(backend string, args []string) error {
	cmd := exec.Command(backend, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}
