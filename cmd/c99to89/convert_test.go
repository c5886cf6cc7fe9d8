package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"codeberg.org/saruga/c99to89/internal/rewriter"
)

// TestConvertRoundTripScenarios exercises rewriter.Convert end to end,
// one fixture per compound-literal/initializer class the two-phase
// pipeline is responsible for rewriting (spec §8): the walker and the
// emitter must agree on where every splice lands, which only a real
// parse-walk-emit run through a file on disk can prove.
func TestConvertRoundTripScenarios(t *testing.T) {
	cases := []struct {
		name     string
		source   string
		contains []string
	}{
		{
			name: "omit cast for a literal nested in another aggregate's initializer",
			source: `struct Point { int x; int y; };
struct Point pts[2] = { (struct Point){1, 2}, (struct Point){3, 4} };
`,
			contains: []string{
				"pts[2]={{1, 2}, {3, 4}};",
			},
		},
		{
			name: "temp-assign for a non-constant literal used as a call argument",
			source: `struct Point { int x; int y; };
void use(struct Point p);
int n;
void f(void) {
    use((struct Point){n, 2});
}
`,
			contains: []string{
				"struct Point tmp__0 = {n, 2};",
				"use(tmp__0);",
			},
		},
		{
			name: "const-decl for a file-scope literal initializer",
			source: `struct Point { int x; int y; };
struct Point origin = (struct Point){0, 0};
`,
			contains: []string{
				"struct Point tmp__0 = {0, 0};",
				"origin=tmp__0;",
			},
		},
		{
			name: "designated array initializer gap is filled with zero",
			source: `int arr[3] = { [0] = 1 };
`,
			contains: []string{
				"arr[3]={1, 0, 0};",
			},
		},
		{
			name: "designated struct initializer holes are filled with zero",
			source: `struct Point { int x; int y; int z; };
void f(void) {
    struct Point p = { .z = 3, .x = 1 };
}
`,
			contains: []string{
				"p={1, 0, 3};",
			},
		},
		{
			name: "union designator lowers to an assignment after the declaration",
			source: `union Value { int i; float f; };
void g(void) {
    union Value v = { .f = 1.5 };
}
`,
			contains: []string{
				"v={0};",
				"v.f = 1.5;",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "input.c")
			require.NoError(t, os.WriteFile(path, []byte(tc.source), 0644))

			result, err := rewriter.Convert(path, rewriter.Options{})
			require.NoError(t, err)

			for _, want := range tc.contains {
				require.Contains(t, result.Code, want)
			}
		})
	}
}
