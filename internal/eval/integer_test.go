package eval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func lookupNone(string) (int64, bool) { return 0, false }

func TestEvalIntArithmetic(t *testing.T) {
	v, err := EvalInt([]string{"1", "+", "2", "*", "3"}, lookupNone)
	require.NoError(t, err)
	require.Equal(t, int64(7), v)
}

func TestEvalIntParens(t *testing.T) {
	v, err := EvalInt([]string{"(", "1", "+", "2", ")", "*", "3"}, lookupNone)
	require.NoError(t, err)
	require.Equal(t, int64(9), v)
}

func TestEvalIntUnary(t *testing.T) {
	v, err := EvalInt([]string{"-", "5", "+", "~", "0"}, lookupNone)
	require.NoError(t, err)
	require.Equal(t, int64(-6), v)
}

func TestEvalIntEnumLookup(t *testing.T) {
	lookup := func(name string) (int64, bool) {
		if name == "RED" {
			return 2, true
		}
		return 0, false
	}
	v, err := EvalInt([]string{"RED", "+", "1"}, lookup)
	require.NoError(t, err)
	require.Equal(t, int64(3), v)
}

func TestEvalIntUnresolvedIdentifier(t *testing.T) {
	_, err := EvalInt([]string{"UNKNOWN"}, lookupNone)
	require.Error(t, err)
}

func TestEvalIntDivisionByZero(t *testing.T) {
	_, err := EvalInt([]string{"1", "/", "0"}, lookupNone)
	require.Error(t, err)
}

func TestParseIntLiteralBases(t *testing.T) {
	cases := map[string]int64{
		"10":    10,
		"0x1F":  31,
		"010":   8,
		"42U":   42,
		"42UL":  42,
		"0x10L": 16,
	}
	for lit, want := range cases {
		v, err := ParseIntLiteral(lit)
		require.NoErrorf(t, err, "literal %q", lit)
		require.Equalf(t, want, v, "literal %q", lit)
	}
}

func TestEvalIntCharConstant(t *testing.T) {
	v, err := EvalInt([]string{"'A'"}, lookupNone)
	require.NoError(t, err)
	require.Equal(t, int64('A'), v)
}
