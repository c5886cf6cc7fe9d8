package eval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvalFloatArithmetic(t *testing.T) {
	v, err := EvalFloat([]string{"1.5", "+", "2.5", "*", "2"})
	require.NoError(t, err)
	require.InDelta(t, 6.5, v, 1e-9)
}

func TestEvalFloatCast(t *testing.T) {
	v, err := EvalFloat([]string{"(", "double", ")", "3", "+", "1"})
	require.NoError(t, err)
	require.InDelta(t, 4.0, v, 1e-9)
}

func TestEvalFloatDivisionByZero(t *testing.T) {
	_, err := EvalFloat([]string{"1.0", "/", "0.0"})
	require.Error(t, err)
}

func TestFloatBitsHexRoundTrips(t *testing.T) {
	hex := FloatBitsHex(1.0)
	require.Equal(t, "0x"+hexUpper(math.Float64bits(1.0)), hex)
}

func hexUpper(v uint64) string {
	const digits = "0123456789ABCDEF"
	if v == 0 {
		return "0"
	}
	var b []byte
	for v > 0 {
		b = append([]byte{digits[v%16]}, b...)
		v /= 16
	}
	return string(b)
}
