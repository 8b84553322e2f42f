package asmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAssembler(t *testing.T) *Assembler {
	t.Helper()
	a, err := NewAssembler()
	require.NoError(t, err)
	return a
}

func TestEvalNumberLiterals(t *testing.T) {
	a := mustAssembler(t)
	cases := map[string]int64{
		"10":   10,
		"-10":  -10,
		"0x1F": 0x1F,
		"1Fh":  0x1F,
		"101b": 5,
		"17o":  15,
	}
	for in, want := range cases {
		got, err := evalNumber(a, 1, in)
		require.NoError(t, err, "evalNumber(%q)", in)
		assert.Equal(t, want, got, "evalNumber(%q)", in)
	}
}

func TestEvalNumberPrecedence(t *testing.T) {
	a := mustAssembler(t)
	got, err := evalNumber(a, 1, "2+3*4")
	require.NoError(t, err)
	assert.EqualValues(t, 14, got)
}

func TestEvalNumberParens(t *testing.T) {
	a := mustAssembler(t)
	got, err := evalNumber(a, 1, "(2+3)*4")
	require.NoError(t, err)
	assert.EqualValues(t, 20, got)
}

func TestEvalNumberBitwiseAndShift(t *testing.T) {
	a := mustAssembler(t)
	got, err := evalNumber(a, 1, "1<<4|1")
	require.NoError(t, err)
	assert.EqualValues(t, 17, got)
}

func TestEvalNumberDivisionByZeroKeepsLeftOperand(t *testing.T) {
	a := mustAssembler(t)
	got, err := evalNumber(a, 1, "7/0")
	require.NoError(t, err)
	assert.EqualValues(t, 7, got, "7/0 should keep the left operand (documented quirk)")
}

func TestEvalNumberUnknownIdentifierIsZero(t *testing.T) {
	a := mustAssembler(t)
	got, err := evalNumber(a, 1, "nonexistent_symbol")
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestEvalNumberAbsSymbolResolves(t *testing.T) {
	a := mustAssembler(t)
	s := a.symbols.add("BASE")
	s.Section = SecAbs
	s.Value = 100

	got, err := evalNumber(a, 1, "BASE+1")
	require.NoError(t, err)
	assert.EqualValues(t, 101, got)
}

func TestEvalNumberNonAbsSymbolIsZeroNotItsAddress(t *testing.T) {
	a := mustAssembler(t)
	a.symbols.defineLabel(1, "label_in_text", SecText, 0x40)

	got, err := evalNumber(a, 1, "label_in_text")
	require.NoError(t, err)
	assert.Zero(t, got, "non-Abs symbol is not a constant and must evaluate to 0")
}

func TestEvalNumberTrailingGarbageIsSyntaxError(t *testing.T) {
	a := mustAssembler(t)
	_, err := evalNumber(a, 1, "1 2")
	asmErr, ok := err.(*AsmError)
	require.True(t, ok)
	assert.Equal(t, ErrSyntax, asmErr.Kind)
}
