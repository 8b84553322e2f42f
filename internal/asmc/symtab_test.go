package asmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFNV1a32KnownValue(t *testing.T) {
	// FNV-1a 32-bit of the empty string is the offset basis itself.
	assert.EqualValues(t, 2166136261, fnv1a32(""))
}

func TestSymbolTableAddIsIdempotent(t *testing.T) {
	st := newSymbolTable()
	a := st.add("foo")
	b := st.add("foo")
	assert.Same(t, a, b, "add() must return the same record for a repeated name")
	assert.Len(t, st.symbols, 1)
}

func TestSymbolTableFindMissing(t *testing.T) {
	st := newSymbolTable()
	assert.Nil(t, st.find("nope"))
}

func TestDefineLabelOnlyPromotesBindingOnPass1(t *testing.T) {
	st := newSymbolTable()
	st.defineLabel(1, "start", SecText, 0)
	s := st.find("start")
	require.NotNil(t, s)
	assert.Equal(t, BindLocal, s.Bind)
	assert.Equal(t, SecText, s.Section)

	// global directive promotes binding ahead of the label definition.
	st.add("start").Bind = BindGlobal
	st.defineLabel(1, "start", SecText, 4)
	assert.Equal(t, BindGlobal, st.find("start").Bind, "defineLabel must not demote an existing Global binding")

	// pass 2 updates the value but does not touch section/binding state.
	st.defineLabel(2, "start", SecData, 8)
	s = st.find("start")
	assert.EqualValues(t, 8, s.Value)
	assert.Equal(t, SecText, s.Section, "pass 2 defineLabel must not reassign section")
}

func TestAssignElfIndicesSkipsAbs(t *testing.T) {
	st := newSymbolTable()
	st.defineLabel(1, "_start", SecText, 0)
	c := st.add("CONST")
	c.Section = SecAbs
	c.Value = 42
	st.defineLabel(1, "data_sym", SecData, 0)

	st.assignElfIndices()

	assert.Zero(t, st.find("CONST").ElfIdx)

	seen := map[int]bool{}
	for _, name := range []string{"_start", "data_sym"} {
		idx := st.find(name).ElfIdx
		assert.NotZero(t, idx, "%s should get a nonzero ElfIdx", name)
		assert.False(t, seen[idx], "duplicate ElfIdx %d", idx)
		seen[idx] = true
	}
}

func TestNormalizeSymbolNameLocalLabel(t *testing.T) {
	got, err := normalizeSymbolName(1, "loop_fn", ".again")
	require.NoError(t, err)
	assert.Equal(t, "loop_fn$again", got)
}

func TestNormalizeSymbolNameLocalBeforeGlobalIsAnError(t *testing.T) {
	_, err := normalizeSymbolName(1, "", ".again")
	require.Error(t, err)
	asmErr, ok := err.(*AsmError)
	require.True(t, ok)
	assert.Equal(t, ErrLocalBeforeGlobal, asmErr.Kind)
}

func TestNormalizeSymbolNameTooLong(t *testing.T) {
	long := ""
	for i := 0; i < 64; i++ {
		long += "a"
	}
	_, err := normalizeSymbolName(1, "", long)
	asmErr, ok := err.(*AsmError)
	require.True(t, ok)
	assert.Equal(t, ErrSymbolNameTooLong, asmErr.Kind)
}

func TestResolveSymbolNameCrossReference(t *testing.T) {
	got, err := resolveSymbolName(1, "unrelated_scope", "loop_fn.again")
	require.NoError(t, err)
	assert.Equal(t, "loop_fn$again", got)
}

func TestResolveSymbolNamePlainIdentifierPassesThrough(t *testing.T) {
	got, err := resolveSymbolName(1, "scope", "plain_name")
	require.NoError(t, err)
	assert.Equal(t, "plain_name", got)
}
