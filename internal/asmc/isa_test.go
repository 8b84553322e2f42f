package asmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadISATableParsesEmbeddedYAML(t *testing.T) {
	isa, err := loadISATable()
	require.NoError(t, err)
	assert.NotEmpty(t, isa.rows)
}

func TestISATableLookupReturnsAllOverloads(t *testing.T) {
	isa, err := loadISATable()
	require.NoError(t, err)

	rows := isa.lookup("mov")
	assert.GreaterOrEqual(t, len(rows), 4, "lookup(\"mov\") should return mr/rm/oi/mi overloads")
	for _, r := range rows {
		assert.Equal(t, "mov", r.Mnem)
	}
}

func TestISATableLookupUnknownMnemonic(t *testing.T) {
	isa, err := loadISATable()
	require.NoError(t, err)
	assert.Empty(t, isa.lookup("frobnicate"))
}

func TestParseEncModeAllNames(t *testing.T) {
	names := []string{"none", "0f", "r", "i", "oi", "mr", "rm", "mi", "m", "shift", "j", "0f_mr", "0f_rm"}
	for _, n := range names {
		_, err := parseEncMode(n)
		assert.NoError(t, err, "parseEncMode(%q)", n)
	}
}

func TestParseEncModeUnknown(t *testing.T) {
	_, err := parseEncMode("bogus")
	assert.Error(t, err)
}
