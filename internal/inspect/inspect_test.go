package inspect

import (
	"debug/elf"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hobbyos/asmc/internal/asmc"
)

func writeTempObject(t *testing.T, src string) string {
	t.Helper()
	a, err := asmc.NewAssembler()
	require.NoError(t, err)
	res, err := a.Assemble(src)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.o")
	require.NoError(t, os.WriteFile(path, res.Output, 0o644))
	return path
}

func TestBuildELFViewRendersKnownSections(t *testing.T) {
	path := writeTempObject(t, "global _start\nsection .text\n_start:\nmov eax, 1\nret\n")

	root, err := buildELFView(path)
	require.NoError(t, err)
	assert.NotNil(t, root)
}

func TestBuildELFViewRejectsMissingFile(t *testing.T) {
	_, err := buildELFView(filepath.Join(t.TempDir(), "does-not-exist.o"))
	assert.Error(t, err)
}

func TestBuildBinaryViewShowsByteCountInTitle(t *testing.T) {
	data := []byte{0xB8, 0x01, 0x00, 0x00, 0x00, 0xC3}
	view := buildBinaryView(data)
	require.NotNil(t, view)
	assert.Contains(t, view.GetTitle(), "6 bytes")
}

func TestBuildBinaryViewTruncatesAfter4096Bytes(t *testing.T) {
	data := make([]byte, 5000)
	view := buildBinaryView(data)
	assert.Contains(t, view.GetTitle(), "5000 bytes")
	assert.Contains(t, view.GetText(true), "more bytes")
}

func TestSectionNameOutOfRangeFallsBackToIndexString(t *testing.T) {
	f := &elf.File{}
	assert.Equal(t, elf.SectionIndex(99).String(), sectionName(f, 99))
}

func TestHeaderCellIsNotSelectable(t *testing.T) {
	cell := headerCell("Name")
	require.NotNil(t, cell)
	assert.Equal(t, "Name", cell.Text)
	assert.True(t, cell.NotSelectable)
}
