package asmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assembleOrFatal(t *testing.T, src string) *AssembleResult {
	t.Helper()
	a, err := NewAssembler()
	require.NoError(t, err)
	res, err := a.Assemble(src)
	require.NoError(t, err, "Assemble(%q)", src)
	return res
}

func TestAssembleEmptyProgramProducesBareELF(t *testing.T) {
	res := assembleOrFatal(t, "")
	assert.Empty(t, res.Text)
	assert.Empty(t, res.Data)
	assert.GreaterOrEqual(t, len(res.Output), ehdrSize)
	assert.Equal(t, []byte{0x7F, 'E', 'L', 'F'}, res.Output[:4])
}

func TestAssembleMovRegImmOpcodeImmediateEncoding(t *testing.T) {
	res := assembleOrFatal(t, "mov eax, 5\n")
	assert.Equal(t, []byte{0xB8, 0x05, 0x00, 0x00, 0x00}, res.Text)
}

func TestAssembleRetSingleByte(t *testing.T) {
	res := assembleOrFatal(t, "ret\n")
	assert.Equal(t, []byte{0xC3}, res.Text)
}

func TestAssembleEquAbsoluteSymbolNeverEmitsBytes(t *testing.T) {
	res := assembleOrFatal(t, "FOO equ 42\nmov eax, FOO\n")
	// `mov eax, imm32` is always 5 bytes regardless of the immediate's
	// origin: equ substitutes a constant, not a relocation.
	assert.Equal(t, []byte{0xB8, 0x2A, 0x00, 0x00, 0x00}, res.Text)
}

func TestAssembleForwardJumpEmitsPC32Relocation(t *testing.T) {
	src := "global _start\nsection .text\n_start:\njmp target\ntarget:\nret\n"
	a, err := NewAssembler()
	require.NoError(t, err)
	res, err := a.Assemble(src)
	require.NoError(t, err)

	// jmp rel32 (E9 + disp32, here -4 relative to the relocated field)
	// followed by ret (1 byte).
	assert.Equal(t, []byte{0xE9, 0xFC, 0xFF, 0xFF, 0xFF, 0xC3}, res.Text)

	require.Len(t, a.relocs, 1)
	r := a.relocs[0]
	assert.Equal(t, R386_PC32, r.kind)
	assert.EqualValues(t, 1, r.offset)
	assert.Equal(t, SecText, r.sec)
}

func TestAssembleUnknownInstructionIsUnknownInstructionError(t *testing.T) {
	a, err := NewAssembler()
	require.NoError(t, err)
	_, err = a.Assemble("bogus eax, eax\n")
	asmErr, ok := err.(*AsmError)
	require.True(t, ok)
	assert.Equal(t, ErrUnknownInstruction, asmErr.Kind)
}

func TestAssembleUndefinedSymbolInELFModeErrors(t *testing.T) {
	a, err := NewAssembler()
	require.NoError(t, err)
	_, err = a.Assemble("jmp nowhere\n")
	asmErr, ok := err.(*AsmError)
	require.True(t, ok)
	assert.Equal(t, ErrUndefinedSymbol, asmErr.Kind)
}

func TestAssembleFlatBinaryWithOrgConcatenatesSections(t *testing.T) {
	src := "format binary\norg 0x7C00\nmov eax, 1\nsection .data\ndd 7\n"
	res := assembleOrFatal(t, src)
	assert.Equal(t, []byte{0xB8, 0x01, 0x00, 0x00, 0x00}, res.Text)
	assert.Equal(t, []byte{0x07, 0x00, 0x00, 0x00}, res.Data)
	assert.Equal(t, append(append([]byte{}, res.Text...), res.Data...), res.Output)
}

func TestAssembleCrossSectionJumpRejectedInBinaryFormat(t *testing.T) {
	src := "format binary\nsection .text\njmp data_label\nsection .data\ndata_label:\ndd 1\n"
	a, err := NewAssembler()
	require.NoError(t, err)
	_, err = a.Assemble(src)
	asmErr, ok := err.(*AsmError)
	require.True(t, ok)
	assert.Equal(t, ErrCrossSectionJump, asmErr.Kind)
}

func TestAssembleSIBAddressing(t *testing.T) {
	// [eax + ebx*4 + 8] exercises the SIB encoding path end to end:
	// 8B (mov r32, r/m32) + ModRM(mod=01,reg=000,rm=100) +
	// SIB(scale=10,index=011,base=000) + disp8.
	res := assembleOrFatal(t, "mov eax, [eax+ebx*4+8]\n")
	assert.Equal(t, []byte{0x8B, 0x44, 0x98, 0x08}, res.Text)
}

func TestAssembleAddRegImmUsesFirstMatchingCatalogueRow(t *testing.T) {
	// add eax, 2: the 0x81 /0 imm32 row is skipped because 2 fits in a
	// signed byte, so the first row that matches is the 0x83 /0 imm8 row.
	res := assembleOrFatal(t, "add eax, 2\n")
	assert.Equal(t, []byte{0x83, 0xC0, 0x02}, res.Text)
}

func TestAssembleMovByteRegImm(t *testing.T) {
	res := assembleOrFatal(t, "mov al, 0xFF\n")
	assert.Equal(t, []byte{0xB0, 0xFF}, res.Text)
}

func TestAssembleDBEmitsRawBytesAndString(t *testing.T) {
	src := "section .data\ndb \"AB\", 1\n"
	res := assembleOrFatal(t, src)
	assert.Equal(t, []byte{'A', 'B', 0x01}, res.Data)
}
