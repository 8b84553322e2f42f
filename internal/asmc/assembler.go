package asmc

import "strings"

// OutputFormat selects between an ELF32 ET_REL object and a flat binary
// image. Grounded on asmc_core.h's OutputFormat enum.
type OutputFormat int

const (
	FormatELF OutputFormat = iota
	FormatBinary
)

// Assembler holds all state for one two-pass assembly run: the growing
// section buffers, the symbol table, the current cursor (section, local
// label scope, 16/32-bit mode), and the instruction catalogue. One
// Assembler is built per input file; nothing here is process-global,
// so multiple assemblies can run concurrently in the same process.
// Grounded on asmc_core.h's AssemblerCtx.
type Assembler struct {
	pass    int
	lineNum int

	curSec Section

	text, data, bss *buffer
	relocs          []reloc

	symbols      *symbolTable
	currentScope string

	format      OutputFormat
	defaultSize int
	code16      bool

	textBase, dataBase, bssBase uint32
	org                         uint32
	hasOrg                      bool

	isa *isaTable
}

// NewAssembler constructs an Assembler ready to run both passes over a
// source buffer. The ISA catalogue is parsed fresh for this instance
// rather than shared from a package global.
func NewAssembler() (*Assembler, error) {
	isa, err := loadISATable()
	if err != nil {
		return nil, err
	}
	return &Assembler{
		text:        newBuffer(4096),
		data:        newBuffer(4096),
		bss:         newBuffer(0),
		symbols:     newSymbolTable(),
		format:      FormatELF,
		defaultSize: 4,
		isa:         isa,
	}, nil
}

// SetDefaultFormat seeds the assembler's initial output format. A `format`
// directive encountered during pass 1 still overrides it, matching the
// CLI's `--format` flag setting only the *initial* default (SPEC_FULL.md
// §2.1), mirroring how `org`/`format` are themselves pass-1-only concerns.
func (a *Assembler) SetDefaultFormat(f OutputFormat) {
	a.format = f
}

// SetUse16 seeds the assembler's initial 16-bit/32-bit mode, mirroring the
// `use16`/`use32` directives (directives.go) the same way SetDefaultFormat
// mirrors `format`: a config-file default that an in-source directive can
// still override during pass 1.
func (a *Assembler) SetUse16(use16 bool) {
	a.code16 = use16
	if use16 {
		a.defaultSize = 2
	} else {
		a.defaultSize = 4
	}
}

// AssembleResult summarizes a completed assembly for the CLI's success
// message. Text/Data hold the raw,
// unrelocated-view section contents exactly as pass 2 emitted them (the
// same bytes folded into Output), so callers and tests can inspect a
// section's encoding without re-parsing the object file format.
type AssembleResult struct {
	Output    []byte
	Text      []byte
	Data      []byte
	TextBytes int
	DataBytes int
}

// Assemble runs the full two-pass pipeline over src and returns the
// produced object bytes (ELF32 or flat binary, depending on the source's
// `format` directive and/or the assembler's preconfigured default).
// Grounded on asmc_main.c's main(): pass 1 measures section sizes and
// populates the symbol table; ELF indices are assigned once between
// passes; binary-mode section base addresses are computed from `org`;
// pass 2 re-runs identically but actually emits bytes and relocations.
func (a *Assembler) Assemble(src string) (*AssembleResult, error) {
	if err := a.runPass(src, 1); err != nil {
		return nil, err
	}

	a.symbols.assignElfIndices()

	if a.format == FormatBinary {
		base := uint32(0)
		if a.hasOrg {
			base = a.org
		}
		a.textBase = base
		a.dataBase = a.textBase + uint32(a.text.Len())
		a.bssBase = a.dataBase + uint32(a.data.Len())
	} else {
		a.textBase, a.dataBase, a.bssBase = 0, 0, 0
	}

	if err := a.runPass(src, 2); err != nil {
		return nil, err
	}

	var out []byte
	if a.format == FormatBinary {
		out = a.WriteBinary()
	} else {
		var err error
		out, err = a.WriteELF()
		if err != nil {
			return nil, err
		}
	}

	text := append([]byte(nil), a.text.Bytes()...)
	data := append([]byte(nil), a.data.Bytes()...)
	return &AssembleResult{Output: out, Text: text, Data: data, TextBytes: len(text), DataBytes: len(data)}, nil
}

// runPass resets per-pass state and processes every source line in order.
// Pass 1 runs the section buffers in size-only mode; pass 2 truncates them
// back to empty and re-emits real bytes.
func (a *Assembler) runPass(src string, pass int) error {
	a.pass = pass
	a.lineNum = 0
	a.curSec = SecText
	a.currentScope = ""
	a.text.sizeOnly = pass == 1
	a.data.sizeOnly = pass == 1
	a.bss.sizeOnly = pass == 1

	if pass == 2 {
		a.text.reset()
		a.data.reset()
		a.bss.reset()
		a.relocs = nil
	}

	for _, line := range strings.Split(src, "\n") {
		a.lineNum++
		if err := a.processLine(line); err != nil {
			return err
		}
	}
	return nil
}

// defineLabel records a label at the current section's current size,
// wrapping symbolTable.defineLabel with the cursor state only the
// Assembler knows about.
func (a *Assembler) defineLabel(name string) {
	a.symbols.defineLabel(a.pass, name, a.curSec, uint32(a.currentBuffer().Len()))
}
