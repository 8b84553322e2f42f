package asmc

import "golang.org/x/exp/slices"

// R_386 relocation type constants, per the ELF i386 psABI.
const (
	R386_32   = 1
	R386_PC32 = 2
)

// reloc is one Elf32_Rel record paired with the section it belongs to.
type reloc struct {
	offset uint32
	symbol string
	kind   int
	sec    Section
}

// currentBuffer returns the buffer backing the assembler's current
// section, matching asmc_x86.c's get_cur_buffer (SEC_TEXT is the default
// for any section other than Data/Bss, including Abs during equ
// evaluation where no bytes are ever actually emitted).
func (a *Assembler) currentBuffer() *buffer {
	switch a.curSec {
	case SecData:
		return a.data
	case SecBss:
		return a.bss
	default:
		return a.text
	}
}

func (a *Assembler) emitByte(b byte) {
	a.currentBuffer().push(b)
}

func (a *Assembler) emitWord(w uint16) {
	a.currentBuffer().pushU16(w)
}

func (a *Assembler) emitDword(d uint32) {
	a.currentBuffer().pushU32(d)
}

// emitReloc records a relocation against a symbol at the given offset in
// the current section. Only meaningful on pass 2, once ELF symbol indices
// have been assigned; pass 1 calls are no-ops since it never resolves
// symbols, matching asmc_output.c's emit_reloc.
func (a *Assembler) emitReloc(kind int, label string, offset uint32) error {
	if a.pass != 2 {
		return nil
	}
	s := a.symbols.find(label)
	if s == nil {
		return newErr(ErrUndefinedSymbol, a.lineNum, "undefined symbol %q", label)
	}
	a.relocs = append(a.relocs, reloc{offset: offset, symbol: label, kind: kind, sec: a.curSec})
	return nil
}

// sortedRelocs returns the text-section and data-section relocations
// separately, each in ascending r_offset order — x/exp/slices.SortFunc
// makes that ordering a property of the writer rather than an accident of
// append order (spec.md §5's relocation-ordering guarantee).
func (a *Assembler) sortedRelocs() (text, data []reloc) {
	for _, r := range a.relocs {
		switch r.sec {
		case SecText:
			text = append(text, r)
		case SecData:
			data = append(data, r)
		}
	}
	byOffset := func(x, y reloc) int { return int(x.offset) - int(y.offset) }
	slices.SortFunc(text, byOffset)
	slices.SortFunc(data, byOffset)
	return text, data
}

// resolveAbsAddr computes the absolute load address of a symbol for flat
// binary output: text/data/bss symbols are biased by their section's base
// address (org-relative), and Abs symbols are used as-is. Extern or
// otherwise undefined symbols have no meaningful address in binary format
// and yield a DirectiveMisuse error — asmc_symbols.c's resolve_abs_addr
// instead panics here; SPEC_FULL.md §3.4 replaces that panic with this
// error return.
func (a *Assembler) resolveAbsAddr(s *Symbol) (uint32, error) {
	switch s.Section {
	case SecText:
		return a.textBase + s.Value, nil
	case SecData:
		return a.dataBase + s.Value, nil
	case SecBss:
		return a.bssBase + s.Value, nil
	case SecAbs:
		return s.Value, nil
	default:
		return 0, newErr(ErrDirectiveMisuse, a.lineNum, "extern symbol %q has no address in binary format", s.Name)
	}
}
