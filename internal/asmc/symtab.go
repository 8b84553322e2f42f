package asmc

import "strings"

// Section identifies which output section a symbol's value is relative to.
// Abs is the virtual section used by equ constants: such symbols carry no
// ELF section index and are excluded from ELF symbol table output.
type Section int

const (
	SecNull Section = iota
	SecText
	SecData
	SecBss
	SecAbs
)

// Binding is a symbol's visibility, set by global/extern directives or
// defaulted to Local the first time a label is defined.
type Binding int

const (
	BindUndef Binding = iota
	BindLocal
	BindGlobal
	BindExtern
)

// Symbol is the table's value type: a name mapped to a binding, section,
// value (section-relative offset, or the literal for Abs), and the ELF
// symbol index assigned between pass 1 and pass 2 (see assembler.go).
type Symbol struct {
	Name    string
	Bind    Binding
	Section Section
	Value   uint32
	ElfIdx  int
}

// symbolTable maps a normalized symbol name to an index into a parallel,
// insertion-ordered slice — the slice order is what ELF symbol indices are
// assigned from, so it must never be reshuffled. Grounded on
// asmc_symbols.c's hash table, but lookups go through a Go map rather than
// a hand-rolled open-addressing scheme, following the same idiom the
// teacher's own symbol resolver uses (pkg/hw/cpu/mc/symbolresolver.go).
type symbolTable struct {
	symbols []Symbol       // insertion order; index == slot in this slice
	index   map[string]int // name -> index into symbols
}

func newSymbolTable() *symbolTable {
	return &symbolTable{
		symbols: make([]Symbol, 0, 256),
		index:   make(map[string]int, 32),
	}
}

// fnv1a32 hashes a name the way asmc_symbols.c's sym_hash_calc does. Also
// used by isa.go to bucket-index the instruction catalogue by mnemonic.
func fnv1a32(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// find looks up a symbol by its fully normalized name. Returns nil if
// absent, matching sym_find's semantics.
func (t *symbolTable) find(name string) *Symbol {
	idx, ok := t.index[name]
	if !ok {
		return nil
	}
	return &t.symbols[idx]
}

// add returns the existing symbol if present, otherwise appends a new
// Undef/Null/value-0 record and indexes it — idempotent like sym_add.
func (t *symbolTable) add(name string) *Symbol {
	if s := t.find(name); s != nil {
		return s
	}
	t.symbols = append(t.symbols, Symbol{Name: name})
	t.index[name] = len(t.symbols) - 1
	return &t.symbols[len(t.symbols)-1]
}

// defineLabel implements sym_define_label: on pass 1 it adds or promotes
// the symbol to Local and records its section; on every pass it (re)sets
// the symbol's value to the current size of that section. Re-running this
// identically on pass 2 is what makes the pass-1/pass-2 layouts agree by
// construction (spec.md §8 "pass equivalence").
func (t *symbolTable) defineLabel(pass int, name string, curSec Section, value uint32) {
	s := t.find(name)
	if pass == 1 {
		if s == nil {
			s = t.add(name)
		}
		if s.Bind == BindUndef {
			s.Bind = BindLocal
		}
		s.Section = curSec
	}
	if s != nil {
		s.Value = value
	}
}

// assignElfIndices runs once between pass 1 and pass 2: every non-Abs
// symbol gets a unique index 1..N in insertion order; Abs symbols get 0 and
// are excluded from ELF output (spec.md §3, §5 "index stability").
func (t *symbolTable) assignElfIndices() {
	next := 1
	for i := range t.symbols {
		if t.symbols[i].Section != SecAbs {
			t.symbols[i].ElfIdx = next
			next++
		} else {
			t.symbols[i].ElfIdx = 0
		}
	}
}

// normalizeSymbolName turns a raw `.`-prefixed local label into its fully
// qualified "<scope>$<tail>" form (asmc_symbols.c's normalize_symbol_name);
// names without a leading dot pass through unchanged, but any name over 63
// bytes is a SymbolNameTooLong error. It does not resolve the `scope.local` cross-reference shorthand —
// see resolveSymbolName for that.
func normalizeSymbolName(line int, scope, name string) (string, error) {
	if !strings.HasPrefix(name, ".") {
		if len(name) > 63 {
			return "", newErr(ErrSymbolNameTooLong, line, "%q exceeds 63 bytes", name)
		}
		return name, nil
	}
	if scope == "" {
		return "", newErr(ErrLocalBeforeGlobal, line, "local label %q referenced before any global label", name)
	}
	full := scope + "$" + name[1:]
	if len(full) > 63 {
		return "", newErr(ErrSymbolNameTooLong, line, "%q exceeds 63 bytes", full)
	}
	return full, nil
}

// resolveSymbolName is the general-purpose identifier normalizer used by
// the expression evaluator and operand parser: a leading dot is handled
// exactly as normalizeSymbolName does, and a bare "base.local" reference
// (no leading dot, a dot somewhere in the middle) is rewritten to
// "base$local" without touching the assembler's current scope — mirroring
// asmc_symbols.c's resolve_symbol_name, which lets one function reference
// another label's local symbols explicitly.
func resolveSymbolName(line int, scope, name string) (string, error) {
	if strings.HasPrefix(name, ".") {
		return normalizeSymbolName(line, scope, name)
	}
	if dot := strings.IndexByte(name, '.'); dot >= 0 && dot+1 < len(name) {
		full := name[:dot] + "$" + name[dot+1:]
		if len(full) > 63 {
			return "", newErr(ErrSymbolNameTooLong, line, "%q exceeds 63 bytes", full)
		}
		return full, nil
	}
	if len(name) > 63 {
		return "", newErr(ErrSymbolNameTooLong, line, "%q exceeds 63 bytes", name)
	}
	return name, nil
}
