package asmc

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed isa.yaml
var isaYAML []byte

// EncMode names the operand-encoding shape an instruction row uses, per
// spec.md §4.5. Values are parsed from isa.yaml's lowercase "mode" field.
type EncMode int

const (
	EncNone EncMode = iota
	Enc0F
	EncR
	EncI
	EncOI
	EncMR
	EncRM
	EncMI
	EncM
	EncShift
	EncJ
	Enc0FMR
	Enc0FRM
)

func parseEncMode(s string) (EncMode, error) {
	switch s {
	case "none":
		return EncNone, nil
	case "0f":
		return Enc0F, nil
	case "r":
		return EncR, nil
	case "i":
		return EncI, nil
	case "oi":
		return EncOI, nil
	case "mr":
		return EncMR, nil
	case "rm":
		return EncRM, nil
	case "mi":
		return EncMI, nil
	case "m":
		return EncM, nil
	case "shift":
		return EncShift, nil
	case "j":
		return EncJ, nil
	case "0f_mr":
		return Enc0FMR, nil
	case "0f_rm":
		return Enc0FRM, nil
	default:
		return EncNone, fmt.Errorf("asmc: unknown encoding mode %q in isa.yaml", s)
	}
}

// InstrDef is one catalogue row: a mnemonic/opcode/extension/encoding-mode/
// operand-size quintuple. Mirrors asmc_x86.c's InstrDef struct.
type InstrDef struct {
	Mnem string
	Op   byte
	Ext  byte
	Mode EncMode
	Size int
}

type isaRow struct {
	Mnem string `yaml:"mnem"`
	Op   int    `yaml:"op"`
	Ext  int    `yaml:"ext"`
	Mode string `yaml:"mode"`
	Size int    `yaml:"size"`
}

// isaTable holds the parsed catalogue plus an FNV-1a bucket-chained index
// from mnemonic to the list of rows matching it, built once per Assembler
// instance (not a package global) so tests and concurrent assemblies never
// share mutable state — see SPEC_FULL.md §3.1.
type isaTable struct {
	rows    []InstrDef
	buckets map[uint32][]int
}

func loadISATable() (*isaTable, error) {
	var parsed []isaRow
	if err := yaml.Unmarshal(isaYAML, &parsed); err != nil {
		return nil, fmt.Errorf("asmc: parsing embedded isa.yaml: %w", err)
	}
	t := &isaTable{
		rows:    make([]InstrDef, 0, len(parsed)),
		buckets: make(map[uint32][]int, len(parsed)),
	}
	for _, r := range parsed {
		mode, err := parseEncMode(r.Mode)
		if err != nil {
			return nil, err
		}
		row := InstrDef{Mnem: r.Mnem, Op: byte(r.Op), Ext: byte(r.Ext), Mode: mode, Size: r.Size}
		idx := len(t.rows)
		t.rows = append(t.rows, row)
		h := fnv1a32(row.Mnem)
		t.buckets[h] = append(t.buckets[h], idx)
	}
	return t, nil
}

// lookup returns every catalogue row for mnem, in table order (more
// specific encodings first), matching isa_build_index's bucket-chain
// traversal order in asmc_x86.c.
func (t *isaTable) lookup(mnem string) []InstrDef {
	h := fnv1a32(mnem)
	idxs := t.buckets[h]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]InstrDef, 0, len(idxs))
	for _, i := range idxs {
		if t.rows[i].Mnem == mnem {
			out = append(out, t.rows[i])
		}
	}
	return out
}
