package asmc

import "strings"

// OperandKind is the operand variant spec.md §4.4 describes.
type OperandKind int

const (
	OpNone OperandKind = iota
	OpReg
	OpMem
	OpImm
)

var reg32Names = [8]string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi"}
var reg16Names = [8]string{"ax", "cx", "dx", "bx", "sp", "bp", "si", "di"}
var reg8Names = [8]string{"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh"}

// regInfo returns the register index 0-7 and its width in bytes for a
// register name, or (-1, 0) if s does not name a register. Grounded on
// asmc_x86.c's get_reg_info.
func regInfo(s string) (index int, size int) {
	for i := 0; i < 8; i++ {
		if s == reg32Names[i] {
			return i, 4
		}
		if s == reg16Names[i] {
			return i, 2
		}
		if s == reg8Names[i] {
			return i, 1
		}
	}
	return -1, 0
}

// is16BitAddrReg reports whether reg (a 16-bit register index) is one of
// the four registers legal in 16-bit addressing: BX, BP, SI, DI.
func is16BitAddrReg(reg int) bool {
	return reg == 3 || reg == 5 || reg == 6 || reg == 7
}

// Operand is a parsed instruction operand: a register, a memory reference
// (base/index/scale/displacement/label), or an immediate (which may itself
// carry a label for a relocatable constant). Mirrors asmc_x86.c's Operand.
type Operand struct {
	Kind     OperandKind
	Reg      int // -1 when not applicable
	Size     int
	BaseReg  int // -1 when absent
	IndexReg int // -1 when absent
	Scale    int
	Disp     int64
	HasLabel bool
	Label    string
}

func newOperand() Operand {
	return Operand{Reg: -1, BaseReg: -1, IndexReg: -1, Scale: 1}
}

// parseOperand classifies a single operand's source text into a register,
// memory, or immediate Operand. Grounded line-for-line on asmc_x86.c's
// parse_operand, including the separate code16 bracket-parsing branch and
// the 16-bit register-combination restriction.
func (a *Assembler) parseOperand(text string) (Operand, error) {
	op := newOperand()
	text = strings.TrimSpace(text)
	if text == "" {
		op.Kind = OpNone
		return op, nil
	}

	if text[0] == '[' {
		if text[len(text)-1] != ']' {
			return op, newErr(ErrSyntax, a.lineNum, "missing ']' in operand %q", text)
		}
		content := text[1 : len(text)-1]
		op.Kind = OpMem
		if a.code16 {
			return a.parseMem16(content, op)
		}
		return a.parseMem32(content, op)
	}

	if idx, sz := regInfo(text); idx != -1 {
		op.Kind = OpReg
		op.Reg = idx
		op.Size = sz
		return op, nil
	}

	op.Kind = OpImm

	if len(text) == 3 && text[0] == '\'' && text[2] == '\'' {
		op.Disp = int64(text[1])
		op.Size = 1
		return op, nil
	}

	if (text[0] >= '0' && text[0] <= '9') || text[0] == '-' {
		v, err := evalNumber(a, a.lineNum, text)
		if err != nil {
			return op, err
		}
		op.Disp = v
		if v >= -128 && v <= 255 {
			op.Size = 1
		} else {
			op.Size = 4
		}
		return op, nil
	}

	full, err := resolveSymbolName(a.lineNum, a.currentScope, text)
	if err != nil {
		return op, err
	}
	if s := a.symbols.find(full); s != nil && s.Section == SecAbs {
		op.Disp = int64(s.Value)
		if op.Disp >= -128 && op.Disp <= 255 {
			op.Size = 1
		} else {
			op.Size = 4
		}
		return op, nil
	}
	op.Label = full
	op.HasLabel = true
	op.Size = 4
	return op, nil
}

// splitSignedTerms walks a `+`/`-`-joined memory operand body, yielding
// each term alongside the sign that precedes it — shared by the 16-bit and
// 32-bit bracket parsers.
func splitSignedTerms(content string) ([]string, []int) {
	var terms []string
	var signs []int
	sign := 1
	i := 0
	n := len(content)
	for i < n && (content[i] == ' ' || content[i] == '\t') {
		i++
	}
	if i < n && (content[i] == '+' || content[i] == '-') {
		if content[i] == '-' {
			sign = -1
		}
		i++
	}
	for {
		for i < n && (content[i] == ' ' || content[i] == '\t') {
			i++
		}
		if i >= n {
			break
		}
		start := i
		for i < n && content[i] != '+' && content[i] != '-' {
			i++
		}
		term := strings.TrimSpace(content[start:i])
		if term == "" {
			if i < n && (content[i] == '+' || content[i] == '-') {
				if content[i] == '-' {
					sign = -1
				} else {
					sign = 1
				}
				i++
				continue
			}
			break
		}
		terms = append(terms, term)
		signs = append(signs, sign)
		if i < n && (content[i] == '+' || content[i] == '-') {
			if content[i] == '-' {
				sign = -1
			} else {
				sign = 1
			}
			i++
		} else {
			break
		}
	}
	return terms, signs
}

func (a *Assembler) parseMem16(content string, op Operand) (Operand, error) {
	terms, signs := splitSignedTerms(content)
	for ti, term := range terms {
		sign := signs[ti]
		if idx, sz := regInfo(term); idx != -1 {
			if sz != 2 {
				return op, newErr(ErrAddressingMode16Bit, a.lineNum, "only 16-bit registers allowed in use16")
			}
			if !is16BitAddrReg(idx) {
				return op, newErr(ErrAddressingMode16Bit, a.lineNum, "only BX,BP,SI,DI allowed in 16-bit memory address")
			}
			if sign < 0 {
				return op, newErr(ErrAddressingMode16Bit, a.lineNum, "negative register not supported")
			}
			if op.BaseReg == -1 {
				op.BaseReg = idx
			} else if op.IndexReg == -1 {
				op.IndexReg = idx
			} else {
				return op, newErr(ErrAddressingMode16Bit, a.lineNum, "too many registers in 16-bit memory address")
			}
			continue
		}
		if isNumericStart(term) {
			v, err := evalNumber(a, a.lineNum, term)
			if err != nil {
				return op, err
			}
			op.Disp += int64(sign) * v
			continue
		}
		if op.HasLabel {
			return op, newErr(ErrSyntax, a.lineNum, "multiple labels in memory operand")
		}
		if op.BaseReg != -1 || op.IndexReg != -1 {
			return op, newErr(ErrAddressingMode16Bit, a.lineNum, "labels with registers not supported in 16-bit memory operand")
		}
		if sign < 0 {
			return op, newErr(ErrSyntax, a.lineNum, "negative label not supported")
		}
		full, err := resolveSymbolName(a.lineNum, a.currentScope, term)
		if err != nil {
			return op, err
		}
		op.HasLabel = true
		op.Label = full
	}
	if op.BaseReg != -1 {
		op.Reg = op.BaseReg
	}
	return op, nil
}

func (a *Assembler) parseMem32(content string, op Operand) (Operand, error) {
	terms, signs := splitSignedTerms(content)
	for ti, term := range terms {
		sign := signs[ti]
		if star := strings.IndexByte(term, '*'); star >= 0 {
			left := strings.TrimSpace(term[:star])
			right := strings.TrimSpace(term[star+1:])
			idx, sz := regInfo(left)
			if idx == -1 || sz != 4 {
				return op, newErr(ErrOperandConstraint, a.lineNum, "index register must be 32-bit")
			}
			if sign < 0 {
				return op, newErr(ErrOperandConstraint, a.lineNum, "negative scaled index not supported")
			}
			sc, err := evalNumber(a, a.lineNum, right)
			if err != nil {
				return op, err
			}
			if sc != 1 && sc != 2 && sc != 4 && sc != 8 {
				return op, newErr(ErrOperandConstraint, a.lineNum, "scale must be 1, 2, 4 or 8")
			}
			if op.IndexReg != -1 {
				return op, newErr(ErrOperandConstraint, a.lineNum, "multiple index registers")
			}
			op.IndexReg = idx
			op.Scale = int(sc)
			continue
		}
		if idx, sz := regInfo(term); idx != -1 {
			if sz != 4 {
				return op, newErr(ErrOperandConstraint, a.lineNum, "memory register must be 32-bit")
			}
			if sign < 0 {
				return op, newErr(ErrOperandConstraint, a.lineNum, "negative register not supported")
			}
			if op.BaseReg == -1 {
				op.BaseReg = idx
			} else if op.IndexReg == -1 {
				op.IndexReg = idx
				op.Scale = 1
			} else {
				return op, newErr(ErrOperandConstraint, a.lineNum, "too many registers in memory operand")
			}
			continue
		}
		if isNumericStart(term) {
			v, err := evalNumber(a, a.lineNum, term)
			if err != nil {
				return op, err
			}
			op.Disp += int64(sign) * v
			continue
		}
		if op.HasLabel {
			return op, newErr(ErrSyntax, a.lineNum, "multiple labels in memory operand")
		}
		if op.BaseReg != -1 || op.IndexReg != -1 {
			return op, newErr(ErrOperandConstraint, a.lineNum, "labels with registers not supported in memory operand")
		}
		if sign < 0 {
			return op, newErr(ErrSyntax, a.lineNum, "negative label not supported")
		}
		full, err := resolveSymbolName(a.lineNum, a.currentScope, term)
		if err != nil {
			return op, err
		}
		op.HasLabel = true
		op.Label = full
	}
	if op.BaseReg != -1 {
		op.Reg = op.BaseReg
	}
	return op, nil
}

func isNumericStart(s string) bool {
	return s != "" && ((s[0] >= '0' && s[0] <= '9') || s[0] == '-' || s[0] == '(')
}
