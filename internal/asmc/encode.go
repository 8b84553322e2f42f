package asmc

// emitModRM16 emits a 16-bit ModR/M byte (plus any displacement) for a
// memory operand, restricted to the {BX,BP,SI,DI} addressing combinations
// the 8086 supports. Pass 1 emits the same number of bytes without looking
// up labels. Grounded on asmc_x86.c's emit_modrm16, including its rm_bits
// combination table and the mod==0/rm==6 "disp16-only" special case.
func (a *Assembler) emitModRM16(regOpcode int, rm Operand) error {
	base, index, disp := rm.BaseReg, rm.IndexReg, rm.Disp

	if base == -1 && index == -1 {
		val := uint16(disp)
		if rm.HasLabel && a.pass == 2 {
			if a.format != FormatBinary {
				return newErr(ErrUnsupported16BitReloc, a.lineNum, "16-bit relocations in ELF are not supported")
			}
			s := a.symbols.find(rm.Label)
			if s == nil {
				return newErr(ErrUndefinedSymbol, a.lineNum, "undefined symbol %q", rm.Label)
			}
			addr, err := a.resolveAbsAddr(s)
			if err != nil {
				return err
			}
			val = uint16(addr)
		}
		a.emitByte((0 << 6) | byte((regOpcode&7)<<3) | 6)
		a.emitWord(val)
		return nil
	}

	var hasBX, hasBP, hasSI, hasDI bool
	for _, r := range [2]int{base, index} {
		switch r {
		case -1:
		case 3:
			hasBX = true
		case 5:
			hasBP = true
		case 6:
			hasSI = true
		case 7:
			hasDI = true
		default:
			return newErr(ErrAddressingMode16Bit, a.lineNum, "invalid register in 16-bit address")
		}
	}

	rmBits := -1
	switch {
	case hasBX && hasSI && !hasBP && !hasDI:
		rmBits = 0
	case hasBX && hasDI && !hasBP && !hasSI:
		rmBits = 1
	case hasBP && hasSI && !hasBX && !hasDI:
		rmBits = 2
	case hasBP && hasDI && !hasBX && !hasSI:
		rmBits = 3
	case hasSI && !hasBX && !hasBP && !hasDI:
		rmBits = 4
	case hasDI && !hasBX && !hasBP && !hasSI:
		rmBits = 5
	case hasBP && !hasBX && !hasSI && !hasDI:
		rmBits = 6
	case hasBX && !hasBP && !hasSI && !hasDI:
		rmBits = 7
	default:
		return newErr(ErrAddressingMode16Bit, a.lineNum, "unsupported 16-bit addressing combination")
	}

	var mod byte
	disp16 := uint16(disp)

	if !rm.HasLabel {
		switch {
		case disp == 0 && rmBits != 6:
			mod = 0
		case disp >= -128 && disp <= 127:
			mod = 1
		default:
			mod = 2
		}
	} else if a.pass != 2 {
		mod = 2
	} else {
		if a.format != FormatBinary {
			return newErr(ErrUnsupported16BitReloc, a.lineNum, "16-bit relocations in ELF are not supported")
		}
		s := a.symbols.find(rm.Label)
		if s == nil {
			return newErr(ErrUndefinedSymbol, a.lineNum, "undefined symbol %q", rm.Label)
		}
		addr, err := a.resolveAbsAddr(s)
		if err != nil {
			return err
		}
		disp16 = uint16(addr)
		mod = 2
	}

	a.emitByte((mod << 6) | byte((regOpcode&7)<<3) | byte(rmBits))
	if mod == 1 {
		a.emitByte(byte(disp))
	} else if mod == 2 || (mod == 0 && rmBits == 6) {
		a.emitWord(disp16)
	}
	return nil
}

// emitModRM emits a 32-bit ModR/M byte, and a SIB byte plus displacement
// when the addressing mode needs one. Grounded on asmc_x86.c's emit_modrm:
// register-direct, absolute [disp32], base-only (with the base==EBP/5
// disp0 special case that forces a disp8), and base+index*scale via SIB
// (including the base==-1 "[index*scale+disp32]" no-base case).
func (a *Assembler) emitModRM(regOpcode int, rm Operand) error {
	if rm.Kind == OpReg {
		a.emitByte(0xC0 | byte((regOpcode&7)<<3) | byte(rm.Reg&7))
		return nil
	}

	if a.code16 {
		return a.emitModRM16(regOpcode, rm)
	}

	base, index, disp := rm.BaseReg, rm.IndexReg, rm.Disp
	buf := a.currentBuffer()

	if base == -1 && index == -1 {
		a.emitByte((0 << 6) | byte((regOpcode&7)<<3) | 5)
		val := uint32(disp)
		if rm.HasLabel && a.pass == 2 {
			if a.format == FormatBinary {
				s := a.symbols.find(rm.Label)
				if s == nil {
					return newErr(ErrUndefinedSymbol, a.lineNum, "undefined symbol %q", rm.Label)
				}
				addr, err := a.resolveAbsAddr(s)
				if err != nil {
					return err
				}
				val = addr
			} else {
				if err := a.emitReloc(R386_32, rm.Label, uint32(buf.Len())); err != nil {
					return err
				}
				val = 0
			}
		}
		a.emitDword(val)
		return nil
	}

	useSIB := index != -1 || base == 4

	if !useSIB {
		var mod byte
		rmBits := byte(base & 7)
		switch {
		case disp == 0 && base != 5:
			mod = 0
		case disp >= -128 && disp <= 127:
			mod = 1
		default:
			mod = 2
		}
		a.emitByte((mod << 6) | byte((regOpcode&7)<<3) | rmBits)
		if mod == 1 {
			a.emitByte(byte(disp))
		} else if mod == 2 || (mod == 0 && base == 5) {
			a.emitDword(uint32(disp))
		}
		return nil
	}

	var scaleBits byte
	switch rm.Scale {
	case 1:
		scaleBits = 0
	case 2:
		scaleBits = 1
	case 4:
		scaleBits = 2
	case 8:
		scaleBits = 3
	}

	indexBits := 4
	if index != -1 {
		indexBits = index & 7
	}

	if base == -1 {
		a.emitByte((0 << 6) | byte((regOpcode&7)<<3) | 4)
		a.emitByte((scaleBits << 6) | byte(indexBits<<3) | 5)
		a.emitDword(uint32(disp))
		return nil
	}

	var mod byte
	switch {
	case disp == 0 && base != 5:
		mod = 0
	case disp >= -128 && disp <= 127:
		mod = 1
	default:
		mod = 2
	}
	baseBits := base & 7

	a.emitByte((mod << 6) | byte((regOpcode&7)<<3) | 4)
	a.emitByte((scaleBits << 6) | byte(indexBits<<3) | byte(baseBits))
	if mod == 1 {
		a.emitByte(byte(disp))
	} else if mod == 2 || (mod == 0 && baseBits == 5) {
		a.emitDword(uint32(disp))
	}
	return nil
}

// assembleInstr looks up name in the ISA catalogue and emits the matching
// encoding for the given operands, trying rows in catalogue order until
// one whose operand shape and size match. Grounded line-for-line on
// asmc_x86.c's assemble_instr, including the operand-size-prefix (0x66)
// logic, the loop opcode's fixed rel8 encoding, the 0x83 imm8-only
// preference, and the cross-section PC-relative-jump rejection in binary
// format.
func (a *Assembler) assembleInstr(name string, explicitSize int, o1, o2 Operand) error {
	size := explicitSize
	if size == 0 {
		if o1.Kind == OpReg {
			size = o1.Size
		} else if o2.Kind == OpReg {
			size = o2.Size
		}
	}
	if size == 0 {
		if a.defaultSize != 0 {
			size = a.defaultSize
		} else {
			size = 4
		}
	}

	if size == 2 {
		if !a.code16 {
			a.emitByte(0x66)
		}
	} else if size == 4 {
		if a.code16 {
			a.emitByte(0x66)
		}
	}

	for _, d := range a.isa.lookup(name) {
		matchSize := d.Size
		if matchSize == 4 && size == 2 {
			matchSize = 2
		}
		if d.Size != 0 && matchSize != size {
			continue
		}

		switch d.Mode {
		case EncNone:
			if o1.Kind != OpNone {
				continue
			}
			a.emitByte(d.Op)
			return nil

		case Enc0F:
			if o1.Kind != OpNone {
				continue
			}
			a.emitByte(0x0F)
			a.emitByte(d.Op)
			return nil

		case Enc0FMR:
			if o2.Kind != OpReg || o1.Kind == OpImm {
				continue
			}
			a.emitByte(0x0F)
			a.emitByte(d.Op)
			return a.emitModRM(o2.Reg, o1)

		case Enc0FRM:
			if o1.Kind != OpReg || o2.Kind == OpImm {
				continue
			}
			a.emitByte(0x0F)
			a.emitByte(d.Op)
			return a.emitModRM(o1.Reg, o2)

		case EncR:
			if o1.Kind != OpReg {
				continue
			}
			a.emitByte(d.Op + byte(o1.Reg))
			return nil

		case EncI:
			if o1.Kind != OpImm {
				continue
			}
			if d.Op == 0xCD {
				a.emitByte(d.Op)
				a.emitByte(byte(o1.Disp))
				return nil
			}
			a.emitByte(d.Op)
			val := uint32(o1.Disp)
			buf := a.currentBuffer()
			if o1.HasLabel {
				if a.format == FormatBinary {
					s := a.symbols.find(o1.Label)
					if s == nil {
						return newErr(ErrUndefinedSymbol, a.lineNum, "undefined symbol %q", o1.Label)
					}
					addr, err := a.resolveAbsAddr(s)
					if err != nil {
						return err
					}
					val = addr
				} else {
					if err := a.emitReloc(R386_32, o1.Label, uint32(buf.Len())); err != nil {
						return err
					}
					val = 0
				}
			}
			if size == 2 {
				a.emitWord(uint16(val))
			} else {
				a.emitDword(val)
			}
			return nil

		case EncJ:
			if o1.Kind != OpImm {
				continue
			}
			buf := a.currentBuffer()

			if d.Op == 0xE2 {
				a.emitByte(d.Op)
				delta := int32(-2)
				if a.pass == 2 && o1.HasLabel {
					if s := a.symbols.find(o1.Label); s != nil && s.Section == a.curSec {
						delta = int32(s.Value) - int32(buf.Len()+1)
					}
				}
				a.emitByte(byte(int8(delta)))
				return nil
			}

			if d.Op >= 0x80 && d.Op <= 0x8F {
				a.emitByte(0x0F)
			}
			a.emitByte(d.Op)

			var val uint32
			if a.pass == 2 {
				if o1.HasLabel {
					if a.format == FormatBinary {
						s := a.symbols.find(o1.Label)
						if s == nil {
							return newErr(ErrUndefinedSymbol, a.lineNum, "undefined symbol %q", o1.Label)
						}
						if s.Section != a.curSec {
							return newErr(ErrCrossSectionJump, a.lineNum, "PC-relative jump across sections not supported in binary format")
						}
						target := int32(s.Value)
						pc := int32(buf.Len() + 4)
						val = uint32(target - pc)
					} else {
						if err := a.emitReloc(R386_PC32, o1.Label, uint32(buf.Len())); err != nil {
							return err
						}
						val = uint32(-4)
					}
				} else {
					val = uint32(o1.Disp)
				}
			}
			a.emitDword(val)
			return nil

		case EncOI:
			if o1.Kind != OpReg || o2.Kind != OpImm {
				continue
			}
			a.emitByte(d.Op + byte(o1.Reg))
			val := uint32(o2.Disp)
			buf := a.currentBuffer()
			if o2.HasLabel && a.pass == 2 {
				if a.format == FormatBinary {
					s := a.symbols.find(o2.Label)
					if s == nil {
						return newErr(ErrUndefinedSymbol, a.lineNum, "undefined symbol %q", o2.Label)
					}
					addr, err := a.resolveAbsAddr(s)
					if err != nil {
						return err
					}
					val = addr
				} else {
					if err := a.emitReloc(R386_32, o2.Label, uint32(buf.Len())); err != nil {
						return err
					}
					val = 0
				}
			}
			switch size {
			case 1:
				a.emitByte(byte(val))
			case 2:
				a.emitWord(uint16(val))
			default:
				a.emitDword(val)
			}
			return nil

		case EncMR:
			if o2.Kind != OpReg || o1.Kind == OpImm {
				continue
			}
			a.emitByte(d.Op)
			return a.emitModRM(o2.Reg, o1)

		case EncRM:
			if o1.Kind != OpReg || o2.Kind == OpImm {
				continue
			}
			a.emitByte(d.Op)
			return a.emitModRM(o1.Reg, o2)

		case EncMI:
			if o2.Kind != OpImm || o1.Kind == OpImm {
				continue
			}
			if d.Op == 0x83 && (o2.Disp < -128 || o2.Disp > 127) {
				continue
			}
			if d.Op == 0x81 && !o2.HasLabel && o2.Disp >= -128 && o2.Disp <= 127 {
				continue
			}
			a.emitByte(d.Op)
			if err := a.emitModRM(int(d.Ext), o1); err != nil {
				return err
			}
			if size == 1 || d.Op == 0x83 {
				a.emitByte(byte(o2.Disp))
			} else if size == 2 {
				a.emitWord(uint16(o2.Disp))
			} else {
				a.emitDword(uint32(o2.Disp))
			}
			return nil

		case EncM:
			if o1.Kind == OpImm || o2.Kind != OpNone {
				continue
			}
			a.emitByte(d.Op)
			return a.emitModRM(int(d.Ext), o1)

		case EncShift:
			if o1.Kind == OpImm || o2.Kind != OpImm {
				continue
			}
			if d.Op == 0xD1 || d.Op == 0xD0 {
				if o2.Disp != 1 {
					continue
				}
				a.emitByte(d.Op)
				return a.emitModRM(int(d.Ext), o1)
			}
			a.emitByte(d.Op)
			if err := a.emitModRM(int(d.Ext), o1); err != nil {
				return err
			}
			a.emitByte(byte(o2.Disp))
			return nil
		}
	}

	return newErr(ErrUnknownInstruction, a.lineNum, "unknown instruction %q", name)
}
