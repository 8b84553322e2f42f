package asmc

// handleDirective dispatches an assembler directive by name, returning
// whether cmdName was in fact a directive (false means "treat this as an
// instruction mnemonic instead"). Grounded on asmc_parse.c's
// handle_directive, directive for directive.
func (a *Assembler) handleDirective(cmdName string, tokens []string) (bool, error) {
	switch cmdName {
	case "format":
		if len(tokens) < 2 {
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "format requires argument")
		}
		switch tokens[1] {
		case "binary":
			a.format = FormatBinary
		case "elf":
			a.format = FormatELF
		default:
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "unknown format %q", tokens[1])
		}
		return true, nil

	case "use16":
		a.defaultSize = 2
		a.code16 = true
		return true, nil

	case "use32":
		a.defaultSize = 4
		a.code16 = false
		return true, nil

	case "org":
		if a.format != FormatBinary {
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "org only valid in binary format")
		}
		if len(tokens) < 2 {
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "org requires argument")
		}
		if a.pass == 1 {
			v, err := evalNumber(a, a.lineNum, tokens[1])
			if err != nil {
				return true, err
			}
			a.org = uint32(v)
			a.hasOrg = true
		}
		return true, nil

	case "section":
		if len(tokens) < 2 {
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "section requires argument")
		}
		switch tokens[1] {
		case ".text":
			a.curSec = SecText
		case ".data":
			a.curSec = SecData
		case ".bss":
			a.curSec = SecBss
		}
		return true, nil

	case "global":
		if len(tokens) < 2 {
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "global requires argument")
		}
		if a.pass == 1 {
			a.symbols.add(tokens[1]).Bind = BindGlobal
		}
		return true, nil

	case "extern":
		if len(tokens) < 2 {
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "extern requires argument")
		}
		if a.pass == 1 {
			a.symbols.add(tokens[1]).Bind = BindExtern
		}
		return true, nil

	case "align":
		if len(tokens) < 2 {
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "align requires argument")
		}
		n, err := evalNumber(a, a.lineNum, tokens[1])
		if err != nil {
			return true, err
		}
		if n <= 0 {
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "invalid alignment %d", n)
		}
		align := uint32(n)
		if a.curSec == SecBss {
			a.bss.size = alignUp(uint32(a.bss.size), align)
		} else {
			b := a.currentBuffer()
			if a.pass == 1 {
				b.size = alignUp(uint32(b.size), align)
			} else {
				for uint32(b.size)%align != 0 {
					b.push(0)
				}
			}
		}
		return true, nil

	case "db":
		b := a.currentBuffer()
		for _, tok := range tokens[1:] {
			if len(tok) > 0 && tok[0] == '"' {
				s := tok[1:]
				for i := 0; i < len(s) && s[i] != '"'; i++ {
					b.push(s[i])
				}
			} else {
				if a.pass == 2 {
					v, err := evalNumber(a, a.lineNum, tok)
					if err != nil {
						return true, err
					}
					b.push(byte(v))
				} else {
					b.size++
				}
			}
		}
		return true, nil

	case "dw":
		b := a.currentBuffer()
		for _, tok := range tokens[1:] {
			if a.pass == 2 {
				v, err := evalNumber(a, a.lineNum, tok)
				if err != nil {
					return true, err
				}
				b.pushU16(uint16(v))
			} else {
				b.size += 2
			}
		}
		return true, nil

	case "dd":
		b := a.currentBuffer()
		for _, tok := range tokens[1:] {
			if a.pass != 2 {
				b.size += 4
				continue
			}
			if err := a.emitDD(b, tok); err != nil {
				return true, err
			}
		}
		return true, nil

	case "resb", "rb":
		if a.curSec != SecBss {
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "resb only in .bss")
		}
		if len(tokens) < 2 {
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "resb requires argument")
		}
		n, err := evalNumber(a, a.lineNum, tokens[1])
		if err != nil {
			return true, err
		}
		a.bss.size += int(n)
		return true, nil

	case "resw", "rw":
		if a.curSec != SecBss {
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "resw only in .bss")
		}
		if len(tokens) < 2 {
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "resw requires argument")
		}
		n, err := evalNumber(a, a.lineNum, tokens[1])
		if err != nil {
			return true, err
		}
		a.bss.size += int(n) * 2
		return true, nil

	case "resd", "rd":
		if a.curSec != SecBss {
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "resd only in .bss")
		}
		if len(tokens) < 2 {
			return true, newErr(ErrDirectiveMisuse, a.lineNum, "resd requires argument")
		}
		n, err := evalNumber(a, a.lineNum, tokens[1])
		if err != nil {
			return true, err
		}
		a.bss.size += int(n) * 4
		return true, nil
	}

	return false, nil
}

// emitDD handles one pass-2 `dd` operand: a numeric literal writes its
// value directly; a symbolic operand resolving to an Abs symbol writes its
// constant value; a symbolic operand naming a non-Abs symbol either emits
// an R_386_32 relocation (ELF) or its resolved load address (binary).
// Grounded on asmc_parse.c's handle_directive "dd" case.
func (a *Assembler) emitDD(b *buffer, tok string) error {
	if len(tok) > 0 && ((tok[0] >= '0' && tok[0] <= '9') || tok[0] == '-') {
		v, err := evalNumber(a, a.lineNum, tok)
		if err != nil {
			return err
		}
		b.pushU32(uint32(v))
		return nil
	}

	full, err := resolveSymbolName(a.lineNum, a.currentScope, tok)
	if err != nil {
		return err
	}
	s := a.symbols.find(full)
	switch {
	case s != nil && s.Section == SecAbs:
		b.pushU32(s.Value)
	case s != nil:
		if a.format == FormatBinary {
			addr, err := a.resolveAbsAddr(s)
			if err != nil {
				return err
			}
			b.pushU32(addr)
		} else {
			if err := a.emitReloc(R386_32, full, uint32(b.Len())); err != nil {
				return err
			}
			b.pushU32(0)
		}
	default:
		v, err := evalNumber(a, a.lineNum, tok)
		if err != nil {
			return err
		}
		b.pushU32(uint32(v))
	}
	return nil
}

func alignUp(size, align uint32) uint32 {
	return (size + align - 1) &^ (align - 1)
}
