package asmc

import (
	"bytes"
	"encoding/binary"
)

// ELF32 constants, per the i386 psABI. Field names mirror asmc_core.h.
const (
	etRel  = 1
	emI386 = 3

	shtProgbits = 1
	shtSymtab   = 2
	shtStrtab   = 3
	shtNobits   = 8
	shtRel      = 9

	shfWrite     = 1
	shfAlloc     = 2
	shfExecinstr = 4

	stbLocal  = 0
	stbGlobal = 1

	sttNotype  = 0
	sttObject  = 1
	sttFunc    = 2
	shnUndef   = 0
)

func elfSTInfo(bind, typ byte) byte { return (bind << 4) + (typ & 0xf) }
func elfRInfo(sym uint32, typ int) uint32 { return (sym << 8) + uint32(byte(typ)) }

type elf32Ehdr struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type elf32Shdr struct {
	Name      uint32
	Type      uint32
	Flags     uint32
	Addr      uint32
	Offset    uint32
	Size      uint32
	Link      uint32
	Info      uint32
	Addralign uint32
	Entsize   uint32
}

type elf32Sym struct {
	Name  uint32
	Value uint32
	Size  uint32
	Info  byte
	Other byte
	Shndx uint16
}

type elf32Rel struct {
	Offset uint32
	Info   uint32
}

const (
	ehdrSize = 52 // 16 + 2+2+4+4+4+4+4 + 2*6
	shdrSize = 40
	symSize  = 16
	relSize  = 8
)

// WriteELF produces a minimal ET_REL ELF32 object: .text/.data/.bss
// PROGBITS/NOBITS sections, a .symtab/.strtab pair, .shstrtab, and
// .rel.text/.rel.data relocation sections. Section and symbol table
// layout is grounded verbatim on asmc_output.c's write_elf, including the
// documented sh_info-on-.symtab compatibility quirk (set to the total
// symbol count, not the conventional "index of first global symbol").
func (a *Assembler) WriteELF() ([]byte, error) {
	strtab := newBuffer(512)
	strtab.push(0)
	symtab := newBuffer(1024)
	symtab.write(make([]byte, symSize)) // null symbol

	for _, s := range a.symbols.symbols {
		if s.Section == SecAbs {
			continue
		}
		nameOff := strtab.addString(s.Name)
		bind := byte(stbLocal)
		if s.Bind == BindGlobal || s.Bind == BindExtern {
			bind = stbGlobal
		}
		typ := byte(sttNotype)
		switch {
		case s.Section == SecText:
			typ = sttFunc
		case s.Section != SecNull:
			typ = sttObject
		}
		var shndx uint16
		switch {
		case s.Bind == BindExtern:
			shndx = shnUndef
		case s.Section == SecText:
			shndx = 1
		case s.Section == SecData:
			shndx = 2
		case s.Section == SecBss:
			shndx = 3
		default:
			shndx = shnUndef
		}
		es := elf32Sym{Name: nameOff, Value: s.Value, Info: elfSTInfo(bind, typ), Shndx: shndx}
		writeSym(symtab, es)
	}

	shstr := newBuffer(256)
	shstr.push(0)
	nTxt := shstr.addString(".text")
	nDat := shstr.addString(".data")
	nBss := shstr.addString(".bss")
	nSym := shstr.addString(".symtab")
	nStr := shstr.addString(".strtab")
	nShs := shstr.addString(".shstrtab")
	nRt := shstr.addString(".rel.text")
	nRd := shstr.addString(".rel.data")

	relText, relData := a.buildRelBuffers()

	offset := uint32(ehdrSize)
	offTxt := offset
	offset += uint32(a.text.Len())
	offDat := offset
	offset += uint32(a.data.Len())
	offBss := offset
	offSym := offset
	offset += uint32(symtab.Len())
	offStr := offset
	offset += uint32(strtab.Len())
	offShs := offset
	offset += uint32(shstr.Len())
	offRt := offset
	offset += uint32(relText.Len())
	offRd := offset
	offset += uint32(relData.Len())
	offShdr := offset

	eh := elf32Ehdr{
		Type: etRel, Machine: emI386, Version: 1,
		Shoff: offShdr, Ehsize: ehdrSize, Shentsize: shdrSize, Shnum: 9, Shstrndx: 6,
	}
	eh.Ident[0], eh.Ident[1], eh.Ident[2], eh.Ident[3] = 0x7F, 'E', 'L', 'F'
	eh.Ident[4], eh.Ident[5], eh.Ident[6] = 1, 1, 1

	var out bytes.Buffer
	writeEhdr(&out, eh)
	out.Write(a.text.Bytes())
	out.Write(a.data.Bytes())
	out.Write(symtab.Bytes())
	out.Write(strtab.Bytes())
	out.Write(shstr.Bytes())
	out.Write(relText.Bytes())
	out.Write(relData.Bytes())

	symCount := uint32(len(a.symbols.symbols)) // matches ctx->sym_count, which excludes the null symtab entry

	shdrs := make([]elf32Shdr, 9)
	shdrs[1] = elf32Shdr{Name: nTxt, Type: shtProgbits, Flags: shfAlloc | shfExecinstr, Offset: offTxt, Size: uint32(a.text.Len()), Addralign: 4}
	shdrs[2] = elf32Shdr{Name: nDat, Type: shtProgbits, Flags: shfAlloc | shfWrite, Offset: offDat, Size: uint32(a.data.Len()), Addralign: 4}
	shdrs[3] = elf32Shdr{Name: nBss, Type: shtNobits, Flags: shfAlloc | shfWrite, Offset: offBss, Size: uint32(a.bss.Len()), Addralign: 4}
	shdrs[4] = elf32Shdr{Name: nSym, Type: shtSymtab, Offset: offSym, Size: uint32(symtab.Len()), Link: 5, Entsize: symSize, Addralign: 4, Info: symCount}
	shdrs[5] = elf32Shdr{Name: nStr, Type: shtStrtab, Offset: offStr, Size: uint32(strtab.Len()), Addralign: 1}
	shdrs[6] = elf32Shdr{Name: nShs, Type: shtStrtab, Offset: offShs, Size: uint32(shstr.Len()), Addralign: 1}
	shdrs[7] = elf32Shdr{Name: nRt, Type: shtRel, Offset: offRt, Size: uint32(relText.Len()), Link: 4, Info: 1, Entsize: relSize, Addralign: 4}
	shdrs[8] = elf32Shdr{Name: nRd, Type: shtRel, Offset: offRd, Size: uint32(relData.Len()), Link: 4, Info: 2, Entsize: relSize, Addralign: 4}

	for _, sh := range shdrs {
		writeShdr(&out, sh)
	}

	return out.Bytes(), nil
}

// buildRelBuffers serializes the pending relocation records (already
// sorted by offset) into the wire Elf32_Rel byte layout.
func (a *Assembler) buildRelBuffers() (*buffer, *buffer) {
	text, data := a.sortedRelocs()
	relText := newBuffer(len(text) * relSize)
	relData := newBuffer(len(data) * relSize)
	for _, r := range text {
		s := a.symbols.find(r.symbol)
		writeRel(relText, elf32Rel{Offset: r.offset, Info: elfRInfo(uint32(s.ElfIdx), r.kind)})
	}
	for _, r := range data {
		s := a.symbols.find(r.symbol)
		writeRel(relData, elf32Rel{Offset: r.offset, Info: elfRInfo(uint32(s.ElfIdx), r.kind)})
	}
	return relText, relData
}

func writeEhdr(out *bytes.Buffer, eh elf32Ehdr) {
	out.Write(eh.Ident[:])
	binary.Write(out, binary.LittleEndian, eh.Type)
	binary.Write(out, binary.LittleEndian, eh.Machine)
	binary.Write(out, binary.LittleEndian, eh.Version)
	binary.Write(out, binary.LittleEndian, eh.Entry)
	binary.Write(out, binary.LittleEndian, eh.Phoff)
	binary.Write(out, binary.LittleEndian, eh.Shoff)
	binary.Write(out, binary.LittleEndian, eh.Flags)
	binary.Write(out, binary.LittleEndian, eh.Ehsize)
	binary.Write(out, binary.LittleEndian, eh.Phentsize)
	binary.Write(out, binary.LittleEndian, eh.Phnum)
	binary.Write(out, binary.LittleEndian, eh.Shentsize)
	binary.Write(out, binary.LittleEndian, eh.Shnum)
	binary.Write(out, binary.LittleEndian, eh.Shstrndx)
}

func writeShdr(out *bytes.Buffer, sh elf32Shdr) {
	binary.Write(out, binary.LittleEndian, sh.Name)
	binary.Write(out, binary.LittleEndian, sh.Type)
	binary.Write(out, binary.LittleEndian, sh.Flags)
	binary.Write(out, binary.LittleEndian, sh.Addr)
	binary.Write(out, binary.LittleEndian, sh.Offset)
	binary.Write(out, binary.LittleEndian, sh.Size)
	binary.Write(out, binary.LittleEndian, sh.Link)
	binary.Write(out, binary.LittleEndian, sh.Info)
	binary.Write(out, binary.LittleEndian, sh.Addralign)
	binary.Write(out, binary.LittleEndian, sh.Entsize)
}

func writeSym(b *buffer, s elf32Sym) {
	b.pushU32(s.Name)
	b.pushU32(s.Value)
	b.pushU32(s.Size)
	b.push(s.Info)
	b.push(s.Other)
	b.pushU16(s.Shndx)
}

func writeRel(b *buffer, r elf32Rel) {
	b.pushU32(r.Offset)
	b.pushU32(r.Info)
}
