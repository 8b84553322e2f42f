package asmc

// WriteBinary concatenates the text and data sections with no headers,
// producing a flat image suitable for an `org`-biased boot sector or
// kernel load address. Grounded on asmc_output.c's write_binary.
func (a *Assembler) WriteBinary() []byte {
	out := make([]byte, 0, a.text.Len()+a.data.Len())
	out = append(out, a.text.Bytes()...)
	out = append(out, a.data.Bytes()...)
	return out
}
