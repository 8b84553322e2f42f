// Package inspect implements a read-only terminal browser over an
// already-assembled ELF32 object or flat binary file. It does not
// assemble anything itself; it only renders the three panels — sections,
// symbols, relocations — that the object the asmc command line tool write
// package wrote already carries.
package inspect

import (
	"debug/elf"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Run opens path, detects ELF32 vs flat binary by magic number, and
// launches the tview application. For a flat binary there is no section/
// symbol/relocation metadata to show, so the viewer falls back to a
// single hex-dump-style panel.
func Run(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}

	app := tview.NewApplication()

	var root tview.Primitive
	if len(data) >= 4 && data[0] == 0x7F && data[1] == 'E' && data[2] == 'L' && data[3] == 'F' {
		root, err = buildELFView(path)
		if err != nil {
			return err
		}
	} else {
		root = buildBinaryView(data)
	}

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	return app.SetRoot(root, true).Run()
}

func buildELFView(path string) (tview.Primitive, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("inspect: %w", err)
	}
	defer f.Close()

	sections := tview.NewTable().SetBorders(false).SetSelectable(true, false)
	sections.SetCell(0, 0, headerCell("Name"))
	sections.SetCell(0, 1, headerCell("Type"))
	sections.SetCell(0, 2, headerCell("Size"))
	sections.SetCell(0, 3, headerCell("Flags"))
	for i, s := range f.Sections {
		row := i + 1
		sections.SetCell(row, 0, tview.NewTableCell(s.Name))
		sections.SetCell(row, 1, tview.NewTableCell(s.Type.String()))
		sections.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf("%d", s.Size)))
		sections.SetCell(row, 3, tview.NewTableCell(s.Flags.String()))
	}
	sections.SetBorder(true).SetTitle(" Sections ")

	symbols := tview.NewTable().SetBorders(false).SetSelectable(true, false)
	symbols.SetCell(0, 0, headerCell("Name"))
	symbols.SetCell(0, 1, headerCell("Bind"))
	symbols.SetCell(0, 2, headerCell("Section"))
	symbols.SetCell(0, 3, headerCell("Value"))
	if syms, err := f.Symbols(); err == nil {
		for i, s := range syms {
			row := i + 1
			symbols.SetCell(row, 0, tview.NewTableCell(s.Name))
			symbols.SetCell(row, 1, tview.NewTableCell(elf.ST_BIND(s.Info).String()))
			symbols.SetCell(row, 2, tview.NewTableCell(sectionName(f, s.Section)))
			symbols.SetCell(row, 3, tview.NewTableCell(fmt.Sprintf("0x%08x", s.Value)))
		}
	}
	symbols.SetBorder(true).SetTitle(" Symbols ")

	relocs := tview.NewTable().SetBorders(false).SetSelectable(true, false)
	relocs.SetCell(0, 0, headerCell("Section"))
	relocs.SetCell(0, 1, headerCell("Offset"))
	relocs.SetCell(0, 2, headerCell("Type"))
	row := 1
	for _, s := range f.Sections {
		if s.Type != elf.SHT_REL {
			continue
		}
		data, err := s.Data()
		if err != nil {
			continue
		}
		for off := 0; off+8 <= len(data); off += 8 {
			r := f.ByteOrder.Uint32(data[off:])
			info := f.ByteOrder.Uint32(data[off+4:])
			relocs.SetCell(row, 0, tview.NewTableCell(s.Name))
			relocs.SetCell(row, 1, tview.NewTableCell(fmt.Sprintf("0x%08x", r)))
			relocs.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf("%d", info&0xff)))
			row++
		}
	}
	relocs.SetBorder(true).SetTitle(" Relocations ")

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(sections, 0, 1, true).
		AddItem(symbols, 0, 1, false).
		AddItem(relocs, 0, 1, false)

	return flex, nil
}

func buildBinaryView(data []byte) tview.Primitive {
	view := tview.NewTextView().SetDynamicColors(false)
	view.SetBorder(true).SetTitle(fmt.Sprintf(" Flat binary image (%d bytes) ", len(data)))

	limit := len(data)
	if limit > 4096 {
		limit = 4096
	}
	for i := 0; i < limit; i += 16 {
		end := i + 16
		if end > limit {
			end = limit
		}
		fmt.Fprintf(view, "%08x  % x\n", i, data[i:end])
	}
	if limit < len(data) {
		fmt.Fprintf(view, "... (%d more bytes)\n", len(data)-limit)
	}
	return view
}

func headerCell(text string) *tview.TableCell {
	return tview.NewTableCell(text).SetSelectable(false).SetAttributes(tcell.AttrBold)
}

func sectionName(f *elf.File, idx elf.SectionIndex) string {
	if int(idx) <= 0 || int(idx) >= len(f.Sections) {
		return idx.String()
	}
	return f.Sections[idx].Name
}
