package asmc

import "strings"

// tokenizeLine splits a source line into whitespace/comma-separated
// tokens, treating `"…"`, `'…'`, and `[…]` spans as single atomic tokens
// so that strings, character literals, and memory operands survive
// splitting intact. A `;` starts a comment that runs to end of line.
// Grounded on asmc_parse.c's tokenize_line.
func tokenizeLine(line string) []string {
	var tokens []string
	i := 0
	n := len(line)
	for i < n {
		for i < n && (line[i] == ' ' || line[i] == '\t' || line[i] == ',' || line[i] == '\r') {
			i++
		}
		if i >= n || line[i] == ';' {
			break
		}
		start := i
		switch line[i] {
		case '"':
			i++
			for i < n && line[i] != '"' {
				i++
			}
			if i < n {
				i++
			}
		case '\'':
			i++
			for i < n && line[i] != '\'' {
				i++
			}
			if i < n {
				i++
			}
		case '[':
			for i < n && line[i] != ']' {
				i++
			}
			if i < n {
				i++
			}
		default:
			for i < n && line[i] != ' ' && line[i] != '\t' && line[i] != ',' && line[i] != ';' && line[i] != '\r' {
				i++
			}
		}
		tokens = append(tokens, line[start:i])
	}
	return tokens
}

// processLine tokenizes and assembles one source line: it extracts a
// leading `label:`, handles `name equ value`, strips `byte`/`word`/
// `dword`/`ptr` size-override tokens, rewrites the `movb` alias, dispatches
// directives, and otherwise parses up to two operands and assembles the
// instruction. Grounded on asmc_parse.c's process_line.
func (a *Assembler) processLine(line string) error {
	tokens := tokenizeLine(line)
	if len(tokens) == 0 {
		return nil
	}

	if strings.HasSuffix(tokens[0], ":") {
		label := tokens[0][:len(tokens[0])-1]
		full, err := normalizeSymbolName(a.lineNum, a.currentScope, label)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(label, ".") {
			a.currentScope = label
		}
		a.defineLabel(full)
		tokens = tokens[1:]
		if len(tokens) == 0 {
			return nil
		}
	}

	if len(tokens) >= 3 && tokens[1] == "equ" {
		if a.pass == 1 {
			full, err := normalizeSymbolName(a.lineNum, a.currentScope, tokens[0])
			if err != nil {
				return err
			}
			v, err := evalNumber(a, a.lineNum, tokens[2])
			if err != nil {
				return err
			}
			s := a.symbols.add(full)
			s.Value = uint32(v)
			s.Section = SecAbs
			s.Bind = BindLocal
		}
		return nil
	}

	cmdName := tokens[0]
	forceSize := 0
	var cleanTokens []string

	for i := 1; i < len(tokens) && len(cleanTokens) < 2; i++ {
		switch tokens[i] {
		case "byte":
			forceSize = 1
			continue
		case "word":
			forceSize = 2
			continue
		case "dword":
			forceSize = 4
			continue
		case "ptr":
			continue
		}
		cleanTokens = append(cleanTokens, tokens[i])
	}

	if cmdName == "movb" {
		cmdName = "mov"
		forceSize = 1
	}

	handled, err := a.handleDirective(cmdName, tokens)
	if err != nil {
		return err
	}
	if handled {
		return nil
	}

	var o1, o2 Operand
	if len(cleanTokens) > 0 {
		o1, err = a.parseOperand(cleanTokens[0])
		if err != nil {
			return err
		}
	} else {
		o1 = newOperand()
		o1.Kind = OpNone
	}
	if len(cleanTokens) > 1 {
		o2, err = a.parseOperand(cleanTokens[1])
		if err != nil {
			return err
		}
	} else {
		o2 = newOperand()
		o2.Kind = OpNone
	}
	return a.assembleInstr(cmdName, forceSize, o1, o2)
}
