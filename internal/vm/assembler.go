// Package vm assembles and executes the textual stack-machine assembly the
// emitter package produces. It exists to exercise and golden-test the
// emitter's output: the production virtual machine that actually runs
// compiled programs is a separate, external collaborator, and the textual
// assembly is the only contract with it. This package is deliberately
// sized to the instruction subset the emitter actually emits, grounded on
// db47h-ngaro's own assembler/VM split (asm.go builds a label table in one
// pass and resolves operands in a second; vm.go/run.go is a flat fetch-
// decode-execute loop over a register file and a single memory array).
package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Instruction is one decoded CODE-space instruction.
type Instruction struct {
	Mnemonic string
	Operands []string
	Line     int
}

// Program is an assembled unit: resolved code and an initial data image,
// both addressed independently (component design's two-address-space
// split).
type Program struct {
	Code []Instruction
	Data []int

	CodeLabels map[string]int
	DataLabels map[string]int
}

type section int

const (
	sectionNone section = iota
	sectionCode
	sectionData
)

// rawDataEntry is a not-yet-resolved DATA-space slot: either a literal
// value (lit) or a CODE-space label naming a method entry point (one VMT
// slot per class method).
type rawDataEntry struct {
	lit     int
	label   string
	isLabel bool
}

// Assemble parses emitter output into a Program. It is a two-pass
// assembler: the first pass lays out CODE and DATA addresses and records
// every label; the second resolves every DAT label operand against the
// now-complete CODE label table, so a VMT blob may name a method defined
// anywhere in the text. CODE-space operands (jump and call targets, MRI
// data labels) stay as text and are looked up in the label tables when the
// VM executes the instruction, so a prelude naming `_heap`/`_stack` defined
// later also resolves.
func Assemble(src string) (*Program, error) {
	p := &Program{CodeLabels: map[string]int{}, DataLabels: map[string]int{}}
	var rawData []rawDataEntry
	sec := sectionNone

	for lineNo, raw := range strings.Split(src, "\n") {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue // source-line marker, informational only
		}
		if line == ".CODE" {
			sec = sectionCode
			continue
		}
		if line == ".DATA" {
			sec = sectionData
			continue
		}
		if strings.HasSuffix(line, ":") {
			name := strings.TrimSuffix(line, ":")
			switch sec {
			case sectionCode:
				p.CodeLabels[name] = len(p.Code)
			case sectionData:
				p.DataLabels[name] = len(rawData)
			default:
				return nil, errors.Errorf("line %d: label outside any section", lineNo+1)
			}
			continue
		}

		mnemonic, operands := splitInstruction(line)
		switch sec {
		case sectionCode:
			p.Code = append(p.Code, Instruction{Mnemonic: mnemonic, Operands: operands, Line: lineNo + 1})
		case sectionData:
			entries, err := dataEntries(mnemonic, operands, lineNo+1)
			if err != nil {
				return nil, err
			}
			rawData = append(rawData, entries...)
		default:
			return nil, errors.Errorf("line %d: instruction outside any section", lineNo+1)
		}
	}

	p.Data = make([]int, len(rawData))
	for i, e := range rawData {
		if !e.isLabel {
			p.Data[i] = e.lit
			continue
		}
		addr, ok := p.CodeLabels[e.label]
		if !ok {
			return nil, errors.Errorf("undefined code label %q in DATA section", e.label)
		}
		p.Data[i] = addr
	}

	return p, nil
}

func dataEntries(mnemonic string, operands []string, lineNo int) ([]rawDataEntry, error) {
	switch mnemonic {
	case "DAT":
		if len(operands) != 1 {
			return nil, errors.Errorf("line %d: DAT wants exactly one operand", lineNo)
		}
		if n, err := strconv.Atoi(operands[0]); err == nil {
			return []rawDataEntry{{lit: n}}, nil
		}
		return []rawDataEntry{{label: operands[0], isLabel: true}}, nil
	case "RES":
		if len(operands) != 1 {
			return nil, errors.Errorf("line %d: RES wants exactly one operand", lineNo)
		}
		n, err := strconv.Atoi(operands[0])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: RES operand", lineNo)
		}
		return make([]rawDataEntry, n), nil
	default:
		return nil, errors.Errorf("line %d: %q is not valid in .DATA", lineNo, mnemonic)
	}
}

func splitInstruction(line string) (string, []string) {
	fields := strings.Fields(line)
	mnemonic := fields[0]
	rest := strings.TrimSpace(strings.TrimPrefix(line, mnemonic))
	if rest == "" {
		return mnemonic, nil
	}
	parts := strings.Split(rest, ",")
	operands := make([]string, len(parts))
	for i, p := range parts {
		operands[i] = strings.TrimSpace(p)
	}
	return mnemonic, operands
}

func stripComment(line string) string {
	if i := strings.Index(line, ";"); i >= 0 {
		return line[:i]
	}
	return line
}

// registerIndex resolves a register operand (R0-R7) to its register-file
// index.
func registerIndex(name string) (int, error) {
	if len(name) == 2 && name[0] == 'R' && name[1] >= '0' && name[1] <= '7' {
		return int(name[1] - '0'), nil
	}
	return 0, fmt.Errorf("not a register: %q", name)
}
