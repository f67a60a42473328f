package assembler

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/Urethramancer/ripes/symtab"
)

// Directive is one recognized `.`-prefixed pseudo-op. Size is a dry run used
// during pass 1 to advance the program counter without emitting bytes;
// Emit does the real emission during pass 2. A directive with no Emit (the
// section switches and .equ) only has side effects on the assembler's
// state.
type Directive struct {
	Name  string
	Early bool
	// IsData marks a directive that emits bytes into the current section;
	// its emitted byte count gets rounded up to a 4-byte boundary so the
	// next instruction fetch stays aligned.
	IsData bool
	Size   func(a *Assembler, line int, operands []string) (uint64, error)
	Emit   func(a *Assembler, line int, operands []string) ([]byte, error)
}

func elementWidth(values []uint64, width int) []byte {
	out := make([]byte, 0, len(values)*width)
	buf := make([]byte, 8)
	for _, v := range values {
		switch width {
		case 1:
			out = append(out, byte(v))
		case 2:
			binary.LittleEndian.PutUint16(buf, uint16(v))
			out = append(out, buf[:2]...)
		case 4:
			binary.LittleEndian.PutUint32(buf, uint32(v))
			out = append(out, buf[:4]...)
		}
	}
	return out
}

func (a *Assembler) evalOperands(line int, operands []string) ([]uint64, error) {
	out := make([]uint64, 0, len(operands))
	for _, op := range operands {
		v, err := a.evalExpr(line, op)
		if err != nil {
			return nil, err
		}
		out = append(out, uint64(v))
	}
	return out, nil
}

func sectionSwitch(name string) *Directive {
	return &Directive{
		Name: "." + name,
		Size: func(*Assembler, int, []string) (uint64, error) { return 0, nil },
		Emit: func(a *Assembler, _ int, _ []string) ([]byte, error) {
			a.currentSection = name
			return nil, nil
		},
	}
}

func dataDirective(name string, width int) *Directive {
	return &Directive{
		Name:   name,
		IsData: true,
		Size: func(a *Assembler, line int, operands []string) (uint64, error) {
			return uint64(len(operands) * width), nil
		},
		Emit: func(a *Assembler, line int, operands []string) ([]byte, error) {
			values, err := a.evalOperands(line, operands)
			if err != nil {
				return nil, err
			}
			return elementWidth(values, width), nil
		},
	}
}

func registerDirectives() map[string]*Directive {
	table := make(map[string]*Directive)
	reg := func(aliases []string, d *Directive) {
		for _, alias := range aliases {
			table[alias] = d
		}
	}

	reg([]string{".text"}, sectionSwitch("text"))
	reg([]string{".data"}, sectionSwitch("data"))

	reg([]string{".byte"}, dataDirective(".byte", 1))
	reg([]string{".half", ".2byte", ".short"}, dataDirective(".half", 2))
	reg([]string{".word", ".4byte", ".long"}, dataDirective(".word", 4))

	reg([]string{".zero"}, &Directive{
		Name:   ".zero",
		IsData: true,
		Size: func(a *Assembler, line int, operands []string) (uint64, error) {
			if len(operands) != 1 {
				return 0, fmt.Errorf(".zero requires a single count argument")
			}
			v, err := a.evalExpr(line, operands[0])
			if err != nil {
				return 0, err
			}
			return uint64(v), nil
		},
		Emit: func(a *Assembler, line int, operands []string) ([]byte, error) {
			v, err := a.evalExpr(line, operands[0])
			if err != nil {
				return nil, err
			}
			return make([]byte, v), nil
		},
	})

	stringBytes := func(operands []string) []byte {
		joined := strings.Join(operands, " ")
		joined = strings.Trim(joined, `"`)
		joined = strings.ReplaceAll(joined, `\n`, "\n")
		out := []byte(joined)
		out = append(out, 0)
		return out
	}
	reg([]string{".string", ".asciz"}, &Directive{
		Name:   ".string",
		IsData: true,
		Size: func(a *Assembler, _ int, operands []string) (uint64, error) {
			return uint64(len(stringBytes(operands))), nil
		},
		Emit: func(a *Assembler, _ int, operands []string) ([]byte, error) {
			return stringBytes(operands), nil
		},
	})

	reg([]string{".equ"}, &Directive{
		Name:  ".equ",
		Early: true,
		Size:  func(*Assembler, int, []string) (uint64, error) { return 0, nil },
		Emit: func(a *Assembler, line int, operands []string) ([]byte, error) {
			if len(operands) != 2 {
				return nil, fmt.Errorf(".equ requires exactly two arguments")
			}
			name := operands[0]
			v, err := a.evalExpr(line, operands[1])
			if err != nil {
				return nil, err
			}
			if err := a.symbols.AddAbsolute(line, name, v, symtab.Constant); err != nil {
				return nil, err
			}
			return nil, nil
		},
	})

	return table
}
