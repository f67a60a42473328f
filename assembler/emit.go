package assembler

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// emit runs pass 2 over the lines pass 1 produced: execute directives (now
// for real), assemble instructions, resolve any outstanding symbol
// references, and append bytes to the right section.
func (a *Assembler) emit(lines []*srcLine, errs *Errors) *Program {
	prog := newProgram()
	for name, base := range a.sectionBase {
		prog.section(name, base)
	}

	currentSection := "text"
	for _, l := range lines {
		for _, label := range l.Labels {
			if v, ok := a.symbols.Absolute(label); ok {
				prog.Symbols[uint64(v)] = label
			}
		}

		if l.Directive == ".text" || l.Directive == ".data" {
			currentSection = l.Directive[1:]
		}
		sec := prog.section(currentSection, a.sectionBase[currentSection])

		if l.Directive != "" {
			d, ok := a.directives[l.Directive]
			if !ok {
				*errs = append(*errs, &Error{Line: l.Loc, Msg: fmt.Sprintf("unknown directive %q", l.Directive)})
				continue
			}
			if d.Early {
				// Early directives (.equ) already ran during discovery.
				continue
			}
			data, err := d.Emit(a, l.Loc, l.DirectiveOperands)
			if err != nil {
				*errs = append(*errs, &Error{Line: l.Loc, Msg: err.Error()})
				continue
			}
			if data == nil {
				continue
			}
			if d.IsData {
				for uint64(len(data))%4 != 0 {
					data = append(data, 0)
				}
			}
			sec.Data = append(sec.Data, data...)
			prog.recordSource(l.Addr, l.Loc)
			continue
		}

		if l.Mnemonic == "" {
			continue
		}

		word, size, err := a.assembleLine(l, errs)
		if err != nil {
			*errs = append(*errs, &Error{Line: l.Loc, Msg: err.Error()})
			continue
		}
		buf := make([]byte, size)
		switch size {
		case 2:
			binary.LittleEndian.PutUint16(buf, uint16(word))
		default:
			binary.LittleEndian.PutUint32(buf, uint32(word))
		}
		sec.Data = append(sec.Data, buf...)
		prog.recordSource(l.Addr, l.Loc)
	}

	if t, ok := prog.Sections["text"]; ok {
		prog.EntryPoint = t.Base
	}
	h := fnv.New64a()
	for _, l := range lines {
		fmt.Fprintf(h, "%d:%s:%v", l.Loc, l.Mnemonic, l.Operands)
	}
	prog.SourceHash = fmt.Sprintf("%x", h.Sum64())
	return prog
}

func (a *Assembler) assembleLine(l *srcLine, errs *Errors) (word uint64, size int, err error) {
	candidates, ok := a.isa.Lookup(l.Mnemonic)
	if !ok {
		return 0, 0, fmt.Errorf("unknown instruction %q", l.Mnemonic)
	}

	operands := expandMemOperands(l.Operands)

	var lastErr error
	for _, in := range candidates {
		if in.NumOperands() != len(operands) {
			lastErr = fmt.Errorf("%s expects %d operands, got %d", l.Mnemonic, in.NumOperands(), len(operands))
			continue
		}
		word, link, aerr := in.Assemble(operands, a.isa.Registers)
		if aerr != nil {
			lastErr = aerr
			continue
		}
		if link == nil {
			return word, in.Size, nil
		}
		resolver := a.symbols.Resolver(l.Loc, "b", "f")
		value, ok := resolver.Resolve(link.Symbol)
		if !ok {
			var everr error
			value, everr = a.evalExpr(l.Loc, link.Symbol)
			if everr != nil {
				return 0, 0, fmt.Errorf("%s: %w", l.Mnemonic, everr)
			}
		}
		resolved, rerr := in.ResolveField(word, link, value, l.Addr)
		if rerr != nil {
			return 0, 0, rerr
		}
		return resolved, in.Size, nil
	}
	if lastErr != nil {
		return 0, 0, lastErr
	}
	return 0, 0, fmt.Errorf("no encoding of %q matched its operands", l.Mnemonic)
}
