// Package disassembler turns a TEXT section's bytes back into assembly
// source: a linear sweep decodes each instruction at its own width (4 bytes
// for the base ISA, 2 for a compressed form), then labels from the
// program's symbol table are interleaved as their own header lines.
package disassembler

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/Urethramancer/ripes/isa"
)

// Symbols is the minimal reverse-lookup surface the disassembler needs;
// assembler.Program satisfies it.
type Symbols interface {
	NameAt(addr uint64) (string, bool)
}

// Instruction is one decoded word: its address, raw bits, and rendered
// mnemonic/operands, or an error if no instruction in the set matched.
type Instruction struct {
	Address uint64
	Word    uint64
	Tokens  []string
	Err     error
}

func (in Instruction) String() string {
	if in.Err != nil {
		return fmt.Sprintf("%08x: %08x  <invalid>", in.Address, in.Word)
	}
	return fmt.Sprintf("%08x: %08x  %s", in.Address, in.Word, strings.Join(in.Tokens, " "))
}

// Disassemble walks code starting at base, decoding each instruction against
// set. Registered instruction widths are tried narrowest first at every
// offset, so a compressed-form (2-byte) instruction is recognized instead of
// being swallowed as the leading half of a wider one; a window with no
// opcode match at any width consumes the ISA's default word width (or
// whatever is left) and is reported with a non-nil Err.
func Disassemble(set *isa.Set, code []byte, base uint64, rev Symbols) []Instruction {
	sizes := set.Sizes()
	if len(sizes) == 0 {
		sizes = []int{set.DefaultWordSize}
	}

	var out []Instruction
	for off := 0; off < len(code); {
		addr := base + uint64(off)
		match, word, width, ok := matchAt(set, code, off, sizes)
		if !ok {
			width = set.DefaultWordSize
			if off+width > len(code) {
				width = 0
				for _, w := range sizes {
					if off+w <= len(code) {
						width = w
						break
					}
				}
			}
			if width == 0 {
				break
			}
			word = readWord(code[off : off+width])
			out = append(out, Instruction{Address: addr, Word: word, Err: fmt.Errorf("no instruction matched word %#x", word)})
			off += width
			continue
		}
		toks := match.Disassemble(word, addr, set.Registers, rev)
		out = append(out, Instruction{Address: addr, Word: word, Tokens: toks})
		off += width
	}
	return out
}

// matchAt tries each registered instruction width at off, narrowest first,
// returning the first match along with the width it consumed.
func matchAt(set *isa.Set, code []byte, off int, sizes []int) (in isa.Instruction, word uint64, width int, ok bool) {
	for _, w := range sizes {
		if off+w > len(code) {
			continue
		}
		candidate := readWord(code[off : off+w])
		if match, found := set.MatchWordSized(candidate, w); found {
			return match, candidate, w, true
		}
	}
	return isa.Instruction{}, 0, 0, false
}

// readWord reads b as a little-endian unsigned integer, sized to whichever
// instruction width b represents (2 bytes for compressed forms, 4 for the
// base ISA).
func readWord(b []byte) uint64 {
	switch len(b) {
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		var v uint64
		for i, c := range b {
			v |= uint64(c) << (8 * i)
		}
		return v
	}
}

// Render produces bulk-mode text output: `<name>:` label headers interleaved
// with `address: word  mnemonic operands` instruction lines, mirroring the
// objdump-style listing a human reads the TEXT section as.
func Render(set *isa.Set, code []byte, base uint64, prog Symbols, symbolAddrs map[uint64]string) []string {
	instrs := Disassemble(set, code, base, prog)

	addrs := make([]uint64, 0, len(symbolAddrs))
	for a := range symbolAddrs {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	var lines []string
	ai := 0
	for _, in := range instrs {
		for ai < len(addrs) && addrs[ai] <= in.Address {
			if addrs[ai] == in.Address {
				lines = append(lines, fmt.Sprintf("%s:", symbolAddrs[addrs[ai]]))
			}
			ai++
		}
		lines = append(lines, in.String())
	}
	return lines
}
