// Package isa describes instruction sets as data rather than as one
// hand-written encoder/decoder per mnemonic: an Instruction is an Opcode (a
// set of fixed OpParts that must match) plus an ordered list of Fields
// (Reg or Imm) that carry the variable part of the encoding. The two-pass
// assembler and the disassembler both walk this same table, so every new
// mnemonic is a data declaration, never a new code path.
package isa

import (
	"fmt"
	"sort"

	"github.com/Urethramancer/ripes/bits"
	"github.com/Urethramancer/ripes/numeral"
)

// OpPart is one fixed bit-field that participates in identifying an
// instruction's opcode.
type OpPart struct {
	Value uint64
	Range bits.Range
}

func (p OpPart) matches(word uint64) bool { return p.Range.Decode(word) == p.Value }

// Opcode is the full set of OpParts that together identify an instruction.
type Opcode []OpPart

func (o Opcode) matches(word uint64) bool {
	for _, p := range o {
		if !p.matches(word) {
			return false
		}
	}
	return true
}

// SymbolRefType says how an Imm field's resolved symbol value should be
// projected into the instruction word.
type SymbolRefType int

const (
	SymNone SymbolRefType = iota
	SymRelative
	SymAbsolute
)

// Repr controls how an Imm field renders when disassembled.
type Repr int

const (
	Signed Repr = iota
	Unsigned
	Hex
)

// RegisterTable maps between register names (as they appear in source) and
// their encoded register numbers.
type RegisterTable interface {
	Lookup(name string) (num uint64, ok bool)
	Name(num uint64) string
}

// ReverseSymbols maps an absolute address to the symbol name that labels it,
// for the disassembler to print `<name>` beside a jump/branch target.
type ReverseSymbols interface {
	NameAt(addr uint64) (string, bool)
}

// LinkRequest is returned from Field.Assemble when a field could not be
// resolved immediately because its source token names a symbol rather than
// a numeric literal. The caller resolves Symbol through the assembler's
// symbol-map snapshot, then calls Field.Resolve.
type LinkRequest struct {
	Field  Field
	Symbol string
}

// Field is one variable-width piece of an instruction's encoding.
type Field interface {
	// Token is the zero-based index of this field's operand among the
	// instruction's comma-separated operand tokens (after mnemonic).
	Token() int
	// Assemble embeds the field's immediate value into the accumulating
	// word, or returns a LinkRequest if the token names a symbol.
	Assemble(tokens []string, regs RegisterTable) (wordBits uint64, link *LinkRequest, err error)
	// Resolve finishes assembling a field that returned a LinkRequest, once
	// the symbol's value and the instruction's address are known.
	Resolve(symbolValue int64, instrAddr uint64) (wordBits uint64, err error)
	// Disassemble renders the field's decoded value as source text.
	Disassemble(word uint64, addr uint64, regs RegisterTable, rev ReverseSymbols) string
}

// Reg is a field that names a register by its canonical register-table name.
type Reg struct {
	TokenIdx int
	Range    bits.Range
}

func (r Reg) Token() int { return r.TokenIdx }

func (r Reg) Assemble(tokens []string, regs RegisterTable) (uint64, *LinkRequest, error) {
	if r.TokenIdx >= len(tokens) {
		return 0, nil, fmt.Errorf("missing register operand %d", r.TokenIdx)
	}
	num, ok := regs.Lookup(tokens[r.TokenIdx])
	if !ok {
		return 0, nil, fmt.Errorf("unknown register %q", tokens[r.TokenIdx])
	}
	return r.Range.Apply(num), nil, nil
}

func (r Reg) Resolve(int64, uint64) (uint64, error) {
	return 0, fmt.Errorf("register field has no symbol to resolve")
}

func (r Reg) Disassemble(word uint64, _ uint64, regs RegisterTable, _ ReverseSymbols) string {
	return regs.Name(r.Range.Decode(word))
}

// ImmPart places a contiguous slice of an immediate's bits, offset by Offset
// bits from the immediate's own LSB, into Range of the instruction word.
type ImmPart struct {
	Offset uint
	Range  bits.Range
}

func (p ImmPart) apply(v uint64) uint64 {
	return p.Range.Apply(v >> p.Offset)
}

func (p ImmPart) decode(w uint64) uint64 {
	return p.Range.Decode(w) << p.Offset
}

// Imm is an immediate or PC-relative offset field.
type Imm struct {
	TokenIdx    int
	Width       uint
	Repr        Repr
	Parts       []ImmPart
	SymbolType  SymbolRefType
	Transformer func(int64) int64
}

func (f Imm) Token() int { return f.TokenIdx }

func (f Imm) scatter(v int64) uint64 {
	var w uint64
	for _, p := range f.Parts {
		w |= p.apply(uint64(v))
	}
	return w
}

func (f Imm) fits(v int64, bitwise bool) bool {
	if bits.IsSignedFit(v, f.Width) {
		return true
	}
	if bitwise && bits.IsUnsignedFit(uint64(v), f.Width) {
		return true
	}
	return false
}

func (f Imm) Assemble(tokens []string, _ RegisterTable) (uint64, *LinkRequest, error) {
	if f.TokenIdx >= len(tokens) {
		return 0, nil, fmt.Errorf("missing immediate operand %d", f.TokenIdx)
	}
	text := tokens[f.TokenIdx]
	v, info, err := parseSext32(text)
	if err != nil {
		// Not numerically convertible: treat as a symbol reference.
		return 0, &LinkRequest{Field: f, Symbol: text}, nil
	}
	if !f.fits(v, info.bitwise) {
		return 0, nil, fmt.Errorf("immediate %s does not fit in %d-bit field", text, f.Width)
	}
	return f.scatter(v), nil, nil
}

func (f Imm) Resolve(symbolValue int64, instrAddr uint64) (uint64, error) {
	v := symbolValue
	if f.SymbolType == SymRelative {
		v -= int64(instrAddr)
	}
	if f.Transformer != nil {
		v = f.Transformer(v)
	}
	if !f.fits(v, true) {
		return 0, fmt.Errorf("resolved symbol value %d does not fit in %d-bit field", v, f.Width)
	}
	return f.scatter(v), nil
}

func (f Imm) decodeRaw(word uint64) int64 {
	var v uint64
	for _, p := range f.Parts {
		v |= p.decode(word)
	}
	if f.Repr == Signed {
		return int64(bits.SignExtend(v, f.Width))
	}
	return int64(v)
}

func (f Imm) Disassemble(word uint64, addr uint64, _ RegisterTable, rev ReverseSymbols) string {
	v := f.decodeRaw(word)
	switch f.Repr {
	case Hex:
		return fmt.Sprintf("0x%x", uint64(v))
	default:
		return fmt.Sprintf("%d", v)
	}
}

// Instruction is a single opcode's static description.
type Instruction struct {
	Mnemonic string
	Opcode   Opcode
	Fields   []Field
	Size     int // bytes emitted; 4 for the base ISA, 2 for compressed forms
}

// Matches reports whether word's fixed bits agree with every OpPart.
func (in Instruction) Matches(word uint64) bool { return in.Opcode.matches(word) }

// NumOperands is the number of comma-separated source operands this
// instruction expects, derived from its highest field token index.
func (in Instruction) NumOperands() int {
	n := 0
	for _, f := range in.Fields {
		if f.Token()+1 > n {
			n = f.Token() + 1
		}
	}
	return n
}

// Assemble embeds opcode bits and every field's value into a word. If any
// field's operand is a symbol reference rather than a literal, Assemble
// returns that field's LinkRequest and a partial word with the other fields
// already embedded; the caller resolves the symbol and calls
// Instruction.ResolveField to finish.
func (in Instruction) Assemble(operands []string, regs RegisterTable) (word uint64, link *LinkRequest, err error) {
	for _, p := range in.Opcode {
		word |= p.Range.Apply(p.Value)
	}
	for _, f := range in.Fields {
		fieldBits, fieldLink, ferr := f.Assemble(operands, regs)
		if ferr != nil {
			return 0, nil, fmt.Errorf("%s: %w", in.Mnemonic, ferr)
		}
		if fieldLink != nil {
			link = fieldLink
			continue
		}
		word |= fieldBits
	}
	return word, link, nil
}

// ResolveField finishes a field that came back as a LinkRequest from
// Assemble, merging the resolved bits into word.
func (in Instruction) ResolveField(word uint64, link *LinkRequest, symbolValue int64, instrAddr uint64) (uint64, error) {
	fieldBits, err := link.Field.Resolve(symbolValue, instrAddr)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", in.Mnemonic, err)
	}
	return word | fieldBits, nil
}

// Disassemble renders word (fetched at addr) as a mnemonic plus operand
// tokens, ordered by each field's token index. After the operands, a
// `<name>` token follows for each symbol-referencing immediate whose target
// address rev labels.
func (in Instruction) Disassemble(word uint64, addr uint64, regs RegisterTable, rev ReverseSymbols) []string {
	operands := make([]string, in.NumOperands())
	var labels []string
	for _, f := range in.Fields {
		operands[f.Token()] = f.Disassemble(word, addr, regs, rev)
		if imm, ok := f.(Imm); ok && imm.SymbolType != SymNone {
			if name, ok := rev.NameAt(uint64(imm.decodeRaw(word) + int64(addr))); ok {
				labels = append(labels, "<"+name+">")
			}
		}
	}
	out := make([]string, 0, len(operands)+len(labels)+1)
	out = append(out, in.Mnemonic)
	out = append(out, operands...)
	return append(out, labels...)
}

// PseudoInstruction expands a user-facing mnemonic into one or more real
// instruction lines during pass 1. Expansion is one-step: the expander may
// not itself match another pseudo-instruction's mnemonic.
type PseudoInstruction struct {
	Mnemonic     string
	ExpectedToks int
	Expander     func(operands []string) ([][]string, error)
}

// Set is a complete ISA: its concrete instructions, pseudo-instructions and
// register table, looked up by mnemonic during assembly and by matching
// opcode bits during disassembly.
type Set struct {
	Name            string
	DefaultWordSize int // bytes
	Registers       RegisterTable
	Instructions    map[string][]Instruction
	Pseudos         map[string]PseudoInstruction
}

// Lookup returns the candidate instruction encodings for a mnemonic.
func (s *Set) Lookup(mnemonic string) ([]Instruction, bool) {
	in, ok := s.Instructions[mnemonic]
	return in, ok
}

// MatchWord finds the most-specific instruction whose opcode bits match
// word, scanning every registered mnemonic. Ties are resolved in favor of
// the instruction whose Opcode has strictly more OpParts (the "most
// specific wins" rule).
func (s *Set) MatchWord(word uint64) (Instruction, bool) {
	return s.matchWord(word, -1)
}

// MatchWordSized is MatchWord restricted to instructions of the given byte
// width. A disassembler trying a narrow window before a wide one needs this
// restriction: without it, the low bits of a wide instruction's word could
// spuriously satisfy a narrow instruction's opcode pattern.
func (s *Set) MatchWordSized(word uint64, size int) (Instruction, bool) {
	return s.matchWord(word, size)
}

func (s *Set) matchWord(word uint64, size int) (Instruction, bool) {
	var best Instruction
	found := false
	for _, candidates := range s.Instructions {
		for _, in := range candidates {
			if size >= 0 && in.Size != size {
				continue
			}
			if !in.Matches(word) {
				continue
			}
			if !found || len(in.Opcode) > len(best.Opcode) {
				best = in
				found = true
			}
		}
	}
	return best, found
}

// Sizes returns the distinct instruction byte-widths registered in the set,
// ascending. A disassembler walks these narrowest-first so a compressed-form
// instruction is recognized before its bytes are mistaken for the leading
// half of a wider one.
func (s *Set) Sizes() []int {
	seen := map[int]bool{}
	var out []int
	for _, candidates := range s.Instructions {
		for _, in := range candidates {
			if !seen[in.Size] {
				seen[in.Size] = true
				out = append(out, in.Size)
			}
		}
	}
	sort.Ints(out)
	return out
}

type parsedImm struct {
	bitwise bool
}

// parseSext32 wraps numeral.ParseIntSext32, narrowing its Info down to the
// one bit Imm.fits needs: whether the literal's radix permits the
// unsigned-of-width interpretation.
func parseSext32(text string) (int64, parsedImm, error) {
	v, info, err := numeral.ParseIntSext32(text)
	if err != nil {
		return 0, parsedImm{}, err
	}
	return v, parsedImm{bitwise: info.IsBitwise()}, nil
}
