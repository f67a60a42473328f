package isa

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/Urethramancer/ripes/bits"
)

// regTable is the RV32 integer register file, named both by its numeric
// "x0".."x31" form and by the ABI mnemonic names assembly source normally
// uses (zero, ra, sp, ...).
type regTable struct {
	byName map[string]uint64
	byNum  [32]string
}

func newRegTable() *regTable {
	r := &regTable{byName: make(map[string]uint64)}
	abi := []string{
		"zero", "ra", "sp", "gp", "tp",
		"t0", "t1", "t2",
		"s0", "s1",
		"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
		"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
		"t3", "t4", "t5", "t6",
	}
	for i, name := range abi {
		r.byName[name] = uint64(i)
		r.byName[fmt.Sprintf("x%d", i)] = uint64(i)
		r.byNum[i] = name
	}
	// fp is a second name for s0/x8.
	r.byName["fp"] = 8
	return r
}

func (r *regTable) Lookup(name string) (uint64, bool) {
	num, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return num, ok
}

func (r *regTable) Name(num uint64) string {
	if num >= 32 {
		return fmt.Sprintf("x%d", num)
	}
	return r.byNum[num]
}

// word32 is shorthand for the bit-range width used throughout the base ISA.
const word32 = 32

// word16 is the bit-range width for the compressed (C-extension) subset.
const word16 = 16

func rng(start, stop uint) bits.Range { return bits.Range{Start: start, Stop: stop, N: word32} }

func rng16(start, stop uint) bits.Range { return bits.Range{Start: start, Stop: stop, N: word16} }

func opField(value uint64, r bits.Range) OpPart { return OpPart{Value: value, Range: r} }

// rType builds an R-type instruction: funct7 | rs2 | rs1 | funct3 | rd | opcode.
func rType(mnemonic string, opcode, funct3, funct7 uint64) Instruction {
	return Instruction{
		Mnemonic: mnemonic,
		Size:     4,
		Opcode: Opcode{
			opField(opcode, rng(0, 6)),
			opField(funct3, rng(12, 14)),
			opField(funct7, rng(25, 31)),
		},
		Fields: []Field{
			Reg{TokenIdx: 0, Range: rng(7, 11)},
			Reg{TokenIdx: 1, Range: rng(15, 19)},
			Reg{TokenIdx: 2, Range: rng(20, 24)},
		},
	}
}

// iType builds an I-type arithmetic/load instruction: imm[11:0] | rs1 | funct3 | rd | opcode.
// memSyntax instructions (loads) additionally place rs1 at TokenIdx 2 and the
// immediate at TokenIdx 1, matching the "rd, offset(rs1)" source form the
// assembler expands into three logical tokens.
func iType(mnemonic string, opcode, funct3 uint64, memSyntax bool) Instruction {
	rs1Tok, immTok := 1, 2
	if memSyntax {
		rs1Tok, immTok = 2, 1
	}
	return Instruction{
		Mnemonic: mnemonic,
		Size:     4,
		Opcode: Opcode{
			opField(opcode, rng(0, 6)),
			opField(funct3, rng(12, 14)),
		},
		Fields: []Field{
			Reg{TokenIdx: 0, Range: rng(7, 11)},
			Reg{TokenIdx: rs1Tok, Range: rng(15, 19)},
			Imm{TokenIdx: immTok, Width: 12, Repr: Signed, Parts: []ImmPart{
				{Offset: 0, Range: rng(20, 31)},
			}},
		},
	}
}

// sType builds a store: imm[11:5] | rs2 | rs1 | funct3 | imm[4:0] | opcode,
// source syntax "rs2, offset(rs1)".
func sType(mnemonic string, opcode, funct3 uint64) Instruction {
	return Instruction{
		Mnemonic: mnemonic,
		Size:     4,
		Opcode: Opcode{
			opField(opcode, rng(0, 6)),
			opField(funct3, rng(12, 14)),
		},
		Fields: []Field{
			Reg{TokenIdx: 0, Range: rng(20, 24)},
			Reg{TokenIdx: 2, Range: rng(15, 19)},
			Imm{TokenIdx: 1, Width: 12, Repr: Signed, Parts: []ImmPart{
				{Offset: 0, Range: rng(7, 11)},
				{Offset: 5, Range: rng(25, 31)},
			}},
		},
	}
}

// bType builds a conditional branch: imm[12|10:5] | rs2 | rs1 | funct3 | imm[4:1|11] | opcode.
// The encoded offset is PC-relative and always even (bit 0 is implicitly 0).
func bType(mnemonic string, opcode, funct3 uint64) Instruction {
	return Instruction{
		Mnemonic: mnemonic,
		Size:     4,
		Opcode: Opcode{
			opField(opcode, rng(0, 6)),
			opField(funct3, rng(12, 14)),
		},
		Fields: []Field{
			Reg{TokenIdx: 0, Range: rng(15, 19)},
			Reg{TokenIdx: 1, Range: rng(20, 24)},
			Imm{TokenIdx: 2, Width: 13, Repr: Signed, SymbolType: SymRelative, Parts: []ImmPart{
				{Offset: 1, Range: rng(8, 11)},
				{Offset: 5, Range: rng(25, 30)},
				{Offset: 11, Range: rng(7, 7)},
				{Offset: 12, Range: rng(31, 31)},
			}},
		},
	}
}

// uType builds a U-type instruction: imm[31:12] | rd | opcode.
func uType(mnemonic string, opcode uint64) Instruction {
	return Instruction{
		Mnemonic: mnemonic,
		Size:     4,
		Opcode: Opcode{
			opField(opcode, rng(0, 6)),
		},
		Fields: []Field{
			Reg{TokenIdx: 0, Range: rng(7, 11)},
			Imm{TokenIdx: 1, Width: 20, Repr: Hex, Parts: []ImmPart{
				{Offset: 0, Range: rng(12, 31)},
			}},
		},
	}
}

// jType builds JAL: imm[20|10:1|11|19:12] | rd | opcode.
func jType(mnemonic string, opcode uint64) Instruction {
	return Instruction{
		Mnemonic: mnemonic,
		Size:     4,
		Opcode: Opcode{
			opField(opcode, rng(0, 6)),
		},
		Fields: []Field{
			Reg{TokenIdx: 0, Range: rng(7, 11)},
			Imm{TokenIdx: 1, Width: 21, Repr: Signed, SymbolType: SymRelative, Parts: []ImmPart{
				{Offset: 1, Range: rng(21, 30)},
				{Offset: 11, Range: rng(20, 20)},
				{Offset: 12, Range: rng(12, 19)},
				{Offset: 20, Range: rng(31, 31)},
			}},
		},
	}
}

// c16 builds a fixed-pattern 16-bit compressed-form instruction: the entire
// word is matched as one opcode with no variable fields, the way c.nop and
// c.ebreak are encoded in the base C extension.
func c16(mnemonic string, pattern uint64) Instruction {
	return Instruction{
		Mnemonic: mnemonic,
		Size:     2,
		Opcode: Opcode{
			opField(pattern, rng16(0, 15)),
		},
	}
}

// NewRV32I builds the base 32-bit integer instruction set plus the RV32M
// multiply/divide extension, registered under one Set so both extensions
// share a single opcode-matching namespace, the way a real RV32IM target
// does.
func NewRV32I() *Set {
	s := &Set{
		Name:            "rv32im",
		DefaultWordSize: 4,
		Registers:       newRegTable(),
		Instructions:    make(map[string][]Instruction),
		Pseudos:         make(map[string]PseudoInstruction),
	}

	add := func(in Instruction) {
		// Keep Fields in source-operand order regardless of the order each
		// builder function listed them in, so anything walking Fields
		// directly (error messages, a future operand-by-operand printer)
		// sees them left to right.
		slices.SortFunc(in.Fields, func(a, b Field) int { return a.Token() - b.Token() })
		s.Instructions[in.Mnemonic] = append(s.Instructions[in.Mnemonic], in)
	}

	// R-type base arithmetic (opcode 0110011).
	add(rType("add", 0b0110011, 0b000, 0b0000000))
	add(rType("sub", 0b0110011, 0b000, 0b0100000))
	add(rType("sll", 0b0110011, 0b001, 0b0000000))
	add(rType("slt", 0b0110011, 0b010, 0b0000000))
	add(rType("sltu", 0b0110011, 0b011, 0b0000000))
	add(rType("xor", 0b0110011, 0b100, 0b0000000))
	add(rType("srl", 0b0110011, 0b101, 0b0000000))
	add(rType("sra", 0b0110011, 0b101, 0b0100000))
	add(rType("or", 0b0110011, 0b110, 0b0000000))
	add(rType("and", 0b0110011, 0b111, 0b0000000))

	// RV32M multiply/divide (same opcode, funct7 = 0000001).
	add(rType("mul", 0b0110011, 0b000, 0b0000001))
	add(rType("mulh", 0b0110011, 0b001, 0b0000001))
	add(rType("mulhsu", 0b0110011, 0b010, 0b0000001))
	add(rType("mulhu", 0b0110011, 0b011, 0b0000001))
	add(rType("div", 0b0110011, 0b100, 0b0000001))
	add(rType("divu", 0b0110011, 0b101, 0b0000001))
	add(rType("rem", 0b0110011, 0b110, 0b0000001))
	add(rType("remu", 0b0110011, 0b111, 0b0000001))

	// I-type arithmetic (opcode 0010011).
	add(iType("addi", 0b0010011, 0b000, false))
	add(iType("slti", 0b0010011, 0b010, false))
	add(iType("sltiu", 0b0010011, 0b011, false))
	add(iType("xori", 0b0010011, 0b100, false))
	add(iType("ori", 0b0010011, 0b110, false))
	add(iType("andi", 0b0010011, 0b111, false))

	// Loads (opcode 0000011), "rd, offset(rs1)" syntax.
	add(iType("lb", 0b0000011, 0b000, true))
	add(iType("lh", 0b0000011, 0b001, true))
	add(iType("lw", 0b0000011, 0b010, true))
	add(iType("lbu", 0b0000011, 0b100, true))
	add(iType("lhu", 0b0000011, 0b101, true))

	// jalr (opcode 1100111), "rd, offset(rs1)" syntax.
	add(iType("jalr", 0b1100111, 0b000, true))

	// Stores (opcode 0100011), "rs2, offset(rs1)" syntax.
	add(sType("sb", 0b0100011, 0b000))
	add(sType("sh", 0b0100011, 0b001))
	add(sType("sw", 0b0100011, 0b010))

	// Branches (opcode 1100011).
	add(bType("beq", 0b1100011, 0b000))
	add(bType("bne", 0b1100011, 0b001))
	add(bType("blt", 0b1100011, 0b100))
	add(bType("bge", 0b1100011, 0b101))
	add(bType("bltu", 0b1100011, 0b110))
	add(bType("bgeu", 0b1100011, 0b111))

	add(uType("lui", 0b0110111))
	add(uType("auipc", 0b0010111))
	add(jType("jal", 0b1101111))
	// "jal offset" is shorthand for "jal ra, offset": rd is fixed to ra by one
	// OpPart over bits 0..11, which ties with jal's own one-part opcode, so
	// MatchWord keeps the two-operand form registered first.
	short := jType("jal", 0b1101111)
	target := short.Fields[1].(Imm)
	target.TokenIdx = 0
	short.Opcode = Opcode{opField(0b1101111|1<<7, rng(0, 11))}
	short.Fields = []Field{target}
	add(short)

	add(Instruction{
		Mnemonic: "ecall",
		Size:     4,
		Opcode:   Opcode{opField(0b1110011, rng(0, 6)), opField(0, rng(20, 31)), opField(0, rng(7, 19))},
	})
	add(Instruction{
		Mnemonic: "ebreak",
		Size:     4,
		Opcode:   Opcode{opField(0b1110011, rng(0, 6)), opField(1, rng(20, 31)), opField(0, rng(7, 19))},
	})

	// Compressed subset (RVC): a couple of fixed-pattern 16-bit forms to
	// exercise the size-2 instruction path alongside the 4-byte base set.
	add(c16("c.nop", 0x0001))
	add(c16("c.ebreak", 0x9002))

	registerPseudos(s)
	return s
}
