package disassembler

import (
	"testing"

	"github.com/Urethramancer/ripes/assembler"
	"github.com/Urethramancer/ripes/isa"
)

func TestRoundTripAddInstruction(t *testing.T) {
	set := isa.NewRV32I()
	a := assembler.New(set)
	prog, errs := a.Assemble(".text\nadd a0, a1, a2\n")
	if len(errs) != 0 {
		t.Fatalf("Assemble: %v", errs)
	}
	instrs := Disassemble(set, prog.Sections["text"].Data, 0, prog)
	if len(instrs) != 1 || instrs[0].Err != nil {
		t.Fatalf("Disassemble = %+v", instrs)
	}
	want := []string{"add", "a0", "a1", "a2"}
	for i, w := range want {
		if instrs[0].Tokens[i] != w {
			t.Fatalf("Tokens = %v, want %v", instrs[0].Tokens, want)
		}
	}
}

func TestInvalidWordReported(t *testing.T) {
	set := isa.NewRV32I()
	instrs := Disassemble(set, []byte{0xFF, 0xFF, 0xFF, 0xFF}, 0, noSymbols{})
	if len(instrs) != 1 || instrs[0].Err == nil {
		t.Fatalf("expected one invalid-instruction entry, got %+v", instrs)
	}
}

func TestCompressedInstructionWalkedAtItsOwnWidth(t *testing.T) {
	set := isa.NewRV32I()
	a := assembler.New(set)
	prog, errs := a.Assemble(".text\nc.nop\nadd a0, a1, a2\n")
	if len(errs) != 0 {
		t.Fatalf("Assemble: %v", errs)
	}
	data := prog.Sections["text"].Data
	if len(data) != 6 {
		t.Fatalf("text section length = %d, want 6 (2-byte c.nop + 4-byte add)", len(data))
	}
	instrs := Disassemble(set, data, 0, prog)
	if len(instrs) != 2 {
		t.Fatalf("Disassemble = %+v, want 2 instructions", instrs)
	}
	if instrs[0].Err != nil || instrs[0].Tokens[0] != "c.nop" || instrs[0].Address != 0 {
		t.Fatalf("instrs[0] = %+v, want c.nop at address 0", instrs[0])
	}
	if instrs[1].Err != nil || instrs[1].Tokens[0] != "add" || instrs[1].Address != 2 {
		t.Fatalf("instrs[1] = %+v, want add at address 2", instrs[1])
	}
}

type noSymbols struct{}

func (noSymbols) NameAt(uint64) (string, bool) { return "", false }
