package isa

import "testing"

type noSymbols struct{}

func (noSymbols) NameAt(uint64) (string, bool) { return "", false }

func TestRTypeRoundTrip(t *testing.T) {
	s := NewRV32I()
	candidates, ok := s.Lookup("add")
	if !ok {
		t.Fatalf("add not registered")
	}
	in := candidates[0]
	word, link, err := in.Assemble([]string{"a0", "a1", "a2"}, s.Registers)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if link != nil {
		t.Fatalf("unexpected link request")
	}
	match, ok := s.MatchWord(word)
	if !ok || match.Mnemonic != "add" {
		t.Fatalf("MatchWord did not find add, got %+v ok=%v", match, ok)
	}
	toks := match.Disassemble(word, 0, s.Registers, noSymbols{})
	want := []string{"add", "a0", "a1", "a2"}
	for i := range want {
		if toks[i] != want[i] {
			t.Fatalf("Disassemble = %v, want %v", toks, want)
		}
	}
}

func TestITypeImmediateRoundTrip(t *testing.T) {
	s := NewRV32I()
	in := s.Instructions["addi"][0]
	word, _, err := in.Assemble([]string{"t0", "t1", "-5"}, s.Registers)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	match, ok := s.MatchWord(word)
	if !ok || match.Mnemonic != "addi" {
		t.Fatalf("MatchWord failed: %+v %v", match, ok)
	}
	toks := match.Disassemble(word, 0, s.Registers, noSymbols{})
	if toks[3] != "-5" {
		t.Fatalf("decoded immediate = %s, want -5", toks[3])
	}
}

func TestImmediateOutOfRange(t *testing.T) {
	s := NewRV32I()
	in := s.Instructions["addi"][0]
	_, _, err := in.Assemble([]string{"t0", "t1", "4096"}, s.Registers)
	if err == nil {
		t.Fatalf("expected out-of-range error for a 13-bit decimal literal in a 12-bit field")
	}
}

func TestBTypeLinkRequestAndResolve(t *testing.T) {
	s := NewRV32I()
	in := s.Instructions["beq"][0]
	word, link, err := in.Assemble([]string{"t0", "t1", "LOOP"}, s.Registers)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if link == nil || link.Symbol != "LOOP" {
		t.Fatalf("expected a link request for symbol LOOP, got %+v", link)
	}
	// Instruction at address 0x100, symbol LOOP defined at 0x0F8 -> offset -8.
	resolved, err := in.ResolveField(word, link, 0x0F8, 0x100)
	if err != nil {
		t.Fatalf("ResolveField: %v", err)
	}
	match, ok := s.MatchWord(resolved)
	if !ok || match.Mnemonic != "beq" {
		t.Fatalf("MatchWord failed after resolve: %+v %v", match, ok)
	}
	toks := match.Disassemble(resolved, 0x100, s.Registers, noSymbols{})
	if toks[3] != "-8" {
		t.Fatalf("decoded branch offset = %s, want -8", toks[3])
	}
}

func TestCompressedFormSizeAndMatch(t *testing.T) {
	s := NewRV32I()
	in := s.Instructions["c.nop"][0]
	if in.Size != 2 {
		t.Fatalf("c.nop Size = %d, want 2", in.Size)
	}
	word, _, err := in.Assemble(nil, s.Registers)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if word != 0x0001 {
		t.Fatalf("c.nop word = %#x, want 0x0001", word)
	}
	match, ok := s.MatchWordSized(word, 2)
	if !ok || match.Mnemonic != "c.nop" {
		t.Fatalf("MatchWordSized(0x0001, 2) = %+v, %v", match, ok)
	}
	if _, ok := s.MatchWordSized(word, 4); ok {
		t.Fatalf("MatchWordSized must not match a 2-byte pattern against a 4-byte width")
	}
}

func TestSizesReturnsBothInstructionWidths(t *testing.T) {
	s := NewRV32I()
	sizes := s.Sizes()
	if len(sizes) != 2 || sizes[0] != 2 || sizes[1] != 4 {
		t.Fatalf("Sizes() = %v, want [2 4]", sizes)
	}
}

func TestLiPseudoExpansion(t *testing.T) {
	s := NewRV32I()
	p := s.Pseudos["li"]
	lines, err := p.Expander([]string{"a0", "100"})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(lines) != 1 || lines[0][0] != "addi" {
		t.Fatalf("expected a single addi for a small literal, got %v", lines)
	}
	lines, err = p.Expander([]string{"a0", "100000"})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(lines) != 2 || lines[0][0] != "lui" || lines[1][0] != "addi" {
		t.Fatalf("expected lui+addi for a large literal, got %v", lines)
	}
}
