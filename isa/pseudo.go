package isa

import "github.com/Urethramancer/ripes/numeral"

// registerPseudos installs the common RV32I pseudo-instructions. Each
// expander produces one or more real instruction lines (mnemonic followed by
// operands in the real instruction's own field order); expansion is
// one-step, so none of these expanders may themselves reference another
// pseudo-instruction's mnemonic.
func registerPseudos(s *Set) {
	add := func(p PseudoInstruction) { s.Pseudos[p.Mnemonic] = p }

	add(PseudoInstruction{
		Mnemonic:     "nop",
		ExpectedToks: 0,
		Expander: func([]string) ([][]string, error) {
			return [][]string{{"addi", "zero", "zero", "0"}}, nil
		},
	})

	add(PseudoInstruction{
		Mnemonic:     "mv",
		ExpectedToks: 2,
		Expander: func(ops []string) ([][]string, error) {
			return [][]string{{"addi", ops[0], ops[1], "0"}}, nil
		},
	})

	add(PseudoInstruction{
		Mnemonic:     "not",
		ExpectedToks: 2,
		Expander: func(ops []string) ([][]string, error) {
			return [][]string{{"xori", ops[0], ops[1], "-1"}}, nil
		},
	})

	add(PseudoInstruction{
		Mnemonic:     "neg",
		ExpectedToks: 2,
		Expander: func(ops []string) ([][]string, error) {
			return [][]string{{"sub", ops[0], "zero", ops[1]}}, nil
		},
	})

	add(PseudoInstruction{
		Mnemonic:     "j",
		ExpectedToks: 1,
		Expander: func(ops []string) ([][]string, error) {
			return [][]string{{"jal", "zero", ops[0]}}, nil
		},
	})

	add(PseudoInstruction{
		Mnemonic:     "jr",
		ExpectedToks: 1,
		Expander: func(ops []string) ([][]string, error) {
			return [][]string{{"jalr", "zero", "0", ops[0]}}, nil
		},
	})

	add(PseudoInstruction{
		Mnemonic:     "ret",
		ExpectedToks: 0,
		Expander: func([]string) ([][]string, error) {
			return [][]string{{"jalr", "zero", "0", "ra"}}, nil
		},
	})

	add(PseudoInstruction{
		Mnemonic:     "beqz",
		ExpectedToks: 2,
		Expander: func(ops []string) ([][]string, error) {
			return [][]string{{"beq", ops[0], "zero", ops[1]}}, nil
		},
	})

	add(PseudoInstruction{
		Mnemonic:     "bnez",
		ExpectedToks: 2,
		Expander: func(ops []string) ([][]string, error) {
			return [][]string{{"bne", ops[0], "zero", ops[1]}}, nil
		},
	})

	// li expands to a single addi when the literal fits a 12-bit signed
	// immediate, else to lui+addi covering the full 32 bits. Symbol operands
	// are rejected here (li is defined over literals only); use la-style
	// labels through lui/addi directly for address loads.
	add(PseudoInstruction{
		Mnemonic:     "li",
		ExpectedToks: 2,
		Expander: func(ops []string) ([][]string, error) {
			v, _, err := numeral.ParseIntSext32(ops[1])
			if err != nil {
				return nil, err
			}
			rd := ops[0]
			if v >= -2048 && v < 2048 {
				return [][]string{{"addi", rd, "zero", ops[1]}}, nil
			}
			upper := (v + 0x800) >> 12
			lower := v - (upper << 12)
			return [][]string{
				{"lui", rd, itoa(upper)},
				{"addi", rd, rd, itoa(lower)},
			}, nil
		},
	})
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [24]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
