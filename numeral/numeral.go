// Package numeral parses integer literals the way the assembler's immediate
// fields accept them: decimal, 0x-hex and 0b-binary, with an optional sign,
// and the 32-bit truncate-then-sign-extend convention that lets a toolchain
// write 0xFFFFFFFF into a 12-bit signed field and mean -1.
package numeral

import (
	"fmt"
	"strconv"
	"strings"
)

// Radix records which textual form a literal was written in, since the
// width-fit rule in isa.Imm differs for bitwise (hex/bin) vs decimal
// literals.
type Radix int

const (
	Signed Radix = iota
	Hex
	Binary
)

// Info is the result of a successful parse: the value plus enough context
// for a caller to apply the "bitwise-lenient" width check.
type Info struct {
	Value      int64
	Radix      Radix
	Unsigned   bool // literal was written with an explicit base prefix
	Is32Bit    bool // literal's digit count fits within a 32-bit quantity
}

// ParseInt parses text as a signed decimal, 0x-hex, or 0b-binary literal.
// An optional leading '+' or '-' is recognized before the radix prefix.
func ParseInt(text string) (Info, error) {
	s := strings.ToUpper(strings.TrimSpace(text))
	if s == "" {
		return Info{}, fmt.Errorf("empty literal")
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Info{Value: v, Radix: Signed}, nil
	}

	sign := int64(1)
	rest := s
	if len(rest) > 0 && (rest[0] == '+' || rest[0] == '-') {
		if rest[0] == '-' {
			sign = -1
		}
		rest = rest[1:]
	}

	switch {
	case strings.HasPrefix(rest, "0X"):
		digits := rest[2:]
		v, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			return Info{}, fmt.Errorf("invalid hex literal %q: %w", text, err)
		}
		return Info{Value: sign * int64(v), Radix: Hex, Unsigned: true, Is32Bit: len(digits) <= 8}, nil
	case strings.HasPrefix(rest, "0B"):
		digits := rest[2:]
		v, err := strconv.ParseUint(digits, 2, 64)
		if err != nil {
			return Info{}, fmt.Errorf("invalid binary literal %q: %w", text, err)
		}
		return Info{Value: sign * int64(v), Radix: Binary, Unsigned: true, Is32Bit: len(digits) <= 32}, nil
	default:
		return Info{}, fmt.Errorf("cannot parse literal %q", text)
	}
}

// ParseIntSext32 is ParseInt plus the 32-bit truncate-then-sign-extend rule:
// a bitwise literal (hex/bin) whose digit count implies a 32-bit quantity,
// and whose value's upper 32 bits are zero, is reinterpreted as a signed
// 32-bit value before being widened to int64. This is what lets
// "andi x14, x1, 0xffffff0f" be accepted as a signed immediate.
func ParseIntSext32(text string) (int64, Info, error) {
	info, err := ParseInt(text)
	if err != nil {
		return 0, Info{}, err
	}
	v := info.Value
	if info.Is32Bit && uint32(uint64(v)>>32) == 0 {
		v = int64(int32(uint32(v)))
	}
	return v, info, nil
}

// IsBitwise reports whether the literal was written in a radix (hex/binary)
// whose width-fit rule also accepts the unsigned-of-width interpretation.
func (i Info) IsBitwise() bool {
	return i.Radix == Hex || i.Radix == Binary
}
