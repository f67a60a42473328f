package assembler

// srcLine is one tokenized, decomposed source line, possibly synthesized by
// a pseudo-instruction expansion (in which case Loc points back at the
// originating line, for diagnostics).
type srcLine struct {
	Loc               int
	Labels            []string
	Directive         string
	DirectiveOperands []string
	Mnemonic          string
	Operands          []string
	Addr              uint64
	Size              uint64
}

func (l *srcLine) isEmpty() bool {
	return l.Directive == "" && l.Mnemonic == "" && len(l.Labels) == 0
}
