// Package assembler implements the two-pass, ISA-parametric assembler:
// tokenize, split labels/directive/comment off each line, expand
// pseudo-instructions, walk a discovery pass that fixes every label's
// address, then an emission pass that resolves symbol references and
// writes machine code into sections.
package assembler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Urethramancer/ripes/expr"
	"github.com/Urethramancer/ripes/isa"
	"github.com/Urethramancer/ripes/symtab"
	"github.com/Urethramancer/ripes/token"
)

const commentDelimiter = "#"

var memOperandRe = regexp.MustCompile(`^(.+)\((\w+)\)$`)

// Assembler holds one ISA's instruction/pseudo tables plus the mutable
// per-call state (current section, symbol table) of a single Assemble
// invocation. An Assembler is reusable across calls; each call starts with a
// fresh symbol table and section cursor.
type Assembler struct {
	isa            *isa.Set
	directives     map[string]*Directive
	symbols        *symtab.Map
	currentSection string
	sectionBase    map[string]uint64
}

// New returns an assembler targeting the given instruction set.
func New(set *isa.Set) *Assembler {
	return &Assembler{
		isa:         set,
		directives:  registerDirectives(),
		sectionBase: map[string]uint64{"text": 0, "data": 0x10000},
	}
}

// SetSectionBase overrides a section's base address before assembling.
func (a *Assembler) SetSectionBase(name string, base uint64) {
	a.sectionBase[name] = base
}

// Assemble runs both passes over src and returns the resulting program. The
// result is only valid if errs is empty; every line is still attempted even
// once an earlier line has failed.
func (a *Assembler) Assemble(src string) (*Program, Errors) {
	a.symbols = symtab.New()
	a.currentSection = "text"

	rawLines := strings.Split(src, "\n")
	var errs Errors
	lines := a.discover(rawLines, &errs)
	prog := a.emit(lines, &errs)
	return prog, errs
}

func (a *Assembler) evalExpr(line int, text string) (int64, error) {
	resolver := a.symbols.Resolver(line, "b", "f")
	v, err := expr.Eval(text, resolver)
	if err != nil {
		return 0, &Error{Line: line, Msg: err.Error()}
	}
	return v, nil
}

// discover runs pass 1: tokenize, decompose, expand pseudo-instructions,
// assign addresses, register symbols, and run early directives.
func (a *Assembler) discover(rawLines []string, errs *Errors) []*srcLine {
	addr := map[string]uint64{}
	for name, base := range a.sectionBase {
		addr[name] = base
	}

	var out []*srcLine
	for i, raw := range rawLines {
		loc := i + 1
		decomposed, err := a.decompose(loc, raw)
		if err != nil {
			*errs = append(*errs, err.(*Error))
			continue
		}
		if decomposed == nil || decomposed.isEmpty() {
			continue
		}

		expanded, err := a.expandPseudo(decomposed)
		if err != nil {
			*errs = append(*errs, &Error{Line: loc, Msg: err.Error()})
			continue
		}

		for _, l := range expanded {
			l.Addr = addr[a.currentSectionForLine(l)]
			size, serr := a.lineSize(l)
			if serr != nil {
				*errs = append(*errs, &Error{Line: loc, Msg: serr.Error()})
				continue
			}
			l.Size = size

			for _, label := range l.Labels {
				if err := a.registerSymbol(loc, label, l.Addr); err != nil {
					*errs = append(*errs, &Error{Line: loc, Msg: err.Error()})
				}
			}

			if l.Directive != "" {
				if d, ok := a.directives[l.Directive]; ok {
					if d.Early {
						if _, eerr := d.Emit(a, loc, l.DirectiveOperands); eerr != nil {
							*errs = append(*errs, &Error{Line: loc, Msg: eerr.Error()})
						}
					} else {
						// non-early directives still need the section
						// cursor update to happen in discovery order so
						// later lines land in the right section.
						if l.Directive == ".text" || l.Directive == ".data" {
							a.currentSection = strings.TrimPrefix(l.Directive, ".")
						}
					}
				} else {
					*errs = append(*errs, &Error{Line: loc, Msg: fmt.Sprintf("unknown directive %q", l.Directive)})
				}
			}

			sec := a.currentSectionForLine(l)
			addr[sec] += l.Size
			out = append(out, l)
		}
	}
	return out
}

// currentSectionForLine re-derives which section a line belongs to by
// replaying section-switch directives; since discover() processes lines in
// order and mutates a.currentSection as it goes, this is simply the
// assembler's section cursor at the moment the line is visited.
func (a *Assembler) currentSectionForLine(*srcLine) string {
	return a.currentSection
}

// decompose tokenizes one raw line and splits off its comment, labels and
// directive, leaving Mnemonic/Operands or Directive/DirectiveOperands.
func (a *Assembler) decompose(loc int, raw string) (*srcLine, error) {
	tokens, err := token.Tokenize(raw)
	if err != nil {
		return nil, &Error{Line: loc, Msg: err.Error()}
	}

	tokens = stripComment(tokens)
	labels, tokens, err := splitLabels(loc, tokens)
	if err != nil {
		return nil, err
	}
	directive, tokens, err := splitDirective(loc, tokens)
	if err != nil {
		return nil, err
	}

	l := &srcLine{Loc: loc, Labels: labels}
	if directive != "" {
		l.Directive = directive
		l.DirectiveOperands = tokens
		return l, nil
	}
	if len(tokens) > 0 {
		l.Mnemonic = strings.ToLower(tokens[0])
		l.Operands = tokens[1:]
	}
	return l, nil
}

func stripComment(tokens []string) []string {
	for i, t := range tokens {
		if strings.HasPrefix(t, commentDelimiter) {
			return tokens[:i]
		}
	}
	return tokens
}

const exprOperatorChars = "()+-*/%&|"

func splitLabels(loc int, tokens []string) ([]string, []string, error) {
	var labels []string
	var rest []string
	allowed := true
	for _, t := range tokens {
		if strings.HasSuffix(t, ":") {
			if !allowed {
				return nil, nil, &Error{Line: loc, Msg: "stray ':' in line"}
			}
			name := strings.TrimSuffix(t, ":")
			if name == "" || strings.ContainsAny(name, exprOperatorChars) {
				return nil, nil, &Error{Line: loc, Msg: fmt.Sprintf("invalid symbol %q", name)}
			}
			for _, existing := range labels {
				if existing == name {
					return nil, nil, &Error{Line: loc, Msg: fmt.Sprintf("multiple definitions of symbol %q", name)}
				}
			}
			labels = append(labels, name)
		} else {
			rest = append(rest, t)
			allowed = false
		}
	}
	return labels, rest, nil
}

func splitDirective(loc int, tokens []string) (string, []string, error) {
	var directive string
	var rest []string
	allowed := true
	for _, t := range tokens {
		if strings.HasPrefix(t, ".") {
			if !allowed {
				return "", nil, &Error{Line: loc, Msg: "illegal multiple directives"}
			}
			if directive != "" {
				return "", nil, &Error{Line: loc, Msg: "illegal multiple directives"}
			}
			directive = strings.ToLower(t)
		} else {
			rest = append(rest, t)
			allowed = false
		}
	}
	return directive, rest, nil
}

// expandPseudo replaces a pseudo-instruction line with its one-step real
// instruction expansion, or returns the line unchanged if its mnemonic is
// not a pseudo-instruction.
func (a *Assembler) expandPseudo(l *srcLine) ([]*srcLine, error) {
	if l.Directive != "" || l.Mnemonic == "" {
		return []*srcLine{l}, nil
	}
	p, ok := a.isa.Pseudos[l.Mnemonic]
	if !ok {
		return []*srcLine{l}, nil
	}
	if len(l.Operands) != p.ExpectedToks {
		return nil, fmt.Errorf("%s expects %d operands, got %d", l.Mnemonic, p.ExpectedToks, len(l.Operands))
	}
	expansion, err := p.Expander(l.Operands)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Mnemonic, err)
	}
	out := make([]*srcLine, len(expansion))
	for i, toks := range expansion {
		out[i] = &srcLine{Loc: l.Loc, Mnemonic: toks[0], Operands: toks[1:]}
		if i == 0 {
			out[i].Labels = l.Labels
		}
	}
	return out, nil
}

// lineSize computes the byte footprint of a line for pass-1 address
// advancement: an instruction's fixed size, or a directive's dry-run size
// (rounded to 4 bytes for data-emitting directives).
func (a *Assembler) lineSize(l *srcLine) (uint64, error) {
	if l.Directive != "" {
		d, ok := a.directives[l.Directive]
		if !ok {
			return 0, fmt.Errorf("unknown directive %q", l.Directive)
		}
		size, err := d.Size(a, l.Loc, l.DirectiveOperands)
		if err != nil {
			return 0, err
		}
		if d.IsData {
			size = roundUp4(size)
		}
		return size, nil
	}
	if l.Mnemonic == "" {
		return 0, nil
	}
	candidates, ok := a.isa.Lookup(l.Mnemonic)
	if !ok {
		return 0, fmt.Errorf("unknown instruction %q", l.Mnemonic)
	}
	return uint64(candidates[0].Size), nil
}

func roundUp4(n uint64) uint64 {
	if n%4 == 0 {
		return n
	}
	return n + (4 - n%4)
}

func (a *Assembler) registerSymbol(loc int, name string, addr uint64) error {
	if symtab.IsLocal(name) {
		return a.symbols.AddRelative(loc, name, int64(addr))
	}
	return a.symbols.AddAbsolute(loc, name, int64(addr), symtab.Address)
}

// expandMemOperands splices a trailing "offset(reg)" operand, produced by
// the tokenizer's paren-join, into its two logical fields so isa.Field
// token indices line up with the source syntax "rd, offset(rs1)".
func expandMemOperands(operands []string) []string {
	var out []string
	for _, op := range operands {
		if m := memOperandRe.FindStringSubmatch(op); m != nil {
			out = append(out, m[1], m[2])
			continue
		}
		out = append(out, op)
	}
	return out
}
