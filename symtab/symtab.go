// Package symtab implements the assembler's symbol table: absolute symbols
// (unique for the whole program) and numeric-local symbols (disambiguated by
// source line, referenced by the nearest-forward/nearest-backward "Nf"/"Nb"
// convention common to GNU-style assemblers).
package symtab

import (
	"fmt"
	"sort"
)

// Type classifies a symbol the way the disassembler and linker need to:
// an Address symbol names a program location, a Constant names a value
// defined by .equ.
type Type int

const (
	Address Type = 1 << iota
	Constant
)

// MultipleDefinitionError reports a symbol bound more than once where the
// language requires uniqueness.
type MultipleDefinitionError struct {
	Name string
	Line int
}

func (e *MultipleDefinitionError) Error() string {
	return fmt.Sprintf("multiple definitions of symbol %q at line %d", e.Name, e.Line)
}

// Map is the assembler's symbol table.
type Map struct {
	abs      map[string]int64
	absType  map[string]Type
	rel      map[string]map[int]int64 // name -> definition line -> value
}

// New returns an empty symbol map.
func New() *Map {
	return &Map{
		abs:     make(map[string]int64),
		absType: make(map[string]Type),
		rel:     make(map[string]map[int]int64),
	}
}

// AddAbsolute binds an absolute symbol. Re-definition at a different (or the
// same) line is an error.
func (m *Map) AddAbsolute(line int, name string, value int64, t Type) error {
	if _, ok := m.abs[name]; ok {
		return &MultipleDefinitionError{Name: name, Line: line}
	}
	m.abs[name] = value
	m.absType[name] = t
	return nil
}

// AddRelative binds a numeric-local symbol at the given definition line.
// name must be a nonempty decimal integer; see IsLocal.
func (m *Map) AddRelative(line int, name string, value int64) error {
	if !IsLocal(name) {
		return fmt.Errorf("relative symbol %q is not a decimal-local name", name)
	}
	byLine, ok := m.rel[name]
	if !ok {
		byLine = make(map[int]int64)
		m.rel[name] = byLine
	}
	if _, ok := byLine[line]; ok {
		return &MultipleDefinitionError{Name: name, Line: line}
	}
	byLine[line] = value
	return nil
}

// Absolute looks up an absolute symbol by name.
func (m *Map) Absolute(name string) (int64, bool) {
	v, ok := m.abs[name]
	return v, ok
}

// IsLocal reports whether name parses as a nonempty decimal integer, the
// condition that makes it a numeric-local label rather than an ordinary one.
func IsLocal(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Snapshot flattens the symbol map relative to a source line: absolute
// symbols pass through unchanged; for each local numeric name n, the nearest
// definition strictly after line is exposed as "n"+fSfx, and the nearest
// definition strictly before line is exposed as "n"+bSfx.
func (m *Map) Snapshot(line int, bSfx, fSfx string) map[string]int64 {
	out := make(map[string]int64, len(m.abs))
	for k, v := range m.abs {
		out[k] = v
	}
	for name, byLine := range m.rel {
		lines := make([]int, 0, len(byLine))
		for l := range byLine {
			lines = append(lines, l)
		}
		sort.Ints(lines)

		var forward, backward *int
		for _, l := range lines {
			if l > line {
				if forward == nil {
					v := l
					forward = &v
				}
			}
			if l < line {
				v := l
				backward = &v // lines sorted ascending; last assignment is largest < line
			}
		}
		if forward != nil {
			out[name+fSfx] = byLine[*forward]
		}
		if backward != nil {
			out[name+bSfx] = byLine[*backward]
		}
	}
	return out
}

// snapshotResolver adapts a flattened snapshot map to expr.Resolver without
// importing the expr package here (avoids a dependency cycle risk and keeps
// symtab usable standalone).
type snapshotResolver map[string]int64

func (s snapshotResolver) Resolve(name string) (int64, bool) {
	v, ok := s[name]
	return v, ok
}

// Resolver returns an expr.Resolver-compatible value (satisfying the
// Resolve(name string) (int64, bool) method set) backed by a snapshot taken
// relative to line.
func (m *Map) Resolver(line int, bSfx, fSfx string) interface{ Resolve(string) (int64, bool) } {
	return snapshotResolver(m.Snapshot(line, bSfx, fSfx))
}
