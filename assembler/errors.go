package assembler

import "strings"

// Error is a single diagnostic bound to a source line, the unit the
// assembler accumulates across an entire pass rather than aborting on.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return "line " + itoa(e.Line) + ": " + e.Msg
}

// Errors collects every Error raised during a pass. Assembly is considered
// to have failed iff the list is non-empty, even though every line was
// still attempted.
type Errors []*Error

func (e Errors) Error() string {
	lines := make([]string, len(e))
	for i, err := range e {
		lines[i] = err.Error()
	}
	return strings.Join(lines, "\n")
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
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
