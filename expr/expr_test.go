package expr

import "testing"

type mapResolver map[string]int64

func (m mapResolver) Resolve(name string) (int64, bool) {
	v, ok := m[name]
	return v, ok
}

func TestEval(t *testing.T) {
	cases := []struct {
		name string
		src  string
		syms mapResolver
		want int64
	}{
		{"parens and mult", "(0x2*(3+4))+4", nil, 18},
		{"right assoc chain", "2+3*7*5", nil, 107},
		{"symbol substitution", "(B*(3+4))+4", mapResolver{"B": 2}, 18},
		{"bitwise and", "0xF0&0x33", nil, 0x30},
		{"bitwise or", "0x0F|0xF0", nil, 0xFF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := Resolver(ResolverFunc(func(string) (int64, bool) { return 0, false }))
			if c.syms != nil {
				res = c.syms
			}
			got, err := Eval(c.src, res)
			if err != nil {
				t.Fatalf("Eval(%q): %v", c.src, err)
			}
			if got != c.want {
				t.Errorf("Eval(%q) = %d, want %d", c.src, got, c.want)
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	res := ResolverFunc(func(string) (int64, bool) { return 0, false })
	if _, err := Eval("(1+2", res); err == nil {
		t.Fatalf("expected unmatched-paren error")
	}
	if _, err := Eval("1+unknownsym", res); err == nil {
		t.Fatalf("expected unknown-symbol error")
	}
}
