package numeral

import "testing"

func TestParseInt(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		want    int64
		radix   Radix
		wantErr bool
	}{
		{"decimal", "42", 42, Signed, false},
		{"negative decimal", "-7", -7, Signed, false},
		{"hex", "0x1F", 0x1F, Hex, false},
		{"hex signed prefix", "-0x10", -0x10, Hex, false},
		{"binary", "0b1010", 0b1010, Binary, false},
		{"garbage", "xyz", 0, Signed, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			info, err := ParseInt(c.src)
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.Value != c.want {
				t.Errorf("Value = %d, want %d", info.Value, c.want)
			}
			if info.Radix != c.radix {
				t.Errorf("Radix = %v, want %v", info.Radix, c.radix)
			}
		})
	}
}

func TestParseIntSext32(t *testing.T) {
	v, info, err := ParseIntSext32("0xFFFFFFFF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != -1 {
		t.Fatalf("ParseIntSext32(0xFFFFFFFF) = %d, want -1", v)
	}
	if !info.IsBitwise() {
		t.Fatalf("expected bitwise radix")
	}
}
