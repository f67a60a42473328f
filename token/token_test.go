package token

import (
	"reflect"
	"testing"
)

func TestTokenizeBasic(t *testing.T) {
	got, err := Tokenize("add a0, a1, a2")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []string{"add", "a0", "a1", "a2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeQuotedString(t *testing.T) {
	got, err := Tokenize(`.string "hello, world"`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []string{".string", `"hello, world"`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeMemoryOperand(t *testing.T) {
	got, err := Tokenize("lw a0, 4(sp)")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []string{"lw", "a0", "4(sp)"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeMissingQuote(t *testing.T) {
	if _, err := Tokenize(`.string "oops`); err == nil {
		t.Fatalf("expected missing-terminating-quote error")
	}
}
