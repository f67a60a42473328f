// Command ripesdis disassembles a flat RV32I/M binary back into assembly
// text, one instruction per line.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/grimdork/climate"

	"github.com/Urethramancer/ripes/disassembler"
	"github.com/Urethramancer/ripes/isa"
)

type config struct {
	Input  string `flag:"i" required:"true" help:"flat binary file to disassemble"`
	Output string `flag:"o" help:"output text path (defaults to stdout)"`
	Base   uint64 `flag:"base" help:"address the first byte of the input is loaded at"`
}

type noSymbols struct{}

func (noSymbols) NameAt(uint64) (string, bool) { return "", false }

func main() {
	var cfg config
	app := climate.New("ripesdis", "Disassemble a flat RV32I/M binary")
	if err := app.Parse(&cfg, os.Args[1:]); err != nil {
		app.Fatal(err)
	}

	code, err := os.ReadFile(cfg.Input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
		os.Exit(1)
	}

	set := isa.NewRV32I()
	instrs := disassembler.Disassemble(set, code, cfg.Base, noSymbols{})

	var lines []string
	for _, in := range instrs {
		lines = append(lines, in.String())
	}
	out := strings.Join(lines, "\n") + "\n"

	if cfg.Output == "" {
		fmt.Print(out)
		return
	}
	if err := os.WriteFile(cfg.Output, []byte(out), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Disassembly written to %s\n", cfg.Output)
}
