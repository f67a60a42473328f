// Command ripesasm assembles RV32I/M source into a flat little-endian
// binary, printing a hex dump unless an output path is given.
package main

import (
	"fmt"
	"os"

	"github.com/grimdork/climate"

	"github.com/Urethramancer/ripes/assembler"
	"github.com/Urethramancer/ripes/isa"
)

type config struct {
	Input  string `flag:"i" required:"true" help:"source file to assemble"`
	Output string `flag:"o" help:"output binary path (defaults to a hex dump on stdout)"`
	Base   uint64 `flag:"base" help:"base address of the .text section"`
}

func main() {
	var cfg config
	app := climate.New("ripesasm", "Assemble RISC-V RV32I/M source into a flat binary")
	if err := app.Parse(&cfg, os.Args[1:]); err != nil {
		app.Fatal(err)
	}

	src, err := os.ReadFile(cfg.Input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading source file: %v\n", err)
		os.Exit(1)
	}

	set := isa.NewRV32I()
	a := assembler.New(set)
	if cfg.Base != 0 {
		a.SetSectionBase("text", cfg.Base)
	}

	prog, errs := a.Assemble(string(src))
	if len(errs) != 0 {
		fmt.Fprintln(os.Stderr, errs.Error())
		os.Exit(1)
	}

	code := prog.Sections["text"].Data
	if cfg.Output == "" {
		for i, b := range code {
			fmt.Printf("%02X ", b)
			if (i+1)%16 == 0 {
				fmt.Println()
			}
		}
		fmt.Println()
		return
	}

	if err := os.WriteFile(cfg.Output, code, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Assembled %d bytes to %s (entry point %#08x)\n", len(code), cfg.Output, prog.EntryPoint)
}
