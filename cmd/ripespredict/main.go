// Command ripespredict replays a branch trace against a chosen predictor
// and reports prediction accuracy.
//
// Trace lines are "<hex address> <C|U> <T|N>" (conditional/unconditional,
// taken/not-taken), one per line; blank lines and lines starting with '#'
// are ignored.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/grimdork/climate"

	"github.com/Urethramancer/ripes/predictor"
)

type config struct {
	Trace       string `flag:"trace" required:"true" help:"branch trace file"`
	Kind        string `flag:"kind" help:"always-taken, always-not-taken, counter, global, or local"`
	StateBits   uint   `flag:"state-bits" help:"saturating counter width"`
	HistoryBits uint   `flag:"history-bits" help:"history register width (global/local)"`
	AddressBits uint   `flag:"address-bits" help:"address bits indexing the local history table (local only)"`
	Debug       bool   `flag:"debug" help:"dump predictor state after replay"`
}

func buildPredictor(cfg config) (predictor.Predictor, error) {
	switch cfg.Kind {
	case "", "always-taken":
		return predictor.NewAlwaysTaken(), nil
	case "always-not-taken":
		return predictor.NewAlwaysNotTaken(), nil
	case "counter":
		return predictor.NewCounter(cfg.StateBits), nil
	case "global":
		return predictor.NewGlobal(cfg.HistoryBits, cfg.StateBits), nil
	case "local":
		return predictor.NewLocal(cfg.AddressBits, cfg.HistoryBits, cfg.StateBits), nil
	default:
		return nil, fmt.Errorf("unknown predictor kind %q", cfg.Kind)
	}
}

func main() {
	cfg := config{Kind: "counter", StateBits: 2, HistoryBits: 4, AddressBits: 4}
	app := climate.New("ripespredict", "Replay a branch trace against a branch predictor")
	if err := app.Parse(&cfg, os.Args[1:]); err != nil {
		app.Fatal(err)
	}

	p, err := buildPredictor(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	f, err := os.Open(cfg.Trace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening trace file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		addr, isConditional, actualTaken, err := parseTraceLine(text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "trace line %d: %v\n", lineNo, err)
			os.Exit(1)
		}
		predicted := p.Predict(addr, true, isConditional)
		miss := predicted != actualTaken
		p.Update(addr, predicted, miss, true, isConditional)
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading trace file: %v\n", err)
		os.Exit(1)
	}

	acc := p.Accuracy()
	fmt.Printf("conditional:   %d/%d correct (%.2f%%)\n",
		acc.Conditional.Total-acc.Conditional.Miss, acc.Conditional.Total, acc.Conditional.Rate()*100)
	fmt.Printf("unconditional: %d/%d correct (%.2f%%)\n",
		acc.Unconditional.Total-acc.Unconditional.Miss, acc.Unconditional.Total, acc.Unconditional.Rate()*100)

	if cfg.Debug {
		spew.Fdump(os.Stdout, p)
	}
}

func parseTraceLine(text string) (addr uint64, isConditional, actualTaken bool, err error) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return 0, false, false, fmt.Errorf("expected \"<hex address> <C|U> <T|N>\", got %q", text)
	}
	addr, err = strconv.ParseUint(strings.TrimPrefix(fields[0], "0x"), 16, 64)
	if err != nil {
		return 0, false, false, fmt.Errorf("invalid address %q: %w", fields[0], err)
	}
	switch strings.ToUpper(fields[1]) {
	case "C":
		isConditional = true
	case "U":
		isConditional = false
	default:
		return 0, false, false, fmt.Errorf("unknown branch shape %q", fields[1])
	}
	switch strings.ToUpper(fields[2]) {
	case "T":
		actualTaken = true
	case "N":
		actualTaken = false
	default:
		return 0, false, false, fmt.Errorf("unknown outcome %q", fields[2])
	}
	return addr, isConditional, actualTaken, nil
}
