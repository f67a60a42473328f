// Command ripescache replays a memory access trace against a configurable
// set-associative cache and reports hit/miss/writeback counters.
//
// Trace lines are "R <hex address>" or "W <hex address>", one per line;
// blank lines and lines starting with '#' are ignored.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/grimdork/climate"

	"github.com/Urethramancer/ripes/cache"
)

type config struct {
	Trace      string `flag:"trace" required:"true" help:"access trace file"`
	BlocksLog2 uint   `flag:"blocks" help:"log2 of the block size in words"`
	LinesLog2  uint   `flag:"lines" help:"log2 of the number of lines"`
	WaysLog2   uint   `flag:"ways" help:"log2 of the associativity"`
	WriteBack  bool   `flag:"writeback" help:"use write-back instead of write-through"`
	Allocate   bool   `flag:"allocate" help:"use write-allocate on a write miss"`
	Random     bool   `flag:"random" help:"use random replacement instead of LRU"`
	Debug      bool   `flag:"debug" help:"dump full cache state after replay"`
}

func main() {
	cfg := config{LinesLog2: 4, WaysLog2: 1, Allocate: true}
	app := climate.New("ripescache", "Replay a memory access trace against a set-associative cache")
	if err := app.Parse(&cfg, os.Args[1:]); err != nil {
		app.Fatal(err)
	}

	f, err := os.Open(cfg.Trace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening trace file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	ccfg := cache.Config{
		BlocksLog2: cfg.BlocksLog2,
		LinesLog2:  cfg.LinesLog2,
		WaysLog2:   cfg.WaysLog2,
		Write:      cache.WriteThrough,
		Alloc:      cache.NoWriteAllocate,
		Repl:       cache.LRU,
	}
	if cfg.WriteBack {
		ccfg.Write = cache.WriteBack
	}
	if cfg.Allocate {
		ccfg.Alloc = cache.WriteAllocate
	}
	if cfg.Random {
		ccfg.Repl = cache.Random
	}
	c := cache.New(ccfg, 256)

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		at, addr, err := parseTraceLine(text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "trace line %d: %v\n", line, err)
			os.Exit(1)
		}
		c.Access(addr, at)
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading trace file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("hits=%d misses=%d writebacks=%d hit-rate=%.2f%%\n",
		c.Hits(), c.Misses(), c.Writebacks(), c.HitRate()*100)

	if cfg.Debug {
		for i := uint64(0); i < uint64(1)<<ccfg.LinesLog2; i++ {
			spew.Fdump(os.Stdout, c.GetLine(i))
		}
	}
}

func parseTraceLine(text string) (cache.AccessType, uint64, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected \"R|W <hex address>\", got %q", text)
	}
	var at cache.AccessType
	switch strings.ToUpper(fields[0]) {
	case "R":
		at = cache.Read
	case "W":
		at = cache.Write
	default:
		return 0, 0, fmt.Errorf("unknown access type %q", fields[0])
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid address %q: %w", fields[1], err)
	}
	return at, addr, nil
}
