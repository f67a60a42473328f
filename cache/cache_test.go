package cache

import "testing"

func twoWayTwoLineLRU() *Cache {
	cfg := Config{BlocksLog2: 0, LinesLog2: 1, WaysLog2: 1, Write: WriteBack, Alloc: WriteAllocate, Repl: LRU}
	return New(cfg, 64)
}

func TestS4LRUHitMissPattern(t *testing.T) {
	c := twoWayTwoLineLRU()
	seq := []uint64{0x00, 0x10, 0x00, 0x20}
	wantHits := []bool{false, false, true, false}
	for i, addr := range seq {
		txn := c.Access(addr, Read)
		if txn.IsHit != wantHits[i] {
			t.Fatalf("access %d (addr %#x): hit = %v, want %v", i, addr, txn.IsHit, wantHits[i])
		}
	}
	line := c.GetLine(0)
	var rank0x00, rank0x20 int
	for _, w := range line {
		if w.Tag == 0 { // addr 0x00 -> tag 0
			rank0x00 = w.LRURank
		}
		if w.Tag == 4 { // addr 0x20 -> tag 4
			rank0x20 = w.LRURank
		}
	}
	if rank0x00 != 1 {
		t.Errorf("way holding 0x00: rank = %d, want 1", rank0x00)
	}
	if rank0x20 != 0 {
		t.Errorf("way holding 0x20: rank = %d, want 0", rank0x20)
	}
}

func TestS5WriteBackDirtyEviction(t *testing.T) {
	c := twoWayTwoLineLRU()
	c.Access(0x00, Write)
	c.Access(0x10, Write)
	third := c.Access(0x20, Write)
	if !third.IsWriteback {
		t.Fatalf("expected the third write to evict a dirty line and trigger a writeback")
	}
	if c.Writebacks() != 1 {
		t.Fatalf("Writebacks() = %d, want 1", c.Writebacks())
	}
}

func TestUndoInvolution(t *testing.T) {
	c := twoWayTwoLineLRU()
	addrs := []uint64{0x00, 0x10, 0x00, 0x20, 0x10, 0x30}
	before := snapshot(c)
	for _, a := range addrs {
		c.Access(a, Read)
	}
	for range addrs {
		if !c.Undo() {
			t.Fatalf("Undo returned false before the stack was drained")
		}
	}
	after := snapshot(c)
	if before != after {
		t.Fatalf("cache state after access+undo round trip differs from initial state:\nbefore=%v\nafter=%v", before, after)
	}
	if c.TraceDepth() != 0 {
		t.Fatalf("TraceDepth() = %d, want 0", c.TraceDepth())
	}
}

// snapshot captures everything Undo needs to restore, as a comparable value.
func snapshot(c *Cache) string {
	out := ""
	for line := uint64(0); line < c.cfg.lines(); line++ {
		for way, w := range c.GetLine(line) {
			out += string(rune(line)) + string(rune(way)) + string(rune(w.Tag)) + boolChar(w.Valid) + boolChar(w.Dirty) + string(rune(w.LRURank))
		}
	}
	return out
}

func boolChar(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func TestCountersMonotone(t *testing.T) {
	c := twoWayTwoLineLRU()
	addrs := []uint64{0x00, 0x10, 0x00, 0x20, 0x40, 0x00}
	var prev Counters
	for _, a := range addrs {
		c.Access(a, Read)
		trace := c.AccessTrace()
		cur := trace[c.cycle-1]
		if cur.Hits < prev.Hits || cur.Misses < prev.Misses || cur.Reads < prev.Reads {
			t.Fatalf("counters regressed: prev=%+v cur=%+v", prev, cur)
		}
		prev = cur
	}
}

func TestLRUCorrectnessKDistinctWays(t *testing.T) {
	cfg := Config{BlocksLog2: 0, LinesLog2: 0, WaysLog2: 2, Write: WriteBack, Alloc: WriteAllocate, Repl: LRU}
	c := New(cfg, 64)
	// 4-way, 1-line cache: every address maps to line 0; 4 distinct tags
	// exercise all 4 ways.
	addrs := []uint64{0x00, 0x20, 0x40, 0x60}
	for _, a := range addrs {
		c.Access(a, Read)
	}
	line := c.GetLine(0)
	for i, a := range addrs {
		tag := a >> 2
		for _, w := range line {
			if w.Tag == tag {
				wantRank := len(addrs) - 1 - i
				if w.LRURank != wantRank {
					t.Errorf("way holding addr %#x: rank = %d, want %d", a, w.LRURank, wantRank)
				}
			}
		}
	}
	// A further miss should evict the first-accessed way.
	c.Access(0x80, Read)
	stillPresent := false
	for _, w := range c.GetLine(0) {
		if w.Tag == addrs[0]>>2 {
			stillPresent = true
		}
	}
	if stillPresent {
		t.Fatalf("expected the first-accessed way to be evicted on the next miss")
	}
}
