// Package cache implements a configurable, set-associative cache model:
// LRU or random replacement, write-back or write-through combined with
// write-allocate or no-write-allocate, per-way dirty-block tracking, and a
// bounded trace stack that lets every access be undone, restoring the cache
// to the state it held before that access except for the dirty marking a
// write hit leaves on its way.
package cache

import (
	"math/rand"
)

type WritePolicy int

const (
	WriteBack WritePolicy = iota
	WriteThrough
)

type WriteAllocPolicy int

const (
	WriteAllocate WriteAllocPolicy = iota
	NoWriteAllocate
)

type ReplPolicy int

const (
	LRU ReplPolicy = iota
	Random
)

type AccessType int

const (
	Read AccessType = iota
	Write
)

// Config is a cache's shape and policy set. Blocks/Lines/Ways are expressed
// as log2 of their count, matching how a real cache preset is dialed in
// (doubling knobs, not arbitrary counts).
type Config struct {
	BlocksLog2 uint
	LinesLog2  uint
	WaysLog2   uint
	Write      WritePolicy
	Alloc      WriteAllocPolicy
	Repl       ReplPolicy
}

func (c Config) lines() uint64 { return 1 << c.LinesLog2 }
func (c Config) ways() uint64  { return 1 << c.WaysLog2 }

// Way is one line's per-way replacement and validity state.
type Way struct {
	Tag         uint64
	Valid       bool
	Dirty       bool
	LRURank     int
	DirtyBlocks map[uint64]bool
}

func freshWay(ways uint64) Way {
	return Way{LRURank: int(ways) - 1}
}

// Transaction describes one cache access and what it did.
type Transaction struct {
	Address       uint64
	Cycle         uint64
	Line          uint64
	Way           uint64
	Block         uint64
	IsHit         bool
	IsWrite       bool
	IsWriteback   bool
	TransToValid  bool
	TagChanged    bool
}

// Counters are the cumulative access tallies the access-trace store exposes.
type Counters struct {
	Hits       uint64
	Misses     uint64
	Reads      uint64
	Writes     uint64
	Writebacks uint64
}

type traceEntry struct {
	txn    Transaction
	oldWay Way
}

// Cache is a set-associative cache instance; its state is owned exclusively
// by the instance that holds it.
type Cache struct {
	cfg         Config
	lines       map[uint64]map[uint64]Way
	traceStack  []traceEntry
	stackDepth  int
	cycle       uint64
	cumulative  Counters
	accessTrace map[uint64]Counters
	rng         *rand.Rand
}

// New returns a cache with the given configuration and a bounded undo-stack
// depth.
func New(cfg Config, stackDepth int) *Cache {
	return &Cache{
		cfg:         cfg,
		lines:       make(map[uint64]map[uint64]Way),
		stackDepth:  stackDepth,
		accessTrace: make(map[uint64]Counters),
		rng:         rand.New(rand.NewSource(1)),
	}
}

func (c *Cache) addr(address uint64) (tag, line, block uint64) {
	b := c.cfg.BlocksLog2
	l := c.cfg.LinesLog2
	tag = address >> (2 + b + l)
	line = (address >> (2 + b)) & (c.cfg.lines() - 1)
	block = (address >> 2) & ((uint64(1) << b) - 1)
	return
}

func (c *Cache) way(line, idx uint64) Way {
	set, ok := c.lines[line]
	if !ok {
		return freshWay(c.cfg.ways())
	}
	w, ok := set[idx]
	if !ok {
		return freshWay(c.cfg.ways())
	}
	return w
}

func (c *Cache) setWay(line, idx uint64, w Way) {
	set, ok := c.lines[line]
	if !ok {
		set = make(map[uint64]Way)
		c.lines[line] = set
	}
	set[idx] = w
}

// GetLine returns every way's current state for a line index.
func (c *Cache) GetLine(line uint64) map[uint64]Way {
	out := make(map[uint64]Way, c.cfg.ways())
	for i := uint64(0); i < c.cfg.ways(); i++ {
		out[i] = c.way(line, i)
	}
	return out
}

func (c *Cache) locateWay(line, tag uint64) (uint64, bool) {
	for i := uint64(0); i < c.cfg.ways(); i++ {
		w := c.way(line, i)
		if w.Valid && w.Tag == tag {
			return i, true
		}
	}
	return 0, false
}

func (c *Cache) locateVictim(line uint64) uint64 {
	for i := uint64(0); i < c.cfg.ways(); i++ {
		if !c.way(line, i).Valid {
			return i
		}
	}
	switch c.cfg.Repl {
	case Random:
		return uint64(c.rng.Intn(int(c.cfg.ways())))
	default: // LRU
		ways := c.cfg.ways()
		for i := uint64(0); i < ways; i++ {
			if c.way(line, i).LRURank == int(ways-1) {
				return i
			}
		}
		return 0
	}
}

// Access performs one (address, access_type) transaction: hit/miss lookup,
// optional refill, counter update, dirty-block tracking, LRU rank update,
// and trace-stack push.
func (c *Cache) Access(address uint64, at AccessType) Transaction {
	tag, line, block := c.addr(address)
	wayIdx, hit := c.locateWay(line, tag)

	txn := Transaction{Address: address, Cycle: c.cycle, Line: line, Block: block, IsHit: hit, IsWrite: at == Write}
	old := c.way(line, wayIdx)

	allocate := at == Read || (at == Write && c.cfg.Alloc == WriteAllocate)
	if !hit && allocate {
		wayIdx = c.locateVictim(line)
		old = c.way(line, wayIdx)
		txn.TransToValid = !old.Valid
		txn.TagChanged = old.Valid && old.Tag != tag
		nw := Way{Valid: true, Dirty: false, Tag: tag, LRURank: old.LRURank, DirtyBlocks: map[uint64]bool{}}
		c.setWay(line, wayIdx, nw)
	}
	txn.Way = wayIdx

	counters := c.cumulative
	if at == Write {
		counters.Writes++
	} else {
		counters.Reads++
	}
	if hit {
		counters.Hits++
	} else {
		counters.Misses++
	}

	if at == Write && c.cfg.Write == WriteBack && (hit || allocate) {
		w := c.way(line, wayIdx)
		if !hit && txn.TagChanged && old.Dirty {
			txn.IsWriteback = true
			counters.Writebacks++
		}
		w.Dirty = true
		if w.DirtyBlocks == nil {
			w.DirtyBlocks = map[uint64]bool{}
		}
		w.DirtyBlocks[block] = true
		c.setWay(line, wayIdx, w)
	} else if at == Write && c.cfg.Write == WriteThrough && (hit || allocate) {
		counters.Writebacks++
	}

	if hit || allocate {
		c.updateLRU(line, wayIdx, old.LRURank)
	}

	c.cumulative = counters
	c.cycle++
	c.accessTrace[txn.Cycle] = counters

	c.pushTrace(traceEntry{txn: txn, oldWay: old})
	return txn
}

func (c *Cache) updateLRU(line, touched uint64, preRank int) {
	ways := c.cfg.ways()
	for i := uint64(0); i < ways; i++ {
		if i == touched {
			continue
		}
		w := c.way(line, i)
		if w.LRURank < preRank {
			w.LRURank++
			c.setWay(line, i, w)
		}
	}
	w := c.way(line, touched)
	w.LRURank = 0
	c.setWay(line, touched, w)
}

func (c *Cache) pushTrace(e traceEntry) {
	c.traceStack = append(c.traceStack, e)
	if len(c.traceStack) > c.stackDepth && c.stackDepth > 0 {
		c.traceStack = c.traceStack[1:]
	}
}

// Undo reverts the most recent access: the way it filled or evicted, the
// line's LRU ranks and the cycle's counters go back to what they were
// immediately before that access. After a write hit only the LRU ranks are
// reverted, so the way keeps the dirty marking that write set. Returns false
// if the trace stack is empty.
func (c *Cache) Undo() bool {
	if len(c.traceStack) == 0 {
		return false
	}
	e := c.traceStack[len(c.traceStack)-1]
	c.traceStack = c.traceStack[:len(c.traceStack)-1]

	switch {
	case e.txn.TransToValid:
		c.setWay(e.txn.Line, e.txn.Way, Way{LRURank: e.oldWay.LRURank})
	case !e.txn.IsHit:
		c.setWay(e.txn.Line, e.txn.Way, e.oldWay)
	}
	if e.txn.IsHit || e.txn.TransToValid || e.txn.TagChanged {
		c.revertLRU(e.txn.Line, e.txn.Way, e.oldWay.LRURank)
	}

	delete(c.accessTrace, e.txn.Cycle)
	c.cycle--
	if e.txn.IsWrite {
		c.cumulative.Writes--
	} else {
		c.cumulative.Reads--
	}
	if e.txn.IsHit {
		c.cumulative.Hits--
	} else {
		c.cumulative.Misses--
	}
	if e.txn.IsWriteback || (e.txn.IsWrite && c.cfg.Write == WriteThrough && (e.txn.IsHit || c.cfg.Alloc == WriteAllocate)) {
		c.cumulative.Writebacks--
	}
	return true
}

func (c *Cache) revertLRU(line, touched uint64, oldRank int) {
	ways := c.cfg.ways()
	for i := uint64(0); i < ways; i++ {
		if i == touched {
			continue
		}
		w := c.way(line, i)
		if w.Valid && w.LRURank <= oldRank {
			w.LRURank--
			c.setWay(line, i, w)
		}
	}
	w := c.way(line, touched)
	w.LRURank = oldRank
	c.setWay(line, touched, w)
}

// Reset clears all cache state, the trace stack and the access trace, as if
// the cache were newly constructed with the same configuration.
func (c *Cache) Reset() {
	c.lines = make(map[uint64]map[uint64]Way)
	c.traceStack = nil
	c.accessTrace = make(map[uint64]Counters)
	c.cycle = 0
	c.cumulative = Counters{}
}

// reconfigure applies a mutator to the configuration then clears all state.
// Every Set* setter shares this behavior: changing a cache's shape or policy
// invalidates whatever it currently holds.
func (c *Cache) reconfigure(mutate func(*Config)) {
	mutate(&c.cfg)
	c.Reset()
}

func (c *Cache) SetBlocksLog2(n uint) { c.reconfigure(func(cfg *Config) { cfg.BlocksLog2 = n }) }
func (c *Cache) SetLinesLog2(n uint)  { c.reconfigure(func(cfg *Config) { cfg.LinesLog2 = n }) }
func (c *Cache) SetWaysLog2(n uint)   { c.reconfigure(func(cfg *Config) { cfg.WaysLog2 = n }) }
func (c *Cache) SetWritePolicy(p WritePolicy) { c.reconfigure(func(cfg *Config) { cfg.Write = p }) }
func (c *Cache) SetWriteAllocPolicy(p WriteAllocPolicy) {
	c.reconfigure(func(cfg *Config) { cfg.Alloc = p })
}
func (c *Cache) SetReplacementPolicy(p ReplPolicy) { c.reconfigure(func(cfg *Config) { cfg.Repl = p }) }

// SetPreset replaces the whole configuration at once (a named bundle such
// as "32 sets / 4-way / 16B lines, write-back + write-allocate, LRU").
func (c *Cache) SetPreset(cfg Config) { c.reconfigure(func(dst *Config) { *dst = cfg }) }

func (c *Cache) Hits() uint64       { return c.cumulative.Hits }
func (c *Cache) Misses() uint64     { return c.cumulative.Misses }
func (c *Cache) Writebacks() uint64 { return c.cumulative.Writebacks }

func (c *Cache) HitRate() float64 {
	total := c.cumulative.Hits + c.cumulative.Misses
	if total == 0 {
		return 0
	}
	return float64(c.cumulative.Hits) / float64(total)
}

// AccessTrace returns the monotonic cycle->cumulative-counters map.
func (c *Cache) AccessTrace() map[uint64]Counters {
	out := make(map[uint64]Counters, len(c.accessTrace))
	for k, v := range c.accessTrace {
		out[k] = v
	}
	return out
}

// SizeBits estimates the SRAM bit count the configuration would cost in
// silicon: per way, a data block plus a tag plus a valid bit plus (for
// write-back caches) a dirty bit, summed across every line and way.
func (c *Cache) SizeBits(addrWidth uint) uint64 {
	blockBits := uint64(8) << c.cfg.BlocksLog2
	tagWidth := uint64(addrWidth) - uint64(2+c.cfg.BlocksLog2+c.cfg.LinesLog2)
	perWay := blockBits + tagWidth + 1
	if c.cfg.Write == WriteBack {
		perWay++
	}
	return perWay * c.cfg.ways() * c.cfg.lines()
}

// TraceDepth reports how many entries the undo stack currently holds.
func (c *Cache) TraceDepth() int { return len(c.traceStack) }
