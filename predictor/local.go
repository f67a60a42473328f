package predictor

// Local implements a two-level predictor with per-address history: each
// branch address (truncated to addressBits low bits of the word index)
// keeps its own history register, which in turn indexes a shared
// pattern-history table.
type Local struct {
	counters
	addressBits uint
	historyBits uint
	stateBits   uint
	lht         []uint32
	pht         []uint32
	lhtStk      arrayStack
	phtStk      arrayStack
}

func NewLocal(addressBits, historyBits, stateBits uint) *Local {
	p := &Local{
		addressBits: addressBits,
		historyBits: historyBits,
		stateBits:   stateBits,
		lht:         make([]uint32, 1<<addressBits),
		pht:         make([]uint32, 1<<historyBits),
	}
	p.ResetState()
	return p
}

func (p *Local) index(addr uint64) uint32 {
	if p.addressBits == 0 {
		return 0
	}
	return uint32((addr >> 2) & (uint64(1)<<p.addressBits - 1))
}

func (p *Local) Predict(addr uint64, isBranch, isConditional bool) bool {
	if isBranch && !isConditional {
		return true
	}
	if !isConditional {
		return false
	}
	history := p.lht[p.index(addr)]
	return takenFromState(p.pht[history], p.stateBits)
}

func (p *Local) Update(addr uint64, predictedTaken, wasMiss, isBranch, isConditional bool) {
	if !isConditional {
		return
	}
	p.record(isConditional, wasMiss)
	actualTaken := predictedTaken != wasMiss

	idx := p.index(addr)
	history := p.lht[idx]
	p.lht[idx] = shiftHistory(history, actualTaken, p.historyBits)
	p.pht[history] = asymmetricStep(p.pht[history], actualTaken, p.stateBits)
}

func (p *Local) SaveState() {
	p.lhtStk.push(p.lht)
	p.phtStk.push(p.pht)
}

func (p *Local) RestoreState() bool {
	lht, ok1 := p.lhtStk.pop()
	pht, ok2 := p.phtStk.pop()
	if !ok1 || !ok2 {
		return false
	}
	copy(p.lht, lht)
	copy(p.pht, pht)
	return true
}

func (p *Local) ResetState() {
	fill(p.lht, 0)
	fill(p.pht, 0)
	p.lhtStk.entries = nil
	p.phtStk.entries = nil
}

func (p *Local) SetReverseStackDepth(depth int) {
	p.lhtStk.setDepth(depth)
	p.phtStk.setDepth(depth)
}
