package predictor

// Global implements a gshare-style two-level predictor: a single shared
// history register indexes a pattern-history table of saturating
// counters, so any branch's outcome can perturb any other branch's
// prediction.
type Global struct {
	counters
	historyBits uint
	stateBits   uint
	history     uint32
	pht         []uint32
	historyStk  arrayStack
	phtStk      arrayStack
}

func NewGlobal(historyBits, stateBits uint) *Global {
	p := &Global{historyBits: historyBits, stateBits: stateBits, pht: make([]uint32, 1<<historyBits)}
	p.ResetState()
	return p
}

func (p *Global) Predict(addr uint64, isBranch, isConditional bool) bool {
	if isBranch && !isConditional {
		return true
	}
	if !isConditional {
		return false
	}
	return takenFromState(p.pht[p.history], p.stateBits)
}

func (p *Global) Update(addr uint64, predictedTaken, wasMiss, isBranch, isConditional bool) {
	if !isConditional {
		return
	}
	p.record(isConditional, wasMiss)
	actualTaken := predictedTaken != wasMiss

	history := p.history
	p.history = shiftHistory(history, actualTaken, p.historyBits)
	p.pht[history] = asymmetricStep(p.pht[history], actualTaken, p.stateBits)
}

func (p *Global) SaveState() {
	p.historyStk.push([]uint32{p.history})
	p.phtStk.push(p.pht)
}

func (p *Global) RestoreState() bool {
	h, ok1 := p.historyStk.pop()
	pht, ok2 := p.phtStk.pop()
	if !ok1 || !ok2 {
		return false
	}
	p.history = h[0]
	copy(p.pht, pht)
	return true
}

func (p *Global) ResetState() {
	p.history = 0
	fill(p.pht, 0)
	p.historyStk.entries = nil
	p.phtStk.entries = nil
}

func (p *Global) SetReverseStackDepth(depth int) {
	p.historyStk.setDepth(depth)
	p.phtStk.setDepth(depth)
}
