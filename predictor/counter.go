package predictor

// Counter is a single saturating counter shared by every conditional
// branch in the program, with no addressing or history at all.
type Counter struct {
	counters
	stateBits uint
	state     uint32
	stack     arrayStack
}

func NewCounter(stateBits uint) *Counter {
	c := &Counter{stateBits: stateBits}
	c.ResetState()
	return c
}

func (p *Counter) Predict(addr uint64, isBranch, isConditional bool) bool {
	if isBranch && !isConditional {
		return true
	}
	if !isConditional {
		return false
	}
	return takenFromState(p.state, p.stateBits)
}

func (p *Counter) Update(addr uint64, predictedTaken, wasMiss, isBranch, isConditional bool) {
	if !isConditional {
		return
	}
	p.record(isConditional, wasMiss)
	actualTaken := predictedTaken != wasMiss
	p.state = symmetricStep(p.state, actualTaken, p.stateBits)
}

func (p *Counter) SaveState() { p.stack.push([]uint32{p.state}) }

func (p *Counter) RestoreState() bool {
	snap, ok := p.stack.pop()
	if !ok {
		return false
	}
	p.state = snap[0]
	return true
}

func (p *Counter) ResetState() {
	p.state = 0
	p.stack.entries = nil
}

func (p *Counter) SetReverseStackDepth(depth int) { p.stack.setDepth(depth) }
