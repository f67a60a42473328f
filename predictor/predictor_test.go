package predictor

import "testing"

func TestS6CounterWeaklyNotTakenMissFlipsToWeaklyTaken(t *testing.T) {
	p := NewCounter(2)
	p.state = 1 // 01: weakly not-taken

	p.Update(0, false, true, true, true) // predicted not-taken, actual was taken
	if p.state != 2 {
		t.Fatalf("state after update = %02b, want 10", p.state)
	}
	if !p.Predict(0, true, true) {
		t.Fatalf("expected the next prediction to be taken")
	}
}

func TestCounterSaturatesAtBounds(t *testing.T) {
	p := NewCounter(2)
	for i := 0; i < 10; i++ {
		p.Update(0, true, false, true, true)
	}
	if p.state != 3 {
		t.Fatalf("state = %d, want saturated at 3", p.state)
	}
	for i := 0; i < 10; i++ {
		p.Update(0, true, true, true, true)
	}
	if p.state != 0 {
		t.Fatalf("state = %d, want saturated at 0", p.state)
	}
}

func TestAlwaysTakenIgnoresConditionalBit(t *testing.T) {
	p := NewAlwaysTaken()
	if !p.Predict(0, true, false) || !p.Predict(0, false, true) {
		t.Fatalf("AlwaysTaken must predict taken regardless of branch shape")
	}
}

func TestAlwaysNotTakenUnconditionalException(t *testing.T) {
	p := NewAlwaysNotTaken()
	if !p.Predict(0, true, false) {
		t.Fatalf("an unconditional branch has nowhere else to go; expected taken")
	}
	if p.Predict(0, true, true) {
		t.Fatalf("a conditional branch should predict not-taken")
	}
}

func TestProperty7CounterReversibility(t *testing.T) {
	p := NewCounter(2)
	p.SetReverseStackDepth(4)
	p.state = 1
	before := p.state

	p.SaveState()
	p.Update(0, false, true, true, true)
	if p.state == before {
		t.Fatalf("update should have changed state")
	}
	if !p.RestoreState() {
		t.Fatalf("RestoreState should have found a saved snapshot")
	}
	if p.state != before {
		t.Fatalf("state after save;update;restore = %d, want %d", p.state, before)
	}
}

func TestProperty7GlobalReversibility(t *testing.T) {
	p := NewGlobal(3, 2)
	p.SetReverseStackDepth(4)
	p.pht[0] = 2
	p.history = 5
	beforeHistory := p.history
	beforePHT := append([]uint32(nil), p.pht...)

	p.SaveState()
	p.Update(0, false, true, true, true)
	if !p.RestoreState() {
		t.Fatalf("RestoreState should have found a saved snapshot")
	}
	if p.history != beforeHistory {
		t.Fatalf("history = %d, want %d", p.history, beforeHistory)
	}
	for i := range beforePHT {
		if p.pht[i] != beforePHT[i] {
			t.Fatalf("pht[%d] = %d, want %d", i, p.pht[i], beforePHT[i])
		}
	}
}

func TestProperty7LocalReversibility(t *testing.T) {
	p := NewLocal(2, 3, 2)
	p.SetReverseStackDepth(4)
	beforeLHT := append([]uint32(nil), p.lht...)
	beforePHT := append([]uint32(nil), p.pht...)

	p.SaveState()
	p.Update(0, false, true, true, true)
	if !p.RestoreState() {
		t.Fatalf("RestoreState should have found a saved snapshot")
	}
	for i := range beforeLHT {
		if p.lht[i] != beforeLHT[i] {
			t.Fatalf("lht[%d] = %d, want %d", i, p.lht[i], beforeLHT[i])
		}
	}
	for i := range beforePHT {
		if p.pht[i] != beforePHT[i] {
			t.Fatalf("pht[%d] = %d, want %d", i, p.pht[i], beforePHT[i])
		}
	}
}

func TestRestoreStateEmptyStackIsNoOp(t *testing.T) {
	p := NewCounter(2)
	if p.RestoreState() {
		t.Fatalf("RestoreState on an empty stack should report false")
	}
}

func TestReverseStackDepthBound(t *testing.T) {
	p := NewCounter(2)
	p.SetReverseStackDepth(2)
	p.SaveState()
	p.SaveState()
	p.SaveState()
	if len(p.stack.entries) != 2 {
		t.Fatalf("stack depth = %d, want capped at 2", len(p.stack.entries))
	}
}
