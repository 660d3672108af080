package bufstore

import "testing"

func TestClearZeroesButKeepsCapacity(t *testing.T) {
	m := New(3)
	m.D[0] = 5
	m.AddEdit(0, 1, 2)
	m.Clear()
	if m.D[0] != 0 {
		t.Fatalf("D[0] = %v after Clear, want 0", m.D[0])
	}
	if len(m.Edits) != 0 {
		t.Fatalf("len(Edits) = %d after Clear, want 0", len(m.Edits))
	}
}

func TestSwapExchangesBuffersByReference(t *testing.T) {
	m := New(2)
	m.VNew[0] = 42
	newBacking := &m.VNew[0]
	m.Swap()
	if m.VOld[0] != 42 {
		t.Fatalf("VOld[0] = %v after Swap, want 42", m.VOld[0])
	}
	if &m.VOld[0] != newBacking {
		t.Fatalf("expected VOld's backing array to be the old VNew's backing array (pointer swap, not copy)")
	}
	m.Swap()
	if m.VNew[0] != 42 {
		t.Fatalf("VNew[0] = %v after second Swap, want 42 (round trip)", m.VNew[0])
	}
}

func TestNonFiniteDetectsNaNAndInf(t *testing.T) {
	m := New(2)
	if m.NonFinite() {
		t.Fatalf("fresh Memory should be finite")
	}
	m.VNew[1] = posInf()
	if !m.NonFinite() {
		t.Fatalf("expected NonFinite to detect +Inf")
	}
}

func posInf() float64 {
	var zero float64
	return 1 / zero
}
