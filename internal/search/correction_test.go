package search

import "testing"

func TestCorrectionHistoryStartsAtZero(t *testing.T) {
	c := NewCorrectionHistory()
	if got := c.Get(0xABCD); got != 0 {
		t.Fatalf("expected zero correction before any update, got %d", got)
	}
}

func TestCorrectionHistoryNudgesTowardSearchScore(t *testing.T) {
	c := NewCorrectionHistory()
	const hash = 0x1234

	for i := 0; i < 50; i++ {
		c.Update(hash, 200, 0, 6)
	}
	got := c.Get(hash)
	if got <= 0 {
		t.Fatalf("expected a positive correction after repeated upward updates, got %d", got)
	}
}

func TestCorrectionHistoryIgnoresShallowUpdates(t *testing.T) {
	c := NewCorrectionHistory()
	c.Update(0x5555, 500, 0, 0)
	if got := c.Get(0x5555); got != 0 {
		t.Fatalf("expected depth 0 update to be ignored, got %d", got)
	}
}

func TestCorrectionHistoryAgeHalvesTowardZero(t *testing.T) {
	c := NewCorrectionHistory()
	for i := 0; i < 50; i++ {
		c.Update(0x9999, 300, 0, 8)
	}
	before := c.Get(0x9999)
	if before == 0 {
		t.Fatal("expected a nonzero correction before aging")
	}
	c.Age()
	after := c.Get(0x9999)
	if after >= before {
		t.Fatalf("expected Age to shrink the correction, before=%d after=%d", before, after)
	}
}
