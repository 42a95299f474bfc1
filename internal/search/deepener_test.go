package search

import (
	"testing"
	"time"

	"github.com/fgantt/shogi-search-engine/internal/tt"
)

func TestDeepenerRunProducesIncreasingDepths(t *testing.T) {
	s := newTestState(NewConfig())
	tm := NewTimeManager(10)
	tm.Init(Limits{Infinite: true}, int(s.Pos.SideToMove()), 0)

	d := NewDeepener(s, tm)
	var seen []int
	result := d.Run(3, func(r Result) { seen = append(seen, r.Depth) })

	if len(seen) != 3 {
		t.Fatalf("expected 3 completed depths, got %v", seen)
	}
	for i, depth := range seen {
		if depth != i+1 {
			t.Fatalf("depths should run 1,2,3 in order, got %v", seen)
		}
	}
	if result.Depth != 3 {
		t.Fatalf("final result should be the deepest completed depth, got %d", result.Depth)
	}
	if result.Move.IsZero() {
		t.Fatal("expected a non-zero best move")
	}
}

func TestDeepenerStopsWhenFlagSet(t *testing.T) {
	s := newTestState(NewConfig())
	tm := NewTimeManager(10)
	tm.Init(Limits{Infinite: true}, int(s.Pos.SideToMove()), 0)
	s.Stop.Store(true)

	d := NewDeepener(s, tm)
	result := d.Run(5, nil)
	if result.Depth != 0 {
		t.Fatalf("a pre-stopped deepener should complete no depths, got %+v", result)
	}
}

func TestDeepenerHonorsHardTimeLimit(t *testing.T) {
	s := newTestState(NewConfig())
	tm := NewTimeManager(0)
	tm.Init(Limits{MoveTime: 20 * time.Millisecond}, int(s.Pos.SideToMove()), 0)

	d := NewDeepener(s, tm)
	start := time.Now()
	d.Run(64, nil)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("deepener ran far past its time budget: %v", elapsed)
	}
}

func TestSearchMultiPVReturnsDistinctMoves(t *testing.T) {
	s := newTestState(NewConfig())
	table := tt.New(1, 16)
	s.TT = table
	tm := NewTimeManager(10)
	tm.Init(Limits{Infinite: true}, int(s.Pos.SideToMove()), 0)

	results := SearchMultiPV(s, tm, 2, 3)
	if len(results) == 0 {
		t.Fatal("expected at least one PV result")
	}
	seen := map[string]bool{}
	for _, r := range results {
		key := r.Move.String()
		if seen[key] {
			t.Fatalf("duplicate move %s across MultiPV lines", key)
		}
		seen[key] = true
	}
}
