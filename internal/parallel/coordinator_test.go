package parallel

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/fgantt/shogi-search-engine/internal/evaluator"
	"github.com/fgantt/shogi-search-engine/internal/search"
	"github.com/fgantt/shogi-search-engine/internal/shogi"
	"github.com/fgantt/shogi-search-engine/internal/tt"
)

func TestSearchRootReturnsALegalMoveAtShallowDepth(t *testing.T) {
	table := tt.New(1, 16)
	c := New(2, table, evaluator.New(), search.NewConfig(), new(atomic.Bool))
	defer c.Close()

	pos := shogi.NewPosition()
	result := c.SearchRoot(pos, 3, time.Second)
	if result.Move.IsZero() {
		t.Fatal("expected a non-zero best move from the starting position")
	}
}

// TestSearchRootWorkerParityMatchesSpecScenarioS5 mirrors the "worker
// parity" scenario: searching the same position to the same depth with
// one worker and with several should agree on the best move, even though
// the two runs explore a different number of total nodes.
func TestSearchRootWorkerParityMatchesSpecScenarioS5(t *testing.T) {
	const depth = 6

	singleTable := tt.New(1, 16)
	single := New(1, singleTable, evaluator.New(), search.NewConfig(), new(atomic.Bool))
	defer single.Close()
	singleResult := single.SearchRoot(shogi.NewPosition(), depth, 5*time.Second)

	multiTable := tt.New(1, 16)
	multi := New(4, multiTable, evaluator.New(), search.NewConfig(), new(atomic.Bool))
	defer multi.Close()
	multiResult := multi.SearchRoot(shogi.NewPosition(), depth, 5*time.Second)

	if singleResult.Move != multiResult.Move {
		t.Fatalf("expected identical best moves across thread counts, got %v (1 worker) vs %v (4 workers)",
			singleResult.Move, multiResult.Move)
	}
}

func TestSearchRootHonorsStopFlag(t *testing.T) {
	table := tt.New(1, 16)
	stop := new(atomic.Bool)
	stop.Store(true)
	c := New(2, table, evaluator.New(), search.NewConfig(), stop)
	defer c.Close()

	result := c.SearchRoot(shogi.NewPosition(), 6, time.Second)
	if result.Move.IsZero() {
		t.Fatal("expected the oldest-brother result even when stop is already set")
	}
}
