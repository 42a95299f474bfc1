package stats

import (
	"os"
	"testing"
	"time"

	"github.com/fgantt/shogi-search-engine/internal/shogi"
	"github.com/fgantt/shogi-search-engine/internal/tt"
)

func TestFromTableReadsLiveCounters(t *testing.T) {
	table := tt.New(1, 16)
	table.Store(0xAAAA, 10, 4, tt.BoundExact, shogi.NoMove, false, shogi.Black, tt.SourceMainSearch)
	table.Probe(0xAAAA)
	table.Probe(0xBBBB)

	snap := FromTable(table, 12345, time.Unix(0, 0))
	if snap.Nodes != 12345 {
		t.Fatalf("expected nodes to round-trip, got %d", snap.Nodes)
	}
	if snap.Probes != 2 {
		t.Fatalf("expected 2 probes, got %d", snap.Probes)
	}
	if snap.Hits != 1 || snap.Misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got hits=%d misses=%d", snap.Hits, snap.Misses)
	}
	if snap.Stores != 1 {
		t.Fatalf("expected 1 store, got %d", snap.Stores)
	}
	if snap.HitRate() != 0.5 {
		t.Fatalf("expected hit rate 0.5, got %v", snap.HitRate())
	}
}

func TestStoreRecordAndRecentRoundTrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "shogi-stats-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(dir)

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	first := Snapshot{Timestamp: time.Unix(1000, 0), Nodes: 100}
	second := Snapshot{Timestamp: time.Unix(2000, 0), Nodes: 200}
	if err := store.Record(first); err != nil {
		t.Fatalf("Record first: %v", err)
	}
	if err := store.Record(second); err != nil {
		t.Fatalf("Record second: %v", err)
	}

	recent, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(recent))
	}
	if recent[0].Nodes != 200 || recent[1].Nodes != 100 {
		t.Fatalf("expected newest-first ordering, got %+v", recent)
	}
}

func TestStoreRecentRespectsLimit(t *testing.T) {
	dir, err := os.MkdirTemp("", "shogi-stats-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(dir)

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	for i := 0; i < 5; i++ {
		store.Record(Snapshot{Timestamp: time.Unix(int64(i), 0), Nodes: uint64(i)})
	}
	recent, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(recent))
	}
}
