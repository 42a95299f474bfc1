package stats

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/fgantt/shogi-search-engine/internal/tt"
)

const runKeyPrefix = "run:"

// Snapshot is one completed search's statistics, the in-memory counters
// §4.1 mandates plus the node count a Deepener or parallel Coordinator
// reports at the end of a search.
type Snapshot struct {
	Timestamp           time.Time `json:"timestamp"`
	Nodes               uint64    `json:"nodes"`
	Probes              uint64    `json:"probes"`
	Hits                uint64    `json:"hits"`
	Misses              uint64    `json:"misses"`
	Stores              uint64    `json:"stores"`
	Collisions          uint64    `json:"collisions"`
	OverwritesPrevented uint64    `json:"overwrites_prevented"`
	PoisonRecoveries    uint64    `json:"poison_recoveries"`
	StoresBySource      [5]uint64 `json:"stores_by_source"`
}

// HitRate reports the TT's hit rate over the snapshotted run, or 0 when no
// probes were recorded.
func (s Snapshot) HitRate() float64 {
	if s.Probes == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Probes)
}

// FromTable builds a Snapshot from a table's live counters and the node
// count a search reported alongside it. The table's counters are cumulative
// for the table's whole lifetime, not just the search being snapshotted —
// callers that want per-search deltas must diff two snapshots themselves.
func FromTable(table *tt.Table, nodes uint64, at time.Time) Snapshot {
	snap := Snapshot{
		Timestamp:           at,
		Nodes:               nodes,
		Probes:              table.Stats.Probes.Load(),
		Hits:                table.Stats.Hits.Load(),
		Misses:              table.Stats.Misses.Load(),
		Stores:              table.Stats.Stores.Load(),
		Collisions:          table.Stats.Collisions.Load(),
		OverwritesPrevented: table.Stats.OverwritesPrevented.Load(),
		PoisonRecoveries:    table.Stats.PoisonRecoveries.Load(),
	}
	for i := range table.Stats.StoresBySource {
		snap.StoresBySource[i] = table.Stats.StoresBySource[i].Load()
	}
	return snap
}

// Store wraps an embedded Badger database of recorded Snapshots, keyed by
// run timestamp so Recent can walk them back in chronological order. It is
// strictly additive telemetry: nothing in the search hot path depends on
// it, and a Store is only ever opened when Config.StatsDBPath is non-empty.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a statistics database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("stats: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func runKey(at time.Time) []byte {
	key := make([]byte, len(runKeyPrefix)+8)
	copy(key, runKeyPrefix)
	binary.BigEndian.PutUint64(key[len(runKeyPrefix):], uint64(at.UnixNano()))
	return key
}

// Record persists snap, keyed so Recent can return runs most-recent-first.
func (s *Store) Record(snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("stats: marshal snapshot: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(snap.Timestamp), data)
	})
}

// Recent returns up to limit of the most recently recorded snapshots,
// newest first.
func (s *Store) Recent(limit int) ([]Snapshot, error) {
	var out []Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(runKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Badger's reverse iteration over a prefix needs a seek key one past
		// the prefix's range to land on the last matching key first.
		seek := append([]byte(runKeyPrefix), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
		for it.Seek(seek); it.ValidForPrefix([]byte(runKeyPrefix)) && len(out) < limit; it.Next() {
			item := it.Item()
			var snap Snapshot
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &snap)
			}); err != nil {
				return err
			}
			out = append(out, snap)
		}
		return nil
	})
	return out, err
}
