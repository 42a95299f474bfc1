// Package tt implements the search's shared transposition table: a
// fixed-size, concurrency-safe hash table of 16-byte packed entries with
// bucketed locking, source-tagged replacement, age-based eviction, and a
// lock-free probe path guarded by a torn-read check instead of a mutex.
//
// The packed layout is the table's external contract — anything that can
// produce a 64-bit hash, a shogi.Move, a score, a depth and a Bound can
// populate it, which is what lets opening-book prefill and the search
// core share one Store path.
package tt

import (
	"log"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/fgantt/shogi-search-engine/internal/shogi"
)

// Bound classifies how a stored score relates to the true minimax value.
type Bound uint8

const (
	BoundNone Bound = iota
	BoundExact
	BoundLower
	BoundUpper
)

// Source tags which search component produced an entry, and therefore how
// much the replacement policy should trust it. MainSearch results win
// over anything an auxiliary search (null-move verification, internal
// iterative deepening, quiescence) produced at the same generation.
type Source uint8

const (
	SourceMainSearch Source = iota
	SourceNullMove
	SourceIID
	SourceQuiescence
	// SourceBook is counted under its own index in Stats.StoresBySource,
	// but the packed source field holds only two bits, so a stored book
	// entry reads back (and competes for replacement) as SourceMainSearch.
	SourceBook
)

const (
	scoreBits = 20
	depthBits = 8
	boundBits = 2
	moveBits  = shogi.PackedMoveBits // 20: from(7)+to(7)+piece(4)+promo(1)+capture(1)
	sideBits  = 1
	hasMvBits = 1
	srcBits   = 2
	ageBits   = 6

	scoreShift = 0
	depthShift = scoreShift + scoreBits
	boundShift = depthShift + depthBits
	moveShift  = boundShift + boundBits
	sideShift  = moveShift + moveBits
	hasMvShift = sideShift + sideBits
	srcShift   = hasMvShift + hasMvBits
	ageShift   = srcShift + srcBits

	scoreMask = 1<<scoreBits - 1
	depthMask = 1<<depthBits - 1
	boundMask = 1<<boundBits - 1
	moveMask  = 1<<moveBits - 1
	sideMask  = 1<<sideBits - 1
	hasMvMask = 1<<hasMvBits - 1
	srcMask   = 1<<srcBits - 1
	ageMask   = 1<<ageBits - 1

	// MaxScoreMagnitude is the clamp applied before packing a score into
	// its 20-bit signed field.
	MaxScoreMagnitude = 500_000

	ageWrap = 1 << ageBits
)

// entry is the table's actual storage: two atomically accessed 64-bit
// words per slot, 16 bytes total, matching the spec's packed layout.
type entry struct {
	wordA uint64 // full hash, zeroed while a store is in flight
	wordB uint64 // packed payload; see the bit layout constants above
}

// Entry is the decoded, caller-facing view of a table lookup.
type Entry struct {
	Found      bool
	Score      int32
	Depth      uint8
	Bound      Bound
	Move       shogi.Move
	HasMove    bool
	SideToMove shogi.Color
	Source     Source
	Age        uint8
}

// Stats holds the table's lifetime atomic counters. Reading Stats is
// always safe; the counters themselves never need a lock since each is a
// single atomic word, matching how the teacher's TranspositionTable
// tracks hits/probes without serializing the hot path on them.
type Stats struct {
	Probes              atomic.Uint64
	Hits                atomic.Uint64
	Misses              atomic.Uint64
	Stores              atomic.Uint64
	Collisions          atomic.Uint64
	OverwritesPrevented atomic.Uint64
	PoisonRecoveries    atomic.Uint64
	StoresBySource      [5]atomic.Uint64
}

// Table is the shared transposition table. The zero value is not usable;
// construct with New.
type Table struct {
	entries  []entry
	slotMask uint64
	buckets  []sync.Mutex
	bucketBits uint
	age      atomic.Uint32 // low 6 bits used, wraps at ageWrap
	prefetchEnabled bool

	Stats Stats
}

// defaultBucketCount matches the spec's default bucket-lock count.
const defaultBucketCount = 256

// New builds a table sized to hold roughly sizeMB megabytes of entries,
// rounded down to a power of two slot count, guarded by bucketCount
// mutexes (also rounded to a power of two, clamped to [1, 4096]).
func New(sizeMB int, bucketCount int) *Table {
	if sizeMB < 1 {
		sizeMB = 1
	}
	if bucketCount <= 0 {
		bucketCount = defaultBucketCount
	}
	bucketCount = clampPow2(bucketCount, 1, 4096)

	bytes := uint64(sizeMB) * 1024 * 1024
	const entrySize = 16
	numEntries := roundDownToPowerOf2(bytes / entrySize)
	if numEntries == 0 {
		numEntries = 1
	}

	bucketBits := uint(0)
	for 1<<bucketBits < bucketCount {
		bucketBits++
	}

	return &Table{
		entries:         make([]entry, numEntries),
		slotMask:        numEntries - 1,
		buckets:         make([]sync.Mutex, bucketCount),
		bucketBits:      bucketBits,
		prefetchEnabled: cpu.X86.HasSSE2,
	}
}

func clampPow2(n, lo, hi int) int {
	if n < lo {
		n = lo
	}
	if n > hi {
		n = hi
	}
	p := 1
	for p < n {
		p <<= 1
	}
	if p > hi {
		p >>= 1
	}
	return p
}

func roundDownToPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	p := uint64(1)
	for p<<1 <= n {
		p <<= 1
	}
	return p
}

func (t *Table) slotFor(hash uint64) uint64 { return hash & t.slotMask }

// bucketFor derives the lock index from the slot's high bits so that each
// bucket guards one contiguous range of slots.
func (t *Table) bucketFor(slot uint64) uint64 {
	totalBits := bitsFor(uint64(len(t.entries)))
	if totalBits <= t.bucketBits {
		return slot & uint64(len(t.buckets)-1)
	}
	return slot >> (totalBits - t.bucketBits)
}

func bitsFor(n uint64) uint {
	b := uint(0)
	for 1<<b < n {
		b++
	}
	return b
}

// NewSearch advances the table's generation counter. Entries stamped with
// a stale age are preferred replacement targets regardless of depth.
func (t *Table) NewSearch() {
	t.age.Store((t.age.Load() + 1) % ageWrap)
}

func (t *Table) currentAge() uint8 { return uint8(t.age.Load() & ageMask) }

// BucketCount reports the number of bucket locks guarding the table.
func (t *Table) BucketCount() int { return len(t.buckets) }

// Capacity reports the number of slots in the table.
func (t *Table) Capacity() int { return len(t.entries) }

func clampScore(score int32) int32 {
	if score > MaxScoreMagnitude {
		return MaxScoreMagnitude
	}
	if score < -MaxScoreMagnitude {
		return -MaxScoreMagnitude
	}
	return score
}

func packWordB(score int32, depth uint8, bound Bound, packedMove uint32, hasMove bool, side shogi.Color, src Source, age uint8) uint64 {
	s := uint64(clampScore(score)) & scoreMask
	var b uint64
	b |= s << scoreShift
	b |= uint64(depth&depthMask) << depthShift
	b |= uint64(bound&boundMask) << boundShift
	b |= uint64(packedMove&moveMask) << moveShift
	b |= uint64(uint8(side)&sideMask) << sideShift
	if hasMove {
		b |= uint64(1) << hasMvShift
	}
	b |= uint64(uint8(src)&srcMask) << srcShift
	b |= uint64(age&ageMask) << ageShift
	return b
}

func unpackWordB(b uint64) Entry {
	raw := int32((b >> scoreShift) & scoreMask)
	// sign-extend the 20-bit field
	if raw&(1<<(scoreBits-1)) != 0 {
		raw -= 1 << scoreBits
	}
	return Entry{
		Found:      true,
		Score:      raw,
		Depth:      uint8((b >> depthShift) & depthMask),
		Bound:      Bound((b >> boundShift) & boundMask),
		Move:       shogi.UnpackMove(uint32((b >> moveShift) & moveMask)),
		SideToMove: shogi.Color((b >> sideShift) & sideMask),
		HasMove:    (b>>hasMvShift)&hasMvMask != 0,
		Source:     Source((b >> srcShift) & srcMask),
		Age:        uint8((b >> ageShift) & ageMask),
	}
}

// Probe performs a lock-free lookup. It never blocks on a bucket mutex:
// readers only ever race with the 3-word store protocol in Store, and a
// torn read is detected (not merely tolerated) by re-checking wordA after
// reading wordB.
func (t *Table) Probe(hash uint64) Entry {
	t.Stats.Probes.Add(1)
	slot := t.slotFor(hash)
	e := &t.entries[slot]

	a1 := atomic.LoadUint64(&e.wordA)
	if a1 != hash {
		t.Stats.Misses.Add(1)
		return Entry{}
	}
	b := atomic.LoadUint64(&e.wordB)
	a2 := atomic.LoadUint64(&e.wordA)
	if a2 != hash {
		// a store landed mid-read; treat as a miss rather than risk
		// returning a hash/payload pair that never coexisted.
		t.Stats.Misses.Add(1)
		return Entry{}
	}
	t.Stats.Hits.Add(1)
	return unpackWordB(b)
}

// ProbeWithPrefetch issues a best-effort cache warm-up for hash's slot
// before the caller does other work and calls Probe. Go has no portable
// prefetch intrinsic; on SSE2 hosts this touches the slot's first word
// early so the real Probe a few instructions later is more likely to hit
// in cache. On anything else it is a no-op, exactly the fallback the
// hardware-prefetch contract asks for.
func (t *Table) ProbeWithPrefetch(hash uint64) {
	if !t.prefetchEnabled {
		return
	}
	slot := t.slotFor(hash)
	_ = atomic.LoadUint64(&t.entries[slot].wordA)
}

// Store writes a result into the table, applying the source-tagged
// replacement policy: a MainSearch result always wins; an auxiliary
// result is blocked only when the existing entry is itself a MainSearch
// result at strictly greater depth and the same generation.
//
// A panic while a bucket lock is held (e.g. from a corrupted caller-
// supplied move) is recovered here rather than left to wedge every other
// goroutine waiting on that bucket — Go has no mutex-poisoning concept to
// translate otherwise, so the table logs and counts the recovery and
// moves on with the lock released.
func (t *Table) Store(hash uint64, score int32, depth uint8, bound Bound, move shogi.Move, hasMove bool, side shogi.Color, src Source) {
	slot := t.slotFor(hash)
	bucket := t.bucketFor(slot)
	mu := &t.buckets[bucket]

	mu.Lock()
	defer func() {
		mu.Unlock()
		if r := recover(); r != nil {
			t.Stats.PoisonRecoveries.Add(1)
			log.Printf("[TT] recovered from panic while storing hash=%016x: %v", hash, r)
		}
	}()

	e := &t.entries[slot]
	age := t.currentAge()
	existingA := atomic.LoadUint64(&e.wordA)

	if existingA != 0 {
		existing := unpackWordB(atomic.LoadUint64(&e.wordB))
		if existingA != hash {
			t.Stats.Collisions.Add(1)
		}
		if !t.shouldReplace(existing, age, depth, src) {
			t.Stats.OverwritesPrevented.Add(1)
			return
		}
	}

	var packedMove uint32
	if hasMove {
		packedMove = shogi.PackMove(move)
	}
	newB := packWordB(score, depth, bound, packedMove, hasMove, side, src, age)

	// three-step torn-read-safe store: invalidate, publish payload,
	// publish the real hash last so a concurrent Probe either sees the
	// old (hash, payload) pair intact or the new one, never a mix.
	atomic.StoreUint64(&e.wordA, 0)
	atomic.StoreUint64(&e.wordB, newB)
	atomic.StoreUint64(&e.wordA, hash)

	t.Stats.Stores.Add(1)
	t.Stats.StoresBySource[src].Add(1)
}

func (t *Table) shouldReplace(existing Entry, currentAge uint8, newDepth uint8, newSource Source) bool {
	if existing.Age != currentAge {
		return true
	}
	if newSource == SourceMainSearch {
		return true
	}
	if existing.Source == SourceMainSearch && existing.Depth > newDepth {
		return false
	}
	return true
}

// Clear resets every slot and statistics counter. Not safe to call
// concurrently with Probe/Store.
func (t *Table) Clear() {
	for i := range t.entries {
		t.entries[i] = entry{}
	}
	t.age.Store(0)
	t.Stats = Stats{}
}

// HashFull reports fill ratio in permille, sampling a fixed window the
// way UCI's hashfull does, to avoid scanning the whole table on every
// info line.
func (t *Table) HashFull() int {
	const sample = 1000
	n := len(t.entries)
	if n == 0 {
		return 0
	}
	if sample > n {
		full := 0
		for i := range t.entries {
			if atomic.LoadUint64(&t.entries[i].wordA) != 0 {
				full++
			}
		}
		return full * 1000 / n
	}
	full := 0
	for i := 0; i < sample; i++ {
		if atomic.LoadUint64(&t.entries[i].wordA) != 0 {
			full++
		}
	}
	return full * 1000 / sample
}
