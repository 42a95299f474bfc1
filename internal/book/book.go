// Package book loads opening-book prefill data and applies it to a
// transposition table once at startup. This module never consults the
// book mid-search — every entry it knows about is pushed into the shared
// TT ahead of time and found again through the ordinary Probe path.
package book

import (
	"encoding/binary"
	"io"
	"log"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/fgantt/shogi-search-engine/internal/search"
	"github.com/fgantt/shogi-search-engine/internal/shogi"
	"github.com/fgantt/shogi-search-engine/internal/tt"
)

// recordSize is the fixed width of one book record, the same 16-byte
// idiom Polyglot books use even though the field layout here is our own:
// 8 bytes position hash, 4 bytes packed move, 2 bytes score, 1 byte depth,
// 1 byte reserved for future use.
const recordSize = 16

// Book is a loaded set of opening-book prefill entries plus the blob
// fingerprint it was built from.
type Book struct {
	entries     []search.BookEntry
	fingerprint uint64
}

// LoadFile reads a book from disk, returning any file or read error to
// the caller; Load, config validation and the stats package's database
// calls are the module's other error-returning paths.
func LoadFile(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load parses a book blob and fingerprints it with xxhash so repeated
// prefills of the same book are cheap to detect as no-ops.
func Load(r io.Reader) (*Book, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	fingerprint := xxhash.Sum64(data)
	entries := make([]search.BookEntry, 0, len(data)/recordSize)

	for off := 0; off+recordSize <= len(data); off += recordSize {
		rec := data[off : off+recordSize]
		hash := binary.BigEndian.Uint64(rec[0:8])
		packedMove := binary.BigEndian.Uint32(rec[8:12])
		score := int16(binary.BigEndian.Uint16(rec[12:14]))
		depth := rec[14]

		move := shogi.UnpackMove(packedMove)
		entries = append(entries, search.BookEntry{
			Hash:     hash,
			BestMove: move,
			Score:    int(score),
			Depth:    int(depth),
		})
	}

	log.Printf("[Book] loaded %d entries, fingerprint=%016x", len(entries), fingerprint)
	return &Book{entries: entries, fingerprint: fingerprint}, nil
}

// PrefillEntries satisfies search.Book.
func (b *Book) PrefillEntries() []search.BookEntry {
	if b == nil {
		return nil
	}
	return b.entries
}

// Fingerprint identifies the exact bytes this book was loaded from.
func (b *Book) Fingerprint() uint64 {
	if b == nil {
		return 0
	}
	return b.fingerprint
}

// Prefill pushes every entry of b into table as SourceBook results, unless
// b's fingerprint already matches lastFingerprint — in which case the
// table was already prefilled from this exact book and the call is a
// no-op. It returns the fingerprint the caller should remember for the
// next Prefill call.
func Prefill(table *tt.Table, b *Book, lastFingerprint uint64) uint64 {
	if b == nil {
		return lastFingerprint
	}
	if b.fingerprint == lastFingerprint {
		log.Printf("[Book] prefill skipped, fingerprint unchanged (%016x)", b.fingerprint)
		return lastFingerprint
	}

	for _, e := range b.entries {
		// the book format doesn't record whose turn a hash belongs to;
		// SideToMove is presently an unconsumed Entry field, so any
		// constant value here is harmless until something reads it.
		table.Store(e.Hash, int32(e.Score), uint8(e.Depth), tt.BoundExact, e.BestMove, true, shogi.Black, tt.SourceBook)
	}
	log.Printf("[Book] prefilled %d entries, fingerprint=%016x", len(b.entries), b.fingerprint)
	return b.fingerprint
}
