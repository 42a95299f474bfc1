package book

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/fgantt/shogi-search-engine/internal/order"
	"github.com/fgantt/shogi-search-engine/internal/shogi"
	"github.com/fgantt/shogi-search-engine/internal/tt"
)

func encodeRecord(buf *bytes.Buffer, hash uint64, m shogi.Move, score int16, depth uint8) {
	binary.Write(buf, binary.BigEndian, hash)
	binary.Write(buf, binary.BigEndian, shogi.PackMove(m))
	binary.Write(buf, binary.BigEndian, uint16(score))
	buf.WriteByte(depth)
	buf.WriteByte(0)
}

func TestLoadParsesEveryRecord(t *testing.T) {
	m := shogi.Move{From: shogi.NewSquare(2, 6), To: shogi.NewSquare(2, 5), Piece: shogi.Pawn}

	var buf bytes.Buffer
	encodeRecord(&buf, 0xAAAA, m, 35, 12)
	encodeRecord(&buf, 0xBBBB, m, -10, 8)

	b, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	entries := b.PrefillEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Hash != 0xAAAA || entries[0].Score != 35 || entries[0].Depth != 12 {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Hash != 0xBBBB || entries[1].Score != -10 {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestLoadEmptyBookHasNoEntries(t *testing.T) {
	b, err := Load(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(b.PrefillEntries()) != 0 {
		t.Fatalf("expected no entries from an empty blob, got %d", len(b.PrefillEntries()))
	}
}

func TestTwoLoadsOfTheSameBytesFingerprintIdentically(t *testing.T) {
	m := shogi.Move{From: shogi.NewSquare(2, 6), To: shogi.NewSquare(2, 5), Piece: shogi.Pawn}
	var buf bytes.Buffer
	encodeRecord(&buf, 0xAAAA, m, 35, 12)
	raw := buf.Bytes()

	b1, err := Load(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b2, err := Load(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b1.Fingerprint() != b2.Fingerprint() {
		t.Fatalf("expected identical fingerprints for identical bytes, got %016x and %016x", b1.Fingerprint(), b2.Fingerprint())
	}
}

func TestPrefillIsIdempotentForTheSameFingerprint(t *testing.T) {
	m := shogi.Move{From: shogi.NewSquare(2, 6), To: shogi.NewSquare(2, 5), Piece: shogi.Pawn}
	var buf bytes.Buffer
	encodeRecord(&buf, 0xCAFE, m, 50, 10)

	b, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	table := tt.New(1, 16)
	fp := Prefill(table, b, 0)
	if fp != b.Fingerprint() {
		t.Fatalf("expected returned fingerprint to match the book's")
	}
	if table.Stats.Stores.Load() != 1 {
		t.Fatalf("expected exactly one store on first prefill, got %d", table.Stats.Stores.Load())
	}

	fp2 := Prefill(table, b, fp)
	if fp2 != fp {
		t.Fatalf("expected fingerprint to be stable across a repeated prefill")
	}
	if table.Stats.Stores.Load() != 1 {
		t.Fatalf("expected the repeated prefill to be a no-op, stores=%d", table.Stats.Stores.Load())
	}
}

// TestPrefillOrdersTheBookMoveFirstAtTheRoot mirrors the prefill-then-
// search scenario: a book entry for a real position's hash must come back
// out of the TT as that position's ttMove, which move ordering always
// ranks above every other candidate at the root.
func TestPrefillOrdersTheBookMoveFirstAtTheRoot(t *testing.T) {
	pos := shogi.NewPosition()
	hash := pos.Hash()

	var legal shogi.MoveList
	pos.GeneratePseudoLegal(pos.SideToMove(), &legal)
	if legal.Len() == 0 {
		t.Fatal("expected the starting position to have legal moves")
	}
	bookMove := legal.At(legal.Len() - 1)

	var buf bytes.Buffer
	encodeRecord(&buf, hash, bookMove, 12, 4)
	b, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	table := tt.New(1, 16)
	Prefill(table, b, 0)

	entry := table.Probe(hash)
	if !entry.Found || !entry.HasMove {
		t.Fatal("expected the prefilled entry to be found with a move")
	}

	orderer := order.New()
	scores := orderer.ScoreMoves(&legal, 0, entry.Move, order.BookHint{})
	order.PickMove(&legal, scores, 0)
	if legal.At(0) != bookMove {
		t.Fatalf("expected the book move %+v to be ordered first, got %+v", bookMove, legal.At(0))
	}
}

func TestPrefillPopulatesTheTable(t *testing.T) {
	m := shogi.Move{From: shogi.NewSquare(2, 6), To: shogi.NewSquare(2, 5), Piece: shogi.Pawn}
	var buf bytes.Buffer
	encodeRecord(&buf, 0xF00D, m, 50, 10)

	b, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	table := tt.New(1, 16)
	Prefill(table, b, 0)

	entry := table.Probe(0xF00D)
	if !entry.Found {
		t.Fatal("expected the prefilled hash to be found")
	}
	if entry.Source != tt.SourceBook {
		t.Fatalf("expected SourceBook, got %v", entry.Source)
	}
	if entry.Move != m {
		t.Fatalf("expected the book move to round-trip, got %+v", entry.Move)
	}
}
