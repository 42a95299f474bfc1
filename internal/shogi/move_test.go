package shogi

import "testing"

func TestPackMoveRoundTrip(t *testing.T) {
	cases := []Move{
		{From: NewSquare(0, 0), To: NewSquare(8, 8), Piece: Pawn},
		{From: NewSquare(4, 4), To: NewSquare(4, 3), Piece: Silver, Promotion: true},
		{From: NewSquare(2, 1), To: NewSquare(2, 0), Piece: Rook, IsCapture: true},
		{From: DropSentinel, To: NewSquare(4, 4), Piece: Knight},
		{From: NewSquare(8, 0), To: NewSquare(0, 8), Piece: Dragon, IsCapture: true},
	}
	for _, m := range cases {
		packed := PackMove(m)
		got := UnpackMove(packed)
		if got.From != m.From || got.To != m.To || got.Piece != m.Piece ||
			got.Promotion != m.Promotion || got.IsCapture != m.IsCapture {
			t.Fatalf("round trip mismatch: in=%+v packed=%#x out=%+v", m, packed, got)
		}
	}
}

func TestPackMoveFitsField(t *testing.T) {
	m := Move{From: DropSentinel, To: NewSquare(8, 8), Piece: Dragon, Promotion: true, IsCapture: true}
	packed := PackMove(m)
	if packed >= 1<<PackedMoveBits {
		t.Fatalf("packed move %#x does not fit in %d bits", packed, PackedMoveBits)
	}
}

func TestNoMoveIsZero(t *testing.T) {
	if !NoMove.IsZero() {
		t.Fatalf("NoMove.IsZero() = false")
	}
	m := Move{From: NewSquare(1, 1), To: NewSquare(1, 2), Piece: Pawn}
	if m.IsZero() {
		t.Fatalf("non-zero move reported as zero")
	}
}
