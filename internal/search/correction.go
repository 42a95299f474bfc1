package search

// correctionTableSize is the number of buckets the correction history
// hashes into; 16 bits keeps the table a fixed 128KB regardless of how
// many distinct positions a long search visits, matching the teacher's
// own fixed-size, collision-tolerant design.
const correctionTableSize = 1 << 16

// correctionMaxMagnitude clamps how far a single position's correction can
// drift from zero, so one wildly wrong search score can't poison the
// static eval of every other position that happens to hash into the same
// bucket.
const correctionMaxMagnitude = 16000

// correctionBonusClamp bounds a single update's contribution before it is
// folded in, independent of the table's own magnitude clamp.
const correctionBonusClamp = 256

// CorrectionHistory adjusts the static evaluator's raw output toward what
// search has actually found for positions that hash into the same bucket,
// the same idea as Stockfish's correction history: when a deep search
// disagrees with the cheap static eval, remember the error and nudge
// future static evals at similar positions toward the corrected value.
type CorrectionHistory struct {
	table [correctionTableSize]int16
}

// NewCorrectionHistory returns an empty correction history.
func NewCorrectionHistory() *CorrectionHistory {
	return &CorrectionHistory{}
}

// Get returns the correction to add to hash's raw static evaluation.
func (c *CorrectionHistory) Get(hash uint64) int {
	return int(c.table[hash&(correctionTableSize-1)])
}

// Update records the gap between an exact search result and the raw
// static eval that preceded it, scaled by depth (deeper searches are more
// trustworthy) and folded into the existing correction with a gravity
// update so a single outlier can't swing the bucket on its own.
func (c *CorrectionHistory) Update(hash uint64, searchScore, staticEval, depth int) {
	if depth < 1 {
		return
	}
	bonus := (searchScore - staticEval) * depth / 8
	if bonus > correctionBonusClamp {
		bonus = correctionBonusClamp
	} else if bonus < -correctionBonusClamp {
		bonus = -correctionBonusClamp
	}

	idx := hash & (correctionTableSize - 1)
	old := int(c.table[idx])
	updated := old + (bonus-old)/16
	if updated > correctionMaxMagnitude {
		updated = correctionMaxMagnitude
	} else if updated < -correctionMaxMagnitude {
		updated = -correctionMaxMagnitude
	}
	c.table[idx] = int16(updated)
}

// Age halves every correction toward zero, called between searches so
// stale corrections from a previous position fade rather than linger
// indefinitely across an entire game.
func (c *CorrectionHistory) Age() {
	for i := range c.table {
		c.table[i] /= 2
	}
}
