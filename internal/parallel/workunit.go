package parallel

import "github.com/fgantt/shogi-search-engine/internal/shogi"

// workUnit is one sibling move published for stealing once the oldest
// brother at a splittable node has returned: a position snapshot taken
// right after the sibling move was made, the window to search it with,
// and the handle its result reports back to.
type workUnit struct {
	pos     *shogi.Position
	move    shogi.Move
	depth   int
	ply     int
	alpha   int
	beta    int
	cutNode bool
	handle  *SyncHandle
}
