// Package search implements the engine's core: the negamax/PVS node
// function, quiescence search, the iterative deepener that drives it with
// aspiration windows and time management, and the repetition history a
// node needs to call the board abstractor's is_legal/in_check contract
// correctly. It consumes the transposition table, move orderer, and
// pruning manager as already-constructed collaborators rather than
// owning their lifecycles, the same separation the teacher's Worker draws
// between itself and the Engine that assembles it.
package search

import (
	"errors"
	"fmt"

	"github.com/fgantt/shogi-search-engine/internal/prune"
)

// MateScore is the score magnitude reserved for "mate in N" results; any
// score within MateScore-MaxPly of it is a mate score rather than a
// material evaluation, the same convention chess engines use.
const MateScore = 1_000_000

// MaxPly bounds search-stack and repetition-history depth.
const MaxPly = 128

// Config holds every tunable the search core recognizes. The zero value
// is not valid; build one with NewConfig and always call Validate before
// constructing a Deepener from it.
type Config struct {
	Threads     int
	TTSizeMB    int
	TTBucketCount int

	EnableNMP   bool
	NMPMinDepth int
	EnableLMR   bool
	LMRReSearchMargin int
	LMRAdaptive bool
	EnableIID   bool
	EnableQuiescence bool

	AspirationWindow  int
	TimeSafetyMarginMS int

	// StatsDBPath, when non-empty, enables optional cross-run statistics
	// persistence in the stats subsystem. Empty disables it entirely.
	StatsDBPath string
}

// NewConfig returns a Config populated with the spec's documented
// defaults.
func NewConfig() Config {
	return Config{
		Threads:            1,
		TTSizeMB:           64,
		TTBucketCount:      256,
		EnableNMP:          true,
		NMPMinDepth:        2,
		EnableLMR:          true,
		LMRReSearchMargin:  0,
		LMRAdaptive:        true,
		EnableIID:          true,
		EnableQuiescence:   true,
		AspirationWindow:   25,
		TimeSafetyMarginMS: 100,
	}
}

var (
	// ErrInvalidThreads is wrapped into the error Validate returns when
	// Threads is out of range.
	ErrInvalidThreads = errors.New("search: threads must be >= 1")
	// ErrInvalidTTSize is wrapped when TTSizeMB is non-positive.
	ErrInvalidTTSize = errors.New("search: tt_size_mb must be >= 1")
	// ErrInvalidBucketCount is wrapped when TTBucketCount is not a power
	// of two in [1, 4096].
	ErrInvalidBucketCount = errors.New("search: tt_bucket_count must be a power of two in [1, 4096]")
)

// Validate rejects a nonsensical configuration before it reaches the
// engine constructor. Besides this, only opening-book loading and the
// stats package's database calls return a Go error in this module.
func (c Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidThreads, c.Threads)
	}
	if c.TTSizeMB < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidTTSize, c.TTSizeMB)
	}
	if c.TTBucketCount < 1 || c.TTBucketCount > 4096 || c.TTBucketCount&(c.TTBucketCount-1) != 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBucketCount, c.TTBucketCount)
	}
	return nil
}

func (c Config) pruneConfig() prune.Config {
	return prune.Config{
		EnableNMP:         c.EnableNMP,
		NMPMinDepth:       c.NMPMinDepth,
		EnableLMR:         c.EnableLMR,
		LMRReSearchMargin: c.LMRReSearchMargin,
		LMRAdaptive:       c.LMRAdaptive,
		EnableIID:         c.EnableIID,
		EnableFutility:    true,
	}
}

// FormatScore renders a score the way a UCI/USI "info" line would, used
// only by tests and logging — the search itself never formats scores on
// the hot path.
func FormatScore(score int) string {
	if score > MateScore-MaxPly {
		pliesToMate := MateScore - score
		return fmt.Sprintf("mate %d", (pliesToMate+1)/2)
	}
	if score < -(MateScore - MaxPly) {
		pliesToMate := MateScore + score
		return fmt.Sprintf("mate -%d", (pliesToMate+1)/2)
	}
	return fmt.Sprintf("cp %d", score)
}
