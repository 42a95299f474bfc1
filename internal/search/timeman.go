package search

import "time"

// Limits mirrors the subset of USI-style time controls the deepener
// needs; the protocol layer that parses "go wtime ... btime ..." lines is
// explicitly out of scope, but the numbers it would hand over are not.
type Limits struct {
	Time      [2]time.Duration // remaining time for Black, White
	Inc       [2]time.Duration
	MovesToGo int
	MoveTime  time.Duration
	Depth     int
	Nodes     uint64
	Infinite  bool
}

// TimeManager allocates and tracks a per-move time budget, including the
// move-stability-based early stopout the iterative deepener uses between
// completed depths.
type TimeManager struct {
	optimum   time.Duration
	maximum   time.Duration
	start     time.Time
	safety    time.Duration
	nowFunc   func() time.Time
}

// NewTimeManager constructs a TimeManager with a safety margin subtracted
// from every budget it computes, per Config.TimeSafetyMarginMS.
func NewTimeManager(safetyMarginMS int) *TimeManager {
	return &TimeManager{
		safety:  time.Duration(safetyMarginMS) * time.Millisecond,
		nowFunc: time.Now,
	}
}

func (tm *TimeManager) now() time.Time {
	if tm.nowFunc != nil {
		return tm.nowFunc()
	}
	return time.Now()
}

// Init computes the optimum/maximum budget for one move, in the style of
// the teacher's sudden-death estimator: with no explicit movestogo it
// guesses a shrinking number of remaining moves as the game lengthens.
func (tm *TimeManager) Init(limits Limits, us int, ply int) {
	tm.start = tm.now()

	if limits.MoveTime > 0 {
		tm.optimum = limits.MoveTime - tm.safety
		tm.maximum = limits.MoveTime - tm.safety
		tm.clampMinimums()
		return
	}

	if limits.Infinite || limits.Time[us] == 0 {
		tm.optimum = time.Hour
		tm.maximum = time.Hour
		return
	}

	timeLeft := limits.Time[us]
	inc := limits.Inc[us]

	mtg := limits.MovesToGo
	if mtg == 0 {
		mtg = 50 - ply/4
		if mtg < 10 {
			mtg = 10
		}
		if mtg > 50 {
			mtg = 50
		}
	}

	base := timeLeft/time.Duration(mtg) + inc*9/10
	tm.optimum = base
	if ply < 8 {
		tm.optimum = base * 85 / 100
	}

	maxFromOptimum := tm.optimum * 5
	maxFromRemaining := timeLeft * 8 / 10
	if maxFromOptimum < maxFromRemaining {
		tm.maximum = maxFromOptimum
	} else {
		tm.maximum = maxFromRemaining
	}

	safetyCeiling := timeLeft * 95 / 100
	if tm.maximum > safetyCeiling {
		tm.maximum = safetyCeiling
	}

	tm.optimum -= tm.safety
	tm.maximum -= tm.safety
	tm.clampMinimums()
}

func (tm *TimeManager) clampMinimums() {
	if tm.optimum < 10*time.Millisecond {
		tm.optimum = 10 * time.Millisecond
	}
	if tm.maximum < 50*time.Millisecond {
		tm.maximum = 50 * time.Millisecond
	}
}

// Elapsed returns time spent since Init.
func (tm *TimeManager) Elapsed() time.Duration { return tm.now().Sub(tm.start) }

// ShouldStop reports whether the hard maximum budget has been exceeded.
func (tm *TimeManager) ShouldStop() bool { return tm.Elapsed() >= tm.maximum }

// PastOptimum reports whether the soft target budget has been exceeded;
// the iterative deepener uses this to decide not to start another depth,
// as opposed to ShouldStop which can interrupt one mid-flight.
func (tm *TimeManager) PastOptimum() bool { return tm.Elapsed() >= tm.optimum }

// Remaining returns the time left until the hard maximum budget is
// exhausted, floored at zero; callers that need an absolute deadline
// duration (rather than the pruning manager's fractional signal) use
// this instead of RemainingFraction.
func (tm *TimeManager) Remaining() time.Duration {
	remaining := tm.maximum - tm.Elapsed()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingFraction returns the fraction of the maximum budget not yet
// consumed, in [0,1], feeding the pruning manager's TimePressure signal.
func (tm *TimeManager) RemainingFraction() float64 {
	if tm.maximum <= 0 {
		return 0
	}
	remaining := tm.maximum - tm.Elapsed()
	if remaining < 0 {
		return 0
	}
	frac := float64(remaining) / float64(tm.maximum)
	if frac > 1 {
		frac = 1
	}
	return frac
}

// AdjustForStability shortens the optimum budget once several consecutive
// depths have agreed on the best root move.
func (tm *TimeManager) AdjustForStability(stability int) {
	switch {
	case stability >= 6:
		tm.optimum = tm.optimum * 40 / 100
	case stability >= 4:
		tm.optimum = tm.optimum * 60 / 100
	case stability >= 2:
		tm.optimum = tm.optimum * 80 / 100
	}
}

// AdjustForInstability lengthens the optimum budget, capped at the
// maximum, when the root best move keeps changing between depths.
func (tm *TimeManager) AdjustForInstability(changes int) {
	switch {
	case changes >= 4:
		tm.optimum = tm.optimum * 200 / 100
	case changes >= 2:
		tm.optimum = tm.optimum * 150 / 100
	}
	if tm.optimum > tm.maximum {
		tm.optimum = tm.maximum
	}
}
