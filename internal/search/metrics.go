package search

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// meterInstruments holds the OpenTelemetry counters a State records into
// when a meter has been attached. A zero meterInstruments (the default for
// any State never given WithMeter) means every record* call below is a
// no-op nil check away from costing anything at all.
type meterInstruments struct {
	nodes         metric.Int64Counter
	ttHits        metric.Int64Counter
	ttMisses      metric.Int64Counter
	nmpCutoffs    metric.Int64Counter
	lmrResearches metric.Int64Counter
}

// StateOption configures optional, off-by-default State behavior.
type StateOption func(*State)

// WithMeter attaches an OpenTelemetry meter to a State: the iterative
// deepener and the node loop add to counters for nodes visited, TT hits,
// TT misses, NMP cutoffs and LMR re-searches alongside the always-on atomic
// counters. Omitting this option (the default) means no OTel instrument is
// ever created or recorded into, so the dependency costs nothing at
// runtime for callers who never ask for it.
func WithMeter(m metric.Meter) StateOption {
	return func(s *State) {
		if m == nil {
			return
		}
		inst := &meterInstruments{}
		inst.nodes, _ = m.Int64Counter("shogi_search_nodes",
			metric.WithDescription("nodes visited by Negamax and Quiescence"))
		inst.ttHits, _ = m.Int64Counter("shogi_search_tt_hits",
			metric.WithDescription("transposition table probes that found a usable entry"))
		inst.ttMisses, _ = m.Int64Counter("shogi_search_tt_misses",
			metric.WithDescription("transposition table probes that found nothing"))
		inst.nmpCutoffs, _ = m.Int64Counter("shogi_search_nmp_cutoffs",
			metric.WithDescription("null-move pruning cutoffs"))
		inst.lmrResearches, _ = m.Int64Counter("shogi_search_lmr_researches",
			metric.WithDescription("late-move-reduction re-searches at full depth"))
		s.meter = inst
	}
}

func (s *State) recordTTProbe(hit bool) {
	if s.meter == nil {
		return
	}
	ctx := context.Background()
	if hit {
		s.meter.ttHits.Add(ctx, 1)
	} else {
		s.meter.ttMisses.Add(ctx, 1)
	}
}

func (s *State) recordNMPCutoff() {
	if s.meter == nil {
		return
	}
	s.meter.nmpCutoffs.Add(context.Background(), 1)
}

func (s *State) recordLMRResearch() {
	if s.meter == nil {
		return
	}
	s.meter.lmrResearches.Add(context.Background(), 1)
}

// flushNodeCount reports the node delta since the last flush to the
// attached meter, called by the Deepener once per completed depth rather
// than on every single node to keep the counter add off the hottest path.
func (s *State) flushNodeCount(delta uint64) {
	if s.meter == nil || delta == 0 {
		return
	}
	s.meter.nodes.Add(context.Background(), int64(delta))
}
