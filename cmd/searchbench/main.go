// Command searchbench drives the search core against the starting
// position for a fixed depth or time budget and prints the principal
// variation it finds, the way the teacher's chessplay-uci binary drives
// the engine but without a USI protocol loop around it — this module's
// scope stops at the search core, so the only "protocol" here is flags.
package main

import (
	"flag"
	"log"
	"os"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/fgantt/shogi-search-engine/internal/book"
	"github.com/fgantt/shogi-search-engine/internal/evaluator"
	"github.com/fgantt/shogi-search-engine/internal/parallel"
	"github.com/fgantt/shogi-search-engine/internal/search"
	"github.com/fgantt/shogi-search-engine/internal/shogi"
	"github.com/fgantt/shogi-search-engine/internal/stats"
	"github.com/fgantt/shogi-search-engine/internal/tt"
)

var (
	depth       = flag.Int("depth", 8, "maximum search depth")
	moveTimeMS  = flag.Int("movetime", 0, "search for this many milliseconds instead of a fixed depth; 0 disables")
	threads     = flag.Int("threads", 1, "worker count; >1 drives the root search through the YBWC parallel coordinator")
	ttSizeMB    = flag.Int("tt-mb", 64, "transposition table size in megabytes")
	bookPath    = flag.String("book", "", "path to an opening book file; empty skips prefill")
	cached      = flag.Bool("cached-eval", false, "use a structure-cached evaluator instead of the plain one")
	statsPath   = flag.String("stats-db", "", "path to a stats database to record this run into; empty disables")
	otelMetrics = flag.Bool("otel", false, "attach a (no-op) OpenTelemetry meter to the search, exercising the metrics wiring; single-threaded only")
)

func main() {
	flag.Parse()

	cfg := search.NewConfig()
	cfg.TTSizeMB = *ttSizeMB
	cfg.StatsDBPath = *statsPath
	cfg.Threads = *threads
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	table := tt.New(cfg.TTSizeMB, cfg.TTBucketCount)

	if *bookPath != "" {
		b, err := book.LoadFile(*bookPath)
		if err != nil {
			log.Fatalf("loading book: %v", err)
		}
		fp := book.Prefill(table, b, 0)
		log.Printf("prefilled %d book entries into the transposition table (fingerprint %016x)", len(b.PrefillEntries()), fp)
	}

	eval := evaluator.New()
	if *cached {
		eval = evaluator.NewCached(16)
	}

	pos := shogi.NewPosition()
	stop := new(atomic.Bool)

	tm := search.NewTimeManager(cfg.TimeSafetyMarginMS)
	limits := search.Limits{Depth: *depth}
	if *moveTimeMS > 0 {
		limits.MoveTime = time.Duration(*moveTimeMS) * time.Millisecond
	}
	tm.Init(limits, int(pos.SideToMove()), 0)

	maxDepth := *depth
	if maxDepth <= 0 || maxDepth > search.MaxPly {
		maxDepth = search.MaxPly
	}

	var bestMove shogi.Move
	var bestScore int
	var totalNodes uint64

	if cfg.Threads > 1 {
		coordinator := parallel.New(cfg.Threads, table, eval, cfg, stop)
		defer coordinator.Close()

		result := parallel.RunIterativeDeepening(coordinator, pos, tm, maxDepth, func(r parallel.DeepenResult) {
			log.Printf("depth %2d  score %-8s  nodes %8d  move %s", r.Depth, search.FormatScore(r.Score), r.Nodes, r.Move)
		})
		bestMove, bestScore, totalNodes = result.Move, result.Score, result.Nodes
	} else {
		var opts []search.StateOption
		if *otelMetrics {
			opts = append(opts, search.WithMeter(noop.NewMeterProvider().Meter("searchbench")))
		}
		state := search.NewState(pos, table, eval, cfg, stop, opts...)
		deepener := search.NewDeepener(state, tm)

		result := deepener.Run(maxDepth, func(r search.Result) {
			log.Printf("depth %2d  score %-8s  nodes %8d  pv %s", r.Depth, search.FormatScore(r.Score), r.Nodes, formatPV(r.PV))
		})
		bestMove, bestScore, totalNodes = result.Move, result.Score, result.Nodes
	}

	log.Printf("bestmove %s  score %s  nodes %d", bestMove, search.FormatScore(bestScore), totalNodes)

	if cfg.StatsDBPath != "" {
		store, err := stats.Open(cfg.StatsDBPath)
		if err != nil {
			log.Fatalf("opening stats db: %v", err)
		}
		defer store.Close()

		snap := stats.FromTable(table, totalNodes, time.Now())
		if err := store.Record(snap); err != nil {
			log.Fatalf("recording snapshot: %v", err)
		}
		log.Printf("recorded run: hit rate %.2f%%", snap.HitRate()*100)
	}

	os.Exit(0)
}

func formatPV(pv []shogi.Move) string {
	if len(pv) == 0 {
		return "(none)"
	}
	s := pv[0].String()
	for _, m := range pv[1:] {
		s += " " + m.String()
	}
	return s
}
