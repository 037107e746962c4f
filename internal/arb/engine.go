// Package arb is the central orchestrator of the arbitrage detector: it
// owns the static MarketPair list, ticks once a second, and maintains the
// public OpportunitySnapshot. The tick-loop / RWMutex-guarded-snapshot
// shape is adapted from the teacher's engine.Engine,
// generalized from per-market strategy goroutines to a single stateless
// per-tick scan.
package arb

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"arbmon/internal/cache"
	"arbmon/internal/obsv"
	"arbmon/internal/types"
)

const tickInterval = 1 * time.Second

// maxSnapshot caps the published opportunity list, per §3.
const maxSnapshot = 1000

// Engine owns the static pair list and the two venue caches, and
// periodically republishes a sorted OpportunitySnapshot.
type Engine struct {
	pairs           []types.MarketPair
	cacheA          *cache.A
	cacheB          *cache.B
	venueBDown      bool // true when venue B has no credentials (Disabled)
	thresholdRORPct float64
	logger          *slog.Logger

	mu       sync.RWMutex
	snapshot []types.Opportunity
}

// New creates an engine over the given static pairs and venue caches.
// venueBDisabled should mirror streamB.Client.Disabled(): when true, every
// pair is skipped for lack of a venue-B price, per §4.4 step 2.
func New(pairs []types.MarketPair, cacheA *cache.A, cacheB *cache.B, venueBDisabled bool, thresholdRORPct float64, logger *slog.Logger) *Engine {
	return &Engine{
		pairs:           pairs,
		cacheA:          cacheA,
		cacheB:          cacheB,
		venueBDown:      venueBDisabled,
		thresholdRORPct: thresholdRORPct,
		logger:          logger.With("component", "arb-engine"),
	}
}

// Run ticks every second until ctx is cancelled, replacing the published
// snapshot each time. It never exits on a per-pair error (§4.4).
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

// Snapshot returns a value-copy of the current opportunity list, safe to
// serialize without holding the engine's lock.
func (e *Engine) Snapshot() []types.Opportunity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]types.Opportunity, len(e.snapshot))
	copy(out, e.snapshot)
	return out
}

func (e *Engine) tick() {
	start := time.Now()
	defer func() {
		obsv.EngineTickDuration.Observe(time.Since(start).Seconds())
	}()

	var found []types.Opportunity
	now := time.Now()

	for _, pair := range e.pairs {
		yesAskA, okYA := e.cacheA.Lookup(pair.YesToken)
		noAskA, okNA := e.cacheA.Lookup(pair.NoToken)
		if !okYA || !okNA || yesAskA.Ask <= 0 || noAskA.Ask <= 0 {
			obsv.EnginePairsSkipped.WithLabelValues("no-A-price").Inc()
			continue
		}

		if e.venueBDown {
			obsv.EnginePairsSkipped.WithLabelValues("venue-B-disabled").Inc()
			continue
		}

		recB, okB := e.cacheB.Lookup(pair.Ticker)
		if !okB || recB.YesBid <= 0 || recB.YesAsk <= 0 {
			obsv.EnginePairsSkipped.WithLabelValues("no-B-price").Inc()
			continue
		}

		found = append(found, e.evaluate(pair, now, yesAskA.Ask, noAskA.Ask, recB)...)
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].EdgePctTurn > found[j].EdgePctTurn
	})
	if len(found) > maxSnapshot {
		found = found[:maxSnapshot]
	}

	e.mu.Lock()
	e.snapshot = found
	e.mu.Unlock()

	obsv.EngineSnapshotSize.Set(float64(len(found)))
}

// evaluate computes both combinations for one pair and returns the
// Opportunities that clear the configured threshold (§4.4 steps 3-4).
func (e *Engine) evaluate(pair types.MarketPair, now time.Time, pmYesAsk, pmNoAsk float64, b cache.PriceB) []types.Opportunity {
	var out []types.Opportunity

	combos := []struct {
		tag       types.Combo
		totalCost float64
	}{
		{types.ComboAYesBNo, pmYesAsk + b.NoAsk},
		{types.ComboBYesANo, b.YesAsk + pmNoAsk},
	}

	for _, c := range combos {
		edge, roi, ok := Edge(c.totalCost)
		if !ok || roi < e.thresholdRORPct {
			continue
		}
		out = append(out, types.Opportunity{
			Timestamp:    now,
			Combo:        c.tag,
			EdgeAbs:      edge,
			EdgePctTurn:  roi,
			TotalCost:    c.totalCost,
			PMTitle:      pair.Title,
			PMYesAsk:     pmYesAsk,
			PMNoAsk:      pmNoAsk,
			KalshiTicker: pair.Ticker,
			KalshiTitle:  pair.TickerTitle,
			KalshiYesBid: b.YesBid,
			KalshiYesAsk: b.YesAsk,
			KalshiNoBid:  b.NoBid,
			KalshiNoAsk:  b.NoAsk,
		})
	}
	return out
}
