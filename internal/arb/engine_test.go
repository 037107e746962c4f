package arb

import (
	"log/slog"
	"math"
	"testing"
	"time"

	"arbmon/internal/cache"
	"arbmon/internal/types"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func setup(t *testing.T, pmYesAsk, pmNoAsk, bYesBid, bYesAsk float64, venueBDisabled bool) *Engine {
	t.Helper()
	pair := types.MarketPair{Title: "Will X happen?", YesToken: "yes-tok", NoToken: "no-tok", Ticker: "TICK-1", TickerTitle: "X happens"}

	ca := cache.NewA()
	ca.UpdateAsk("yes-tok", pmYesAsk)
	ca.UpdateAsk("no-tok", pmNoAsk)

	cb := cache.NewB()
	if !venueBDisabled {
		cb.Update("TICK-1", cache.PriceB{
			YesBid: bYesBid,
			YesAsk: bYesAsk,
			NoBid:  1 - bYesAsk,
			NoAsk:  1 - bYesBid,
		})
	}

	return New([]types.MarketPair{pair}, ca, cb, venueBDisabled, 3.0, slog.Default())
}

func TestClearCombo1(t *testing.T) {
	t.Parallel()
	e := setup(t, 0.45, 0.60, 0.54, 0.55, false)
	e.tick()

	snap := e.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(snap))
	}
	o := snap[0]
	if o.Combo != types.ComboAYesBNo {
		t.Errorf("combo = %v, want %v", o.Combo, types.ComboAYesBNo)
	}
	if !approxEqual(o.TotalCost, 0.91, 1e-9) {
		t.Errorf("total_cost = %v, want 0.91", o.TotalCost)
	}
	if !approxEqual(o.EdgeAbs, 0.09, 1e-9) {
		t.Errorf("edge_abs = %v, want 0.09", o.EdgeAbs)
	}
	if !approxEqual(o.EdgePctTurn, 9.89, 0.01) {
		t.Errorf("edge_pct_turn = %v, want ~9.89", o.EdgePctTurn)
	}
}

func TestClearCombo2(t *testing.T) {
	t.Parallel()
	e := setup(t, 0.60, 0.42, 0.51, 0.52, false)
	e.tick()

	snap := e.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(snap))
	}
	o := snap[0]
	if o.Combo != types.ComboBYesANo {
		t.Errorf("combo = %v, want %v", o.Combo, types.ComboBYesANo)
	}
	if !approxEqual(o.TotalCost, 0.94, 1e-9) {
		t.Errorf("total_cost = %v, want 0.94", o.TotalCost)
	}
	if !approxEqual(o.EdgePctTurn, 6.38, 0.01) {
		t.Errorf("edge_pct_turn = %v, want ~6.38", o.EdgePctTurn)
	}
}

func TestEfficientMarketEmptySnapshot(t *testing.T) {
	t.Parallel()
	e := setup(t, 0.50, 0.50, 0.50, 0.50, false)
	e.tick()

	if snap := e.Snapshot(); len(snap) != 0 {
		t.Errorf("got %d opportunities, want 0", len(snap))
	}
}

func TestBothCombosPositiveSortedStably(t *testing.T) {
	t.Parallel()
	// B YES-bid 0.55 gives B NO-ask 0.45, so each combination costs 0.89.
	e := setup(t, 0.44, 0.44, 0.55, 0.45, false)
	e.tick()

	snap := e.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("got %d opportunities, want 2", len(snap))
	}
	for i := 0; i+1 < len(snap); i++ {
		if snap[i].EdgePctTurn < snap[i+1].EdgePctTurn {
			t.Errorf("snapshot not sorted descending at %d", i)
		}
	}
}

func TestVenueBDisabledEmptySnapshot(t *testing.T) {
	t.Parallel()
	e := setup(t, 0.45, 0.60, 0, 0, true)
	e.tick()

	if snap := e.Snapshot(); len(snap) != 0 {
		t.Errorf("got %d opportunities, want 0 when venue B disabled", len(snap))
	}
}

func TestMissingAPriceSkipsPair(t *testing.T) {
	t.Parallel()
	pair := types.MarketPair{YesToken: "yes-tok", NoToken: "no-tok", Ticker: "TICK-1"}
	ca := cache.NewA() // never updated
	cb := cache.NewB()
	cb.Update("TICK-1", cache.PriceB{YesBid: 0.5, YesAsk: 0.5, NoBid: 0.5, NoAsk: 0.5})

	e := New([]types.MarketPair{pair}, ca, cb, false, 3.0, slog.Default())
	e.tick()

	if snap := e.Snapshot(); len(snap) != 0 {
		t.Errorf("got %d opportunities, want 0 for missing venue-A price", len(snap))
	}
}

func TestThresholdMonotonicity(t *testing.T) {
	t.Parallel()
	pair := types.MarketPair{YesToken: "yes-tok", NoToken: "no-tok", Ticker: "TICK-1"}
	ca := cache.NewA()
	ca.UpdateAsk("yes-tok", 0.45)
	ca.UpdateAsk("no-tok", 0.60)
	cb := cache.NewB()
	cb.Update("TICK-1", cache.PriceB{YesBid: 0.54, YesAsk: 0.55, NoBid: 0.45, NoAsk: 0.46})

	lowThresh := New([]types.MarketPair{pair}, ca, cb, false, 1.0, slog.Default())
	lowThresh.tick()
	highThresh := New([]types.MarketPair{pair}, ca, cb, false, 50.0, slog.Default())
	highThresh.tick()

	if len(highThresh.Snapshot()) > len(lowThresh.Snapshot()) {
		t.Error("raising the threshold added opportunities")
	}
}

func TestSnapshotIsTimestamped(t *testing.T) {
	t.Parallel()
	e := setup(t, 0.45, 0.60, 0.54, 0.55, false)
	before := time.Now()
	e.tick()
	snap := e.Snapshot()
	if len(snap) == 0 {
		t.Fatal("expected at least one opportunity")
	}
	if snap[0].Timestamp.Before(before) {
		t.Error("opportunity timestamp predates the tick")
	}
}

func TestEdgeNonPositiveCostInvalid(t *testing.T) {
	t.Parallel()
	if _, _, ok := Edge(0); ok {
		t.Error("expected ok=false for zero total cost")
	}
	if _, _, ok := Edge(-0.1); ok {
		t.Error("expected ok=false for negative total cost")
	}
}
