package cache

import "testing"

func TestAMergeOrderIndependent(t *testing.T) {
	t.Parallel()

	c1 := NewA()
	c1.UpdateAsk("tok", 0.45)
	c1.UpdateBid("tok", 0.40)

	c2 := NewA()
	c2.UpdateBid("tok", 0.40)
	c2.UpdateAsk("tok", 0.45)

	r1, ok1 := c1.Lookup("tok")
	r2, ok2 := c2.Lookup("tok")
	if !ok1 || !ok2 {
		t.Fatal("expected both lookups present")
	}
	if r1 != r2 {
		t.Errorf("merge order dependent: %+v vs %+v", r1, r2)
	}
	if r1.Ask != 0.45 || r1.Bid != 0.40 {
		t.Errorf("got %+v, want ask=0.45 bid=0.40", r1)
	}
}

func TestAZeroPriceSkipsUpdate(t *testing.T) {
	t.Parallel()

	c := NewA()
	c.UpdateAsk("tok", 0.50)
	c.UpdateAsk("tok", 0) // cleared frame, per spec treated as no-op

	rec, ok := c.Lookup("tok")
	if !ok {
		t.Fatal("expected present")
	}
	if rec.Ask != 0.50 {
		t.Errorf("ask = %v, want 0.50 (zero-price update should be skipped)", rec.Ask)
	}
}

func TestALookupUnknownKey(t *testing.T) {
	t.Parallel()

	c := NewA()
	_, ok := c.Lookup("never-seen")
	if ok {
		t.Error("expected ok=false for unknown key")
	}
}

func TestBFullReplace(t *testing.T) {
	t.Parallel()

	c := NewB()
	c.Update("TICK-1", PriceB{YesBid: 0.54, YesAsk: 0.55, NoBid: 0.45, NoAsk: 0.46})

	rec, ok := c.Lookup("TICK-1")
	if !ok {
		t.Fatal("expected present")
	}
	if rec.YesBid != 0.54 || rec.YesAsk != 0.55 || rec.NoBid != 0.45 || rec.NoAsk != 0.46 {
		t.Errorf("got %+v", rec)
	}

	// Second update replaces all four fields atomically, no partial merge.
	c.Update("TICK-1", PriceB{YesBid: 0.60, YesAsk: 0.61, NoBid: 0.39, NoAsk: 0.40})
	rec, _ = c.Lookup("TICK-1")
	if rec.YesBid != 0.60 || rec.NoAsk != 0.40 {
		t.Errorf("update did not fully replace: %+v", rec)
	}
}
