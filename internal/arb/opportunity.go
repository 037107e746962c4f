package arb

// Edge computes absolute edge and return-on-turnover for one combination's
// total cost, per §8's Edge testable property: edge = 1 - totalCost; roi =
// edge / totalCost * 100 when totalCost > 0, else the combination is
// invalid (ok=false) and never compared against the threshold. Grounded on
// the negative-risk edge formula (edge = (k-1) - totalCost, here k=2)
// found in this domain's reference arbitrage bots.
func Edge(totalCost float64) (edgeAbs, roiPct float64, ok bool) {
	if totalCost <= 0 {
		return 0, 0, false
	}
	edgeAbs = 1 - totalCost
	roiPct = edgeAbs / totalCost * 100
	return edgeAbs, roiPct, true
}
