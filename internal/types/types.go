// Package types is the common vocabulary shared by the streaming clients,
// the price cache, and the arbitrage engine. It has no dependencies on any
// other internal package, so it can be imported by any layer.
package types

import "time"

// MarketPair identifies one logically-equivalent binary market on both
// venues. Built once by discovery at bootstrap and never mutated afterward.
type MarketPair struct {
	Title string // display title, venue A's phrasing

	YesToken string // venue A CLOB token ID, YES outcome
	NoToken  string // venue A CLOB token ID, NO outcome

	Ticker      string // venue B market ticker
	TickerTitle string // display title, venue B's phrasing
}

// Combo tags the two ways to assemble a covering YES+NO pair across venues.
type Combo string

const (
	ComboAYesBNo Combo = "A-YES + B-NO"
	ComboBYesANo Combo = "B-YES + A-NO"
)

// Opportunity is one detected arbitrage candidate for one MarketPair and one
// Combo, as of one engine tick. Immutable; superseded wholesale on the next
// tick, never patched in place.
type Opportunity struct {
	Timestamp   time.Time `json:"timestamp"`
	Combo       Combo     `json:"combo"`
	EdgeAbs     float64   `json:"edge_abs"`
	EdgePctTurn float64   `json:"edge_pct_turn"`
	TotalCost   float64   `json:"total_cost"`

	PMTitle  string  `json:"pm_title"`
	PMYesAsk float64 `json:"pm_yes_ask"`
	PMNoAsk  float64 `json:"pm_no_ask"`

	KalshiTicker string  `json:"kalshi_ticker"`
	KalshiTitle  string  `json:"kalshi_title"`
	KalshiYesBid float64 `json:"kalshi_yes_bid"`
	KalshiYesAsk float64 `json:"kalshi_yes_ask"`
	KalshiNoBid  float64 `json:"kalshi_no_bid"`
	KalshiNoAsk  float64 `json:"kalshi_no_ask"`
}
