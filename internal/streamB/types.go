package streamB

import "time"

// updateChanCap is the capacity of the per-client notification channel
// (§5), matching internal/streamA's.
const updateChanCap = 1000

// Update is a notification emitted after a cache write. See
// internal/streamA.Update for the non-blocking-send/drop discipline this
// mirrors.
type Update struct {
	Key string
	At  time.Time
}

// subscribeMsg is the single, venue-wide ticker subscribe frame sent once
// per connection (§4.3, §6). No per-market filtering exists on this venue.
type subscribeMsg struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// tickerFrame is the only inbound frame shape this client cares about.
// YesBid/YesAsk are pointers so a missing field can be told apart from an
// explicit zero, per the Open Question resolved in SPEC_FULL.md §9:
// a partial ticker (one side absent) is treated as invalid and dropped.
type tickerFrame struct {
	Channel string   `json:"channel"`
	Ticker  string   `json:"ticker"`
	YesBid  *float64 `json:"yes_bid"`
	YesAsk  *float64 `json:"yes_ask"`
}
