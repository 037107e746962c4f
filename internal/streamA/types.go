package streamA

import "time"

// updateChanCap is the capacity of the per-client notification channel
// (§5): room for a burst of notifications while a consumer catches up,
// and a bound on memory when nothing drains it (with no consumer, every
// notification after the first updateChanCap is dropped and counted).
const updateChanCap = 1000

// Update is a notification emitted after a cache write. The read loop
// never blocks on this: Client.notify uses a non-blocking send and drops
// (incrementing a counter) if no consumer is keeping up.
type Update struct {
	Key string
	At  time.Time
}

// subscribeMsg is the client→server chunked subscribe payload. Reused
// verbatim from the teacher's WSSubscribeMsg "market" shape (§6).
type subscribeMsg struct {
	Type     string   `json:"type"`
	AssetIDs []string `json:"assets_ids"`
}

// envelope peeks at the event_type field shared by every frame shape, so
// the full frame can be decoded with a second, typed unmarshal.
type envelope struct {
	EventType string `json:"event_type"`
}

// bookFrame and priceChangeFrame are the two frame shapes that yield cache
// updates (§4.2, §6). Unlike the teacher's full order-book snapshot types,
// only the top-of-book price/side is needed here.
type bookFrame struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset"`
	Price     string `json:"price"`
	Side      string `json:"side"`
}

type priceChangeFrame struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset"`
	Price     string `json:"price"`
	Side      string `json:"side"`
}
