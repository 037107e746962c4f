// Package stream holds the connection state machine shared by both venue
// stream clients (internal/streamA, internal/streamB). Replaces the
// reconnect-signal-channel pattern the teacher's exchange.WSFeed used with
// an explicit, race-free state machine: every transition is a single
// atomic store, observable by the metrics gauge without extra locking.
package stream

import (
	"sync/atomic"
	"time"
)

// State is one node of the per-client connection state machine.
type State int32

const (
	Idle State = iota
	Dialing
	Subscribing
	Reading
	Closing
	Backoff
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Dialing:
		return "Dialing"
	case Subscribing:
		return "Subscribing"
	case Reading:
		return "Reading"
	case Closing:
		return "Closing"
	case Backoff:
		return "Backoff"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// StateHolder is an atomically-updated State, safe to read concurrently
// (e.g. through a client's State method) while the connection manager
// goroutine writes it.
type StateHolder struct {
	v atomic.Int32
}

func (h *StateHolder) Set(s State) { h.v.Store(int32(s)) }
func (h *StateHolder) Get() State  { return State(h.v.Load()) }

// NextBackoff computes the next exponential backoff delay given the
// current one, doubling each call and capping at max. Call with the zero
// Duration on the first failure to get start.
func NextBackoff(current, start, max time.Duration) time.Duration {
	if current <= 0 {
		return start
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}
