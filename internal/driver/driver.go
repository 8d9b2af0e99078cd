// Package driver implements the supervisor glue that pumps bytes from
// a serial port into the AutoCAN frame codec, drives one chassis state
// machine, and dispatches decoded events to a user callback until
// parse-timeout or end-of-stream disconnects it.
package driver

import (
	"time"

	"github.com/autolaborcenter/pm1-driver/internal/autocan"
	"github.com/autolaborcenter/pm1-driver/internal/chassis"
)

// ParseTimeout is the longest Join keeps reading without decoding a
// valid frame, distinct from the serial-layer per-read timeout
// configured on the port itself.
const ParseTimeout = 250 * time.Millisecond

// Reader is the read side of a connected port.
type Reader interface {
	Read(buf []byte) (int, error)
}

// Callback is invoked by Join once per decoded Message: ev/ok carry a
// chassis Event when dispatching that message produced one.
// Returning false requests a clean exit.
type Callback func(state *chassis.State, ev chassis.Event, ok bool) bool

// Join pumps bytes from r into a FrameBuffer, drives state's dispatch
// for every decoded Message, and invokes cb after each dispatch. It
// returns true on a clean callback-requested exit, false on a
// parse-timeout or read failure (the caller should treat false as
// "try to reopen the port").
func Join(r Reader, state *chassis.State, cb Callback) bool {
	var buf autocan.FrameBuffer
	deadline := time.Now().Add(ParseTimeout)

	for {
		if msg, ok := buf.Next(); ok {
			ev, hasEvent := state.Dispatch(time.Now(), msg)
			if !cb(state, ev, hasEvent) {
				return true
			}
			deadline = time.Now().Add(ParseTimeout)
			continue
		}

		if time.Now().After(deadline) {
			return false
		}

		n, err := r.Read(buf.Free())
		switch {
		case err != nil:
			return false
		case n == 0:
			// Read timeout with no bytes: loop back and check the parse
			// deadline rather than treating this as a disconnect.
		default:
			buf.Fill(n)
		}
	}
}
