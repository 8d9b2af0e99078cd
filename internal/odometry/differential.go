// Package odometry fuses asynchronous left/right wheel encoder samples
// into time-aligned tick deltas and accumulates them into a chassis pose.
package odometry

import "time"

// Wheel identifies which side an encoder sample came from.
type Wheel uint8

const (
	Left Wheel = iota
	Right
	none // sentinel: no pending sample
)

// pairTimeout is the maximum gap allowed between two complementary wheel
// samples before the pending one is discarded rather than paired.
const pairTimeout = 100 * time.Millisecond

// Differential pairs near-simultaneous left/right wheel encoder reports
// into a (Δleft, Δright) tick pair. The first pair received only primes
// its internal memory and produces no output; every pair after that
// yields the delta since the previous pairing.
type Differential struct {
	initialized bool
	memory      [2]int32 // last paired (left, right) absolute ticks

	lastWhich Wheel
	lastValue int32
	deadline  time.Time
}

// NewDifferential returns a Differential with no pending sample.
func NewDifferential() *Differential {
	return &Differential{lastWhich: none}
}

// Update records a wheel sample at time t. It returns a (Δleft, Δright)
// tick delta once a complementary pair completes within pairTimeout of
// each other; otherwise it returns ok == false.
//
// A sample from the same wheel as the currently pending one is ignored
// without disturbing the pending sample — this preserves pairing across
// a duplicate read from one side (see DESIGN.md).
func (d *Differential) Update(t time.Time, which Wheel, value int32) (left, right int32, ok bool) {
	if which != Left && which != Right {
		return 0, 0, false
	}
	if which == d.lastWhich {
		return 0, 0, false
	}

	if d.lastWhich == none || t.After(d.deadline) {
		d.lastWhich = which
		d.lastValue = value
		d.deadline = t.Add(pairTimeout)
		return 0, 0, false
	}

	prev := d.memory
	if which == Left {
		d.memory = [2]int32{value, d.lastValue}
	} else {
		d.memory = [2]int32{d.lastValue, value}
	}
	d.lastWhich = none

	if !d.initialized {
		d.initialized = true
		return 0, 0, false
	}
	return d.memory[0] - prev[0], d.memory[1] - prev[1], true
}
