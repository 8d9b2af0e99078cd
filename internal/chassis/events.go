package chassis

import "github.com/autolaborcenter/pm1-driver/internal/kinematics"

// Event is one of Battery, PowerSwitch, Wheels, or Physical — the
// upward notifications the chassis state machine produces while
// dispatching an incoming Message. A dispatch that changes nothing
// observable produces no event.
type Event interface{ isEvent() }

// Battery reports a changed battery percentage (0..=100).
type Battery struct{ Percent uint8 }

// PowerSwitch reports a changed remote power-switch (armed) state.
type PowerSwitch struct{ On bool }

// Wheels reports a new differential odometry tick pair, converted to
// wheel radians.
type Wheels struct{ Left, Right float32 }

// Physical reports a changed chassis-frame (speed, rudder) state,
// emitted after a rudder sample (and the control law, when the pad
// lockout lets it run) changed it.
type Physical struct{ Value kinematics.Physical }

func (Battery) isEvent()     {}
func (PowerSwitch) isEvent() {}
func (Wheels) isEvent()      {}
func (Physical) isEvent()    {}
