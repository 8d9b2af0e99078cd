// Package kinematics provides the chassis's external kinematic
// collaborators: the wheel<->physical transform model, the
// acceleration/deceleration-bounded speed optimizer, and a trajectory
// predictor built from the two. Per the driver spec these are treated
// as named interfaces the chassis state machine depends on; this
// package supplies the concrete default used by the rest of the module.
package kinematics

import "math"

// Physical is a (speed m/s, rudder rad) command or feedback pair — the
// chassis-frame unit used throughout the driver.
type Physical struct {
	Speed  float32 `json:"speed"`
	Rudder float32 `json:"rudder"`
}

// Released is the "no active command" sentinel: zero speed, rudder held
// at whatever the chassis currently reports (NaN means "keep current").
var Released = Physical{Speed: 0, Rudder: float32(math.NaN())}

// Zero is the all-stop, rudder-centered command.
var Zero = Physical{Speed: 0, Rudder: 0}

// Wheels holds the independent left/right wheel angular speeds (rad/s)
// that realize a Physical command on a differential-front chassis.
type Wheels struct {
	Left, Right float32
}

// Motor identifies which motor a pulse<->radian conversion applies to:
// the two drive wheels share one conversion, the rudder uses another.
type Motor uint8

const (
	Wheel Motor = iota
	Rudder
)
