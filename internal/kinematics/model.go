package kinematics

import "math"

// Model converts between the chassis-frame (speed, rudder) command and
// the individual wheel/rudder motor domains: angular wheel speeds for
// drive, and encoder pulses for both drive wheels and the rudder motor.
type Model interface {
	// PhysicalToWheels derives the left/right drive wheel angular
	// speeds (rad/s) that realize p on this chassis's geometry.
	PhysicalToWheels(p Physical) Wheels
	// WheelsRadToDelta converts a pair of wheel rotation deltas
	// (radians) accumulated over one odometry tick into a scalar arc
	// length and heading change.
	WheelsRadToDelta(dlRad, drRad float32) (ds, dtheta float32)
	// PulsesToRad converts raw encoder/motor pulses to radians for the
	// named motor.
	PulsesToRad(m Motor, pulses int32) float32
	// RadToPulses converts radians to raw motor pulses for the named
	// motor.
	RadToPulses(m Motor, rad float32) int32
}

// ChassisModel is the default Model: a differential-front chassis
// (two independently driven front wheels) with a single, passively
// steered rear wheel whose angle is the rudder.
type ChassisModel struct {
	WheelRadius        float32 // m
	TrackWidth         float32 // m, distance between the two front wheels
	Wheelbase          float32 // m, distance from front axle to rear wheel
	WheelPulsesPerRev  int32
	RudderPulsesPerRev int32
}

// DefaultChassisModel returns the dimensions used by the reference PM1
// chassis.
func DefaultChassisModel() ChassisModel {
	return ChassisModel{
		WheelRadius:        0.0825,
		TrackWidth:         0.49,
		Wheelbase:          0.62,
		WheelPulsesPerRev:  4096,
		RudderPulsesPerRev: 4096,
	}
}

// PhysicalToWheels implements Ackermann-style inverse kinematics for a
// rear-steered tricycle: the rudder angle and wheelbase determine a
// turning radius about which the two front wheels must travel at
// slightly different speeds to avoid scrubbing.
func (m ChassisModel) PhysicalToWheels(p Physical) Wheels {
	if nearZero(p.Rudder) {
		w := p.Speed / m.WheelRadius
		return Wheels{Left: w, Right: w}
	}

	turnRadius := m.Wheelbase / float32(math.Tan(float64(p.Rudder)))
	halfTrack := m.TrackWidth / 2

	left := p.Speed * (turnRadius - halfTrack) / turnRadius
	right := p.Speed * (turnRadius + halfTrack) / turnRadius

	return Wheels{
		Left:  left / m.WheelRadius,
		Right: right / m.WheelRadius,
	}
}

// WheelsRadToDelta converts a wheel rotation delta pair into the scalar
// arc length and heading change of the chassis centerline, treating the
// two front wheels as a differential pair separated by TrackWidth.
func (m ChassisModel) WheelsRadToDelta(dlRad, drRad float32) (ds, dtheta float32) {
	dl := dlRad * m.WheelRadius
	dr := drRad * m.WheelRadius
	ds = (dl + dr) / 2
	dtheta = (dr - dl) / m.TrackWidth
	return ds, dtheta
}

func (m ChassisModel) PulsesToRad(motor Motor, pulses int32) float32 {
	ppr := m.pulsesPerRev(motor)
	return float32(pulses) * (2 * math.Pi) / float32(ppr)
}

func (m ChassisModel) RadToPulses(motor Motor, rad float32) int32 {
	ppr := m.pulsesPerRev(motor)
	return int32(rad * float32(ppr) / (2 * math.Pi))
}

func (m ChassisModel) pulsesPerRev(motor Motor) int32 {
	if motor == Rudder {
		return m.RudderPulsesPerRev
	}
	return m.WheelPulsesPerRev
}

func nearZero(v float32) bool {
	return v > -1e-4 && v < 1e-4
}
