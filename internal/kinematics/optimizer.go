package kinematics

// Optimizer bounds a raw target speed against the chassis's physical
// limits before it is handed to Model.PhysicalToWheels, so a sudden
// setpoint change turns into a ramp rather than a step.
type Optimizer interface {
	// OptimizeSpeed returns the speed component the chassis should
	// command this control tick given where it wants to end up
	// (target) and where it is now (current).
	OptimizeSpeed(target, current Physical) float32
}

// RampOptimizer enforces a maximum acceleration, a (larger) maximum
// deceleration when the rudder is also changing, and a fixed control
// period, clamping the per-tick speed change to whichever bound
// applies.
type RampOptimizer struct {
	MaxAcceleration float32 // m/s^2, used whenever |target| > |current|
	MaxDeceleration float32 // m/s^2, used when slowing while steering
	PeriodSeconds   float32 // control tick length
}

// DefaultRampOptimizer matches the reference PM1 tuning: 0.5 m/s^2
// acceleration, 1.2 m/s^2 deceleration while steering, 40ms control
// period.
func DefaultRampOptimizer() RampOptimizer {
	return RampOptimizer{
		MaxAcceleration: 0.5,
		MaxDeceleration: 1.2,
		PeriodSeconds:   0.040,
	}
}

func (o RampOptimizer) OptimizeSpeed(target, current Physical) float32 {
	delta := target.Speed - current.Speed
	if delta == 0 {
		return current.Speed
	}

	accelerating := absf32(target.Speed) > absf32(current.Speed)
	steering := target.Rudder != current.Rudder && !(isNaN(target.Rudder) && isNaN(current.Rudder))

	bound := o.MaxAcceleration
	if !accelerating && steering {
		bound = o.MaxDeceleration
	}

	maxStep := bound * o.PeriodSeconds
	if delta > maxStep {
		delta = maxStep
	} else if delta < -maxStep {
		delta = -maxStep
	}
	return current.Speed + delta
}

func absf32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func isNaN(v float32) bool {
	return v != v
}
