package kinematics

// Step is one predicted tick of a trajectory: the optimizer-bounded
// command that would be in effect, and the arc length / heading change
// it produces over one control period.
type Step struct {
	Physical   Physical
	DS, DTheta float32
}

// NewTrajectory returns a closure that lazily advances a simulated
// chassis toward target, one control period at a time, starting from
// start. Each call advances and returns the next Step; the closure
// carries its own state, so nothing is computed until it is actually
// called. Callers fold DS/DTheta through their own pose accumulator to
// build a predicted path.
func NewTrajectory(model Model, opt Optimizer, start, target Physical, period float32) func() Step {
	current := start
	return func() Step {
		next := Physical{
			Speed:  opt.OptimizeSpeed(target, current),
			Rudder: target.Rudder,
		}
		wheels := model.PhysicalToWheels(next)
		ds, dtheta := model.WheelsRadToDelta(wheels.Left*period, wheels.Right*period)
		current = next
		return Step{Physical: next, DS: ds, DTheta: dtheta}
	}
}
