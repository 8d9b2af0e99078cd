package chassis

import (
	"math"
	"time"

	"github.com/autolaborcenter/pm1-driver/internal/autocan"
	"github.com/autolaborcenter/pm1-driver/internal/kinematics"
)

// runControlLaw resolves the current target against the pad/staleness
// gates, runs the optimizer and kinematic model, and writes the
// resulting reply frames to the port. It must only be called once the
// pad lockout has expired for the current rudder sample.
func (s *State) runControlLaw(now time.Time) {
	s.mu.RLock()
	current := s.current
	powerSwitch := s.powerSwitch
	s.mu.RUnlock()

	t := s.getTarget()

	var chosen kinematics.Physical
	var haveTarget bool

	switch {
	case !now.Before(t.deadline):
		if current.Speed == 0 {
			haveTarget = false
		} else {
			chosen, haveTarget = kinematics.Released, true
		}
	case !powerSwitch:
		s.setTargetLocked(target{deadline: now, physical: kinematics.Released})
		haveTarget = false
	default:
		chosen, haveTarget = t.physical, true
	}

	if !haveTarget {
		return
	}

	if isNaNf32(chosen.Rudder) {
		chosen.Rudder = current.Rudder
	}
	chosen.Speed = s.opt.OptimizeSpeed(chosen, current)
	current.Speed = chosen.Speed

	s.mu.Lock()
	s.current = current
	s.mu.Unlock()

	wheels := s.model.PhysicalToWheels(current)
	s.writeReply(wheels, chosen.Rudder)
}

// writeReply builds and writes the reply batch: left/right target
// wheel speeds and the target rudder position, prepended with an
// unlock frame if any node is currently reporting locked (0xFF).
func (s *State) writeReply(wheels kinematics.Wheels, rudder float32) {
	var frames []autocan.Message

	if s.anyNodeLocked() {
		frames = append(frames, autocan.WithPayload(0, 3, autocan.EveryType, autocan.EveryIndex, autocan.Stop,
			func(w *autocan.PayloadWriter) { w.WriteU8(autocan.Stop) }))
	}

	leftPulses := s.model.RadToPulses(kinematics.Wheel, wheels.Left)
	rightPulses := s.model.RadToPulses(kinematics.Wheel, wheels.Right)
	rudderPulses := int16(s.model.RadToPulses(kinematics.Rudder, rudder))

	frames = append(frames,
		autocan.WithPayload(0, 3, autocan.ECU, 0, autocan.ECUTargetSpeed,
			func(w *autocan.PayloadWriter) { w.WriteI32(leftPulses) }),
		autocan.WithPayload(0, 3, autocan.ECU, 1, autocan.ECUTargetSpeed,
			func(w *autocan.PayloadWriter) { w.WriteI32(rightPulses) }),
		autocan.WithPayload(0, 3, autocan.TCU, 0, autocan.TCUTargetPosition,
			func(w *autocan.PayloadWriter) { w.WriteI16(rudderPulses) }),
	)

	buf := make([]byte, 0, len(frames)*autocan.DataLen)
	for i := range frames {
		buf = append(buf, frames[i].Bytes()...)
	}
	s.port.Write(buf)
}

func isNaNf32(v float32) bool {
	return math.IsNaN(float64(v))
}
