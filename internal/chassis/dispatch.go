package chassis

import (
	"math"
	"time"

	"github.com/autolaborcenter/pm1-driver/internal/autocan"
	"github.com/autolaborcenter/pm1-driver/internal/kinematics"
	"github.com/autolaborcenter/pm1-driver/internal/odometry"
)

// Dispatch feeds one parsed Message, received at wall-clock time now,
// through the chassis state machine. It returns an Event and ok==true
// if the dispatch produced one worth reporting upward.
func (s *State) Dispatch(now time.Time, msg autocan.Message) (Event, bool) {
	switch msg.MsgType() {
	case autocan.Stop:
		s.onRemotePad(now)
		return nil, false
	case autocan.State:
		s.setNodeState(msg.NodeType(), msg.NodeIndex(), msg.Reader().ReadU8())
		return nil, false
	}
	if msg.MsgType() >= 0x80 {
		return nil, false
	}

	switch msg.NodeType() {
	case autocan.VCU:
		return s.dispatchVCU(msg)
	case autocan.ECU:
		return s.dispatchECU(now, msg)
	case autocan.TCU:
		return s.dispatchTCU(now, msg)
	default:
		return nil, false
	}
}

// onRemotePad records a remote-pad indication: control from this host
// is suppressed for PadControlWindow, and any outstanding target is
// cleared as if it had already gone stale.
func (s *State) onRemotePad(now time.Time) {
	s.mu.Lock()
	s.usingPad = now
	s.mu.Unlock()
	s.setTargetLocked(target{deadline: now, physical: kinematics.Released})
}

func (s *State) dispatchVCU(msg autocan.Message) (Event, bool) {
	switch msg.MsgType() {
	case autocan.VCUBatteryPercent:
		if !msg.DataField() {
			return nil, false
		}
		v := msg.Reader().ReadU8()
		s.mu.Lock()
		changed := v != s.batteryPercent
		s.batteryPercent = v
		s.mu.Unlock()
		if changed {
			return Battery{Percent: v}, true
		}
		return nil, false
	case autocan.VCUPowerSwitch:
		if !msg.DataField() {
			return nil, false
		}
		v := msg.Reader().ReadU8() > 0
		s.mu.Lock()
		changed := v != s.powerSwitch
		s.powerSwitch = v
		s.mu.Unlock()
		if changed {
			return PowerSwitch{On: v}, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func (s *State) dispatchECU(now time.Time, msg autocan.Message) (Event, bool) {
	switch msg.MsgType() {
	case autocan.ECUTargetSpeed:
		s.onRemotePad(now)
		return nil, false
	case autocan.ECUCurrentPosition:
		if !msg.DataField() {
			return nil, false
		}
		which := odometry.Wheel(msg.NodeIndex())
		value := msg.Reader().ReadI32()
		dl, dr, ok := s.diff.Update(now, which, value)
		if !ok {
			return nil, false
		}
		leftRad := s.model.PulsesToRad(kinematics.Wheel, dl)
		rightRad := s.model.PulsesToRad(kinematics.Wheel, dr)
		ds, dtheta := s.model.WheelsRadToDelta(leftRad, rightRad)
		s.mu.Lock()
		s.pose = s.pose.Compose(odometry.DeltaPose(ds, dtheta))
		s.mu.Unlock()
		return Wheels{Left: leftRad, Right: rightRad}, true
	default:
		return nil, false
	}
}

func (s *State) dispatchTCU(now time.Time, msg autocan.Message) (Event, bool) {
	switch msg.MsgType() {
	case autocan.TCUTargetPosition:
		s.onRemotePad(now)
		return nil, false
	case autocan.TCUCurrentPosition:
		if !msg.DataField() {
			// VCU -> TCU query: also a remote-pad indication.
			s.onRemotePad(now)
			return nil, false
		}
		pulses := int32(msg.Reader().ReadI16())
		rudder := clampRudder(s.model.PulsesToRad(kinematics.Rudder, pulses))

		s.mu.Lock()
		previous := s.current
		s.current.Rudder = rudder
		s.mu.Unlock()

		s.mu.RLock()
		padExpired := now.After(s.usingPad.Add(PadControlWindow))
		s.mu.RUnlock()

		if padExpired {
			s.runControlLaw(now)
		}

		s.mu.RLock()
		changed := s.current != previous
		current := s.current
		s.mu.RUnlock()
		if changed {
			return Physical{Value: current}, true
		}
		return nil, false
	default:
		return nil, false
	}
}

const halfPi = math.Pi / 2

func clampRudder(r float32) float32 {
	switch {
	case r > halfPi:
		return halfPi
	case r < -halfPi:
		return -halfPi
	default:
		return r
	}
}
