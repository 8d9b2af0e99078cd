// Package chassis implements the PM1 chassis state machine: it
// consumes parsed AutoCAN messages, maintains battery/power-switch/
// odometry/target state, applies the safety-gated control law, and
// emits reply frames plus upward Events.
package chassis

import (
	"sync"
	"time"

	"github.com/autolaborcenter/pm1-driver/internal/autocan"
	"github.com/autolaborcenter/pm1-driver/internal/kinematics"
	"github.com/autolaborcenter/pm1-driver/internal/odometry"
)

// TargetMemoryWindow is the freshness window for accepted commands:
// set_target/drive calls older than this are treated as stale
// regardless of wall-clock skew.
const TargetMemoryWindow = 200 * time.Millisecond

// PadControlWindow is how long host control is suppressed after the
// last observed remote-pad indication.
const PadControlWindow = 200 * time.Millisecond

// Port is the chassis's write side of the serial link. Writes from the
// reader goroutine (control law replies) and from pacemaker share one
// port and must serialize at that layer.
type Port interface {
	Write(p []byte) (n int, err error)
}

type nodeKey struct {
	nodeType, nodeIndex uint8
}

type target struct {
	deadline time.Time
	physical kinematics.Physical
}

// Snapshot is an immutable, thread-safe copy of the chassis's
// externally-visible status, returned by State.Snapshot.
type Snapshot struct {
	BatteryPercent uint8               `json:"batteryPercent"`
	PowerSwitch    bool                `json:"powerSwitch"`
	Physical       kinematics.Physical `json:"physical"`
	Pose           odometry.Pose       `json:"pose"`
}

// State is one connected chassis's live state machine. A State is
// driven by exactly one reader goroutine (Dispatch) and read from any
// number of goroutines via Snapshot; SetTarget/Drive may be called from
// any goroutine.
type State struct {
	port  Port
	model kinematics.Model
	opt   kinematics.Optimizer

	diff *odometry.Differential

	targetMu sync.Mutex
	target   target

	mu             sync.RWMutex
	batteryPercent uint8
	powerSwitch    bool
	current        kinematics.Physical
	pose           odometry.Pose
	nodeStates     map[nodeKey]uint8

	usingPad time.Time
}

// New constructs a State with zeroed counters, power_switch disarmed,
// rudder at the RELEASED sentinel, and an already-expired target.
func New(port Port, model kinematics.Model, opt kinematics.Optimizer) *State {
	now := time.Now()
	return &State{
		port:       port,
		model:      model,
		opt:        opt,
		diff:       odometry.NewDifferential(),
		nodeStates: make(map[nodeKey]uint8),
		current:    kinematics.Released,
		target:     target{deadline: now, physical: kinematics.Released},
		usingPad:   now,
	}
}

// Snapshot returns a point-in-time copy of the chassis's externally
// visible status.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		BatteryPercent: s.batteryPercent,
		PowerSwitch:    s.powerSwitch,
		Physical:       s.current,
		Pose:           s.pose,
	}
}

// SetTarget accepts a new commanded (speed, rudder) pair, valid for
// TargetMemoryWindow from now.
func (s *State) SetTarget(p kinematics.Physical) {
	s.targetMu.Lock()
	s.target = target{deadline: time.Now().Add(TargetMemoryWindow), physical: p}
	s.targetMu.Unlock()
}

// Drive is equivalent to SetTarget — both accept a command with the
// same freshness window; the name mirrors the two egress entry points
// named in the driver's external interface.
func (s *State) Drive(p kinematics.Physical) {
	s.SetTarget(p)
}

func (s *State) getTarget() target {
	s.targetMu.Lock()
	defer s.targetMu.Unlock()
	return s.target
}

func (s *State) setTargetLocked(t target) {
	s.targetMu.Lock()
	s.target = t
	s.targetMu.Unlock()
}

func (s *State) setNodeState(nt, ni, v uint8) {
	s.mu.Lock()
	s.nodeStates[nodeKey{nt, ni}] = v
	s.mu.Unlock()
}

func (s *State) anyNodeLocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.nodeStates {
		if v == autocan.Stop {
			return true
		}
	}
	return false
}
