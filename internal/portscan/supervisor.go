package portscan

import (
	"context"
	"time"

	"github.com/autolaborcenter/pm1-driver/internal/chassis"
	"github.com/autolaborcenter/pm1-driver/internal/driver"
	"github.com/autolaborcenter/pm1-driver/internal/kinematics"
)

// EventKind distinguishes the four supervisor event variants named in
// the driver's error-handling design: a chassis connected, it
// disconnected, a connect attempt failed outright, or a decoded
// chassis event arrived while connected.
type EventKind int

const (
	Connected EventKind = iota
	Disconnected
	ConnectFailed
	ChassisEvent
)

// SupervisorEvent is the single event type user code observes from
// Supervise. Chassis is populated for Connected, ChassisEvent and
// Disconnected; Inner only for ChassisEvent; Err only for ConnectFailed.
type SupervisorEvent struct {
	Kind    EventKind
	Time    time.Time
	Chassis *chassis.State
	Inner   chassis.Event
	Err     error
}

// SupervisorCallback is invoked for every SupervisorEvent. Returning
// false requests Supervise to stop.
type SupervisorCallback func(SupervisorEvent) bool

// Supervise opens candidates with backoff, reports Connected once a
// chassis is found, pumps its events through cb, and on disconnect
// loops back to reopening — until cb returns false or ctx is done.
func Supervise(ctx context.Context, explicit []string, model kinematics.Model, opt kinematics.Optimizer, cb SupervisorCallback) {
	delay := time.Second
	const maxDelay = 60 * time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		candidates, err := Candidates(explicit)
		if err != nil || len(candidates) == 0 {
			if err == nil {
				err = errNoCandidates
			}
			if !cb(SupervisorEvent{Kind: ConnectFailed, Time: time.Now(), Err: err}) {
				return
			}
			if !sleepOrDone(ctx, delay) {
				return
			}
			delay = backoff(delay, maxDelay)
			continue
		}

		result, err := Open(ctx, candidates, model, opt)
		if err != nil {
			if !cb(SupervisorEvent{Kind: ConnectFailed, Time: time.Now(), Err: err}) {
				return
			}
			if !sleepOrDone(ctx, delay) {
				return
			}
			delay = backoff(delay, maxDelay)
			continue
		}
		delay = time.Second

		if !cb(SupervisorEvent{Kind: Connected, Time: time.Now(), Chassis: result.Chassis}) {
			result.Port.Close()
			return
		}

		stopped := driver.Join(result.Port, result.Chassis, func(state *chassis.State, ev chassis.Event, ok bool) bool {
			if !ok {
				return true
			}
			return cb(SupervisorEvent{Kind: ChassisEvent, Time: time.Now(), Chassis: state, Inner: ev})
		})
		result.Port.Close()

		if stopped {
			return
		}
		if !cb(SupervisorEvent{Kind: Disconnected, Time: time.Now(), Chassis: result.Chassis}) {
			return
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func backoff(d, max time.Duration) time.Duration {
	d *= 2
	if d > max {
		return max
	}
	return d
}

type noCandidatesError struct{}

func (noCandidatesError) Error() string { return "no serial port candidates available" }

var errNoCandidates = noCandidatesError{}
