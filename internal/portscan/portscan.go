// Package portscan enumerates candidate serial ports and races them:
// each candidate gets its own chassis, reader, and pacemaker; the first
// to produce a valid AutoCAN message wins, and the rest are closed.
package portscan

import (
	"context"
	"log"
	"time"

	"go.bug.st/serial"

	"github.com/autolaborcenter/pm1-driver/internal/chassis"
	"github.com/autolaborcenter/pm1-driver/internal/driver"
	"github.com/autolaborcenter/pm1-driver/internal/kinematics"
	"github.com/autolaborcenter/pm1-driver/internal/pacemaker"
	"github.com/autolaborcenter/pm1-driver/internal/serialport"
)

// BaudRate is the fixed AutoCAN link speed.
const BaudRate = 115200

// Candidates lists the serial ports to race. An explicit non-empty
// list (e.g. from configuration) bypasses OS enumeration entirely.
func Candidates(explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	return ports, nil
}

// Result is a successfully opened and validated chassis connection.
type Result struct {
	Port    *serialport.Port
	Chassis *chassis.State
}

// Open opens every candidate path, starts a pacemaker+reader pair for
// each, and returns the first to produce a valid decoded message.
// Losing candidates are closed; the winner's pacemaker keeps running
// until a write to its port fails. One call is one open attempt: if no
// candidate succeeds within attemptTimeout (2s) or before ctx is done,
// Open returns a nil Result and the context's error.
func Open(ctx context.Context, candidates []string, model kinematics.Model, opt kinematics.Optimizer) (*Result, error) {
	const attemptTimeout = 2 * time.Second
	ctx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	winner := make(chan *Result, 1)
	done := make(chan struct{})
	defer close(done)

	for _, path := range candidates {
		path := path
		go func() {
			port, err := serialport.Open(path, BaudRate)
			if err != nil {
				log.Printf("[portscan] %s: open failed: %v", path, err)
				return
			}

			state := chassis.New(port, model, opt)
			pm, err := pacemaker.New(port)
			if err != nil {
				log.Printf("[portscan] %s: pacemaker init failed: %v", path, err)
				port.Close()
				return
			}
			lost := make(chan struct{})
			go pm.RunUntil(pacemakerDone(lost))

			found := make(chan struct{})
			go driver.Join(port, state, func(*chassis.State, chassis.Event, bool) bool {
				select {
				case <-found:
				default:
					close(found)
				}
				return false // one valid message is enough to declare a winner
			})

			select {
			case <-found:
				select {
				case winner <- &Result{Port: port, Chassis: state}:
				default:
					close(lost)
					port.Close()
				}
			case <-done:
				close(lost)
				port.Close()
			}
		}()
	}

	select {
	case r := <-winner:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func pacemakerDone(done <-chan struct{}) func() bool {
	return func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
}

// RetryForever opens candidates with exponential backoff (1s doubling
// to 60s) until one succeeds or ctx is cancelled, mirroring the
// driver's own connect-with-retry supervisor idiom.
func RetryForever(ctx context.Context, explicit []string, model kinematics.Model, opt kinematics.Optimizer) (*Result, error) {
	delay := time.Second
	const maxDelay = 60 * time.Second

	for {
		candidates, err := Candidates(explicit)
		if err != nil {
			log.Printf("[portscan] enumeration failed: %v", err)
		} else if len(candidates) > 0 {
			if r, err := Open(ctx, candidates, model, opt); err == nil {
				return r, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}
