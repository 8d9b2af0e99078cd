// Package pacemaker implements the periodic query scheduler that keeps
// a connected PM1 chassis's telemetry fresh: a fixed-length buffer of
// preformatted query frames, written to the port on a decimated
// schedule so cheap, frequently-needed fields (rudder) are polled every
// tick while expensive or slow-changing ones (battery) are polled
// rarely.
package pacemaker

import (
	"sync"
	"time"

	"github.com/autolaborcenter/pm1-driver/internal/autocan"
)

// Period is the pacemaker's base tick length.
const Period = 40 * time.Millisecond

// queryFrameCount is the number of preformatted query frames, and
// queryBufferLen the resulting byte length of the full buffer.
const (
	queryFrameCount = 5
	queryBufferLen  = queryFrameCount * autocan.HeaderOnlyLen
)

var (
	queriesOnce sync.Once
	queries     [queryBufferLen]byte
)

// buildQueries lays out, in fixed order, the five query frames: rudder
// read-back, wheel encoders, node state/lock, power switch, battery.
// Computed once and reused for the process lifetime — the frames never
// change shape, only the schedule that decides how many of them to
// send.
func buildQueries() [queryBufferLen]byte {
	frames := [queryFrameCount]autocan.Message{
		autocan.NewMessage(0, 3, autocan.TCU, autocan.EveryIndex, autocan.TCUCurrentPosition),
		autocan.NewMessage(0, 3, autocan.ECU, autocan.EveryIndex, autocan.ECUCurrentPosition),
		autocan.NewMessage(0, 3, autocan.EveryType, autocan.EveryIndex, autocan.State),
		autocan.NewMessage(0, 3, autocan.VCU, autocan.EveryIndex, autocan.VCUPowerSwitch),
		autocan.NewMessage(0, 3, autocan.VCU, autocan.EveryIndex, autocan.VCUBatteryPercent),
	}

	var buf [queryBufferLen]byte
	for i, f := range frames {
		copy(buf[i*autocan.HeaderOnlyLen:], f.Bytes())
	}
	return buf
}

func queryBuffer() *[queryBufferLen]byte {
	queriesOnce.Do(func() { queries = buildQueries() })
	return &queries
}

// Port is the write side of the pacemaker's non-owning link to the
// chassis's serial connection. A write error or EOF is reported by
// returning a non-nil error, at which point the pacemaker stops.
type Port interface {
	Write(p []byte) (n int, err error)
}

// Pacemaker schedules and writes the decimated query cadence for one
// connected chassis. It is not safe for concurrent use by more than one
// goroutine — a chassis drives exactly one Pacemaker from one thread.
type Pacemaker struct {
	port Port
	next time.Time
	tick uint64
}

// New constructs a Pacemaker and eagerly sends the full 5-frame query
// batch so the first response round initializes every chassis field.
func New(port Port) (*Pacemaker, error) {
	p := &Pacemaker{port: port, next: time.Now()}
	if err := p.sendLen(queryFrameCount); err != nil {
		return nil, err
	}
	return p, nil
}

// Tick runs as many scheduled wake-ups as are due, coalescing any that
// were missed (a late wake sends the maximum implied length once,
// rather than replaying each missed tick), then sleeps the caller until
// the next one is due. Callers run this in a loop from a dedicated
// goroutine; it returns a non-nil error once a write to the port fails,
// at which point the loop should terminate.
func (p *Pacemaker) Tick() error {
	now := time.Now()
	length := 0
	for !p.next.After(now) {
		p.next = p.next.Add(Period)
		p.tick++
		length = nextLen(length, p.tick)
	}
	if err := p.sendLen(length); err != nil {
		return err
	}

	if sleep := time.Until(p.next); sleep > 0 {
		time.Sleep(sleep)
	}
	return nil
}

// nextLen computes the decimated schedule length for one tick, folded
// against a length already owed by earlier missed ticks in the same
// coalesced wake-up (the schedule only ever grows within one Tick
// call).
func nextLen(owed int, tick uint64) int {
	switch {
	case owed == queryFrameCount:
		return owed
	case tick%250 == 0:
		return queryFrameCount
	case owed == 4:
		return owed
	case tick%10 == 0:
		return 4
	case owed == 2:
		return owed
	case tick%2 == 0:
		return 2
	default:
		if owed == 0 {
			return 1
		}
		return owed
	}
}

// RunUntil loops Tick until either a write fails (the chassis's port
// died) or stop reports true, checked between ticks. Intended to run on
// its own goroutine, one per connected chassis.
func (p *Pacemaker) RunUntil(stop func() bool) {
	for !stop() {
		if err := p.Tick(); err != nil {
			return
		}
	}
}

func (p *Pacemaker) sendLen(length int) error {
	if length <= 0 {
		return nil
	}
	buf := queryBuffer()
	_, err := p.port.Write(buf[:autocan.HeaderOnlyLen*length])
	return err
}
