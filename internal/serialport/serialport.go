// Package serialport wraps go.bug.st/serial into the narrow Port
// abstraction the chassis driver needs: open/configure, a timed read,
// and a write safe to call concurrently from the reader and pacemaker
// goroutines.
package serialport

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

// ReadTimeout is the serial-layer receive timeout used per read, named
// distinctly from the driver's higher-level parse-timeout.
const ReadTimeout = 200 * time.Millisecond

// Port is an open AutoCAN serial link. Read is only ever called from
// one goroutine (the reader); Write may be called concurrently from
// both the reader and the pacemaker and is internally serialized.
type Port struct {
	path string
	baud int
	raw  serial.Port

	writeMu sync.Mutex
}

// Open opens path at baud 8N1 and sets the read timeout.
func Open(path string, baud int) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	raw, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", path, err)
	}
	if err := raw.SetReadTimeout(ReadTimeout); err != nil {
		raw.Close()
		return nil, fmt.Errorf("serialport: set read timeout on %s: %w", path, err)
	}
	return &Port{path: path, baud: baud, raw: raw}, nil
}

// Path returns the device path this Port was opened on.
func (p *Port) Path() string { return p.path }

// Read blocks until at least one byte arrives or ReadTimeout elapses,
// per go.bug.st/serial's semantics: a timeout returns (0, nil), not an
// error.
func (p *Port) Read(buf []byte) (int, error) {
	return p.raw.Read(buf)
}

// Write serializes concurrent writers (the reader's control-law replies
// and the pacemaker's queries) at the OS call boundary.
func (p *Port) Write(buf []byte) (int, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.raw.Write(buf)
}

// Close releases the underlying OS handle.
func (p *Port) Close() error {
	return p.raw.Close()
}
