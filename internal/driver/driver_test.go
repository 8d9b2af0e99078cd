package driver

import (
	"errors"
	"testing"

	"github.com/autolaborcenter/pm1-driver/internal/autocan"
	"github.com/autolaborcenter/pm1-driver/internal/chassis"
	"github.com/autolaborcenter/pm1-driver/internal/kinematics"
)

type fakeReader struct {
	chunks [][]byte
	i      int
	err    error
}

func (f *fakeReader) Read(buf []byte) (int, error) {
	if f.i >= len(f.chunks) {
		if f.err != nil {
			return 0, f.err
		}
		return 0, nil
	}
	n := copy(buf, f.chunks[f.i])
	f.i++
	return n, nil
}

type nullPort struct{}

func (nullPort) Write(p []byte) (int, error) { return len(p), nil }

func newState() *chassis.State {
	return chassis.New(nullPort{}, kinematics.DefaultChassisModel(), kinematics.DefaultRampOptimizer())
}

func TestJoinDispatchesDecodedMessageAndHonorsCallbackStop(t *testing.T) {
	msg := autocan.WithPayload(0, 0, autocan.VCU, 0, autocan.VCUBatteryPercent,
		func(w *autocan.PayloadWriter) { w.WriteU8(42) })

	r := &fakeReader{chunks: [][]byte{msg.Bytes()}}
	s := newState()

	calls := 0
	clean := Join(r, s, func(state *chassis.State, ev chassis.Event, ok bool) bool {
		calls++
		if !ok {
			t.Fatal("expected a Battery event from the decoded message")
		}
		if b, isBattery := ev.(chassis.Battery); !isBattery || b.Percent != 42 {
			t.Fatalf("event = %#v, want Battery{42}", ev)
		}
		return false // request clean exit
	})
	if !clean {
		t.Fatal("Join should report a clean exit when the callback returns false")
	}
	if calls != 1 {
		t.Fatalf("callback invoked %d times, want 1", calls)
	}
}

func TestJoinDisconnectsOnReadError(t *testing.T) {
	r := &fakeReader{err: errors.New("device gone")}
	s := newState()

	clean := Join(r, s, func(state *chassis.State, ev chassis.Event, ok bool) bool {
		t.Fatal("callback should never run when every read errors immediately")
		return true
	})
	if clean {
		t.Fatal("Join should report a disconnect (false) on a read error")
	}
}

// TestJoinDisconnectsOnParseTimeoutAfterIdleReads exercises the
// resolved read-timeout-vs-disconnect ambiguity (see DESIGN.md): a
// reader that keeps returning (0, nil), the same outcome go.bug.st/serial
// reports on every timed-out read, must not disconnect Join on the
// first such read. It must only disconnect once ParseTimeout has
// elapsed with no valid frame decoded.
func TestJoinDisconnectsOnParseTimeoutAfterIdleReads(t *testing.T) {
	r := &fakeReader{} // chunks == nil, err == nil: Read always returns (0, nil)
	s := newState()

	calls := 0
	clean := Join(r, s, func(state *chassis.State, ev chassis.Event, ok bool) bool {
		calls++
		return true
	})
	if clean {
		t.Fatal("Join should report a disconnect (false) once ParseTimeout elapses")
	}
	if calls != 0 {
		t.Fatalf("callback invoked %d times, want 0 (no frame ever decoded)", calls)
	}
}
