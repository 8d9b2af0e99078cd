package autocan

import "testing"

func TestFrameBufferResyncAfterBadCRC(t *testing.T) {
	good := NewMessage(0, 0, 0x10, 1, 0x01)
	corrupt := good
	corrupt[HeaderOnlyLen-1] = good[HeaderOnlyLen-1] ^ 0xFF // flip the CRC byte

	var fb FrameBuffer
	// A spurious extra sync byte precedes the corrupted candidate frame,
	// followed immediately by a valid frame — the resync scan must
	// reject the corrupted candidate and recover the valid one without
	// losing it. The spurious sync is followed by another 0xFE, whose
	// data_field bit makes it a 14-byte candidate, so one trailing
	// non-sync byte is needed before that candidate can be checked and
	// rejected instead of waited on.
	stream := append([]byte{Sync}, corrupt[:HeaderOnlyLen]...)
	stream = append(stream, good[:HeaderOnlyLen]...)
	stream = append(stream, 0x00)

	n := copy(fb.Free(), stream)
	fb.Fill(n)

	msg, ok := fb.Next()
	if !ok {
		t.Fatal("expected one valid message to be recovered")
	}
	if msg.NodeType() != 0x10 || msg.NodeIndex() != 1 || msg.MsgType() != 0x01 {
		t.Fatalf("recovered message mismatch: nodeType=%#x nodeIndex=%d msgType=%#x",
			msg.NodeType(), msg.NodeIndex(), msg.MsgType())
	}

	if _, ok := fb.Next(); ok {
		t.Fatal("expected no further messages")
	}
}

func TestFrameBufferPartialFrameWaitsForMoreBytes(t *testing.T) {
	good := NewMessage(0, 0, 0x12, 0, 0x03)

	var fb FrameBuffer
	n := copy(fb.Free(), good[:HeaderOnlyLen-2])
	fb.Fill(n)

	if _, ok := fb.Next(); ok {
		t.Fatal("expected no message from a partial frame")
	}

	n = copy(fb.Free(), good[HeaderOnlyLen-2:HeaderOnlyLen])
	fb.Fill(n)

	msg, ok := fb.Next()
	if !ok {
		t.Fatal("expected the completed frame to parse")
	}
	if msg.MsgType() != 0x03 {
		t.Fatalf("MsgType() = %#x, want 0x03", msg.MsgType())
	}
}

func TestFrameBufferDataFrameRoundTrip(t *testing.T) {
	good := WithPayload(3, 3, 0x11, 0, 0x01, func(w *PayloadWriter) {
		w.WriteI32(12345)
	})

	var fb FrameBuffer
	n := copy(fb.Free(), good[:])
	fb.Fill(n)

	msg, ok := fb.Next()
	if !ok {
		t.Fatal("expected data frame to parse")
	}
	if got := msg.Reader().ReadI32(); got != 12345 {
		t.Fatalf("ReadI32() = %d, want 12345", got)
	}
}

func TestFrameBufferGarbageToleranceInvariant(t *testing.T) {
	good := NewMessage(1, 2, 0x12, 3, 0x06)

	cases := [][]byte{
		good[:HeaderOnlyLen],
		append([]byte{0x01, 0x02, 0x03}, good[:HeaderOnlyLen]...),
		append([]byte{0xAA, 0xBB}, good[:HeaderOnlyLen]...),
	}

	for i, stream := range cases {
		var fb FrameBuffer
		n := copy(fb.Free(), stream)
		fb.Fill(n)

		msg, ok := fb.Next()
		if !ok {
			t.Fatalf("case %d: expected a message despite leading garbage", i)
		}
		if msg != good {
			t.Fatalf("case %d: recovered message differs from the garbage-free parse", i)
		}
	}
}

func TestFrameBufferSingleCorruptByteLosesAtMostOneFrame(t *testing.T) {
	first := NewMessage(0, 0, 0x10, 0, 0x01)
	second := NewMessage(0, 0, 0x11, 0, 0x06)

	corruptFirst := first
	corruptFirst[3] ^= 0xFF // corrupt a payload-adjacent byte inside the frame

	var fb FrameBuffer
	stream := append(append([]byte{}, corruptFirst[:HeaderOnlyLen]...), second[:HeaderOnlyLen]...)
	n := copy(fb.Free(), stream)
	fb.Fill(n)

	// The corrupted first frame is dropped entirely (CRC mismatch, resync
	// consumes it byte by byte); only the second, valid frame recovers.
	msg, ok := fb.Next()
	if !ok {
		t.Fatal("expected the second valid frame to recover")
	}
	if msg != second {
		t.Fatalf("recovered message = %+v, want %+v", msg, second)
	}
	if _, ok := fb.Next(); ok {
		t.Fatal("expected no further messages")
	}
}
