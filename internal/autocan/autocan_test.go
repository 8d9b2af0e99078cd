package autocan

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	cases := []struct {
		network, priority, nodeType, nodeIndex, msgType uint8
		dataField                                       bool
	}{
		{0, 0, 0x10, 0, 0x01, false},
		{3, 5, 0x3F, 0xF, 0xFF, true},
		{1, 2, 0x12, 3, 0x06, false},
	}
	for _, c := range cases {
		m := NewMessage(c.network, c.priority, c.nodeType, c.nodeIndex, c.msgType)
		if c.dataField {
			m = WithPayload(c.network, c.priority, c.nodeType, c.nodeIndex, c.msgType, nil)
		}
		if got := m.Network(); got != c.network {
			t.Errorf("network: got %d want %d", got, c.network)
		}
		if got := m.Priority(); got != c.priority {
			t.Errorf("priority: got %d want %d", got, c.priority)
		}
		if got := m.NodeType(); got != c.nodeType {
			t.Errorf("nodeType: got %d want %d", got, c.nodeType)
		}
		if got := m.NodeIndex(); got != c.nodeIndex {
			t.Errorf("nodeIndex: got %d want %d", got, c.nodeIndex)
		}
		if got := m.MsgType(); got != c.msgType {
			t.Errorf("msgType: got %d want %d", got, c.msgType)
		}
		if got := m.DataField(); got != c.dataField {
			t.Errorf("dataField: got %v want %v", got, c.dataField)
		}
	}
}

func TestWithPayloadSetsDataField(t *testing.T) {
	m := WithPayload(3, 3, 0x11, 0, 0x01, func(w *PayloadWriter) {
		w.WriteI32(1234)
	})
	if !m.DataField() {
		t.Fatal("WithPayload message should have DataField() == true")
	}
	if m.Len() != DataLen {
		t.Fatalf("Len() = %d, want %d", m.Len(), DataLen)
	}
}

func TestPayloadRoundTripU8(t *testing.T) {
	m := WithPayload(0, 0, 0x10, 0, 1, func(w *PayloadWriter) {
		w.WriteU8(75)
	})
	if got := m.Reader().ReadU8(); got != 75 {
		t.Fatalf("ReadU8() = %d, want 75", got)
	}
	// wire byte must be big-endian (trivially true for a single byte,
	// but check it landed at the payload offset).
	if m[payloadOffset] != 75 {
		t.Fatalf("wire byte at payload offset = %d, want 75", m[payloadOffset])
	}
}

func TestPayloadRoundTripI16BigEndian(t *testing.T) {
	m := WithPayload(0, 0, 0x12, 0, 3, func(w *PayloadWriter) {
		w.WriteI16(0x0102)
	})
	if m[payloadOffset] != 0x01 || m[payloadOffset+1] != 0x02 {
		t.Fatalf("wire bytes = %02x %02x, want 01 02 (big-endian)", m[payloadOffset], m[payloadOffset+1])
	}
	if got := m.Reader().ReadI16(); got != 0x0102 {
		t.Fatalf("ReadI16() = %d, want %d", got, 0x0102)
	}
}

func TestPayloadRoundTripI32BigEndian(t *testing.T) {
	m := WithPayload(0, 0, 0x11, 1, 6, func(w *PayloadWriter) {
		w.WriteI32(-100)
	})
	if got := m.Reader().ReadI32(); got != -100 {
		t.Fatalf("ReadI32() = %d, want -100", got)
	}
}

func TestMessageBytesLength(t *testing.T) {
	h := NewMessage(0, 0, 0x10, 0, 1)
	if len(h.Bytes()) != HeaderOnlyLen {
		t.Fatalf("header-only Bytes() length = %d, want %d", len(h.Bytes()), HeaderOnlyLen)
	}
	d := WithPayload(0, 0, 0x10, 0, 1, func(w *PayloadWriter) { w.WriteU8(1) })
	if len(d.Bytes()) != DataLen {
		t.Fatalf("data Bytes() length = %d, want %d", len(d.Bytes()), DataLen)
	}
}
