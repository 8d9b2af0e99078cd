package autocan

// BufferCapacity is the fixed capacity of a FrameBuffer: two max-size
// frames plus room for a partial third.
const BufferCapacity = 32

// FrameBuffer turns a byte stream pumped in via Fill into a sequence of
// validated Messages. It never allocates past its fixed capacity and
// never reorders bytes: the unconsumed prefix always starts at index 0.
type FrameBuffer struct {
	buf    [BufferCapacity]byte
	cursor int
}

// Free returns the writable tail of the buffer — the slice a serial read
// should be issued into.
func (f *FrameBuffer) Free() []byte {
	return f.buf[f.cursor:]
}

// Fill records that n bytes were written into the slice returned by the
// most recent call to Free.
func (f *FrameBuffer) Fill(n int) {
	f.cursor += n
}

// Next runs the frame resynchronization state machine described in the
// AutoCAN spec: scan for the sync byte, determine the expected frame
// length from the data_field bit, validate the CRC, and either return a
// decoded Message (advancing past it) or compact the buffer and return
// false so a subsequent Fill can complete the frame.
//
// On CRC mismatch the scan resumes one byte past the rejected sync byte,
// so a single corrupted frame never swallows a subsequent valid one.
func (f *FrameBuffer) Next() (Message, bool) {
	start := 0
	for {
		for start < f.cursor && f.buf[start] != Sync {
			start++
		}
		if f.cursor-start < HeaderOnlyLen {
			f.compact(start)
			return Message{}, false
		}

		length := HeaderOnlyLen
		if f.buf[start+1]&0x20 != 0 {
			length = DataLen
		}
		if f.cursor-start < length {
			f.compact(start)
			return Message{}, false
		}

		if f.buf[start+length-1] == crc8(f.buf[start+1:start+length-1]) {
			var m Message
			copy(m[:length], f.buf[start:start+length])
			f.compact(start + length)
			return m, true
		}
		start++
	}
}

// compact drops everything before upTo from the buffer, shifting the
// remainder to index 0.
func (f *FrameBuffer) compact(upTo int) {
	n := copy(f.buf[:], f.buf[upTo:f.cursor])
	f.cursor = n
}

