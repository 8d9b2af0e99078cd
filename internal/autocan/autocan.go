// Package autocan implements the AutoCAN wire protocol used by the PM1
// chassis: a fixed-layout, CRC-8 framed byte protocol carried over the
// 115200 baud serial link.
package autocan

import "encoding/binary"

// Sync is the frame synchronization byte every Message begins with.
const Sync byte = 0xFE

// Frame lengths. A header-only frame carries no payload; a data frame
// carries an 8-byte big-endian payload between the header and its CRC.
const (
	HeaderOnlyLen = 6
	DataLen       = 14

	payloadOffset = 5
)

// Message is a fixed 14-byte AutoCAN frame buffer. Header-only frames use
// only the first 6 bytes; the remaining bytes are zero-padded and ignored.
type Message [DataLen]byte

// NewMessage builds a header-only (6-byte) Message: sync byte, packed
// header, and CRC-8 stamped immediately since there is no payload to wait
// for. Use WithPayload to build a 14-byte data frame instead.
func NewMessage(network uint8, priority uint8, nodeType, nodeIndex, msgType uint8) Message {
	var m Message
	encodeHeader(&m, network, false, priority, nodeType, nodeIndex, msgType)
	m[HeaderOnlyLen-1] = crc8(m[1 : HeaderOnlyLen-1])
	return m
}

// WithPayload builds a 14-byte data frame. fill is called with a
// PayloadWriter positioned at the start of the payload; the CRC is
// stamped unconditionally after fill returns (or after a panic unwinds
// through the deferred finalizer), so a caller can never produce a
// Message whose CRC wasn't computed over its final payload bytes.
func WithPayload(network uint8, priority uint8, nodeType, nodeIndex, msgType uint8, fill func(w *PayloadWriter)) (m Message) {
	encodeHeader(&m, network, true, priority, nodeType, nodeIndex, msgType)
	w := &PayloadWriter{msg: &m, cursor: payloadOffset}
	defer func() {
		m[DataLen-1] = crc8(m[1 : DataLen-1])
	}()
	if fill != nil {
		fill(w)
	}
	return m
}

func encodeHeader(m *Message, network uint8, dataField bool, priority uint8, nodeType, nodeIndex, msgType uint8) {
	h := EncodeHeader(network, dataField, priority, nodeType, nodeIndex, msgType)
	copy(m[:5], h[:])
}

// EncodeHeader packs the five header bytes (sync byte included) per the
// AutoCAN bit layout:
//
//	byte0       = sync (0xFE)
//	byte1[7:6]  = network
//	byte1[5]    = data_field
//	byte1[4:2]  = priority
//	byte1[1:0],byte2[7:4] = node_type (6 bits)
//	byte2[3:0]  = node_index
//	byte3       = msg_type
//	byte4       = reserved (0)
func EncodeHeader(network uint8, dataField bool, priority uint8, nodeType, nodeIndex, msgType uint8) [5]byte {
	var df uint8
	if dataField {
		df = 1 << 5
	}
	return [5]byte{
		Sync,
		(network << 6) | df | (priority << 2) | (nodeType >> 4),
		((nodeType & 0xF) << 4) | (nodeIndex & 0xF),
		msgType,
		0,
	}
}

// DataField reports whether this Message is a 14-byte data frame.
func (m Message) DataField() bool { return m[1]&0x20 != 0 }

// Network returns the 2-bit network field.
func (m Message) Network() uint8 { return m[1] >> 6 }

// Priority returns the 3-bit priority field.
func (m Message) Priority() uint8 { return (m[1] & 0b0001_1100) >> 2 }

// NodeType returns the 6-bit node type.
func (m Message) NodeType() uint8 { return ((m[1] & 0b11) << 4) | (m[2] >> 4) }

// NodeIndex returns the 4-bit node index.
func (m Message) NodeIndex() uint8 { return m[2] & 0xF }

// MsgType returns the message type byte.
func (m Message) MsgType() uint8 { return m[3] }

// Len returns the on-wire length of this frame: 6 or 14.
func (m Message) Len() int {
	if m.DataField() {
		return DataLen
	}
	return HeaderOnlyLen
}

// Bytes returns the on-wire slice for this frame (6 or 14 bytes).
func (m *Message) Bytes() []byte { return m[:m.Len()] }

// Reader returns a PayloadReader positioned at the start of this
// Message's payload. The caller is responsible for knowing the wire
// type associated with MsgType(); reads are unchecked at the type level.
func (m *Message) Reader() *PayloadReader {
	return &PayloadReader{msg: m, cursor: payloadOffset}
}

// PayloadWriter writes big-endian payload fields into a Message starting
// at byte 5, advancing its cursor after each write.
type PayloadWriter struct {
	msg    *Message
	cursor int
}

// WriteU8 writes a single payload byte.
func (w *PayloadWriter) WriteU8(v uint8) {
	w.msg[w.cursor] = v
	w.cursor++
}

// WriteI16 writes a big-endian 16-bit signed payload field.
func (w *PayloadWriter) WriteI16(v int16) {
	binary.BigEndian.PutUint16(w.msg[w.cursor:], uint16(v))
	w.cursor += 2
}

// WriteI32 writes a big-endian 32-bit signed payload field.
func (w *PayloadWriter) WriteI32(v int32) {
	binary.BigEndian.PutUint32(w.msg[w.cursor:], uint32(v))
	w.cursor += 4
}

// PayloadReader reads big-endian payload fields out of a Message.
type PayloadReader struct {
	msg    *Message
	cursor int
}

// ReadU8 reads a single payload byte.
func (r *PayloadReader) ReadU8() uint8 {
	v := r.msg[r.cursor]
	r.cursor++
	return v
}

// ReadI16 reads a big-endian 16-bit signed payload field.
func (r *PayloadReader) ReadI16() int16 {
	v := int16(binary.BigEndian.Uint16(r.msg[r.cursor:]))
	r.cursor += 2
	return v
}

// ReadI32 reads a big-endian 32-bit signed payload field.
func (r *PayloadReader) ReadI32() int32 {
	v := int32(binary.BigEndian.Uint32(r.msg[r.cursor:]))
	r.cursor += 4
	return v
}

func crc8(buf []byte) byte {
	var sum byte
	for _, b := range buf {
		sum = crc8Table[sum^b]
	}
	return sum
}

// crc8Table is the canonical CRC-8 lookup table used by the AutoCAN wire
// protocol. Any reimplementation must reproduce these exact 256 entries.
var crc8Table = [256]byte{
	0, 94, 188, 226, 97, 63, 221, 131, 194, 156, 126, 32,
	163, 253, 31, 65, 157, 195, 33, 127, 252, 162, 64, 30,
	95, 1, 227, 189, 62, 96, 130, 220, 35, 125, 159, 193,
	66, 28, 254, 160, 225, 191, 93, 3, 128, 222, 60, 98,
	190, 224, 2, 92, 223, 129, 99, 61, 124, 34, 192, 158,
	29, 67, 161, 255, 70, 24, 250, 164, 39, 121, 155, 197,
	132, 218, 56, 102, 229, 187, 89, 7, 219, 133, 103, 57,
	186, 228, 6, 88, 25, 71, 165, 251, 120, 38, 196, 154,
	101, 59, 217, 135, 4, 90, 184, 230, 167, 249, 27, 69,
	198, 152, 122, 36, 248, 166, 68, 26, 153, 199, 37, 123,
	58, 100, 134, 216, 91, 5, 231, 185, 140, 210, 48, 110,
	237, 179, 81, 15, 78, 16, 242, 172, 47, 113, 147, 205,
	17, 79, 173, 243, 112, 46, 204, 146, 211, 141, 111, 49,
	178, 236, 14, 80, 175, 241, 19, 77, 206, 144, 114, 44,
	109, 51, 209, 143, 12, 82, 176, 238, 50, 108, 142, 208,
	83, 13, 239, 177, 240, 174, 76, 18, 145, 207, 45, 115,
	202, 148, 118, 40, 171, 245, 23, 73, 8, 86, 180, 234,
	105, 55, 213, 139, 87, 9, 235, 181, 54, 104, 138, 212,
	149, 203, 41, 119, 244, 170, 72, 22, 233, 183, 85, 11,
	136, 214, 52, 106, 43, 117, 151, 201, 74, 20, 246, 168,
	116, 42, 200, 150, 21, 75, 169, 247, 182, 232, 10, 84,
	215, 137, 107, 53,
}
