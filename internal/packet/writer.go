package packet

import (
	"encoding/binary"
	"math"
)

// Writer accumulates one packet's payload and serializes it into a
// length-prefixed frame. Multiple finalized packets are byte-concatenated
// for a single response body.
type Writer struct {
	id      ID
	payload []byte
}

// NewWriter creates a Writer for the given packet type.
func NewWriter(id ID) *Writer {
	return &Writer{id: id}
}

// WriteUint8 appends a single byte.
func (w *Writer) WriteUint8(v uint8) *Writer {
	w.payload = append(w.payload, v)
	return w
}

// WriteInt8 appends a signed byte.
func (w *Writer) WriteInt8(v int8) *Writer {
	return w.WriteUint8(uint8(v))
}

// WriteUint16 appends a little-endian uint16.
func (w *Writer) WriteUint16(v uint16) *Writer {
	w.payload = binary.LittleEndian.AppendUint16(w.payload, v)
	return w
}

// WriteInt16 appends a little-endian int16.
func (w *Writer) WriteInt16(v int16) *Writer {
	return w.WriteUint16(uint16(v))
}

// WriteUint32 appends a little-endian uint32.
func (w *Writer) WriteUint32(v uint32) *Writer {
	w.payload = binary.LittleEndian.AppendUint32(w.payload, v)
	return w
}

// WriteInt32 appends a little-endian int32.
func (w *Writer) WriteInt32(v int32) *Writer {
	return w.WriteUint32(uint32(v))
}

// WriteUint64 appends a little-endian uint64.
func (w *Writer) WriteUint64(v uint64) *Writer {
	w.payload = binary.LittleEndian.AppendUint64(w.payload, v)
	return w
}

// WriteInt64 appends a little-endian int64.
func (w *Writer) WriteInt64(v int64) *Writer {
	return w.WriteUint64(uint64(v))
}

// WriteFloat32 appends a little-endian IEEE 754 float32.
func (w *Writer) WriteFloat32(v float32) *Writer {
	return w.WriteUint32(math.Float32bits(v))
}

// WriteString appends an osu-string.
func (w *Writer) WriteString(s string) *Writer {
	w.payload = AppendString(w.payload, s)
	return w
}

// WriteIntList appends a u16-counted list of i32 values.
func (w *Writer) WriteIntList(list []int32) *Writer {
	w.payload = AppendIntList(w.payload, list)
	return w
}

// WriteBytes appends raw, already-encoded bytes.
func (w *Writer) WriteBytes(b []byte) *Writer {
	w.payload = append(w.payload, b...)
	return w
}

// Len returns the current payload size.
func (w *Writer) Len() int {
	return len(w.payload)
}

// Finalize emits the complete frame: packet id, a zero padding byte, the
// payload length, and the payload. Call exactly once per logical packet.
func (w *Writer) Finalize() []byte {
	frame := make([]byte, 0, HeaderSize+len(w.payload))
	frame = binary.LittleEndian.AppendUint16(frame, uint16(w.id))
	frame = append(frame, 0)
	frame = binary.LittleEndian.AppendUint32(frame, uint32(len(w.payload)))
	return append(frame, w.payload...)
}
