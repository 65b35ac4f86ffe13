package packet

import (
	"encoding/binary"
	"math"
)

// Reader is a forward-only cursor over one inbound request body. All reads
// consume from the current offset; a read past the end of the buffer returns
// ErrShortBuffer and leaves the offset unchanged.
type Reader struct {
	buf    []byte
	offset int
}

// NewReader creates a Reader over the full inbound byte sequence.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Empty reports whether the buffer is exhausted.
func (r *Reader) Empty() bool {
	return r.offset >= len(r.buf)
}

// Offset returns the current cursor position.
func (r *Reader) Offset() int {
	return r.offset
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	if r.Empty() {
		return 0
	}
	return len(r.buf) - r.offset
}

// Advance moves the cursor forward by n bytes, used to skip an unhandled or
// partially consumed payload. Advancing past the end clamps to the end.
func (r *Reader) Advance(n int) {
	r.offset += n
	if r.offset > len(r.buf) {
		r.offset = len(r.buf)
	}
}

// Seek positions the cursor at an absolute offset. Seeking past the end
// clamps to the end; seeking backwards is not supported and clamps to the
// current offset.
func (r *Reader) Seek(offset int) {
	if offset < r.offset {
		return
	}
	r.offset = offset
	if r.offset > len(r.buf) {
		r.offset = len(r.buf)
	}
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.offset+n > len(r.buf) {
		return nil, ErrShortBuffer
	}
	b := r.buf[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

// ReadHeader reads a frame header: packet id, one padding byte, and the
// declared payload length.
func (r *Reader) ReadHeader() (ID, uint32, error) {
	b, err := r.take(HeaderSize)
	if err != nil {
		return 0, 0, err
	}
	id := ID(int16(binary.LittleEndian.Uint16(b[0:2])))
	length := binary.LittleEndian.Uint32(b[3:7])
	return id, length, nil
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt8 reads a signed byte.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadInt16 reads a little-endian int16.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadInt64 reads a little-endian int64.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadFloat32 reads a little-endian IEEE 754 float32.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadUleb128 reads a ULEB128 varint.
func (r *Reader) ReadUleb128() (uint32, error) {
	v, n, err := Uleb128(r.buf[r.offset:])
	if err != nil {
		return 0, err
	}
	r.offset += n
	return v, nil
}

// ReadString reads an osu-string. Any marker other than the present byte
// reads as the empty string without consuming a length or payload.
func (r *Reader) ReadString() (string, error) {
	marker, err := r.ReadUint8()
	if err != nil {
		return "", err
	}
	if marker != stringPresent {
		return "", nil
	}
	length, err := r.ReadUleb128()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(length))
	if err != nil {
		return "", ErrBadString
	}
	return string(b), nil
}

// ReadIntList reads a u16-counted list of i32 values. A zero count yields an
// empty list without further reads.
func (r *Reader) ReadIntList() ([]int32, error) {
	count, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	list := make([]int32, 0, count)
	for i := 0; i < int(count); i++ {
		v, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, nil
}

// ReadBytes returns the next n raw bytes of the current payload.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	return r.take(n)
}
