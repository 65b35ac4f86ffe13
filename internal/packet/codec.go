// Package packet implements the bancho wire format: length-prefixed frames,
// little-endian primitive fields, ULEB128 varints and osu-style strings.
package packet

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the size of a frame header: packet id (2), padding byte (1),
// payload length (4).
const HeaderSize = 7

// String presence markers. An osu-string starts with one of these bytes; only
// a present string is followed by a ULEB128 length and UTF-8 payload.
const (
	stringAbsent  = 0x00
	stringPresent = 0x0b
)

// ErrShortBuffer is returned when a fixed-width read runs past the end of the
// inbound buffer. It indicates framing corruption and is fatal for the
// request that produced it.
var ErrShortBuffer = errors.New("packet: read past end of buffer")

// ErrBadString is returned when an osu-string's declared length exceeds the
// remaining buffer.
var ErrBadString = errors.New("packet: malformed osu-string")

// AppendUleb128 appends the ULEB128 encoding of v to dst and returns the
// extended slice.
func AppendUleb128(dst []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
			continue
		}
		return append(dst, b)
	}
}

// Uleb128 decodes a ULEB128 varint from buf, returning the value and the
// number of bytes consumed. A truncated varint returns ErrShortBuffer.
func Uleb128(buf []byte) (uint32, int, error) {
	var (
		val   uint32
		shift uint
	)
	for i, b := range buf {
		val |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return val, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrShortBuffer
}

// AppendString appends the osu-string encoding of s to dst. The empty string
// encodes as a single absent marker byte.
func AppendString(dst []byte, s string) []byte {
	if s == "" {
		return append(dst, stringAbsent)
	}
	dst = append(dst, stringPresent)
	dst = AppendUleb128(dst, uint32(len(s)))
	return append(dst, s...)
}

// AppendIntList appends a u16 count followed by that many little-endian i32
// values.
func AppendIntList(dst []byte, list []int32) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(list)))
	for _, v := range list {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(v))
	}
	return dst
}
