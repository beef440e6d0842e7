package bitio

import (
	"github.com/ashgrove-labs/dnscamo/internal/errors"
)

// Reader consumes octets from the head of a fixed buffer. Each Take
// call advances an internal cursor and fails with a FormatError
// (truncated-stream, per spec.md §4.A) when fewer octets remain than
// requested.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential consumption starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current cursor offset, in octets, from the start of
// the buffer.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of unconsumed octets.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// TakeByte consumes and returns a single octet.
func (r *Reader) TakeByte(operation string) (byte, error) {
	if r.Remaining() < 1 {
		return 0, &errors.FormatError{Operation: operation, Offset: r.pos, Message: "truncated stream: expected 1 more byte"}
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// TakeUint16 consumes a big-endian 16-bit integer.
func (r *Reader) TakeUint16(operation string) (uint16, error) {
	b, err := r.TakeBytes(operation, 2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// TakeUint32 consumes a big-endian 32-bit integer.
func (r *Reader) TakeUint32(operation string) (uint32, error) {
	b, err := r.TakeBytes(operation, 4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// TakeBytes consumes exactly n octets.
func (r *Reader) TakeBytes(operation string, n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, &errors.FormatError{
			Operation: operation,
			Offset:    r.pos,
			Message:   "truncated stream: not enough bytes remaining",
		}
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// PeekByte returns the next octet without advancing the cursor.
func (r *Reader) PeekByte(operation string) (byte, error) {
	if r.Remaining() < 1 {
		return 0, &errors.FormatError{Operation: operation, Offset: r.pos, Message: "truncated stream: expected 1 more byte"}
	}
	return r.buf[r.pos], nil
}
