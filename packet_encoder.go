package kex

import (
	"encoding/binary"
	"math"
)

// packetEncoder is the interface every request's encode method writes
// through, so that request bodies read the same regardless of which
// concrete encoder backs them.
type packetEncoder interface {
	putInt8(in int8)
	putInt16(in int16)
	putInt32(in int32)
	putInt64(in int64)
	putBool(in bool)
	putString(in string) error
	putBytes(in []byte) error
	putRawBytes(in []byte) error
	putArrayLength(n int) error

	// bytes returns the encoded buffer built so far.
	bytes() []byte
}

// realEncoder appends to an in-memory buffer. Unlike the teacher's
// two-pass prepEncoder/realEncoder split (needed there for CRCs over
// nested, self-describing message sets), this protocol's frames never
// need a size computed from their own already-encoded body before the
// body is fully written, so a single append-only pass is sufficient.
type realEncoder struct {
	buf []byte
}

func newRealEncoder() *realEncoder {
	return &realEncoder{buf: make([]byte, 0, 256)}
}

func (e *realEncoder) putInt8(in int8) {
	e.buf = append(e.buf, byte(in))
}

func (e *realEncoder) putInt16(in int16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(in))
	e.buf = append(e.buf, b[:]...)
}

func (e *realEncoder) putInt32(in int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(in))
	e.buf = append(e.buf, b[:]...)
}

func (e *realEncoder) putInt64(in int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(in))
	e.buf = append(e.buf, b[:]...)
}

func (e *realEncoder) putBool(in bool) {
	if in {
		e.putInt8(1)
	} else {
		e.putInt8(0)
	}
}

// putString writes an int16 length followed by the UTF-8 bytes, per
// spec.md section 4.1. A string longer than MaxInt16 bytes cannot be
// represented on the wire.
func (e *realEncoder) putString(in string) error {
	if len(in) > math.MaxInt16 {
		return ErrMalformed
	}
	e.putInt16(int16(len(in)))
	e.buf = append(e.buf, in...)
	return nil
}

// putBytes writes an int32 length followed by the raw bytes; a nil
// slice is encoded as length -1, matching Kafka's nullable bytes
// convention used by key/value fields.
func (e *realEncoder) putBytes(in []byte) error {
	if in == nil {
		e.putInt32(-1)
		return nil
	}
	e.putInt32(int32(len(in)))
	e.buf = append(e.buf, in...)
	return nil
}

func (e *realEncoder) putRawBytes(in []byte) error {
	e.buf = append(e.buf, in...)
	return nil
}

// putArrayLength writes the int32 array count ahead of an array's
// elements, per spec.md section 4.1.
func (e *realEncoder) putArrayLength(n int) error {
	if n > math.MaxInt32 {
		return ErrMalformed
	}
	e.putInt32(int32(n))
	return nil
}

func (e *realEncoder) bytes() []byte {
	return e.buf
}
