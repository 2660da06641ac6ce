package kex

import "encoding/binary"

// packetDecoder is the read-side counterpart to packetEncoder. Every
// method returns ErrMalformed if the underlying buffer runs out of
// bytes before a declared length is satisfied, per spec.md section
// 4.1's decoder contract.
type packetDecoder interface {
	getInt8() (int8, error)
	getInt16() (int16, error)
	getInt32() (int32, error)
	getInt64() (int64, error)
	getBool() (bool, error)
	getString() (string, error)
	getBytes() ([]byte, error)
	getRawBytes(n int) ([]byte, error)
	getArrayLength() (int, error)

	remaining() int
}

type realDecoder struct {
	buf []byte
	off int
}

func newRealDecoder(buf []byte) *realDecoder {
	return &realDecoder{buf: buf}
}

func (d *realDecoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *realDecoder) require(n int) error {
	if n < 0 || d.remaining() < n {
		return ErrMalformed
	}
	return nil
}

func (d *realDecoder) getInt8() (int8, error) {
	if err := d.require(1); err != nil {
		return 0, err
	}
	v := int8(d.buf[d.off])
	d.off++
	return v, nil
}

func (d *realDecoder) getInt16() (int16, error) {
	if err := d.require(2); err != nil {
		return 0, err
	}
	v := int16(binary.BigEndian.Uint16(d.buf[d.off:]))
	d.off += 2
	return v, nil
}

func (d *realDecoder) getInt32() (int32, error) {
	if err := d.require(4); err != nil {
		return 0, err
	}
	v := int32(binary.BigEndian.Uint32(d.buf[d.off:]))
	d.off += 4
	return v, nil
}

func (d *realDecoder) getInt64() (int64, error) {
	if err := d.require(8); err != nil {
		return 0, err
	}
	v := int64(binary.BigEndian.Uint64(d.buf[d.off:]))
	d.off += 8
	return v, nil
}

func (d *realDecoder) getBool() (bool, error) {
	v, err := d.getInt8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// getString reads an int16 length followed by that many UTF-8 bytes.
func (d *realDecoder) getString() (string, error) {
	n, err := d.getInt16()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", nil
	}
	if err := d.require(int(n)); err != nil {
		return "", err
	}
	s := string(d.buf[d.off : d.off+int(n)])
	d.off += int(n)
	return s, nil
}

// getBytes reads an int32 length followed by that many raw bytes; a
// length of -1 decodes to a nil slice (nullable bytes convention).
func (d *realDecoder) getBytes() ([]byte, error) {
	n, err := d.getInt32()
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}
	if err := d.require(int(n)); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, d.buf[d.off:d.off+int(n)])
	d.off += int(n)
	return b, nil
}

func (d *realDecoder) getRawBytes(n int) ([]byte, error) {
	if err := d.require(n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, d.buf[d.off:d.off+n])
	d.off += n
	return b, nil
}

// getArrayLength reads the int32 array count ahead of an array's
// elements. A negative count is treated as ErrMalformed rather than
// silently clamped to zero, since the wire format never produces one.
func (d *realDecoder) getArrayLength() (int, error) {
	n, err := d.getInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrMalformed
	}
	return int(n), nil
}
