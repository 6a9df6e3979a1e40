package types

import "encoding/binary"

// Cursor is a bounds-checked little-endian reader/writer over a fixed byte
// window. It plays the same role apfs/pkg/types.BinaryReader plays for
// APFS's field-at-a-time struct decoding, reshaped for NVM3's bit-packed
// headers: callers read whole little-endian words and then split them with
// Bits, rather than reading one struct field at a time.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a Cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset returns the cursor's current position within its window.
func (c *Cursor) Offset() int {
	return c.off
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// Uint16 reads a little-endian uint16 and advances the cursor.
func (c *Cursor) Uint16() (uint16, error) {
	if c.Remaining() < 2 {
		return 0, ErrShortBuffer
	}
	v := binary.LittleEndian.Uint16(c.buf[c.off:])
	c.off += 2
	return v, nil
}

// Uint32 reads a little-endian uint32 and advances the cursor.
func (c *Cursor) Uint32() (uint32, error) {
	if c.Remaining() < 4 {
		return 0, ErrShortBuffer
	}
	v := binary.LittleEndian.Uint32(c.buf[c.off:])
	c.off += 4
	return v, nil
}

// Bytes reads n raw bytes and advances the cursor.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if c.Remaining() < n {
		return nil, ErrShortBuffer
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

// Skip advances the cursor by n bytes without reading them.
func (c *Cursor) Skip(n int) error {
	if c.Remaining() < n {
		return ErrShortBuffer
	}
	c.off += n
	return nil
}

// PutUint16 writes v as little-endian at offset off in buf.
func PutUint16(buf []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(buf[off:], v)
}

// PutUint32 writes v as little-endian at offset off in buf.
func PutUint32(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:], v)
}

// Bits extracts a width-bit field starting at bit lo (0 = least
// significant) of word.
func Bits(word uint32, lo, width uint) uint32 {
	return (word >> lo) & mask32(width)
}

// SetBits returns word with its width-bit field starting at bit lo replaced
// by value's low width bits.
func SetBits(word uint32, lo, width uint, value uint32) uint32 {
	m := mask32(width) << lo
	return (word &^ m) | ((value << lo) & m)
}

func mask32(width uint) uint32 {
	if width >= 32 {
		return 0xFFFFFFFF
	}
	return (uint32(1) << width) - 1
}

// AlignUp4 rounds n up to the next multiple of WordAlignment.
func AlignUp4(n int) int {
	return (n + WordAlignment - 1) &^ (WordAlignment - 1)
}
