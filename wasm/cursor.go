package wasm

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/wippyai/wasm-linker/errors"
)

// Cursor is a read position over an immutable byte buffer. Every read
// advances the position and fails with a truncated_input error when the
// buffer holds fewer bytes than requested. No read mutates the buffer.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor creates a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Position returns the number of bytes consumed so far.
func (c *Cursor) Position() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Rest returns the unread bytes without advancing.
func (c *Cursor) Rest() []byte {
	return c.buf[c.pos:]
}

func (c *Cursor) need(n int) error {
	if n < 0 || c.Remaining() < n {
		return errors.Truncated(c.pos, n, c.Remaining())
	}
	return nil
}

// ReadByte reads a single byte.
func (c *Cursor) ReadByte() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// PeekByte returns the next byte without advancing.
func (c *Cursor) PeekByte() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	return c.buf[c.pos], nil
}

// Skip advances the position by n bytes.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// ReadBytes reads exactly n bytes. The result aliases the underlying buffer.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadLengthPrefixed reads an unsigned LEB128 length followed by that many bytes.
func (c *Cursor) ReadLengthPrefixed() ([]byte, error) {
	n, err := c.ReadU32()
	if err != nil {
		return nil, err
	}
	return c.ReadBytes(int(n))
}

// ReadName reads a length-prefixed UTF-8 string.
func (c *Cursor) ReadName() (string, error) {
	start := c.pos
	data, err := c.ReadLengthPrefixed()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("invalid UTF-8 in name at offset %d", start).
			Build()
	}
	return string(data), nil
}

// ReadUnsigned reads an unsigned LEB128 value of at most width bits.
func (c *Cursor) ReadUnsigned(width uint) (uint64, error) {
	v, n, err := DecodeUnsigned(c.buf[c.pos:], width)
	if err != nil {
		return 0, c.leb128Error(err, width)
	}
	c.pos += n
	return v, nil
}

// ReadSigned reads a signed LEB128 value of at most width bits.
func (c *Cursor) ReadSigned(width uint) (int64, error) {
	v, n, err := DecodeSigned(c.buf[c.pos:], width)
	if err != nil {
		return 0, c.leb128Error(err, width)
	}
	c.pos += n
	return v, nil
}

// ReadU32 reads an unsigned LEB128 encoded uint32.
func (c *Cursor) ReadU32() (uint32, error) {
	v, err := c.ReadUnsigned(32)
	return uint32(v), err
}

// ReadS32 reads a signed LEB128 encoded int32.
func (c *Cursor) ReadS32() (int32, error) {
	v, err := c.ReadSigned(32)
	return int32(v), err
}

// ReadS64 reads a signed LEB128 encoded int64.
func (c *Cursor) ReadS64() (int64, error) {
	return c.ReadSigned(64)
}

// ReadFixed decodes a packed little-endian record into data, which must be a
// pointer to a fixed-size value (a number, an array, or a struct of those).
func (c *Cursor) ReadFixed(data any) error {
	size := binary.Size(data)
	if size < 0 {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("%T has no fixed binary layout", data).
			Build()
	}
	if err := c.need(size); err != nil {
		return err
	}
	n, err := binary.Decode(c.buf[c.pos:], binary.LittleEndian, data)
	if err != nil {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).Cause(err).Build()
	}
	c.pos += n
	return nil
}

// ReadU32LE reads a little-endian uint32 (fixed 4 bytes).
func (c *Cursor) ReadU32LE() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64LE reads a little-endian uint64 (fixed 8 bytes).
func (c *Cursor) ReadU64LE() (uint64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *Cursor) leb128Error(err error, width uint) error {
	if errors.Is(err, errors.ErrTruncatedInput) {
		return errors.Truncated(c.pos, 1, c.Remaining())
	}
	return errors.Overflow(c.pos, width)
}
