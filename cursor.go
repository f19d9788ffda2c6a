package wadmap

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
)

// Cursor reads little-endian values from a byte slice, advancing an offset as it goes.
// The first failed read is remembered; later reads return zero values and the error is
// reported once by Err.
type Cursor struct {
	buf []byte
	off int
	err error
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Err returns the first error encountered, if any.
func (c *Cursor) Err() error {
	return c.err
}

// Offset returns the current read position.
func (c *Cursor) Offset() int {
	return c.off
}

// Len returns the size of the underlying buffer.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	if c.off >= len(c.buf) {
		return 0
	}
	return len(c.buf) - c.off
}

// Seek moves the read position to an absolute offset.
func (c *Cursor) Seek(off int) {
	if c.err != nil {
		return
	}
	if off < 0 || off > len(c.buf) {
		c.err = errors.Wrapf(ErrShortRead, "seek to %d in %d bytes", off, len(c.buf))
		return
	}
	c.off = off
}

// Skip advances the read position by n bytes.
func (c *Cursor) Skip(n int) {
	c.take(n)
}

func (c *Cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.off+n > len(c.buf) {
		c.err = errors.Wrapf(ErrShortRead, "read %d bytes at %d of %d", n, c.off, len(c.buf))
		return nil
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

// Bytes returns the next n bytes without copying.
func (c *Cursor) Bytes(n int) []byte {
	return c.take(n)
}

// Uint8 reads one byte, or returns 0 once the cursor has failed.
func (c *Cursor) Uint8() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Int16 reads a little-endian signed 16-bit value.
func (c *Cursor) Int16() int16 {
	return int16(c.Uint16())
}

// Uint16 reads a little-endian 16-bit value, or returns 0 once the cursor has failed.
func (c *Cursor) Uint16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// Int32 reads a little-endian signed 32-bit value.
func (c *Cursor) Int32() int32 {
	return int32(c.Uint32())
}

// Uint32 reads a little-endian 32-bit value, or returns 0 once the cursor has failed.
func (c *Cursor) Uint32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Tag4 reads a four character chunk or magic identifier.
func (c *Cursor) Tag4() string {
	b := c.take(4)
	if b == nil {
		return ""
	}
	return string(b)
}

// String8 reads an eight character, NUL padded name. Names are case insensitive and
// returned upper-cased.
func (c *Cursor) String8() string {
	b := c.take(8)
	if b == nil {
		return ""
	}
	var s String8
	copy(s[:], b)
	return strings.ToUpper(s.String())
}

// Read decodes a fixed-layout struct (or slice of structs) with binary.Read.
func (c *Cursor) Read(v any) {
	size := binary.Size(v)
	if size < 0 {
		if c.err == nil {
			c.err = errors.Errorf("cannot decode %T", v)
		}
		return
	}
	b := c.take(size)
	if b == nil {
		return
	}
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, v); err != nil {
		c.err = errors.Wrap(err, "decode record")
	}
}
