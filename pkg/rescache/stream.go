// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package rescache

import (
	"bufio"
	"io"
	"unicode/utf16"

	"github.com/pkg/errors"
)

// maxStringLen bounds string lengths read from a cache file so that a
// corrupt length cannot trigger an enormous allocation.
const maxStringLen = 1 << 24

// Encoder writes the variable-length cache encoding. The first write error
// is sticky and reported by Flush.
//
// Integers are written seven bits per byte, low bits first, with bit 7 set
// on every byte but the last. Strings are written as their UTF-16 length
// plus one followed by each code unit as an integer; a length of zero
// denotes a null string. Strings are assumed to be valid UTF-8; each
// invalid byte is written as U+FFFD, so such strings do not round trip.
type Encoder struct {
	w   *bufio.Writer
	err error
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

func (e *Encoder) writeVarint(v uint64) {
	if e.err != nil {
		return
	}
	for v >= 0x80 {
		if e.err = e.w.WriteByte(byte(v) | 0x80); e.err != nil {
			return
		}
		v >>= 7
	}
	e.err = e.w.WriteByte(byte(v))
}

// WriteInt writes a 32-bit integer. Negative values take five bytes.
func (e *Encoder) WriteInt(v int32) {
	e.writeVarint(uint64(uint32(v)))
}

// WriteLong writes a 64-bit integer in up to ten bytes.
func (e *Encoder) WriteLong(v int64) {
	e.writeVarint(uint64(v))
}

// WriteBool writes a boolean as the integer 0 or 1.
func (e *Encoder) WriteBool(b bool) {
	if b {
		e.WriteInt(1)
	} else {
		e.WriteInt(0)
	}
}

// WriteByte writes a single raw byte.
func (e *Encoder) WriteByte(b byte) error {
	if e.err == nil {
		e.err = e.w.WriteByte(b)
	}
	return e.err
}

// WriteBytes writes raw bytes.
func (e *Encoder) WriteBytes(b []byte) {
	if e.err == nil {
		_, e.err = e.w.Write(b)
	}
}

// WriteString writes a non-null string. Invalid UTF-8 bytes are written as
// U+FFFD.
func (e *Encoder) WriteString(s string) {
	units := utf16.Encode([]rune(s))
	e.WriteInt(int32(len(units) + 1))
	for _, u := range units {
		e.writeVarint(uint64(u))
	}
}

// WriteNullableString writes s, or a null string when ok is false.
func (e *Encoder) WriteNullableString(s string, ok bool) {
	if !ok {
		e.WriteInt(0)
		return
	}
	e.WriteString(s)
}

// Flush writes any buffered data and returns the first error encountered.
func (e *Encoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

// Decoder reads the encoding written by Encoder. The first read error is
// sticky; once set, reads return zero values.
type Decoder struct {
	r   *bufio.Reader
	err error
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Err returns the first error encountered.
func (d *Decoder) Err() error {
	return d.err
}

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Decoder) readVarint(maxBytes int) uint64 {
	if d.err != nil {
		return 0
	}
	var v uint64
	for i := 0; i < maxBytes; i++ {
		b, err := d.r.ReadByte()
		if err == io.EOF {
			d.fail(io.ErrUnexpectedEOF)
			return 0
		} else if err != nil {
			d.fail(err)
			return 0
		}
		v |= uint64(b&0x7f) << (7 * i)
		if b < 0x80 {
			return v
		}
	}
	d.fail(errors.New("varint too long"))
	return 0
}

// ReadInt reads a 32-bit integer.
func (d *Decoder) ReadInt() int32 {
	v := d.readVarint(5)
	if v > 0xffffffff {
		d.fail(errors.New("integer overflows 32 bits"))
		return 0
	}
	return int32(uint32(v))
}

// ReadLong reads a 64-bit integer.
func (d *Decoder) ReadLong() int64 {
	return int64(d.readVarint(10))
}

// ReadBool reads a boolean.
func (d *Decoder) ReadBool() bool {
	switch d.ReadInt() {
	case 0:
		return false
	case 1:
		return true
	}
	d.fail(errors.New("invalid boolean"))
	return false
}

// ReadByte reads a single raw byte.
func (d *Decoder) ReadByte() (byte, error) {
	if d.err != nil {
		return 0, d.err
	}
	b, err := d.r.ReadByte()
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	d.fail(err)
	return b, d.err
}

// ReadBytes reads exactly n raw bytes.
func (d *Decoder) ReadBytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		d.fail(err)
		return nil
	}
	return b
}

// ReadNullableString reads a string; ok is false for a null string.
func (d *Decoder) ReadNullableString() (s string, ok bool) {
	n := d.ReadInt()
	if d.err != nil || n == 0 {
		return "", false
	}
	if n < 0 || n-1 > maxStringLen {
		d.fail(errors.Errorf("invalid string length %d", n))
		return "", false
	}
	units := make([]uint16, n-1)
	for i := range units {
		v := d.readVarint(3)
		if v > 0xffff {
			d.fail(errors.New("code unit overflows 16 bits"))
		}
		if d.err != nil {
			return "", false
		}
		units[i] = uint16(v)
	}
	return string(utf16.Decode(units)), true
}

// ReadString reads a string, returning "" for a null string.
func (d *Decoder) ReadString() string {
	s, _ := d.ReadNullableString()
	return s
}
