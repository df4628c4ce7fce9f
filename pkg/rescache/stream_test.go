// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package rescache

import (
	"bytes"
	"math"
	"testing"
	"unicode/utf8"
)

func encode(t *testing.T, fn func(e *Encoder)) []byte {
	t.Helper()
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	fn(e)
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush() failed: %v", err)
	}
	return buf.Bytes()
}

func TestIntEncoding(t *testing.T) {
	testCases := []struct {
		v     int32
		width int
	}{
		{0, 1},
		{1, 1},
		{1<<7 - 1, 1},
		{1 << 7, 2},
		{1<<14 - 1, 2},
		{1 << 14, 3},
		{1<<21 - 1, 3},
		{1 << 21, 4},
		{1<<28 - 1, 4},
		{1 << 28, 5},
		{math.MaxInt32, 5},
		{-1, 5},
		{math.MinInt32, 5},
	}
	for _, tc := range testCases {
		b := encode(t, func(e *Encoder) { e.WriteInt(tc.v) })
		if len(b) != tc.width {
			t.Errorf("WriteInt(%d) wrote %d bytes, want %d", tc.v, len(b), tc.width)
		}
		d := NewDecoder(bytes.NewReader(b))
		if got := d.ReadInt(); got != tc.v || d.Err() != nil {
			t.Errorf("ReadInt() = %d, %v, want %d", got, d.Err(), tc.v)
		}
	}
}

func TestIntEncodingBytes(t *testing.T) {
	b := encode(t, func(e *Encoder) { e.WriteInt(300) })
	if want := []byte{0xac, 0x02}; !bytes.Equal(b, want) {
		t.Errorf("WriteInt(300) = %x, want %x", b, want)
	}
}

func TestLongEncoding(t *testing.T) {
	for _, v := range []int64{0, 127, 128, 1 << 35, math.MaxInt64, -1} {
		b := encode(t, func(e *Encoder) { e.WriteLong(v) })
		if v == -1 && len(b) != 10 {
			t.Errorf("WriteLong(-1) wrote %d bytes, want 10", len(b))
		}
		d := NewDecoder(bytes.NewReader(b))
		if got := d.ReadLong(); got != v || d.Err() != nil {
			t.Errorf("ReadLong() = %d, %v, want %d", got, d.Err(), v)
		}
	}
}

func TestStringEncoding(t *testing.T) {
	testCases := []struct {
		test  string
		s     string
		null  bool
		width int
	}{
		{test: "null", null: true, width: 1},
		{test: "empty", s: "", width: 1},
		{test: "ascii", s: "abc", width: 4},
		{test: "latin", s: "été", width: 6},
		{test: "surrogate pair", s: "a\U0001F600", width: 8},
		{test: "markup", s: `<b>bold</b> & "q"`, width: 18},
	}
	for _, tc := range testCases {
		t.Run(tc.test, func(t *testing.T) {
			b := encode(t, func(e *Encoder) { e.WriteNullableString(tc.s, !tc.null) })
			if len(b) != tc.width {
				t.Errorf("wrote %d bytes, want %d", len(b), tc.width)
			}
			d := NewDecoder(bytes.NewReader(b))
			got, ok := d.ReadNullableString()
			if d.Err() != nil {
				t.Fatalf("ReadNullableString() failed: %v", d.Err())
			}
			if got != tc.s || ok == tc.null {
				t.Errorf("ReadNullableString() = %q, %v, want %q, %v", got, ok, tc.s, !tc.null)
			}
		})
	}
}

func TestBoolAndByte(t *testing.T) {
	b := encode(t, func(e *Encoder) {
		e.WriteBool(true)
		e.WriteBool(false)
		e.WriteByte(0xff)
	})
	if want := []byte{1, 0, 0xff}; !bytes.Equal(b, want) {
		t.Fatalf("encoded %x, want %x", b, want)
	}
	d := NewDecoder(bytes.NewReader(b))
	if !d.ReadBool() || d.ReadBool() {
		t.Errorf("ReadBool() mismatch")
	}
	if got, err := d.ReadByte(); err != nil || got != 0xff {
		t.Errorf("ReadByte() = %x, %v, want ff", got, err)
	}
}

func TestDecoderErrors(t *testing.T) {
	testCases := []struct {
		test  string
		input []byte
		read  func(d *Decoder)
	}{
		{"truncated varint", []byte{0x80}, func(d *Decoder) { d.ReadInt() }},
		{"overlong varint", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}, func(d *Decoder) { d.ReadInt() }},
		{"int overflow", []byte{0xff, 0xff, 0xff, 0xff, 0x7f}, func(d *Decoder) { d.ReadInt() }},
		{"truncated string", []byte{0x04, 'a'}, func(d *Decoder) { d.ReadString() }},
		{"bad bool", []byte{0x02}, func(d *Decoder) { d.ReadBool() }},
		{"empty", nil, func(d *Decoder) { d.ReadByte() }},
	}
	for _, tc := range testCases {
		t.Run(tc.test, func(t *testing.T) {
			d := NewDecoder(bytes.NewReader(tc.input))
			tc.read(d)
			if d.Err() == nil {
				t.Errorf("read of %x succeeded", tc.input)
			}
		})
	}
}

func FuzzIntRoundTrip(f *testing.F) {
	f.Add(uint32(0))
	f.Add(uint32(1 << 7))
	f.Add(uint32(math.MaxUint32))
	f.Fuzz(func(t *testing.T, n uint32) {
		b := encode(t, func(e *Encoder) { e.WriteInt(int32(n)) })
		want := 1
		for v := n >> 7; v != 0; v >>= 7 {
			want++
		}
		if len(b) != want {
			t.Errorf("WriteInt(%d) wrote %d bytes, want %d", n, len(b), want)
		}
		d := NewDecoder(bytes.NewReader(b))
		if got := uint32(d.ReadInt()); got != n {
			t.Errorf("round trip of %d = %d", n, got)
		}
	})
}

func TestStringInvalidUTF8(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"a\xffb", "a\uFFFDb"},
		{"\xe6\x97", "\uFFFD\uFFFD"},
		{"ok \U0001F600", "ok \U0001F600"},
	}
	for _, tc := range testCases {
		b := encode(t, func(e *Encoder) { e.WriteString(tc.in) })
		got := NewDecoder(bytes.NewReader(b)).ReadString()
		if got != tc.want {
			t.Errorf("round trip of %q = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func FuzzStringRoundTrip(f *testing.F) {
	f.Add("")
	f.Add("hello")
	f.Add("日本語\U0001F600")
	f.Fuzz(func(t *testing.T, s string) {
		b := encode(t, func(e *Encoder) { e.WriteString(s) })
		d := NewDecoder(bytes.NewReader(b))
		got, ok := d.ReadNullableString()
		want := s
		if !utf8.ValidString(s) {
			// Each invalid byte becomes its own replacement character.
			want = string([]rune(s))
		}
		if !ok || got != want {
			t.Errorf("round trip of %q = %q, %v", s, got, ok)
		}
	})
}
