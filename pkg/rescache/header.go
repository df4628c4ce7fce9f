// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package rescache

import (
	"bytes"

	"github.com/pkg/errors"
)

// Magic identifies a resource cache file.
var Magic = []byte{'R', 'E', 'S', 'C', 0x00, 0x01}

// FormatVersion is bumped whenever the body layout changes.
const FormatVersion = "resrepo-1"

// Header is the compatibility record at the start of a cache file. A file is
// usable only if its header is identical to the one the reader expects.
type Header struct {
	// SourceDir is the absolute path of the res directory the body was
	// loaded from.
	SourceDir string
	// WithLocales records whether locale folders were loaded.
	WithLocales bool
	// Version identifies the tool that wrote the file.
	Version string
}

// Compatible reports whether two headers match on every field.
func (h Header) Compatible(other Header) bool {
	return h == other
}

func (h Header) encode(e *Encoder) {
	e.WriteBytes(Magic)
	e.WriteString(FormatVersion)
	e.WriteString(h.SourceDir)
	e.WriteBool(h.WithLocales)
	e.WriteString(h.Version)
}

func decodeHeader(d *Decoder) (Header, error) {
	var h Header
	if magic := d.ReadBytes(len(Magic)); d.Err() == nil && !bytes.Equal(magic, Magic) {
		return h, errors.New("bad magic")
	}
	if v := d.ReadString(); d.Err() == nil && v != FormatVersion {
		return h, errors.Errorf("format version %q, want %q", v, FormatVersion)
	}
	h.SourceDir = d.ReadString()
	h.WithLocales = d.ReadBool()
	h.Version = d.ReadString()
	if err := d.Err(); err != nil {
		return h, errors.Wrap(err, "reading header")
	}
	return h, nil
}
