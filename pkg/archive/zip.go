// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package archive reads entries from the zip archives that carry compiled
// resources.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"io/fs"

	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
)

// ErrEntryNotFound is returned when an archive lacks a requested entry.
var ErrEntryNotFound = errors.New("entry not found")

var zipMagic = []byte("PK\x03\x04")

// IsZip reports whether b starts with a zip local file header.
func IsZip(b []byte) bool {
	return bytes.HasPrefix(b, zipMagic)
}

// ZipEntry represents an entry in a zip archive.
type ZipEntry struct {
	*zip.FileHeader
	Body []byte
}

// WriteTo writes the ZipEntry to a zip writer.
func (e ZipEntry) WriteTo(zw *zip.Writer) error {
	fw, err := zw.CreateHeader(e.FileHeader)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, bytes.NewReader(e.Body)); err != nil {
		return err
	}
	return nil
}

// ToZipCompatibleReader coerces an io.Reader into an io.ReaderAt required to construct a zip.Reader.
func ToZipCompatibleReader(r io.Reader) (io.ReaderAt, int64, error) {
	seeker, seekerOK := r.(io.Seeker)
	readerAt, readerOK := r.(io.ReaderAt)
	if seekerOK && readerOK {
		pos, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, 0, errors.Wrap(err, "locating reader position")
		}
		size, err := seeker.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, errors.Wrap(err, "retrieving size")
		}
		if _, err := seeker.Seek(pos, io.SeekStart); err != nil {
			return nil, 0, errors.Wrap(err, "restoring reader position")
		}
		return readerAt, size, nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, errors.Wrap(err, "buffering reader")
	}
	return bytes.NewReader(b), int64(len(b)), nil
}

// Zip is an open zip archive backed by a file.
type Zip struct {
	*zip.Reader
	f billy.File
}

// OpenZip opens the zip archive at path.
func OpenZip(fsys billy.Filesystem, path string) (*Zip, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	ra, size, err := ToZipCompatibleReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "initializing zip reader for %s", path)
	}
	return &Zip{Reader: zr, f: f}, nil
}

// Close releases the underlying file.
func (z *Zip) Close() error {
	return z.f.Close()
}

// ReadEntry returns the contents of the named entry. A missing entry yields
// an error wrapping ErrEntryNotFound.
func ReadEntry(zr *zip.Reader, name string) ([]byte, error) {
	rc, err := zr.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(ErrEntryNotFound, name)
	} else if err != nil {
		return nil, errors.Wrapf(err, "opening entry %s", name)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "reading entry %s", name)
	}
	return b, nil
}

// HasEntry reports whether the archive contains the named entry.
func HasEntry(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}
