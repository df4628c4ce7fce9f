// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package archivetest builds archives for tests.
package archivetest

import (
	"archive/zip"
	"bytes"

	"github.com/google/resrepo/pkg/archive"
)

// Entry returns a deflated entry with the given name and body.
func Entry(name string, body []byte) archive.ZipEntry {
	return archive.ZipEntry{
		FileHeader: &zip.FileHeader{Name: name, Method: zip.Deflate},
		Body:       body,
	}
}

// ZipFile writes the entries, in order, into a new zip archive.
func ZipFile(entries []archive.ZipEntry) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		if err := entry.WriteTo(zw); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}
