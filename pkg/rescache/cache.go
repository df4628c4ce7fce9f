// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package rescache persists frozen resource tables in a compact binary file
// so that large, rarely changing resource sets need not be parsed again.
package rescache

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DirName is the subdirectory of the cache directory holding cache files.
const DirName = "framework_resources"

// ErrCacheMiss is returned by Load when no usable cache file exists.
var ErrCacheMiss = errors.New("cache miss")

// Path returns the cache file for a res directory.
func Path(cacheDir, sourceDir string, withLocales bool) string {
	sum := md5.Sum([]byte(sourceDir))
	name := hex.EncodeToString(sum[:])
	if withLocales {
		name += "_L"
	}
	return filepath.Join(cacheDir, DirName, name+".bin")
}

// Load reads the cache file at path. The file must carry a header compatible
// with want. Every failure, including a missing file, is reported as
// ErrCacheMiss.
func Load(fsys billy.Filesystem, path string, want Header) (*Contents, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrCacheMiss, "opening %s: %v", path, err)
	}
	defer f.Close()
	d := NewDecoder(f)
	got, err := decodeHeader(d)
	if err != nil {
		return nil, errors.Wrapf(ErrCacheMiss, "%s: %v", path, err)
	}
	if !got.Compatible(want) {
		return nil, errors.Wrapf(ErrCacheMiss, "%s: header %+v does not match %+v", path, got, want)
	}
	c, err := decodeBody(d)
	if err != nil {
		return nil, errors.Wrapf(ErrCacheMiss, "%s: %v", path, err)
	}
	return c, nil
}

// Save writes the contents to path. The file is written under a temporary
// name and renamed into place, so readers never observe a partial file.
func Save(fsys billy.Filesystem, path string, h Header, c *Contents) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	f, err := fsys.TempFile(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmp := f.Name()
	e := NewEncoder(f)
	h.encode(e)
	encodeBody(e, c)
	err = e.Flush()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = fsys.Rename(tmp, path)
	}
	if err != nil {
		_ = fsys.Remove(tmp)
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// Write is a cache write running in the background.
type Write struct {
	g errgroup.Group
}

// Wait blocks until the write finishes and returns its error.
func (w *Write) Wait() error {
	if w == nil {
		return nil
	}
	return w.g.Wait()
}

// SaveAsync starts Save on a background goroutine. Failures are logged; the
// returned Write may be waited on or ignored.
func SaveAsync(fsys billy.Filesystem, path string, h Header, c *Contents, log logrus.FieldLogger) *Write {
	if log == nil {
		log = logrus.StandardLogger()
	}
	w := &Write{}
	w.g.Go(func() error {
		err := Save(fsys, path, h, c)
		if err != nil {
			log.WithField("path", path).WithError(err).Warn("Writing resource cache")
		} else {
			log.WithField("path", path).Debug("Wrote resource cache")
		}
		return err
	})
	return w
}
