// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/google/resrepo/pkg/loader/folder"
	"github.com/google/resrepo/pkg/rescache"
	"github.com/google/resrepo/pkg/resource"
	"github.com/pkg/errors"
)

// FrameworkLibraryName is the library name of the platform resources.
const FrameworkLibraryName = "android"

// FrameworkOptions configures a framework load.
type FrameworkOptions struct {
	Options
	// CacheDir holds cache files. Empty disables the cache.
	CacheDir string
	// CacheFS is the filesystem CacheDir lives on. Defaults to FS.
	CacheFS billy.Filesystem
	// WithLocales includes locale-qualified folders.
	WithLocales bool
	// Version identifies the writer; cache files from other versions are
	// ignored.
	Version string
}

// LoadFramework loads the platform res directory into the android
// namespace. When a cache directory is configured, a compatible cache file is
// used instead of parsing; otherwise the directory is parsed and a fresh
// cache file is written in the background (see WaitForCache). A relative
// resDir is made absolute against the working directory, and the cleaned
// absolute path keys the cache.
func LoadFramework(resDir string, opts FrameworkOptions) (*Repository, error) {
	abs, err := filepath.Abs(resDir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", resDir)
	}
	resDir = abs
	opts.Namespace = resource.Android
	if opts.LibraryName == "" {
		opts.LibraryName = FrameworkLibraryName
	}
	opts.setDefaults(resDir)
	if opts.CacheFS == nil {
		opts.CacheFS = opts.FS
	}
	log := opts.Logger.WithField("library", opts.DisplayName)

	var cachePath string
	header := rescache.Header{SourceDir: resDir, WithLocales: opts.WithLocales, Version: opts.Version}
	if opts.CacheDir != "" {
		cachePath = rescache.Path(opts.CacheDir, resDir, opts.WithLocales)
		c, err := rescache.Load(opts.CacheFS, cachePath, header)
		if err == nil {
			log.WithField("path", cachePath).Debug("Resource cache hit")
			r := newRepository(opts.Options)
			r.table = c.Table
			r.packageName = c.PackageName
			r.declaredIDs = c.DeclaredIDs
			r.fileRoot = path.Dir(resDir)
			r.fromCache = true
			return r, nil
		}
		log.WithError(err).Debug("Resource cache miss")
	}

	res, err := folder.Load(opts.FS, resDir, folder.Options{
		Namespace:   resource.Android,
		SkipLocales: !opts.WithLocales,
		Strict:      opts.Strict,
		Logger:      log,
	})
	if err != nil {
		return nil, rootError(opts.FS, resDir, errors.Wrap(err, "loading framework resources"))
	}
	r := newRepository(opts.Options)
	r.setFolderResult(res, resDir)
	if r.packageName == "" {
		r.packageName = FrameworkLibraryName
	}
	if cachePath != "" {
		r.write = rescache.SaveAsync(opts.CacheFS, cachePath, header, &rescache.Contents{
			Table:       r.table,
			Namespace:   r.namespace,
			LibraryName: r.libraryName,
			PackageName: r.packageName,
			DeclaredIDs: r.declaredIDs,
		}, log)
	}
	return r, nil
}
