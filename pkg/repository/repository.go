// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package repository exposes loaded resources as immutable, queryable
// repositories, one per library or framework resource set.
package repository

import (
	"iter"
	"maps"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/resrepo/pkg/loader/folder"
	"github.com/google/resrepo/pkg/loader/protores"
	"github.com/google/resrepo/pkg/rescache"
	"github.com/google/resrepo/pkg/resource"
	"github.com/google/resrepo/pkg/resource/table"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrNoResourceRoot is returned when the resource root itself cannot be read.
var ErrNoResourceRoot = errors.New("no resource root")

// Repository is a frozen resource table plus the metadata of the library it
// was loaded from. It is safe for concurrent use.
type Repository struct {
	table       *table.Table
	namespace   resource.Namespace
	libraryName string
	displayName string
	packageName string
	minSDK      int
	declaredIDs map[string]int32
	// fileRoot is the directory, or archive when packed, that file resource
	// paths are relative to.
	fileRoot  string
	packed    bool
	fromCache bool
	write     *rescache.Write
}

// Options configures a repository load.
type Options struct {
	// FS is the filesystem paths are resolved against. Defaults to the host
	// filesystem.
	FS billy.Filesystem
	// Namespace receives the resources. Defaults to res-auto.
	Namespace   resource.Namespace
	LibraryName string
	// DisplayName defaults to LibraryName, or the path when that is empty.
	DisplayName string
	// Strict turns per-file parse failures of source-format loads into errors.
	Strict bool
	Logger logrus.FieldLogger
}

func (o *Options) setDefaults(p string) {
	if o.FS == nil {
		o.FS = osfs.New("/")
	}
	if o.Namespace == "" {
		o.Namespace = resource.ResAuto
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.DisplayName == "" {
		o.DisplayName = o.LibraryName
	}
	if o.DisplayName == "" {
		o.DisplayName = p
	}
}

func newRepository(opts Options) *Repository {
	return &Repository{
		namespace:   opts.Namespace,
		libraryName: opts.LibraryName,
		displayName: opts.DisplayName,
	}
}

// LoadFolder loads a source-format res directory.
func LoadFolder(resDir string, opts Options) (*Repository, error) {
	opts.setDefaults(resDir)
	res, err := folder.Load(opts.FS, resDir, folder.Options{
		Namespace: opts.Namespace,
		Strict:    opts.Strict,
		Logger:    opts.Logger.WithField("library", opts.DisplayName),
	})
	if err != nil {
		return nil, rootError(opts.FS, resDir, err)
	}
	r := newRepository(opts)
	r.setFolderResult(res, resDir)
	return r, nil
}

func (r *Repository) setFolderResult(res *folder.Result, resDir string) {
	r.table = res.Table
	r.declaredIDs = res.DeclaredIDs
	r.packageName = res.PackageName
	r.minSDK = res.MinSDK
	r.fileRoot = path.Dir(resDir)
}

// LoadLibrary loads a library directory. A compiled resource table, packed or
// not, takes precedence over a res subdirectory; a directory with neither
// yields an empty repository.
func LoadLibrary(dir string, opts Options) (*Repository, error) {
	opts.setDefaults(dir)
	log := opts.Logger.WithField("library", opts.DisplayName)
	if fi, err := opts.FS.Stat(dir); err != nil {
		return nil, errors.Wrapf(ErrNoResourceRoot, "%s: %v", dir, err)
	} else if !fi.IsDir() {
		return nil, errors.Wrapf(ErrNoResourceRoot, "%s is not a directory", dir)
	}
	if !exists(opts.FS, path.Join(dir, protores.TableEntry)) && !exists(opts.FS, path.Join(dir, protores.ArchiveName)) {
		resDir := path.Join(dir, "res")
		if fi, err := opts.FS.Stat(resDir); err == nil && fi.IsDir() {
			return LoadFolder(resDir, opts)
		}
	}
	res, err := protores.Load(opts.FS, dir, protores.Options{Namespace: opts.Namespace, Logger: log})
	if err != nil {
		return nil, rootError(opts.FS, dir, err)
	}
	r := newRepository(opts)
	r.table = res.Table
	r.packageName = res.PackageName
	r.minSDK = res.MinSDK
	r.packed = res.Packed
	if res.Packed {
		r.fileRoot = res.Origin
	} else {
		r.fileRoot = dir
	}
	if ids, err := readSymbols(opts.FS, path.Join(dir, folder.SymbolFile)); err != nil {
		log.WithError(err).Warn("Reading symbol file")
	} else {
		r.declaredIDs = ids
	}
	return r, nil
}

func exists(fs billy.Filesystem, p string) bool {
	_, err := fs.Stat(p)
	return err == nil
}

// rootError marks load failures caused by an unreadable root.
func rootError(fs billy.Filesystem, root string, err error) error {
	if _, serr := fs.Stat(root); serr != nil {
		return errors.Wrapf(ErrNoResourceRoot, "%s: %v", root, err)
	}
	return err
}

func readSymbols(fs billy.Filesystem, p string) (map[string]int32, error) {
	f, err := fs.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	return folder.ParseSymbols(f)
}

// Items returns the items of a bucket in declaration order, or nil.
func (r *Repository) Items(ns resource.Namespace, typ resource.Type, name string) []*resource.Item {
	return r.table.Items(ns, typ, name)
}

// Types returns the types present in a namespace.
func (r *Repository) Types(ns resource.Namespace) []resource.Type {
	return r.table.Types(ns)
}

// Names returns the names declared for a type in a namespace.
func (r *Repository) Names(ns resource.Namespace, typ resource.Type) []string {
	return r.table.Names(ns, typ)
}

// PublicNames returns the names of a type with at least one public item.
func (r *Repository) PublicNames(typ resource.Type) []string {
	return r.table.PublicNames(typ)
}

// All iterates over every item, grouped by namespace, type and name.
func (r *Repository) All() iter.Seq2[resource.Namespace, *resource.Item] {
	return r.table.All()
}

// Len returns the number of items.
func (r *Repository) Len() int { return r.table.Len() }

// ItemAt returns the item with the given index, or nil.
func (r *Repository) ItemAt(i int) *resource.Item { return r.table.ItemAt(i) }

// Owns reports whether the item belongs to this repository.
func (r *Repository) Owns(it *resource.Item) bool {
	return it != nil && r.table.ItemAt(it.Index) == it
}

func (r *Repository) Namespace() resource.Namespace { return r.namespace }
func (r *Repository) LibraryName() string           { return r.libraryName }
func (r *Repository) DisplayName() string           { return r.displayName }

// PackageName returns the package recovered from the manifest, or "".
func (r *Repository) PackageName() string { return r.packageName }

// MinSDK returns the manifest's minimum SDK version, or 0.
func (r *Repository) MinSDK() int { return r.minSDK }

// DeclaredIDs returns a copy of the ids listed in the library's symbol file,
// or nil when it has none.
func (r *Repository) DeclaredIDs() map[string]int32 {
	if r.declaredIDs == nil {
		return nil
	}
	return maps.Clone(r.declaredIDs)
}

// Packed reports whether file resources live inside an archive.
func (r *Repository) Packed() bool { return r.packed }

// FromCache reports whether the repository was read from a cache file.
func (r *Repository) FromCache() bool { return r.fromCache }

// ResourceURL returns the location of a file resource: a file URL for
// unpacked resources and an apk URL into the archive otherwise. ok is false
// for items without a file or not owned by r.
func (r *Repository) ResourceURL(it *resource.Item) (url string, ok bool) {
	fv, isFile := it.Value.(*resource.FileValue)
	if !isFile || !r.Owns(it) {
		return "", false
	}
	if r.packed {
		return "apk://" + r.fileRoot + "!/" + fv.Path, true
	}
	return "file://" + path.Join(r.fileRoot, fv.Path), true
}

// WaitForCache blocks until a cache write started by the load finishes and
// returns its error. It returns nil immediately if no write was started.
func (r *Repository) WaitForCache() error {
	return r.write.Wait()
}
