// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package folder loads resources from a res/ directory laid out with one
// folder per resource type and configuration.
package folder

import (
	"os"
	"path"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/google/resrepo/pkg/resource"
	"github.com/google/resrepo/pkg/resource/config"
	"github.com/google/resrepo/pkg/resource/table"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Well-known file names.
const (
	SymbolFile   = "R.txt"
	ManifestFile = "AndroidManifest.xml"
	PublicFile   = "public.xml"
)

// Options configures a load.
type Options struct {
	// Namespace receives the loaded resources. Defaults to res-auto.
	Namespace resource.Namespace
	// Files restricts parsing to these paths, relative to the res directory
	// (e.g. "values/strings.xml"). Nil parses every file.
	Files []string
	// SkipLocales excludes folders qualified with a locale.
	SkipLocales bool
	// Strict fails the load on the first file that cannot be parsed instead
	// of skipping it.
	Strict bool
	Logger logrus.FieldLogger
}

// Result is the outcome of loading a res directory.
type Result struct {
	// Table is frozen and never nil.
	Table *table.Table
	// DeclaredIDs holds the ids listed in the symbol file next to the res
	// directory, or nil when there is none.
	DeclaredIDs map[string]int32
	PackageName string
	MinSDK      int
}

type loader struct {
	fs      billy.Filesystem
	resDir  string
	opts    Options
	ns      resource.Namespace
	log     logrus.FieldLogger
	files   map[string]bool
	public  PublicNames
	configs *config.Cache
	tbl     *table.Table
}

// Load reads every configuration folder under resDir. Folders with invalid
// qualifiers and files that cannot be parsed are logged and skipped; only a
// failure to list resDir itself is an error, unless Strict is set.
func Load(fsys billy.Filesystem, resDir string, opts Options) (*Result, error) {
	l := &loader{
		fs:      fsys,
		resDir:  resDir,
		opts:    opts,
		ns:      opts.Namespace,
		log:     opts.Logger,
		configs: config.NewCache(),
		tbl:     table.New(),
	}
	if l.ns == "" {
		l.ns = resource.ResAuto
	}
	if l.log == nil {
		l.log = logrus.StandardLogger()
	}
	l.log = l.log.WithField("path", resDir)
	if opts.Files != nil {
		l.files = make(map[string]bool, len(opts.Files))
		for _, f := range opts.Files {
			l.files[path.Clean(f)] = true
		}
	}
	entries, err := fsys.ReadDir(resDir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", resDir)
	}
	if err := l.readPublic(); err != nil {
		return nil, err
	}
	slices.SortFunc(entries, func(a, b os.FileInfo) int { return strings.Compare(a.Name(), b.Name()) })
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := l.loadFolder(e.Name()); err != nil {
			return nil, err
		}
	}
	l.tbl.Freeze()
	res := &Result{Table: l.tbl}
	parent := path.Dir(resDir)
	if ids, err := l.readSymbols(path.Join(parent, SymbolFile)); err != nil {
		l.log.WithError(err).Warn("Reading symbol file")
	} else {
		res.DeclaredIDs = ids
	}
	if m, err := l.readManifest(path.Join(parent, ManifestFile)); err != nil {
		l.log.WithError(err).Warn("Reading manifest")
	} else if m != nil {
		res.PackageName, res.MinSDK = m.Package, m.MinSDK
	}
	return res, nil
}

func (l *loader) wanted(rel string) bool {
	return l.files == nil || l.files[rel]
}

// fail reports a per-file failure, which is fatal only in strict mode.
func (l *loader) fail(rel string, err error) error {
	if l.opts.Strict {
		return errors.Wrapf(err, "loading %s", rel)
	}
	l.log.WithField("file", rel).WithError(err).Warn("Skipping file")
	return nil
}

func (l *loader) readPublic() error {
	rel := path.Join("values", PublicFile)
	f, err := l.fs.Open(path.Join(l.resDir, rel))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return l.fail(rel, err)
	}
	defer f.Close()
	names, err := ParsePublic(f)
	if err != nil {
		return l.fail(rel, err)
	}
	l.public = names
	return nil
}

// visibility is Public or Private when the library declares its public
// names, and Undefined otherwise.
func (l *loader) visibility(t resource.Type, name string) resource.Visibility {
	switch {
	case l.public == nil:
		return resource.Undefined
	case l.public.Contains(t, name):
		return resource.Public
	default:
		return resource.Private
	}
}

func (l *loader) loadFolder(dir string) error {
	folderType, cfg, err := config.ParseFolderName(dir)
	if err != nil {
		l.log.WithField("file", dir).WithError(err).Warn("Skipping folder")
		return nil
	}
	if l.opts.SkipLocales && cfg.Locale != "" {
		return nil
	}
	fileType, isFileFolder := resource.FolderType(folderType)
	if folderType != "values" && !isFileFolder {
		l.log.WithField("file", dir).Debug("Skipping unknown folder type")
		return nil
	}
	files, err := l.fs.ReadDir(path.Join(l.resDir, dir))
	if err != nil {
		return l.fail(dir, err)
	}
	slices.SortFunc(files, func(a, b os.FileInfo) int { return strings.Compare(a.Name(), b.Name()) })
	cfgp := l.configs.Intern(cfg)
	for _, f := range files {
		rel := path.Join(dir, f.Name())
		if f.IsDir() || strings.HasPrefix(f.Name(), ".") || !l.wanted(rel) {
			continue
		}
		if isFileFolder {
			l.addItem(&resource.Item{
				Type:   fileType,
				Name:   resourceFileName(f.Name()),
				Config: cfgp,
				Value:  &resource.FileValue{Path: path.Join(path.Base(l.resDir), rel), Density: cfg.Density},
			})
			continue
		}
		if !strings.HasSuffix(f.Name(), ".xml") {
			continue
		}
		if err := l.loadValues(rel, cfgp); err != nil {
			return err
		}
	}
	return nil
}

// resourceFileName strips the extension, including the compound ".9.png"
// extension of nine-patch images.
func resourceFileName(name string) string {
	if base, ok := strings.CutSuffix(name, ".9.png"); ok {
		return base
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

// loadValues parses one values file. Its declarations are added only if the
// whole file parses.
func (l *loader) loadValues(rel string, cfg *config.Configuration) error {
	f, err := l.fs.Open(path.Join(l.resDir, rel))
	if err != nil {
		return l.fail(rel, err)
	}
	defer f.Close()
	decls, err := ParseValues(f, l.ns)
	if err != nil {
		return l.fail(rel, err)
	}
	for _, d := range decls {
		l.addItem(&resource.Item{Type: d.Type, Name: d.Name, Config: cfg, Value: d.Value})
	}
	return nil
}

func (l *loader) addItem(it *resource.Item) {
	it.Visibility = l.visibility(it.Type, it.Name)
	replaced, err := l.tbl.Add(l.ns, it)
	log := l.log.WithFields(logrus.Fields{"type": it.Type, "name": it.Name})
	if err != nil {
		log.WithError(err).Warn("Adding item")
	} else if replaced {
		log.WithField("config", it.Configuration().String()).Debug("Replaced duplicate declaration")
	}
}

func (l *loader) readSymbols(p string) (map[string]int32, error) {
	f, err := l.fs.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSymbols(f)
}

func (l *loader) readManifest(p string) (*Manifest, error) {
	f, err := l.fs.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseManifest(f)
}
