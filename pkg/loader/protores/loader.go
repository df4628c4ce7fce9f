// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package protores loads compiled resource tables, either unpacked in a
// directory or packed inside a library archive.
package protores

import (
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/resrepo/pkg/archive"
	"github.com/google/resrepo/pkg/resource"
	"github.com/google/resrepo/pkg/resource/config"
	"github.com/google/resrepo/pkg/resource/table"
	"github.com/google/resrepo/pkg/resproto"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Well-known file and entry names.
const (
	TableEntry    = "resources.pb"
	ManifestEntry = "AndroidManifest.xml"
	ArchiveName   = "res.apk"
)

// Options configures a load.
type Options struct {
	// Namespace receives the resources of non-framework packages. Defaults to
	// res-auto.
	Namespace resource.Namespace
	Logger    logrus.FieldLogger
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return logrus.StandardLogger()
	}
	return o.Logger
}

func (o Options) namespace() resource.Namespace {
	if o.Namespace == "" {
		return resource.ResAuto
	}
	return o.Namespace
}

// Result is the outcome of loading a compiled resource directory.
type Result struct {
	// Table is frozen and never nil.
	Table       *table.Table
	PackageName string
	MinSDK      int
	// Origin is the archive or table file the resources were read from, or
	// the directory itself when neither was found.
	Origin string
	// Packed reports whether Origin is an archive.
	Packed bool
}

// Load reads the resources under dir: an unpacked resources.pb, or a res.apk
// archive containing one. A directory with neither yields an empty table;
// only a missing or unreadable dir is an error.
func Load(fsys billy.Filesystem, dir string, opts Options) (*Result, error) {
	log := opts.logger().WithField("path", dir)
	if fi, err := fsys.Stat(dir); err != nil {
		return nil, errors.Wrapf(err, "reading %s", dir)
	} else if !fi.IsDir() {
		return nil, errors.Errorf("%s is not a directory", dir)
	}
	res := &Result{Origin: dir}
	tablePath := path.Join(dir, TableEntry)
	archivePath := path.Join(dir, ArchiveName)
	var tableData, manifestData []byte
	if data, err := util.ReadFile(fsys, tablePath); err == nil {
		res.Origin, tableData = tablePath, data
		if m, err := util.ReadFile(fsys, path.Join(dir, ManifestEntry)); err == nil {
			manifestData = m
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("Reading resource table")
	} else if z, err := archive.OpenZip(fsys, archivePath); err == nil {
		res.Origin, res.Packed = archivePath, true
		tableData, manifestData = readArchive(z, log)
		z.Close()
	} else if _, serr := fsys.Stat(archivePath); serr == nil {
		log.WithError(err).Warn("Opening archive")
	}
	if tableData != nil {
		res.Table = LoadTable(tableData, opts)
	} else {
		log.Debug("No compiled resource table")
		res.Table = table.New()
		res.Table.Freeze()
	}
	if manifestData != nil {
		m, err := ReadManifest(manifestData)
		if err != nil {
			log.WithError(err).Warn("Reading manifest")
		} else {
			res.PackageName, res.MinSDK = m.Package, m.MinSDK
		}
	}
	return res, nil
}

func readArchive(z *archive.Zip, log logrus.FieldLogger) (tableData, manifestData []byte) {
	tableData, err := archive.ReadEntry(z.Reader, TableEntry)
	if err != nil {
		log.WithError(err).Warn("Reading archive resource table")
		tableData = nil
	}
	if archive.HasEntry(z.Reader, ManifestEntry) {
		manifestData, err = archive.ReadEntry(z.Reader, ManifestEntry)
		if err != nil {
			log.WithError(err).Warn("Reading archive manifest")
		}
	}
	return tableData, manifestData
}

// LoadTable decodes a serialized resource table into a frozen table. A table
// that cannot be decoded yields an empty table.
func LoadTable(data []byte, opts Options) *table.Table {
	d := &decoder{
		ns:      opts.namespace(),
		log:     opts.logger(),
		configs: config.NewCache(),
		tbl:     table.New(),
	}
	rt, err := resproto.UnmarshalResourceTable(data)
	if err != nil {
		d.log.WithError(err).Warn("Decoding resource table")
	} else {
		d.decodeTable(rt)
	}
	d.tbl.Freeze()
	return d.tbl
}

type decoder struct {
	ns      resource.Namespace
	log     logrus.FieldLogger
	configs *config.Cache
	tbl     *table.Table
}

// parseTypeName maps a compiled type name. Private attrs are stored under a
// separate type name in compiled tables.
func parseTypeName(name string) (resource.Type, bool) {
	if name == "^attr-private" {
		return resource.Attr, true
	}
	return resource.ParseType(name)
}

func (d *decoder) decodeTable(rt *resproto.ResourceTable) {
	for _, pkg := range rt.Packages {
		ns := d.ns
		if pkg.Name == "android" {
			ns = resource.Android
		}
		for _, typ := range pkg.Types {
			t, ok := parseTypeName(typ.Name)
			if !ok {
				d.log.WithField("type", typ.Name).Warn("Skipping unknown resource type")
				continue
			}
			for _, e := range typ.Entries {
				d.decodeEntry(ns, t, e)
			}
		}
	}
}

func (d *decoder) decodeEntry(ns resource.Namespace, t resource.Type, e *resproto.Entry) {
	vis := DecodeVisibility(e.Visibility)
	for _, cv := range e.ConfigValues {
		cfg, err := d.configs.InternKey(string(cv.ConfigBytes), func() (config.Configuration, error) {
			return DecodeConfiguration(cv.Config), nil
		})
		if err != nil {
			continue
		}
		v, err := d.decodeValue(ns, t, cv.Value, cfg)
		if err != nil {
			d.log.WithFields(logrus.Fields{"type": t, "name": e.Name}).WithError(err).Warn("Skipping value")
			continue
		}
		it := &resource.Item{Type: t, Name: e.Name, Visibility: vis, Config: cfg, Value: v}
		if _, err := d.tbl.Add(ns, it); err != nil {
			d.log.WithFields(logrus.Fields{"type": t, "name": e.Name}).WithError(err).Warn("Adding item")
		}
	}
}

func (d *decoder) decodeValue(ns resource.Namespace, t resource.Type, v *resproto.Value, cfg *config.Configuration) (resource.Value, error) {
	switch {
	case v == nil:
		return nil, errors.New("missing value")
	case v.Item != nil:
		if v.Item.Kind == resproto.ItemFile {
			return &resource.FileValue{Path: v.Item.File.Path, Density: cfg.Density}, nil
		}
		return ItemText(v.Item), nil
	case v.Compound != nil:
		return d.decodeCompound(ns, v.Compound)
	}
	return nil, errors.New("empty value")
}

func (d *decoder) decodeCompound(ns resource.Namespace, c *resproto.CompoundValue) (resource.Value, error) {
	switch c.Kind {
	case resproto.CompoundAttr:
		return decodeAttr(ns, c.Attr), nil
	case resproto.CompoundStyle:
		return decodeStyle(ns, c.Style), nil
	case resproto.CompoundStyleable:
		sv := &resource.StyleableValue{}
		for _, e := range c.Styleable.Entries {
			attrNS, name := refNamespace(ns, e.Attr)
			sv.Attrs = append(sv.Attrs, resource.AttrRef{Namespace: attrNS, Name: name})
		}
		return sv, nil
	case resproto.CompoundArray:
		av := &resource.ArrayValue{}
		for _, el := range c.Array.Elements {
			av.Elements = append(av.Elements, itemString(el))
		}
		return av, nil
	case resproto.CompoundPlural:
		pv := &resource.PluralValue{}
		for _, e := range c.Plural.Entries {
			pv.Items = append(pv.Items, resource.PluralItem{Quantity: resource.Quantity(e.Arity), Value: itemString(e.Item)})
		}
		return pv, nil
	}
	return nil, errors.Errorf("unsupported compound value kind %d", c.Kind)
}

// decodeAttr converts an attr definition. An attr accepting any format with
// no symbols is recorded as a bare reference, as the source loader does for
// attrs declared without a format.
func decodeAttr(ns resource.Namespace, a *resproto.Attribute) resource.Value {
	if len(a.Symbols) == 0 && a.FormatFlags&resproto.FormatAny == resproto.FormatAny {
		return &resource.AttrRefValue{Namespace: ns}
	}
	av := &resource.AttrValue{Formats: DecodeFormats(a.FormatFlags)}
	for _, s := range a.Symbols {
		var name string
		if s.Name != nil {
			name = resource.ParseName(s.Name.Name).Entry
		}
		value := int32(s.Value)
		av.Symbols = append(av.Symbols, resource.AttrSymbol{
			Name:        name,
			Value:       &value,
			Description: strings.TrimSpace(s.Comment),
		})
	}
	return av
}

func decodeStyle(ns resource.Namespace, s *resproto.Style) resource.Value {
	sv := &resource.StyleValue{}
	if s.Parent != nil && s.Parent.Name != "" {
		sv.Parent = "@" + s.Parent.Name
	}
	for _, e := range s.Entries {
		attrNS, name := refNamespace(ns, e.Key)
		sv.Put(attrNS, name, itemString(e.Item))
	}
	return sv
}

// refNamespace splits a reference such as "android:attr/textColor" into the
// namespace it resolves to from ns and its entry name.
func refNamespace(ns resource.Namespace, r *resproto.Reference) (resource.Namespace, string) {
	if r == nil {
		return ns, ""
	}
	n := resource.ParseName(r.Name)
	return ns.Resolve(n.Package), n.Entry
}
