// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package rescache_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
	"github.com/google/resrepo/pkg/rescache"
	"github.com/google/resrepo/pkg/resource"
	"github.com/google/resrepo/pkg/resource/config"
	"github.com/google/resrepo/pkg/resource/table"
	"github.com/pkg/errors"
)

func int32p(v int32) *int32 { return &v }

func sampleContents(t *testing.T) *rescache.Contents {
	t.Helper()
	fr := &config.Configuration{Locale: "fr"}
	land := &config.Configuration{Orientation: 2, Density: config.DensityHigh, SDKVersion: 21}
	tbl := table.New()
	add := func(ns resource.Namespace, it *resource.Item) {
		if _, err := tbl.Add(ns, it); err != nil {
			t.Fatalf("Add() failed: %v", err)
		}
	}
	add(resource.Android, &resource.Item{Type: resource.String, Name: "app_name", Visibility: resource.Public, Value: &resource.TextValue{Text: "Foo"}})
	add(resource.Android, &resource.Item{Type: resource.Color, Name: "accent", Visibility: resource.Private, Value: &resource.TextValue{Text: "#ff0000"}})
	add(resource.Android, &resource.Item{Type: resource.String, Name: "app_name", Config: fr, Visibility: resource.Public, Value: &resource.TextValue{Text: "Fou"}})
	add(resource.Android, &resource.Item{Type: resource.String, Name: "styled", Value: &resource.TextValue{Text: "bold", RawXML: "<b>bold</b>"}})
	add(resource.Android, &resource.Item{Type: resource.String, Name: "none", Visibility: resource.PrivateXMLOnly, Value: &resource.TextValue{Null: true}})
	add(resource.Android, &resource.Item{Type: resource.Drawable, Name: "icon", Config: land, Value: &resource.FileValue{Path: "res/drawable-land-hdpi-v21/icon.png", Density: config.DensityHigh}})
	add(resource.Android, &resource.Item{Type: resource.Array, Name: "planets", Value: &resource.ArrayValue{Elements: []string{"Mercury", "@null"}}})
	add(resource.Android, &resource.Item{Type: resource.Plurals, Name: "songs", Value: &resource.PluralValue{Items: []resource.PluralItem{
		{Quantity: resource.One, Value: "%d song"},
		{Quantity: resource.Other, Value: "%d songs"},
	}}})
	add(resource.Android, &resource.Item{Type: resource.Attr, Name: "gravity", Value: &resource.AttrValue{
		Formats: resource.FormatFlags | resource.FormatInteger,
		Symbols: []resource.AttrSymbol{
			{Name: "top", Value: int32p(0x30), Description: "Push to the top."},
			{Name: "all", Value: int32p(-1)},
			{Name: "unset"},
		},
	}})
	add(resource.Android, &resource.Item{Type: resource.Attr, Name: "anything", Value: &resource.AttrRefValue{Namespace: resource.Android}})
	add(resource.Android, &resource.Item{Type: resource.Style, Name: "Theme", Value: &resource.StyleValue{
		Parent: "@android:style/Theme.Base",
		Items:  []resource.StyleItem{{Namespace: resource.Android, Attr: "textColor", Value: "@color/accent"}},
	}})
	add(resource.Android, &resource.Item{Type: resource.Style, Name: "Theme.Base", Value: &resource.StyleValue{}})
	add(resource.Android, &resource.Item{Type: resource.Styleable, Name: "View", Value: &resource.StyleableValue{Attrs: []resource.AttrRef{
		{Namespace: resource.Android, Name: "gravity"},
		{Namespace: resource.ResAuto, Name: "custom"},
	}}})
	add(resource.Tools, &resource.Item{Type: resource.ID, Name: "marker", Value: &resource.TextValue{}})
	tbl.Freeze()
	return &rescache.Contents{
		Table:       tbl,
		Namespace:   resource.Android,
		LibraryName: "android",
		PackageName: "android",
		DeclaredIDs: map[string]int32{"button": 0x01020019, "text1": 0x01020014},
	}
}

type flatItem struct {
	Namespace  resource.Namespace
	Index      int
	Type       resource.Type
	Name       string
	Visibility resource.Visibility
	Config     config.Configuration
	Value      resource.Value
}

func flatten(tbl *table.Table) []flatItem {
	var out []flatItem
	for ns, it := range tbl.All() {
		out = append(out, flatItem{ns, it.Index, it.Type, it.Name, it.Visibility, it.Configuration(), it.Value})
	}
	return out
}

func TestSaveLoad(t *testing.T) {
	fs := memfs.New()
	want := sampleContents(t)
	h := rescache.Header{SourceDir: "/sdk/platforms/android-34/data/res", Version: "1.0"}
	path := rescache.Path("/cache", h.SourceDir, h.WithLocales)
	if err := rescache.Save(fs, path, h, want); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := rescache.Load(fs, path, h)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if diff := cmp.Diff(flatten(want.Table), flatten(got.Table)); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
	if !got.Table.Frozen() {
		t.Errorf("loaded table not frozen")
	}
	for i := 0; i < want.Table.Len(); i++ {
		if w, g := want.Table.ItemAt(i), got.Table.ItemAt(i); w.Name != g.Name || g.Index != i {
			t.Errorf("ItemAt(%d) = %s/%d, want %s/%d", i, g.Name, g.Index, w.Name, i)
		}
	}
	if diff := cmp.Diff(want.Table.Namespaces(), got.Table.Namespaces()); diff != "" {
		t.Errorf("Namespaces() mismatch (-want +got):\n%s", diff)
	}
	gotMeta := []any{got.Namespace, got.LibraryName, got.PackageName, got.DeclaredIDs}
	wantMeta := []any{want.Namespace, want.LibraryName, want.PackageName, want.DeclaredIDs}
	if diff := cmp.Diff(wantMeta, gotMeta); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
	// Items in the same configuration share one instance after loading.
	a := got.Table.Items(resource.Android, resource.Color, "accent")[0]
	b := got.Table.Items(resource.Android, resource.Array, "planets")[0]
	if a.Config != b.Config {
		t.Errorf("default configuration not shared between items")
	}
}

func TestSaveLoadEmpty(t *testing.T) {
	fs := memfs.New()
	tbl := table.New()
	tbl.Freeze()
	h := rescache.Header{SourceDir: "/res"}
	if err := rescache.Save(fs, "c.bin", h, &rescache.Contents{Table: tbl}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := rescache.Load(fs, "c.bin", h)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.Table.Len() != 0 || got.DeclaredIDs != nil {
		t.Errorf("Load() = %d items, ids %v, want empty", got.Table.Len(), got.DeclaredIDs)
	}
}

func TestLoadMiss(t *testing.T) {
	fs := memfs.New()
	h := rescache.Header{SourceDir: "/sdk/res", WithLocales: true, Version: "1.0"}
	if err := rescache.Save(fs, "c.bin", h, sampleContents(t)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	data, err := util.ReadFile(fs, "c.bin")
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	write := func(name string, b []byte) string {
		if err := util.WriteFile(fs, name, b, 0644); err != nil {
			t.Fatalf("WriteFile() failed: %v", err)
		}
		return name
	}
	testCases := []struct {
		test string
		path string
		want rescache.Header
	}{
		{"missing file", "absent.bin", h},
		{"source dir", "c.bin", rescache.Header{SourceDir: "/sdk/res2", WithLocales: true, Version: "1.0"}},
		{"locales", "c.bin", rescache.Header{SourceDir: "/sdk/res", Version: "1.0"}},
		{"version", "c.bin", rescache.Header{SourceDir: "/sdk/res", WithLocales: true, Version: "1.1"}},
		{"bad magic", write("magic.bin", append([]byte("XXXX"), data[4:]...)), h},
		{"truncated header", write("short.bin", data[:8]), h},
		{"truncated body", write("body.bin", data[:len(data)-3]), h},
		{"empty", write("empty.bin", nil), h},
		{"garbage body", write("garbage.bin", append(bytes.Clone(data[:headerLen(t, h)]), 0xff, 0xff, 0xff, 0xff, 0x0f)), h},
	}
	for _, tc := range testCases {
		t.Run(tc.test, func(t *testing.T) {
			c, err := rescache.Load(fs, tc.path, tc.want)
			if !errors.Is(err, rescache.ErrCacheMiss) {
				t.Errorf("Load() = %v, %v, want ErrCacheMiss", c, err)
			}
		})
	}
}

// headerLen returns the encoded size of h, found by saving an empty table
// and subtracting the size of its body.
func headerLen(t *testing.T, h rescache.Header) int {
	t.Helper()
	fs := memfs.New()
	tbl := table.New()
	tbl.Freeze()
	if err := rescache.Save(fs, "h.bin", h, &rescache.Contents{Table: tbl}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	b, err := util.ReadFile(fs, "h.bin")
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	// Empty body: namespace "", two null strings, zero configs, zero
	// namespaces, no declared ids.
	return len(b) - 6
}

func TestPath(t *testing.T) {
	got := rescache.Path("/tmp/cache", "/sdk/res", false)
	if dir := filepath.Join("/tmp/cache", rescache.DirName); filepath.Dir(got) != dir {
		t.Errorf("Path() dir = %s, want %s", filepath.Dir(got), dir)
	}
	base := filepath.Base(got)
	if len(base) != len("0123456789abcdef0123456789abcdef.bin") || !strings.HasSuffix(base, ".bin") {
		t.Errorf("Path() = %s, want md5 hex name", got)
	}
	withLocales := rescache.Path("/tmp/cache", "/sdk/res", true)
	if want := strings.TrimSuffix(got, ".bin") + "_L.bin"; withLocales != want {
		t.Errorf("Path(withLocales) = %s, want %s", withLocales, want)
	}
	if rescache.Path("/tmp/cache", "/sdk/res2", false) == got {
		t.Errorf("Path() collides for different source dirs")
	}
}

func TestSaveAsync(t *testing.T) {
	fs := memfs.New()
	h := rescache.Header{SourceDir: "/res"}
	c := sampleContents(t)
	w := rescache.SaveAsync(fs, "async/c.bin", h, c, nil)
	// The table stays readable while the write runs.
	if n := len(flatten(c.Table)); n != c.Table.Len() {
		t.Errorf("flatten() = %d items, want %d", n, c.Table.Len())
	}
	if err := w.Wait(); err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}
	if _, err := rescache.Load(fs, "async/c.bin", h); err != nil {
		t.Errorf("Load() after SaveAsync failed: %v", err)
	}
	var nilWrite *rescache.Write
	if err := nilWrite.Wait(); err != nil {
		t.Errorf("nil Wait() = %v", err)
	}
}
