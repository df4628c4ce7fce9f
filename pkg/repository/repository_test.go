// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package repository_test

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
	"github.com/google/resrepo/pkg/archive"
	"github.com/google/resrepo/pkg/archive/archivetest"
	"github.com/google/resrepo/pkg/loader/protores"
	"github.com/google/resrepo/pkg/repository"
	"github.com/google/resrepo/pkg/rescache"
	"github.com/google/resrepo/pkg/resource"
	"github.com/google/resrepo/pkg/resproto"
	"github.com/google/resrepo/pkg/resproto/resprototest"
	"github.com/pkg/errors"
)

func writeFiles(t *testing.T, fs billy.Filesystem, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := util.WriteFile(fs, name, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile(%s) failed: %v", name, err)
		}
	}
}

func texts(items []*resource.Item) map[string]string {
	out := make(map[string]string)
	for _, it := range items {
		out[it.Configuration().String()] = it.Value.(*resource.TextValue).Text
	}
	return out
}

var libraryFiles = map[string]string{
	"/lib/R.txt":                      "int id button 0x7f0a0001\n",
	"/lib/AndroidManifest.xml":        `<manifest package="com.example.lib"/>`,
	"/lib/res/values/strings.xml":     `<resources><string name="app_name">Foo</string></resources>`,
	"/lib/res/values-fr/strings.xml":  `<resources><string name="app_name">Fou</string></resources>`,
	"/lib/res/drawable-hdpi/icon.png": "png",
}

func TestLoadFolder(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, libraryFiles)
	r, err := repository.LoadFolder("/lib/res", repository.Options{FS: fs, LibraryName: "com.example:lib:1.0"})
	if err != nil {
		t.Fatalf("LoadFolder() failed: %v", err)
	}
	want := map[string]string{"default": "Foo", "fr": "Fou"}
	if diff := cmp.Diff(want, texts(r.Items(resource.ResAuto, resource.String, "app_name"))); diff != "" {
		t.Errorf("Items(string/app_name) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]resource.Type{resource.Drawable, resource.String}, r.Types(resource.ResAuto)); diff != "" {
		t.Errorf("Types() mismatch (-want +got):\n%s", diff)
	}
	if r.PackageName() != "com.example.lib" || r.LibraryName() != "com.example:lib:1.0" || r.DisplayName() != "com.example:lib:1.0" {
		t.Errorf("metadata = %q/%q/%q", r.PackageName(), r.LibraryName(), r.DisplayName())
	}
	if diff := cmp.Diff(map[string]int32{"button": 0x7f0a0001}, r.DeclaredIDs()); diff != "" {
		t.Errorf("DeclaredIDs() mismatch (-want +got):\n%s", diff)
	}
	icon := r.Items(resource.ResAuto, resource.Drawable, "icon")[0]
	if got, ok := r.ResourceURL(icon); !ok || got != "file:///lib/res/drawable-hdpi/icon.png" {
		t.Errorf("ResourceURL(icon) = %q, %v", got, ok)
	}
	appName := r.Items(resource.ResAuto, resource.String, "app_name")[0]
	if _, ok := r.ResourceURL(appName); ok {
		t.Errorf("ResourceURL(string) succeeded")
	}
	if r.ItemAt(appName.Index) != appName || !r.Owns(appName) {
		t.Errorf("ItemAt(%d) does not return the item", appName.Index)
	}
	if err := r.WaitForCache(); err != nil {
		t.Errorf("WaitForCache() = %v without a cache write", err)
	}
}

func TestLoadFolderMissingRoot(t *testing.T) {
	_, err := repository.LoadFolder("/missing/res", repository.Options{FS: memfs.New()})
	if !errors.Is(err, repository.ErrNoResourceRoot) {
		t.Errorf("LoadFolder() = %v, want ErrNoResourceRoot", err)
	}
	_, err = repository.LoadLibrary("/missing", repository.Options{FS: memfs.New()})
	if !errors.Is(err, repository.ErrNoResourceRoot) {
		t.Errorf("LoadLibrary() = %v, want ErrNoResourceRoot", err)
	}
}

func compiledTable() *resproto.ResourceTable {
	return &resproto.ResourceTable{Packages: []*resproto.Package{{
		ID:   0x7f,
		Name: "com.example.aar",
		Types: []*resproto.Type{
			{Name: "string", Entries: []*resproto.Entry{{
				Name: "app_name",
				ConfigValues: []*resproto.ConfigValue{
					{Config: &resproto.Configuration{}, Value: &resproto.Value{Item: &resproto.Item{Kind: resproto.ItemString, Str: "Foo"}}},
					{Config: &resproto.Configuration{Locale: "fr"}, Value: &resproto.Value{Item: &resproto.Item{Kind: resproto.ItemString, Str: "Fou"}}},
				},
			}}},
			{Name: "layout", Entries: []*resproto.Entry{{
				Name: "main",
				ConfigValues: []*resproto.ConfigValue{{
					Config: &resproto.Configuration{},
					Value: &resproto.Value{Item: &resproto.Item{
						Kind: resproto.ItemFile,
						File: &resproto.FileReference{Path: "res/layout/main.xml"},
					}},
				}},
			}}},
		},
	}}}
}

func TestLoadLibrary(t *testing.T) {
	buf, err := archivetest.ZipFile([]archive.ZipEntry{
		archivetest.Entry(protores.TableEntry, resprototest.MarshalResourceTable(compiledTable())),
	})
	if err != nil {
		t.Fatalf("ZipFile() failed: %v", err)
	}
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"/aar/res.apk": buf.String(),
		"/aar/R.txt":   "int id title 0x7f0a0002\n",
	})
	r, err := repository.LoadLibrary("/aar", repository.Options{FS: fs, LibraryName: "aar"})
	if err != nil {
		t.Fatalf("LoadLibrary() failed: %v", err)
	}
	want := map[string]string{"default": "Foo", "fr": "Fou"}
	if diff := cmp.Diff(want, texts(r.Items(resource.ResAuto, resource.String, "app_name"))); diff != "" {
		t.Errorf("Items(string/app_name) mismatch (-want +got):\n%s", diff)
	}
	if !r.Packed() {
		t.Errorf("Packed() = false for an archive")
	}
	main := r.Items(resource.ResAuto, resource.Layout, "main")[0]
	if got, ok := r.ResourceURL(main); !ok || got != "apk:///aar/res.apk!/res/layout/main.xml" {
		t.Errorf("ResourceURL(main) = %q, %v", got, ok)
	}
	if diff := cmp.Diff(map[string]int32{"title": 0x7f0a0002}, r.DeclaredIDs()); diff != "" {
		t.Errorf("DeclaredIDs() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLibraryFolderAndEmpty(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, libraryFiles)
	if err := fs.MkdirAll("/empty", 0755); err != nil {
		t.Fatalf("MkdirAll() failed: %v", err)
	}
	r, err := repository.LoadLibrary("/lib", repository.Options{FS: fs})
	if err != nil {
		t.Fatalf("LoadLibrary(/lib) failed: %v", err)
	}
	if got := len(r.Items(resource.ResAuto, resource.String, "app_name")); got != 2 {
		t.Errorf("LoadLibrary(/lib) found %d app_name items, want 2", got)
	}
	r, err = repository.LoadLibrary("/empty", repository.Options{FS: fs})
	if err != nil {
		t.Fatalf("LoadLibrary(/empty) failed: %v", err)
	}
	if r.Len() != 0 || r.Types(resource.ResAuto) != nil {
		t.Errorf("LoadLibrary(/empty) = %d items, want an empty repository", r.Len())
	}
}

func TestLoadFramework(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"/sdk/data/res/values/public.xml":     `<resources><public type="string" name="ok"/></resources>`,
		"/sdk/data/res/values/strings.xml":    `<resources><string name="ok">OK</string><string name="cancel">Cancel</string></resources>`,
		"/sdk/data/res/values-de/strings.xml": `<resources><string name="ok">Ja</string></resources>`,
	})
	opts := repository.FrameworkOptions{
		Options:  repository.Options{FS: fs},
		CacheDir: "/cache",
		Version:  "1",
	}
	first, err := repository.LoadFramework("/sdk/data/res", opts)
	if err != nil {
		t.Fatalf("LoadFramework() failed: %v", err)
	}
	if first.FromCache() {
		t.Errorf("first load came from the cache")
	}
	if err := first.WaitForCache(); err != nil {
		t.Fatalf("WaitForCache() failed: %v", err)
	}
	if _, err := fs.Stat(rescache.Path("/cache", "/sdk/data/res", false)); err != nil {
		t.Errorf("cache file not written: %v", err)
	}
	if got := texts(first.Items(resource.Android, resource.String, "ok")); len(got) != 1 {
		t.Errorf("locale folders loaded without WithLocales: %v", got)
	}

	second, err := repository.LoadFramework("/sdk/data/res", opts)
	if err != nil {
		t.Fatalf("LoadFramework() failed: %v", err)
	}
	if !second.FromCache() {
		t.Errorf("second load did not use the cache")
	}
	for _, r := range []*repository.Repository{first, second} {
		if r.Namespace() != resource.Android || r.LibraryName() != "android" || r.PackageName() != "android" {
			t.Errorf("metadata = %v/%q/%q", r.Namespace(), r.LibraryName(), r.PackageName())
		}
		if diff := cmp.Diff([]string{"ok"}, r.PublicNames(resource.String)); diff != "" {
			t.Errorf("PublicNames() mismatch (-want +got):\n%s", diff)
		}
	}

	opts.WithLocales = true
	third, err := repository.LoadFramework("/sdk/data/res", opts)
	if err != nil {
		t.Fatalf("LoadFramework(WithLocales) failed: %v", err)
	}
	if third.FromCache() {
		t.Errorf("WithLocales load used the locale-free cache")
	}
	want := map[string]string{"default": "OK", "de": "Ja"}
	if diff := cmp.Diff(want, texts(third.Items(resource.Android, resource.String, "ok"))); diff != "" {
		t.Errorf("Items(string/ok) mismatch (-want +got):\n%s", diff)
	}
	if err := third.WaitForCache(); err != nil {
		t.Errorf("WaitForCache() failed: %v", err)
	}
}

func TestLoadFrameworkCleansPath(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"/sdk/res/values/strings.xml": `<resources><string name="ok">OK</string></resources>`,
	})
	opts := repository.FrameworkOptions{Options: repository.Options{FS: fs}, CacheDir: "/cache", Version: "1"}
	r, err := repository.LoadFramework("/sdk/other/../res/", opts)
	if err != nil {
		t.Fatalf("LoadFramework() failed: %v", err)
	}
	if err := r.WaitForCache(); err != nil {
		t.Fatalf("WaitForCache() failed: %v", err)
	}
	if _, err := fs.Stat(rescache.Path("/cache", "/sdk/res", false)); err != nil {
		t.Errorf("cache file not keyed by the clean path: %v", err)
	}
	r, err = repository.LoadFramework("/sdk/res", opts)
	if err != nil {
		t.Fatalf("LoadFramework() failed: %v", err)
	}
	if !r.FromCache() {
		t.Errorf("load through the clean path missed the cache")
	}
}

func TestLoadFrameworkVersionMismatch(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"/res/values/strings.xml": `<resources><string name="ok">OK</string></resources>`,
	})
	opts := repository.FrameworkOptions{Options: repository.Options{FS: fs}, CacheDir: "/cache", Version: "1"}
	r, err := repository.LoadFramework("/res", opts)
	if err != nil {
		t.Fatalf("LoadFramework() failed: %v", err)
	}
	if err := r.WaitForCache(); err != nil {
		t.Fatalf("WaitForCache() failed: %v", err)
	}
	opts.Version = "2"
	r, err = repository.LoadFramework("/res", opts)
	if err != nil {
		t.Fatalf("LoadFramework() failed: %v", err)
	}
	if r.FromCache() {
		t.Errorf("load with a new version used a stale cache file")
	}
	if err := r.WaitForCache(); err != nil {
		t.Errorf("WaitForCache() failed: %v", err)
	}
}
