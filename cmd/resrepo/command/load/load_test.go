// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package load

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cheggaaa/pb"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
	"github.com/google/resrepo/cmd/resrepo/command"
	"github.com/google/resrepo/pkg/repository"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
)

func setup(t *testing.T) (repository.Factory, *atomic.Int32) {
	t.Helper()
	fs := memfs.New()
	for name, content := range map[string]string{
		"/libs/core/AndroidManifest.xml":    `<manifest package="com.example.core"/>`,
		"/libs/core/res/values/strings.xml": `<resources><string name="a">A</string><string name="b">B</string></resources>`,
		"/libs/ui/AndroidManifest.xml":      `<manifest package="com.example.ui"/>`,
		"/libs/ui/res/values/colors.xml":    `<resources><color name="c">#fff</color></resources>`,
	} {
		if err := util.WriteFile(fs, name, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	var calls atomic.Int32
	factory := repository.LibraryFactory(repository.Options{FS: fs})
	return func(p, name string) (*repository.Repository, error) {
		calls.Add(1)
		return factory(p, name)
	}, &calls
}

func TestLoadAll(t *testing.T) {
	factory, calls := setup(t)
	log, _ := test.NewNullLogger()
	c := repository.NewCache(factory, log)
	paths := []string{"/libs/core", "/libs/ui", "/libs/core", "/libs/missing"}
	bar := pb.New(len(paths))
	bar.Output = io.Discard
	results := LoadAll(context.Background(), c, paths, 2, bar)
	var got []string
	for _, r := range results {
		if r.Err != nil {
			if !errors.Is(r.Err, repository.ErrNoResourceRoot) {
				t.Errorf("LoadAll(%s) error = %v, want ErrNoResourceRoot", r.Path, r.Err)
			}
			got = append(got, r.Path+" error")
			continue
		}
		got = append(got, r.Path+" "+r.Repo.PackageName())
	}
	want := []string{"/libs/core com.example.core", "/libs/ui com.example.ui", "/libs/core com.example.core", "/libs/missing error"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadAll() mismatch (-want +got):\n%s", diff)
	}
	if results[0].Repo != results[2].Repo {
		t.Errorf("LoadAll() built the same path twice")
	}
	// The missing path is not cached, so it is the only one that may be retried.
	if n := calls.Load(); n != 3 {
		t.Errorf("factory calls = %d, want 3", n)
	}
	if got := bar.Get(); got != int64(len(paths)) {
		t.Errorf("progress = %d, want %d", got, len(paths))
	}
}

func TestLoadAllCanceled(t *testing.T) {
	factory, calls := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := LoadAll(ctx, repository.NewCache(factory, nil), []string{"/libs/core"}, 1, nil)
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("LoadAll() error = %v, want context.Canceled", results[0].Err)
	}
	if calls.Load() != 0 {
		t.Errorf("factory called after cancellation")
	}
}

func TestHandler(t *testing.T) {
	factory, _ := setup(t)
	log, hook := test.NewNullLogger()
	var out bytes.Buffer
	deps := &Deps{Base: &command.Base{Log: log}, Factory: factory}
	deps.SetIO(command.IO{Out: &out, Err: io.Discard})
	err := Handler(context.Background(), Config{Paths: []string{"/libs/ui", "/libs/missing"}, Jobs: 1}, deps)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 loads failed") {
		t.Errorf("Handler() error = %v, want 1 of 2 failed", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Handler() wrote %d lines, want 2:\n%s", len(lines), out.String())
	}
	if want := "/libs/ui: ui (com.example.ui) 1 items"; lines[0] != want {
		t.Errorf("line 0 = %q, want %q", lines[0], want)
	}
	if !strings.HasPrefix(lines[1], "/libs/missing: error:") {
		t.Errorf("line 1 = %q, want an error line", lines[1])
	}
	if len(hook.Entries) != 1 || hook.LastEntry().Message != "Load failed" {
		t.Errorf("log entries = %v, want one load failure", hook.AllEntries())
	}
}

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		cfg  Config
		want bool
	}{
		{Config{Paths: []string{"a"}, Jobs: 1}, true},
		{Config{Jobs: 1}, false},
		{Config{Paths: []string{"a"}}, false},
	} {
		if got := tc.cfg.Validate() == nil; got != tc.want {
			t.Errorf("%+v.Validate() ok = %v, want %v", tc.cfg, got, tc.want)
		}
	}
}
