// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/resrepo/cmd/resrepo/settings"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type testConfig struct {
	Name string
}

func (c testConfig) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func testHandler(ctx context.Context, cfg testConfig, deps *Base) error {
	_, err := deps.IO.Out.Write([]byte("Hello " + cfg.Name + " " + deps.Settings.Version))
	return err
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	cfg := testConfig{}
	cmd := &cobra.Command{
		Use:  "test",
		RunE: RunE(&cfg, ExactArgs(1, func(c *testConfig, args []string) { c.Name = args[0] }), InitBase, testHandler),
	}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	return cmd, &out
}

func TestRunE(t *testing.T) {
	cmd, out := newTestCommand()
	cmd.SetArgs([]string{"World"})
	ctx := settings.WithSettings(context.Background(), &settings.Settings{Version: "v1"})
	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if got, want := out.String(), "Hello World v1"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRunEErrors(t *testing.T) {
	for _, args := range [][]string{{}, {"a", "b"}, {""}} {
		cmd, _ := newTestCommand()
		cmd.SetArgs(args)
		cmd.SilenceUsage = true
		if err := cmd.ExecuteContext(context.Background()); err == nil {
			t.Errorf("Execute(%q) succeeded", args)
		}
	}
}

func TestFrameworkOptions(t *testing.T) {
	b := &Base{Settings: &settings.Settings{CacheDir: "/c", WithLocales: true, Version: "3", Strict: true}}
	got := b.FrameworkOptions()
	if got.CacheDir != "/c" || !got.WithLocales || got.Version != "3" || !got.Strict {
		t.Errorf("FrameworkOptions() = %+v", got)
	}
}
