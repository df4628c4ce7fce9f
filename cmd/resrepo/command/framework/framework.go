// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package framework

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/resrepo/cmd/resrepo/command"
	"github.com/google/resrepo/pkg/repository"
	"github.com/google/resrepo/pkg/rescache"
	"github.com/google/resrepo/pkg/resource"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Config holds all configuration for the framework command.
type Config struct {
	ResDir      string
	CacheDir    string
	WithLocales bool
	Version     string
	NoCache     bool
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.ResDir == "" {
		return errors.New("res directory is required")
	}
	return nil
}

// Handler loads the framework resources, waits for any cache write, and
// prints a summary.
func Handler(ctx context.Context, cfg Config, deps *command.Base) error {
	opts := deps.FrameworkOptions()
	if cfg.CacheDir != "" {
		opts.CacheDir = cfg.CacheDir
	}
	if cfg.Version != "" {
		opts.Version = cfg.Version
	}
	opts.WithLocales = opts.WithLocales || cfg.WithLocales
	if cfg.NoCache {
		opts.CacheDir = ""
	}
	resDir, err := filepath.Abs(cfg.ResDir)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", cfg.ResDir)
	}
	start := time.Now()
	r, err := repository.LoadFramework(resDir, opts)
	if err != nil {
		return err
	}
	loaded := time.Since(start)
	source := "parsed"
	if r.FromCache() {
		source = "cache"
	}
	fmt.Fprintf(deps.IO.Out, "%s: %d items from %s in %v\n", resDir, r.Len(), source, loaded.Round(time.Millisecond))
	for _, t := range r.Types(resource.Android) {
		fmt.Fprintf(deps.IO.Out, "  %-12s %d names, %d public\n", t, len(r.Names(resource.Android, t)), len(r.PublicNames(t)))
	}
	if err := r.WaitForCache(); err != nil {
		return errors.Wrap(err, "writing cache")
	}
	if opts.CacheDir != "" && !r.FromCache() {
		fmt.Fprintf(deps.IO.Out, "wrote %s\n", rescache.Path(opts.CacheDir, resDir, opts.WithLocales))
	}
	return nil
}

// Command creates a new framework command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "framework [--cache-dir <dir>] [--with-locales] [--no-cache] <res-dir>",
		Short: "Load the platform resources through the binary cache",
		Args:  cobra.ExactArgs(1),
		RunE: command.RunE(
			&cfg,
			command.ExactArgs(1, func(c *Config, args []string) { c.ResDir = args[0] }),
			command.InitBase,
			Handler,
		),
	}
	cmd.Flags().AddGoFlagSet(flagSet(cmd.Name(), &cfg))
	return cmd
}

func flagSet(name string, cfg *Config) *flag.FlagSet {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	set.StringVar(&cfg.CacheDir, "cache-dir", "", "directory holding cache files (overrides the config file)")
	set.BoolVar(&cfg.WithLocales, "with-locales", false, "include locale-qualified folders")
	set.StringVar(&cfg.Version, "cache-version", "", "version recorded in the cache header (overrides the config file)")
	set.BoolVar(&cfg.NoCache, "no-cache", false, "neither read nor write the cache")
	return set
}
