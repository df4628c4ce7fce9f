// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package ids

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"slices"

	"github.com/google/resrepo/cmd/resrepo/command"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Config holds all configuration for the ids command.
type Config struct {
	Path      string
	Framework bool
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

// Handler prints the ids declared in the library's symbol file, sorted by
// name.
func Handler(ctx context.Context, cfg Config, deps *command.Base) error {
	r, err := deps.Load(cfg.Path, cfg.Framework)
	if err != nil {
		return errors.Wrapf(err, "loading %s", cfg.Path)
	}
	ids := r.DeclaredIDs()
	if ids == nil {
		deps.Log.WithField("path", cfg.Path).Warn("No symbol file")
	}
	for _, name := range slices.Sorted(maps.Keys(ids)) {
		fmt.Fprintf(deps.IO.Out, "%s 0x%08x\n", name, uint32(ids[name]))
	}
	return r.WaitForCache()
}

// Command creates a new ids command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "ids [--framework] <path>",
		Short: "List the ids declared by a library's symbol file",
		Args:  cobra.ExactArgs(1),
		RunE: command.RunE(
			&cfg,
			command.ExactArgs(1, func(c *Config, args []string) { c.Path = args[0] }),
			command.InitBase,
			Handler,
		),
	}
	cmd.Flags().AddGoFlagSet(flagSet(cmd.Name(), &cfg))
	return cmd
}

func flagSet(name string, cfg *Config) *flag.FlagSet {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	set.BoolVar(&cfg.Framework, "framework", false, "treat the path as the platform res directory")
	return set
}
