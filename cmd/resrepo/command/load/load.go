// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package load

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/cheggaaa/pb"
	"github.com/google/resrepo/cmd/resrepo/command"
	"github.com/google/resrepo/pkg/repository"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Config holds all configuration for the load command.
type Config struct {
	Paths    []string
	Jobs     int
	Progress bool
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if len(c.Paths) == 0 {
		return errors.New("at least one path is required")
	}
	if c.Jobs < 1 {
		return errors.New("jobs must be positive")
	}
	return nil
}

// Result is the outcome of loading one path.
type Result struct {
	Path string
	Repo *repository.Repository
	Err  error
}

// Deps holds dependencies for the load command.
type Deps struct {
	*command.Base
	Factory repository.Factory
}

// InitDeps initializes Deps that load libraries from the host filesystem.
func InitDeps(ctx context.Context) (*Deps, error) {
	base, err := command.InitBase(ctx)
	if err != nil {
		return nil, err
	}
	return &Deps{Base: base, Factory: repository.LibraryFactory(base.Options())}, nil
}

// LoadAll loads every path through one shared cache, at most jobs at a time.
// A failure is recorded in its Result and does not stop the other loads.
func LoadAll(ctx context.Context, c *repository.Cache, paths []string, jobs int, bar *pb.ProgressBar) []Result {
	results := make([]Result, len(paths))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, p := range paths {
		results[i].Path = p
		g.Go(func() error {
			if bar != nil {
				defer bar.Increment()
			}
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Repo, results[i].Err = c.GetOrCreate(p, filepath.Base(p))
			return nil
		})
	}
	g.Wait()
	return results
}

// Handler loads libraries concurrently and prints one line per path.
func Handler(ctx context.Context, cfg Config, deps *Deps) error {
	paths := make([]string, len(cfg.Paths))
	for i, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return errors.Wrapf(err, "resolving %s", p)
		}
		paths[i] = abs
	}
	c := repository.NewCache(deps.Factory, deps.Log)
	var bar *pb.ProgressBar
	if cfg.Progress {
		bar = pb.New(len(paths))
		bar.Output = deps.IO.Err
		bar.ShowTimeLeft = true
		bar.Start()
	}
	results := LoadAll(ctx, c, paths, cfg.Jobs, bar)
	if bar != nil {
		bar.Finish()
	}
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			deps.Log.WithFields(logrus.Fields{"path": r.Path, "error": r.Err}).Error("Load failed")
			fmt.Fprintf(deps.IO.Out, "%s: error: %v\n", r.Path, r.Err)
			continue
		}
		fmt.Fprintf(deps.IO.Out, "%s: %s (%s) %d items\n", r.Path, r.Repo.DisplayName(), r.Repo.PackageName(), r.Repo.Len())
	}
	if failed > 0 {
		return errors.Errorf("%d of %d loads failed", failed, len(results))
	}
	return nil
}

// Command creates a new load command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "load [--jobs <n>] [--progress] <path>...",
		Short: "Load several libraries concurrently through a shared repository cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: command.RunE(
			&cfg,
			func(c *Config, args []string) error {
				c.Paths = args
				return nil
			},
			InitDeps,
			Handler,
		),
	}
	cmd.Flags().AddGoFlagSet(flagSet(cmd.Name(), &cfg))
	return cmd
}

func flagSet(name string, cfg *Config) *flag.FlagSet {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	set.IntVar(&cfg.Jobs, "jobs", 4, "maximum number of concurrent loads")
	set.BoolVar(&cfg.Progress, "progress", false, "show a progress bar on stderr")
	return set
}
