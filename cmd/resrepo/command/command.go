// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package command wires resrepo subcommands into cobra. Each subcommand is a
// validated Config, a dependency container, and a Handler.
package command

import (
	"context"
	"io"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/google/resrepo/cmd/resrepo/settings"
	"github.com/google/resrepo/pkg/repository"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Input is a validated command configuration.
type Input interface {
	Validate() error
}

// IO holds the output streams of a command.
type IO struct {
	Out io.Writer
	Err io.Writer
}

// Deps is a dependency container that receives the command's streams.
type Deps interface {
	SetIO(IO)
}

// ParseArgs populates an Input from positional arguments.
type ParseArgs[I Input] func(in *I, args []string) error

// Handler runs a command.
type Handler[I Input, D Deps] func(context.Context, I, D) error

// RunE constructs a cobra.Command.RunE: it parses positional arguments,
// validates the Input, initializes dependencies, attaches the command's
// streams, and runs the handler.
func RunE[I Input, D Deps](
	cfg *I,
	parseArgs ParseArgs[I],
	initDeps func(context.Context) (D, error),
	handler Handler[I, D],
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := parseArgs(cfg, args); err != nil {
			return err
		}
		if err := (*cfg).Validate(); err != nil {
			return err
		}
		deps, err := initDeps(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "initializing dependencies")
		}
		deps.SetIO(IO{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()})
		return handler(cmd.Context(), *cfg, deps)
	}
}

// Base is the dependency container shared by every subcommand.
type Base struct {
	IO       IO
	Settings *settings.Settings
	Log      logrus.FieldLogger
	// FS is the filesystem repositories are read from. Nil means the host.
	FS billy.Filesystem
}

func (b *Base) SetIO(cio IO) { b.IO = cio }

// InitBase builds a Base from the settings carried by ctx.
func InitBase(ctx context.Context) (*Base, error) {
	return &Base{Settings: settings.FromContext(ctx), Log: logrus.StandardLogger()}, nil
}

// Options returns repository options derived from the settings.
func (b *Base) Options() repository.Options {
	return repository.Options{FS: b.FS, Strict: b.Settings.Strict, Logger: b.Log}
}

// FrameworkOptions returns framework options derived from the settings.
func (b *Base) FrameworkOptions() repository.FrameworkOptions {
	return repository.FrameworkOptions{
		Options:     b.Options(),
		CacheDir:    b.Settings.CacheDir,
		WithLocales: b.Settings.WithLocales,
		Version:     b.Settings.Version,
	}
}

// Load opens p as a framework res directory when framework is set, as a
// source res directory when it is named "res", and as a library otherwise.
func (b *Base) Load(p string, framework bool) (*repository.Repository, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", p)
	}
	switch {
	case framework:
		return repository.LoadFramework(abs, b.FrameworkOptions())
	case filepath.Base(abs) == "res":
		return repository.LoadFolder(abs, b.Options())
	default:
		return repository.LoadLibrary(abs, b.Options())
	}
}

// ExactArgs returns a ParseArgs that requires n arguments and hands them to
// set.
func ExactArgs[I Input](n int, set func(in *I, args []string)) ParseArgs[I] {
	return func(in *I, args []string) error {
		if len(args) != n {
			return errors.Errorf("expected exactly %d argument(s), got %d", n, len(args))
		}
		set(in, args)
		return nil
	}
}
