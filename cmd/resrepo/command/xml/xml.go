// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package xml

import (
	"context"
	"flag"
	"io"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/resrepo/cmd/resrepo/command"
	"github.com/google/resrepo/pkg/archive"
	"github.com/google/resrepo/pkg/resproto"
	"github.com/google/resrepo/pkg/xmlpull"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Config holds all configuration for the xml command.
type Config struct {
	Archive string
	Entry   string
	Raw     bool
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.Archive == "" {
		return errors.New("archive is required")
	}
	if c.Entry == "" && !c.Raw {
		return errors.New("entry is required unless --raw is set")
	}
	return nil
}

// Deps holds dependencies for the xml command.
type Deps struct {
	*command.Base
	FS billy.Filesystem
}

// InitDeps initializes Deps rooted at the host filesystem.
func InitDeps(ctx context.Context) (*Deps, error) {
	base, err := command.InitBase(ctx)
	if err != nil {
		return nil, err
	}
	return &Deps{Base: base, FS: osfs.New("/")}, nil
}

// Handler decodes a compiled XML document and prints it as text.
func Handler(ctx context.Context, cfg Config, deps *Deps) error {
	p, err := filepath.Abs(cfg.Archive)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", cfg.Archive)
	}
	var b []byte
	if cfg.Raw {
		f, err := deps.FS.Open(p)
		if err != nil {
			return errors.Wrapf(err, "opening %s", p)
		}
		defer f.Close()
		if b, err = io.ReadAll(f); err != nil {
			return errors.Wrapf(err, "reading %s", p)
		}
	} else {
		z, err := archive.OpenZip(deps.FS, p)
		if err != nil {
			return err
		}
		defer z.Close()
		b, err = archive.ReadEntry(z.Reader, cfg.Entry)
		if err != nil {
			return err
		}
	}
	root, err := resproto.UnmarshalXMLNode(b)
	if err != nil {
		return errors.Wrap(err, "decoding xml node")
	}
	return xmlpull.Render(deps.IO.Out, root)
}

// Command creates a new xml command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "xml [--raw] <archive> [<entry>]",
		Short: "Print a compiled XML resource from an archive",
		Args:  cobra.RangeArgs(1, 2),
		RunE: command.RunE(
			&cfg,
			func(c *Config, args []string) error {
				c.Archive = args[0]
				if len(args) > 1 {
					c.Entry = args[1]
				}
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
	set.BoolVar(&cfg.Raw, "raw", false, "treat the path as a serialized node rather than an archive")
	return set
}
