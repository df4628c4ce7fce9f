// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package dump

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/google/resrepo/cmd/resrepo/command"
	"github.com/google/resrepo/pkg/repository"
	"github.com/google/resrepo/pkg/resource"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Config holds all configuration for the dump command.
type Config struct {
	Path      string
	JSON      bool
	Framework bool
	Type      string
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.Path == "" {
		return errors.New("path is required")
	}
	if c.Type != "" {
		if _, ok := resource.ParseType(c.Type); !ok {
			return errors.Errorf("unknown resource type %q", c.Type)
		}
	}
	return nil
}

// Record is the JSON form of one item.
type Record struct {
	Index      int            `json:"index"`
	Namespace  string         `json:"namespace"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Config     string         `json:"config"`
	Visibility string         `json:"visibility"`
	Value      string         `json:"value"`
	URL        string         `json:"url,omitempty"`
	Payload    resource.Value `json:"payload"`
}

// Records lists the repository's items, optionally restricted to one type.
func Records(r *repository.Repository, typ resource.Type) []Record {
	var out []Record
	for ns, it := range r.All() {
		if typ != resource.Unknown && it.Type != typ {
			continue
		}
		rec := Record{
			Index:      it.Index,
			Namespace:  string(ns),
			Type:       it.Type.String(),
			Name:       it.Name,
			Config:     it.Configuration().String(),
			Visibility: it.Visibility.String(),
			Value:      Describe(it.Value),
			Payload:    it.Value,
		}
		rec.URL, _ = r.ResourceURL(it)
		out = append(out, rec)
	}
	return out
}

// Describe renders a value on one line.
func Describe(v resource.Value) string {
	switch v := v.(type) {
	case *resource.TextValue:
		if v.Null {
			return "@null"
		}
		if v.RawXML != "" {
			return fmt.Sprintf("%q (xml %q)", v.Text, v.RawXML)
		}
		return fmt.Sprintf("%q", v.Text)
	case *resource.FileValue:
		return v.Path
	case *resource.ArrayValue:
		return fmt.Sprintf("%q", v.Elements)
	case *resource.PluralValue:
		var parts []string
		for _, p := range v.Items {
			parts = append(parts, fmt.Sprintf("%v=%q", p.Quantity, p.Value))
		}
		return "{" + strings.Join(parts, " ") + "}"
	case *resource.AttrValue:
		var parts []string
		for _, s := range v.Symbols {
			if s.Value != nil {
				parts = append(parts, fmt.Sprintf("%s=%d", s.Name, *s.Value))
			} else {
				parts = append(parts, s.Name)
			}
		}
		return fmt.Sprintf("format=%v {%s}", v.Formats, strings.Join(parts, " "))
	case *resource.AttrRefValue:
		return "ref " + string(v.Namespace)
	case *resource.StyleValue:
		var parts []string
		for _, si := range v.Items {
			parts = append(parts, fmt.Sprintf("%s:%s=%s", si.Namespace.PackageName(), si.Attr, si.Value))
		}
		return fmt.Sprintf("parent=%s {%s}", v.Parent, strings.Join(parts, " "))
	case *resource.StyleableValue:
		var parts []string
		for _, a := range v.Attrs {
			parts = append(parts, a.Namespace.PackageName()+":"+a.Name)
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return fmt.Sprintf("%v", v)
}

var (
	typeColor = color.New(color.FgCyan).SprintFunc()
	cfgColor  = color.New(color.FgYellow).SprintFunc()
)

func writeText(w io.Writer, r *repository.Repository, recs []Record) error {
	fmt.Fprintf(w, "library %q package %q namespace %s: %d items\n", r.DisplayName(), r.PackageName(), r.Namespace(), r.Len())
	for _, rec := range recs {
		line := fmt.Sprintf("%s/%s [%s] %s = %s", typeColor(rec.Type), rec.Name, cfgColor(rec.Config), rec.Visibility, rec.Value)
		if rec.URL != "" {
			line += " <" + rec.URL + ">"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Handler contains the business logic for the dump command.
func Handler(ctx context.Context, cfg Config, deps *command.Base) error {
	r, err := deps.Load(cfg.Path, cfg.Framework)
	if err != nil {
		return errors.Wrapf(err, "loading %s", cfg.Path)
	}
	typ, _ := resource.ParseType(cfg.Type)
	recs := Records(r, typ)
	if cfg.JSON {
		enc := json.NewEncoder(deps.IO.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(recs); err != nil {
			return errors.Wrap(err, "encoding json")
		}
	} else if err := writeText(deps.IO.Out, r, recs); err != nil {
		return errors.Wrap(err, "writing items")
	}
	return r.WaitForCache()
}

// Command creates a new dump command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "dump [--json] [--framework] [--type <type>] <path>",
		Short: "List the resources of a library, res directory, or framework",
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
	set.BoolVar(&cfg.JSON, "json", false, "write items as JSON")
	set.BoolVar(&cfg.Framework, "framework", false, "treat the path as the platform res directory")
	set.StringVar(&cfg.Type, "type", "", "only list items of this resource type")
	return set
}
