// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package settings reads the resrepo configuration file.
package settings

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v3"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "~/.resrepo.yaml"

// Settings are the file-backed defaults shared by every command. Flags given
// on the command line take precedence.
type Settings struct {
	CacheDir    string `yaml:"cache_dir" toml:"cache_dir"`
	WithLocales bool   `yaml:"with_locales" toml:"with_locales"`
	Version     string `yaml:"version" toml:"version"`
	LogLevel    string `yaml:"log_level" toml:"log_level"`
	Strict      bool   `yaml:"strict" toml:"strict"`
}

// Load reads the settings at path, which may start with "~". Files ending in
// .toml are read as TOML and everything else as YAML. A missing file at the
// default path yields zero settings.
func Load(path string) (*Settings, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "expanding %s", path)
	}
	data, err := os.ReadFile(expanded)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return &Settings{}, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	s, err := Parse(data, strings.EqualFold(filepath.Ext(expanded), ".toml"))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", expanded)
	}
	if s.CacheDir != "" {
		if s.CacheDir, err = homedir.Expand(s.CacheDir); err != nil {
			return nil, errors.Wrapf(err, "expanding %s", s.CacheDir)
		}
	}
	return s, nil
}

// Parse decodes settings from YAML, or TOML when isTOML is set. Unknown keys
// are rejected.
func Parse(data []byte, isTOML bool) (*Settings, error) {
	s := &Settings{}
	if isTOML {
		d := toml.NewDecoder(bytes.NewReader(data))
		d.DisallowUnknownFields()
		if err := d.Decode(s); err != nil {
			return nil, err
		}
		return s, nil
	}
	d := yaml.NewDecoder(bytes.NewReader(data))
	d.KnownFields(true)
	if err := d.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return s, nil
}

// DefaultCacheDir returns the per-user cache directory for resrepo.
func DefaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(err, "locating cache directory")
	}
	return filepath.Join(dir, "resrepo"), nil
}

// ParseLevel maps a level name to a logrus level. Empty means info.
func ParseLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return logrus.InfoLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	case "warning", "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	}
	return 0, errors.Errorf("unknown log level %q", level)
}

type contextKey struct{}

// WithSettings returns a context carrying s.
func WithSettings(ctx context.Context, s *Settings) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the settings carried by ctx, or zero settings.
func FromContext(ctx context.Context) *Settings {
	if s, ok := ctx.Value(contextKey{}).(*Settings); ok {
		return s
	}
	return &Settings{}
}
