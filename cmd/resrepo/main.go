// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/google/resrepo/cmd/resrepo/command/dump"
	"github.com/google/resrepo/cmd/resrepo/command/framework"
	"github.com/google/resrepo/cmd/resrepo/command/ids"
	"github.com/google/resrepo/cmd/resrepo/command/load"
	"github.com/google/resrepo/cmd/resrepo/command/xml"
	"github.com/google/resrepo/cmd/resrepo/settings"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "resrepo [subcommand]",
	Short: "Inspect Android resource repositories",
	// Silence errors because we will print the error ourselves in main.
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			s.LogLevel = logLevel
		}
		level, err := settings.ParseLevel(s.LogLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		logrus.SetOutput(cmd.ErrOrStderr())
		if s.CacheDir == "" {
			if s.CacheDir, err = settings.DefaultCacheDir(); err != nil {
				return errors.Wrap(err, "no cache directory configured")
			}
		}
		cmd.SetContext(settings.WithSettings(cmd.Context(), s))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML or TOML settings file (default "+settings.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level [debug, info, warning, error] (overrides the settings file)")
	rootCmd.AddCommand(dump.Command())
	rootCmd.AddCommand(framework.Command())
	rootCmd.AddCommand(ids.Command())
	rootCmd.AddCommand(xml.Command())
	rootCmd.AddCommand(load.Command())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
