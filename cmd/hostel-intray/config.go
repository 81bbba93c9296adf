/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/cristianoliveira/hostel-intray/cmd"
	"github.com/cristianoliveira/hostel-intray/internal/colors"
	"github.com/cristianoliveira/hostel-intray/internal/config"
	"github.com/spf13/cobra"
)

// PrintConfig writes the effective configuration as key = value lines.
// The token is masked.
func PrintConfig(w io.Writer, values map[string]string) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := values[k]
		if k == "auth_token" && v != "" {
			v = "********"
		}
		fmt.Fprintf(w, "%s = %q\n", k, v)
	}
}

func defaultConfigPath() string {
	return filepath.Join(config.Get("config_dir", ""), "config"+config.FileExtTOML)
}

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize configuration",
		Long: `Show or initialize configuration.

USAGE:
    hostel-intray config show
    hostel-intray config path
    hostel-intray config init [--path <file>]`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			PrintConfig(c.OutOrStdout(), config.All())
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			fmt.Fprintln(c.OutOrStdout(), defaultConfigPath())
		},
	}

	var path string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Long:  `Write the default configuration to a TOML file. An existing file is left untouched.`,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if path == "" {
				path = defaultConfigPath()
			}
			if err := config.WriteSample(path); err != nil {
				return fmt.Errorf("config init: %w", err)
			}
			colors.Success("Configuration at " + path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "File to write")

	configCmd.AddCommand(showCmd, pathCmd, initCmd)
	return configCmd
}

// configCmd represents the config command
var configCmd = NewConfigCmd()

func init() {
	cmd.RootCmd.AddCommand(configCmd)
}
