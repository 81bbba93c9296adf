/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/cristianoliveira/hostel-intray/internal/colors"
	"github.com/cristianoliveira/hostel-intray/internal/config"
	"github.com/cristianoliveira/hostel-intray/internal/logging"
	"github.com/cristianoliveira/hostel-intray/internal/version"
	"github.com/spf13/cobra"
)

// Global flags override configuration keys for a single run.
var (
	flagDebug   bool
	flagQuiet   bool
	flagAPIURL  string
	flagStream  string
	flagTimeout string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:           "hostel-intray",
	Short:         "Live hostel notifications in your terminal.",
	Long:          `Live hostel notifications in your terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		Setup(cmd)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.ShutdownGlobal()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		colors.Error(err.Error())
		_ = logging.ShutdownGlobal()
	}
	return err
}

// Setup loads configuration, applies global flags and starts logging.
func Setup(cmd *cobra.Command) {
	config.Load()

	if cmd.Flags().Changed("debug") {
		config.Set("debug", fmt.Sprint(flagDebug))
	}
	if cmd.Flags().Changed("quiet") {
		config.Set("quiet", fmt.Sprint(flagQuiet))
	}
	if flagAPIURL != "" {
		config.Set("api_base_url", strings.TrimRight(flagAPIURL, "/"))
	}
	if flagStream != "" {
		config.Set("stream_transport", strings.ToLower(flagStream))
	}
	if flagTimeout != "" {
		config.Set("request_timeout", flagTimeout)
	}

	colors.SetDebug(config.GetBool("debug", false))
	colors.SetQuiet(config.GetBool("quiet", false))

	if err := logging.InitGlobal(cmd.Name()); err != nil {
		colors.Warning("file logging disabled:", err.Error())
	}
	logging.Debug("command started", "command", cmd.CommandPath(), "version", version.String())
}

func init() {
	// Set version for use in help output
	RootCmd.Version = version.String()

	// Hide the completion command
	RootCmd.CompletionOptions.HiddenDefaultCmd = true

	RootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != RootCmd {
			fmt.Fprint(cmd.OutOrStdout(), cmd.UsageString())
			return
		}
		printHelpText(cmd.OutOrStdout(), cmd)
	})

	flags := RootCmd.PersistentFlags()
	flags.BoolVar(&flagDebug, "debug", false, "Print debug output and log at debug level")
	flags.BoolVarP(&flagQuiet, "quiet", "q", false, "Only print warnings and errors")
	flags.StringVar(&flagAPIURL, "api-url", "", "Backend base URL (overrides api_base_url)")
	flags.StringVar(&flagStream, "transport", "", "Push transport: auto, sse or websocket")
	flags.StringVar(&flagTimeout, "timeout", "", "Request timeout, e.g. 10s (overrides request_timeout)")
}

func printHelpText(w io.Writer, cmd *cobra.Command) {
	// Order of commands in the help output
	commandOrder := []string{
		"tui",
		"follow",
		"list",
		"unread",
		"mark-read",
		"login",
		"logout",
		"serve",
		"publish",
		"config",
		"version",
	}

	var cmdLines []string
	for _, name := range commandOrder {
		var found *cobra.Command
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				found = c
				break
			}
		}
		if found == nil {
			continue
		}
		cmdLines = append(cmdLines, fmt.Sprintf("    %-16s %s", found.Name(), found.Short))
	}

	fmt.Fprintf(w, `hostel-intray %s

Live hostel notifications in your terminal.

USAGE:
    hostel-intray [COMMAND] [OPTIONS]

COMMANDS:
%s

OPTIONS:
        --api-url <url>      Backend base URL
        --transport <name>   Push transport: auto, sse or websocket
        --timeout <dur>      Request timeout
        --debug              Debug output
    -q, --quiet              Only warnings and errors
    -h, --help               Show help message
`, version.String(), strings.Join(cmdLines, "\n"))
}
