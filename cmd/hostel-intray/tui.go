/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cristianoliveira/hostel-intray/cmd"
	"github.com/cristianoliveira/hostel-intray/internal/config"
	"github.com/cristianoliveira/hostel-intray/internal/feed"
	"github.com/cristianoliveira/hostel-intray/internal/tui/state"
	"github.com/spf13/cobra"
)

// runProgram runs a bubbletea program. Tests replace it.
var runProgram = func(m tea.Model, opts ...tea.ProgramOption) (tea.Model, error) {
	return tea.NewProgram(m, opts...).Run()
}

// NewTUICmd creates the tui command with explicit dependencies.
func NewTUICmd(client feed.Client, connect feed.Connector) *cobra.Command {
	if client == nil {
		panic("NewTUICmd: client dependency cannot be nil")
	}

	var closed bool

	tuiCmd := &cobra.Command{
		Use:     "tui",
		Aliases: []string{"watch"},
		Short:   "Open the interactive notification feed",
		Long: `Open the interactive notification feed.

The feed connects to the push stream, loads history page by page as you
scroll and marks everything read when you close it.

USAGE:
    hostel-intray tui [OPTIONS]

KEYS:
    j/k, arrows    Move (loads more near the bottom)
    enter          Open the selected notification
    b, space       Open or close the feed (closing marks all read)
    r              Retry a failed page or reconnect the stream
    q, ctrl+c      Quit

OPTIONS:
    --closed       Start with the feed closed (bell and badge only)
    -h, --help     Show this help`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			opts := feedOptions(connect)
			if !closed {
				opts = append(opts, feed.WithStartOpen())
			}
			f := feed.New(client, opts...)
			defer f.Unmount()

			model := state.NewModel(f, state.Options{
				ScrollThreshold: config.GetInt("scroll_threshold", 3),
				ScrollThrottle:  time.Duration(config.GetInt("scroll_throttle_ms", 250)) * time.Millisecond,
			})
			if _, err := runProgram(model, tea.WithAltScreen()); err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			return nil
		},
	}

	tuiCmd.Flags().BoolVar(&closed, "closed", false, "Start with the feed closed")
	return tuiCmd
}

// tuiCmd represents the tui command
var tuiCmd = NewTUICmd(apiClient, streamConnector)

func init() {
	cmd.RootCmd.AddCommand(tuiCmd)
}
