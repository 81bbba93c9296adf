/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cristianoliveira/hostel-intray/cmd"
	"github.com/cristianoliveira/hostel-intray/internal/colors"
	"github.com/cristianoliveira/hostel-intray/internal/domain"
	"github.com/cristianoliveira/hostel-intray/internal/feed"
	"github.com/spf13/cobra"
)

// errStreamLost ends follow when the push connection goes down.
var errStreamLost = errors.New("stream disconnected")

// followModel prints each notification of a mounted feed once, oldest first.
// It never renders; output goes straight to out.
type followModel struct {
	feed    *feed.Feed
	out     io.Writer
	history bool
	printed map[string]bool
	primed  bool
	err     error
}

func newFollowModel(f *feed.Feed, out io.Writer, history bool) *followModel {
	return &followModel{feed: f, out: out, history: history, printed: make(map[string]bool)}
}

func (m *followModel) Init() tea.Cmd {
	return m.feed.Mount()
}

func (m *followModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.feed.Update(msg)

	switch msg := msg.(type) {
	case feed.PageLoadedMsg:
		if msg.Err != nil {
			colors.Warning("could not load history:", msg.Err.Error())
		}
		if !m.primed {
			m.primed = true
			if !m.history {
				m.markAllPrinted()
				return m, cmd
			}
		}
	case feed.StreamConnectedMsg:
		colors.Debug("stream connected")
	case feed.StreamErrorMsg:
		if state, err := m.feed.StreamState(); state == feed.StreamDown {
			m.err = fmt.Errorf("%w: %w", errStreamLost, err)
			return m, tea.Quit
		}
	}

	m.flush()
	return m, cmd
}

func (m *followModel) View() string { return "" }

// flush prints notifications not printed yet, oldest first.
func (m *followModel) flush() {
	items := m.feed.Store().Items()
	for i := len(items) - 1; i >= 0; i-- {
		n := items[i]
		if m.printed[n.ID] {
			continue
		}
		m.printed[n.ID] = true
		fmt.Fprintln(m.out, formatFollowLine(n))
	}
}

func (m *followModel) markAllPrinted() {
	for _, n := range m.feed.Store().Items() {
		m.printed[n.ID] = true
	}
}

func formatFollowLine(n domain.Notification) string {
	marker := " "
	if !n.Read {
		marker = colors.Yellow + "●" + colors.Reset
	}
	line := fmt.Sprintf("%s %s %s[%s]%s %s",
		marker, n.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		colors.Cyan, n.Kind.Label(), colors.Reset, n.Title)
	if n.Body != "" {
		line += ": " + n.Body
	}
	if route := n.Related.Route(); route != "" {
		line += " (" + route + ")"
	}
	return line
}

// NewFollowCmd creates the follow command with explicit dependencies.
func NewFollowCmd(client feed.Client, connect feed.Connector) *cobra.Command {
	if client == nil {
		panic("NewFollowCmd: client dependency cannot be nil")
	}

	var noHistory bool

	followCmd := &cobra.Command{
		Use:   "follow",
		Short: "Print notifications as they arrive",
		Long: `Print notifications as they arrive.

Prints the most recent page first, then every pushed notification once.
Exits when the stream disconnects or on ctrl+c.

USAGE:
    hostel-intray follow [OPTIONS]

OPTIONS:
    --no-history   Only print notifications pushed after connecting
    -h, --help     Show this help`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			f := feed.New(client, feedOptions(connect)...)
			defer f.Unmount()

			model := newFollowModel(f, c.OutOrStdout(), !noHistory)
			_, err := runProgram(model,
				tea.WithContext(c.Context()),
				tea.WithoutRenderer(),
				tea.WithInput(nil),
			)
			if err != nil && !errors.Is(err, tea.ErrInterrupted) && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("follow: %w", err)
			}
			return model.err
		},
	}

	followCmd.Flags().BoolVar(&noHistory, "no-history", false, "Only print notifications pushed after connecting")
	return followCmd
}

// followCmd represents the follow command
var followCmd = NewFollowCmd(apiClient, streamConnector)

func init() {
	cmd.RootCmd.AddCommand(followCmd)
}
