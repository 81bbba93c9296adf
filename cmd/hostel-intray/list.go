/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cristianoliveira/hostel-intray/cmd"
	"github.com/cristianoliveira/hostel-intray/internal/api"
	"github.com/cristianoliveira/hostel-intray/internal/config"
	"github.com/cristianoliveira/hostel-intray/internal/domain"
	"github.com/cristianoliveira/hostel-intray/internal/tui/render"
	"github.com/spf13/cobra"
)

type listClient interface {
	FetchPage(ctx context.Context, limit, skip int) (api.Page, error)
}

const listCommandLong = `List one page of notifications, newest first.

USAGE:
    hostel-intray list [OPTIONS]

OPTIONS:
    --limit <n>   Page size (default: page_size from config)
    --skip <n>    Number of notifications to skip
    --json        Print the page as JSON
    -h, --help    Show this help`

// ListOptions holds the parameters of one list call.
type ListOptions struct {
	Limit int
	Skip  int
	JSON  bool
	Now   time.Time
}

// PrintList writes one page in the requested format.
func PrintList(w io.Writer, page api.Page, opts ListOptions) error {
	if opts.JSON {
		payloads := make([]domain.Payload, len(page.Items))
		for i, n := range page.Items {
			payloads[i] = domain.NewPayload(n)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Notifications []domain.Payload `json:"notifications"`
			HasMore       bool             `json:"hasMore"`
		}{payloads, page.HasMore})
	}

	if len(page.Items) == 0 {
		fmt.Fprintln(w, "No notifications found")
		return nil
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	for _, n := range page.Items {
		fmt.Fprintln(w, render.Row(render.RowState{Notification: n, Width: 100, Now: now}))
	}
	if page.HasMore {
		fmt.Fprintf(w, "\nMore available: --skip %d\n", opts.Skip+page.Received)
	}
	return nil
}

// NewListCmd creates the list command with explicit dependencies.
func NewListCmd(client listClient) *cobra.Command {
	if client == nil {
		panic("NewListCmd: client dependency cannot be nil")
	}

	var opts ListOptions

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		Long:  listCommandLong,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if opts.Limit <= 0 {
				opts.Limit = config.GetInt("page_size", 20)
			}
			if opts.Skip < 0 {
				return fmt.Errorf("list: --skip cannot be negative")
			}
			page, err := client.FetchPage(c.Context(), opts.Limit, opts.Skip)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			return PrintList(c.OutOrStdout(), page, opts)
		},
	}

	listCmd.Flags().IntVar(&opts.Limit, "limit", 0, "Page size")
	listCmd.Flags().IntVar(&opts.Skip, "skip", 0, "Number of notifications to skip")
	listCmd.Flags().BoolVar(&opts.JSON, "json", false, "Print JSON")
	return listCmd
}

// listCmd represents the list command
var listCmd = NewListCmd(apiClient)

func init() {
	cmd.RootCmd.AddCommand(listCmd)
}
