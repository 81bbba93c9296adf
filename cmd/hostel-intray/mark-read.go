/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/hostel-intray/cmd"
	"github.com/cristianoliveira/hostel-intray/internal/colors"
	"github.com/spf13/cobra"
)

type markReadClient interface {
	MarkAllRead(ctx context.Context) error
}

// NewMarkReadCmd creates the mark-read command with explicit dependencies.
func NewMarkReadCmd(client markReadClient) *cobra.Command {
	if client == nil {
		panic("NewMarkReadCmd: client dependency cannot be nil")
	}

	markReadCmd := &cobra.Command{
		Use:   "mark-read",
		Short: "Mark all notifications as read",
		Long: `Mark all notifications as read.

USAGE:
    hostel-intray mark-read

OPTIONS:
    -h, --help           Show this help`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if err := client.MarkAllRead(c.Context()); err != nil {
				return fmt.Errorf("mark-read: %w", err)
			}
			colors.Success("All notifications marked as read")
			return nil
		},
	}

	return markReadCmd
}

// markReadCmd represents the mark-read command
var markReadCmd = NewMarkReadCmd(apiClient)

func init() {
	cmd.RootCmd.AddCommand(markReadCmd)
}
