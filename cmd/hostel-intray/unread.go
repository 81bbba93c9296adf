/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/hostel-intray/cmd"
	"github.com/spf13/cobra"
)

type unreadClient interface {
	UnreadCount(ctx context.Context) (int, error)
}

// NewUnreadCmd creates the unread command with explicit dependencies.
func NewUnreadCmd(client unreadClient) *cobra.Command {
	if client == nil {
		panic("NewUnreadCmd: client dependency cannot be nil")
	}

	unreadCmd := &cobra.Command{
		Use:   "unread",
		Short: "Print the unread count",
		Long: `Print the number of unread notifications.

Handy for status bars: the output is a bare number.

USAGE:
    hostel-intray unread`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			n, err := client.UnreadCount(c.Context())
			if err != nil {
				return fmt.Errorf("unread: %w", err)
			}
			fmt.Fprintln(c.OutOrStdout(), n)
			return nil
		},
	}

	return unreadCmd
}

// unreadCmd represents the unread command
var unreadCmd = NewUnreadCmd(apiClient)

func init() {
	cmd.RootCmd.AddCommand(unreadCmd)
}
