/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cristianoliveira/hostel-intray/cmd"
	"github.com/cristianoliveira/hostel-intray/internal/api"
	"github.com/cristianoliveira/hostel-intray/internal/colors"
	"github.com/cristianoliveira/hostel-intray/internal/config"
	"github.com/cristianoliveira/hostel-intray/internal/credential"
	"github.com/cristianoliveira/hostel-intray/internal/logging"
	"github.com/spf13/cobra"
)

type tokenStore interface {
	SaveToken(token string) error
	DeleteToken() error
}

type keyringTokens struct{}

func (keyringTokens) SaveToken(token string) error { return credential.SaveToken(token) }

func (keyringTokens) DeleteToken() error { return credential.DeleteToken() }

// verifyToken checks a token against the unread-count endpoint.
func verifyToken(ctx context.Context, token string) error {
	client := api.NewClient(config.Get("api_base_url", "http://localhost:8080"),
		api.WithToken(token),
		api.WithPaths(pathsFromConfig()),
		api.WithLogger(logging.GetGlobal()),
	)
	_, err := client.UnreadCount(ctx)
	return err
}

// NewLoginCmd creates the login command with explicit dependencies.
func NewLoginCmd(store tokenStore, verify func(ctx context.Context, token string) error) *cobra.Command {
	if store == nil {
		panic("NewLoginCmd: store dependency cannot be nil")
	}

	var token string
	var skipVerify bool

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API token in the system keyring",
		Long: `Store an API token in the system keyring.

The token is read from --token or from the first line of standard input.
HOSTEL_INTRAY_AUTH_TOKEN, when set, takes precedence over the keyring.

USAGE:
    hostel-intray login [--token <token>]

OPTIONS:
    --token <token>   API token
    --no-verify       Store the token without checking it
    -h, --help        Show this help`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if token == "" {
				line, err := bufio.NewReader(c.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("login: no token given")
				}
				token = line
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("login: token cannot be empty")
			}

			if !skipVerify && verify != nil {
				if err := verify(c.Context(), token); err != nil {
					var statusErr *api.StatusError
					if errors.As(err, &statusErr) && statusErr.Unauthorized() {
						return errors.New("login: token rejected by the server")
					}
					return fmt.Errorf("login: verify token: %w", err)
				}
			}
			if err := store.SaveToken(token); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			colors.Success("Token stored")
			return nil
		},
	}

	loginCmd.Flags().StringVar(&token, "token", "", "API token")
	loginCmd.Flags().BoolVar(&skipVerify, "no-verify", false, "Store the token without checking it")
	return loginCmd
}

// NewLogoutCmd creates the logout command with explicit dependencies.
func NewLogoutCmd(store tokenStore) *cobra.Command {
	if store == nil {
		panic("NewLogoutCmd: store dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API token",
		Long:  `Remove the API token from the system keyring.`,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if err := store.DeleteToken(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			colors.Success("Token removed")
			return nil
		},
	}
}

var (
	loginCmd  = NewLoginCmd(keyringTokens{}, verifyToken)
	logoutCmd = NewLogoutCmd(keyringTokens{})
)

func init() {
	cmd.RootCmd.AddCommand(loginCmd)
	cmd.RootCmd.AddCommand(logoutCmd)
}
