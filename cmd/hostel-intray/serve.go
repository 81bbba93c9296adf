/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cristianoliveira/hostel-intray/cmd"
	"github.com/cristianoliveira/hostel-intray/internal/colors"
	"github.com/cristianoliveira/hostel-intray/internal/config"
	"github.com/cristianoliveira/hostel-intray/internal/devserver"
	"github.com/cristianoliveira/hostel-intray/internal/logging"
	"github.com/spf13/cobra"
)

// ServeOptions holds the parameters of the reference backend.
type ServeOptions struct {
	Addr         string
	DBPath       string
	Token        string
	PingInterval time.Duration
}

// Serve runs the reference backend until ctx is done.
func Serve(ctx context.Context, opts ServeOptions) error {
	store, err := devserver.OpenStore(opts.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	serverOpts := devserver.DefaultOptions()
	serverOpts.Paths = pathsFromConfig()
	serverOpts.StreamPath = config.Get("stream_path", serverOpts.StreamPath)
	serverOpts.WSPath = config.Get("ws_path", serverOpts.WSPath)
	serverOpts.PingInterval = opts.PingInterval
	serverOpts.Token = opts.Token
	serverOpts.Logger = logging.GetGlobal()

	srv := devserver.New(store, serverOpts)
	colors.Info(fmt.Sprintf("Serving notifications on http://%s (db: %s)", opts.Addr, opts.DBPath))
	return srv.Run(ctx, opts.Addr)
}

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var opts ServeOptions

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference notification backend",
		Long: `Run the reference notification backend.

Serves the page, unread-count, mark-all-read, create, SSE and websocket
endpoints from a local SQLite database, plus /metrics.

USAGE:
    hostel-intray serve [OPTIONS]

OPTIONS:
    --addr <host:port>   Listen address (default: serve_addr)
    --db <path>          SQLite database (default: serve_db_path, ":memory:" for none)
    --token <token>      Require this bearer token
    -h, --help           Show this help`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if opts.Addr == "" {
				opts.Addr = config.Get("serve_addr", "127.0.0.1:8080")
			}
			if opts.DBPath == "" {
				opts.DBPath = config.Get("serve_db_path", devserver.MemoryPath)
			}
			opts.PingInterval = config.GetDuration("serve_ping_interval", 25*time.Second)

			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := Serve(ctx, opts); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	serveCmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address")
	serveCmd.Flags().StringVar(&opts.DBPath, "db", "", "SQLite database path")
	serveCmd.Flags().StringVar(&opts.Token, "token", "", "Require this bearer token")
	return serveCmd
}

// serveCmd represents the serve command
var serveCmd = NewServeCmd()

func init() {
	cmd.RootCmd.AddCommand(serveCmd)
}
