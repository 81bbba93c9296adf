package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cristianoliveira/hostel-intray/internal/api"
	"github.com/cristianoliveira/hostel-intray/internal/colors"
	"github.com/cristianoliveira/hostel-intray/internal/config"
	"github.com/cristianoliveira/hostel-intray/internal/credential"
	"github.com/cristianoliveira/hostel-intray/internal/domain"
	"github.com/cristianoliveira/hostel-intray/internal/feed"
	"github.com/cristianoliveira/hostel-intray/internal/logging"
	"github.com/cristianoliveira/hostel-intray/internal/stream"
)

// lazyClient builds the API client on first use, after configuration is loaded.
type lazyClient struct {
	once   sync.Once
	client *api.Client
}

var apiClient = &lazyClient{}

func (l *lazyClient) get() *api.Client {
	l.once.Do(func() {
		l.client = api.NewClient(config.Get("api_base_url", "http://localhost:8080"),
			api.WithToken(resolveToken()),
			api.WithPaths(pathsFromConfig()),
			api.WithTimeout(config.GetDuration("request_timeout", 15*time.Second)),
			api.WithRateLimit(config.GetInt("rate_limit_rps", 5)),
			api.WithLogger(logging.GetGlobal()),
		)
	})
	return l.client
}

func (l *lazyClient) FetchPage(ctx context.Context, limit, skip int) (api.Page, error) {
	return l.get().FetchPage(ctx, limit, skip)
}

func (l *lazyClient) UnreadCount(ctx context.Context) (int, error) {
	return l.get().UnreadCount(ctx)
}

func (l *lazyClient) MarkAllRead(ctx context.Context) error {
	return l.get().MarkAllRead(ctx)
}

func (l *lazyClient) Publish(ctx context.Context, in api.NewNotification) (domain.Notification, error) {
	return l.get().Publish(ctx, in)
}

func pathsFromConfig() api.Paths {
	defaults := api.DefaultPaths()
	return api.Paths{
		Page:     config.Get("page_path", defaults.Page),
		Unread:   config.Get("unread_path", defaults.Unread),
		MarkRead: config.Get("mark_read_path", defaults.MarkRead),
	}
}

// resolveToken reads the token; a broken keyring only costs authentication.
func resolveToken() string {
	token, err := credential.Token()
	if err != nil {
		colors.Warning("could not read token from keyring:", err.Error())
		return ""
	}
	return token
}

// streamConnector dials the push endpoint from configuration.
func streamConnector(ctx context.Context, onEvent func(domain.Notification), onError func(error)) (feed.Stream, error) {
	transport, err := stream.ParseTransport(config.Get("stream_transport", "auto"))
	if err != nil {
		return nil, err
	}
	endpoint := stream.ResolveEndpoint(
		config.Get("stream_url", ""),
		config.Get("api_base_url", "http://localhost:8080"),
		config.Get("stream_path", "/api/notifications/stream"),
		config.Get("ws_path", "/api/notifications/ws"),
		transport,
	)
	logging.Debug("dialing stream", "endpoint", endpoint, "transport", transport.String())

	conn, err := stream.Open(ctx, endpoint, onEvent, onError,
		stream.WithTransport(transport),
		stream.WithBearerToken(resolveToken()),
		stream.WithDialTimeout(config.GetDuration("stream_dial_timeout", 10*time.Second)),
		stream.WithLogger(logging.GetGlobal()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", endpoint, err)
	}
	return conn, nil
}

// feedOptions returns the feed options shared by the tui and follow commands.
func feedOptions(connect feed.Connector) []feed.Option {
	return []feed.Option{
		feed.WithConnector(connect),
		feed.WithPageSize(config.GetInt("page_size", feed.DefaultPageSize)),
		feed.WithRequestTimeout(config.GetDuration("request_timeout", 15*time.Second)),
		feed.WithLogger(logging.GetGlobal()),
	}
}
