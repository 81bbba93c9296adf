// Package api is the HTTP client for the hostel notification endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cristianoliveira/hostel-intray/internal/domain"
	"github.com/cristianoliveira/hostel-intray/internal/logging"
	"github.com/cristianoliveira/hostel-intray/internal/version"
	"go.uber.org/ratelimit"
)

// ErrUnsuccessful is returned when the server answers 2xx with success=false.
var ErrUnsuccessful = errors.New("server reported failure")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d on %s %s", e.StatusCode, e.Method, e.Path)
	}
	return fmt.Sprintf("unexpected status %d on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Body)
}

// Unauthorized reports whether the token was missing or rejected.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Paths are the endpoint paths relative to the base URL.
type Paths struct {
	Page     string
	Unread   string
	MarkRead string
}

// DefaultPaths returns the paths served by the hostel backend.
func DefaultPaths() Paths {
	return Paths{
		Page:     "/api/notifications",
		Unread:   "/api/notifications/unread-count",
		MarkRead: "/api/notifications/mark-all-read",
	}
}

// Page is one response of the paginated listing. Received counts the items the
// server sent, including any that failed to decode, so offsets stay aligned.
type Page struct {
	Items    []domain.Notification
	HasMore  bool
	Received int
}

// NewNotification is the body accepted by the create endpoint.
type NewNotification struct {
	Type              string `json:"type"`
	Title             string `json:"title"`
	Message           string `json:"message"`
	RelatedEntityID   string `json:"relatedEntityId,omitempty"`
	RelatedEntityType string `json:"relatedEntityType,omitempty"`
}

// Client talks to the notification endpoints. All requests share one rate limiter.
type Client struct {
	baseURL    string
	token      string
	paths      Paths
	httpClient *http.Client
	limiter    ratelimit.Limiter
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends a bearer token on every request. Empty means anonymous.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithPaths overrides the endpoint paths. Empty fields keep their defaults.
func WithPaths(p Paths) Option {
	return func(c *Client) {
		if p.Page != "" {
			c.paths.Page = p.Page
		}
		if p.Unread != "" {
			c.paths.Unread = p.Unread
		}
		if p.MarkRead != "" {
			c.paths.MarkRead = p.MarkRead
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second. Non-positive disables the cap.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = ratelimit.New(rps)
		} else {
			c.limiter = ratelimit.NewUnlimited()
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		paths:      DefaultPaths(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    ratelimit.New(5),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.GetGlobal()
	}
	c.logger = c.logger.With("component", "api")
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

func (e envelope) check() error {
	if e.Success != nil && !*e.Success {
		if e.Message != "" {
			return fmt.Errorf("%w: %s", ErrUnsuccessful, e.Message)
		}
		return ErrUnsuccessful
	}
	return nil
}

type pageResponse struct {
	envelope
	Notifications []json.RawMessage `json:"notifications"`
	HasMore       bool              `json:"hasMore"`
}

// FetchPage returns up to limit notifications starting at offset skip, newest first.
func (c *Client) FetchPage(ctx context.Context, limit, skip int) (Page, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("skip", strconv.Itoa(skip))

	var resp pageResponse
	if err := c.do(ctx, http.MethodGet, c.paths.Page+"?"+q.Encode(), nil, &resp); err != nil {
		return Page{}, err
	}
	if err := resp.check(); err != nil {
		return Page{}, err
	}

	page := Page{
		Items:    make([]domain.Notification, 0, len(resp.Notifications)),
		HasMore:  resp.HasMore,
		Received: len(resp.Notifications),
	}
	for _, raw := range resp.Notifications {
		var p domain.Payload
		if err := json.Unmarshal(raw, &p); err != nil {
			c.logger.Warn("skipping undecodable page item", "error", err)
			continue
		}
		n, err := p.Notification()
		if err != nil {
			c.logger.Warn("skipping invalid page item", "error", err)
			continue
		}
		page.Items = append(page.Items, n)
	}
	c.logger.Debug("page fetched", "limit", limit, "skip", skip, "received", page.Received, "hasMore", page.HasMore)
	return page, nil
}

type unreadResponse struct {
	envelope
	Count int `json:"count"`
}

// UnreadCount returns the server-side unread total.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp unreadResponse
	if err := c.do(ctx, http.MethodGet, c.paths.Unread, nil, &resp); err != nil {
		return 0, err
	}
	if err := resp.check(); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// MarkAllRead marks every notification of the caller read. It is idempotent.
func (c *Client) MarkAllRead(ctx context.Context) error {
	var resp envelope
	if err := c.do(ctx, http.MethodPatch, c.paths.MarkRead, nil, &resp); err != nil {
		return err
	}
	return resp.check()
}

type createResponse struct {
	envelope
	Notification domain.Payload `json:"notification"`
}

// Publish creates a notification. Only the reference backend accepts it.
func (c *Client) Publish(ctx context.Context, in NewNotification) (domain.Notification, error) {
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, c.paths.Page, in, &resp); err != nil {
		return domain.Notification{}, err
	}
	if err := resp.check(); err != nil {
		return domain.Notification{}, err
	}
	return resp.Notification.Notification()
}

// do sends one request and decodes the JSON response into result.
// An empty body leaves result untouched.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.limiter.Take()
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	c.logger.Debug("request done", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}
