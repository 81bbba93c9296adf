// Package stream maintains the long-lived push connection that delivers
// notifications as they happen.
package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cristianoliveira/hostel-intray/internal/domain"
	"github.com/cristianoliveira/hostel-intray/internal/logging"
	"github.com/cristianoliveira/hostel-intray/internal/version"
)

var (
	// ErrClosed is returned when operating on a closed connection.
	ErrClosed = errors.New("stream connection closed")

	// ErrUnsupportedTransport is returned for transports or endpoint schemes the client cannot speak.
	ErrUnsupportedTransport = errors.New("unsupported stream transport")

	// ErrStreamEnded is reported when the server ends the stream cleanly.
	ErrStreamEnded = errors.New("stream ended by server")

	// errFrameTooLarge marks one skipped frame; the connection keeps reading.
	errFrameTooLarge = errors.New("frame too large")
)

// maxFrameSize bounds a single frame on either transport.
const maxFrameSize = 1 << 20

// Transport selects the wire protocol of the push connection.
type Transport int

const (
	// TransportAuto picks the transport from the endpoint scheme.
	TransportAuto Transport = iota
	// TransportSSE reads a text/event-stream response.
	TransportSSE
	// TransportWebSocket reads websocket text messages.
	TransportWebSocket
)

func (t Transport) String() string {
	switch t {
	case TransportSSE:
		return "sse"
	case TransportWebSocket:
		return "websocket"
	default:
		return "auto"
	}
}

// ParseTransport maps a config value to a Transport.
func ParseTransport(s string) (Transport, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return TransportAuto, nil
	case "sse":
		return TransportSSE, nil
	case "websocket", "ws":
		return TransportWebSocket, nil
	default:
		return TransportAuto, fmt.Errorf("%w: %q", ErrUnsupportedTransport, s)
	}
}

// Status is the observable state of a Connection.
type Status int32

const (
	// StatusConnecting is the state before the dial completes.
	StatusConnecting Status = iota
	// StatusConnected means frames are being read.
	StatusConnected
	// StatusDisconnected means the connection failed or was closed.
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ResolveEndpoint builds the push endpoint from the API base URL. An explicit
// override wins. Auto picks the websocket path when the base is ws:// or wss://.
func ResolveEndpoint(override, baseURL, ssePath, wsPath string, t Transport) string {
	if override != "" {
		return override
	}
	base := strings.TrimRight(baseURL, "/")
	switch t {
	case TransportWebSocket:
		return toWebSocketScheme(base) + wsPath
	case TransportAuto:
		if isWebSocketURL(base) {
			return base + wsPath
		}
	}
	return base + ssePath
}

func isWebSocketURL(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	return u.Scheme == "ws" || u.Scheme == "wss"
}

func toWebSocketScheme(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	default:
		return endpoint
	}
}

type options struct {
	transport   Transport
	header      http.Header
	httpClient  *http.Client
	dialTimeout time.Duration
	logger      logging.Logger
	onStatus    func(Status)
}

// Option configures Open.
type Option func(*options)

// WithTransport forces a transport instead of picking one from the endpoint scheme.
func WithTransport(t Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithHeader adds a header to the connection request.
func WithHeader(key, value string) Option {
	return func(o *options) { o.header.Add(key, value) }
}

// WithBearerToken authenticates the connection. An empty token is ignored.
func WithBearerToken(token string) Option {
	return func(o *options) {
		if token != "" {
			o.header.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithHTTPClient sets the client used by the SSE transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithDialTimeout bounds connection establishment. Zero means no bound.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) { o.dialTimeout = d }
}

// WithLogger sets the logger for dropped frames and transport errors.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStatusHandler observes Connecting, Connected and Disconnected transitions.
func WithStatusHandler(fn func(Status)) Option {
	return func(o *options) { o.onStatus = fn }
}

// transportConn is an established connection that yields one frame payload per call.
type transportConn interface {
	next() ([]byte, error)
	close() error
}

// Connection is a live push subscription. Decoded notifications are handed to
// onEvent one at a time on the reader goroutine; the next frame is not read
// until onEvent returns.
type Connection struct {
	endpoint string
	logger   logging.Logger
	onEvent  func(domain.Notification)
	onError  func(error)
	onStatus func(Status)

	conn   transportConn
	cancel context.CancelFunc
	done   chan struct{}

	status    atomic.Int32
	closed    atomic.Bool
	closeOnce sync.Once
	// cbMu serializes callbacks against Close so none fire after Close returns.
	cbMu sync.Mutex
}

// Open establishes the push connection and starts reading. Establishment
// failures are returned; failures after that are reported once through
// onError. Cancelling ctx is equivalent to Close. Close must not be called
// from inside onEvent or onError.
func Open(ctx context.Context, endpoint string, onEvent func(domain.Notification), onError func(error), opts ...Option) (*Connection, error) {
	o := options{
		header:     http.Header{},
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.GetGlobal()
	}
	if o.header.Get("User-Agent") == "" {
		o.header.Set("User-Agent", version.UserAgent())
	}
	if onEvent == nil {
		onEvent = func(domain.Notification) {}
	}
	if onError == nil {
		onError = func(error) {}
	}

	transport := o.transport
	if transport == TransportAuto {
		transport = TransportSSE
		if isWebSocketURL(endpoint) {
			transport = TransportWebSocket
		}
	}

	c := &Connection{
		endpoint: endpoint,
		logger:   o.logger.With("component", "stream", "transport", transport.String()),
		onEvent:  onEvent,
		onError:  onError,
		onStatus: o.onStatus,
		done:     make(chan struct{}),
	}
	c.setStatus(StatusConnecting)

	connCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	var (
		conn transportConn
		err  error
	)
	switch transport {
	case TransportSSE:
		conn, err = dialSSE(connCtx, endpoint, o)
	case TransportWebSocket:
		conn, err = dialWebSocket(connCtx, endpoint, o)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedTransport, transport)
	}
	if err != nil {
		cancel()
		c.closed.Store(true)
		c.status.Store(int32(StatusDisconnected))
		close(c.done)
		return nil, err
	}

	c.conn = conn
	c.setStatus(StatusConnected)
	c.logger.Info("stream connected", "endpoint", endpoint)

	go c.read(connCtx)
	return c, nil
}

func (c *Connection) setStatus(s Status) {
	c.status.Store(int32(s))
	if c.onStatus != nil {
		c.onStatus(s)
	}
}

// Status returns the current connection state.
func (c *Connection) Status() Status {
	return Status(c.status.Load())
}

// Done is closed once the reader has exited.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Close stops the reader and releases the transport. It is idempotent and safe
// to call concurrently. No callback fires after Close returns.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cbMu.Lock()
		c.closed.Store(true)
		c.cbMu.Unlock()

		c.status.Store(int32(StatusDisconnected))
		c.cancel()
		if cerr := c.conn.close(); cerr != nil {
			err = fmt.Errorf("close stream: %w", cerr)
		}
		c.logger.Debug("stream closed")
	})
	return err
}

func (c *Connection) read(ctx context.Context) {
	defer close(c.done)

	for {
		data, err := c.conn.next()
		if errors.Is(err, errFrameTooLarge) {
			c.logger.Warn("dropping oversized frame", "error", err)
			continue
		}
		if err != nil {
			c.fail(ctx, err)
			return
		}
		c.dispatch(DecodeFrame(data))
	}
}

func (c *Connection) dispatch(f Frame) {
	switch f.Type {
	case FrameConnected, FramePing:
		c.logger.Debug("control frame", "type", f.Type.String())
	case FrameNotification:
		c.cbMu.Lock()
		defer c.cbMu.Unlock()
		if c.closed.Load() {
			return
		}
		c.onEvent(f.Notification)
	default:
		c.logger.Warn("dropping unrecognized frame", "error", f.Err)
	}
}

// fail reports a transport error unless the connection was closed on purpose.
func (c *Connection) fail(ctx context.Context, err error) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	if c.closed.Load() {
		return
	}
	if ctx.Err() != nil {
		c.status.Store(int32(StatusDisconnected))
		return
	}
	c.closed.Store(true)
	c.status.Store(int32(StatusDisconnected))
	c.cancel()
	_ = c.conn.close()

	c.logger.Warn("stream lost", "endpoint", c.endpoint, "error", err)
	if c.onStatus != nil {
		c.onStatus(StatusDisconnected)
	}
	c.onError(err)
}
