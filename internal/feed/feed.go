package feed

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cristianoliveira/hostel-intray/internal/domain"
	"github.com/cristianoliveira/hostel-intray/internal/logging"
)

const liveBuffer = 64

// UnreadCounter fetches the authoritative unread total.
type UnreadCounter interface {
	UnreadCount(ctx context.Context) (int, error)
}

// Client is the set of endpoints the feed needs.
type Client interface {
	PageFetcher
	UnreadCounter
	ReadMarker
}

// Stream is an open push connection.
type Stream interface {
	Close() error
}

// Connector opens the push connection. It must not call onEvent or onError
// after the returned Stream is closed.
type Connector func(ctx context.Context, onEvent func(domain.Notification), onError func(error)) (Stream, error)

// StreamState is the feed's view of its push connection.
type StreamState int

const (
	// StreamOff means no connector is configured or nothing was dialed yet.
	StreamOff StreamState = iota
	// StreamConnecting means a dial is in flight.
	StreamConnecting
	// StreamLive means the push connection is established.
	StreamLive
	// StreamDown means the dial or the connection failed. Reconnect dials again.
	StreamDown
)

func (s StreamState) String() string {
	switch s {
	case StreamConnecting:
		return "connecting"
	case StreamLive:
		return "live"
	case StreamDown:
		return "down"
	default:
		return "off"
	}
}

type settings struct {
	connect   Connector
	pageSize  int
	timeout   time.Duration
	logger    logging.Logger
	now       func() time.Time
	startOpen bool
}

// Option configures a Feed.
type Option func(*settings)

// WithConnector sets how the push connection is opened. Without one the feed
// works from pages only.
func WithConnector(c Connector) Option {
	return func(s *settings) { s.connect = c }
}

// WithPageSize sets the page size.
func WithPageSize(n int) Option {
	return func(s *settings) { s.pageSize = n }
}

// WithRequestTimeout bounds each page, unread-count and mark-read call.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithLogger sets the feed logger.
func WithLogger(l logging.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithClock sets the time source used for readAt.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithStartOpen makes Mount leave the feed open.
func WithStartOpen() Option {
	return func(s *settings) { s.startOpen = true }
}

// Feed owns the store, pager and synchronizer of one mounted view. Trigger
// methods and Update must be called from a single goroutine.
type Feed struct {
	client  Client
	connect Connector
	timeout time.Duration
	logger  logging.Logger

	store *Store
	pager *Pager
	sync  *Synchronizer

	startOpen bool
	open      bool
	mounted   bool
	alive     bool

	stream      Stream
	streamState StreamState
	streamErr   error
	dialing     bool
	dialGen     uint64

	events chan tea.Msg
	done   chan struct{}
}

// New creates an unmounted, closed feed.
func New(client Client, opts ...Option) *Feed {
	s := settings{pageSize: DefaultPageSize, now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logging.GetGlobal()
	}
	logger := s.logger.With("component", "feed")

	store := NewStore()
	return &Feed{
		client:    client,
		connect:   s.connect,
		timeout:   s.timeout,
		logger:    logger,
		store:     store,
		pager:     NewPager(client, store, PagerOptions{PageSize: s.pageSize, Timeout: s.timeout, Logger: logger}),
		sync:      NewSynchronizer(client, store, SyncOptions{Timeout: s.timeout, Logger: logger, Now: s.now}),
		startOpen: s.startOpen,
		events:    make(chan tea.Msg, liveBuffer),
		done:      make(chan struct{}),
	}
}

// Store exposes the store for rendering. Callers must not mutate it.
func (f *Feed) Store() *Store { return f.store }

// Pagination returns the pager state.
func (f *Feed) Pagination() PaginationState { return f.pager.State() }

// StreamState returns the push connection state and its last error.
func (f *Feed) StreamState() (StreamState, error) { return f.streamState, f.streamErr }

// ReadSyncErr returns the last mark-read failure, if any.
func (f *Feed) ReadSyncErr() error { return f.sync.LastErr() }

// IsOpen reports whether the feed view is open.
func (f *Feed) IsOpen() bool { return f.open }

// Alive reports whether the feed is mounted and not yet unmounted.
func (f *Feed) Alive() bool { return f.alive }

// Mount connects the stream and loads the first page and the unread count.
// A feed mounts once; later calls return nil.
func (f *Feed) Mount() tea.Cmd {
	if f.mounted {
		return nil
	}
	f.mounted = true
	f.alive = true
	f.open = f.startOpen
	f.logger.Info("feed mounted", "open", f.open)

	return tea.Batch(
		f.dial(),
		f.waitForLive(),
		f.pager.ResetAndReopen(),
		f.fetchUnread(),
	)
}

// Unmount releases the push connection. Completions that arrive later are ignored.
func (f *Feed) Unmount() {
	if !f.alive {
		return
	}
	f.alive = false
	close(f.done)
	f.closeStream()
	f.logger.Info("feed unmounted")
}

// Open re-syncs with the server: first page again and a fresh unread count.
func (f *Feed) Open() tea.Cmd {
	if !f.alive || f.open {
		return nil
	}
	f.open = true
	return tea.Batch(f.pager.ResetAndReopen(), f.fetchUnread())
}

// Close marks everything read when anything is unread.
func (f *Feed) Close() tea.Cmd {
	if !f.alive || !f.open {
		return nil
	}
	f.open = false
	return f.sync.MarkAllRead()
}

// Toggle opens a closed feed and closes an open one.
func (f *Feed) Toggle() tea.Cmd {
	if f.open {
		return f.Close()
	}
	return f.Open()
}

// LoadMore requests the next page.
func (f *Feed) LoadMore() tea.Cmd {
	if !f.alive {
		return nil
	}
	return f.pager.LoadNext()
}

// Activate syncs read state and yields an ActivatedMsg for id.
func (f *Feed) Activate(id string) tea.Cmd {
	if !f.alive {
		return nil
	}
	return f.sync.MarkOnActivate(id)
}

// Reconnect dials the push connection again after it went down.
func (f *Feed) Reconnect() tea.Cmd {
	if !f.alive || f.streamState != StreamDown {
		return nil
	}
	f.closeStream()
	// A connection that failed before its dial returned is superseded.
	f.dialing = false
	return f.dial()
}

// Update applies a completion message. It returns follow-up work, if any.
func (f *Feed) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case StreamConnectedMsg:
		if !f.alive || msg.Generation != f.dialGen {
			_ = msg.Stream.Close()
			return nil
		}
		f.dialing = false
		f.stream = msg.Stream
		if f.streamState == StreamDown {
			// The reader failed before the dial returned; keep the error.
			return nil
		}
		f.streamState = StreamLive
		f.streamErr = nil
		return nil

	case StreamErrorMsg:
		if !f.alive {
			return nil
		}
		if msg.Generation != f.dialGen {
			f.logger.Debug("stale stream error", "generation", msg.Generation, "error", msg.Err)
			if msg.Dial {
				return nil
			}
			return f.waitForLive()
		}
		f.streamState = StreamDown
		f.streamErr = msg.Err
		f.logger.Warn("stream error", "dial", msg.Dial, "error", msg.Err)
		if msg.Dial {
			f.dialing = false
			return nil
		}
		return f.waitForLive()

	case LiveEventMsg:
		if !f.alive {
			return nil
		}
		if f.store.OnLiveEvent(msg.Notification) {
			f.logger.Debug("live notification", "id", msg.Notification.ID, "kind", msg.Notification.Kind.String())
		}
		return f.waitForLive()

	case PageLoadedMsg:
		if f.alive {
			f.pager.HandlePageLoaded(msg)
		}
		return nil

	case UnreadCountLoadedMsg:
		if !f.alive {
			return nil
		}
		if msg.Generation != f.sync.Marks() {
			f.logger.Debug("stale unread count dropped", "count", msg.Count)
			return nil
		}
		if msg.Err != nil {
			f.logger.Warn("unread count failed", "error", msg.Err)
			return nil
		}
		f.store.OnUnreadCountLoaded(msg.Count)
		return nil

	case ReadSyncedMsg:
		if f.alive {
			f.sync.HandleReadSynced(msg)
		}
		return nil
	}
	return nil
}

func (f *Feed) dial() tea.Cmd {
	if f.connect == nil || f.dialing {
		return nil
	}
	f.dialing = true
	f.dialGen++
	f.streamState = StreamConnecting

	gen, connect, events, done := f.dialGen, f.connect, f.events, f.done
	onEvent := func(n domain.Notification) {
		select {
		case events <- LiveEventMsg{Notification: n}:
		case <-done:
		}
	}
	onError := func(err error) {
		select {
		case events <- StreamErrorMsg{Generation: gen, Err: err}:
		case <-done:
		}
	}
	return func() tea.Msg {
		stream, err := connect(context.Background(), onEvent, onError)
		if err != nil {
			return StreamErrorMsg{Generation: gen, Err: err, Dial: true}
		}
		return StreamConnectedMsg{Generation: gen, Stream: stream}
	}
}

// waitForLive blocks for the next pushed message. Exactly one is armed while
// the feed is alive; it is re-armed by Update.
func (f *Feed) waitForLive() tea.Cmd {
	if f.connect == nil {
		return nil
	}
	events, done := f.events, f.done
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-done:
			return nil
		}
	}
}

func (f *Feed) fetchUnread() tea.Cmd {
	gen, client, timeout := f.sync.Marks(), f.client, f.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		n, err := client.UnreadCount(ctx)
		return UnreadCountLoadedMsg{Generation: gen, Count: n, Err: err}
	}
}

func (f *Feed) closeStream() {
	if f.stream == nil {
		return
	}
	if err := f.stream.Close(); err != nil {
		f.logger.Debug("closing stream", "error", err)
	}
	f.stream = nil
}
