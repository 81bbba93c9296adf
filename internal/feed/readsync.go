package feed

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cristianoliveira/hostel-intray/internal/logging"
)

// ReadMarker marks every notification read on the server.
type ReadMarker interface {
	MarkAllRead(ctx context.Context) error
}

// SyncOptions configures a Synchronizer.
type SyncOptions struct {
	Timeout time.Duration
	Logger  logging.Logger
	// Now stamps readAt. Defaults to time.Now.
	Now func() time.Time
}

// Synchronizer applies read state locally first, then tells the server.
// A failed server call is logged and never rolled back. One sync at a time:
// triggers while a call is in flight are dropped.
type Synchronizer struct {
	marker   ReadMarker
	store    *Store
	timeout  time.Duration
	logger   logging.Logger
	now      func() time.Time
	inFlight bool
	lastErr  error
	marks    uint64
}

// NewSynchronizer creates a synchronizer over store.
func NewSynchronizer(marker ReadMarker, store *Store, opts SyncOptions) *Synchronizer {
	if opts.Logger == nil {
		opts.Logger = logging.GetGlobal()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Synchronizer{
		marker:  marker,
		store:   store,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

// Marks counts local mark-all-read passes. Unread counts fetched under an
// older value predate the last pass.
func (s *Synchronizer) Marks() uint64 {
	return s.marks
}

// InFlight reports whether a server call is pending.
func (s *Synchronizer) InFlight() bool {
	return s.inFlight
}

// LastErr returns the error of the most recent server call, if it failed.
func (s *Synchronizer) LastErr() error {
	return s.lastErr
}

// MarkAllRead marks everything read locally and returns the server call.
// Returns nil when nothing is unread or a call is already in flight.
func (s *Synchronizer) MarkAllRead() tea.Cmd {
	if s.inFlight || s.store.UnreadCount() == 0 {
		return nil
	}
	flipped := s.store.MarkAllRead(s.now())
	s.marks++
	s.inFlight = true
	s.logger.Debug("marked all read locally", "flipped", flipped)

	marker, timeout := s.marker, s.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return ReadSyncedMsg{Err: marker.MarkAllRead(ctx)}
	}
}

// MarkOnActivate runs the bulk sync when anything is unread, and always yields
// an ActivatedMsg so navigation never waits on the server.
func (s *Synchronizer) MarkOnActivate(id string) tea.Cmd {
	syncCmd := s.MarkAllRead()

	n, found := s.store.Get(id)
	activated := ActivatedMsg{ID: id, Notification: n, Found: found, Route: n.Related.Route()}
	navigate := func() tea.Msg { return activated }

	if syncCmd == nil {
		return navigate
	}
	return tea.Batch(syncCmd, navigate)
}

// HandleReadSynced completes the in-flight call.
func (s *Synchronizer) HandleReadSynced(msg ReadSyncedMsg) {
	s.inFlight = false
	s.lastErr = msg.Err
	if msg.Err != nil {
		s.logger.Warn("mark all read failed; local state kept", "error", msg.Err)
	}
}
