// Package feed holds the live notification feed: the in-memory store, the
// pagination and read-sync controllers, and the lifecycle that ties them to a
// push connection. All mutation happens on the caller's event loop; network
// work runs inside tea.Cmds and reports back through messages.
package feed

import (
	"sort"
	"time"

	"github.com/cristianoliveira/hostel-intray/internal/domain"
)

// Store is the session-scoped notification collection and unread counter.
// Entries are kept newest first and are unique by ID.
type Store struct {
	entries []domain.Entry
	// index maps an ID to its position in entries.
	index  map[string]int
	unread int
	seq    uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// OnLiveEvent inserts a pushed notification and counts it as unread.
// A notification already held is ignored. Returns whether it was inserted.
func (s *Store) OnLiveEvent(n domain.Notification) bool {
	if !s.insert(n, domain.OriginLive) {
		return false
	}
	s.unread++
	return true
}

// OnPageLoaded merges a page into the store, skipping IDs already held.
// Returns the number of items added.
func (s *Store) OnPageLoaded(items []domain.Notification) int {
	added := 0
	for _, n := range items {
		if s.insert(n, domain.OriginPage) {
			added++
		}
	}
	return added
}

// OnUnreadCountLoaded replaces the unread counter with the server's value.
func (s *Store) OnUnreadCountLoaded(n int) {
	if n < 0 {
		n = 0
	}
	s.unread = n
}

// MarkAllRead flips every held notification to read and zeroes the counter.
// Returns how many notifications changed.
func (s *Store) MarkAllRead(now time.Time) int {
	flipped := 0
	for i := range s.entries {
		if s.entries[i].MarkRead(now) {
			flipped++
		}
	}
	s.unread = 0
	return flipped
}

// insert places n at its ordered position. It never blindly prepends, so an
// out-of-order push still lands where createdAt says it belongs.
func (s *Store) insert(n domain.Notification, origin domain.Origin) bool {
	if n.ID == "" {
		return false
	}
	if _, ok := s.index[n.ID]; ok {
		return false
	}
	s.seq++
	e := domain.Entry{Notification: n, Origin: origin, Seq: s.seq}
	pos := sort.Search(len(s.entries), func(i int) bool {
		return domain.Before(e, s.entries[i])
	})
	s.entries = append(s.entries, domain.Entry{})
	copy(s.entries[pos+1:], s.entries[pos:])
	s.entries[pos] = e
	for i := pos; i < len(s.entries); i++ {
		s.index[s.entries[i].ID] = i
	}
	return true
}

// Items returns a copy of the notifications in display order.
func (s *Store) Items() []domain.Notification {
	out := make([]domain.Notification, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Notification
	}
	return out
}

// Entries returns a copy of the entries with their arrival metadata.
func (s *Store) Entries() []domain.Entry {
	out := make([]domain.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get returns the notification with the given ID.
func (s *Store) Get(id string) (domain.Notification, bool) {
	i, ok := s.index[id]
	if !ok {
		return domain.Notification{}, false
	}
	return s.entries[i].Notification, true
}

// Len returns the number of held notifications.
func (s *Store) Len() int {
	return len(s.entries)
}

// UnreadCount returns the unread counter.
func (s *Store) UnreadCount() int {
	return s.unread
}
