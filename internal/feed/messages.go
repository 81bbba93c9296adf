package feed

import (
	"github.com/cristianoliveira/hostel-intray/internal/api"
	"github.com/cristianoliveira/hostel-intray/internal/domain"
)

// LiveEventMsg carries one notification delivered by the push connection.
type LiveEventMsg struct {
	Notification domain.Notification
}

// StreamErrorMsg reports a push connection failure. Dial is set when the
// connection could not be established at all. Generation ties it to the dial
// that opened the connection.
type StreamErrorMsg struct {
	Generation uint64
	Err        error
	Dial       bool
}

// StreamConnectedMsg hands an established connection to the feed.
type StreamConnectedMsg struct {
	Generation uint64
	Stream     Stream
}

// PageLoadedMsg completes a page fetch. Generation ties it to the
// pagination run that issued it.
type PageLoadedMsg struct {
	Generation uint64
	Skip       int
	Page       api.Page
	Err        error
}

// UnreadCountLoadedMsg completes an unread-count fetch. Counts fetched before
// the last local mark-all-read are stale and dropped.
type UnreadCountLoadedMsg struct {
	Generation uint64
	Count      int
	Err        error
}

// ReadSyncedMsg completes a bulk mark-read call.
type ReadSyncedMsg struct {
	Err error
}

// ActivatedMsg asks the host to navigate to an activated notification.
// Found is false for IDs the store does not hold; Route may be empty.
type ActivatedMsg struct {
	ID           string
	Notification domain.Notification
	Found        bool
	Route        string
}
