package domain

// Origin records how a notification reached the client.
type Origin int

const (
	// OriginPage marks a notification retrieved by a page fetch.
	OriginPage Origin = iota
	// OriginLive marks a notification delivered over the push connection.
	OriginLive
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	switch o {
	case OriginLive:
		return "live"
	case OriginPage:
		return "page"
	default:
		return "unknown"
	}
}

// Entry is a notification as held by the feed, with the arrival metadata
// needed to break createdAt ties.
type Entry struct {
	Notification
	Origin Origin
	Seq    uint64
}

// Before reports whether a sorts ahead of b in the newest-first feed order.
//
// Later createdAt wins. On equal createdAt a live entry is ahead of a paged one,
// the later of two live arrivals is ahead, and paged entries keep page order.
func Before(a, b Entry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if a.Origin != b.Origin {
		return a.Origin == OriginLive
	}
	if a.Origin == OriginLive {
		return a.Seq > b.Seq
	}
	return a.Seq < b.Seq
}
