package feed

import (
	"math/rand"
	"testing"
	"time"

	"github.com/cristianoliveira/hostel-intray/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreScenarios(t *testing.T) {
	s := NewStore()

	// A: first page in order.
	added := s.OnPageLoaded([]domain.Notification{note("n1", 10), note("n2", 5)})
	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"n1", "n2"}, ids(s.Items()))

	// B: newer live event goes first and counts as unread.
	require.True(t, s.OnLiveEvent(note("n3", 20)))
	assert.Equal(t, []string{"n3", "n1", "n2"}, ids(s.Items()))
	assert.Equal(t, 1, s.UnreadCount())

	// C: a stale resend of a held ID changes nothing.
	assert.False(t, s.OnLiveEvent(note("n1", 10)))
	assert.Equal(t, []string{"n3", "n1", "n2"}, ids(s.Items()))
	assert.Equal(t, 1, s.UnreadCount())
}

func TestStoreIdempotentIngestionEitherOrder(t *testing.T) {
	liveFirst := NewStore()
	liveFirst.OnLiveEvent(note("x", 30))
	assert.Equal(t, 0, liveFirst.OnPageLoaded([]domain.Notification{note("x", 30)}))
	assert.Equal(t, 1, liveFirst.Len())

	pageFirst := NewStore()
	pageFirst.OnPageLoaded([]domain.Notification{note("x", 30)})
	assert.False(t, pageFirst.OnLiveEvent(note("x", 30)))
	assert.Equal(t, 1, pageFirst.Len())
	assert.Equal(t, 0, pageFirst.UnreadCount())
}

func TestStorePageDuplicateKeepsLocalReadState(t *testing.T) {
	s := NewStore()
	s.OnLiveEvent(note("x", 30))
	s.MarkAllRead(epoch)

	server := note("x", 30)
	s.OnPageLoaded([]domain.Notification{server})

	got, ok := s.Get("x")
	require.True(t, ok)
	assert.True(t, got.Read)
}

func TestStoreTieBreaks(t *testing.T) {
	s := NewStore()
	s.OnPageLoaded([]domain.Notification{note("p1", 10), note("p2", 10)})
	s.OnLiveEvent(note("l1", 10))
	s.OnLiveEvent(note("l2", 10))
	s.OnPageLoaded([]domain.Notification{note("p3", 10)})

	assert.Equal(t, []string{"l2", "l1", "p1", "p2", "p3"}, ids(s.Items()))
}

func TestStoreOutOfOrderLiveEventIsPlacedByCreatedAt(t *testing.T) {
	s := NewStore()
	s.OnPageLoaded([]domain.Notification{note("new", 50), note("old", 10)})
	s.OnLiveEvent(note("late", 30))

	assert.Equal(t, []string{"new", "late", "old"}, ids(s.Items()))
}

func TestStoreOrderInvariantUnderRandomInterleaving(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := NewStore()

	for i := 0; i < 300; i++ {
		id := string(rune('a'+rng.Intn(26))) + string(rune('a'+rng.Intn(26)))
		at := rng.Intn(40)
		if rng.Intn(2) == 0 {
			s.OnLiveEvent(note(id, at))
		} else {
			s.OnPageLoaded([]domain.Notification{note(id, at)})
		}
	}

	entries := s.Entries()
	seen := map[string]bool{}
	for i, e := range entries {
		require.False(t, seen[e.ID], "duplicate %s", e.ID)
		seen[e.ID] = true
		got, ok := s.Get(e.ID)
		require.True(t, ok)
		require.Equal(t, e.Notification, got, "lookup of %s after shifting inserts", e.ID)
		if i == 0 {
			continue
		}
		prev := entries[i-1]
		require.False(t, e.CreatedAt.After(prev.CreatedAt), "%s after %s", e.ID, prev.ID)
		if e.CreatedAt.Equal(prev.CreatedAt) {
			require.False(t, e.Origin == domain.OriginLive && prev.Origin == domain.OriginPage,
				"live %s sorted behind paged %s", e.ID, prev.ID)
		}
	}
}

func TestStoreUnreadCount(t *testing.T) {
	s := NewStore()
	s.OnUnreadCountLoaded(5)
	assert.Equal(t, 5, s.UnreadCount())

	s.OnLiveEvent(note("a", 1))
	assert.Equal(t, 6, s.UnreadCount())

	s.OnUnreadCountLoaded(2)
	assert.Equal(t, 2, s.UnreadCount(), "server count wins over local estimate")

	s.OnUnreadCountLoaded(-4)
	assert.Equal(t, 0, s.UnreadCount())
}

func TestStoreMarkAllRead(t *testing.T) {
	s := NewStore()
	read := note("r", 1)
	readAt := epoch
	read.Read, read.ReadAt = true, &readAt
	s.OnPageLoaded([]domain.Notification{note("a", 3), note("b", 2), read})
	s.OnUnreadCountLoaded(5)

	now := epoch.Add(time.Hour)
	assert.Equal(t, 2, s.MarkAllRead(now))
	assert.Equal(t, 0, s.UnreadCount())

	for _, n := range s.Items() {
		assert.True(t, n.Read, n.ID)
		require.NotNil(t, n.ReadAt)
	}
	r, _ := s.Get("r")
	assert.Equal(t, epoch, *r.ReadAt, "already-read items keep their readAt")
	a, _ := s.Get("a")
	assert.Equal(t, now, *a.ReadAt)
}

func TestStoreIgnoresEmptyID(t *testing.T) {
	s := NewStore()
	assert.False(t, s.OnLiveEvent(domain.Notification{CreatedAt: epoch}))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.UnreadCount())
}

func TestStoreItemsIsACopy(t *testing.T) {
	s := NewStore()
	s.OnLiveEvent(note("a", 1))

	items := s.Items()
	items[0].Title = "mutated"

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Notice a", got.Title)
	_, ok = s.Get("missing")
	assert.False(t, ok)
}
