package feed

import (
	"errors"
	"testing"

	"github.com/cristianoliveira/hostel-intray/internal/api"
	"github.com/cristianoliveira/hostel-intray/internal/domain"
	"github.com/cristianoliveira/hostel-intray/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestPager(client *api.MockClient, size int) (*Pager, *Store) {
	store := NewStore()
	return NewPager(client, store, PagerOptions{PageSize: size, Logger: logging.Noop()}), store
}

func page(hasMore bool, items ...domain.Notification) api.Page {
	return api.Page{Items: items, HasMore: hasMore, Received: len(items)}
}

func TestPagerLoadsPagesInSequence(t *testing.T) {
	client := new(api.MockClient)
	client.On("FetchPage", mock.Anything, 2, 0).Return(page(true, note("n1", 10), note("n2", 5)), nil).Once()
	client.On("FetchPage", mock.Anything, 2, 2).Return(page(false, note("n0", 1)), nil).Once()
	p, store := newTestPager(client, 2)

	cmd := p.LoadNext()
	require.NotNil(t, cmd)
	assert.True(t, p.State().IsLoading)
	assert.Equal(t, PageLoading, p.State().Status)
	require.True(t, p.HandlePageLoaded(cmd().(PageLoadedMsg)))

	st := p.State()
	assert.Equal(t, 2, st.LoadedCount)
	assert.True(t, st.HasMore)
	assert.False(t, st.IsLoading)
	assert.Equal(t, []string{"n1", "n2"}, ids(store.Items()))

	p.HandlePageLoaded(p.LoadNext()().(PageLoadedMsg))
	st = p.State()
	assert.Equal(t, 3, st.LoadedCount)
	assert.False(t, st.HasMore)
	assert.Equal(t, PageIdle, st.Status)

	client.AssertExpectations(t)
}

func TestPagerDropsTriggersWhileLoading(t *testing.T) {
	client := new(api.MockClient)
	client.On("FetchPage", mock.Anything, 20, 0).Return(page(true, note("a", 1)), nil).Once()
	p, _ := newTestPager(client, 20)

	cmd := p.LoadNext()
	require.NotNil(t, cmd)
	assert.Nil(t, p.LoadNext())
	assert.Nil(t, p.LoadNext())

	p.HandlePageLoaded(cmd().(PageLoadedMsg))
	client.AssertNumberOfCalls(t, "FetchPage", 1)
}

func TestPagerNoCallWhenNothingMore(t *testing.T) {
	client := new(api.MockClient)
	client.On("FetchPage", mock.Anything, 20, 0).Return(page(false, note("a", 1)), nil).Once()
	p, _ := newTestPager(client, 20)
	p.HandlePageLoaded(p.LoadNext()().(PageLoadedMsg))

	before := p.State()
	assert.Nil(t, p.LoadNext())
	assert.Equal(t, before, p.State())
	client.AssertNumberOfCalls(t, "FetchPage", 1)
}

func TestPagerFailureKeepsStateAndRetries(t *testing.T) {
	boom := errors.New("gateway timeout")
	client := new(api.MockClient)
	client.On("FetchPage", mock.Anything, 20, 0).Return(page(true, note("a", 1)), nil).Once()
	client.On("FetchPage", mock.Anything, 20, 1).Return(api.Page{}, boom).Once()
	client.On("FetchPage", mock.Anything, 20, 1).Return(page(false, note("b", 0)), nil).Once()
	p, store := newTestPager(client, 20)
	p.HandlePageLoaded(p.LoadNext()().(PageLoadedMsg))

	p.HandlePageLoaded(p.LoadNext()().(PageLoadedMsg))
	st := p.State()
	assert.Equal(t, PageError, st.Status)
	assert.ErrorIs(t, st.Err, boom)
	assert.False(t, st.IsLoading)
	assert.True(t, st.HasMore)
	assert.Equal(t, 1, st.LoadedCount)
	assert.Equal(t, 1, store.Len())

	retry := p.LoadNext()
	require.NotNil(t, retry)
	p.HandlePageLoaded(retry().(PageLoadedMsg))
	assert.Equal(t, 2, p.State().LoadedCount)
	assert.NoError(t, p.State().Err)
	client.AssertExpectations(t)
}

func TestPagerResetDiscardsStaleResponses(t *testing.T) {
	client := new(api.MockClient)
	client.On("FetchPage", mock.Anything, 20, 0).Return(page(true, note("a", 2), note("b", 1)), nil)
	client.On("FetchPage", mock.Anything, 20, 2).Return(page(false, note("old", 0)), nil)
	p, store := newTestPager(client, 20)
	p.HandlePageLoaded(p.LoadNext()().(PageLoadedMsg))

	stale := p.LoadNext()
	require.NotNil(t, stale)
	fresh := p.ResetAndReopen()
	require.NotNil(t, fresh)
	assert.Equal(t, 0, p.State().LoadedCount)

	assert.False(t, p.HandlePageLoaded(stale().(PageLoadedMsg)))
	assert.True(t, p.State().IsLoading, "stale response must not end the fresh load")
	assert.Equal(t, 2, store.Len())

	assert.True(t, p.HandlePageLoaded(fresh().(PageLoadedMsg)))
	assert.Equal(t, 2, p.State().LoadedCount)
	assert.True(t, p.State().HasMore)
}

func TestPagerLoadedCountNeverDecreases(t *testing.T) {
	client := new(api.MockClient)
	client.On("FetchPage", mock.Anything, 1, mock.AnythingOfType("int")).Return(page(true, note("same", 1)), nil)
	p, store := newTestPager(client, 1)

	prev := 0
	for i := 0; i < 5; i++ {
		p.HandlePageLoaded(p.LoadNext()().(PageLoadedMsg))
		require.GreaterOrEqual(t, p.State().LoadedCount, prev)
		prev = p.State().LoadedCount
	}
	assert.Equal(t, 5, prev, "offset advances by what the server sent, not what was new")
	assert.Equal(t, 1, store.Len())
}

func TestPagerCountsUndecodableItems(t *testing.T) {
	client := new(api.MockClient)
	client.On("FetchPage", mock.Anything, 3, 0).Return(api.Page{Items: []domain.Notification{note("a", 1)}, HasMore: true, Received: 3}, nil)
	p, _ := newTestPager(client, 3)

	p.HandlePageLoaded(p.LoadNext()().(PageLoadedMsg))
	assert.Equal(t, 3, p.State().LoadedCount)
}

func TestPageStatusString(t *testing.T) {
	assert.Equal(t, "idle", PageIdle.String())
	assert.Equal(t, "loading", PageLoading.String())
	assert.Equal(t, "error", PageError.String())
}
