package feed

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cristianoliveira/hostel-intray/internal/api"
	"github.com/cristianoliveira/hostel-intray/internal/logging"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 20

// PageFetcher loads one offset-based page, newest first.
type PageFetcher interface {
	FetchPage(ctx context.Context, limit, skip int) (api.Page, error)
}

// PageStatus is the pagination state machine position.
type PageStatus int

const (
	// PageIdle means no fetch is pending and the last one, if any, succeeded.
	PageIdle PageStatus = iota
	// PageLoading means a page fetch is in flight.
	PageLoading
	// PageError means the last fetch failed; the next LoadNext retries it.
	PageError
)

func (s PageStatus) String() string {
	switch s {
	case PageLoading:
		return "loading"
	case PageError:
		return "error"
	default:
		return "idle"
	}
}

// PaginationState is a snapshot of the pager.
type PaginationState struct {
	PageSize    int
	LoadedCount int
	HasMore     bool
	IsLoading   bool
	Status      PageStatus
	Err         error
}

// PagerOptions configures a Pager.
type PagerOptions struct {
	PageSize int
	// Timeout bounds each fetch. Zero means no bound.
	Timeout time.Duration
	Logger  logging.Logger
}

// Pager drives offset pagination into a Store. Triggers that arrive while a
// page is loading, or after the server said there is nothing more, are dropped.
type Pager struct {
	fetcher    PageFetcher
	store      *Store
	timeout    time.Duration
	logger     logging.Logger
	state      PaginationState
	generation uint64
}

// NewPager creates a pager in the idle state.
func NewPager(fetcher PageFetcher, store *Store, opts PagerOptions) *Pager {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetGlobal()
	}
	return &Pager{
		fetcher: fetcher,
		store:   store,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		state: PaginationState{
			PageSize: opts.PageSize,
			HasMore:  true,
		},
	}
}

// State returns a snapshot of the pagination state.
func (p *Pager) State() PaginationState {
	return p.state
}

// LoadNext fetches the page after the ones already loaded. It returns nil,
// and makes no call, while loading or when no more pages exist.
func (p *Pager) LoadNext() tea.Cmd {
	if p.state.IsLoading || !p.state.HasMore {
		return nil
	}
	return p.fetch()
}

// ResetAndReopen starts over from the first page. Responses to earlier
// fetches are discarded when they arrive.
func (p *Pager) ResetAndReopen() tea.Cmd {
	p.generation++
	p.state.LoadedCount = 0
	p.state.HasMore = true
	p.state.Err = nil
	return p.fetch()
}

func (p *Pager) fetch() tea.Cmd {
	p.state.IsLoading = true
	p.state.Status = PageLoading

	fetcher, timeout := p.fetcher, p.timeout
	gen, size, skip := p.generation, p.state.PageSize, p.state.LoadedCount
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		page, err := fetcher.FetchPage(ctx, size, skip)
		return PageLoadedMsg{Generation: gen, Skip: skip, Page: page, Err: err}
	}
}

// HandlePageLoaded applies a fetch result. It reports false for stale results.
// On failure the loaded count and hasMore are kept so the next LoadNext retries.
func (p *Pager) HandlePageLoaded(msg PageLoadedMsg) bool {
	if msg.Generation != p.generation {
		p.logger.Debug("discarding stale page", "generation", msg.Generation, "current", p.generation)
		return false
	}
	p.state.IsLoading = false

	if msg.Err != nil {
		p.state.Status = PageError
		p.state.Err = msg.Err
		p.logger.Warn("page fetch failed", "skip", msg.Skip, "error", msg.Err)
		return true
	}

	added := p.store.OnPageLoaded(msg.Page.Items)
	received := msg.Page.Received
	if received < len(msg.Page.Items) {
		received = len(msg.Page.Items)
	}
	p.state.LoadedCount += received
	p.state.HasMore = msg.Page.HasMore
	p.state.Status = PageIdle
	p.state.Err = nil
	p.logger.Debug("page loaded", "skip", msg.Skip, "received", received, "added", added, "hasMore", msg.Page.HasMore)
	return true
}
