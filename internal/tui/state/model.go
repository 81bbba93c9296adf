// Package state holds the bubbletea model of the notification feed view.
package state

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cristianoliveira/hostel-intray/internal/domain"
	"github.com/cristianoliveira/hostel-intray/internal/feed"
	"github.com/cristianoliveira/hostel-intray/internal/tui/render"
)

const (
	headerFooterLines     = 5
	defaultViewportWidth  = 80
	defaultViewportHeight = 22
	defaultThreshold      = 3
)

// Options configures the feed view.
type Options struct {
	// ScrollThreshold is how many rows from the end count as near the bottom.
	ScrollThreshold int
	// ScrollThrottle bounds how often near-bottom loads fire.
	ScrollThrottle time.Duration
	// Now is the clock used for ages and the throttle.
	Now func() time.Time
}

// Model is the feed view. It hosts a feed.Feed and forwards completion
// messages to it; the feed is mounted in Init and unmounted on quit.
type Model struct {
	feed      *feed.Feed
	keys      KeyMap
	throttle  *Throttle
	threshold int
	now       func() time.Time

	cursor int
	offset int
	width  int
	height int

	spinner    spinner.Model
	detail     viewport.Model
	showDetail bool
	activated  feed.ActivatedMsg
	message    string
	quitting   bool
}

// NewModel creates the view around f.
func NewModel(f *feed.Feed, opts Options) *Model {
	if opts.ScrollThreshold <= 0 {
		opts.ScrollThreshold = defaultThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Model{
		feed:      f,
		keys:      DefaultKeyMap(),
		throttle:  NewThrottle(opts.ScrollThrottle, opts.Now),
		threshold: opts.ScrollThreshold,
		now:       opts.Now,
		width:     defaultViewportWidth,
		height:    defaultViewportHeight,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		detail:    viewport.New(defaultViewportWidth, defaultViewportHeight-headerFooterLines),
	}
}

// Init mounts the feed.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.feed.Mount(), m.spinner.Tick)
}

// Update handles messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.detail.Width = msg.Width
		m.detail.Height = max(1, msg.Height-headerFooterLines)
		m.ensureCursorVisible()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case scrollFireMsg:
		if m.throttle.Fire() {
			return m, m.feed.LoadMore()
		}
		return m, nil
	case feed.ActivatedMsg:
		m.openDetail(msg)
		return m, nil
	}

	cmd := m.feed.Update(msg)
	m.clampCursor()
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Toggle):
		m.showDetail = false
		if !m.feed.IsOpen() {
			m.cursor, m.offset = 0, 0
		}
		return m.feed.Toggle()
	case key.Matches(msg, m.keys.Retry):
		return m.retry()
	}

	if m.showDetail {
		switch {
		case key.Matches(msg, m.keys.Back):
			m.showDetail = false
			return nil
		case key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.Up):
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return cmd
		}
		return nil
	}

	if !m.feed.IsOpen() {
		return nil
	}
	switch {
	case key.Matches(msg, m.keys.Down):
		return m.move(1)
	case key.Matches(msg, m.keys.Up):
		return m.move(-1)
	case key.Matches(msg, m.keys.Activate):
		items := m.feed.Store().Items()
		if len(items) == 0 {
			return nil
		}
		return m.feed.Activate(items[m.cursor].ID)
	}
	return nil
}

// quit closes the feed, which may mark everything read, then unmounts it.
// The mark-read call still completes before the program exits.
func (m *Model) quit() tea.Cmd {
	m.quitting = true
	closeCmd := m.feed.Close()
	m.feed.Unmount()
	return tea.Sequence(closeCmd, tea.Quit)
}

func (m *Model) retry() tea.Cmd {
	var cmds []tea.Cmd
	if m.feed.Pagination().Status == feed.PageError {
		cmds = append(cmds, m.feed.LoadMore())
	}
	if state, _ := m.feed.StreamState(); state == feed.StreamDown {
		cmds = append(cmds, m.feed.Reconnect())
	}
	if len(cmds) == 0 {
		m.message = "nothing to retry"
		return nil
	}
	m.message = ""
	return tea.Batch(cmds...)
}

// move shifts the cursor and fires the near-bottom trigger through the throttle.
func (m *Model) move(delta int) tea.Cmd {
	n := m.feed.Store().Len()
	if n == 0 {
		return nil
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	m.ensureCursorVisible()

	if n-1-m.cursor >= m.threshold {
		return nil
	}
	fire, cmd := m.throttle.Trigger()
	if fire {
		return m.feed.LoadMore()
	}
	return cmd
}

func (m *Model) openDetail(msg feed.ActivatedMsg) {
	if !msg.Found {
		m.message = "notification no longer available"
		return
	}
	m.activated = msg
	m.showDetail = true
	m.detail.SetContent(render.Detail(msg.Notification, msg.Route, m.width))
	m.detail.GotoTop()
}

func (m *Model) listHeight() int {
	return max(1, m.height-headerFooterLines)
}

func (m *Model) clampCursor() {
	n := m.feed.Store().Len()
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	m.ensureCursorVisible()
}

func (m *Model) ensureCursorVisible() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}

// View renders the feed view.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	store := m.feed.Store()

	var b strings.Builder
	b.WriteString(render.Header(render.HeaderState{Unread: store.UnreadCount(), Open: m.feed.IsOpen(), Width: m.width}))
	b.WriteString("\n\n")

	switch {
	case m.showDetail:
		b.WriteString(m.detail.View())
	case m.feed.IsOpen():
		b.WriteString(m.renderList(store.Items()))
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(render.Footer(m.showDetail))
	return b.String()
}

func (m *Model) renderList(items []domain.Notification) string {
	if len(items) == 0 {
		return render.Empty()
	}
	end := min(len(items), m.offset+m.listHeight())
	rows := make([]string, 0, end-m.offset)
	now := m.now()
	for i := m.offset; i < end; i++ {
		rows = append(rows, render.Row(render.RowState{
			Notification: items[i],
			Width:        m.width,
			Selected:     i == m.cursor,
			Now:          now,
		}))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderStatus() string {
	page := m.feed.Pagination()
	stream, streamErr := m.feed.StreamState()

	err := page.Err
	if err == nil {
		err = streamErr
	}
	if err == nil {
		err = m.feed.ReadSyncErr()
	}

	loading := ""
	if page.IsLoading {
		loading = m.spinner.View()
	}
	return render.Status(render.StatusState{
		Stream:  stream.String(),
		Loading: loading,
		HasMore: page.HasMore,
		Loaded:  page.LoadedCount,
		Err:     err,
		Message: m.message,
	})
}

// Cursor returns the selected row index.
func (m *Model) Cursor() int { return m.cursor }

// ShowingDetail reports whether the detail pane is open.
func (m *Model) ShowingDetail() bool { return m.showDetail }

// Activated returns the last activated notification.
func (m *Model) Activated() feed.ActivatedMsg { return m.activated }
