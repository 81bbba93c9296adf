package state

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// scrollFireMsg is the trailing-edge tick of a Throttle.
type scrollFireMsg struct{}

// Throttle limits near-bottom triggers to one per interval. The first trigger
// fires at once; triggers inside the window collapse into one trailing fire
// at the window end, so the last one is never lost.
type Throttle struct {
	interval time.Duration
	now      func() time.Time
	last     time.Time
	pending  bool
	armed    bool
}

// NewThrottle creates a throttle. A non-positive interval disables throttling.
func NewThrottle(interval time.Duration, now func() time.Time) *Throttle {
	if now == nil {
		now = time.Now
	}
	return &Throttle{interval: interval, now: now}
}

// Trigger reports whether the caller should act now. When it should not, the
// returned Cmd (if any) schedules the trailing fire.
func (t *Throttle) Trigger() (bool, tea.Cmd) {
	now := t.now()
	if t.interval <= 0 || (!t.armed && now.Sub(t.last) >= t.interval) {
		t.last = now
		return true, nil
	}
	t.pending = true
	if t.armed {
		return false, nil
	}
	t.armed = true
	wait := t.last.Add(t.interval).Sub(now)
	return false, tea.Tick(wait, func(time.Time) tea.Msg { return scrollFireMsg{} })
}

// Fire handles the trailing tick and reports whether the caller should act.
func (t *Throttle) Fire() bool {
	if !t.armed {
		return false
	}
	t.armed = false
	if !t.pending {
		return false
	}
	t.pending = false
	t.last = t.now()
	return true
}
