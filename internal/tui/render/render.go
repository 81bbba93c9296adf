// Package render draws the notification feed rows, header and footer.
package render

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/cristianoliveira/hostel-intray/internal/colors"
	"github.com/cristianoliveira/hostel-intray/internal/domain"
)

const (
	bell            = "🔔"
	unreadMarker    = "●"
	readMarker      = " "
	labelWidth      = 18
	ageWidth        = 4
	columnGaps      = 6
	defaultWidth    = 80
	minTitleWidth   = 10
	maxBadgeDisplay = 99
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ansiColorNumber(colors.Blue)))
	badgeStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Background(lipgloss.Color(ansiColorNumber(colors.Red))).
			Foreground(lipgloss.Color("15"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color(ansiColorNumber(colors.Blue))).Foreground(lipgloss.Color("0"))
	unreadStyle   = lipgloss.NewStyle().Bold(true)
	readStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ansiColorNumber(colors.Red)))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color(ansiColorNumber(colors.Green)))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ansiColorNumber(colors.Cyan)))
)

// HeaderState defines the inputs needed to render the header line.
type HeaderState struct {
	Unread int
	Open   bool
	Width  int
}

// Header renders the bell, the unread badge and whether the feed is open.
func Header(state HeaderState) string {
	parts := []string{headerStyle.Render(bell + " Notifications")}
	if state.Unread > 0 {
		parts = append(parts, badgeStyle.Render(Badge(state.Unread)))
	}
	if !state.Open {
		parts = append(parts, helpStyle.Render("(closed, press b to open)"))
	}
	return lipgloss.NewStyle().MaxWidth(widthOr(state.Width)).Render(strings.Join(parts, " "))
}

// Badge formats the unread count, capping large values.
func Badge(unread int) string {
	if unread > maxBadgeDisplay {
		return fmt.Sprintf("%d+", maxBadgeDisplay)
	}
	return fmt.Sprintf("%d", unread)
}

// RowState defines the inputs needed to render a notification row.
type RowState struct {
	Notification domain.Notification
	Width        int
	Selected     bool
	Now          time.Time
}

// Row renders a single notification row: read marker, kind label, title, age.
func Row(state RowState) string {
	n := state.Notification
	width := widthOr(state.Width)

	marker := unreadMarker
	if n.Read {
		marker = readMarker
	}
	titleWidth := width - labelWidth - ageWidth - columnGaps - 1
	if titleWidth < minTitleWidth {
		titleWidth = minTitleWidth
	}

	title := n.Title
	if title == "" {
		title = n.Body
	}
	row := fmt.Sprintf("%s  %-*s  %-*s  %*s",
		marker,
		labelWidth, truncate(n.Kind.Label(), labelWidth),
		titleWidth, truncate(title, titleWidth),
		ageWidth, Age(n.CreatedAt, state.Now),
	)

	switch {
	case state.Selected:
		return selectedStyle.Render(row)
	case n.Read:
		return readStyle.Render(row)
	default:
		return unreadStyle.Render(row)
	}
}

// Detail renders the body of an activated notification.
func Detail(n domain.Notification, route string, width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(n.Title))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(n.Kind.Label()))
	b.WriteString("  ")
	b.WriteString(helpStyle.Render(n.CreatedAt.Local().Format("Mon 2 Jan 15:04")))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(widthOr(width)).Render(n.Body))
	b.WriteString("\n\n")
	if route != "" {
		b.WriteString(helpStyle.Render("Open: ") + route)
	} else {
		b.WriteString(helpStyle.Render("No linked page"))
	}
	return b.String()
}

// StatusState defines the inputs needed to render the status line.
type StatusState struct {
	Stream  string
	Loading string // spinner frame while a page loads, else ""
	HasMore bool
	Loaded  int
	Err     error
	Message string
}

// Status renders stream state, pagination progress and the last error.
func Status(state StatusState) string {
	stream := okStyle.Render("● " + state.Stream)
	if state.Stream != "live" {
		stream = errorStyle.Render("○ " + state.Stream)
	}
	parts := []string{stream, fmt.Sprintf("%d loaded", state.Loaded)}
	switch {
	case state.Loading != "":
		parts = append(parts, state.Loading+" loading")
	case !state.HasMore:
		parts = append(parts, "end of feed")
	}
	if state.Message != "" {
		parts = append(parts, state.Message)
	}
	line := strings.Join(parts, "  ")
	if state.Err != nil {
		line += "  " + errorStyle.Render("Error: "+state.Err.Error())
	}
	return line
}

// Footer renders the key help.
func Footer(detail bool) string {
	help := []string{"j/k: move", "enter: open", "b: open/close feed", "r: retry", "q: quit"}
	if detail {
		help = []string{"j/k: scroll", "esc: back", "q: quit"}
	}
	return helpStyle.Render(strings.Join(help, "  |  "))
}

// Empty renders the placeholder for an empty feed.
func Empty() string {
	return helpStyle.Render("No notifications yet.")
}

// Age formats the time since t in the largest whole unit.
func Age(t time.Time, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if now.IsZero() {
		now = time.Now()
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", max(0, int(d.Seconds())))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func widthOr(width int) int {
	if width <= 0 {
		return defaultWidth
	}
	return width
}

func truncate(value string, width int) string {
	if width <= 0 || utf8.RuneCountInString(value) <= width {
		return value
	}
	if width <= 3 {
		return string([]rune(value)[:width])
	}
	return string([]rune(value)[:width-3]) + "..."
}

// ansiColorNumber extracts the color number from an ANSI escape sequence.
// Example: "\033[0;34m" -> "34"
func ansiColorNumber(ansi string) string {
	lastSemicolon := strings.LastIndex(ansi, ";")
	if len(ansi) < 2 || lastSemicolon == -1 {
		return ""
	}
	return ansi[lastSemicolon+1 : len(ansi)-1]
}
