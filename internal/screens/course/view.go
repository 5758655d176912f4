package course

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/bmc/internal/media"
	"github.com/abhisek/bmc/internal/tracker"
	"github.com/abhisek/bmc/internal/ui/components"
	"github.com/abhisek/bmc/internal/ui/layout"
	"github.com/abhisek/bmc/internal/ui/theme"
)

const (
	listMinWidth = 28
	footerLines  = 4
)

func percentLabel(p int) string {
	return fmt.Sprintf("%d%%", p)
}

func (s *CourseScreen) View(width, height int) string {
	bodyHeight := max(height-footerLines, 4)
	compact := layout.IsCompactHeight(height)

	// Narrow terminals get the detail card above a shorter list.
	if layout.IsCompactWidth(width) {
		detail := s.renderDetail(width, compact)
		listHeight := max(bodyHeight-lipgloss.Height(detail), 3)
		list := s.renderList(width, listHeight)
		body := lipgloss.JoinVertical(lipgloss.Left,
			detail,
			lipgloss.NewStyle().Width(width).Height(listHeight).Render(list),
		)
		return body + "\n" + s.renderFooter(width)
	}

	listWidth := max(width/3, listMinWidth)
	detailWidth := max(width-listWidth-2, 20)

	list := s.renderList(listWidth, bodyHeight)
	detail := s.renderDetail(detailWidth, compact)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listWidth).Height(bodyHeight).Render(list),
		"  ",
		lipgloss.NewStyle().Width(detailWidth).Render(detail),
	)

	return body + "\n" + s.renderFooter(width)
}

func (s *CourseScreen) renderList(width, height int) string {
	var b strings.Builder

	b.WriteString(s.search.View())
	b.WriteString("\n\n")

	if len(s.items) == 0 {
		msg := "No units available."
		if s.search.Value() != "" {
			msg = "No units match."
		}
		b.WriteString(theme.Hint.Render(msg))
		return b.String()
	}

	visible := max(height-2, 1)
	start := 0
	if s.cursor >= visible {
		start = s.cursor - visible + 1
	}
	end := min(start+visible, len(s.items))

	for i := start; i < end; i++ {
		b.WriteString(s.renderItem(s.items[i], i == s.cursor, width))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *CourseScreen) renderItem(it tracker.ListItem, focused bool, width int) string {
	badge := theme.Open.Render("○ open")
	if it.Completed {
		badge = theme.Done.Render("✓ done")
	}

	prefix := "  "
	if focused {
		prefix = "▸ "
	}

	title := it.Unit.Title
	room := width - lipgloss.Width(prefix) - lipgloss.Width(badge) - 1
	if room > 1 && lipgloss.Width(title) > room {
		title = truncate(title, room)
	}

	style := theme.Unselected
	if it.Active {
		style = theme.Selected
	}
	line := style.Render(prefix + title)
	gap := max(width-lipgloss.Width(line)-lipgloss.Width(badge), 1)
	return line + strings.Repeat(" ", gap) + badge
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// renderDetail draws the active unit's card. compact drops the spacing and
// the link line.
func (s *CourseScreen) renderDetail(width int, compact bool) string {
	d, ok := s.ctrl.Detail()
	if !ok {
		return theme.Card.Width(width).Render(theme.Hint.Render("Select a unit to begin."))
	}

	spacer := func(lines []string) []string {
		if compact {
			return lines
		}
		return append(lines, "")
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(d.Title))
	if d.Path != "" {
		lines = append(lines, theme.Hint.Render(d.Path))
	}
	lines = spacer(lines)
	lines = append(lines, s.mediaLine("Audio", d.AudioURL, s.audio, s.audioErr))
	lines = append(lines, s.mediaLine("Document", d.DocumentURL, s.document, s.documentErr))
	lines = spacer(lines)

	buttons := []string{
		components.NewButton("Mark complete", "c", d.CanComplete, nil).View(),
		components.NewButton("Play audio", "a", d.CanDownloadAudio, nil).View(),
		components.NewButton("Save audio", "d", d.CanDownloadAudio, nil).View(),
		components.NewButton("Open document", "o", d.CanOpenDocument, nil).View(),
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(buttons[:2], " "), " ", strings.Join(buttons[2:], " ")))

	if d.Message != "" {
		lines = spacer(lines)
		lines = append(lines, theme.Done.Render(d.Message))
	}
	if !compact {
		lines = append(lines, "", theme.Hint.Render("Link: "+d.Location))
	}

	card := theme.Card
	if compact {
		card = card.Padding(0, 1)
	}
	return card.Width(width).Render(strings.Join(lines, "\n"))
}

func (s *CourseScreen) mediaLine(label, ref string, status mediaStatus, failure *media.LoadFailure) string {
	name := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(label + ": ")
	if ref == "" {
		return name + theme.Open.Render("not available")
	}

	var state string
	switch status {
	case mediaChecking:
		state = theme.Hint.Render("checking...")
	case mediaReady:
		state = theme.Done.Render("ready")
	case mediaFailed:
		text := strings.ToLower(label) + " unavailable"
		if failure != nil {
			text = failure.Label()
		}
		state = theme.Failure.Render(text)
	}
	return name + s.resolve(ref) + "  " + state
}

func (s *CourseScreen) renderFooter(width int) string {
	sum := s.ctrl.Summary()
	gate := s.ctrl.Gate()

	bar := components.NewProgressBar(tracker.CountLabel(sum), sum.Percent, true, min(width, 60)).View()

	var exam string
	if gate.Visible {
		exam = components.NewButton("Final exam", "e", gate.Enabled, nil).View()
	} else {
		exam = theme.Hint.Render("Final exam unlocks when every unit is complete.")
	}

	lines := []string{lipgloss.JoinHorizontal(lipgloss.Center, bar, "   ", exam)}
	if s.notice != "" {
		style := theme.Notice
		if s.noticeErr {
			style = theme.Failure
		}
		lines = append(lines, style.Render(s.notice))
	}
	return strings.Join(lines, "\n")
}
