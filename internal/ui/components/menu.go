package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/bmc/internal/ui/theme"
)

// MenuItem is one choice in a Menu. Key, when set, chooses the item
// directly without moving the cursor first.
type MenuItem struct {
	Label    string
	Key      string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list of choices. The cursor wraps around both ends and
// never rests on a disabled item.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu creates a menu with the cursor on the first enabled item.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items}
	for i, item := range items {
		if !item.Disabled {
			m.Selected = i
			break
		}
	}
	return m
}

// Update moves the cursor or runs the chosen item's action.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k", "shift+tab":
		m.move(-1)
	case "down", "j", "tab":
		m.move(1)
	case "enter":
		return m.choose(m.Selected)
	default:
		for i, item := range m.Items {
			if item.Key != "" && item.Key == key {
				return m.choose(i)
			}
		}
	}
	return m, nil
}

func (m *Menu) move(step int) {
	n := len(m.Items)
	for k := 1; k < n; k++ {
		i := ((m.Selected+step*k)%n + n) % n
		if !m.Items[i].Disabled {
			m.Selected = i
			return
		}
	}
}

func (m Menu) choose(i int) (Menu, tea.Cmd) {
	if i < 0 || i >= len(m.Items) {
		return m, nil
	}
	item := m.Items[i]
	if item.Disabled || item.Action == nil {
		return m, nil
	}
	m.Selected = i
	return m, item.Action()
}

// View renders one line per item with its shortcut key.
func (m Menu) View() string {
	lines := make([]string, 0, len(m.Items))
	for i, item := range m.Items {
		label := item.Label
		if item.Key != "" {
			label += " [" + item.Key + "]"
		}
		switch {
		case item.Disabled:
			lines = append(lines, theme.Open.Render("    "+label))
		case i == m.Selected:
			lines = append(lines, theme.Selected.Render("  ▸ "+label))
		default:
			lines = append(lines, theme.Unselected.Render("    "+label))
		}
	}
	return strings.Join(lines, "\n")
}
