package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/puyokura/eventdesk/model"
	"github.com/puyokura/eventdesk/notify"
)

var (
	borderColor = lipgloss.Color("#505050")
	accent      = lipgloss.Color("#7D56F4")
	muted       = lipgloss.Color("#8A8A8A")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#FFFFFF")).Background(accent)
	tabStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(muted)
	activeTab     = tabStyle.Foreground(lipgloss.Color("#FFFFFF")).Underline(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(muted)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderColor).Padding(0, 1)
	dialogStyle   = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(accent).Padding(1, 2)

	toastStyles = map[notify.Kind]lipgloss.Style{
		notify.KindSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		notify.KindError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")),
		notify.KindWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")),
		notify.KindInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")),
	}

	tierStyles = map[model.Tier]lipgloss.Style{
		model.TierLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		model.TierMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")),
		model.TierHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")),
	}
)

// keyMap holds the global bindings. Screens add their own lines to the
// footer.
type keyMap struct {
	Home      key.Binding
	Events    key.Binding
	Dashboard key.Binding
	Profile   key.Binding
	Logout    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Home:      key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "home")),
		Events:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "events")),
		Dashboard: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dashboard")),
		Profile:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "profile")),
		Logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Home, k.Events, k.Dashboard, k.Profile, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Home, k.Events, k.Dashboard, k.Profile},
		{k.Logout, k.Help, k.Quit},
	}
}

func renderToasts(toasts []notify.Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(toasts))
	for _, t := range toasts {
		st, ok := toastStyles[t.Kind]
		if !ok {
			st = mutedStyle
		}
		lines = append(lines, st.Width(width).Render("● "+t.Message))
	}
	return strings.Join(lines, "\n")
}

// participationBar draws current/max as a bar, clamped for display.
func participationBar(e model.Event, width int) string {
	rate := model.ParticipationRate(e)
	filled := int(model.DisplayRate(rate) / 100 * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return tierStyles[model.ParticipationTier(rate)].Render(bar) +
		mutedStyle.Render(fmt.Sprintf(" %d/%d", e.CurrentParticipants, e.MaxParticipants))
}

func eventWhen(e model.Event) string {
	start, ok := model.ParseEventStart(e.Date, e.Time)
	if !ok {
		return e.Date
	}
	return start.Format("Mon Jan 2 2006 15:04")
}
