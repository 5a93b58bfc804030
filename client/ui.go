package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/puyokura/eventdesk/model"
	"github.com/puyokura/eventdesk/session"
	"github.com/puyokura/eventdesk/view"
)

// screen is one page. Screens are built per visit and get the view
// generation current at that time.
type screen interface {
	init() tea.Cmd
	update(msg tea.Msg) tea.Cmd
	view(width int) string
	// capturing is true while text input or a dialog owns the keyboard.
	capturing() bool
	help() string
	// unmount runs when the screen is replaced.
	unmount()
}

type modelState struct {
	d       *deps
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	route   view.Route
	gen     int
	screen  screen
	width   int
	height  int
}

func initialModel(d *deps) modelState {
	m := modelState{
		d:       d,
		keys:    defaultKeys(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.mount(d.nav.Current())
	return m
}

func (m modelState) Init() tea.Cmd {
	refresh := m.d.do(m.gen, "session.refresh", func(ctx context.Context) error {
		m.d.session.Refresh(ctx)
		return nil
	})
	return tea.Batch(m.spinner.Tick, m.screen.init(), refresh)
}

// mount swaps in the screen for route and bumps the generation so results
// addressed to the old screen are dropped.
func (m *modelState) mount(route view.Route) tea.Cmd {
	if m.screen != nil {
		m.screen.unmount()
	}
	m.gen++
	m.route = route
	m.screen = newScreen(m.d, route, m.gen)
	m.d.log.Debug("mounted", zap.String("route", string(route)), zap.Int("gen", m.gen))
	if m.width > 0 {
		m.screen.update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	}
	return m.screen.init()
}

func (m *modelState) goTo(target view.Route) tea.Cmd {
	return m.mount(m.d.nav.Go(target))
}

func newScreen(d *deps, route view.Route, gen int) screen {
	switch route {
	case view.RouteLogin:
		return newLoginScreen(d, gen)
	case view.RouteRegister:
		return newRegisterScreen(d, gen)
	case view.RouteHome:
		return newHomeScreen(d, gen)
	case view.RouteEvents:
		return newEventsScreen(d, gen)
	case view.RouteAdminDashboard:
		return newAdminScreen(d, gen)
	case view.RouteStudentDashboard:
		return newStudentScreen(d, gen)
	case view.RouteProfile:
		return newProfileScreen(d, gen)
	}
	return loadingScreen{}
}

func dashboardFor(role model.Role) view.Route {
	switch role {
	case model.RoleAdmin:
		return view.RouteAdminDashboard
	case model.RoleStudent:
		return view.RouteStudentDashboard
	}
	return view.RouteEvents
}

func (m modelState) Update(msg tea.Msg) (out tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			m.d.log.Error("panic in Update", zap.Any("panic", r), zap.Stack("stack"))
			m.d.toasts.Error("Something went wrong. Please try again.")
			out, cmd = m, nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, m.screen.update(msg)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.screen.capturing() || !m.d.auth().Authenticated {
			return m, m.screen.update(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Home):
			return m, m.goTo(view.RouteHome)
		case key.Matches(msg, m.keys.Events):
			return m, m.goTo(view.RouteEvents)
		case key.Matches(msg, m.keys.Dashboard):
			return m, m.goTo(dashboardFor(m.d.auth().Role))
		case key.Matches(msg, m.keys.Profile):
			return m, m.goTo(view.RouteProfile)
		case key.Matches(msg, m.keys.Logout):
			m.d.session.Logout()
			m.d.toasts.Info("You have been logged out.")
			return m, m.goTo(view.RouteLogin)
		}
		return m, m.screen.update(msg)

	case navigateMsg:
		return m, m.goTo(msg.route)

	case sessionMsg:
		switch {
		case m.route == view.RouteLoading:
			return m, m.mount(m.d.nav.Refresh())
		case msg.state == session.StateAnonymous && m.route != view.RouteLogin && m.route != view.RouteRegister:
			return m, m.goTo(view.RouteLogin)
		}
		return m, nil

	case unauthorizedMsg:
		if m.route == view.RouteLogin {
			return m, nil
		}
		return m, m.mount(m.d.nav.HandleUnauthorized())

	case toastsMsg:
		return m, nil

	case resultMsg:
		if msg.gen != m.gen {
			m.d.log.Debug("dropping stale result", zap.String("op", msg.op), zap.Int("gen", msg.gen), zap.Int("current", m.gen))
			return m, nil
		}
		return m, m.screen.update(msg)

	case spinner.TickMsg:
		var sp tea.Cmd
		m.spinner, sp = m.spinner.Update(msg)
		return m, sp
	}

	return m, m.screen.update(msg)
}

func (m modelState) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	if m.route == view.RouteLoading {
		return fmt.Sprintf("\n  %s Loading...", m.spinner.View())
	}

	var b strings.Builder
	b.WriteString(m.header(width) + "\n\n")
	b.WriteString(m.screen.view(width))
	b.WriteString("\n")
	if toasts := renderToasts(m.d.toasts.List(), width); toasts != "" {
		b.WriteString("\n" + toasts + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render(m.screen.help()))
	if m.d.auth().Authenticated && !m.screen.capturing() {
		b.WriteString("\n" + m.help.View(m.keys))
	}
	return b.String()
}

func (m modelState) header(width int) string {
	title := headerStyle.Render("EventHub")
	auth := m.d.auth()
	if !auth.Authenticated {
		return title
	}

	tabs := []tab{{"Home", view.RouteHome}, {"Events", view.RouteEvents}}
	if r := dashboardFor(auth.Role); r != view.RouteEvents {
		tabs = append(tabs, tab{"Dashboard", r})
	}
	tabs = append(tabs, tab{"Profile", view.RouteProfile})

	parts := []string{title}
	for _, t := range tabs {
		st := tabStyle
		if t.route == m.route {
			st = activeTab
		}
		parts = append(parts, st.Render(t.label))
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	u, _ := m.d.session.User()
	right := mutedStyle.Render(fmt.Sprintf("%s (%s)", u.Name, u.Role.Label()))
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

type tab struct {
	label string
	route view.Route
}

type loadingScreen struct{}

func (loadingScreen) init() tea.Cmd          { return nil }
func (loadingScreen) update(tea.Msg) tea.Cmd { return nil }
func (loadingScreen) view(int) string        { return "" }
func (loadingScreen) capturing() bool        { return false }
func (loadingScreen) help() string           { return "" }
func (loadingScreen) unmount()               {}
