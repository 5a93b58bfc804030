package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/puyokura/eventdesk/model"
	"github.com/puyokura/eventdesk/notify"
	"github.com/puyokura/eventdesk/view"
)

type homeScreen struct {
	d       *deps
	gen     int
	user    model.User
	home    view.Home
	loading bool
}

func newHomeScreen(d *deps, gen int) *homeScreen {
	u, _ := d.session.User()
	return &homeScreen{d: d, gen: gen, user: u}
}

func (s *homeScreen) init() tea.Cmd {
	s.loading = true
	role, now := s.user.Role, s.d.now()
	return s.d.call(s.gen, "home.load", func(ctx context.Context) (any, error) {
		return view.LoadHome(ctx, s.d.events, s.d.users, role, now)
	})
}

func (s *homeScreen) capturing() bool { return false }
func (s *homeScreen) unmount()        {}
func (s *homeScreen) help() string    { return "g reload" }

func (s *homeScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "g" {
			return s.init()
		}
	case resultMsg:
		if msg.op != "home.load" {
			return nil
		}
		s.loading = false
		if msg.err != nil {
			s.d.toasts.Error("Failed to load dashboard data")
			return nil
		}
		if home, ok := msg.value.(view.Home); ok {
			s.home = home
		}
	}
	return nil
}

func (s *homeScreen) view(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Welcome back, %s!", s.user.Name)) + "\n")
	b.WriteString(mutedStyle.Render("Discover, register and manage college events.") + "\n\n")
	if s.loading {
		b.WriteString(mutedStyle.Render("Loading...") + "\n")
		return b.String()
	}

	if s.user.Role == model.RoleAdmin {
		b.WriteString(fmt.Sprintf("Total users: %d\n\n", s.home.TotalUsers))
	}
	b.WriteString(eventList("Upcoming Events", s.home.Upcoming, "No upcoming events."))
	switch s.user.Role {
	case model.RoleEventManager:
		b.WriteString(eventList("Your Events", s.home.Mine, "You have not created any events yet."))
	case model.RoleStudent:
		b.WriteString(eventList("Your Registrations", s.home.Registered, "You have not registered for any events yet."))
	}
	b.WriteString(eventList("Recently Completed", s.home.Completed, "No completed events."))
	return b.String()
}

func eventList(title string, events []model.Event, empty string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title) + "\n")
	if len(events) == 0 {
		b.WriteString("  " + mutedStyle.Render(empty) + "\n\n")
		return b.String()
	}
	for _, e := range events {
		b.WriteString(fmt.Sprintf("  • %s  %s\n", e.Title, mutedStyle.Render(eventWhen(e)+" • "+e.Department)))
	}
	b.WriteString("\n")
	return b.String()
}

type adminPane int

const (
	paneEvents adminPane = iota
	paneUsers
)

var adminRoles = []model.Role{model.RoleStudent, model.RoleEventManager, model.RoleAdmin}

type adminScreen struct {
	d       *deps
	gen     int
	user    model.User
	pane    adminPane
	cursor  int
	loading bool
	vp      viewport.Model
	modal   *modal
	target  model.Event
	victim  model.User
}

func newAdminScreen(d *deps, gen int) *adminScreen {
	u, _ := d.session.User()
	return &adminScreen{d: d, gen: gen, user: u, modal: newModal(), vp: viewport.New(80, 20)}
}

func (s *adminScreen) init() tea.Cmd {
	s.loading = true
	return tea.Batch(
		s.d.do(s.gen, "admin.events", func(ctx context.Context) error {
			return s.d.board.Reload(ctx, model.RoleAdmin)
		}),
		s.d.do(s.gen, "admin.users", func(ctx context.Context) error {
			return s.d.admin.Reload(ctx)
		}),
	)
}

func (s *adminScreen) capturing() bool { return s.modal.keyCaptured }

func (s *adminScreen) unmount() {
	s.modal.dialog.Close(notify.CloseUnmount)
}

func (s *adminScreen) help() string {
	if s.modal.isOpen() {
		if s.modal.mode == dialogConfirmDelete {
			return "y delete • n/esc cancel"
		}
		return "esc close"
	}
	if s.pane == paneUsers {
		return "tab events • ↑/↓ move • c change role • a activate/deactivate • x delete • g reload"
	}
	return "tab users • ↑/↓ move • t open/close registration • v participants • g reload"
}

func (s *adminScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.vp.Width = msg.Width
		s.vp.Height = max(5, msg.Height-16)

	case tea.MouseMsg:
		if !s.modal.scrollLocked {
			var cmd tea.Cmd
			s.vp, cmd = s.vp.Update(msg)
			return cmd
		}

	case resultMsg:
		// load failures are toasted by the board itself
		if msg.op == "admin.events" {
			s.loading = false
		}

	case tea.KeyMsg:
		if s.modal.isOpen() {
			return s.dialogKey(msg)
		}
		return s.handleKey(msg)
	}
	return nil
}

func (s *adminScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab":
		s.pane = 1 - s.pane
		s.cursor = 0
		s.vp.GotoTop()
	case "up", "k":
		s.cursor = max(0, s.cursor-1)
	case "down", "j":
		s.cursor++
	case "g":
		return s.init()
	}

	if s.pane == paneEvents {
		events := s.d.board.Events()
		if len(events) == 0 {
			return nil
		}
		s.cursor = min(s.cursor, len(events)-1)
		e := events[s.cursor]
		switch msg.String() {
		case "t":
			return s.d.call(s.gen, "admin.toggle", func(ctx context.Context) (any, error) {
				return s.d.board.ToggleRegistration(ctx, e)
			})
		case "v":
			s.target = e
			s.modal.open(dialogParticipants, "Event Participants")
		}
		return nil
	}

	users := s.d.admin.Users()
	if len(users) == 0 {
		return nil
	}
	s.cursor = min(s.cursor, len(users)-1)
	u := users[s.cursor]
	switch msg.String() {
	case "c":
		next := nextRole(u.Role)
		return s.d.call(s.gen, "admin.role", func(ctx context.Context) (any, error) {
			return s.d.admin.ChangeRole(ctx, u.ID, next)
		})
	case "a":
		return s.d.call(s.gen, "admin.active", func(ctx context.Context) (any, error) {
			return s.d.admin.ToggleActive(ctx, u)
		})
	case "x":
		if u.ID == s.user.ID {
			s.d.toasts.Warning("You cannot delete your own account.")
			return nil
		}
		s.victim = u
		s.modal.open(dialogConfirmDelete, "Delete User")
	}
	return nil
}

func nextRole(r model.Role) model.Role {
	for i, x := range adminRoles {
		if x == r {
			return adminRoles[(i+1)%len(adminRoles)]
		}
	}
	return adminRoles[0]
}

func (s *adminScreen) dialogKey(msg tea.KeyMsg) tea.Cmd {
	if s.modal.mode == dialogConfirmDelete {
		switch msg.String() {
		case "y", "Y":
			id := s.victim.ID
			s.modal.dialog.Close(notify.CloseButton)
			return s.d.do(s.gen, "admin.delete", func(ctx context.Context) error {
				return s.d.admin.Delete(ctx, id)
			})
		case "n", "N":
			s.modal.dialog.Close(notify.CloseButton)
			return nil
		}
	}
	if msg.String() == "enter" {
		s.modal.dialog.Close(notify.CloseButton)
		return nil
	}
	s.modal.dialog.HandleKey(msg.String())
	return nil
}

func (s *adminScreen) view(width int) string {
	stats := view.ComputeStats(s.d.board.Events(), s.d.now())
	boxes := []string{
		statBox("Total Events", stats.TotalEvents),
		statBox("Registrations", stats.TotalRegistrations),
		statBox("Upcoming", stats.Upcoming),
		statBox("Completed", stats.Completed),
		statBox("Users", len(s.d.admin.Users())),
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Admin Dashboard") + "\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...) + "\n\n")

	eventsTab, usersTab := activeTab.Render("Events"), tabStyle.Render("Users")
	if s.pane == paneUsers {
		eventsTab, usersTab = tabStyle.Render("Events"), activeTab.Render("Users")
	}
	b.WriteString(eventsTab + usersTab + "\n")

	if s.pane == paneEvents {
		s.vp.SetContent(s.eventRows())
	} else {
		s.vp.SetContent(s.userRows())
	}
	b.WriteString(s.vp.View())

	if !s.modal.isOpen() {
		return b.String()
	}
	return lipgloss.Place(width, s.vp.Height+10, lipgloss.Center, lipgloss.Center, s.modal.frame(s.dialogBody(), width))
}

func statBox(label string, n int) string {
	return cardStyle.Width(16).Render(mutedStyle.Render(label) + "\n" + selectedStyle.Render(fmt.Sprint(n)))
}

func (s *adminScreen) eventRows() string {
	events := s.d.board.Events()
	if s.loading && len(events) == 0 {
		return mutedStyle.Render("Loading...")
	}
	if len(events) == 0 {
		return mutedStyle.Render("No events yet.")
	}
	now := s.d.now()
	var b strings.Builder
	for i, e := range events {
		reg := "open"
		if e.RegistrationClosed {
			reg = "closed"
		}
		line := fmt.Sprintf("%-28.28s %-10s %-16.16s %s  %s",
			e.Title, model.StatusAt(e, now), e.Department, participationBar(e, 10), reg)
		if i == s.cursor {
			line = selectedStyle.Render("› " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (s *adminScreen) userRows() string {
	users := s.d.admin.Users()
	if len(users) == 0 {
		return mutedStyle.Render("No users.")
	}
	var b strings.Builder
	for i, u := range users {
		status := "active"
		if !u.IsActive() {
			status = "inactive"
		}
		if s.d.admin.Busy().Is(u.ID) {
			status += " …"
		}
		line := fmt.Sprintf("%-22.22s %-28.28s %-14s %s", u.Name, u.Email, u.Role, status)
		if i == s.cursor {
			line = selectedStyle.Render("› " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (s *adminScreen) dialogBody() string {
	if s.modal.mode == dialogConfirmDelete {
		return fmt.Sprintf("Delete %s (%s)? This action cannot be undone.\n\n[y] Delete   [n] Cancel", s.victim.Name, s.victim.Email)
	}
	e, ok := s.d.board.Event(s.target.ID)
	if !ok {
		e = s.target
	}
	if len(e.Participants) == 0 {
		return mutedStyle.Render("No participants registered yet.")
	}
	return "• " + strings.Join(e.Participants, "\n• ")
}

type studentScreen struct {
	d       *deps
	gen     int
	cursor  int
	loading bool
	modal   *modal
	target  model.Event
}

func newStudentScreen(d *deps, gen int) *studentScreen {
	return &studentScreen{d: d, gen: gen, modal: newModal()}
}

func (s *studentScreen) init() tea.Cmd {
	s.loading = true
	return s.d.do(s.gen, "student.reload", func(ctx context.Context) error {
		return s.d.student.Reload(ctx)
	})
}

func (s *studentScreen) capturing() bool { return s.modal.keyCaptured }

func (s *studentScreen) unmount() {
	s.modal.dialog.Close(notify.CloseUnmount)
}

func (s *studentScreen) help() string {
	if s.modal.isOpen() {
		return "y cancel registration • n/esc keep"
	}
	return "↑/↓ move • c cancel registration • g reload"
}

func (s *studentScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case resultMsg:
		if msg.op == "student.reload" {
			s.loading = false
		}
	case tea.KeyMsg:
		if s.modal.isOpen() {
			switch msg.String() {
			case "y", "Y":
				id := s.target.ID
				s.modal.dialog.Close(notify.CloseButton)
				return s.d.do(s.gen, "student.cancel", func(ctx context.Context) error {
					return s.d.student.Cancel(ctx, id)
				})
			case "n", "N":
				s.modal.dialog.Close(notify.CloseButton)
			default:
				s.modal.dialog.HandleKey(msg.String())
			}
			return nil
		}
		upcoming, _ := s.d.student.Split(s.d.now())
		switch msg.String() {
		case "up", "k":
			s.cursor = max(0, s.cursor-1)
		case "down", "j":
			s.cursor = min(s.cursor+1, max(0, len(upcoming)-1))
		case "g":
			return s.init()
		case "c":
			if s.cursor < len(upcoming) {
				s.target = upcoming[s.cursor]
				s.modal.open(dialogConfirmDelete, "Cancel Registration")
			}
		}
	}
	return nil
}

func (s *studentScreen) view(width int) string {
	upcoming, completed := s.d.student.Split(s.d.now())

	var b strings.Builder
	b.WriteString(titleStyle.Render("My Dashboard") + "\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Registered", len(upcoming)+len(completed)),
		statBox("Upcoming", len(upcoming)),
		statBox("Completed", len(completed)),
	) + "\n\n")

	if s.loading && len(upcoming)+len(completed) == 0 {
		b.WriteString(mutedStyle.Render("Loading...") + "\n")
		return b.String()
	}

	b.WriteString(titleStyle.Render("Upcoming Events") + "\n")
	if len(upcoming) == 0 {
		b.WriteString("  " + mutedStyle.Render("No upcoming registrations. Browse events to find something new.") + "\n")
	}
	for i, e := range upcoming {
		line := fmt.Sprintf("%s  %s", e.Title, mutedStyle.Render(eventWhen(e)+" • "+e.Location))
		if s.d.student.Busy().Is(e.ID) {
			line += mutedStyle.Render("  cancelling…")
		}
		if i == s.cursor {
			line = selectedStyle.Render("› ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + eventList("Completed Events", completed, "No completed events yet."))

	if !s.modal.isOpen() {
		return b.String()
	}
	body := fmt.Sprintf("Cancel your registration for %q?\n\n[y] Cancel registration   [n] Keep", s.target.Title)
	return lipgloss.Place(width, 16, lipgloss.Center, lipgloss.Center, s.modal.frame(body, width))
}
