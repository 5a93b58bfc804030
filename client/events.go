package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/puyokura/eventdesk/model"
	"github.com/puyokura/eventdesk/notify"
	"github.com/puyokura/eventdesk/view"
)

type dialogMode int

const (
	dialogNone dialogMode = iota
	dialogEventForm
	dialogConfirmDelete
	dialogParticipants
)

var departmentFilter = append([]string{view.AllDepartments}, view.Departments...)

// modal is the dialog state shared by screens: what is open, and the key
// capture and scroll lock it holds.
type modal struct {
	dialog       *notify.Dialog
	mode         dialogMode
	keyCaptured  bool
	scrollLocked bool
}

func newModal() *modal {
	m := &modal{}
	m.dialog = notify.NewDialog(func(notify.CloseReason) { m.mode = dialogNone })
	return m
}

func (m *modal) open(mode dialogMode, title string) {
	m.dialog.Close(notify.CloseUnmount)
	m.dialog.Open(title)
	m.mode = mode
	m.keyCaptured = true
	m.dialog.Acquire(func() { m.keyCaptured = false })
	m.scrollLocked = true
	m.dialog.Acquire(func() { m.scrollLocked = false })
}

func (m *modal) isOpen() bool { return m.dialog.IsOpen() }

func (m *modal) frame(body string, width int) string {
	w := min(width-4, 72)
	return dialogStyle.Width(w).Render(titleStyle.Render(m.dialog.Title()) + "\n\n" + body)
}

type eventsScreen struct {
	d    *deps
	gen  int
	caps view.Capabilities
	user model.User

	search    textinput.Model
	searching bool
	dept      int
	cursor    int
	loading   bool

	vp     viewport.Model
	height int

	modal   *modal
	form    *form
	editing int64
	target  model.Event
}

func newEventsScreen(d *deps, gen int) *eventsScreen {
	u, _ := d.session.User()
	search := textinput.New()
	search.Placeholder = "Search events..."
	search.Prompt = "/ "
	search.Width = 40
	return &eventsScreen{
		d:      d,
		gen:    gen,
		caps:   view.Permissions(u.Role),
		user:   u,
		search: search,
		modal:  newModal(),
		vp:     viewport.New(80, 20),
	}
}

func (s *eventsScreen) init() tea.Cmd {
	s.loading = true
	role := s.user.Role
	return s.d.do(s.gen, "events.reload", func(ctx context.Context) error {
		return s.d.board.Reload(ctx, role)
	})
}

func (s *eventsScreen) capturing() bool {
	return s.searching || s.modal.keyCaptured
}

func (s *eventsScreen) unmount() {
	s.modal.dialog.Close(notify.CloseUnmount)
}

func (s *eventsScreen) help() string {
	switch {
	case s.modal.isOpen() && s.modal.mode == dialogConfirmDelete:
		return "y delete • n/esc cancel"
	case s.modal.isOpen() && s.modal.mode == dialogEventForm:
		return "tab next field • ←/→ choose • enter on last field save • esc cancel"
	case s.modal.isOpen():
		return "esc close"
	case s.searching:
		return "enter/esc done"
	}
	parts := []string{"↑/↓ move", "/ search", "f department", "g reload"}
	if s.caps.CanRegister {
		parts = append(parts, "r register/unregister")
	}
	if s.caps.CanCreate {
		parts = append(parts, "n new")
	}
	if s.caps.CanManage {
		parts = append(parts, "u edit", "x delete", "t open/close", "v participants")
	}
	return strings.Join(parts, " • ")
}

// items is the filtered list, upcoming first.
func (s *eventsScreen) items() (upcoming, completed []model.Event) {
	filtered := view.Filter(s.d.board.Events(), view.Criteria{
		Search:     s.search.Value(),
		Department: departmentFilter[s.dept],
	})
	return model.SplitByStatus(filtered, s.d.now())
}

func (s *eventsScreen) selected() (model.Event, bool) {
	up, done := s.items()
	all := append(up, done...)
	if len(all) == 0 {
		return model.Event{}, false
	}
	s.cursor = max(0, min(s.cursor, len(all)-1))
	return all[s.cursor], true
}

func (s *eventsScreen) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.vp.Width = msg.Width
		s.height = max(5, msg.Height-12)
		s.vp.Height = s.height

	case tea.KeyMsg:
		cmd = s.handleKey(msg)

	case tea.MouseMsg:
		// wheel scrolling moves the viewport only; the cursor stays put
		if !s.modal.scrollLocked {
			s.vp, cmd = s.vp.Update(msg)
		}
		return cmd

	case resultMsg:
		switch msg.op {
		case "events.reload":
			s.loading = false
		case "events.save":
			if msg.err == nil {
				s.modal.dialog.Close(notify.CloseButton)
			} else if s.form != nil {
				s.form.busy = false
			}
		}
		if errors.Is(msg.err, view.ErrBusy) {
			s.d.toasts.Warning("That action is already in progress.")
		}
	}
	s.sync()
	return cmd
}

func (s *eventsScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s.modal.isOpen() {
		return s.dialogKey(msg)
	}
	if s.searching {
		switch msg.String() {
		case "esc", "enter":
			s.searching = false
			s.search.Blur()
			return nil
		}
		var cmd tea.Cmd
		s.search, cmd = s.search.Update(msg)
		s.cursor = 0
		return cmd
	}

	switch msg.String() {
	case "up", "k":
		s.cursor = max(0, s.cursor-1)
	case "down", "j":
		s.cursor++
	case "/":
		s.searching = true
		return s.search.Focus()
	case "f":
		s.dept = (s.dept + 1) % len(departmentFilter)
		s.cursor = 0
	case "F":
		s.dept = (s.dept - 1 + len(departmentFilter)) % len(departmentFilter)
		s.cursor = 0
	case "g":
		return s.init()
	case "r", "enter":
		if s.caps.CanRegister {
			return s.toggleMine()
		}
	case "n":
		if s.caps.CanCreate {
			s.openForm(model.Event{MaxParticipants: 100}, 0)
			return textinput.Blink
		}
	case "u":
		if e, ok := s.selected(); ok && s.caps.CanManage && view.CanModify(e, s.user) {
			s.openForm(e, e.ID)
			return textinput.Blink
		}
	case "x":
		if e, ok := s.selected(); ok && s.caps.CanManage && view.CanModify(e, s.user) {
			s.target = e
			s.modal.open(dialogConfirmDelete, "Delete Event")
		}
	case "t":
		if e, ok := s.selected(); ok && s.caps.CanManage && view.CanToggle(e, s.user, s.d.now()) {
			return s.d.call(s.gen, "events.toggle", func(ctx context.Context) (any, error) {
				return s.d.board.ToggleRegistration(ctx, e)
			})
		}
	case "v":
		if e, ok := s.selected(); ok && s.caps.CanManage {
			s.target = e
			s.modal.open(dialogParticipants, "Event Participants")
		}
	}
	return nil
}

func (s *eventsScreen) toggleMine() tea.Cmd {
	e, ok := s.selected()
	if !ok {
		return nil
	}
	registered := s.d.board.IsRegistered(e.ID)
	ctl := view.RegisterState(e, registered, s.d.board.Busy().Is(e.ID), s.d.now())
	if !ctl.Enabled {
		return nil
	}
	id := e.ID
	switch ctl.Action {
	case view.ActionRegister:
		return s.d.do(s.gen, "events.register", func(ctx context.Context) error {
			return s.d.board.Register(ctx, id)
		})
	case view.ActionUnregister:
		return s.d.do(s.gen, "events.unregister", func(ctx context.Context) error {
			return s.d.board.Unregister(ctx, id)
		})
	}
	return nil
}

func (s *eventsScreen) openForm(e model.Event, id int64) {
	s.editing = id
	s.form = newForm(
		textField("title", "Title", ""),
		textField("description", "Description", ""),
		textField("date", "Date", "YYYY-MM-DD"),
		textField("time", "Time", "HH:MM"),
		selectField("department", "Department", append([]string{""}, view.Departments...)),
		textField("location", "Location", ""),
		textField("maxParticipants", "Max participants", "100"),
		textField("image", "Image URL (optional)", "https://"),
	)
	in := model.InputFrom(e)
	s.form.set("title", in.Title)
	s.form.set("description", in.Description)
	s.form.set("date", in.Date)
	s.form.set("time", in.Time)
	s.form.set("department", in.Department)
	s.form.set("location", in.Location)
	s.form.set("maxParticipants", strconv.Itoa(in.MaxParticipants))
	s.form.set("image", in.Image)

	title := "Create New Event"
	if id != 0 {
		title = "Edit Event"
	}
	s.modal.open(dialogEventForm, title)
}

func (s *eventsScreen) dialogKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "esc" {
		s.modal.dialog.HandleKey("esc")
		return nil
	}
	switch s.modal.mode {
	case dialogEventForm:
		submit, cmd := s.form.update(msg)
		if submit {
			return s.submitForm()
		}
		return cmd
	case dialogConfirmDelete:
		switch msg.String() {
		case "y", "Y":
			id := s.target.ID
			s.modal.dialog.Close(notify.CloseButton)
			return s.d.do(s.gen, "events.delete", func(ctx context.Context) error {
				return s.d.board.Delete(ctx, id)
			})
		case "n", "N":
			s.modal.dialog.Close(notify.CloseButton)
		}
	case dialogParticipants:
		if msg.String() == "enter" {
			s.modal.dialog.Close(notify.CloseButton)
		}
	}
	s.modal.dialog.HandleKey(msg.String())
	return nil
}

func (s *eventsScreen) submitForm() tea.Cmd {
	maxP, _ := strconv.Atoi(strings.TrimSpace(s.form.value("maxParticipants")))
	in := model.EventInput{
		Title:           strings.TrimSpace(s.form.value("title")),
		Description:     strings.TrimSpace(s.form.value("description")),
		Date:            strings.TrimSpace(s.form.value("date")),
		Time:            strings.TrimSpace(s.form.value("time")),
		Department:      s.form.value("department"),
		Location:        strings.TrimSpace(s.form.value("location")),
		MaxParticipants: maxP,
		Image:           strings.TrimSpace(s.form.value("image")),
	}
	if s.form.setErrors(view.ValidateEvent(in)) {
		return nil
	}
	s.form.busy = true
	id := s.editing
	return s.d.call(s.gen, "events.save", func(ctx context.Context) (any, error) {
		if id == 0 {
			return s.d.board.Create(ctx, in)
		}
		return s.d.board.Update(ctx, id, in)
	})
}

// sync re-renders the list into the viewport and keeps the cursor visible.
func (s *eventsScreen) sync() {
	up, done := s.items()
	total := len(up) + len(done)
	if total > 0 {
		s.cursor = max(0, min(s.cursor, total-1))
	}

	var b strings.Builder
	line, selStart, selEnd := 0, 0, 0
	write := func(str string) {
		b.WriteString(str)
		line += strings.Count(str, "\n")
	}
	section := func(title string, events []model.Event, offset int) {
		if len(events) == 0 {
			return
		}
		noun := "events"
		if len(events) == 1 {
			noun = "event"
		}
		write(titleStyle.Render(title) + mutedStyle.Render(fmt.Sprintf("  %d %s", len(events), noun)) + "\n")
		for i, e := range events {
			if offset+i == s.cursor {
				selStart = line
			}
			write(s.card(e, offset+i == s.cursor) + "\n")
			if offset+i == s.cursor {
				selEnd = line
			}
		}
		write("\n")
	}
	section("Upcoming Events", up, 0)
	section("Completed Events", done, len(up))

	if total == 0 {
		switch {
		case s.loading:
			write(mutedStyle.Render("Loading events...") + "\n")
		case s.search.Value() != "" || s.dept != 0:
			write(mutedStyle.Render("No events match your filters.") + "\n")
		default:
			write(mutedStyle.Render("No events yet.") + "\n")
		}
	}

	s.vp.SetContent(b.String())
	if s.modal.scrollLocked {
		return
	}
	if selStart < s.vp.YOffset {
		s.vp.SetYOffset(selStart)
	} else if selEnd > s.vp.YOffset+s.vp.Height {
		s.vp.SetYOffset(selEnd - s.vp.Height)
	}
}

func (s *eventsScreen) card(e model.Event, selected bool) string {
	now := s.d.now()
	status := model.StatusAt(e, now)

	title := e.Title
	if selected {
		title = selectedStyle.Render("› " + title)
	}
	badges := []string{mutedStyle.Render(status.String())}
	if e.RegistrationClosed {
		badges = append(badges, errorStyle.Render("Registration closed"))
	} else if model.IsFull(e) {
		badges = append(badges, errorStyle.Render("Full"))
	}

	lines := []string{
		title + "  " + strings.Join(badges, " "),
		mutedStyle.Render(fmt.Sprintf("%s • %s • %s", eventWhen(e), e.Location, e.Department)),
		participationBar(e, 20),
	}
	if selected && e.Description != "" {
		lines = append(lines, e.Description)
	}
	if s.caps.CanRegister {
		ctl := view.RegisterState(e, s.d.board.IsRegistered(e.ID), s.d.board.Busy().Is(e.ID), now)
		label := "[" + ctl.Label + "]"
		if !ctl.Enabled {
			label = mutedStyle.Render(label)
		}
		lines = append(lines, label)
	}
	if s.caps.CanManage && e.CreatedBy != "" {
		lines = append(lines, mutedStyle.Render("by "+e.CreatedBy))
	}

	st := cardStyle.Width(min(s.vp.Width-2, 78))
	if selected {
		st = st.BorderForeground(accent)
	}
	return st.Render(strings.Join(lines, "\n"))
}

func (s *eventsScreen) view(width int) string {
	heading := "Discover Events"
	if s.caps.CanManage {
		heading = "Manage Events"
	}
	filters := s.search.View() + "   " + mutedStyle.Render("Department: ") + departmentFilter[s.dept]
	page := titleStyle.Render(heading) + "\n" + filters + "\n\n" + s.vp.View()

	if !s.modal.isOpen() {
		return page
	}
	return lipgloss.Place(width, s.height+4, lipgloss.Center, lipgloss.Center, s.modal.frame(s.dialogBody(), width))
}

func (s *eventsScreen) dialogBody() string {
	switch s.modal.mode {
	case dialogEventForm:
		body := s.form.view()
		if s.form.busy {
			body += mutedStyle.Render("Saving...")
		}
		return body
	case dialogConfirmDelete:
		return fmt.Sprintf("Are you sure you want to delete %q? This action cannot be undone.\n\n[y] Delete   [n] Cancel", s.target.Title)
	case dialogParticipants:
		e, ok := s.d.board.Event(s.target.ID)
		if !ok {
			e = s.target
		}
		if len(e.Participants) == 0 {
			return mutedStyle.Render("No participants registered yet.")
		}
		var b strings.Builder
		b.WriteString("Participants registered for this event:\n\n")
		for _, p := range e.Participants {
			b.WriteString("• " + p + "\n")
		}
		return b.String()
	}
	return ""
}
