package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/puyokura/eventdesk/model"
	"github.com/puyokura/eventdesk/service"
	"github.com/puyokura/eventdesk/view"
)

type profileMode int

const (
	profileViewing profileMode = iota
	profileEditing
	profilePassword
)

type profileScreen struct {
	d       *deps
	gen     int
	mode    profileMode
	form    *form
	loading bool

	// role details as last returned by the server; seeded from the session
	// user until the fetch lands.
	student model.StudentDetails
	manager model.EventManagerDetails
}

func newProfileScreen(d *deps, gen int) *profileScreen {
	s := &profileScreen{d: d, gen: gen}
	u := s.user()
	s.student = model.StudentDetails{
		RollNumber:  u.RollNumber,
		Department:  u.Department,
		PhoneNumber: u.PhoneNumber,
		Year:        u.Year,
		CollegeName: u.CollegeName,
	}
	s.manager = model.EventManagerDetails{Designation: u.Designation, PhoneNumber: u.PhoneNumber}
	return s
}

func (s *profileScreen) user() model.User {
	u, _ := s.d.session.User()
	return u
}

// init loads the role details. The screen keeps them; the session user
// carries only the account fields.
func (s *profileScreen) init() tea.Cmd {
	switch s.user().Role {
	case model.RoleStudent:
		s.loading = true
		return s.d.call(s.gen, "profile.details", func(ctx context.Context) (any, error) {
			return s.d.session.StudentDetails(ctx)
		})
	case model.RoleEventManager:
		s.loading = true
		return s.d.call(s.gen, "profile.details", func(ctx context.Context) (any, error) {
			return s.d.session.EventManagerDetails(ctx)
		})
	}
	return nil
}

func (s *profileScreen) capturing() bool { return s.mode != profileViewing }
func (s *profileScreen) unmount()        {}

func (s *profileScreen) help() string {
	if s.mode != profileViewing {
		return "tab next field • enter on last field save • esc cancel"
	}
	return "i edit profile • w change password"
}

func (s *profileScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return s.handleKey(msg)

	case resultMsg:
		switch msg.op {
		case "profile.details":
			s.loading = false
			if msg.err != nil {
				who := "student"
				if s.user().Role == model.RoleEventManager {
					who = "event manager"
				}
				s.d.toasts.Error(fmt.Sprintf("Failed to load %s details. Please try refreshing the page.", who))
				return nil
			}
			s.keepDetails(msg.value)
		case "profile.save":
			if msg.err != nil {
				s.form.busy = false
				s.d.toasts.Error(service.Message(msg.err, "Failed to update profile"))
				return nil
			}
			s.keepDetails(msg.value)
			s.mode, s.form = profileViewing, nil
			s.d.toasts.Success("Profile updated successfully!")
		case "profile.password":
			if msg.err != nil {
				s.form.busy = false
				s.d.toasts.Error(service.Message(msg.err, "Failed to change password"))
				return nil
			}
			s.mode, s.form = profileViewing, nil
			s.d.toasts.Success("Password changed successfully!")
		}
	}
	return nil
}

func (s *profileScreen) keepDetails(v any) {
	switch v := v.(type) {
	case model.StudentDetails:
		s.student = v
	case model.EventManagerDetails:
		s.manager = v
	}
}

func (s *profileScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s.mode == profileViewing {
		switch msg.String() {
		case "i":
			s.startEditing()
			s.d.toasts.Info("Edit mode enabled. Make your changes and click Save.")
			return textinput.Blink
		case "w":
			s.mode = profilePassword
			s.form = newForm(
				secretField("currentPassword", "Current password"),
				secretField("newPassword", "New password"),
				secretField("confirmPassword", "Confirm new password"),
			)
			s.d.toasts.Info("Password change mode enabled. Enter your current and new password.")
			return textinput.Blink
		}
		return nil
	}

	if msg.String() == "esc" {
		if s.mode == profileEditing {
			s.d.toasts.Info("Edit mode cancelled. No changes were saved.")
		} else {
			s.d.toasts.Info("Password change cancelled. No changes were made.")
		}
		s.mode, s.form = profileViewing, nil
		return nil
	}
	submit, cmd := s.form.update(msg)
	if !submit {
		return cmd
	}
	if s.mode == profileEditing {
		return s.saveProfile()
	}
	return s.savePassword()
}

func (s *profileScreen) startEditing() {
	u := s.user()
	fields := []*field{
		textField("name", "Name", ""),
		textField("email", "Email", ""),
	}
	switch u.Role {
	case model.RoleStudent:
		fields = append(fields,
			textField("rollNumber", "Roll number", ""),
			selectField("department", "Department", append([]string{""}, view.Departments...)),
			textField("phoneNumber", "Phone number", ""),
			textField("year", "Year", ""),
			textField("collegeName", "College", ""),
		)
	case model.RoleEventManager:
		fields = append(fields,
			selectField("designation", "Designation", append([]string{""}, view.Designations...)),
			textField("phoneNumber", "Phone number", ""),
		)
	default:
		fields = append(fields,
			selectField("department", "Department", append([]string{""}, view.Departments...)),
		)
	}
	s.form = newForm(fields...)
	s.form.set("name", u.Name)
	s.form.set("email", u.Email)
	switch u.Role {
	case model.RoleStudent:
		s.form.set("rollNumber", s.student.RollNumber)
		s.form.set("department", s.student.Department)
		s.form.set("phoneNumber", s.student.PhoneNumber)
		s.form.set("year", s.student.Year)
		s.form.set("collegeName", s.student.CollegeName)
	case model.RoleEventManager:
		s.form.set("designation", s.manager.Designation)
		s.form.set("phoneNumber", s.manager.PhoneNumber)
	default:
		s.form.set("department", u.Department)
	}
	s.mode = profileEditing
}

func (s *profileScreen) saveProfile() tea.Cmd {
	name := strings.TrimSpace(s.form.value("name"))
	email := strings.TrimSpace(s.form.value("email"))
	if s.form.setErrors(view.ValidateProfile(name, email)) {
		return nil
	}
	s.form.busy = true
	v := s.form.value

	switch s.user().Role {
	case model.RoleStudent:
		d := model.StudentDetails{
			Name:        name,
			Email:       email,
			RollNumber:  strings.TrimSpace(v("rollNumber")),
			Department:  v("department"),
			PhoneNumber: strings.TrimSpace(v("phoneNumber")),
			Year:        strings.TrimSpace(v("year")),
			CollegeName: strings.TrimSpace(v("collegeName")),
		}
		return s.d.call(s.gen, "profile.save", func(ctx context.Context) (any, error) {
			return s.d.session.UpdateStudentDetails(ctx, d)
		})
	case model.RoleEventManager:
		d := model.EventManagerDetails{
			Name:        name,
			Email:       email,
			Designation: v("designation"),
			PhoneNumber: strings.TrimSpace(v("phoneNumber")),
		}
		return s.d.call(s.gen, "profile.save", func(ctx context.Context) (any, error) {
			return s.d.session.UpdateEventManagerDetails(ctx, d)
		})
	}
	req := model.ProfileUpdate{Name: name, Email: email, Department: v("department")}
	return s.d.call(s.gen, "profile.save", func(ctx context.Context) (any, error) {
		return s.d.session.UpdateProfile(ctx, req)
	})
}

func (s *profileScreen) savePassword() tea.Cmd {
	current := s.form.value("currentPassword")
	next := s.form.value("newPassword")
	if s.form.setErrors(view.ValidateChangePassword(current, next, s.form.value("confirmPassword"))) {
		return nil
	}
	s.form.busy = true
	return s.d.do(s.gen, "profile.password", func(ctx context.Context) error {
		return s.d.session.ChangePassword(ctx, current, next)
	})
}

func (s *profileScreen) view(int) string {
	u := s.user()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Profile") + "\n\n")

	switch s.mode {
	case profileEditing:
		b.WriteString(s.form.view())
		if s.form.busy {
			b.WriteString(mutedStyle.Render("Saving..."))
		}
		return cardStyle.Render(b.String())
	case profilePassword:
		b.WriteString(s.form.view())
		if s.form.busy {
			b.WriteString(mutedStyle.Render("Changing password..."))
		}
		return cardStyle.Render(b.String())
	}

	rows := [][2]string{
		{"Name", u.Name},
		{"Email", u.Email},
		{"Role", u.Role.Label()},
	}
	switch u.Role {
	case model.RoleStudent:
		rows = append(rows,
			[2]string{"Roll number", s.student.RollNumber},
			[2]string{"Department", s.student.Department},
			[2]string{"Phone", s.student.PhoneNumber},
			[2]string{"Year", s.student.Year},
			[2]string{"College", s.student.CollegeName},
		)
	case model.RoleEventManager:
		rows = append(rows,
			[2]string{"Designation", s.manager.Designation},
			[2]string{"Phone", s.manager.PhoneNumber},
		)
	default:
		rows = append(rows, [2]string{"Department", u.Department})
	}
	for _, r := range rows {
		val := r[1]
		if val == "" {
			val = mutedStyle.Render("not set")
		}
		b.WriteString(mutedStyle.Width(13).Render(r[0]) + val + "\n")
	}
	if s.loading {
		b.WriteString("\n" + mutedStyle.Render("Loading details..."))
	}
	return cardStyle.Render(b.String())
}
