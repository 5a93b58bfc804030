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

var loginRoles = []string{"Student", "Admin", "Event Manager"}

type loginScreen struct {
	d    *deps
	gen  int
	form *form
}

func newLoginScreen(d *deps, gen int) *loginScreen {
	return &loginScreen{
		d:   d,
		gen: gen,
		form: newForm(
			selectField("role", "Login as", loginRoles),
			textField("email", "Email", "you@college.edu"),
			secretField("password", "Password"),
		),
	}
}

func (s *loginScreen) init() tea.Cmd   { return textinput.Blink }
func (s *loginScreen) capturing() bool { return true }
func (s *loginScreen) unmount()        {}

func (s *loginScreen) help() string {
	return "tab next field • ←/→ choose role • enter sign in • ctrl+r create account • ctrl+c quit"
}

func (s *loginScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+r" {
			return navigate(view.RouteRegister)
		}
		submit, cmd := s.form.update(msg)
		if submit {
			return s.submit()
		}
		return cmd

	case resultMsg:
		if msg.op != "auth.login" {
			return nil
		}
		s.form.busy = false
		resp, ok := msg.value.(model.AuthResponse)
		if msg.err != nil || !ok {
			s.d.toasts.Error(service.Message(msg.err, "Invalid credentials. Please try again."))
			return nil
		}
		role := resp.User.Value.Role
		s.d.toasts.Success(fmt.Sprintf("Welcome back! Logged in as %s", role.Label()))
		return navigate(view.AfterLogin(role))
	}
	return nil
}

func (s *loginScreen) submit() tea.Cmd {
	email := strings.TrimSpace(s.form.value("email"))
	password := s.form.value("password")
	if s.form.setErrors(view.ValidateLogin(email, password)) {
		return nil
	}
	role, _ := model.ParseRole(s.form.value("role"))
	s.form.busy = true
	return s.d.call(s.gen, "auth.login", func(ctx context.Context) (any, error) {
		return s.d.session.Login(ctx, email, password, role)
	})
}

func (s *loginScreen) view(int) string {
	body := titleStyle.Render("Sign in to your account") + "\n\n" + s.form.view()
	if s.form.busy {
		body += mutedStyle.Render("Signing in...")
	}
	return cardStyle.Render(body)
}

var registerRoles = []string{"Student", "Event Manager"}

type registerScreen struct {
	d    *deps
	gen  int
	form *form
}

func newRegisterScreen(d *deps, gen int) *registerScreen {
	s := &registerScreen{d: d, gen: gen}
	s.rebuild(model.RoleStudent)
	return s
}

// rebuild lays out the fields for role, keeping whatever was typed.
func (s *registerScreen) rebuild(role model.Role) {
	prev := s.form
	fields := []*field{
		selectField("role", "Register as", registerRoles),
		textField("name", "Full name", ""),
		textField("email", "Email", "you@college.edu"),
		secretField("password", "Password"),
		secretField("confirmPassword", "Confirm password"),
	}
	if role == model.RoleEventManager {
		fields = append(fields,
			selectField("designation", "Designation", append([]string{""}, view.Designations...)),
			textField("phoneNumber", "Phone number", "+15551234567"),
		)
	} else {
		fields = append(fields,
			selectField("department", "Department", append([]string{""}, view.Departments...)),
		)
	}
	s.form = newForm(fields...)
	if prev == nil {
		return
	}
	for _, f := range prev.fields {
		s.form.set(f.key, f.value())
	}
	s.form.focusAt(prev.focus)
}

func (s *registerScreen) role() model.Role {
	r, _ := model.ParseRole(s.form.value("role"))
	return r
}

func (s *registerScreen) init() tea.Cmd   { return textinput.Blink }
func (s *registerScreen) capturing() bool { return true }
func (s *registerScreen) unmount()        {}

func (s *registerScreen) help() string {
	return "tab next field • ←/→ choose • enter create account • ctrl+l back to sign in • ctrl+c quit"
}

func (s *registerScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+l" {
			return navigate(view.RouteLogin)
		}
		before := s.role()
		submit, cmd := s.form.update(msg)
		if after := s.role(); after != before {
			s.rebuild(after)
		}
		if submit {
			return s.submit()
		}
		return cmd

	case resultMsg:
		if msg.op != "auth.register" {
			return nil
		}
		s.form.busy = false
		resp, ok := msg.value.(model.AuthResponse)
		if msg.err != nil || !ok {
			s.d.toasts.Error(service.Message(msg.err, "Registration failed. Please try again."))
			return nil
		}
		s.d.toasts.Success(fmt.Sprintf("Registration successful! Welcome to EventHub as %s!", resp.User.Value.Role.Label()))
		return navigate(view.AfterRegister())
	}
	return nil
}

func (s *registerScreen) submit() tea.Cmd {
	in := view.RegisterForm{
		Name:            s.form.value("name"),
		Email:           s.form.value("email"),
		Password:        s.form.value("password"),
		ConfirmPassword: s.form.value("confirmPassword"),
		Department:      s.form.value("department"),
		Designation:     s.form.value("designation"),
		PhoneNumber:     s.form.value("phoneNumber"),
		Role:            s.role(),
	}
	if s.form.setErrors(view.ValidateRegister(in)) {
		return nil
	}
	req := in.Request()
	s.form.busy = true
	return s.d.call(s.gen, "auth.register", func(ctx context.Context) (any, error) {
		return s.d.session.Register(ctx, req)
	})
}

func (s *registerScreen) view(int) string {
	body := titleStyle.Render("Create your account") + "\n\n" + s.form.view()
	if s.form.busy {
		body += mutedStyle.Render("Creating account...")
	}
	return cardStyle.Render(body)
}
