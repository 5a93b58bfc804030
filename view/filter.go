package view

import (
	"strings"
	"time"

	"github.com/puyokura/eventdesk/model"
)

const AllDepartments = "All Departments"

var Departments = []string{
	"Computer Science",
	"Engineering",
	"Business",
	"Science",
	"Mathematics",
	"Arts",
	"Social Sciences",
}

var Designations = []string{
	"Event Coordinator",
	"Senior Event Coordinator",
	"Event Manager",
	"Senior Event Manager",
	"Event Director",
	"Event Specialist",
}

type Criteria struct {
	Search     string
	Department string
}

// Filter keeps the events matching c, in their original order.
func Filter(events []model.Event, c Criteria) []model.Event {
	term := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if term != "" &&
			!strings.Contains(strings.ToLower(e.Title), term) &&
			!strings.Contains(strings.ToLower(e.Description), term) &&
			!strings.Contains(strings.ToLower(e.Department), term) {
			continue
		}
		if c.Department != "" && c.Department != AllDepartments && e.Department != c.Department {
			continue
		}
		out = append(out, e)
	}
	return out
}

type Capabilities struct {
	CanCreate   bool
	CanManage   bool
	CanRegister bool
}

func Permissions(role model.Role) Capabilities {
	manager := role == model.RoleEventManager || role == model.RoleAdmin
	return Capabilities{
		CanCreate:   manager,
		CanManage:   manager,
		CanRegister: role == model.RoleStudent,
	}
}

// CanModify reports whether u may edit, delete or toggle e: the event's
// creator or an admin. The server has the final say.
func CanModify(e model.Event, u model.User) bool {
	if u.Role == model.RoleAdmin {
		return true
	}
	return u.Email != "" && e.CreatedBy == u.Email
}

// CanToggle is CanModify for an event that has not started yet.
func CanToggle(e model.Event, u model.User, now time.Time) bool {
	return CanModify(e, u) && model.StatusAt(e, now) == model.StatusUpcoming
}

type Action int

const (
	ActionNone Action = iota
	ActionRegister
	ActionUnregister
)

// Control describes the register button of one event card.
type Control struct {
	Action  Action
	Enabled bool
	Label   string
}

// RegisterState decides the student-facing control. A full event cannot be
// registered for even if the server still has registration open.
func RegisterState(e model.Event, registered, busy bool, now time.Time) Control {
	switch {
	case registered:
		return Control{Action: ActionUnregister, Enabled: !busy, Label: "Registered"}
	case model.StatusAt(e, now) == model.StatusCompleted:
		return Control{Action: ActionNone, Label: "Completed"}
	case e.RegistrationClosed:
		return Control{Action: ActionNone, Label: "Closed"}
	case model.IsFull(e):
		return Control{Action: ActionRegister, Label: "Full"}
	}
	return Control{Action: ActionRegister, Enabled: !busy, Label: "Register"}
}
