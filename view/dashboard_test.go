package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puyokura/eventdesk/model"
	"github.com/puyokura/eventdesk/notify"
)

type fakeUsers struct {
	users   []model.User
	err     error
	updates []model.UserUpdate
}

func (f *fakeUsers) List(context.Context) ([]model.User, error) { return f.users, f.err }

func (f *fakeUsers) Update(_ context.Context, id int64, u model.UserUpdate) (model.User, error) {
	f.updates = append(f.updates, u)
	if f.err != nil {
		return model.User{}, f.err
	}
	for _, x := range f.users {
		if x.ID == id {
			if u.Role != "" {
				x.Role = u.Role
			}
			if u.Active != nil {
				x.Active = u.Active
			}
			return x, nil
		}
	}
	return model.User{}, errors.New("not found")
}

func (f *fakeUsers) Delete(context.Context, int64) error { return f.err }

func TestUserAdmin(t *testing.T) {
	api := &fakeUsers{users: []model.User{
		{ID: 1, Name: "A", Role: model.RoleStudent},
		{ID: 2, Name: "B", Role: model.RoleEventManager},
	}}
	notes := &recorder{}
	a := NewUserAdmin(api, notes)
	require.NoError(t, a.Reload(context.Background()))
	require.Len(t, a.Users(), 2)

	u, err := a.ChangeRole(context.Background(), 1, model.RoleEventManager)
	require.NoError(t, err)
	assert.Equal(t, model.RoleEventManager, u.Role)

	u, err = a.ToggleActive(context.Background(), a.Users()[1])
	require.NoError(t, err)
	assert.False(t, u.IsActive())
	last := api.updates[len(api.updates)-1]
	assert.Equal(t, model.RoleEventManager, last.Role, "role travels with the status change")
	require.NotNil(t, last.Active)
	assert.False(t, *last.Active)

	require.NoError(t, a.Delete(context.Background(), 1))
	assert.Len(t, a.Users(), 1)

	assert.Equal(t, []string{
		"User role updated successfully!",
		"User deactivated successfully!",
		"User deleted successfully!",
	}, notes.successes)
}

func TestUserAdminReloadFailure(t *testing.T) {
	notes := &recorder{}
	a := NewUserAdmin(&fakeUsers{err: errors.New("down")}, notes)
	assert.Error(t, a.Reload(context.Background()))
	assert.Equal(t, []string{"Failed to load users. Please try again."}, notes.errors)
}

func TestStudentDashboard(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	api := &fakeEvents{registered: []model.Event{
		{ID: 1, Date: "2026-03-01"},
		{ID: 2, Date: "2026-03-20"},
	}}
	q := notify.NewQueue(time.Hour)
	defer q.Close()
	d := NewStudentDashboard(api, q)
	require.NoError(t, d.Reload(context.Background()))

	upcoming, completed := d.Split(now)
	require.Len(t, upcoming, 1)
	require.Len(t, completed, 1)
	assert.Equal(t, int64(2), upcoming[0].ID)

	require.NoError(t, d.Cancel(context.Background(), 2))
	assert.Len(t, d.Events(), 1)

	toasts := q.List()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Registration cancelled successfully.", toasts[0].Message)
	assert.Equal(t, notify.KindSuccess, toasts[0].Kind)
}

func TestStudentDashboardCancelFailureKeepsEvent(t *testing.T) {
	api := &fakeEvents{registered: []model.Event{{ID: 1}}}
	d := NewStudentDashboard(api, &recorder{})
	require.NoError(t, d.Reload(context.Background()))

	api.err = errors.New("nope")
	assert.Error(t, d.Cancel(context.Background(), 1))
	assert.Len(t, d.Events(), 1)
}

func TestLoadHome(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	var list []model.Event
	for i := 0; i < 8; i++ {
		list = append(list, model.Event{ID: int64(i + 1), Date: "2026-01-01"})
	}
	api := &fakeEvents{list: list, registered: list[:5]}
	users := &fakeUsers{users: []model.User{{ID: 1}, {ID: 2}, {ID: 3}}}

	h, err := LoadHome(context.Background(), api, users, model.RoleStudent, now)
	require.NoError(t, err)
	assert.Len(t, h.Upcoming, 6)
	assert.Len(t, h.Completed, 6)
	assert.Len(t, h.Registered, 4)
	assert.Empty(t, h.Mine)
	assert.Zero(t, h.TotalUsers)

	h, err = LoadHome(context.Background(), api, users, model.RoleEventManager, now)
	require.NoError(t, err)
	assert.Len(t, h.Mine, 1)

	h, err = LoadHome(context.Background(), api, users, model.RoleAdmin, now)
	require.NoError(t, err)
	assert.Equal(t, 3, h.TotalUsers)

	users.err = errors.New("forbidden")
	h, err = LoadHome(context.Background(), api, users, model.RoleAdmin, now)
	require.NoError(t, err)
	assert.Zero(t, h.TotalUsers)
}

func TestValidateLogin(t *testing.T) {
	errs := ValidateLogin(" ", "123")
	assert.EqualError(t, errs["email"], "Email is required")
	assert.EqualError(t, errs["password"], "Password must be at least 6 characters long")

	errs = ValidateLogin("not-an-email", "secret1")
	assert.EqualError(t, errs["email"], "Please enter a valid email address")

	assert.Empty(t, ValidateLogin(" user@college.edu ", "secret1"))

	// the password is checked exactly as it will be sent
	errs = ValidateLogin("user@college.edu", "  abc  ")
	assert.NotContains(t, errs, "password")
	errs = ValidateLogin("user@college.edu", " abc ")
	assert.EqualError(t, errs["password"], "Password must be at least 6 characters long")
}

func TestValidateRegister(t *testing.T) {
	base := RegisterForm{
		Name:            "Sam",
		Email:           "sam@college.edu",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            model.RoleStudent,
	}

	errs := ValidateRegister(base)
	assert.EqualError(t, errs["department"], "Please select a department")

	student := base
	student.Department = "Arts"
	assert.Empty(t, ValidateRegister(student))

	mismatch := student
	mismatch.ConfirmPassword = "other"
	assert.EqualError(t, ValidateRegister(mismatch)["confirmPassword"], "Passwords do not match")

	manager := base
	manager.Role = model.RoleEventManager
	manager.PhoneNumber = "0123"
	errs = ValidateRegister(manager)
	assert.EqualError(t, errs["designation"], "Please select a designation")
	assert.EqualError(t, errs["phoneNumber"], "Please enter a valid phone number")
	assert.NotContains(t, errs, "department")

	manager.Designation = "Coordinator"
	manager.PhoneNumber = "+1 555 123 4567"
	assert.Empty(t, ValidateRegister(manager))

	req := manager.Request()
	assert.Equal(t, "+15551234567", req.PhoneNumber)
	assert.Empty(t, req.Department)

	padded := student
	padded.Password = " secret1 "
	padded.ConfirmPassword = "secret1"
	assert.EqualError(t, ValidateRegister(padded)["confirmPassword"], "Passwords do not match")
	padded.ConfirmPassword = " secret1 "
	assert.Empty(t, ValidateRegister(padded))
	assert.Equal(t, " secret1 ", padded.Request().Password)
}

func TestValidateEvent(t *testing.T) {
	in := model.EventInput{
		Title:           "Hack Night",
		Description:     "Build things",
		Date:            "2026-05-01",
		Time:            "18:30",
		Department:      "Computer Science",
		Location:        "Lab 2",
		MaxParticipants: 40,
	}
	assert.Empty(t, ValidateEvent(in))

	bad := in
	bad.Date = "05/01/2026"
	bad.Time = "6pm"
	bad.MaxParticipants = 0
	errs := ValidateEvent(bad)
	assert.Contains(t, errs, "date")
	assert.Contains(t, errs, "time")
	assert.EqualError(t, errs["maxParticipants"], "Maximum participants must be at least 1")
}

func TestValidateChangePasswordAndProfile(t *testing.T) {
	errs := ValidateChangePassword("", "abc", "abd")
	assert.Contains(t, errs, "currentPassword")
	assert.Contains(t, errs, "newPassword")
	assert.EqualError(t, errs["confirmPassword"], "Passwords do not match")
	assert.Empty(t, ValidateChangePassword("old", "secret1", "secret1"))

	errs = ValidateProfile("S", "bad")
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")
	assert.Empty(t, ValidateProfile("Sam", "sam@college.edu"))
}
