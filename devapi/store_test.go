package devapi

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puyokura/eventdesk/model"
)

func fixedStore(t *testing.T, file string) *Store {
	t.Helper()
	s := NewStore(file)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local) }
	return s
}

func newManager(t *testing.T, s *Store, email string) model.User {
	t.Helper()
	u, err := s.CreateUser(model.RegisterRequest{Name: "M", Email: email, Password: "secret1", Role: model.RoleEventManager})
	require.NoError(t, err)
	return u
}

func sampleInput(date string, max int) model.EventInput {
	return model.EventInput{Title: "Hackathon", Description: "Build things", Date: date, Time: "10:00", Department: "Computer Science", Location: "Lab 1", MaxParticipants: max}
}

func TestAuthenticate(t *testing.T) {
	s := fixedStore(t, "")
	_, err := s.CreateUser(model.RegisterRequest{Name: "S", Email: "S@x.io", Password: "secret1"})
	require.NoError(t, err)

	u, err := s.Authenticate("s@x.io", "secret1", "")
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, u.Role)

	_, err = s.Authenticate("s@x.io", "wrong", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate("s@x.io", "secret1", model.RoleAdmin)
	assert.ErrorIs(t, err, ErrRoleMismatch)

	_, err = s.CreateUser(model.RegisterRequest{Name: "S2", Email: "s@X.io", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailExists)

	inactive := false
	_, err = s.UpdateUser(u.ID, model.UserUpdate{Active: &inactive})
	require.NoError(t, err)
	_, err = s.Authenticate("s@x.io", "secret1", "")
	assert.ErrorIs(t, err, ErrDeactivated)
}

func TestRegistrationRules(t *testing.T) {
	s := fixedStore(t, "")
	m := newManager(t, s, "m@x.io")

	full, err := s.CreateEvent(sampleInput("2026-04-01", 1), m)
	require.NoError(t, err)

	e, err := s.Register(full.ID, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, 1, e.CurrentParticipants)
	assert.Equal(t, []string{"a@x.io"}, e.Participants)

	_, err = s.Register(full.ID, "b@x.io")
	assert.ErrorIs(t, err, ErrFull)

	_, err = s.Unregister(full.ID, "b@x.io")
	assert.ErrorIs(t, err, ErrNotRegistered)

	e, err = s.Unregister(full.ID, "A@x.io")
	require.NoError(t, err)
	assert.Zero(t, e.CurrentParticipants)

	roomy, err := s.CreateEvent(sampleInput("2026-04-01", 10), m)
	require.NoError(t, err)
	_, err = s.Register(roomy.ID, "a@x.io")
	require.NoError(t, err)
	_, err = s.Register(roomy.ID, "a@x.io")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = s.SetRegistrationClosed(roomy.ID, true, m)
	require.NoError(t, err)
	_, err = s.Register(roomy.ID, "c@x.io")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRegisterAfterStartClosesRegistration(t *testing.T) {
	s := fixedStore(t, "")
	m := newManager(t, s, "m@x.io")
	past, err := s.CreateEvent(sampleInput("2026-03-10", 10), m)
	require.NoError(t, err)

	_, err = s.Register(past.ID, "a@x.io")
	assert.ErrorIs(t, err, ErrStarted)

	got, err := s.Event(past.ID)
	require.NoError(t, err)
	assert.True(t, got.RegistrationClosed)
	assert.Zero(t, got.CurrentParticipants)

	_, err = s.SetRegistrationClosed(past.ID, false, m)
	assert.ErrorIs(t, err, ErrCannotReopen)
}

func TestOwnership(t *testing.T) {
	s := fixedStore(t, "")
	owner := newManager(t, s, "owner@x.io")
	other := newManager(t, s, "other@x.io")
	admin := model.User{Email: "admin@x.io", Role: model.RoleAdmin}

	e, err := s.CreateEvent(sampleInput("2026-04-01", 5), owner)
	require.NoError(t, err)

	_, err = s.UpdateEvent(e.ID, sampleInput("2026-04-02", 5), other)
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = s.SetRegistrationClosed(e.ID, true, other)
	assert.ErrorIs(t, err, ErrToggleNotOwner)
	assert.ErrorIs(t, s.DeleteEvent(e.ID, other), ErrNotOwner)

	updated, err := s.UpdateEvent(e.ID, sampleInput("2026-04-02", 5), admin)
	require.NoError(t, err)
	assert.Equal(t, "2026-04-02", updated.Date)
	assert.Equal(t, "owner@x.io", updated.CreatedBy)

	require.NoError(t, s.DeleteEvent(e.ID, owner))
	_, err = s.Event(e.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestQueries(t *testing.T) {
	s := fixedStore(t, "")
	m := newManager(t, s, "m@x.io")

	today := sampleInput("2026-03-10", 5)
	today.Time = "23:00"
	today.Title = "Late talk"
	_, err := s.CreateEvent(today, m)
	require.NoError(t, err)

	art := sampleInput("2026-05-01", 5)
	art.Department = "Arts"
	art.Description = "Painting with AI"
	_, err = s.CreateEvent(art, m)
	require.NoError(t, err)

	assert.Len(t, s.Events(), 2)
	assert.Len(t, s.UpcomingEvents(), 1, "same-day events are not upcoming")
	assert.Len(t, s.EventsByDepartment("Arts"), 1)
	assert.Len(t, s.SearchEvents("painting"), 1)
	assert.Len(t, s.SearchEvents("arts"), 0, "department is not searched")
	assert.Len(t, s.EventsCreatedBy("M@x.io"), 2)
	assert.Empty(t, s.EventsRegisteredBy("m@x.io"))
}

func TestStorePersistsToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "data", "devapi.json")
	s := fixedStore(t, file)
	require.NoError(t, s.SeedAdmin("admin@college.edu", "admin123"))
	require.NoError(t, s.SeedAdmin("admin@college.edu", "admin123"))
	m := newManager(t, s, "m@x.io")
	_, err := s.CreateEvent(sampleInput("2026-04-01", 5), m)
	require.NoError(t, err)

	reloaded := fixedStore(t, file)
	require.NoError(t, reloaded.Load())
	assert.Len(t, reloaded.Users(), 2)
	assert.Len(t, reloaded.Events(), 1)

	u, err := reloaded.Authenticate("admin@college.edu", "admin123", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	next, err := reloaded.CreateEvent(sampleInput("2026-04-02", 5), m)
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.ID)
}

func TestProfileAndDetails(t *testing.T) {
	s := fixedStore(t, "")
	_, err := s.CreateUser(model.RegisterRequest{Name: "S", Email: "s@x.io", Password: "secret1", Department: "Arts"})
	require.NoError(t, err)

	u, err := s.UpdateProfile("s@x.io", model.ProfileUpdate{Name: "Sam", Email: "sam@x.io", Department: "Science"})
	require.NoError(t, err)
	assert.Equal(t, "Sam", u.Name)
	assert.Equal(t, "Science", u.Department)

	_, ok := s.UserByEmail("s@x.io")
	assert.False(t, ok)

	d, err := s.UpdateStudentDetails("sam@x.io", model.StudentDetails{RollNumber: "R1", Department: "Science", Year: "2"})
	require.NoError(t, err)
	assert.Equal(t, "R1", d.RollNumber)
	assert.Equal(t, "Sam", d.Name)

	_, err = s.EventManagerDetails("sam@x.io")
	assert.ErrorIs(t, err, ErrManagersOnly)

	assert.ErrorIs(t, s.ChangePassword("sam@x.io", "nope", "another1"), ErrWrongPassword)
	require.NoError(t, s.ChangePassword("sam@x.io", "secret1", "another1"))
	_, err = s.Authenticate("sam@x.io", "another1", "")
	assert.NoError(t, err)
}

func TestFailedSaveLeavesStateUntouched(t *testing.T) {
	s := fixedStore(t, "")
	student, err := s.CreateUser(model.RegisterRequest{Name: "S", Email: "s@x.io", Password: "secret1"})
	require.NoError(t, err)
	m := newManager(t, s, "m@x.io")
	ev, err := s.CreateEvent(sampleInput("2026-04-01", 5), m)
	require.NoError(t, err)
	_, err = s.Register(ev.ID, "s@x.io")
	require.NoError(t, err)

	// a regular file where the data directory should be
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	s.file = filepath.Join(blocker, "devapi.json")

	_, err = s.UpdateProfile("s@x.io", model.ProfileUpdate{Name: "Sam", Email: "sam@x.io"})
	require.Error(t, err)
	u, ok := s.UserByEmail("s@x.io")
	require.True(t, ok)
	assert.Equal(t, "S", u.Name)
	_, ok = s.UserByEmail("sam@x.io")
	assert.False(t, ok)

	_, err = s.Register(ev.ID, "m@x.io")
	require.Error(t, err)
	got, err := s.Event(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentParticipants)
	assert.Equal(t, []string{"s@x.io"}, got.Participants)

	require.Error(t, s.DeleteUser(student.ID))
	_, ok = s.UserByEmail("s@x.io")
	assert.True(t, ok)
	got, err = s.Event(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentParticipants)

	require.Error(t, s.DeleteEvent(ev.ID, m))
	_, err = s.Event(ev.ID)
	assert.NoError(t, err)
}
