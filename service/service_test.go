package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puyokura/eventdesk/config"
	"github.com/puyokura/eventdesk/devapi"
	"github.com/puyokura/eventdesk/gateway"
	"github.com/puyokura/eventdesk/model"
)

type tokenHolder struct {
	token       string
	invalidated bool
}

func (h *tokenHolder) Token() string { return h.token }
func (h *tokenHolder) Invalidate()   { h.token, h.invalidated = "", true }

type fixture struct {
	creds  *tokenHolder
	auth   *AuthService
	events *EventService
	users  *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := devapi.NewStore("")
	require.NoError(t, store.SeedAdmin("admin@college.edu", "admin123"))
	api := devapi.NewServer(config.DevAPIConfig{JWTSecret: "s", TokenTTL: time.Hour}, store, nil)
	srv := httptest.NewServer(api.Router)
	t.Cleanup(srv.Close)

	creds := &tokenHolder{}
	gw, err := gateway.New(gateway.Config{BaseURL: srv.URL + "/api"}, creds, nil)
	require.NoError(t, err)
	return &fixture{
		creds:  creds,
		auth:   NewAuthService(gw),
		events: NewEventService(gw),
		users:  NewUserService(gw),
	}
}

func (f *fixture) signIn(t *testing.T, email, password string) model.AuthResponse {
	t.Helper()
	resp, err := f.auth.Login(context.Background(), model.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	f.creds.token = resp.Token
	return resp
}

func futureInput(title, dept string, max int) model.EventInput {
	return model.EventInput{
		Title:           title,
		Description:     title + " description",
		Date:            time.Now().AddDate(0, 1, 0).Format(time.DateOnly),
		Time:            "10:00",
		Department:      dept,
		Location:        "Main hall",
		MaxParticipants: max,
	}
}

func TestLoginReturnsRawUser(t *testing.T) {
	f := newFixture(t)
	resp := f.signIn(t, "admin@college.edu", "admin123")

	assert.Equal(t, model.RoleAdmin, resp.User.Value.Role)
	assert.Contains(t, string(resp.User.Raw), `"email":"admin@college.edu"`)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginFailureUsesServerBody(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Login(context.Background(), model.LoginRequest{Email: "admin@college.edu", Password: "nope"})

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Invalid email or password", serr.Message)
	assert.Equal(t, http.StatusBadRequest, serr.Status)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestUnauthorizedInvalidatesCredentials(t *testing.T) {
	f := newFixture(t)
	f.creds.token = "stale"

	_, err := f.events.List(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, f.creds.invalidated)
	assert.Empty(t, f.creds.Token())
}

func TestEventLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signIn(t, "admin@college.edu", "admin123")

	created, err := f.events.Create(ctx, futureInput("Robotics Expo", "Engineering", 1))
	require.NoError(t, err)
	_, err = f.events.Create(ctx, futureInput("Poetry Night", "Arts", 5))
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, model.RegisterRequest{Name: "Stu", Email: "stu@x.io", Password: "secret1", Role: model.RoleStudent, Department: "Engineering"})
	require.NoError(t, err)
	f.signIn(t, "stu@x.io", "secret1")

	require.NoError(t, f.events.Register(ctx, created.ID))
	got, err := f.events.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentParticipants)
	assert.True(t, model.IsFull(got))

	err = f.events.Register(ctx, created.ID)
	assert.Equal(t, "User is already registered for this event", Message(err, ""))

	mine, err := f.events.Registered(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)

	byDept, err := f.events.ByDepartment(ctx, "Engineering")
	require.NoError(t, err)
	assert.Len(t, byDept, 1)

	found, err := f.events.Search(ctx, "poetry night")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	upcoming, err := f.events.Upcoming(ctx)
	require.NoError(t, err)
	assert.Len(t, upcoming, 2)

	require.NoError(t, f.events.Unregister(ctx, created.ID))
	err = f.events.Unregister(ctx, created.ID)
	assert.Equal(t, "User is not registered for this event", Message(err, ""))

	_, err = f.events.CloseRegistration(ctx, created.ID)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusForbidden, serr.Status)
}

func TestManagerEndpoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, model.RegisterRequest{Name: "Mia", Email: "mia@x.io", Password: "secret1", Role: model.RoleEventManager, Designation: "Coordinator", PhoneNumber: "+15550001"})
	require.NoError(t, err)
	f.creds.token = reg.Token

	e, err := f.events.Create(ctx, futureInput("Career Fair", "Business", 50))
	require.NoError(t, err)

	closed, err := f.events.CloseRegistration(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, closed.RegistrationClosed)
	opened, err := f.events.OpenRegistration(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, opened.RegistrationClosed)

	in := model.InputFrom(e)
	in.Location = "Atrium"
	updated, err := f.events.Update(ctx, e.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Atrium", updated.Location)

	mine, err := f.events.Mine(ctx)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	details, err := f.auth.UpdateEventManagerDetails(ctx, model.EventManagerDetails{Designation: "Lead", PhoneNumber: "+15550002"})
	require.NoError(t, err)
	assert.Equal(t, "Lead", details.Value.Designation)
	assert.Contains(t, string(details.Raw), `"name":"Mia"`)

	_, err = f.auth.StudentDetails(ctx)
	assert.Equal(t, "This endpoint is only for students", Message(err, ""))

	require.NoError(t, f.events.Delete(ctx, e.ID))
	list, err := f.events.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUserAdministration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, model.RegisterRequest{Name: "Stu", Email: "stu@x.io", Password: "secret1"})
	require.NoError(t, err)
	f.signIn(t, "admin@college.edu", "admin123")

	users, err := f.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	stu := users[1]

	inactive := false
	u, err := f.users.Update(ctx, stu.ID, model.UserUpdate{Role: model.RoleEventManager, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, model.RoleEventManager, u.Role)
	assert.False(t, u.IsActive())

	require.NoError(t, f.users.Delete(ctx, stu.ID))
	users, err = f.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestProfileAndPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signIn(t, "admin@college.edu", "admin123")

	rec, err := f.auth.UpdateProfile(ctx, model.ProfileUpdate{Name: "Root", Email: "admin@college.edu"})
	require.NoError(t, err)
	assert.Equal(t, "Root", rec.Value.Name)

	prof, err := f.auth.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Root", prof.Value.Name)

	err = f.auth.ChangePassword(ctx, model.ChangePasswordRequest{CurrentPassword: "bad", NewPassword: "another1"})
	assert.Equal(t, "Current password is incorrect", Message(err, ""))
	require.NoError(t, f.auth.ChangePassword(ctx, model.ChangePasswordRequest{CurrentPassword: "admin123", NewPassword: "another1"}))
}

func TestBodyMessage(t *testing.T) {
	cases := map[string]string{
		``:                        "",
		`   `:                     "",
		`Event is full`:           "Event is full",
		`"quoted text"`:           "quoted text",
		`{"message":"from msg"}`:  "from msg",
		`{"error":"from error"}`:  "from error",
		`{"other":1}`:             `{"other":1}`,
		`{"message":"  "}`:        `{"message":"  "}`,
		"  padded plain text \n":  "padded plain text",
	}
	for body, want := range cases {
		assert.Equal(t, want, bodyMessage([]byte(body)), body)
	}
}

func TestWrapFallsBackWithoutBody(t *testing.T) {
	err := wrap("events.List", "Failed to fetch events", &gateway.StatusError{Status: http.StatusInternalServerError})
	assert.Equal(t, "Failed to fetch events", err.Error())

	err = wrap("events.List", "Failed to fetch events", errors.New("dial tcp: refused"))
	assert.Equal(t, "Failed to fetch events", err.Error())
	assert.Equal(t, "fallback", Message(errors.New("x"), "fallback"))
	assert.NoError(t, wrap("op", "msg", nil))
}
