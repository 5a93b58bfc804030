package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/puyokura/eventdesk/config"
	"github.com/puyokura/eventdesk/gateway"
	"github.com/puyokura/eventdesk/notify"
	"github.com/puyokura/eventdesk/service"
	"github.com/puyokura/eventdesk/session"
	"github.com/puyokura/eventdesk/view"
)

// deps is everything the screens talk to. It outlives any single screen.
type deps struct {
	conf    *config.Config
	log     *zap.Logger
	session *session.Store
	gw      *gateway.Gateway
	events  *service.EventService
	users   *service.UserService
	toasts  *notify.Queue
	nav     *view.Navigator
	board   *view.Board
	admin   *view.UserAdmin
	student *view.StudentDashboard
	now     func() time.Time
}

// sessionCreds lets the gateway reach the session store, which itself
// needs the gateway to be built first.
type sessionCreds struct {
	store *session.Store
}

func (c *sessionCreds) Token() string {
	if c.store == nil {
		return ""
	}
	return c.store.Token()
}

func (c *sessionCreds) Invalidate() {
	if c.store != nil {
		c.store.Invalidate()
	}
}

func newDeps(conf *config.Config, log *zap.Logger) (*deps, error) {
	creds := &sessionCreds{}
	gwConf := gateway.DefaultConfig()
	gwConf.BaseURL = conf.API.BaseURL
	gwConf.Timeout = conf.API.Timeout

	gw, err := gateway.New(gwConf, creds, log.Named("gateway"))
	if err != nil {
		return nil, fmt.Errorf("gateway.New -> %w", err)
	}

	store := session.NewStore(
		session.NewFileStorage(conf.Session.Dir),
		conf.Session.Key,
		service.NewAuthService(gw),
		log.Named("session"),
	)
	creds.store = store
	store.Init()

	toasts := notify.NewQueue(conf.UI.ToastDuration)
	events := service.NewEventService(gw)
	users := service.NewUserService(gw)

	d := &deps{
		conf:    conf,
		log:     log,
		session: store,
		gw:      gw,
		events:  events,
		users:   users,
		toasts:  toasts,
		board:   view.NewBoard(events, toasts),
		admin:   view.NewUserAdmin(users, toasts),
		student: view.NewStudentDashboard(events, toasts),
		now:     time.Now,
	}
	d.nav = view.NewNavigator(d.auth)
	return d, nil
}

func (d *deps) auth() view.Auth {
	return view.Auth{
		Loading:       d.session.Loading(),
		Authenticated: d.session.State() == session.StateAuthenticated,
		Role:          d.session.Current().Role(),
	}
}

// attach forwards background events into the program. Listeners may fire
// from inside Update, so Send runs on its own goroutine.
func (d *deps) attach(p *tea.Program) {
	send := func(msg tea.Msg) { go p.Send(msg) }

	d.toasts.OnChange(func() { send(toastsMsg{}) })
	d.session.Subscribe(func(st session.State) { send(sessionMsg{state: st}) })
	d.gw.OnUnauthorized(func() { send(unauthorizedMsg{}) })
}

func (d *deps) close() {
	d.toasts.Close()
	d.session.Close()
}

// sessionMsg reports a session state change.
type sessionMsg struct {
	state session.State
}

type unauthorizedMsg struct{}

type toastsMsg struct{}

type navigateMsg struct {
	route view.Route
}

func navigate(r view.Route) tea.Cmd {
	return func() tea.Msg { return navigateMsg{route: r} }
}

// resultMsg carries the outcome of one network call. gen is the view
// generation that issued it.
type resultMsg struct {
	gen   int
	op    string
	value any
	err   error
}

// call runs fn off the event loop and reports back as a resultMsg.
func (d *deps) call(gen int, op string, fn func(ctx context.Context) (any, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), d.conf.API.Timeout+time.Second)
		defer cancel()

		v, err := fn(ctx)
		if err != nil {
			d.log.Debug("call failed", zap.String("op", op), zap.Int("gen", gen), zap.Error(err))
		}
		return resultMsg{gen: gen, op: op, value: v, err: err}
	}
}

// do is call for operations that only report an error.
func (d *deps) do(gen int, op string, fn func(ctx context.Context) error) tea.Cmd {
	return d.call(gen, op, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
}
