package view

import (
	"context"
	"sync"
	"time"

	"github.com/puyokura/eventdesk/model"
)

type RegisteredAPI interface {
	Registered(ctx context.Context) ([]model.Event, error)
	Unregister(ctx context.Context, id int64) error
}

// StudentDashboard lists the caller's registrations.
type StudentDashboard struct {
	mu     sync.Mutex
	events []model.Event
	busy   *Busy
	api    RegisteredAPI
	notes  Notifier
}

func NewStudentDashboard(api RegisteredAPI, notes Notifier) *StudentDashboard {
	return &StudentDashboard{api: api, notes: notes, busy: NewBusy()}
}

func (d *StudentDashboard) Busy() *Busy {
	return d.busy
}

func (d *StudentDashboard) Reload(ctx context.Context) error {
	events, err := d.api.Registered(ctx)
	if err != nil {
		d.notes.Error("Failed to load registered events. Please try again.")
		return err
	}
	d.mu.Lock()
	d.events = events
	d.mu.Unlock()
	return nil
}

func (d *StudentDashboard) Events() []model.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Event(nil), d.events...)
}

// Split returns the registrations as (upcoming, completed) at now.
func (d *StudentDashboard) Split(now time.Time) (upcoming, completed []model.Event) {
	return model.SplitByStatus(d.Events(), now)
}

// Cancel unregisters and drops the event from the list.
func (d *StudentDashboard) Cancel(ctx context.Context, id int64) error {
	if !d.busy.Begin(id) {
		return ErrBusy
	}
	defer d.busy.End(id)

	if err := d.api.Unregister(ctx, id); err != nil {
		d.notes.Error("Failed to cancel registration. Please try again.")
		return err
	}
	d.mu.Lock()
	kept := d.events[:0]
	for _, e := range d.events {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	d.events = kept
	d.mu.Unlock()
	d.notes.Success("Registration cancelled successfully.")
	return nil
}

type HomeAPI interface {
	List(ctx context.Context) ([]model.Event, error)
	Upcoming(ctx context.Context) ([]model.Event, error)
	Mine(ctx context.Context) ([]model.Event, error)
	Registered(ctx context.Context) ([]model.Event, error)
}

type UserCounter interface {
	List(ctx context.Context) ([]model.User, error)
}

// Home is the landing page summary, trimmed to what the page shows.
type Home struct {
	Upcoming   []model.Event
	Completed  []model.Event
	Mine       []model.Event
	Registered []model.Event
	TotalUsers int
}

// LoadHome gathers the landing summary for role. The user count is optional
// and a failure there leaves it at zero.
func LoadHome(ctx context.Context, events HomeAPI, users UserCounter, role model.Role, now time.Time) (Home, error) {
	var h Home
	upcoming, err := events.Upcoming(ctx)
	if err != nil {
		return h, err
	}
	h.Upcoming = head(upcoming, 6)

	all, err := events.List(ctx)
	if err != nil {
		return h, err
	}
	_, completed := model.SplitByStatus(all, now)
	h.Completed = head(completed, 6)

	switch role {
	case model.RoleEventManager:
		mine, err := events.Mine(ctx)
		if err != nil {
			return h, err
		}
		h.Mine = head(mine, 4)
	case model.RoleStudent:
		reg, err := events.Registered(ctx)
		if err != nil {
			return h, err
		}
		h.Registered = head(reg, 4)
	case model.RoleAdmin:
		if users != nil {
			if list, err := users.List(ctx); err == nil {
				h.TotalUsers = len(list)
			}
		}
	}
	return h, nil
}

func head(events []model.Event, n int) []model.Event {
	if len(events) > n {
		return events[:n]
	}
	return events
}
