package view

import (
	"context"
	"errors"
	"sync"

	"github.com/puyokura/eventdesk/model"
	"github.com/puyokura/eventdesk/notify"
	"github.com/puyokura/eventdesk/service"
)

// ErrBusy is returned when an action for the same item is already running.
var ErrBusy = errors.New("view: action already in progress")

// EventAPI is the subset of the event service the board drives.
type EventAPI interface {
	List(ctx context.Context) ([]model.Event, error)
	Registered(ctx context.Context) ([]model.Event, error)
	Register(ctx context.Context, id int64) error
	Unregister(ctx context.Context, id int64) error
	OpenRegistration(ctx context.Context, id int64) (model.Event, error)
	CloseRegistration(ctx context.Context, id int64) (model.Event, error)
	Create(ctx context.Context, in model.EventInput) (model.Event, error)
	Update(ctx context.Context, id int64, in model.EventInput) (model.Event, error)
	Delete(ctx context.Context, id int64) error
}

type Notifier interface {
	Success(msg string) notify.Toast
	Error(msg string) notify.Toast
}

// Busy tracks per-item in-flight actions.
type Busy struct {
	mu  sync.Mutex
	ids map[int64]bool
}

func NewBusy() *Busy {
	return &Busy{ids: make(map[int64]bool)}
}

// Begin marks id busy. It reports false if id already was.
func (b *Busy) Begin(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ids[id] {
		return false
	}
	b.ids[id] = true
	return true
}

func (b *Busy) End(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.ids, id)
}

func (b *Busy) Is(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ids[id]
}

type Patch func(model.Event) model.Event

type Ticket uint64

type pending struct {
	ticket Ticket
	id     int64
	patch  Patch
}

// Board is the events page state: the last server list plus local patches
// that have not been confirmed yet.
type Board struct {
	mu         sync.Mutex
	base       []model.Event
	pending    []pending
	next       Ticket
	registered map[int64]bool
	busy       *Busy
	api        EventAPI
	notes      Notifier
}

func NewBoard(api EventAPI, notes Notifier) *Board {
	return &Board{
		registered: make(map[int64]bool),
		busy:       NewBusy(),
		api:        api,
		notes:      notes,
	}
}

func (b *Board) Busy() *Busy {
	return b.busy
}

// Stage applies patch to event id optimistically.
func (b *Board) Stage(id int64, p Patch) Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.pending = append(b.pending, pending{ticket: b.next, id: id, patch: p})
	return b.next
}

// Confirm folds the staged patch into the base list.
func (b *Board) Confirm(t Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.takeLocked(t)
	if !ok {
		return
	}
	for i := range b.base {
		if b.base[i].ID == p.id {
			b.base[i] = p.patch(b.base[i])
		}
	}
}

// Discard drops the staged patch, reverting its effect.
func (b *Board) Discard(t Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.takeLocked(t)
}

func (b *Board) takeLocked(t Ticket) (pending, bool) {
	for i, p := range b.pending {
		if p.ticket == t {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			return p, true
		}
	}
	return pending{}, false
}

// Replace installs a fresh server list and forgets every staged patch.
func (b *Board) Replace(events []model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.base = append([]model.Event(nil), events...)
	b.pending = nil
}

// Events is the base list with staged patches applied.
func (b *Board) Events() []model.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := append([]model.Event(nil), b.base...)
	for _, p := range b.pending {
		for i := range out {
			if out[i].ID == p.id {
				out[i] = p.patch(out[i])
			}
		}
	}
	return out
}

func (b *Board) Event(id int64) (model.Event, bool) {
	for _, e := range b.Events() {
		if e.ID == id {
			return e, true
		}
	}
	return model.Event{}, false
}

func (b *Board) IsRegistered(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registered[id]
}

func (b *Board) setRegistered(id int64, v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v {
		b.registered[id] = true
	} else {
		delete(b.registered, id)
	}
}

func (b *Board) setRegisteredAll(events []model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registered = make(map[int64]bool, len(events))
	for _, e := range events {
		b.registered[e.ID] = true
	}
}

func (b *Board) upsert(e model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.base {
		if b.base[i].ID == e.ID {
			b.base[i] = e
			return
		}
	}
	b.base = append(b.base, e)
}

func (b *Board) remove(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.base[:0]
	for _, e := range b.base {
		if e.ID != id {
			out = append(out, e)
		}
	}
	b.base = out
	kept := b.pending[:0]
	for _, p := range b.pending {
		if p.id != id {
			kept = append(kept, p)
		}
	}
	b.pending = kept
	delete(b.registered, id)
}

func (b *Board) success(msg string) {
	if b.notes != nil {
		b.notes.Success(msg)
	}
}

func (b *Board) failure(msg string) {
	if b.notes != nil {
		b.notes.Error(msg)
	}
}

// Reload fetches the full list. Students also get their registered set
// rebuilt from the server.
func (b *Board) Reload(ctx context.Context, role model.Role) error {
	events, err := b.api.List(ctx)
	if err != nil {
		b.failure("Failed to load events. Please try again.")
		return err
	}
	b.Replace(events)

	if role != model.RoleStudent {
		return nil
	}
	mine, err := b.api.Registered(ctx)
	if err != nil {
		b.failure("Failed to load registered events. Please try again.")
		return err
	}
	b.setRegisteredAll(mine)
	return nil
}

func (b *Board) Register(ctx context.Context, id int64) error {
	if !b.busy.Begin(id) {
		return ErrBusy
	}
	defer b.busy.End(id)

	t := b.Stage(id, func(e model.Event) model.Event {
		e.CurrentParticipants++
		return e
	})
	if err := b.api.Register(ctx, id); err != nil {
		b.Discard(t)
		b.failure("Failed to register for event. Please try again.")
		return err
	}
	b.Confirm(t)
	b.setRegistered(id, true)
	b.success("Successfully registered for the event!")
	return nil
}

func (b *Board) Unregister(ctx context.Context, id int64) error {
	if !b.busy.Begin(id) {
		return ErrBusy
	}
	defer b.busy.End(id)

	t := b.Stage(id, func(e model.Event) model.Event {
		e.CurrentParticipants = max(0, e.CurrentParticipants-1)
		return e
	})
	if err := b.api.Unregister(ctx, id); err != nil {
		b.Discard(t)
		b.failure("Failed to unregister from event. Please try again.")
		return err
	}
	b.Confirm(t)
	b.setRegistered(id, false)
	b.success("Successfully unregistered from the event.")
	return nil
}

// ToggleRegistration opens or closes registration and takes the server's copy.
func (b *Board) ToggleRegistration(ctx context.Context, e model.Event) (model.Event, error) {
	if !b.busy.Begin(e.ID) {
		return model.Event{}, ErrBusy
	}
	defer b.busy.End(e.ID)

	call := b.api.CloseRegistration
	if e.RegistrationClosed {
		call = b.api.OpenRegistration
	}
	updated, err := call(ctx, e.ID)
	if err != nil {
		b.failure(service.Message(err, "Failed to toggle registration"))
		return model.Event{}, err
	}
	b.upsert(updated)
	if updated.RegistrationClosed {
		b.success("Registration closed")
	} else {
		b.success("Registration opened")
	}
	return updated, nil
}

func (b *Board) Create(ctx context.Context, in model.EventInput) (model.Event, error) {
	created, err := b.api.Create(ctx, in)
	if err != nil {
		b.failure("Failed to create event. Please try again.")
		return model.Event{}, err
	}
	b.upsert(created)
	b.success("Event created successfully!")
	return created, nil
}

func (b *Board) Update(ctx context.Context, id int64, in model.EventInput) (model.Event, error) {
	if !b.busy.Begin(id) {
		return model.Event{}, ErrBusy
	}
	defer b.busy.End(id)

	updated, err := b.api.Update(ctx, id, in)
	if err != nil {
		b.failure("Failed to update event. Please try again.")
		return model.Event{}, err
	}
	b.upsert(updated)
	b.success("Event updated successfully!")
	return updated, nil
}

func (b *Board) Delete(ctx context.Context, id int64) error {
	if !b.busy.Begin(id) {
		return ErrBusy
	}
	defer b.busy.End(id)

	if err := b.api.Delete(ctx, id); err != nil {
		b.failure(service.Message(err, "Failed to delete event. Please try again."))
		return err
	}
	b.remove(id)
	b.success("Event deleted successfully!")
	return nil
}
