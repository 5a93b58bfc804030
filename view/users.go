package view

import (
	"context"
	"sync"

	"github.com/puyokura/eventdesk/model"
	"github.com/puyokura/eventdesk/service"
)

type UserAPI interface {
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id int64, u model.UserUpdate) (model.User, error)
	Delete(ctx context.Context, id int64) error
}

// UserAdmin is the user table on the admin dashboard.
type UserAdmin struct {
	mu    sync.Mutex
	users []model.User
	busy  *Busy
	api   UserAPI
	notes Notifier
}

func NewUserAdmin(api UserAPI, notes Notifier) *UserAdmin {
	return &UserAdmin{api: api, notes: notes, busy: NewBusy()}
}

func (a *UserAdmin) Users() []model.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.User(nil), a.users...)
}

func (a *UserAdmin) Busy() *Busy {
	return a.busy
}

func (a *UserAdmin) Reload(ctx context.Context) error {
	users, err := a.api.List(ctx)
	if err != nil {
		a.notes.Error("Failed to load users. Please try again.")
		return err
	}
	a.mu.Lock()
	a.users = users
	a.mu.Unlock()
	return nil
}

func (a *UserAdmin) replace(u model.User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.users {
		if a.users[i].ID == u.ID {
			a.users[i] = u
			return
		}
	}
}

func (a *UserAdmin) ChangeRole(ctx context.Context, id int64, role model.Role) (model.User, error) {
	if !a.busy.Begin(id) {
		return model.User{}, ErrBusy
	}
	defer a.busy.End(id)

	updated, err := a.api.Update(ctx, id, model.UserUpdate{Role: role})
	if err != nil {
		a.notes.Error(service.Message(err, "Failed to update user role"))
		return model.User{}, err
	}
	a.replace(updated)
	a.notes.Success("User role updated successfully!")
	return updated, nil
}

// ToggleActive flips the active flag, keeping the role as it is.
func (a *UserAdmin) ToggleActive(ctx context.Context, u model.User) (model.User, error) {
	if !a.busy.Begin(u.ID) {
		return model.User{}, ErrBusy
	}
	defer a.busy.End(u.ID)

	next := !u.IsActive()
	updated, err := a.api.Update(ctx, u.ID, model.UserUpdate{Role: u.Role, Active: &next})
	if err != nil {
		a.notes.Error(service.Message(err, "Failed to update user status"))
		return model.User{}, err
	}
	a.replace(updated)
	if updated.IsActive() {
		a.notes.Success("User activated successfully!")
	} else {
		a.notes.Success("User deactivated successfully!")
	}
	return updated, nil
}

func (a *UserAdmin) Delete(ctx context.Context, id int64) error {
	if !a.busy.Begin(id) {
		return ErrBusy
	}
	defer a.busy.End(id)

	if err := a.api.Delete(ctx, id); err != nil {
		a.notes.Error(service.Message(err, "Failed to delete user"))
		return err
	}
	a.mu.Lock()
	kept := a.users[:0]
	for _, u := range a.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	a.users = kept
	a.mu.Unlock()
	a.notes.Success("User deleted successfully!")
	return nil
}
