package service

import (
	"context"
	"net/http"

	"github.com/puyokura/eventdesk/model"
)

// UserService is admin-only.
type UserService struct {
	r Requester
}

func NewUserService(r Requester) *UserService {
	return &UserService{r: r}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.r.Do(ctx, http.MethodGet, routeUsers, nil, nil, &users); err != nil {
		return nil, wrap("users.List", "Failed to load users", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (s *UserService) Update(ctx context.Context, id int64, u model.UserUpdate) (model.User, error) {
	var out model.User
	err := s.r.Do(ctx, http.MethodPut, userPath(id), nil, u, &out)
	return out, wrap("users.Update", "Failed to update user", err)
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := s.r.Do(ctx, http.MethodDelete, userPath(id), nil, nil, nil)
	return wrap("users.Delete", "Failed to delete user", err)
}
