package service

import (
	"context"
	"net/http"

	"github.com/puyokura/eventdesk/model"
)

// AuthService covers login, registration and the caller's own profile.
type AuthService struct {
	r Requester
}

func NewAuthService(r Requester) *AuthService {
	return &AuthService{r: r}
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := s.r.Do(ctx, http.MethodPost, routeLogin, nil, req, &resp)
	return resp, wrap("auth.Login", "Login failed. Please try again.", err)
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := s.r.Do(ctx, http.MethodPost, routeRegister, nil, req, &resp)
	return resp, wrap("auth.Register", "Registration failed. Please try again.", err)
}

func (s *AuthService) Profile(ctx context.Context) (model.Record[model.User], error) {
	var rec model.Record[model.User]
	err := s.r.Do(ctx, http.MethodGet, routeProfile, nil, nil, &rec)
	return rec, wrap("auth.Profile", "Failed to fetch user profile", err)
}

func (s *AuthService) UpdateProfile(ctx context.Context, req model.ProfileUpdate) (model.Record[model.User], error) {
	var rec model.Record[model.User]
	err := s.r.Do(ctx, http.MethodPut, routeProfile, nil, req, &rec)
	return rec, wrap("auth.UpdateProfile", "Failed to update profile", err)
}

func (s *AuthService) ChangePassword(ctx context.Context, req model.ChangePasswordRequest) error {
	err := s.r.Do(ctx, http.MethodPost, routeChangePassword, nil, req, nil)
	return wrap("auth.ChangePassword", "Failed to change password", err)
}

func (s *AuthService) StudentDetails(ctx context.Context) (model.Record[model.StudentDetails], error) {
	var rec model.Record[model.StudentDetails]
	err := s.r.Do(ctx, http.MethodGet, routeStudentDetails, nil, nil, &rec)
	return rec, wrap("auth.StudentDetails", "Failed to fetch student details", err)
}

func (s *AuthService) UpdateStudentDetails(ctx context.Context, d model.StudentDetails) (model.Record[model.StudentDetails], error) {
	var rec model.Record[model.StudentDetails]
	err := s.r.Do(ctx, http.MethodPut, routeStudentDetails, nil, d, &rec)
	return rec, wrap("auth.UpdateStudentDetails", "Failed to update student details", err)
}

func (s *AuthService) EventManagerDetails(ctx context.Context) (model.Record[model.EventManagerDetails], error) {
	var rec model.Record[model.EventManagerDetails]
	err := s.r.Do(ctx, http.MethodGet, routeEventManagerDetails, nil, nil, &rec)
	return rec, wrap("auth.EventManagerDetails", "Failed to fetch event manager details", err)
}

func (s *AuthService) UpdateEventManagerDetails(ctx context.Context, d model.EventManagerDetails) (model.Record[model.EventManagerDetails], error) {
	var rec model.Record[model.EventManagerDetails]
	err := s.r.Do(ctx, http.MethodPut, routeEventManagerDetails, nil, d, &rec)
	return rec, wrap("auth.UpdateEventManagerDetails", "Failed to update event manager details", err)
}
