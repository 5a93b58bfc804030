package devapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/puyokura/eventdesk/model"
)

type authResponse struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

func badRequest(ctx *gin.Context, msg string) {
	ctx.Abort()
	ctx.String(http.StatusBadRequest, msg)
}

func (s *Server) respondWithToken(ctx *gin.Context, u model.User) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		s.log.Error("issuing token", zap.Error(err))
		renderErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, authResponse{User: u, Token: token})
}

func (s *Server) handleLogin(ctx *gin.Context) {
	var req model.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid email or password")
		return
	}
	role := req.Role
	if role != "" {
		parsed, ok := model.ParseRole(string(role))
		if !ok {
			renderErr(ctx, ErrRoleMismatch)
			return
		}
		role = parsed
	}
	u, err := s.store.Authenticate(req.Email, req.Password, role)
	if err != nil {
		renderErr(ctx, err)
		return
	}
	s.respondWithToken(ctx, u)
}

func (s *Server) handleRegister(ctx *gin.Context) {
	var req model.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Registration failed: invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		badRequest(ctx, "Registration failed: name, email and password are required")
		return
	}
	if req.Role != "" {
		role, ok := model.ParseRole(string(req.Role))
		if !ok {
			badRequest(ctx, "Registration failed: unknown role")
			return
		}
		req.Role = role
	}
	u, err := s.store.CreateUser(req)
	if err != nil {
		renderErr(ctx, err)
		return
	}
	s.respondWithToken(ctx, u)
}

func (s *Server) handleGetProfile(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, current(ctx))
}

func (s *Server) handleUpdateProfile(ctx *gin.Context) {
	var req model.ProfileUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Failed to update profile: invalid request body")
		return
	}
	u, err := s.store.UpdateProfile(current(ctx).Email, req)
	if err != nil {
		renderErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, u)
}

func (s *Server) handleChangePassword(ctx *gin.Context) {
	var req model.ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.NewPassword == "" {
		badRequest(ctx, "Failed to change password: invalid request body")
		return
	}
	if err := s.store.ChangePassword(current(ctx).Email, req.CurrentPassword, req.NewPassword); err != nil {
		renderErr(ctx, err)
		return
	}
	ctx.String(http.StatusOK, "Password changed successfully")
}

func (s *Server) handleGetStudentDetails(ctx *gin.Context) {
	d, err := s.store.StudentDetails(current(ctx).Email)
	if err != nil {
		renderErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, d)
}

func (s *Server) handleUpdateStudentDetails(ctx *gin.Context) {
	var req model.StudentDetails
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Failed to update student details: invalid request body")
		return
	}
	d, err := s.store.UpdateStudentDetails(current(ctx).Email, req)
	if err != nil {
		renderErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, d)
}

func (s *Server) handleGetManagerDetails(ctx *gin.Context) {
	d, err := s.store.EventManagerDetails(current(ctx).Email)
	if err != nil {
		renderErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, d)
}

func (s *Server) handleUpdateManagerDetails(ctx *gin.Context) {
	var req model.EventManagerDetails
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Failed to update event manager details: invalid request body")
		return
	}
	d, err := s.store.UpdateEventManagerDetails(current(ctx).Email, req)
	if err != nil {
		renderErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, d)
}

func (s *Server) handleListEvents(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.store.Events())
}

func (s *Server) handleUpcomingEvents(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.store.UpcomingEvents())
}

func (s *Server) handleSearchEvents(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.store.SearchEvents(ctx.Query("q")))
}

func (s *Server) handleMyEvents(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.store.EventsCreatedBy(current(ctx).Email))
}

func (s *Server) handleRegisteredEvents(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.store.EventsRegisteredBy(current(ctx).Email))
}

func (s *Server) handleEventsByDepartment(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.store.EventsByDepartment(ctx.Param("department")))
}

func pathID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(ctx, "Invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetEvent(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	e, err := s.store.Event(id)
	if err != nil {
		renderErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, e)
}

func bindEventInput(ctx *gin.Context) (model.EventInput, bool) {
	var in model.EventInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "Invalid event data")
		return in, false
	}
	if strings.TrimSpace(in.Title) == "" || in.Date == "" || in.MaxParticipants < 1 {
		badRequest(ctx, "Title, date and a positive participant limit are required")
		return in, false
	}
	return in, true
}

func (s *Server) handleCreateEvent(ctx *gin.Context) {
	in, ok := bindEventInput(ctx)
	if !ok {
		return
	}
	e, err := s.store.CreateEvent(in, current(ctx))
	if err != nil {
		renderErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, e)
}

func (s *Server) handleUpdateEvent(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	in, ok := bindEventInput(ctx)
	if !ok {
		return
	}
	e, err := s.store.UpdateEvent(id, in, current(ctx))
	if err != nil {
		renderErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, e)
}

func (s *Server) handleDeleteEvent(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := s.store.DeleteEvent(id, current(ctx)); err != nil {
		renderErr(ctx, err)
		return
	}
	ctx.Status(http.StatusOK)
}

func (s *Server) handleEventRegister(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	e, err := s.store.Register(id, current(ctx).Email)
	if err != nil {
		renderErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, e)
}

func (s *Server) handleUnregister(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	e, err := s.store.Unregister(id, current(ctx).Email)
	if err != nil {
		renderErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, e)
}

func (s *Server) handleSetRegistration(closed bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := pathID(ctx)
		if !ok {
			return
		}
		e, err := s.store.SetRegistrationClosed(id, closed, current(ctx))
		if err != nil {
			renderErr(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, e)
	}
}

func (s *Server) handleListUsers(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.store.Users())
}

func (s *Server) handleUpdateUser(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var upd model.UserUpdate
	if err := ctx.ShouldBindJSON(&upd); err != nil {
		badRequest(ctx, "Invalid user update")
		return
	}
	if upd.Role != "" {
		role, valid := model.ParseRole(string(upd.Role))
		if !valid {
			badRequest(ctx, "Invalid role")
			return
		}
		upd.Role = role
	}
	u, err := s.store.UpdateUser(id, upd)
	if err != nil {
		renderErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, u)
}

func (s *Server) handleDeleteUser(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := s.store.DeleteUser(id); err != nil {
		renderErr(ctx, err)
		return
	}
	ctx.String(http.StatusOK, "User deleted successfully")
}
