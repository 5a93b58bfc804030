// Package devapi is an in-memory implementation of the platform's REST API.
// It backs the client's tests and local runs; it is not the real backend.
package devapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/puyokura/eventdesk/config"
	"github.com/puyokura/eventdesk/model"
)

const (
	basePath   = "/api"
	currentKey = "currentUser"
)

type Server struct {
	Router *gin.Engine
	store  *Store
	tokens *Tokens
	log    *zap.Logger
}

func NewServer(conf config.DevAPIConfig, store *Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		Router: gin.New(),
		store:  store,
		tokens: NewTokens(conf.JWTSecret, conf.TokenTTL),
		log:    log,
	}
	s.mountMiddlewares(conf.AllowedOrigins)
	s.mountHandlers()
	return s
}

func (s *Server) mountMiddlewares(origins []string) {
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New(requestid.WithGenerator(uuid.NewString)))
	s.Router.Use(s.requestLogger())
	if len(origins) > 0 {
		s.Router.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		s.log.Info("request",
			zap.String("request_id", requestid.Get(ctx)),
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func (s *Server) mountHandlers() {
	api := s.Router.Group(basePath)
	{
		api.POST("/auth/login", s.handleLogin)
		api.POST("/auth/register", s.handleRegister)
	}

	authed := s.Router.Group(basePath, s.verifyJWT())
	{
		authed.GET("/auth/profile", s.handleGetProfile)
		authed.PUT("/auth/profile", s.handleUpdateProfile)
		authed.POST("/auth/change-password", s.handleChangePassword)
		authed.GET("/auth/student-details", s.handleGetStudentDetails)
		authed.PUT("/auth/student-details", s.handleUpdateStudentDetails)
		authed.GET("/auth/event-manager-details", s.handleGetManagerDetails)
		authed.PUT("/auth/event-manager-details", s.handleUpdateManagerDetails)

		authed.GET("/events", s.handleListEvents)
		authed.GET("/events/upcoming", s.handleUpcomingEvents)
		authed.GET("/events/search", s.handleSearchEvents)
		authed.GET("/events/my-events", s.handleMyEvents)
		authed.GET("/events/registered", s.handleRegisteredEvents)
		authed.GET("/events/department/:department", s.handleEventsByDepartment)
		authed.GET("/events/:id", s.handleGetEvent)
		authed.POST("/events", s.requireRole(model.RoleEventManager, model.RoleAdmin), s.handleCreateEvent)
		authed.PUT("/events/:id", s.requireRole(model.RoleEventManager, model.RoleAdmin), s.handleUpdateEvent)
		authed.DELETE("/events/:id", s.requireRole(model.RoleEventManager, model.RoleAdmin), s.handleDeleteEvent)
		authed.POST("/events/:id/register", s.handleEventRegister)
		authed.POST("/events/:id/unregister", s.handleUnregister)
		authed.POST("/events/:id/close-registration", s.requireRole(model.RoleEventManager, model.RoleAdmin), s.handleSetRegistration(true))
		authed.POST("/events/:id/open-registration", s.requireRole(model.RoleEventManager, model.RoleAdmin), s.handleSetRegistration(false))

		authed.GET("/users", s.requireRole(model.RoleAdmin), s.handleListUsers)
		authed.PUT("/users/:id", s.requireRole(model.RoleAdmin), s.handleUpdateUser)
		authed.DELETE("/users/:id", s.requireRole(model.RoleAdmin), s.handleDeleteUser)
	}
}

// verifyJWT rejects requests without a valid bearer token for a live, active account.
func (s *Server) verifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw, ok := strings.CutPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" {
			renderErr(ctx, ErrUnauthorized)
			return
		}
		claims, err := s.tokens.Verify(raw)
		if err != nil {
			s.log.Debug("rejecting token", zap.Error(err))
			renderErr(ctx, ErrUnauthorized)
			return
		}
		u, found := s.store.UserByEmail(claims.Email)
		if !found || !u.IsActive() {
			renderErr(ctx, ErrUnauthorized)
			return
		}
		ctx.Set(currentKey, u)
		ctx.Next()
	}
}

func (s *Server) requireRole(roles ...model.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		u := current(ctx)
		for _, r := range roles {
			if u.Role == r {
				ctx.Next()
				return
			}
		}
		renderErr(ctx, ErrForbidden)
	}
}

func current(ctx *gin.Context) model.User {
	v, _ := ctx.Get(currentKey)
	u, _ := v.(model.User)
	return u
}

// renderErr writes the plain-string body the client expects.
func renderErr(ctx *gin.Context, err error) {
	status, msg := statusOf(err)
	ctx.Abort()
	ctx.String(status, msg)
}
