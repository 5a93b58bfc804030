package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/puyokura/eventdesk/model"
)

// ErrNotAuthenticated is returned by operations that need a session when the
// store is anonymous. Callers are expected to gate on State first.
var ErrNotAuthenticated = errors.New("session: not authenticated")

type State int

const (
	StateInitializing State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	}
	return "initializing"
}

// AuthAPI is the slice of the auth service the store drives.
type AuthAPI interface {
	Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error)
	Profile(ctx context.Context) (model.Record[model.User], error)
	UpdateProfile(ctx context.Context, req model.ProfileUpdate) (model.Record[model.User], error)
	ChangePassword(ctx context.Context, req model.ChangePasswordRequest) error
	StudentDetails(ctx context.Context) (model.Record[model.StudentDetails], error)
	UpdateStudentDetails(ctx context.Context, d model.StudentDetails) (model.Record[model.StudentDetails], error)
	EventManagerDetails(ctx context.Context) (model.Record[model.EventManagerDetails], error)
	UpdateEventManagerDetails(ctx context.Context, d model.EventManagerDetails) (model.Record[model.EventManagerDetails], error)
}

// Store owns the authenticated identity and its persisted copy.
type Store struct {
	mu        sync.RWMutex
	storage   Storage
	key       string
	api       AuthAPI
	log       *zap.Logger
	state     State
	loading   bool
	current   *model.Session
	listeners []func(State)
	closed    bool
}

func NewStore(storage Storage, key string, api AuthAPI, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		storage: storage,
		key:     key,
		api:     api,
		log:     log,
		state:   StateInitializing,
		loading: true,
	}
}

// Init loads the persisted session. A record without a token, or one that
// cannot be decoded, is discarded.
func (s *Store) Init() State {
	s.mu.Lock()
	data, err := s.storage.Get(s.key)
	switch {
	case err == nil:
		var sess model.Session
		if jerr := json.Unmarshal(data, &sess); jerr != nil || !sess.Valid() {
			s.log.Warn("discarding persisted session", zap.Error(jerr))
			_ = s.storage.Remove(s.key)
			s.setAnonymousLocked()
		} else {
			s.current = &sess
			s.state = StateAuthenticated
		}
	case errors.Is(err, ErrNotFound):
		s.setAnonymousLocked()
	default:
		s.log.Error("reading persisted session", zap.Error(err))
		s.setAnonymousLocked()
	}
	s.loading = false
	state := s.state
	s.mu.Unlock()

	s.notify(state)
	return state
}

func (s *Store) setAnonymousLocked() {
	s.current = nil
	s.state = StateAnonymous
}

// Subscribe registers fn to run after every state change.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.listeners = append(s.listeners, fn)
	}
}

// Close drops the listeners. The persisted session is left in place.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.listeners = nil
}

func (s *Store) notify(state State) {
	s.mu.RLock()
	ls := slices.Clone(s.listeners)
	s.mu.RUnlock()
	for _, fn := range ls {
		fn(state)
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Current returns a copy of the session, or nil when anonymous.
func (s *Store) Current() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

func (s *Store) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return model.User{}, false
	}
	return s.current.User(), true
}

// Token is what the gateway attaches to outgoing requests.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token()
}

func (s *Store) Login(ctx context.Context, email, password string, role model.Role) (model.AuthResponse, error) {
	s.setLoading(true)
	resp, err := s.api.Login(ctx, model.LoginRequest{Email: email, Password: password, Role: role})
	if err != nil {
		s.setLoading(false)
		return model.AuthResponse{}, err
	}
	if err := s.establish(resp); err != nil {
		return model.AuthResponse{}, err
	}
	return resp, nil
}

func (s *Store) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	if req.Role == "" {
		req.Role = model.RoleStudent
	}
	s.setLoading(true)
	resp, err := s.api.Register(ctx, req)
	if err != nil {
		s.setLoading(false)
		return model.AuthResponse{}, err
	}
	if err := s.establish(resp); err != nil {
		return model.AuthResponse{}, err
	}
	return resp, nil
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) establish(resp model.AuthResponse) error {
	sess, err := model.NewSession(resp.User.Raw, resp.Token)
	if err != nil {
		s.setLoading(false)
		return fmt.Errorf("model.NewSession -> %w", err)
	}
	if !sess.Valid() {
		s.setLoading(false)
		return errors.New("server returned no token")
	}

	s.mu.Lock()
	if err := s.persistLocked(sess); err != nil {
		s.loading = false
		s.mu.Unlock()
		return err
	}
	s.current = sess
	s.state = StateAuthenticated
	s.loading = false
	s.mu.Unlock()

	s.log.Info("signed in", zap.String("role", string(sess.Role())))
	s.notify(StateAuthenticated)
	return nil
}

func (s *Store) persistLocked(sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}
	if err := s.storage.Set(s.key, data); err != nil {
		return fmt.Errorf("s.storage.Set -> %w", err)
	}
	return nil
}

// Logout forgets the session locally. The server is not told.
func (s *Store) Logout() {
	s.clear("logout")
}

// Invalidate is the gateway's hook for unauthorized responses.
func (s *Store) Invalidate() {
	s.clear("unauthorized")
}

func (s *Store) clear(reason string) {
	s.mu.Lock()
	if err := s.storage.Remove(s.key); err != nil {
		s.log.Error("removing persisted session", zap.Error(err))
	}
	was := s.state
	s.setAnonymousLocked()
	s.loading = false
	s.mu.Unlock()

	if was != StateAnonymous {
		s.log.Info("signed out", zap.String("reason", reason))
	}
	s.notify(StateAnonymous)
}

// merge folds a server response into the session and persists it.
func (s *Store) merge(raw json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNotAuthenticated
	}
	next := s.current.Clone()
	if err := next.Merge(raw); err != nil {
		return fmt.Errorf("next.Merge -> %w", err)
	}
	if err := s.persistLocked(next); err != nil {
		return err
	}
	s.current = next
	return nil
}

func (s *Store) requireAuth() error {
	if s.State() != StateAuthenticated {
		return ErrNotAuthenticated
	}
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, req model.ProfileUpdate) (model.User, error) {
	if err := s.requireAuth(); err != nil {
		return model.User{}, err
	}
	rec, err := s.api.UpdateProfile(ctx, req)
	if err != nil {
		return model.User{}, err
	}
	if err := s.merge(rec.Raw); err != nil {
		return model.User{}, err
	}
	return rec.Value, nil
}

func (s *Store) UpdateStudentDetails(ctx context.Context, d model.StudentDetails) (model.StudentDetails, error) {
	if err := s.requireAuth(); err != nil {
		return model.StudentDetails{}, err
	}
	rec, err := s.api.UpdateStudentDetails(ctx, d)
	if err != nil {
		return model.StudentDetails{}, err
	}
	if err := s.merge(rec.Raw); err != nil {
		return model.StudentDetails{}, err
	}
	return rec.Value, nil
}

func (s *Store) UpdateEventManagerDetails(ctx context.Context, d model.EventManagerDetails) (model.EventManagerDetails, error) {
	if err := s.requireAuth(); err != nil {
		return model.EventManagerDetails{}, err
	}
	rec, err := s.api.UpdateEventManagerDetails(ctx, d)
	if err != nil {
		return model.EventManagerDetails{}, err
	}
	if err := s.merge(rec.Raw); err != nil {
		return model.EventManagerDetails{}, err
	}
	return rec.Value, nil
}

func (s *Store) StudentDetails(ctx context.Context) (model.StudentDetails, error) {
	if err := s.requireAuth(); err != nil {
		return model.StudentDetails{}, err
	}
	rec, err := s.api.StudentDetails(ctx)
	return rec.Value, err
}

func (s *Store) EventManagerDetails(ctx context.Context) (model.EventManagerDetails, error) {
	if err := s.requireAuth(); err != nil {
		return model.EventManagerDetails{}, err
	}
	rec, err := s.api.EventManagerDetails(ctx)
	return rec.Value, err
}

func (s *Store) ChangePassword(ctx context.Context, current, next string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	return s.api.ChangePassword(ctx, model.ChangePasswordRequest{CurrentPassword: current, NewPassword: next})
}

// Refresh re-reads the canonical profile. It is best-effort: failures are
// logged and swallowed.
func (s *Store) Refresh(ctx context.Context) {
	if s.State() != StateAuthenticated {
		return
	}
	rec, err := s.api.Profile(ctx)
	if err != nil {
		s.log.Warn("refreshing profile", zap.Error(err))
		return
	}
	if err := s.merge(rec.Raw); err != nil {
		s.log.Warn("merging refreshed profile", zap.Error(err))
	}
}
