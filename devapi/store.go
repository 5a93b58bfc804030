package devapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/puyokura/eventdesk/model"
)

type account struct {
	model.User
	PasswordHash string `json:"passwordHash"`
}

type snapshot struct {
	Users  []*account     `json:"users"`
	Events []*model.Event `json:"events"`
}

// Store holds users and events in memory. When file is set every mutation is
// written back to it as JSON.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]*account // key: lower-cased email
	events    map[int64]*model.Event
	nextUser  int64
	nextEvent int64
	file      string
	now       func() time.Time
}

func NewStore(file string) *Store {
	return &Store{
		accounts: make(map[string]*account),
		events:   make(map[int64]*model.Event),
		file:     file,
		now:      time.Now,
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) Load() error {
	if s.file == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.file)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("os.ReadFile -> %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("json.Unmarshal -> %w", err)
	}
	for _, a := range snap.Users {
		s.accounts[emailKey(a.Email)] = a
		if a.ID > s.nextUser {
			s.nextUser = a.ID
		}
	}
	for _, e := range snap.Events {
		s.events[e.ID] = e
		if e.ID > s.nextEvent {
			s.nextEvent = e.ID
		}
	}
	return nil
}

// saveLocked must be called with the lock held.
func (s *Store) saveLocked() error {
	if s.file == "" {
		return nil
	}
	snap := snapshot{Users: s.sortedAccountsLocked(), Events: s.sortedEventsLocked()}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent -> %w", err)
	}
	dir := filepath.Dir(s.file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll -> %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.file)+".*.tmp")
	if err != nil {
		return fmt.Errorf("os.CreateTemp -> %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("tmp.Write -> %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tmp.Close -> %w", err)
	}
	if err := os.Rename(tmp.Name(), s.file); err != nil {
		return fmt.Errorf("os.Rename -> %w", err)
	}
	return nil
}

func (s *Store) sortedAccountsLocked() []*account {
	out := make([]*account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) sortedEventsLocked() []*model.Event {
	out := make([]*model.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SeedAdmin creates the admin account unless the email is already taken.
func (s *Store) SeedAdmin(email, password string) error {
	_, err := s.CreateUser(model.RegisterRequest{Name: "Administrator", Email: email, Password: password, Role: model.RoleAdmin})
	if errors.Is(err, ErrEmailExists) {
		return nil
	}
	return err
}

func (s *Store) CreateUser(req model.RegisterRequest) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}
	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(req.Email)
	if _, exists := s.accounts[key]; exists {
		return model.User{}, ErrEmailExists
	}
	active := true
	s.nextUser++
	a := &account{
		User: model.User{
			ID:          s.nextUser,
			Name:        req.Name,
			Email:       req.Email,
			Role:        role,
			Active:      &active,
			Department:  req.Department,
			Designation: req.Designation,
			PhoneNumber: req.PhoneNumber,
		},
		PasswordHash: string(hash),
	}
	s.accounts[key] = a

	if err := s.saveLocked(); err != nil {
		delete(s.accounts, key)
		s.nextUser--
		return model.User{}, err
	}
	return a.User, nil
}

// Authenticate checks credentials, then activity, then the requested role.
func (s *Store) Authenticate(email, password string, role model.Role) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[emailKey(email)]
	if !ok {
		return model.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return model.User{}, ErrInvalidCredentials
	}
	if !a.IsActive() {
		return model.User{}, ErrDeactivated
	}
	if role != "" && role != a.Role {
		return model.User{}, ErrRoleMismatch
	}
	return a.User, nil
}

func (s *Store) UserByEmail(email string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[emailKey(email)]
	if !ok {
		return model.User{}, false
	}
	return a.User, true
}

// updateAccount applies fn to the account for email and persists. A change
// of email re-keys the account.
func (s *Store) updateAccount(email string, fn func(a *account) error) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(email)
	a, ok := s.accounts[key]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	before := *a
	if err := fn(a); err != nil {
		*a = before
		return model.User{}, err
	}
	nk := emailKey(a.Email)
	if nk != key {
		if _, taken := s.accounts[nk]; taken {
			*a = before
			return model.User{}, ErrEmailExists
		}
		delete(s.accounts, key)
		s.accounts[nk] = a
		s.renameParticipantLocked(before.Email, a.Email)
	}
	if err := s.saveLocked(); err != nil {
		if nk != key {
			s.renameParticipantLocked(a.Email, before.Email)
			delete(s.accounts, nk)
			s.accounts[key] = a
		}
		*a = before
		return model.User{}, err
	}
	return a.User, nil
}

func (s *Store) renameParticipantLocked(from, to string) {
	for _, e := range s.events {
		for i, p := range e.Participants {
			if strings.EqualFold(p, from) {
				e.Participants[i] = to
			}
		}
		if strings.EqualFold(e.CreatedBy, from) {
			e.CreatedBy = to
		}
	}
}

func (s *Store) UpdateProfile(email string, p model.ProfileUpdate) (model.User, error) {
	return s.updateAccount(email, func(a *account) error {
		if p.Name != "" {
			a.Name = p.Name
		}
		if p.Email != "" {
			a.Email = p.Email
		}
		if a.Role == model.RoleStudent && p.Department != "" {
			a.Department = p.Department
		}
		return nil
	})
}

func (s *Store) ChangePassword(email, current, next string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}
	_, err = s.updateAccount(email, func(a *account) error {
		if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(current)) != nil {
			return ErrWrongPassword
		}
		a.PasswordHash = string(hash)
		return nil
	})
	return err
}

func studentDetailsOf(u model.User) model.StudentDetails {
	return model.StudentDetails{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		RollNumber:  u.RollNumber,
		Department:  u.Department,
		PhoneNumber: u.PhoneNumber,
		Year:        u.Year,
		CollegeName: u.CollegeName,
	}
}

func managerDetailsOf(u model.User) model.EventManagerDetails {
	return model.EventManagerDetails{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		Designation: u.Designation,
		PhoneNumber: u.PhoneNumber,
	}
}

func (s *Store) StudentDetails(email string) (model.StudentDetails, error) {
	u, ok := s.UserByEmail(email)
	if !ok {
		return model.StudentDetails{}, ErrUserNotFound
	}
	if u.Role != model.RoleStudent {
		return model.StudentDetails{}, ErrStudentsOnly
	}
	return studentDetailsOf(u), nil
}

func (s *Store) UpdateStudentDetails(email string, d model.StudentDetails) (model.StudentDetails, error) {
	u, err := s.updateAccount(email, func(a *account) error {
		if a.Role != model.RoleStudent {
			return ErrStudentsOnly
		}
		if d.Name != "" {
			a.Name = d.Name
		}
		if d.Email != "" {
			a.Email = d.Email
		}
		a.RollNumber = d.RollNumber
		a.Department = d.Department
		a.PhoneNumber = d.PhoneNumber
		a.Year = d.Year
		a.CollegeName = d.CollegeName
		return nil
	})
	if err != nil {
		return model.StudentDetails{}, err
	}
	return studentDetailsOf(u), nil
}

func (s *Store) EventManagerDetails(email string) (model.EventManagerDetails, error) {
	u, ok := s.UserByEmail(email)
	if !ok {
		return model.EventManagerDetails{}, ErrUserNotFound
	}
	if u.Role != model.RoleEventManager {
		return model.EventManagerDetails{}, ErrManagersOnly
	}
	return managerDetailsOf(u), nil
}

func (s *Store) UpdateEventManagerDetails(email string, d model.EventManagerDetails) (model.EventManagerDetails, error) {
	u, err := s.updateAccount(email, func(a *account) error {
		if a.Role != model.RoleEventManager {
			return ErrManagersOnly
		}
		a.Designation = d.Designation
		a.PhoneNumber = d.PhoneNumber
		return nil
	})
	if err != nil {
		return model.EventManagerDetails{}, err
	}
	return managerDetailsOf(u), nil
}

func (s *Store) Users() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accs := s.sortedAccountsLocked()
	out := make([]model.User, len(accs))
	for i, a := range accs {
		out[i] = a.User
	}
	return out
}

func (s *Store) findByIDLocked(id int64) (*account, bool) {
	for _, a := range s.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

func (s *Store) UpdateUser(id int64, upd model.UserUpdate) (model.User, error) {
	s.mu.RLock()
	a, ok := s.findByIDLocked(id)
	var email string
	if ok {
		email = a.Email
	}
	s.mu.RUnlock()
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return s.updateAccount(email, func(a *account) error {
		if upd.Role != "" {
			a.Role = upd.Role
		}
		if upd.Active != nil {
			v := *upd.Active
			a.Active = &v
		}
		return nil
	})
}

func (s *Store) DeleteUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.findByIDLocked(id)
	if !ok {
		return ErrUserNotFound
	}
	key := emailKey(a.Email)
	touched := map[int64]model.Event{}
	delete(s.accounts, key)
	for id, e := range s.events {
		before := copyEvent(e)
		if removeParticipant(e, a.Email) {
			e.CurrentParticipants = max(0, e.CurrentParticipants-1)
			touched[id] = before
		}
	}
	if err := s.saveLocked(); err != nil {
		s.accounts[key] = a
		for id, before := range touched {
			*s.events[id] = before
		}
		return err
	}
	return nil
}

func copyEvent(e *model.Event) model.Event {
	out := *e
	out.Participants = append([]string(nil), e.Participants...)
	return out
}

func (s *Store) selectEvents(keep func(*model.Event) bool) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Event{}
	for _, e := range s.sortedEventsLocked() {
		if keep(e) {
			out = append(out, copyEvent(e))
		}
	}
	return out
}

func (s *Store) Events() []model.Event {
	return s.selectEvents(func(*model.Event) bool { return true })
}

func (s *Store) Event(id int64) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return model.Event{}, ErrEventNotFound
	}
	return copyEvent(e), nil
}

func (s *Store) EventsByDepartment(dept string) []model.Event {
	return s.selectEvents(func(e *model.Event) bool { return e.Department == dept })
}

// UpcomingEvents are those dated strictly after today, regardless of time.
func (s *Store) UpcomingEvents() []model.Event {
	today := s.now().Format(time.DateOnly)
	return s.selectEvents(func(e *model.Event) bool {
		d, _, _ := strings.Cut(e.Date, "T")
		return d > today
	})
}

func (s *Store) SearchEvents(q string) []model.Event {
	q = strings.ToLower(q)
	return s.selectEvents(func(e *model.Event) bool {
		return strings.Contains(strings.ToLower(e.Title), q) || strings.Contains(strings.ToLower(e.Description), q)
	})
}

func (s *Store) EventsCreatedBy(email string) []model.Event {
	return s.selectEvents(func(e *model.Event) bool { return strings.EqualFold(e.CreatedBy, email) })
}

func (s *Store) EventsRegisteredBy(email string) []model.Event {
	return s.selectEvents(func(e *model.Event) bool { return hasParticipant(e, email) })
}

func hasParticipant(e *model.Event, email string) bool {
	for _, p := range e.Participants {
		if strings.EqualFold(p, email) {
			return true
		}
	}
	return false
}

func removeParticipant(e *model.Event, email string) bool {
	for i, p := range e.Participants {
		if strings.EqualFold(p, email) {
			e.Participants = append(e.Participants[:i], e.Participants[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) started(e *model.Event) bool {
	start, ok := model.ParseEventStart(e.Date, e.Time)
	return ok && !start.After(s.now())
}

func canManage(e *model.Event, by model.User) bool {
	return by.Role == model.RoleAdmin || strings.EqualFold(e.CreatedBy, by.Email)
}

func (s *Store) CreateEvent(in model.EventInput, by model.User) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := model.DateTime{Time: s.now()}
	s.nextEvent++
	e := &model.Event{
		ID:              s.nextEvent,
		Title:           in.Title,
		Description:     in.Description,
		Date:            in.Date,
		Time:            in.Time,
		Department:      in.Department,
		Location:        in.Location,
		MaxParticipants: in.MaxParticipants,
		Image:           in.Image,
		CreatedBy:       by.Email,
		Participants:    []string{},
		CreatedAt:       &now,
		UpdatedAt:       &now,
	}
	s.events[e.ID] = e
	if err := s.saveLocked(); err != nil {
		delete(s.events, e.ID)
		s.nextEvent--
		return model.Event{}, err
	}
	return copyEvent(e), nil
}

// mutateEvent runs fn on the stored event under the write lock. fn's error
// aborts the change unless keep is set, in which case the event is still saved.
func (s *Store) mutateEvent(id int64, fn func(e *model.Event) (keep bool, err error)) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return model.Event{}, ErrEventNotFound
	}
	before := copyEvent(e)
	keep, err := fn(e)
	if err != nil && !keep {
		*e = before
		return model.Event{}, err
	}
	if serr := s.saveLocked(); serr != nil {
		*e = before
		return model.Event{}, serr
	}
	if err != nil {
		return model.Event{}, err
	}
	return copyEvent(e), nil
}

func (s *Store) UpdateEvent(id int64, in model.EventInput, by model.User) (model.Event, error) {
	return s.mutateEvent(id, func(e *model.Event) (bool, error) {
		if !canManage(e, by) {
			return false, ErrNotOwner
		}
		e.Title = in.Title
		e.Description = in.Description
		e.Date = in.Date
		e.Time = in.Time
		e.Department = in.Department
		e.Location = in.Location
		e.MaxParticipants = in.MaxParticipants
		e.Image = in.Image
		now := model.DateTime{Time: s.now()}
		e.UpdatedAt = &now
		return false, nil
	})
}

func (s *Store) DeleteEvent(id int64, by model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return ErrEventNotFound
	}
	if !canManage(e, by) {
		return ErrNotOwner
	}
	delete(s.events, id)
	if err := s.saveLocked(); err != nil {
		s.events[id] = e
		return err
	}
	return nil
}

// Register signs email up for the event. An event that has started gets its
// registration closed on the way out.
func (s *Store) Register(id int64, email string) (model.Event, error) {
	return s.mutateEvent(id, func(e *model.Event) (bool, error) {
		if s.started(e) {
			if !e.RegistrationClosed {
				e.RegistrationClosed = true
				return true, ErrStarted
			}
			return false, ErrStarted
		}
		if e.RegistrationClosed {
			return false, ErrClosed
		}
		if e.CurrentParticipants >= e.MaxParticipants {
			return false, ErrFull
		}
		if hasParticipant(e, email) {
			return false, ErrAlreadyRegistered
		}
		e.Participants = append(e.Participants, email)
		e.CurrentParticipants++
		return false, nil
	})
}

func (s *Store) Unregister(id int64, email string) (model.Event, error) {
	return s.mutateEvent(id, func(e *model.Event) (bool, error) {
		if !removeParticipant(e, email) {
			return false, ErrNotRegistered
		}
		e.CurrentParticipants = max(0, e.CurrentParticipants-1)
		return false, nil
	})
}

func (s *Store) SetRegistrationClosed(id int64, closed bool, by model.User) (model.Event, error) {
	return s.mutateEvent(id, func(e *model.Event) (bool, error) {
		if !canManage(e, by) {
			return false, ErrToggleNotOwner
		}
		if !closed && s.started(e) {
			return false, ErrCannotReopen
		}
		e.RegistrationClosed = closed
		return false, nil
	})
}
