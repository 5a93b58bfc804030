package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Role is the platform role of a user, as the server spells it.
type Role string

const (
	RoleStudent      Role = "STUDENT"
	RoleEventManager Role = "EVENT_MANAGER"
	RoleAdmin        Role = "ADMIN"
)

// Roles lists every role in display order.
var Roles = []Role{RoleStudent, RoleEventManager, RoleAdmin}

// ParseRole accepts "student", "Event-Manager", "EVENT_MANAGER" and the like.
func ParseRole(s string) (Role, bool) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	norm = strings.ReplaceAll(norm, " ", "_")
	for _, r := range Roles {
		if string(r) == norm {
			return r, true
		}
	}
	return "", false
}

// Label is the human form of the role.
func (r Role) Label() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleEventManager:
		return "Event Manager"
	case RoleAdmin:
		return "Admin"
	}
	return string(r)
}

// User is the profile the server returns for an account.
type User struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	Department  string `json:"department,omitempty"`
	Active      *bool  `json:"active,omitempty"`
	RollNumber  string `json:"rollNumber,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Year        string `json:"year,omitempty"`
	CollegeName string `json:"collegeName,omitempty"`
	Designation string `json:"designation,omitempty"`
}

// IsActive treats a missing flag as active, which is what the server assumes.
func (u User) IsActive() bool {
	return u.Active == nil || *u.Active
}

// Event is the server's event record.
type Event struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Date                string    `json:"date"`
	Time                string    `json:"time,omitempty"`
	Department          string    `json:"department"`
	Location            string    `json:"location"`
	MaxParticipants     int       `json:"maxParticipants"`
	CurrentParticipants int       `json:"currentParticipants"`
	Image               string    `json:"image,omitempty"`
	RegistrationClosed  bool      `json:"registrationClosed"`
	CreatedBy           string    `json:"createdBy,omitempty"`
	Participants        []string  `json:"participants,omitempty"`
	CreatedAt           *DateTime `json:"createdAt,omitempty"`
	UpdatedAt           *DateTime `json:"updatedAt,omitempty"`
}

// DateTime decodes the server's zone-less local timestamps.
type DateTime struct {
	time.Time
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			d.Time = t
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.Format("2006-01-02T15:04:05"))
}

// StudentDetails is the student-only detail record.
type StudentDetails struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
	RollNumber  string `json:"rollNumber"`
	Department  string `json:"department"`
	PhoneNumber string `json:"phoneNumber"`
	Year        string `json:"year"`
	CollegeName string `json:"collegeName"`
}

// EventManagerDetails is the event-manager-only detail record.
type EventManagerDetails struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
	Designation string `json:"designation"`
	PhoneNumber string `json:"phoneNumber"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	User  Record[User] `json:"user"`
	Token string       `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Department  string `json:"department,omitempty"`
	Designation string `json:"designation,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Role        Role   `json:"role"`
}

type ProfileUpdate struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// EventInput is the body of create and update calls.
type EventInput struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Department      string `json:"department"`
	Location        string `json:"location"`
	MaxParticipants int    `json:"maxParticipants"`
	Image           string `json:"image,omitempty"`
}

// InputFrom copies the editable fields of an event.
func InputFrom(e Event) EventInput {
	return EventInput{
		Title:           e.Title,
		Description:     e.Description,
		Date:            e.Date,
		Time:            e.Time,
		Department:      e.Department,
		Location:        e.Location,
		MaxParticipants: e.MaxParticipants,
		Image:           e.Image,
	}
}

// UserUpdate is the admin's partial update of another account.
type UserUpdate struct {
	Role   Role  `json:"role,omitempty"`
	Active *bool `json:"active,omitempty"`
}

// Record keeps a decoded value next to the JSON object it was decoded from.
type Record[T any] struct {
	Value T
	Raw   json.RawMessage
}

func (r *Record[T]) UnmarshalJSON(b []byte) error {
	r.Raw = append(json.RawMessage(nil), b...)
	return json.Unmarshal(b, &r.Value)
}

func (r Record[T]) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(r.Value)
}
