package view

import (
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/puyokura/eventdesk/model"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	whitespace   = regexp.MustCompile(`\s`)
)

// Field errors are keyed by the form field name, e.g. "email".
func fieldErrors(err error) validation.Errors {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		return errs
	}
	return validation.Errors{"form": err}
}

func emailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Email is required"),
		validation.Match(emailPattern).Error("Please enter a valid email address"),
	}
}

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Password is required"),
		validation.Length(6, 0).Error("Password must be at least 6 characters long"),
	}
}

func equals(other, msg string) validation.Rule {
	return validation.By(func(v interface{}) error {
		s, _ := v.(string)
		if s != "" && s != other {
			return errors.New(msg)
		}
		return nil
	})
}

type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func ValidateLogin(email, password string) validation.Errors {
	f := LoginForm{Email: strings.TrimSpace(email), Password: password}
	return fieldErrors(validation.ValidateStruct(&f,
		validation.Field(&f.Email, emailRules()...),
		validation.Field(&f.Password, passwordRules()...),
	))
}

type RegisterForm struct {
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	ConfirmPassword string     `json:"confirmPassword"`
	Department      string     `json:"department"`
	Designation     string     `json:"designation"`
	PhoneNumber     string     `json:"phoneNumber"`
	Role            model.Role `json:"role"`
}

// Request converts the form into the register call body. The phone number
// is sent without whitespace.
func (f RegisterForm) Request() model.RegisterRequest {
	req := model.RegisterRequest{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
		Role:     f.Role,
	}
	switch f.Role {
	case model.RoleStudent, "":
		req.Department = strings.TrimSpace(f.Department)
	case model.RoleEventManager:
		req.Designation = strings.TrimSpace(f.Designation)
		req.PhoneNumber = whitespace.ReplaceAllString(f.PhoneNumber, "")
	}
	return req
}

func ValidateRegister(in RegisterForm) validation.Errors {
	f := RegisterForm{
		Name:            strings.TrimSpace(in.Name),
		Email:           strings.TrimSpace(in.Email),
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
		Department:      strings.TrimSpace(in.Department),
		Designation:     strings.TrimSpace(in.Designation),
		PhoneNumber:     whitespace.ReplaceAllString(in.PhoneNumber, ""),
		Role:            in.Role,
	}

	var deptRules, designationRules, phoneRules []validation.Rule
	switch f.Role {
	case model.RoleStudent, "":
		deptRules = []validation.Rule{validation.Required.Error("Please select a department")}
	case model.RoleEventManager:
		designationRules = []validation.Rule{validation.Required.Error("Please select a designation")}
		phoneRules = []validation.Rule{
			validation.Required.Error("Phone number is required"),
			validation.Match(phonePattern).Error("Please enter a valid phone number"),
		}
	}

	return fieldErrors(validation.ValidateStruct(&f,
		validation.Field(&f.Name,
			validation.Required.Error("Name is required"),
			validation.Length(2, 0).Error("Name must be at least 2 characters long"),
		),
		validation.Field(&f.Email, emailRules()...),
		validation.Field(&f.Password, passwordRules()...),
		validation.Field(&f.ConfirmPassword,
			validation.Required.Error("Please confirm your password"),
			equals(f.Password, "Passwords do not match"),
		),
		validation.Field(&f.Department, deptRules...),
		validation.Field(&f.Designation, designationRules...),
		validation.Field(&f.PhoneNumber, phoneRules...),
	))
}

func parses(layouts []string, msg string) validation.Rule {
	return validation.By(func(v interface{}) error {
		s, _ := v.(string)
		if s == "" {
			return nil
		}
		for _, l := range layouts {
			if _, err := time.Parse(l, s); err == nil {
				return nil
			}
		}
		return errors.New(msg)
	})
}

type eventForm struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Department      string `json:"department"`
	Location        string `json:"location"`
	MaxParticipants int    `json:"maxParticipants"`
}

func ValidateEvent(in model.EventInput) validation.Errors {
	f := eventForm{
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		Date:            strings.TrimSpace(in.Date),
		Time:            strings.TrimSpace(in.Time),
		Department:      strings.TrimSpace(in.Department),
		Location:        strings.TrimSpace(in.Location),
		MaxParticipants: in.MaxParticipants,
	}
	return fieldErrors(validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required.Error("Event title is required")),
		validation.Field(&f.Description, validation.Required.Error("Event description is required")),
		validation.Field(&f.Date,
			validation.Required.Error("Event date is required"),
			parses([]string{time.DateOnly}, "Event date must be YYYY-MM-DD"),
		),
		validation.Field(&f.Time,
			validation.Required.Error("Event time is required"),
			parses([]string{"15:04", "15:04:05"}, "Event time must be HH:MM"),
		),
		validation.Field(&f.Department, validation.Required.Error("Department is required")),
		validation.Field(&f.Location, validation.Required.Error("Event location is required")),
		validation.Field(&f.MaxParticipants,
			validation.Required.Error("Maximum participants must be at least 1"),
			validation.Min(1).Error("Maximum participants must be at least 1"),
		),
	))
}

type passwordForm struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func ValidateChangePassword(current, next, confirm string) validation.Errors {
	f := passwordForm{CurrentPassword: current, NewPassword: next, ConfirmPassword: confirm}
	return fieldErrors(validation.ValidateStruct(&f,
		validation.Field(&f.CurrentPassword, validation.Required.Error("Current password is required")),
		validation.Field(&f.NewPassword,
			validation.Required.Error("New password is required"),
			validation.Length(6, 0).Error("Password must be at least 6 characters long"),
		),
		validation.Field(&f.ConfirmPassword,
			validation.Required.Error("Please confirm your new password"),
			equals(next, "Passwords do not match"),
		),
	))
}

type profileForm struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func ValidateProfile(name, email string) validation.Errors {
	f := profileForm{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	return fieldErrors(validation.ValidateStruct(&f,
		validation.Field(&f.Name,
			validation.Required.Error("Name is required"),
			validation.Length(2, 0).Error("Name must be at least 2 characters long"),
		),
		validation.Field(&f.Email, emailRules()...),
	))
}
