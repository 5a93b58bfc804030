package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/puyokura/eventdesk/gateway"
)

// ErrUnauthorized matches any *Error produced from a 401 response.
var ErrUnauthorized = errors.New("service: unauthorized")

// Error is what every service method returns on failure. Message is always
// fit to show to the user.
type Error struct {
	Op      string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

func wrap(op, fallback string, err error) error {
	if err == nil {
		return nil
	}
	e := &Error{Op: op, Message: fallback, Err: err}
	if serr, ok := gateway.AsStatus(err); ok {
		e.Status = serr.Status
		if msg := bodyMessage(serr.Body); msg != "" {
			e.Message = msg
		}
	}
	return e
}

// bodyMessage pulls a human message out of an error body. The backend sends
// bare strings; JSON strings and {"message"} / {"error"} objects are accepted too.
// Anything else is shown as sent.
func bodyMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	switch body[0] {
	case '"':
		var s string
		if json.Unmarshal(body, &s) == nil {
			return strings.TrimSpace(s)
		}
	case '{':
		var obj struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(body, &obj) == nil {
			if msg := strings.TrimSpace(obj.Message); msg != "" {
				return msg
			}
			if msg := strings.TrimSpace(obj.Error); msg != "" {
				return msg
			}
		}
	}
	return string(body)
}

// Message returns the user-facing text of err, or fallback if err did not
// come from a service call.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
