package devapi

import (
	"errors"
	"net/http"
)

// apiError is a domain failure with the status and plain-text body the
// backend answers with.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string {
	return e.msg
}

var (
	ErrInvalidCredentials = &apiError{http.StatusBadRequest, "Invalid email or password"}
	ErrDeactivated        = &apiError{http.StatusForbidden, "Account is deactivated. Please contact admin."}
	ErrRoleMismatch       = &apiError{http.StatusBadRequest, "Invalid role for this user"}
	ErrEmailExists        = &apiError{http.StatusBadRequest, "Email already exists"}
	ErrWrongPassword      = &apiError{http.StatusBadRequest, "Current password is incorrect"}
	ErrStudentsOnly       = &apiError{http.StatusBadRequest, "This endpoint is only for students"}
	ErrManagersOnly       = &apiError{http.StatusBadRequest, "Access denied. Only event managers can access event manager details."}
	ErrUserNotFound       = &apiError{http.StatusNotFound, "User not found"}
	ErrEventNotFound      = &apiError{http.StatusNotFound, "Event not found"}
	ErrNotOwner           = &apiError{http.StatusForbidden, "You are not authorized to modify this event"}
	ErrToggleNotOwner     = &apiError{http.StatusForbidden, "Only the event creator or an admin can modify registration state for this event"}
	ErrStarted            = &apiError{http.StatusBadRequest, "Registration is closed as the event has already started"}
	ErrClosed             = &apiError{http.StatusBadRequest, "Registration is closed for this event"}
	ErrFull               = &apiError{http.StatusBadRequest, "Event is full"}
	ErrAlreadyRegistered  = &apiError{http.StatusBadRequest, "User is already registered for this event"}
	ErrNotRegistered      = &apiError{http.StatusBadRequest, "User is not registered for this event"}
	ErrCannotReopen       = &apiError{http.StatusBadRequest, "Cannot reopen registration. The event has already started"}
	ErrForbidden          = &apiError{http.StatusForbidden, "Access denied"}
	ErrUnauthorized       = &apiError{http.StatusUnauthorized, "Unauthorized"}
)

func statusOf(err error) (int, string) {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status, ae.msg
	}
	return http.StatusInternalServerError, "Internal server error"
}
