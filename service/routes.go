package service

import (
	"context"
	"net/url"
	"strconv"
)

// Requester is the gateway as seen by the services.
type Requester interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
}

const (
	routeLogin               = "/auth/login"
	routeRegister            = "/auth/register"
	routeProfile             = "/auth/profile"
	routeChangePassword      = "/auth/change-password"
	routeStudentDetails      = "/auth/student-details"
	routeEventManagerDetails = "/auth/event-manager-details"

	routeEvents           = "/events"
	routeEventsUpcoming   = "/events/upcoming"
	routeEventsSearch     = "/events/search"
	routeEventsMine       = "/events/my-events"
	routeEventsRegistered = "/events/registered"

	routeUsers = "/users"
)

func eventPath(id int64, action ...string) string {
	p := routeEvents + "/" + strconv.FormatInt(id, 10)
	for _, a := range action {
		p += "/" + a
	}
	return p
}

func departmentPath(dept string) string {
	return routeEvents + "/department/" + url.PathEscape(dept)
}

func userPath(id int64) string {
	return routeUsers + "/" + strconv.FormatInt(id, 10)
}
