package service

import (
	"context"
	"net/http"
	"net/url"

	"github.com/puyokura/eventdesk/model"
)

type EventService struct {
	r Requester
}

func NewEventService(r Requester) *EventService {
	return &EventService{r: r}
}

func (s *EventService) list(ctx context.Context, op, path string, q url.Values, fallback string) ([]model.Event, error) {
	var events []model.Event
	if err := s.r.Do(ctx, http.MethodGet, path, q, nil, &events); err != nil {
		return nil, wrap(op, fallback, err)
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

func (s *EventService) one(ctx context.Context, op, method, path string, body any, fallback string) (model.Event, error) {
	var e model.Event
	err := s.r.Do(ctx, method, path, nil, body, &e)
	return e, wrap(op, fallback, err)
}

func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	return s.list(ctx, "events.List", routeEvents, nil, "Failed to fetch events")
}

func (s *EventService) Get(ctx context.Context, id int64) (model.Event, error) {
	return s.one(ctx, "events.Get", http.MethodGet, eventPath(id), nil, "Failed to fetch event")
}

// Register signs the caller up. The response body is not relied on.
func (s *EventService) Register(ctx context.Context, id int64) error {
	err := s.r.Do(ctx, http.MethodPost, eventPath(id, "register"), nil, nil, nil)
	return wrap("events.Register", "Failed to register for event. Please try again.", err)
}

func (s *EventService) Unregister(ctx context.Context, id int64) error {
	err := s.r.Do(ctx, http.MethodPost, eventPath(id, "unregister"), nil, nil, nil)
	return wrap("events.Unregister", "Failed to unregister from event. Please try again.", err)
}

func (s *EventService) OpenRegistration(ctx context.Context, id int64) (model.Event, error) {
	return s.one(ctx, "events.OpenRegistration", http.MethodPost, eventPath(id, "open-registration"), nil, "Failed to open registration")
}

func (s *EventService) CloseRegistration(ctx context.Context, id int64) (model.Event, error) {
	return s.one(ctx, "events.CloseRegistration", http.MethodPost, eventPath(id, "close-registration"), nil, "Failed to close registration")
}

func (s *EventService) Create(ctx context.Context, in model.EventInput) (model.Event, error) {
	return s.one(ctx, "events.Create", http.MethodPost, routeEvents, in, "Failed to create event")
}

func (s *EventService) Update(ctx context.Context, id int64, in model.EventInput) (model.Event, error) {
	return s.one(ctx, "events.Update", http.MethodPut, eventPath(id), in, "Failed to update event")
}

func (s *EventService) Delete(ctx context.Context, id int64) error {
	err := s.r.Do(ctx, http.MethodDelete, eventPath(id), nil, nil, nil)
	return wrap("events.Delete", "Failed to delete event", err)
}

func (s *EventService) ByDepartment(ctx context.Context, dept string) ([]model.Event, error) {
	return s.list(ctx, "events.ByDepartment", departmentPath(dept), nil, "Failed to fetch events")
}

func (s *EventService) Upcoming(ctx context.Context) ([]model.Event, error) {
	return s.list(ctx, "events.Upcoming", routeEventsUpcoming, nil, "Failed to fetch upcoming events")
}

func (s *EventService) Search(ctx context.Context, q string) ([]model.Event, error) {
	return s.list(ctx, "events.Search", routeEventsSearch, url.Values{"q": {q}}, "Failed to search events")
}

// Mine lists events created by the caller.
func (s *EventService) Mine(ctx context.Context) ([]model.Event, error) {
	return s.list(ctx, "events.Mine", routeEventsMine, nil, "Failed to fetch your events")
}

// Registered lists events the caller is registered for.
func (s *EventService) Registered(ctx context.Context) ([]model.Event, error) {
	return s.list(ctx, "events.Registered", routeEventsRegistered, nil, "Failed to fetch registered events")
}
