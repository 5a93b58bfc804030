package view

import (
	"time"

	"github.com/puyokura/eventdesk/model"
)

type Stats struct {
	TotalEvents        int
	TotalRegistrations int
	Upcoming           int
	Completed          int
}

// ComputeStats derives the admin summary from the status rules rather than
// the calendar date alone, so it agrees with the event lists.
func ComputeStats(events []model.Event, now time.Time) Stats {
	s := Stats{TotalEvents: len(events)}
	for _, e := range events {
		s.TotalRegistrations += e.CurrentParticipants
		if model.StatusAt(e, now) == model.StatusUpcoming {
			s.Upcoming++
		} else {
			s.Completed++
		}
	}
	return s
}
