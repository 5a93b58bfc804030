package model

import (
	"strings"
	"time"
)

// EventStatus is derived on every render and never stored.
type EventStatus int

const (
	StatusUpcoming EventStatus = iota
	StatusCompleted
)

func (s EventStatus) String() string {
	if s == StatusCompleted {
		return "Completed"
	}
	return "Upcoming"
}

const defaultEventTime = "00:00"

// ParseEventStart combines an ISO calendar date and an HH:MM time into a local
// instant. A missing or malformed time falls back to midnight. The second
// result is false when the date itself cannot be read.
func ParseEventStart(date, clock string) (time.Time, bool) {
	date = strings.TrimSpace(date)
	if i := strings.IndexAny(date, "T "); i >= 0 {
		date = date[:i]
	}
	clock = normalizeClock(clock)
	t, err := time.ParseInLocation("2006-01-02T15:04", date+"T"+clock, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func normalizeClock(clock string) string {
	clock = strings.TrimSpace(clock)
	// accept HH:MM:SS from the server and keep minute precision
	if len(clock) == len("15:04:05") && clock[5] == ':' {
		clock = clock[:5]
	}
	if _, err := time.Parse("15:04", clock); err != nil {
		return defaultEventTime
	}
	return clock
}

// StatusAt classifies an event against now. An event whose start cannot be
// parsed stays Upcoming so it is shown rather than hidden.
func StatusAt(e Event, now time.Time) EventStatus {
	start, ok := ParseEventStart(e.Date, e.Time)
	if !ok || start.After(now) {
		return StatusUpcoming
	}
	return StatusCompleted
}

// IsFull reports whether the server-reported count has reached capacity.
func IsFull(e Event) bool {
	return e.CurrentParticipants >= e.MaxParticipants
}

// ParticipationRate is current/max as a percentage, unclamped.
func ParticipationRate(e Event) float64 {
	if e.MaxParticipants <= 0 {
		return 0
	}
	return float64(e.CurrentParticipants) / float64(e.MaxParticipants) * 100
}

// DisplayRate clamps a rate to [0,100] for progress bars.
func DisplayRate(rate float64) float64 {
	switch {
	case rate < 0:
		return 0
	case rate > 100:
		return 100
	}
	return rate
}

type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func ParticipationTier(rate float64) Tier {
	switch {
	case rate > 80:
		return TierHigh
	case rate > 60:
		return TierMedium
	}
	return TierLow
}

// SplitByStatus partitions events, preserving order within each side.
func SplitByStatus(events []Event, now time.Time) (upcoming, completed []Event) {
	for _, e := range events {
		if StatusAt(e, now) == StatusUpcoming {
			upcoming = append(upcoming, e)
		} else {
			completed = append(completed, e)
		}
	}
	return upcoming, completed
}
