package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventStart(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		clock  string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "date and time",
			date:   "2026-03-01",
			clock:  "14:30",
			want:   time.Date(2026, 3, 1, 14, 30, 0, 0, time.Local),
			wantOK: true,
		},
		{
			name:   "seconds are dropped",
			date:   "2026-03-01",
			clock:  "14:30:59",
			want:   time.Date(2026, 3, 1, 14, 30, 0, 0, time.Local),
			wantOK: true,
		},
		{
			name:   "missing time defaults to midnight",
			date:   "2026-03-01",
			want:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local),
			wantOK: true,
		},
		{
			name:   "malformed time defaults to midnight",
			date:   "2026-03-01",
			clock:  "noon",
			want:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local),
			wantOK: true,
		},
		{
			name:   "timestamp date keeps the date part",
			date:   "2026-03-01T08:00:00",
			clock:  "09:15",
			want:   time.Date(2026, 3, 1, 9, 15, 0, 0, time.Local),
			wantOK: true,
		},
		{
			name:  "unparseable date",
			date:  "next tuesday",
			clock: "10:00",
		},
		{
			name: "empty date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEventStart(tt.date, tt.clock)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
			}
		})
	}
}

func TestStatusAt(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name  string
		event Event
		want  EventStatus
	}{
		{"later today", Event{Date: "2026-10-15", Time: "12:01"}, StatusUpcoming},
		{"exactly now is completed", Event{Date: "2026-10-15", Time: "12:00"}, StatusCompleted},
		{"earlier today", Event{Date: "2026-10-15", Time: "09:00"}, StatusCompleted},
		{"tomorrow without time", Event{Date: "2026-10-16"}, StatusUpcoming},
		{"today without time already started", Event{Date: "2026-10-15"}, StatusCompleted},
		{"unparseable stays upcoming", Event{Date: "TBD"}, StatusUpcoming},
		{"missing date stays upcoming", Event{}, StatusUpcoming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusAt(tt.event, now))
		})
	}
}

func TestStatusMatchesStartComparison(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.Local)
	for h := 0; h < 24; h++ {
		for _, d := range []string{"2026-10-14", "2026-10-15", "2026-10-16"} {
			e := Event{Date: d, Time: time.Date(2000, 1, 1, h, 30, 0, 0, time.UTC).Format("15:04")}
			start, ok := ParseEventStart(e.Date, e.Time)
			require.True(t, ok)
			assert.Equal(t, now.Before(start), StatusAt(e, now) == StatusUpcoming, "%s %s", e.Date, e.Time)
		}
	}
}

func TestFullnessAndRate(t *testing.T) {
	full := Event{CurrentParticipants: 100, MaxParticipants: 100}
	assert.True(t, IsFull(full))
	assert.InDelta(t, 100.0, ParticipationRate(full), 0.001)

	over := Event{CurrentParticipants: 12, MaxParticipants: 10}
	assert.True(t, IsFull(over))
	assert.InDelta(t, 120.0, ParticipationRate(over), 0.001)
	assert.InDelta(t, 100.0, DisplayRate(ParticipationRate(over)), 0.001)
	assert.Equal(t, 12, over.CurrentParticipants)

	open := Event{CurrentParticipants: 3, MaxParticipants: 10}
	assert.False(t, IsFull(open))
	assert.InDelta(t, 30.0, ParticipationRate(open), 0.001)

	assert.Zero(t, ParticipationRate(Event{CurrentParticipants: 5}))
}

func TestParticipationTier(t *testing.T) {
	assert.Equal(t, TierHigh, ParticipationTier(81))
	assert.Equal(t, TierMedium, ParticipationTier(80))
	assert.Equal(t, TierMedium, ParticipationTier(61))
	assert.Equal(t, TierLow, ParticipationTier(60))
	assert.Equal(t, TierLow, ParticipationTier(0))
}

func TestSplitByStatusPreservesOrder(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.Local)
	events := []Event{
		{ID: 1, Date: "2026-11-01"},
		{ID: 2, Date: "2026-01-01"},
		{ID: 3, Date: "garbage"},
		{ID: 4, Date: "2025-05-05"},
	}
	up, done := SplitByStatus(events, now)
	require.Len(t, up, 2)
	require.Len(t, done, 2)
	assert.Equal(t, int64(1), up[0].ID)
	assert.Equal(t, int64(3), up[1].ID)
	assert.Equal(t, int64(2), done[0].ID)
	assert.Equal(t, int64(4), done[1].ID)
}
