package model

import (
	"time"

	"github.com/dukerupert/brightday/internal/dateutil"
)

// Schedule is one caregiver's planned activities for a single calendar
// date. Activity order is meaningful: display and notification sequencing
// both follow it.
type Schedule struct {
	Date       dateutil.Date `json:"date"`
	Name       string        `json:"name"`
	Activities []Activity    `json:"activities"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Activity is one task within a Schedule.
type Activity struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	// Time is the local time of day as "HH:MM"; nil means untimed,
	// which also means no reminder.
	Time          *string `json:"time"`
	Completed     bool    `json:"completed"`
	NotifyEnabled bool    `json:"notify_enabled"`
}

// Timed reports whether the activity has a time and should be considered
// for reminders.
func (a Activity) Timed() bool {
	return a.Time != nil && *a.Time != ""
}

// FireTime resolves the activity's time of day against the schedule date
// in the given location, minus leadMinutes.
func (a Activity) FireTime(date dateutil.Date, leadMinutes int, loc *time.Location) (time.Time, error) {
	hour, minute, err := dateutil.ParseClock(*a.Time)
	if err != nil {
		return time.Time{}, err
	}
	return date.At(hour, minute, loc).Add(-time.Duration(leadMinutes) * time.Minute), nil
}

// Activity lookup by ID; returns nil if absent.
func (s *Schedule) Activity(id string) *Activity {
	for i := range s.Activities {
		if s.Activities[i].ID == id {
			return &s.Activities[i]
		}
	}
	return nil
}

// Empty reports whether the schedule has no activities.
func (s *Schedule) Empty() bool {
	return len(s.Activities) == 0
}
