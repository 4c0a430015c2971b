package model

import (
	"time"

	"github.com/dukerupert/brightday/internal/dateutil"
)

// Reminder status values.
const (
	ReminderPending   = "pending"
	ReminderFired     = "fired"
	ReminderCancelled = "cancelled"
)

// Reminder is one pending notification for an activity: one row per
// (activity, lead-time offset, occurrence). Repeat-until-complete tails
// are additional occurrences of the zero-offset reminder, numbered by
// RepeatCount.
type Reminder struct {
	ID          int64         `json:"id"`
	ActivityID  string        `json:"activity_id"`
	Date        dateutil.Date `json:"date"`
	Label       string        `json:"label"`
	LeadMinutes int           `json:"lead_minutes"`
	FireAt      time.Time     `json:"fire_at"`
	Status      string        `json:"status"`
	// RepeatUntilComplete marks the zero-offset reminder as re-firing
	// at an interval until the activity is completed.
	RepeatUntilComplete bool `json:"repeat_until_complete"`
	// RepeatCount is 0 for the initial occurrence and increments for
	// each queued tail occurrence.
	RepeatCount int       `json:"repeat_count"`
	CreatedAt   time.Time `json:"created_at"`
}
