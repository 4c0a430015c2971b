// Package reminder computes pending notification records for a date's
// activities. Planning is separated from delivery: the planner writes
// reminder rows, the push dispatcher fires them.
package reminder

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/brightday/internal/dateutil"
	"github.com/dukerupert/brightday/internal/model"
	"github.com/dukerupert/brightday/internal/store"
)

// Planner maintains the reminder chain for each activity. Invariant: an
// activity has at most one live chain at a time, and no pending reminder
// exists for an activity that is completed, untimed, or muted.
type Planner struct {
	reminders *store.ReminderStore
	loc       *time.Location
	logger    *slog.Logger
}

func NewPlanner(reminders *store.ReminderStore, loc *time.Location, logger *slog.Logger) *Planner {
	if loc == nil {
		loc = time.Local
	}
	return &Planner{reminders: reminders, loc: loc, logger: logger}
}

// Reschedule replaces the reminder chain for one activity: the prior
// chain is cancelled first (never two live chains), then one pending
// reminder is created per configured lead offset whose fire time is
// still in the future. Past offsets are silently skipped, not
// created-then-immediately-fired.
func (p *Planner) Reschedule(date dateutil.Date, activity model.Activity, settings model.NotificationSettings, now time.Time) error {
	if _, err := p.reminders.CancelPendingForActivity(activity.ID); err != nil {
		return err
	}

	if !settings.Enabled || !activity.Timed() || !activity.NotifyEnabled || activity.Completed {
		return nil
	}

	settings = settings.Normalize()
	for _, lead := range settings.LeadOffsets {
		fireAt, err := activity.FireTime(date, lead, p.loc)
		if err != nil {
			return fmt.Errorf("compute fire time: %w", err)
		}
		if !fireAt.After(now) {
			continue
		}

		r := &model.Reminder{
			ActivityID:          activity.ID,
			Date:                date,
			Label:               activity.Label,
			LeadMinutes:         lead,
			FireAt:              fireAt,
			RepeatUntilComplete: lead == 0 && settings.RepeatUntilComplete,
		}
		if _, err := p.reminders.Create(r); err != nil {
			return err
		}
	}
	return nil
}

// RescheduleAll rebuilds the chains for every activity on a date. Used
// after whole-schedule writes (sync pull, clone) where individual edits
// aren't known.
func (p *Planner) RescheduleAll(sched *model.Schedule, settings model.NotificationSettings, now time.Time) error {
	for _, activity := range sched.Activities {
		if err := p.Reschedule(sched.Date, activity, settings, now); err != nil {
			return err
		}
	}
	return nil
}

// OnCompleted retires the chain when the caregiver marks an activity
// done, including any queued repeat tail.
func (p *Planner) OnCompleted(activityID string) error {
	n, err := p.reminders.CancelPendingForActivity(activityID)
	if err != nil {
		return err
	}
	if n > 0 {
		p.logger.Debug("reminders retired on completion", "activity", activityID, "cancelled", n)
	}
	return nil
}

// OnActivityRemoved cancels the chain for a deleted activity.
func (p *Planner) OnActivityRemoved(activityID string) error {
	_, err := p.reminders.CancelPendingForActivity(activityID)
	return err
}

// OnScheduleDeleted cancels every chain for a date when the whole day is
// removed. Reorder-only edits never reach the planner.
func (p *Planner) OnScheduleDeleted(date dateutil.Date) error {
	n, err := p.reminders.CancelPendingForDate(date)
	if err != nil {
		return err
	}
	if n > 0 {
		p.logger.Debug("reminders cancelled with schedule", "date", date, "cancelled", n)
	}
	return nil
}
