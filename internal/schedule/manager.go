// Package schedule is the facade the builder UI talks to: every
// caregiver mutation lands here, is written locally first, then pushed
// to the remote store best-effort and reflected in the reminder chains.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/brightday/internal/dateutil"
	"github.com/dukerupert/brightday/internal/model"
	"github.com/dukerupert/brightday/internal/reminder"
	"github.com/dukerupert/brightday/internal/store"
	syncengine "github.com/dukerupert/brightday/internal/sync"
)

// Manager coordinates the local store, the sync engine, and the reminder
// planner for schedule mutations.
type Manager struct {
	schedules *store.ScheduleStore
	settings  *store.SettingsStore
	planner   *reminder.Planner
	engine    *syncengine.Engine
	logger    *slog.Logger
}

func NewManager(schedules *store.ScheduleStore, settings *store.SettingsStore, planner *reminder.Planner, engine *syncengine.Engine, logger *slog.Logger) *Manager {
	return &Manager{
		schedules: schedules,
		settings:  settings,
		planner:   planner,
		engine:    engine,
		logger:    logger,
	}
}

// GetScheduleForDate returns the local record for a date, or nil. The
// local store is always safe to read immediately after a write.
func (m *Manager) GetScheduleForDate(date dateutil.Date) (*model.Schedule, error) {
	return m.schedules.Get(date)
}

// ListDatesWithSchedules returns the month's dates that have activities.
func (m *Manager) ListDatesWithSchedules(year int, month time.Month) ([]dateutil.Date, error) {
	return m.schedules.ListDatesWithSchedules(year, month)
}

// SaveScheduleToDate persists a caregiver edit. The local write is
// synchronous and authoritative; a local failure surfaces to the caller.
// The remote write is best-effort and reported through the returned sync
// status. Reminder chains are rebuilt only for activities whose
// reminder-relevant fields changed, so a pure reorder leaves them alone.
func (m *Manager) SaveScheduleToDate(ctx context.Context, userID string, sched *model.Schedule) (syncengine.Status, error) {
	now := time.Now().UTC()

	prev, err := m.schedules.Get(sched.Date)
	if err != nil {
		return syncengine.StatusError, err
	}

	for i := range sched.Activities {
		if sched.Activities[i].ID == "" {
			sched.Activities[i].ID = uuid.NewString()
		}
	}

	sched.UpdatedAt = now
	if err := m.schedules.Put(sched); err != nil {
		return syncengine.StatusError, err
	}

	if err := m.reconcileReminders(prev, sched, now); err != nil {
		// The schedule itself saved; a reminder bookkeeping failure
		// is logged, not surfaced as a lost edit.
		m.logger.Error("save: reconcile reminders", "date", sched.Date, "error", err)
	}

	return m.engine.PushWrite(ctx, userID, sched.Date), nil
}

// DeleteSchedule removes a whole day: every reminder for the date is
// cancelled, the local record deleted, and the delete propagated
// best-effort.
func (m *Manager) DeleteSchedule(ctx context.Context, userID string, date dateutil.Date) (syncengine.Status, error) {
	if err := m.planner.OnScheduleDeleted(date); err != nil {
		return syncengine.StatusError, err
	}
	if err := m.schedules.Delete(date); err != nil {
		return syncengine.StatusError, err
	}
	return m.engine.PushWrite(ctx, userID, date), nil
}

// SetActivityCompleted flips an activity's completed flag. Marking
// complete retires the activity's reminder chain; unmarking reschedules
// any still-future reminders.
func (m *Manager) SetActivityCompleted(ctx context.Context, userID string, date dateutil.Date, activityID string, completed bool) (syncengine.Status, error) {
	sched, err := m.schedules.Get(date)
	if err != nil {
		return syncengine.StatusError, err
	}
	if sched == nil {
		return syncengine.StatusError, fmt.Errorf("no schedule for %s", date)
	}

	activity := sched.Activity(activityID)
	if activity == nil {
		return syncengine.StatusError, fmt.Errorf("activity %s not found on %s", activityID, date)
	}
	activity.Completed = completed

	return m.SaveScheduleToDate(ctx, userID, sched)
}

// RecomputeReminders rebuilds every chain for a date after a sync pull
// or clone wrote the local record outside the edit path.
func (m *Manager) RecomputeReminders(date dateutil.Date) {
	sched, err := m.schedules.Get(date)
	if err != nil {
		m.logger.Error("recompute reminders: load schedule", "date", date, "error", err)
		return
	}
	if sched == nil {
		if err := m.planner.OnScheduleDeleted(date); err != nil {
			m.logger.Error("recompute reminders: cancel date", "date", date, "error", err)
		}
		return
	}

	settings, err := m.settings.NotificationSettings()
	if err != nil {
		m.logger.Error("recompute reminders: load settings", "error", err)
		return
	}
	if err := m.planner.RescheduleAll(sched, settings, time.Now().UTC()); err != nil {
		m.logger.Error("recompute reminders: reschedule", "date", date, "error", err)
	}
}

// reconcileReminders diffs the previous and new record and touches only
// the chains that need it.
func (m *Manager) reconcileReminders(prev, next *model.Schedule, now time.Time) error {
	settings, err := m.settings.NotificationSettings()
	if err != nil {
		return err
	}

	prevByID := map[string]model.Activity{}
	if prev != nil {
		for _, a := range prev.Activities {
			prevByID[a.ID] = a
		}
	}

	for _, a := range next.Activities {
		before, existed := prevByID[a.ID]
		delete(prevByID, a.ID)

		if existed && !reminderFieldsChanged(before, a) {
			continue
		}
		if a.Completed && (!existed || !before.Completed) {
			if err := m.planner.OnCompleted(a.ID); err != nil {
				return err
			}
			continue
		}
		if err := m.planner.Reschedule(next.Date, a, settings, now); err != nil {
			return err
		}
	}

	// Whatever is left was removed from the day.
	for id := range prevByID {
		if err := m.planner.OnActivityRemoved(id); err != nil {
			return err
		}
	}
	return nil
}

// reminderFieldsChanged reports whether an edit affects the activity's
// reminder chain. Label changes matter (the label rides in the payload);
// icon/color/order changes do not.
func reminderFieldsChanged(before, after model.Activity) bool {
	beforeTime, afterTime := "", ""
	if before.Time != nil {
		beforeTime = *before.Time
	}
	if after.Time != nil {
		afterTime = *after.Time
	}
	return beforeTime != afterTime ||
		before.NotifyEnabled != after.NotifyEnabled ||
		before.Completed != after.Completed ||
		before.Label != after.Label
}
