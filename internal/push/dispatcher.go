package push

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/brightday/internal/model"
	"github.com/dukerupert/brightday/internal/store"
)

const (
	dispatchInterval = 30 * time.Second
	retiredRetention = 30 * 24 * time.Hour
)

// Dispatcher periodically fires due reminders: it delivers the push
// notification, retires the record, and queues the next repeat-until-
// complete tail occurrence when the activity is still open.
type Dispatcher struct {
	mu        sync.RWMutex
	service   *Service
	reminders *store.ReminderStore
	schedules *store.ScheduleStore
	settings  *store.SettingsStore
	logger    *slog.Logger
	onFired   func(model.Reminder)
	interval  time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewDispatcher creates a reminder dispatcher. onFired, if non-nil, is
// invoked after each delivered reminder (drives the websocket broadcast).
func NewDispatcher(svc *Service, reminders *store.ReminderStore, schedules *store.ScheduleStore, settings *store.SettingsStore, logger *slog.Logger, onFired func(model.Reminder)) *Dispatcher {
	return &Dispatcher{
		service:   svc,
		reminders: reminders,
		schedules: schedules,
		settings:  settings,
		logger:    logger,
		onFired:   onFired,
		interval:  dispatchInterval,
	}
}

// Start begins the dispatch loop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	d.mu.Unlock()

	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.Tick(time.Now())
			}
		}
	}()
}

// Stop gracefully stops the dispatch loop.
func (d *Dispatcher) Stop() {
	d.mu.RLock()
	cancel := d.cancel
	done := d.done
	d.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Tick processes every reminder due at now. Exported so tests can drive
// the loop with a synthetic clock.
func (d *Dispatcher) Tick(now time.Time) {
	due, err := d.reminders.ListDue(now)
	if err != nil {
		d.logger.Error("dispatch: list due", "error", err)
		return
	}

	if len(due) > 0 {
		settings, err := d.settings.NotificationSettings()
		if err != nil {
			d.logger.Error("dispatch: load settings", "error", err)
			return
		}
		for _, r := range due {
			d.fire(r, settings, now)
		}
	}

	// Hourly housekeeping for retired rows.
	if now.Minute() == 0 {
		if err := d.reminders.DeleteRetired(now.Add(-retiredRetention)); err != nil {
			d.logger.Error("dispatch: prune retired", "error", err)
		}
	}
}

// fire delivers one due reminder. A reminder whose activity has been
// completed, deleted, or muted since scheduling is cancelled instead of
// delivered: a reminder must never fire for a task already done.
func (d *Dispatcher) fire(r model.Reminder, settings model.NotificationSettings, now time.Time) {
	activity := d.lookupActivity(r)
	if activity == nil || activity.Completed || !activity.NotifyEnabled || !activity.Timed() {
		if _, err := d.reminders.CancelPendingForActivity(r.ActivityID); err != nil {
			d.logger.Error("dispatch: cancel stale chain", "activity", r.ActivityID, "error", err)
		}
		return
	}

	sub, err := d.settings.DeviceSubscription()
	if err != nil {
		d.logger.Error("dispatch: load subscription", "error", err)
		return
	}
	if sub == nil {
		// No live subscription; leave the reminder pending so it
		// delivers once the device subscribes.
		return
	}

	if err := d.service.Send(sub, d.payload(r, activity)); err != nil {
		if errors.Is(err, ErrExpired) {
			d.logger.Warn("dispatch: subscription expired, clearing", "endpoint", sub.Endpoint)
			if err := d.settings.SetDeviceSubscription(nil); err != nil {
				d.logger.Error("dispatch: clear subscription", "error", err)
			}
		} else {
			d.logger.Warn("dispatch: send", "reminder", r.ID, "error", err)
		}
		return
	}

	if err := d.reminders.MarkFired(r.ID); err != nil {
		d.logger.Error("dispatch: mark fired", "reminder", r.ID, "error", err)
		return
	}

	if d.onFired != nil {
		d.onFired(r)
	}

	d.queueTail(r, settings, now)
}

// queueTail enqueues the next repeat-until-complete occurrence for a
// fired zero-offset reminder, up to the configured cap.
func (d *Dispatcher) queueTail(r model.Reminder, settings model.NotificationSettings, now time.Time) {
	if !r.RepeatUntilComplete || r.LeadMinutes != 0 {
		return
	}
	if r.RepeatCount >= settings.MaxRepeats {
		d.logger.Info("dispatch: repeat cap reached", "activity", r.ActivityID, "repeats", r.RepeatCount)
		return
	}

	next := r
	next.RepeatCount++
	next.FireAt = r.FireAt.Add(time.Duration(settings.RepeatIntervalMinutes) * time.Minute)
	// If delivery ran late, keep the tail in the future rather than
	// firing a burst of catch-up reminders.
	for !next.FireAt.After(now) {
		next.FireAt = next.FireAt.Add(time.Duration(settings.RepeatIntervalMinutes) * time.Minute)
	}

	if _, err := d.reminders.Create(&next); err != nil {
		d.logger.Error("dispatch: queue repeat", "activity", r.ActivityID, "error", err)
	}
}

func (d *Dispatcher) lookupActivity(r model.Reminder) *model.Activity {
	sched, err := d.schedules.Get(r.Date)
	if err != nil {
		d.logger.Error("dispatch: load schedule", "date", r.Date, "error", err)
		return nil
	}
	if sched == nil {
		return nil
	}
	return sched.Activity(r.ActivityID)
}

func (d *Dispatcher) payload(r model.Reminder, activity *model.Activity) Payload {
	p := Payload{
		Title: "Activity Reminder",
		Body:  activity.Label,
		URL:   "/schedule/" + r.Date.String(),
		Tag:   "reminder-" + r.ActivityID,
	}
	switch {
	case r.RepeatCount > 0:
		p.Title = "Still to do"
	case r.LeadMinutes > 0:
		p.Body = activity.Label + " starts soon"
	}
	return p
}
