package reminder

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/brightday/internal/database"
	"github.com/dukerupert/brightday/internal/dateutil"
	"github.com/dukerupert/brightday/internal/model"
	"github.com/dukerupert/brightday/internal/store"
)

func setupPlanner(t *testing.T) (*Planner, *store.ReminderStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	reminders := store.NewReminderStore(db)
	return NewPlanner(reminders, time.UTC, slog.Default()), reminders
}

func timedActivity(id, at string) model.Activity {
	return model.Activity{ID: id, Label: "Breakfast", Time: &at, NotifyEnabled: true}
}

func settingsWith(offsets ...int) model.NotificationSettings {
	s := model.DefaultNotificationSettings()
	s.LeadOffsets = offsets
	return s
}

func TestRescheduleCreatesChainPerOffset(t *testing.T) {
	p, reminders := setupPlanner(t)
	date := dateutil.NewDate(2024, time.June, 3)
	now := time.Date(2024, time.June, 3, 6, 0, 0, 0, time.UTC)

	if err := p.Reschedule(date, timedActivity("a1", "08:00"), settingsWith(0, 5), now); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	chain, err := reminders.ListPendingByActivity("a1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(chain) != 2 {
		t.Fatalf("chain = %d reminders, want 2", len(chain))
	}
	// Ordered by fire time: the 5-minute heads-up comes first.
	if chain[0].LeadMinutes != 5 || chain[1].LeadMinutes != 0 {
		t.Errorf("lead minutes = %d, %d; want 5, 0", chain[0].LeadMinutes, chain[1].LeadMinutes)
	}
	if want := time.Date(2024, time.June, 3, 7, 55, 0, 0, time.UTC); !chain[0].FireAt.Equal(want) {
		t.Errorf("heads-up fire_at = %v, want %v", chain[0].FireAt, want)
	}
	if want := time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC); !chain[1].FireAt.Equal(want) {
		t.Errorf("at-time fire_at = %v, want %v", chain[1].FireAt, want)
	}
	// Only the zero-offset reminder repeats until completion.
	if chain[0].RepeatUntilComplete || !chain[1].RepeatUntilComplete {
		t.Errorf("repeat flags = %v, %v; want false, true", chain[0].RepeatUntilComplete, chain[1].RepeatUntilComplete)
	}
}

func TestRescheduleReplacesOldChain(t *testing.T) {
	p, reminders := setupPlanner(t)
	date := dateutil.NewDate(2024, time.June, 3)
	now := time.Date(2024, time.June, 3, 6, 0, 0, 0, time.UTC)

	// Activity moves from 08:00 to 08:30: the old chain must vanish.
	if err := p.Reschedule(date, timedActivity("a1", "08:00"), settingsWith(0), now); err != nil {
		t.Fatalf("first reschedule: %v", err)
	}
	if err := p.Reschedule(date, timedActivity("a1", "08:30"), settingsWith(0), now); err != nil {
		t.Fatalf("second reschedule: %v", err)
	}

	chain, _ := reminders.ListPendingByActivity("a1")
	if len(chain) != 1 {
		t.Fatalf("chain = %d reminders, want 1", len(chain))
	}
	if want := time.Date(2024, time.June, 3, 8, 30, 0, 0, time.UTC); !chain[0].FireAt.Equal(want) {
		t.Errorf("fire_at = %v, want %v (old 08:00 chain must not survive)", chain[0].FireAt, want)
	}
}

func TestRescheduleSkipsPastOffsets(t *testing.T) {
	p, reminders := setupPlanner(t)
	date := dateutil.NewDate(2024, time.June, 3)
	// 07:58: the 5-minute heads-up for 08:00 is already past.
	now := time.Date(2024, time.June, 3, 7, 58, 0, 0, time.UTC)

	if err := p.Reschedule(date, timedActivity("a1", "08:00"), settingsWith(0, 5), now); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	chain, _ := reminders.ListPendingByActivity("a1")
	if len(chain) != 1 {
		t.Fatalf("chain = %d, want only the future at-time reminder", len(chain))
	}
	if chain[0].LeadMinutes != 0 {
		t.Errorf("surviving reminder lead = %d, want 0", chain[0].LeadMinutes)
	}
}

func TestRescheduleSkipsIneligibleActivities(t *testing.T) {
	p, reminders := setupPlanner(t)
	date := dateutil.NewDate(2024, time.June, 3)
	now := time.Date(2024, time.June, 3, 6, 0, 0, 0, time.UTC)

	completed := timedActivity("a1", "08:00")
	completed.Completed = true
	muted := timedActivity("a2", "08:00")
	muted.NotifyEnabled = false
	untimed := model.Activity{ID: "a3", Label: "Rest", NotifyEnabled: true}

	for _, a := range []model.Activity{completed, muted, untimed} {
		if err := p.Reschedule(date, a, settingsWith(0), now); err != nil {
			t.Fatalf("reschedule %s: %v", a.ID, err)
		}
		chain, _ := reminders.ListPendingByActivity(a.ID)
		if len(chain) != 0 {
			t.Errorf("activity %s got %d reminders, want 0", a.ID, len(chain))
		}
	}
}

func TestRescheduleDisabledSettingsCancelsChain(t *testing.T) {
	p, reminders := setupPlanner(t)
	date := dateutil.NewDate(2024, time.June, 3)
	now := time.Date(2024, time.June, 3, 6, 0, 0, 0, time.UTC)

	if err := p.Reschedule(date, timedActivity("a1", "08:00"), settingsWith(0), now); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	off := settingsWith(0)
	off.Enabled = false
	if err := p.Reschedule(date, timedActivity("a1", "08:00"), off, now); err != nil {
		t.Fatalf("reschedule disabled: %v", err)
	}

	chain, _ := reminders.ListPendingByActivity("a1")
	if len(chain) != 0 {
		t.Errorf("chain survived disabling notifications: %v", chain)
	}
}

func TestOnCompletedRetiresChain(t *testing.T) {
	p, reminders := setupPlanner(t)
	date := dateutil.NewDate(2024, time.June, 3)
	now := time.Date(2024, time.June, 3, 6, 0, 0, 0, time.UTC)

	if err := p.Reschedule(date, timedActivity("a1", "08:00"), settingsWith(0, 5), now); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if err := p.OnCompleted("a1"); err != nil {
		t.Fatalf("on completed: %v", err)
	}

	chain, _ := reminders.ListPendingByActivity("a1")
	if len(chain) != 0 {
		t.Errorf("chain survived completion: %v", chain)
	}
}

func TestOnScheduleDeletedCancelsAllChains(t *testing.T) {
	p, reminders := setupPlanner(t)
	date := dateutil.NewDate(2024, time.June, 3)
	now := time.Date(2024, time.June, 3, 6, 0, 0, 0, time.UTC)

	p.Reschedule(date, timedActivity("a1", "08:00"), settingsWith(0), now)
	p.Reschedule(date, timedActivity("a2", "12:00"), settingsWith(0), now)
	otherDate := dateutil.NewDate(2024, time.June, 4)
	p.Reschedule(otherDate, timedActivity("a3", "08:00"), settingsWith(0), now)

	if err := p.OnScheduleDeleted(date); err != nil {
		t.Fatalf("on schedule deleted: %v", err)
	}

	for _, id := range []string{"a1", "a2"} {
		if chain, _ := reminders.ListPendingByActivity(id); len(chain) != 0 {
			t.Errorf("chain for %s survived schedule deletion", id)
		}
	}
	if chain, _ := reminders.ListPendingByActivity("a3"); len(chain) != 1 {
		t.Error("deletion of one date touched another date's chain")
	}
}

func TestRescheduleAll(t *testing.T) {
	p, reminders := setupPlanner(t)
	now := time.Date(2024, time.June, 3, 6, 0, 0, 0, time.UTC)

	sched := &model.Schedule{
		Date: dateutil.NewDate(2024, time.June, 3),
		Activities: []model.Activity{
			timedActivity("a1", "08:00"),
			timedActivity("a2", "12:00"),
		},
	}
	if err := p.RescheduleAll(sched, settingsWith(0), now); err != nil {
		t.Fatalf("reschedule all: %v", err)
	}

	for _, id := range []string{"a1", "a2"} {
		if chain, _ := reminders.ListPendingByActivity(id); len(chain) != 1 {
			t.Errorf("chain for %s = %d reminders, want 1", id, len(chain))
		}
	}
}
