// Package clone replays one date's schedule onto other dates, either an
// explicit target set or a recurrence-rule expansion.
package clone

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dukerupert/brightday/internal/dateutil"
	"github.com/dukerupert/brightday/internal/model"
	"github.com/dukerupert/brightday/internal/recurrence"
	"github.com/dukerupert/brightday/internal/schedule"
)

// Engine is thin orchestration over the schedule facade: each clone is
// an ordinary save, so the local write, best-effort sync, and reminder
// recompute all follow the normal edit path.
type Engine struct {
	schedules *schedule.Manager
	logger    *slog.Logger
}

func New(schedules *schedule.Manager, logger *slog.Logger) *Engine {
	return &Engine{schedules: schedules, logger: logger}
}

// CloneToDates copies the source date's schedule onto each target date.
// Activities get fresh IDs (clone identity must not alias the source
// day) and completed flags reset; reminders are recomputed relative to
// each target. Existing data on a target is overwritten, not merged;
// the UI has already confirmed this explicit action and disallowed past
// or source-date targets.
func (e *Engine) CloneToDates(ctx context.Context, userID string, source dateutil.Date, targets []dateutil.Date) error {
	src, err := e.schedules.GetScheduleForDate(source)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("no schedule to clone on %s", source)
	}

	for _, target := range targets {
		if target == source {
			continue
		}
		copy := &model.Schedule{
			Date:       target,
			Name:       src.Name,
			Activities: cloneActivities(src.Activities),
		}
		if _, err := e.schedules.SaveScheduleToDate(ctx, userID, copy); err != nil {
			return fmt.Errorf("clone to %s: %w", target, err)
		}
		e.logger.Info("cloned schedule", "source", source, "target", target, "activities", len(copy.Activities))
	}
	return nil
}

// CloneByRecurrence expands the rule from the source date through until
// (inclusive) and clones onto every produced date that is not the source
// and not before today.
func (e *Engine) CloneByRecurrence(ctx context.Context, userID string, source dateutil.Date, rule recurrence.Rule, until, today dateutil.Date) error {
	var targets []dateutil.Date
	for _, d := range recurrence.Expand(source, rule, until) {
		if d == source || d.Before(today) {
			continue
		}
		targets = append(targets, d)
	}
	return e.CloneToDates(ctx, userID, source, targets)
}

func cloneActivities(src []model.Activity) []model.Activity {
	out := make([]model.Activity, len(src))
	for i, a := range src {
		a.ID = uuid.NewString()
		a.Completed = false
		if a.Time != nil {
			t := *a.Time
			a.Time = &t
		}
		out[i] = a
	}
	return out
}
