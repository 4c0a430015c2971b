// Package sync keeps the local and remote schedule stores convergent
// without losing caregiver edits made while offline.
package sync

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/dukerupert/brightday/internal/dateutil"
	"github.com/dukerupert/brightday/internal/model"
	"github.com/dukerupert/brightday/internal/store"
)

// Status is the per-date sync outcome consumed by the UI indicator.
type Status string

const (
	// StatusSynced means local and remote agree (or there is nothing
	// to reconcile in guest mode).
	StatusSynced Status = "synced"
	// StatusPending means the local write succeeded but the remote
	// write is queued for retry.
	StatusPending Status = "pending"
	// StatusError means a read or write failed outright; local state
	// is untouched.
	StatusError Status = "error"
)

// RemoteStore is the slice of the remote client the engine uses. A nil
// remote means guest/local-only mode and every operation is a no-op.
type RemoteStore interface {
	GetSchedule(ctx context.Context, userID string, date dateutil.Date) (*model.Schedule, error)
	PutSchedule(ctx context.Context, userID string, sched *model.Schedule) error
	DeleteSchedule(ctx context.Context, userID string, date dateutil.Date) error
	ListModifiedSince(ctx context.Context, userID string, since time.Time) ([]dateutil.Date, error)
}

// Result aggregates a full-sync sweep.
type Result struct {
	Synced  int `json:"synced"`
	Pending int `json:"pending"`
	Errors  int `json:"errors"`
}

// Engine orchestrates the local store and the remote store. Local writes
// are authoritative for the session; remote writes are best-effort with
// a dirty flag driving retry on the next full sync.
type Engine struct {
	local          *store.ScheduleStore
	remote         RemoteStore
	logger         *slog.Logger
	notify         func(dateutil.Date, Status)
	onLocalChanged func(dateutil.Date)
}

// New creates a sync engine. remote may be nil (guest mode). notify, if
// non-nil, is invoked with the resulting status of every per-date
// operation (drives the sync indicator broadcast).
func New(local *store.ScheduleStore, remote RemoteStore, logger *slog.Logger, notify func(dateutil.Date, Status)) *Engine {
	return &Engine{local: local, remote: remote, logger: logger, notify: notify}
}

// OnLocalChanged registers a callback invoked whenever a sync writes to
// the local store (populate or remote-win). The caller uses it to
// recompute reminders for the affected date.
func (e *Engine) OnLocalChanged(fn func(dateutil.Date)) {
	e.onLocalChanged = fn
}

// Guest reports whether the engine is running without a remote.
func (e *Engine) Guest() bool {
	return e.remote == nil
}

// SyncDate reconciles one date. If only one side has data the other is
// populated from it. If both exist, last-writer-wins by UpdatedAt with
// the whole record replaced; on an exact timestamp tie the local record
// wins, since the local device is the one currently in use. Errors never
// escape: they resolve to a Status and leave the local store untouched.
func (e *Engine) SyncDate(ctx context.Context, userID string, date dateutil.Date) Status {
	status := e.syncDate(ctx, userID, date)
	if e.notify != nil {
		e.notify(date, status)
	}
	return status
}

func (e *Engine) syncDate(ctx context.Context, userID string, date dateutil.Date) Status {
	if e.Guest() || userID == "" {
		return StatusSynced
	}

	local, err := e.local.Get(date)
	if err != nil {
		e.logger.Error("sync: read local", "date", date, "error", err)
		return StatusError
	}

	if local == nil {
		// A tombstoned date is an unpropagated caregiver delete, not
		// missing data; pushing the delete must win over repopulating.
		tombstoned, err := e.local.HasDeletePending(date)
		if err != nil {
			e.logger.Error("sync: read tombstone", "date", date, "error", err)
			return StatusError
		}
		if tombstoned {
			return e.pushDelete(ctx, userID, date)
		}
	}

	remote, err := e.remote.GetSchedule(ctx, userID, date)
	if err != nil {
		e.logger.Warn("sync: read remote", "date", date, "error", err)
		return StatusError
	}

	switch {
	case local == nil && remote == nil:
		return StatusSynced

	case remote == nil:
		return e.pushLocal(ctx, userID, local)

	case local == nil:
		if err := e.local.Put(remote); err != nil {
			e.logger.Error("sync: populate local", "date", date, "error", err)
			return StatusError
		}
		if e.onLocalChanged != nil {
			e.onLocalChanged(date)
		}
		return StatusSynced

	default:
		return e.resolve(ctx, userID, local, remote)
	}
}

// resolve applies last-writer-wins to a date where both sides have data.
func (e *Engine) resolve(ctx context.Context, userID string, local, remote *model.Schedule) Status {
	if recordsEqual(local, remote) {
		if err := e.local.ClearDirty(local.Date); err != nil {
			e.logger.Error("sync: clear dirty", "date", local.Date, "error", err)
		}
		return StatusSynced
	}

	// Local wins on a tie: the local device is the one being used.
	if !local.UpdatedAt.Before(remote.UpdatedAt) {
		e.logger.Info("sync: conflict resolved",
			"date", local.Date, "winner", "local",
			"local_updated", local.UpdatedAt, "remote_updated", remote.UpdatedAt)
		return e.pushLocal(ctx, userID, local)
	}

	e.logger.Info("sync: conflict resolved",
		"date", local.Date, "winner", "remote",
		"local_updated", local.UpdatedAt, "remote_updated", remote.UpdatedAt)
	if err := e.local.Put(remote); err != nil {
		e.logger.Error("sync: apply remote", "date", remote.Date, "error", err)
		return StatusError
	}
	if err := e.local.ClearDirty(remote.Date); err != nil {
		e.logger.Error("sync: clear dirty", "date", remote.Date, "error", err)
	}
	if e.onLocalChanged != nil {
		e.onLocalChanged(remote.Date)
	}
	return StatusSynced
}

func (e *Engine) pushLocal(ctx context.Context, userID string, sched *model.Schedule) Status {
	if err := e.remote.PutSchedule(ctx, userID, sched); err != nil {
		e.logger.Warn("sync: write remote", "date", sched.Date, "error", err)
		if err := e.local.MarkDirty(sched.Date); err != nil {
			e.logger.Error("sync: mark dirty", "date", sched.Date, "error", err)
		}
		return StatusPending
	}
	if err := e.local.ClearDirty(sched.Date); err != nil {
		e.logger.Error("sync: clear dirty", "date", sched.Date, "error", err)
	}
	return StatusSynced
}

// pushDelete propagates a local delete to the remote, clearing the
// tombstone once the remote no longer holds the record.
func (e *Engine) pushDelete(ctx context.Context, userID string, date dateutil.Date) Status {
	if err := e.remote.DeleteSchedule(ctx, userID, date); err != nil {
		e.logger.Warn("sync: delete remote", "date", date, "error", err)
		return StatusPending
	}
	if err := e.local.ClearDeletePending(date); err != nil {
		e.logger.Error("sync: clear tombstone", "date", date, "error", err)
	}
	return StatusSynced
}

// PushWrite is the best-effort remote write after a caregiver edit. The
// local write has already happened and is never rolled back; a remote
// failure just flags the date dirty for the next full sync. A deleted
// date is tombstoned first so a failed remote delete is retried too.
func (e *Engine) PushWrite(ctx context.Context, userID string, date dateutil.Date) Status {
	if e.Guest() || userID == "" {
		return StatusSynced
	}

	sched, err := e.local.Get(date)
	if err != nil {
		e.logger.Error("sync: read local for push", "date", date, "error", err)
		return StatusError
	}

	var status Status
	if sched == nil {
		if err := e.local.MarkDeletePending(date); err != nil {
			e.logger.Error("sync: mark tombstone", "date", date, "error", err)
		}
		status = e.pushDelete(ctx, userID, date)
	} else {
		status = e.pushLocal(ctx, userID, sched)
	}

	if e.notify != nil {
		e.notify(date, status)
	}
	return status
}

// FullSync reconciles every locally-known date, every dirty or
// tombstoned date, and every remote date modified within the lookback
// window (previous month onward). Runs once per session on sign-in and
// is idempotent: once the stores agree, repeated sweeps perform no
// writes.
func (e *Engine) FullSync(ctx context.Context, userID string) Result {
	var result Result
	if e.Guest() || userID == "" {
		return result
	}

	seen := make(map[dateutil.Date]bool)
	var dates []dateutil.Date
	add := func(ds []dateutil.Date) {
		for _, d := range ds {
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}

	localDates, err := e.local.ListDates()
	if err != nil {
		e.logger.Error("sync: list local dates", "error", err)
		result.Errors++
		return result
	}
	add(localDates)

	dirty, err := e.local.ListDirty()
	if err != nil {
		e.logger.Error("sync: list dirty dates", "error", err)
		result.Errors++
		return result
	}
	add(dirty)

	tombstones, err := e.local.ListDeletePending()
	if err != nil {
		e.logger.Error("sync: list tombstones", "error", err)
		result.Errors++
		return result
	}
	add(tombstones)

	since := time.Now().UTC().AddDate(0, -1, 0)
	remoteDates, err := e.remote.ListModifiedSince(ctx, userID, since)
	if err != nil {
		// Still reconcile what we know locally.
		e.logger.Warn("sync: list remote dates", "error", err)
		result.Errors++
	}
	add(remoteDates)

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, date := range dates {
		if ctx.Err() != nil {
			e.logger.Warn("sync: full sync cancelled", "remaining", len(dates))
			return result
		}
		switch e.SyncDate(ctx, userID, date) {
		case StatusSynced:
			result.Synced++
		case StatusPending:
			result.Pending++
		case StatusError:
			result.Errors++
		}
	}

	e.logger.Info("sync: full sync complete",
		"dates", len(dates), "synced", result.Synced,
		"pending", result.Pending, "errors", result.Errors)
	return result
}

// recordsEqual compares two schedules by content and timestamp. The
// timestamp is compared as an instant (zone representations differ after
// a DB round trip) and content as canonical JSON.
func recordsEqual(a, b *model.Schedule) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return false
	}
	ac, bc := *a, *b
	ac.UpdatedAt, bc.UpdatedAt = time.Time{}, time.Time{}
	aj, err := json.Marshal(ac)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(bc)
	if err != nil {
		return false
	}
	return string(aj) == string(bj)
}
