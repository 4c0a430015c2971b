package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/brightday/internal/dateutil"
	"github.com/dukerupert/brightday/internal/model"
)

// ErrSerialization marks a local persistence encode/decode failure. These
// surface to the caller immediately; a schedule the caregiver entered is
// never silently dropped.
var ErrSerialization = errors.New("schedule serialization failed")

// ScheduleStore persists one schedule record per calendar date in the
// local database.
type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// Get returns the schedule for a date, or nil if none exists.
func (s *ScheduleStore) Get(date dateutil.Date) (*model.Schedule, error) {
	var (
		sched      model.Schedule
		dateStr    string
		activities string
	)
	err := s.db.QueryRow(
		`SELECT date, name, activities, updated_at FROM schedules WHERE date = ?`,
		date.String(),
	).Scan(&dateStr, &sched.Name, &activities, &sched.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query schedule: %w", err)
	}

	sched.Date, err = dateutil.Parse(dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if err := json.Unmarshal([]byte(activities), &sched.Activities); err != nil {
		return nil, fmt.Errorf("%w: decode activities: %v", ErrSerialization, err)
	}
	return &sched, nil
}

// Put writes the record for sched.Date verbatim, preserving UpdatedAt.
// The edit facade stamps UpdatedAt before calling; the sync engine relies
// on Put not touching timestamps when mirroring a remote-won record.
// A written record supersedes any queued delete for the date.
func (s *ScheduleStore) Put(sched *model.Schedule) error {
	activities, err := json.Marshal(sched.Activities)
	if err != nil {
		return fmt.Errorf("%w: encode activities: %v", ErrSerialization, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO schedules (date, name, activities, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET
		   name = excluded.name,
		   activities = excluded.activities,
		   updated_at = excluded.updated_at`,
		sched.Date.String(), sched.Name, string(activities), sched.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("put schedule: %w", err)
	}
	if err := s.ClearDeletePending(sched.Date); err != nil {
		return err
	}
	return nil
}

// Delete removes the record for a date. Deleting an absent date is a no-op.
func (s *ScheduleStore) Delete(date dateutil.Date) error {
	_, err := s.db.Exec(`DELETE FROM schedules WHERE date = ?`, date.String())
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// ListDates returns every date with a stored schedule, ascending.
func (s *ScheduleStore) ListDates() ([]dateutil.Date, error) {
	rows, err := s.db.Query(`SELECT date FROM schedules ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("list schedule dates: %w", err)
	}
	defer rows.Close()
	return scanDates(rows)
}

// ListDatesWithSchedules returns the dates in a month that have a
// non-empty activity list (drives the calendar "has schedule" dots).
func (s *ScheduleStore) ListDatesWithSchedules(year int, month time.Month) ([]dateutil.Date, error) {
	first := dateutil.NewDate(year, month, 1)
	last := dateutil.NewDate(year, month, dateutil.DaysInMonth(year, month))

	rows, err := s.db.Query(
		`SELECT date FROM schedules
		 WHERE date >= ? AND date <= ? AND activities != '[]'
		 ORDER BY date`,
		first.String(), last.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list month schedule dates: %w", err)
	}
	defer rows.Close()
	return scanDates(rows)
}

// MarkDirty flags a date whose remote write failed, so the next full sync
// retries it without waiting for the caregiver to edit again.
func (s *ScheduleStore) MarkDirty(date dateutil.Date) error {
	_, err := s.db.Exec(`UPDATE schedules SET dirty = 1 WHERE date = ?`, date.String())
	if err != nil {
		return fmt.Errorf("mark schedule dirty: %w", err)
	}
	return nil
}

// ClearDirty removes the retry flag after a successful remote write.
func (s *ScheduleStore) ClearDirty(date dateutil.Date) error {
	_, err := s.db.Exec(`UPDATE schedules SET dirty = 0 WHERE date = ?`, date.String())
	if err != nil {
		return fmt.Errorf("clear schedule dirty: %w", err)
	}
	return nil
}

// ListDirty returns every date flagged for remote retry.
func (s *ScheduleStore) ListDirty() ([]dateutil.Date, error) {
	rows, err := s.db.Query(`SELECT date FROM schedules WHERE dirty = 1 ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("list dirty schedules: %w", err)
	}
	defer rows.Close()
	return scanDates(rows)
}

// MarkDeletePending records a tombstone for a locally deleted date whose
// remote delete has not gone through yet. Without it the next full sync
// would see remote-only data and resurrect the day the caregiver deleted.
func (s *ScheduleStore) MarkDeletePending(date dateutil.Date) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO pending_deletes (date) VALUES (?)`, date.String())
	if err != nil {
		return fmt.Errorf("mark delete pending: %w", err)
	}
	return nil
}

// ClearDeletePending removes the tombstone after the remote delete
// succeeds. Clearing an absent tombstone is a no-op.
func (s *ScheduleStore) ClearDeletePending(date dateutil.Date) error {
	_, err := s.db.Exec(`DELETE FROM pending_deletes WHERE date = ?`, date.String())
	if err != nil {
		return fmt.Errorf("clear delete pending: %w", err)
	}
	return nil
}

// HasDeletePending reports whether a tombstone exists for the date.
func (s *ScheduleStore) HasDeletePending(date dateutil.Date) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM pending_deletes WHERE date = ?`, date.String()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query delete pending: %w", err)
	}
	return true, nil
}

// ListDeletePending returns every tombstoned date, ascending.
func (s *ScheduleStore) ListDeletePending() ([]dateutil.Date, error) {
	rows, err := s.db.Query(`SELECT date FROM pending_deletes ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("list pending deletes: %w", err)
	}
	defer rows.Close()
	return scanDates(rows)
}

func scanDates(rows *sql.Rows) ([]dateutil.Date, error) {
	var dates []dateutil.Date
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		d, err := dateutil.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
