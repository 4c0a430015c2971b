package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/brightday/internal/dateutil"
	"github.com/dukerupert/brightday/internal/model"
)

// ReminderStore persists pending notification records, one row per
// (activity, lead-time offset, occurrence).
type ReminderStore struct {
	db *sql.DB
}

func NewReminderStore(db *sql.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

// Create inserts a pending reminder and returns it with its assigned ID.
func (s *ReminderStore) Create(r *model.Reminder) (*model.Reminder, error) {
	var repeatInt int
	if r.RepeatUntilComplete {
		repeatInt = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO reminders (activity_id, date, label, lead_minutes, fire_at, status, repeat_until_complete, repeat_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ActivityID, r.Date.String(), r.Label, r.LeadMinutes, r.FireAt.UTC(),
		model.ReminderPending, repeatInt, r.RepeatCount,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// GetByID returns a reminder, or nil if absent.
func (s *ReminderStore) GetByID(id int64) (*model.Reminder, error) {
	row := s.db.QueryRow(
		`SELECT id, activity_id, date, label, lead_minutes, fire_at, status, repeat_until_complete, repeat_count, created_at
		 FROM reminders WHERE id = ?`, id,
	)
	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query reminder: %w", err)
	}
	return r, nil
}

// ListPendingByActivity returns the live reminder chain for an activity,
// ordered by fire time.
func (s *ReminderStore) ListPendingByActivity(activityID string) ([]model.Reminder, error) {
	rows, err := s.db.Query(
		`SELECT id, activity_id, date, label, lead_minutes, fire_at, status, repeat_until_complete, repeat_count, created_at
		 FROM reminders WHERE activity_id = ? AND status = ? ORDER BY fire_at`,
		activityID, model.ReminderPending,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// ListDue returns pending reminders whose fire time has arrived.
func (s *ReminderStore) ListDue(now time.Time) ([]model.Reminder, error) {
	rows, err := s.db.Query(
		`SELECT id, activity_id, date, label, lead_minutes, fire_at, status, repeat_until_complete, repeat_count, created_at
		 FROM reminders WHERE status = ? AND fire_at <= ? ORDER BY fire_at`,
		model.ReminderPending, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// MarkFired transitions a reminder to fired.
func (s *ReminderStore) MarkFired(id int64) error {
	_, err := s.db.Exec(`UPDATE reminders SET status = ? WHERE id = ?`, model.ReminderFired, id)
	if err != nil {
		return fmt.Errorf("mark reminder fired: %w", err)
	}
	return nil
}

// CancelPendingForActivity cancels every live reminder for an activity,
// including queued repeat tails. Returns the number cancelled.
func (s *ReminderStore) CancelPendingForActivity(activityID string) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE reminders SET status = ? WHERE activity_id = ? AND status = ?`,
		model.ReminderCancelled, activityID, model.ReminderPending,
	)
	if err != nil {
		return 0, fmt.Errorf("cancel reminders for activity: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// CancelPendingForDate cancels every live reminder for a date (whole-day
// schedule deletion).
func (s *ReminderStore) CancelPendingForDate(date dateutil.Date) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE reminders SET status = ? WHERE date = ? AND status = ?`,
		model.ReminderCancelled, date.String(), model.ReminderPending,
	)
	if err != nil {
		return 0, fmt.Errorf("cancel reminders for date: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// DeleteRetired prunes fired/cancelled rows older than the given time.
func (s *ReminderStore) DeleteRetired(before time.Time) error {
	_, err := s.db.Exec(
		`DELETE FROM reminders WHERE status != ? AND created_at < ?`,
		model.ReminderPending, before.UTC(),
	)
	if err != nil {
		return fmt.Errorf("delete retired reminders: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*model.Reminder, error) {
	var (
		r         model.Reminder
		dateStr   string
		repeatInt int
	)
	err := row.Scan(&r.ID, &r.ActivityID, &dateStr, &r.Label, &r.LeadMinutes,
		&r.FireAt, &r.Status, &repeatInt, &r.RepeatCount, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.RepeatUntilComplete = repeatInt != 0
	r.Date, err = dateutil.Parse(dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return &r, nil
}

func scanReminders(rows *sql.Rows) ([]model.Reminder, error) {
	var reminders []model.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, *r)
	}
	return reminders, rows.Err()
}
