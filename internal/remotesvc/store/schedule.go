package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/brightday/internal/dateutil"
	"github.com/dukerupert/brightday/internal/model"
)

// ScheduleStore persists schedule records keyed by (user, date).
type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// Get returns the schedule for a user and date, or nil if none exists.
func (s *ScheduleStore) Get(userID string, date dateutil.Date) (*model.Schedule, error) {
	var (
		sched      model.Schedule
		dateStr    string
		activities string
	)
	err := s.db.QueryRow(
		`SELECT date, name, activities, updated_at FROM schedules WHERE user_id = ? AND date = ?`,
		userID, date.String(),
	).Scan(&dateStr, &sched.Name, &activities, &sched.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query schedule: %w", err)
	}

	sched.Date, err = dateutil.Parse(dateStr)
	if err != nil {
		return nil, fmt.Errorf("parse schedule date: %w", err)
	}
	if err := json.Unmarshal([]byte(activities), &sched.Activities); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	return &sched, nil
}

// Put writes the record verbatim, preserving the client's UpdatedAt.
// The wall clock of record is the device that made the edit; the
// service never stamps its own time onto a schedule.
func (s *ScheduleStore) Put(userID string, sched *model.Schedule) error {
	activities, err := json.Marshal(sched.Activities)
	if err != nil {
		return fmt.Errorf("encode activities: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO schedules (user_id, date, name, activities, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, date) DO UPDATE SET
		   name = excluded.name,
		   activities = excluded.activities,
		   updated_at = excluded.updated_at`,
		userID, sched.Date.String(), sched.Name, string(activities), sched.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

// Delete removes the record for a user and date. Missing rows are not
// an error.
func (s *ScheduleStore) Delete(userID string, date dateutil.Date) error {
	_, err := s.db.Exec(
		`DELETE FROM schedules WHERE user_id = ? AND date = ?`,
		userID, date.String(),
	)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// ListModifiedSince returns dates whose records changed strictly after
// since, oldest first.
func (s *ScheduleStore) ListModifiedSince(userID string, since time.Time) ([]dateutil.Date, error) {
	rows, err := s.db.Query(
		`SELECT date FROM schedules WHERE user_id = ? AND updated_at > ? ORDER BY date`,
		userID, since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query modified schedules: %w", err)
	}
	defer rows.Close()

	var dates []dateutil.Date
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		d, err := dateutil.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
