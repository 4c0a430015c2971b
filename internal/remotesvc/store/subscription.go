package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/brightday/internal/model"
)

// SubscriptionStore is the push subscription registry, keyed by
// (user, endpoint) so every paired device can hold its own subscription.
type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// Upsert inserts or refreshes a subscription. Re-registering an existing
// endpoint updates its keys and bumps last_used_at.
func (s *SubscriptionStore) Upsert(sub *model.PushSubscription) error {
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh_key, auth_key, device_name, last_used_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, endpoint) DO UPDATE SET
		   p256dh_key = excluded.p256dh_key,
		   auth_key = excluded.auth_key,
		   device_name = excluded.device_name,
		   last_used_at = excluded.last_used_at`,
		sub.UserID, sub.Endpoint, sub.P256dhKey, sub.AuthKey, sub.DeviceName, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// Delete removes a subscription by endpoint. Missing rows are not an error.
func (s *SubscriptionStore) Delete(userID, endpoint string) error {
	_, err := s.db.Exec(
		`DELETE FROM push_subscriptions WHERE user_id = ? AND endpoint = ?`,
		userID, endpoint,
	)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// ListByUser returns all subscriptions registered for a user.
func (s *SubscriptionStore) ListByUser(userID string) ([]*model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT user_id, endpoint, p256dh_key, auth_key, device_name, last_used_at
		 FROM push_subscriptions WHERE user_id = ? ORDER BY last_used_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*model.PushSubscription
	for rows.Next() {
		var sub model.PushSubscription
		if err := rows.Scan(&sub.UserID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}
