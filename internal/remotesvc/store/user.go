package store

import (
	"database/sql"
	"fmt"
	"time"
)

// User is an account on the remote service. SecretHash is the bcrypt
// hash of the pairing secret devices present to obtain a token.
type User struct {
	ID         string
	SecretHash string
	CreatedAt  time.Time
}

// Device records one successful pairing.
type Device struct {
	ID       string
	UserID   string
	Name     string
	PairedAt time.Time
}

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Create registers a user with an already-hashed pairing secret.
// Returns an error if the ID is taken.
func (s *UserStore) Create(id, secretHash string) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, secret_hash) VALUES (?, ?)`,
		id, secretHash,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Get returns a user by ID, or nil if none exists.
func (s *UserStore) Get(id string) (*User, error) {
	var u User
	err := s.db.QueryRow(
		`SELECT id, secret_hash, created_at FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.SecretHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// AddDevice records a pairing under the user.
func (s *UserStore) AddDevice(d *Device) error {
	_, err := s.db.Exec(
		`INSERT INTO devices (id, user_id, name) VALUES (?, ?, ?)`,
		d.ID, d.UserID, d.Name,
	)
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

// ListDevices returns the user's paired devices, newest first.
func (s *UserStore) ListDevices(userID string) ([]*Device, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, name, paired_at FROM devices WHERE user_id = ? ORDER BY paired_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var devices []*Device
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.PairedAt); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, &d)
	}
	return devices, rows.Err()
}
