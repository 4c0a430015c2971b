// Package remote is the HTTP client for the brightday remote service:
// per-(user, date) schedule records and the push subscription registry.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dukerupert/brightday/internal/dateutil"
	"github.com/dukerupert/brightday/internal/model"
)

// ErrUnavailable marks a transient network or service failure. Callers
// treat it as retryable: the sync engine marks the date dirty and moves
// on rather than surfacing it to the caregiver.
var ErrUnavailable = errors.New("remote service unavailable")

const (
	requestTimeout = 10 * time.Second
	retryAttempts  = 3
	retryBase      = 500 * time.Millisecond
)

// Config holds remote service connection settings.
type Config struct {
	BaseURL string
	// Token is the device bearer token issued at pairing.
	Token string
}

// Client talks to the remote service. A nil *Client means guest/local-only
// mode; every caller checks before use.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a remote client. Returns nil when no base URL is
// configured, which callers treat as guest mode.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		return nil
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// GetSchedule fetches the remote record for a date. Returns (nil, nil)
// when the remote has no record.
func (c *Client) GetSchedule(ctx context.Context, userID string, date dateutil.Date) (*model.Schedule, error) {
	var sched *model.Schedule
	err := c.do(ctx, http.MethodGet, c.schedulePath(userID, date), nil, func(status int, body []byte) error {
		if status == http.StatusNotFound {
			return nil
		}
		if status != http.StatusOK {
			return statusError(status)
		}
		sched = &model.Schedule{}
		if err := json.Unmarshal(body, sched); err != nil {
			return fmt.Errorf("decode schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}

// PutSchedule writes a whole record to the remote store.
func (c *Client) PutSchedule(ctx context.Context, userID string, sched *model.Schedule) error {
	body, err := json.Marshal(sched)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	return c.do(ctx, http.MethodPut, c.schedulePath(userID, sched.Date), body, expectStatus(http.StatusOK, http.StatusCreated))
}

// DeleteSchedule removes the remote record for a date.
func (c *Client) DeleteSchedule(ctx context.Context, userID string, date dateutil.Date) error {
	return c.do(ctx, http.MethodDelete, c.schedulePath(userID, date), nil, expectStatus(http.StatusNoContent, http.StatusNotFound))
}

// ListModifiedSince returns the dates of remote records modified at or
// after since. Drives the full-sync remote lookback.
func (c *Client) ListModifiedSince(ctx context.Context, userID string, since time.Time) ([]dateutil.Date, error) {
	path := fmt.Sprintf("/api/users/%s/schedules?since=%s",
		url.PathEscape(userID), url.QueryEscape(since.UTC().Format(time.RFC3339)))

	var dates []dateutil.Date
	err := c.do(ctx, http.MethodGet, path, nil, func(status int, body []byte) error {
		if status != http.StatusOK {
			return statusError(status)
		}
		var resp struct {
			Dates []dateutil.Date `json:"dates"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("decode modified dates: %w", err)
		}
		dates = resp.Dates
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dates, nil
}

// UpsertSubscription mirrors a device push subscription into the remote
// registry, keyed (user, endpoint). Re-upserting an existing endpoint
// refreshes last_used_at.
func (c *Client) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	path := fmt.Sprintf("/api/users/%s/subscriptions", url.PathEscape(sub.UserID))
	return c.do(ctx, http.MethodPost, path, body, expectStatus(http.StatusOK, http.StatusCreated))
}

// DeleteSubscription removes a subscription mirror from the registry.
func (c *Client) DeleteSubscription(ctx context.Context, userID, endpoint string) error {
	path := fmt.Sprintf("/api/users/%s/subscriptions?endpoint=%s",
		url.PathEscape(userID), url.QueryEscape(endpoint))
	return c.do(ctx, http.MethodDelete, path, nil, expectStatus(http.StatusNoContent, http.StatusNotFound))
}

func (c *Client) schedulePath(userID string, date dateutil.Date) string {
	return fmt.Sprintf("/api/users/%s/schedules/%s", url.PathEscape(userID), date.String())
}

// do runs one request with fibonacci backoff on transient failures.
// Network errors and 5xx responses are retryable; everything else is
// passed to handle exactly once.
func (c *Client) do(ctx context.Context, method, path string, body []byte, handle func(status int, body []byte) error) error {
	backoff := retry.WithMaxRetries(retryAttempts, retry.NewFibonacci(retryBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: %v", ErrUnavailable, err))
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: read body: %v", ErrUnavailable, err))
		}

		if resp.StatusCode >= 500 {
			return retry.RetryableError(statusError(resp.StatusCode))
		}
		return handle(resp.StatusCode, respBody)
	})
}

func expectStatus(allowed ...int) func(int, []byte) error {
	return func(status int, _ []byte) error {
		for _, s := range allowed {
			if status == s {
				return nil
			}
		}
		return statusError(status)
	}
}

func statusError(status int) error {
	if status >= 500 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, status)
	}
	return fmt.Errorf("remote returned %d", status)
}
