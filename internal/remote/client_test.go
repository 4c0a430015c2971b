package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/brightday/internal/dateutil"
	"github.com/dukerupert/brightday/internal/model"
)

func TestNewClientGuestMode(t *testing.T) {
	if c := NewClient(Config{}); c != nil {
		t.Error("expected nil client without a base URL")
	}
}

func TestGetScheduleNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	sched, err := c.GetSchedule(context.Background(), "june", dateutil.NewDate(2024, time.June, 3))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sched != nil {
		t.Errorf("expected nil for 404, got %+v", sched)
	}
}

func TestGetScheduleDecodesRecord(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(model.Schedule{
			Date:       dateutil.NewDate(2024, time.June, 3),
			Name:       "Morning Routine",
			Activities: []model.Activity{{ID: "a1", Label: "Breakfast"}},
			UpdatedAt:  time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC),
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "tok-123"})
	sched, err := c.GetSchedule(context.Background(), "june", dateutil.NewDate(2024, time.June, 3))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotPath != "/api/users/june/schedules/2024-06-03" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if sched == nil || sched.Name != "Morning Routine" || len(sched.Activities) != 1 {
		t.Errorf("schedule = %+v", sched)
	}
}

func TestPutScheduleSendsWholeRecord(t *testing.T) {
	var gotMethod string
	var gotBody model.Schedule
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	sched := &model.Schedule{
		Date:       dateutil.NewDate(2024, time.June, 3),
		Activities: []model.Activity{{ID: "a1", Label: "Breakfast"}},
		UpdatedAt:  time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := c.PutSchedule(context.Background(), "june", sched); err != nil {
		t.Fatalf("put: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("method = %q, want PUT", gotMethod)
	}
	if len(gotBody.Activities) != 1 || !gotBody.UpdatedAt.Equal(sched.UpdatedAt) {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestDeleteScheduleToleratesMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if err := c.DeleteSchedule(context.Background(), "june", dateutil.NewDate(2024, time.June, 3)); err != nil {
		t.Errorf("delete of missing record: %v", err)
	}
}

func TestListModifiedSince(t *testing.T) {
	var gotSince string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSince = r.URL.Query().Get("since")
		json.NewEncoder(w).Encode(map[string][]string{
			"dates": {"2024-06-03", "2024-06-05"},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	since := time.Date(2024, time.May, 28, 0, 0, 0, 0, time.UTC)
	dates, err := c.ListModifiedSince(context.Background(), "june", since)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotSince != "2024-05-28T00:00:00Z" {
		t.Errorf("since = %q", gotSince)
	}
	if len(dates) != 2 || dates[0].String() != "2024-06-03" || dates[1].String() != "2024-06-05" {
		t.Errorf("dates = %v", dates)
	}
}

func TestRetriesTransientFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	sched := &model.Schedule{Date: dateutil.NewDate(2024, time.June, 3), UpdatedAt: time.Now()}
	if err := c.PutSchedule(context.Background(), "june", sched); err != nil {
		t.Fatalf("put after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	sched := &model.Schedule{Date: dateutil.NewDate(2024, time.June, 3), UpdatedAt: time.Now()}
	if err := c.PutSchedule(context.Background(), "june", sched); err == nil {
		t.Fatal("expected error on 403")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (4xx must not retry)", calls)
	}
}

func TestUpsertSubscription(t *testing.T) {
	var gotPath string
	var gotBody model.PushSubscription
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	sub := &model.PushSubscription{
		UserID:    "june",
		Endpoint:  "https://push.example.com/send/abc",
		P256dhKey: "p256dh",
		AuthKey:   "auth",
	}
	if err := c.UpsertSubscription(context.Background(), sub); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if gotPath != "/api/users/june/subscriptions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody.Endpoint != sub.Endpoint {
		t.Errorf("body endpoint = %q", gotBody.Endpoint)
	}
}

func TestDeleteSubscription(t *testing.T) {
	var gotEndpoint string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEndpoint = r.URL.Query().Get("endpoint")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if err := c.DeleteSubscription(context.Background(), "june", "https://push.example.com/send/abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotEndpoint != "https://push.example.com/send/abc" {
		t.Errorf("endpoint = %q", gotEndpoint)
	}
}
