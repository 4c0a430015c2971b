package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/brightday/internal/config"
	"github.com/dukerupert/brightday/internal/database"
)

// setupServer runs the agent API in guest mode (no remote configured)
// over an in-memory database.
func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{Timezone: "UTC"}
	srv := New(db, cfg, slog.Default())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestScheduleLifecycle(t *testing.T) {
	ts := setupServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/schedules/2026-03-14", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET absent status = %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/schedules/2026-03-14", map[string]any{
		"name": "Saturday",
		"activities": []map[string]any{
			{"label": "Breakfast", "time": "08:00"},
			{"label": "Walk"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200", resp.StatusCode)
	}
	var saved struct {
		Schedule struct {
			Name       string `json:"name"`
			Activities []struct {
				ID    string `json:"id"`
				Label string `json:"label"`
			} `json:"activities"`
		} `json:"schedule"`
		SyncStatus string `json:"sync_status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		t.Fatalf("decode save response: %v", err)
	}
	if saved.Schedule.Name != "Saturday" {
		t.Errorf("name = %q, want Saturday", saved.Schedule.Name)
	}
	if len(saved.Schedule.Activities) != 2 {
		t.Fatalf("activities = %d, want 2", len(saved.Schedule.Activities))
	}
	for _, a := range saved.Schedule.Activities {
		if a.ID == "" {
			t.Errorf("activity %q was not assigned an ID", a.Label)
		}
	}
	if saved.SyncStatus != "synced" {
		t.Errorf("sync_status = %q, want synced in guest mode", saved.SyncStatus)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/schedules/2026-03-14", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", resp.StatusCode)
	}

	activityID := saved.Schedule.Activities[0].ID
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/schedules/2026-03-14/activities/"+activityID+"/complete", map[string]any{
		"completed": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete status = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/schedules?year=2026&month=3", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("month dates status = %d, want 200", resp.StatusCode)
	}
	var month struct {
		Dates []string `json:"dates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&month); err != nil {
		t.Fatalf("decode month dates: %v", err)
	}
	if len(month.Dates) != 1 || month.Dates[0] != "2026-03-14" {
		t.Errorf("month dates = %v, want [2026-03-14]", month.Dates)
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/schedules/2026-03-14", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/schedules/2026-03-14", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want 404", resp.StatusCode)
	}
}

func TestInvalidDateRejected(t *testing.T) {
	ts := setupServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/schedules/not-a-date", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCalendarGrid(t *testing.T) {
	ts := setupServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/calendar?year=2024&month=6", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var grid struct {
		Weeks [][]struct {
			Date string `json:"date"`
		} `json:"weeks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&grid); err != nil {
		t.Fatalf("decode grid: %v", err)
	}
	if len(grid.Weeks) != 6 {
		t.Errorf("weeks = %d, want 6 for June 2024", len(grid.Weeks))
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/calendar?year=2024&month=13", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad month status = %d, want 400", resp.StatusCode)
	}
}

func TestWeatherUnconfigured(t *testing.T) {
	ts := setupServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/weather", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Configured bool `json:"configured"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode weather: %v", err)
	}
	if body.Configured {
		t.Error("weather should report unconfigured without coordinates")
	}
}

func TestHealth(t *testing.T) {
	ts := setupServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
