package weather

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukerupert/brightday/internal/dateutil"
)

func date(s string) dateutil.Date {
	d, err := dateutil.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCondition(t *testing.T) {
	tests := []struct {
		code     int
		wantKey  string
		wantDesc string
	}{
		{0, "clear", "Clear sky"},
		{1, "partly-cloudy", "Partly cloudy"},
		{2, "partly-cloudy", "Partly cloudy"},
		{3, "overcast", "Overcast"},
		{45, "fog", "Foggy"},
		{48, "fog", "Foggy"},
		{53, "drizzle", "Drizzle"},
		{63, "rain", "Rain"},
		{75, "snow", "Snow"},
		{81, "showers", "Rain showers"},
		{86, "snow", "Snow showers"},
		{95, "thunderstorm", "Thunderstorm"},
		{99, "thunderstorm", "Thunderstorm"},
		{40, "unknown", "Unknown"},
	}

	for _, tt := range tests {
		key, desc := Condition(tt.code)
		if key != tt.wantKey {
			t.Errorf("Condition(%d) key = %q, want %q", tt.code, key, tt.wantKey)
		}
		if desc != tt.wantDesc {
			t.Errorf("Condition(%d) desc = %q, want %q", tt.code, desc, tt.wantDesc)
		}
	}
}

func forecastBody(dates []string) string {
	times := ""
	maxs := ""
	mins := ""
	codes := ""
	for i, d := range dates {
		if i > 0 {
			times += ","
			maxs += ","
			mins += ","
			codes += ","
		}
		times += fmt.Sprintf("%q", d)
		maxs += fmt.Sprintf("%g", 70.0+float64(i))
		mins += fmt.Sprintf("%g", 50.0+float64(i))
		codes += "61"
	}
	return fmt.Sprintf(`{
		"current": {"temperature_2m": 68.5, "weather_code": 2},
		"daily": {
			"time": [%s],
			"temperature_2m_max": [%s],
			"temperature_2m_min": [%s],
			"weather_code": [%s]
		}
	}`, times, maxs, mins, codes)
}

func TestForecastByDate(t *testing.T) {
	var fetches atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		fmt.Fprint(w, forecastBody([]string{"2024-06-03", "2024-06-04", "2024-06-05"}))
	}))
	defer ts.Close()

	svc := NewService(Config{Latitude: 47.6, Longitude: -122.3})
	svc.baseURL = ts.URL

	f, ok := svc.Forecast(date("2024-06-04"))
	if !ok {
		t.Fatal("expected forecast for in-window date")
	}
	if f.High != 71.0 || f.Low != 51.0 {
		t.Errorf("forecast = %v/%v, want 71/51", f.High, f.Low)
	}
	if f.Condition != "rain" {
		t.Errorf("condition = %q, want rain", f.Condition)
	}
	if f.Unit != "F" {
		t.Errorf("unit = %q, want F", f.Unit)
	}

	if _, ok := svc.Forecast(date("2024-07-01")); ok {
		t.Error("expected no forecast outside the window")
	}

	cur, ok := svc.Now()
	if !ok {
		t.Fatal("expected current conditions")
	}
	if cur.Temp != 68.5 {
		t.Errorf("current temp = %v, want 68.5", cur.Temp)
	}
	if cur.Condition != "partly-cloudy" {
		t.Errorf("current condition = %q, want partly-cloudy", cur.Condition)
	}

	if n := fetches.Load(); n != 1 {
		t.Errorf("fetches = %d, want 1 (lookups within TTL share one fetch)", n)
	}
}

func TestStaleServedOnFetchError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, forecastBody([]string{"2024-06-03"}))
	}))

	svc := NewService(Config{Latitude: 47.6, Longitude: -122.3})
	svc.baseURL = ts.URL

	if _, ok := svc.Forecast(date("2024-06-03")); !ok {
		t.Fatal("expected forecast from first fetch")
	}

	// Take the API away and expire the cache.
	ts.Close()
	svc.mu.Lock()
	svc.lastFetch = time.Now().Add(-cacheTTL - time.Minute)
	svc.mu.Unlock()

	f, ok := svc.Forecast(date("2024-06-03"))
	if !ok {
		t.Fatal("expected stale forecast after fetch failure")
	}
	if f.High != 70.0 {
		t.Errorf("stale high = %v, want 70", f.High)
	}
}

func TestDisabledWithoutLocation(t *testing.T) {
	svc := NewService(Config{})

	if svc.Enabled() {
		t.Error("expected service to be disabled with zero coordinates")
	}
	if _, ok := svc.Forecast(date("2024-06-03")); ok {
		t.Error("expected no forecast from a disabled service")
	}
	if _, ok := svc.Now(); ok {
		t.Error("expected no current conditions from a disabled service")
	}
}
