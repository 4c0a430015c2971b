// Package weather fetches a short daily forecast from Open-Meteo for
// the schedule day view. No API key is required; an unconfigured
// service just reports nothing available.
package weather

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dukerupert/brightday/internal/dateutil"
)

const (
	cacheTTL     = 30 * time.Minute
	forecastDays = 7
)

// Config holds the device location. Zero coordinates mean the weather
// panel is disabled.
type Config struct {
	Latitude  float64
	Longitude float64
	// Unit is "fahrenheit" or "celsius".
	Unit string
}

// DayForecast is the outlook for one calendar date.
type DayForecast struct {
	Date        dateutil.Date `json:"date"`
	High        float64       `json:"high"`
	Low         float64       `json:"low"`
	Condition   string        `json:"condition"`
	Description string        `json:"description"`
	Unit        string        `json:"unit"`
}

// Current is the present conditions reading.
type Current struct {
	Temp        float64 `json:"temp"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
}

// Service caches a rolling forecast window. Lookups never block on the
// network beyond one fetch per TTL; on fetch failure the stale window
// is served rather than dropped.
type Service struct {
	cfg     Config
	client  *http.Client
	baseURL string

	mu        sync.RWMutex
	days      map[dateutil.Date]DayForecast
	current   Current
	hasData   bool
	lastFetch time.Time
}

func NewService(cfg Config) *Service {
	if cfg.Unit != "celsius" {
		cfg.Unit = "fahrenheit"
	}
	return &Service{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://api.open-meteo.com/v1/forecast",
		days:    make(map[dateutil.Date]DayForecast),
	}
}

// Enabled reports whether a location is configured.
func (s *Service) Enabled() bool {
	return s.cfg.Latitude != 0 || s.cfg.Longitude != 0
}

// Forecast returns the outlook for a date within the forecast window.
// The second return is false when the service is disabled, the date is
// out of range, or no fetch has succeeded yet.
func (s *Service) Forecast(date dateutil.Date) (DayForecast, bool) {
	if !s.Enabled() {
		return DayForecast{}, false
	}
	s.refresh()

	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.days[date]
	return f, ok
}

// Now returns current conditions.
func (s *Service) Now() (Current, bool) {
	if !s.Enabled() {
		return Current{}, false
	}
	s.refresh()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.hasData
}

func (s *Service) refresh() {
	s.mu.RLock()
	fresh := s.hasData && time.Since(s.lastFetch) < cacheTTL
	s.mu.RUnlock()
	if fresh {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasData && time.Since(s.lastFetch) < cacheTTL {
		return
	}

	days, current, err := s.fetch()
	if err != nil {
		// Keep serving the stale window.
		return
	}
	s.days = days
	s.current = current
	s.hasData = true
	s.lastFetch = time.Now()
}

type apiResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Time        []string  `json:"time"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
		WeatherCode []int     `json:"weather_code"`
	} `json:"daily"`
}

func (s *Service) fetch() (map[dateutil.Date]DayForecast, Current, error) {
	url := fmt.Sprintf(
		"%s?latitude=%g&longitude=%g&current=temperature_2m,weather_code&daily=temperature_2m_max,temperature_2m_min,weather_code&timezone=auto&forecast_days=%d&temperature_unit=%s",
		s.baseURL, s.cfg.Latitude, s.cfg.Longitude, forecastDays, s.cfg.Unit,
	)

	resp, err := s.client.Get(url)
	if err != nil {
		return nil, Current{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, Current{}, fmt.Errorf("weather API returned %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, Current{}, fmt.Errorf("decode weather response: %w", err)
	}

	unit := "F"
	if s.cfg.Unit == "celsius" {
		unit = "C"
	}

	days := make(map[dateutil.Date]DayForecast, len(body.Daily.Time))
	for i, raw := range body.Daily.Time {
		d, err := dateutil.Parse(raw)
		if err != nil {
			continue
		}
		f := DayForecast{Date: d, Unit: unit}
		if i < len(body.Daily.TempMax) {
			f.High = body.Daily.TempMax[i]
		}
		if i < len(body.Daily.TempMin) {
			f.Low = body.Daily.TempMin[i]
		}
		if i < len(body.Daily.WeatherCode) {
			f.Condition, f.Description = Condition(body.Daily.WeatherCode[i])
		}
		days[d] = f
	}

	cond, desc := Condition(body.Current.WeatherCode)
	current := Current{
		Temp:        body.Current.Temperature,
		Condition:   cond,
		Description: desc,
		Unit:        unit,
	}
	return days, current, nil
}

// Condition maps a WMO weather code to a stable condition key (the UI
// picks an icon off it) and a human-readable description.
func Condition(code int) (string, string) {
	switch {
	case code == 0:
		return "clear", "Clear sky"
	case code <= 2:
		return "partly-cloudy", "Partly cloudy"
	case code == 3:
		return "overcast", "Overcast"
	case code == 45 || code == 48:
		return "fog", "Foggy"
	case code >= 51 && code <= 57:
		return "drizzle", "Drizzle"
	case code >= 61 && code <= 67:
		return "rain", "Rain"
	case code >= 71 && code <= 77:
		return "snow", "Snow"
	case code >= 80 && code <= 82:
		return "showers", "Rain showers"
	case code == 85 || code == 86:
		return "snow", "Snow showers"
	case code >= 95:
		return "thunderstorm", "Thunderstorm"
	default:
		return "unknown", "Unknown"
	}
}
