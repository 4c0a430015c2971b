package model

// NotificationSettings is passed into the reminder planner at call time;
// scheduling logic never reaches into ambient storage for preferences.
type NotificationSettings struct {
	Enabled bool `json:"enabled"`
	// LeadOffsets lists minutes-before-activity offsets to schedule,
	// e.g. [0, 5]. An empty slice means no reminders; never nil.
	LeadOffsets         []int `json:"lead_offsets"`
	RepeatUntilComplete bool  `json:"repeat_until_complete"`
	// RepeatIntervalMinutes spaces repeat-until-complete tail
	// occurrences.
	RepeatIntervalMinutes int `json:"repeat_interval_minutes"`
	// MaxRepeats caps tail occurrences so an abandoned activity does
	// not nag forever.
	MaxRepeats int `json:"max_repeats"`
}

// DefaultNotificationSettings returns the out-of-box reminder policy:
// a single at-time reminder plus a 5-minute heads-up, repeating every
// 10 minutes until completion, at most 6 times.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled:               true,
		LeadOffsets:           []int{0, 5},
		RepeatUntilComplete:   true,
		RepeatIntervalMinutes: 10,
		MaxRepeats:            6,
	}
}

// Normalize ensures offsets are an explicit empty slice rather than nil
// and clamps nonsense values so the planner stays total.
func (s NotificationSettings) Normalize() NotificationSettings {
	if s.LeadOffsets == nil {
		s.LeadOffsets = []int{}
	}
	if s.RepeatIntervalMinutes <= 0 {
		s.RepeatIntervalMinutes = 10
	}
	if s.MaxRepeats < 0 {
		s.MaxRepeats = 0
	}
	return s
}
