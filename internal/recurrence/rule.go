// Package recurrence expands schedule repeat rules into concrete dates.
package recurrence

import (
	"fmt"
	"strings"
)

// Rule is a schedule repeat frequency.
type Rule int

const (
	Daily Rule = iota
	Weekdays
	Weekly
	Biweekly
	Monthly
)

var ruleNames = map[Rule]string{
	Daily:    "daily",
	Weekdays: "weekdays",
	Weekly:   "weekly",
	Biweekly: "biweekly",
	Monthly:  "monthly",
}

var ruleFromName = map[string]Rule{
	"daily":    Daily,
	"weekdays": Weekdays,
	"weekly":   Weekly,
	"biweekly": Biweekly,
	"monthly":  Monthly,
}

// Parse parses a rule name like "weekly" (case-insensitive).
func Parse(s string) (Rule, error) {
	r, ok := ruleFromName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown recurrence rule: %q", s)
	}
	return r, nil
}

// String returns the lowercase rule name.
func (r Rule) String() string {
	return ruleNames[r]
}

// Describe returns a human-readable description of the rule.
func (r Rule) Describe() string {
	switch r {
	case Daily:
		return "Repeats every day"
	case Weekdays:
		return "Repeats Monday through Friday"
	case Weekly:
		return "Repeats weekly"
	case Biweekly:
		return "Repeats every 2 weeks"
	case Monthly:
		return "Repeats monthly"
	}
	return ""
}
