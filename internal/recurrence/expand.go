package recurrence

import (
	"github.com/dukerupert/brightday/internal/dateutil"
)

// Safety limit to prevent runaway expansion on a bad range.
const maxOccurrences = 1000

// Expand generates the sequence of dates a rule produces from start
// (exclusive) through end (inclusive), in increasing order. An end before
// start yields an empty slice, not an error.
//
// Monthly occurrences keep the start's day of month, clamped to the
// target month's length. Weekday occurrences re-check the day of week
// after every step rather than assuming alignment.
func Expand(start dateutil.Date, rule Rule, end dateutil.Date) []dateutil.Date {
	if end.Before(start) {
		return nil
	}

	var dates []dateutil.Date
	it := newIterator(rule, start)
	for len(dates) < maxOccurrences {
		d := it.next()
		if d.After(end) {
			break
		}
		dates = append(dates, d)
	}
	return dates
}

type iterator struct {
	rule    Rule
	anchor  dateutil.Date
	current dateutil.Date
	months  int
}

func newIterator(rule Rule, start dateutil.Date) *iterator {
	return &iterator{rule: rule, anchor: start, current: start}
}

func (it *iterator) next() dateutil.Date {
	switch it.rule {
	case Daily:
		it.current = it.current.AddDays(1)
	case Weekdays:
		it.current = it.current.AddDays(1)
		for it.current.IsWeekend() {
			it.current = it.current.AddDays(1)
		}
	case Weekly:
		it.current = it.current.AddDays(7)
	case Biweekly:
		it.current = it.current.AddDays(14)
	case Monthly:
		// Offset from the anchor so the day of month doesn't drift
		// after passing through a short month.
		it.months++
		it.current = it.anchor.AddMonths(it.months)
	}
	return it.current
}
