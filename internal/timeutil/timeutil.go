// ABOUTME: Local-time cutoffs for the smart article views
// ABOUTME: Today and this-week boundaries computed in the local zone

package timeutil

import "time"

// StartOfToday returns local midnight of the current day.
func StartOfToday() time.Time {
	return StartOfDay(time.Now())
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns local midnight of the most recent Sunday. Run on
// a Sunday it returns today's midnight.
func StartOfWeek() time.Time {
	today := StartOfToday()
	return today.AddDate(0, 0, -int(today.Weekday()))
}
