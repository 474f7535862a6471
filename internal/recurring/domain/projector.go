package domain

import (
	"errors"
	"time"
)

// ErrUnknownFrequency marks a template whose frequency column holds a value
// the projector does not recognize. Advancing such a template would silently
// corrupt its schedule, so the caller must surface it instead.
var ErrUnknownFrequency = errors.New("unknown_frequency")

// IsDue reports whether an active template should materialize at asOf.
// Inactive templates are never due, however far past their date.
func IsDue(template RecurringInvoice, asOf time.Time) bool {
	return template.IsActive && !template.NextDueDate.After(asOf)
}

// Advance computes the next occurrence after from. Calendar-month frequencies
// clamp to the last day of shorter months: Jan 31 advanced monthly lands on
// Feb 28 (or 29), not Mar 2 or 3 the way AddDate would roll over.
func Advance(freq Frequency, from time.Time) (time.Time, error) {
	switch freq {
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7), nil
	case FrequencyMonthly:
		return addMonthsClamped(from, 1), nil
	case FrequencyQuarterly:
		return addMonthsClamped(from, 3), nil
	case FrequencyAnnually:
		return addMonthsClamped(from, 12), nil
	default:
		return time.Time{}, ErrUnknownFrequency
	}
}

func addMonthsClamped(from time.Time, months int) time.Time {
	year, month, day := from.Date()
	hour, minute, second := from.Clock()

	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, from.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		hour, minute, second, from.Nanosecond(), from.Location())
}
