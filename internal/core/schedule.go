package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownInterval is returned for any interval outside the four supported
// values. An unrecognized interval fails loudly rather than silently leaving
// the schedule unchanged.
var ErrUnknownInterval = errors.New("unknown recurring interval")

type nextDateFunc func(time.Time) time.Time

// nextDateFuncs maps each interval to its date-advance rule. The registry
// mirrors the dueness-checker registry and keeps NextDate an O(1) lookup.
var nextDateFuncs = map[RecurringInterval]nextDateFunc{
	Daily:   func(t time.Time) time.Time { return t.AddDate(0, 0, 1) },
	Weekly:  func(t time.Time) time.Time { return t.AddDate(0, 0, 7) },
	Monthly: func(t time.Time) time.Time { return t.AddDate(0, 1, 0) },
	Yearly:  func(t time.Time) time.Time { return t.AddDate(1, 0, 0) },
}

// NextDate computes the next due date for a recurring transaction.
//
// Month and year arithmetic uses time.AddDate, which normalizes overflow
// rather than clamping: Jan 31 + 1 month is Mar 2 (Mar 3 in leap years),
// because the nonexistent Feb 31 rolls forward. This is the documented
// behavior and is pinned down in the tests.
func NextDate(from time.Time, interval RecurringInterval) (time.Time, error) {
	fn, ok := nextDateFuncs[interval]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownInterval, interval)
	}
	return fn(from), nil
}
