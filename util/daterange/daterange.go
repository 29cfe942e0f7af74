// Package daterange models inclusive calendar-date ranges used for rentals.
//
// Both ends are inclusive and carry no time component. Two ranges that share a
// single boundary date overlap: equipment returned on a day cannot go out again
// that same day.
package daterange

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const Layout = "2006-01-02"

var (
	ErrInvalid = errors.New("invalid date range")
	ErrInPast  = errors.New("start date is in the past")
)

type Range struct {
	Start time.Time
	End   time.Time
}

// Day truncates t to its calendar date at UTC midnight. The calendar date is
// taken in t's own location so a local date never shifts by a day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// New builds a normalized range and rejects start > end.
func New(start, end time.Time) (Range, error) {
	r := Range{Start: Day(start), End: Day(end)}
	if !IsValid(r) {
		return Range{}, fmt.Errorf("%w: end %s before start %s", ErrInvalid, r.End.Format(Layout), r.Start.Format(Layout))
	}
	return r, nil
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(Layout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unparsable date %q", ErrInvalid, s)
	}
	return Day(t), nil
}

func Parse(start, end string) (Range, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Range{}, err
	}
	return New(s, e)
}

func IsValid(r Range) bool {
	if r.Start.IsZero() || r.End.IsZero() {
		return false
	}
	return !Day(r.End).Before(Day(r.Start))
}

// IsValidStrings is IsValid for ISO strings; unparsable input is invalid.
func IsValidStrings(start, end string) bool {
	_, err := Parse(start, end)
	return err == nil
}

// IsInFuture reports whether d is today or later.
func IsInFuture(d time.Time) bool { return IsInFutureAt(d, time.Now()) }

func IsInFutureAt(d, now time.Time) bool {
	return !Day(d).Before(Day(now))
}

// Overlaps is the inclusive test a.start <= b.end && b.start <= a.end.
func Overlaps(a, b Range) bool {
	return !Day(a.Start).After(Day(b.End)) && !Day(b.Start).After(Day(a.End))
}

// ValidateRental rejects inverted ranges and ranges starting before today.
func ValidateRental(r Range, now time.Time) error {
	if !IsValid(r) {
		return ErrInvalid
	}
	if !IsInFutureAt(r.Start, now) {
		return ErrInPast
	}
	return nil
}

// Days counts calendar days, both ends included.
func (r Range) Days() int {
	if !IsValid(r) {
		return 0
	}
	return int(Day(r.End).Sub(Day(r.Start)).Hours()/24) + 1
}

func (r Range) String() string {
	return r.Start.Format(Layout) + ".." + r.End.Format(Layout)
}

type rangeJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(rangeJSON{Start: r.Start.Format(Layout), End: r.End.Format(Layout)})
}

func (r *Range) UnmarshalJSON(b []byte) error {
	var raw rangeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out, err := Parse(raw.Start, raw.End)
	if err != nil {
		return err
	}
	*r = out
	return nil
}
