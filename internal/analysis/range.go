package analysis

import (
	"time"
)

// DateRange is a validated query interval. End is normalized to the last
// second of its calendar day, so a range where start and end name the same
// day still covers that whole day.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// rangeLayouts are the formats accepted for query date strings. Day-granular
// ISO dates are the primary form; the rest tolerate timestamps pasted from
// other tools.
var rangeLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// ValidateRange parses and sanity-checks a start/end date pair. Both inputs
// are normalized to UTC and end is advanced to the end of its calendar day
// (add one day, subtract one second). A start after the normalized end is
// rejected, never swapped.
func ValidateRange(start, end string) (DateRange, error) {
	s, err := parseRangeDate(start)
	if err != nil {
		return DateRange{}, &InvalidRangeError{Start: start, End: end, Reason: "cannot parse start date"}
	}

	e, err := parseRangeDate(end)
	if err != nil {
		return DateRange{}, &InvalidRangeError{Start: start, End: end, Reason: "cannot parse end date"}
	}

	// End of the end date's calendar day, whatever time of day was given.
	e = time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1).Add(-time.Second)

	if s.After(e) {
		return DateRange{}, &InvalidRangeError{Start: start, End: end, Reason: "start date cannot be after end date"}
	}

	return DateRange{Start: s, End: e}, nil
}

// Contains reports whether t falls inside the range, both ends inclusive.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func parseRangeDate(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range rangeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
