package timerange

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Interval is a half-open time-of-day range [Start, End).
type Interval struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

func NewInterval(start, end TimeOfDay) (Interval, error) {
	if !start.Valid() || end < 0 || end > MinutesPerDay || start >= end {
		return Interval{}, fmt.Errorf("%w: %s-%s", ErrInvalidInterval, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// EndOfDay is accepted as the end bound of an interval that runs until midnight.
const EndOfDay = "24:00"

// ParseInterval parses two HH:mm bounds into an Interval.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Interval{}, err
	}
	e := TimeOfDay(MinutesPerDay)
	if end != EndOfDay {
		if e, err = ParseTimeOfDay(end); err != nil {
			return Interval{}, err
		}
	}
	return NewInterval(s, e)
}

func (iv *Interval) UnmarshalJSON(data []byte) error {
	var raw struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseInterval(raw.Start, raw.End)
	if err != nil {
		return err
	}
	*iv = parsed
	return nil
}

// BookingWindow computes the interval occupied by an appointment starting at
// start and lasting duration minutes. An appointment must finish on the same
// calendar date: it may end at 24:00 but not past it.
func BookingWindow(start TimeOfDay, duration int) (Interval, error) {
	if duration <= 0 {
		return Interval{}, fmt.Errorf("%w: %d", ErrInvalidDuration, duration)
	}
	if !start.Valid() {
		return Interval{}, fmt.Errorf("%w: %d", ErrInvalidFormat, int(start))
	}
	if int(start)+duration > MinutesPerDay {
		return Interval{}, fmt.Errorf("%w: %s + %d min", ErrDurationCrossesMidnight, start, duration)
	}
	return Interval{Start: start, End: start + TimeOfDay(duration)}, nil
}

func (iv Interval) Duration() int {
	return int(iv.End - iv.Start)
}

func (iv Interval) String() string {
	return iv.Start.String() + "-" + iv.End.String()
}

// Overlaps reports whether a and b share at least one minute. Touching
// intervals ([09:00,10:00) and [10:00,11:00)) do not overlap.
func Overlaps(a, b Interval) bool {
	return max(a.Start, b.Start) < min(a.End, b.End)
}

func (iv Interval) Overlaps(other Interval) bool {
	return Overlaps(iv, other)
}

// Contains reports whether other lies entirely within iv.
func (iv Interval) Contains(other Interval) bool {
	return iv.Start <= other.Start && other.End <= iv.End
}

// Subtract removes block from iv, yielding zero, one or two intervals.
func (iv Interval) Subtract(block Interval) []Interval {
	if !Overlaps(iv, block) {
		return []Interval{iv}
	}
	var out []Interval
	if iv.Start < block.Start {
		out = append(out, Interval{Start: iv.Start, End: block.Start})
	}
	if block.End < iv.End {
		out = append(out, Interval{Start: block.End, End: iv.End})
	}
	return out
}

// Subtract removes block from every interval of set.
func Subtract(set []Interval, block Interval) []Interval {
	out := make([]Interval, 0, len(set)+1)
	for _, iv := range set {
		out = append(out, iv.Subtract(block)...)
	}
	return out
}

// SortByStart sorts set in place, ascending by start then end.
func SortByStart(set []Interval) {
	slices.SortFunc(set, func(a, b Interval) int {
		if a.Start != b.Start {
			return int(a.Start - b.Start)
		}
		return int(a.End - b.End)
	})
}

// Normalize returns a sorted copy of set with overlapping and touching
// intervals merged.
func Normalize(set []Interval) []Interval {
	if len(set) == 0 {
		return nil
	}
	sorted := slices.Clone(set)
	SortByStart(sorted)

	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if iv.Start <= last.End {
			last.End = max(last.End, iv.End)
			continue
		}
		out = append(out, iv)
	}
	return out
}

// FirstOverlap returns the first pair of overlapping intervals of a set sorted
// by start.
func FirstOverlap(sorted []Interval) (Interval, Interval, bool) {
	for i := 1; i < len(sorted); i++ {
		if Overlaps(sorted[i-1], sorted[i]) {
			return sorted[i-1], sorted[i], true
		}
	}
	return Interval{}, Interval{}, false
}

// Covered reports whether iv lies entirely inside one interval of set. set is
// expected to be normalized.
func Covered(set []Interval, iv Interval) bool {
	for _, open := range set {
		if open.Contains(iv) {
			return true
		}
	}
	return false
}
