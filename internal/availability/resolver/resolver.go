package resolver

import (
	"fmt"
	"iter"
	"slices"
	"time"

	availabilityerrors "masterbook/internal/availability/errors"
	"masterbook/pkg/model"
	"masterbook/pkg/timerange"
)

// OverlapError names the weekday and the two windows that collide.
type OverlapError struct {
	Weekday time.Weekday
	First   timerange.Interval
	Second  timerange.Interval
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s: %s overlaps %s", e.Weekday, e.First, e.Second)
}

func (e *OverlapError) Is(target error) bool {
	return target == availabilityerrors.ErrOverlappingIntervals
}

// Weekly is a parsed weekly template indexed by time.Weekday.
type Weekly [7][]timerange.Interval

// Schedule is an availability profile parsed once and resolved for any
// number of dates. It is immutable and safe for concurrent use.
type Schedule struct {
	weekly  Weekly
	daysOff map[timerange.Date]struct{}
	blocks  map[timerange.Date][]timerange.Interval
}

// Compile parses and checks every part of a profile. A nil profile compiles to
// an empty schedule.
func Compile(p *model.AvailabilityProfile) (*Schedule, error) {
	if p == nil {
		return &Schedule{}, nil
	}

	weekly, err := CompileWeekly(p.Weekly)
	if err != nil {
		return nil, err
	}
	daysOff, err := CompileDaysOff(p.DaysOff)
	if err != nil {
		return nil, err
	}
	blocks, err := CompileBlocks(p.Blocks)
	if err != nil {
		return nil, err
	}

	return &Schedule{weekly: weekly, daysOff: daysOff, blocks: blocks}, nil
}

// CompileWeekly parses every window of the template. Day keys may be "0".."6"
// or weekday names; two keys naming the same day are combined.
func CompileWeekly(t model.WeeklyTemplate) (Weekly, error) {
	var weekly Weekly

	keys := make([]string, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		day, err := timerange.ParseWeekday(key)
		if err != nil {
			return Weekly{}, err
		}
		for _, w := range t[key] {
			iv, err := timerange.ParseInterval(w.Start, w.End)
			if err != nil {
				return Weekly{}, fmt.Errorf("%s: %w", day, err)
			}
			weekly[day] = append(weekly[day], iv)
		}
	}

	for day := range weekly {
		timerange.SortByStart(weekly[day])
		if a, b, ok := timerange.FirstOverlap(weekly[day]); ok {
			return Weekly{}, &OverlapError{Weekday: time.Weekday(day), First: a, Second: b}
		}
	}

	return weekly, nil
}

func CompileDaysOff(dates []string) (map[timerange.Date]struct{}, error) {
	daysOff := make(map[timerange.Date]struct{}, len(dates))
	for _, s := range dates {
		d, err := timerange.ParseDate(s)
		if err != nil {
			return nil, err
		}
		daysOff[d] = struct{}{}
	}
	return daysOff, nil
}

func CompileBlocks(blocks []model.DateBlock) (map[timerange.Date][]timerange.Interval, error) {
	out := make(map[timerange.Date][]timerange.Interval)
	for _, b := range blocks {
		d, err := timerange.ParseDate(b.Date)
		if err != nil {
			return nil, err
		}
		iv, err := timerange.ParseInterval(b.Start, b.End)
		if err != nil {
			return nil, fmt.Errorf("block on %s: %w", d, err)
		}
		out[d] = append(out[d], iv)
	}
	return out, nil
}

// Template renders the parsed weekly template back to its canonical stored
// form: keys "0".."6", windows sorted, times zero padded. Empty days are omitted.
func (w Weekly) Template() model.WeeklyTemplate {
	out := model.WeeklyTemplate{}
	for day, intervals := range w {
		if len(intervals) == 0 {
			continue
		}
		windows := make([]model.TimeWindow, 0, len(intervals))
		for _, iv := range intervals {
			windows = append(windows, model.TimeWindow{Start: iv.Start.String(), End: iv.End.String()})
		}
		out[fmt.Sprint(day)] = windows
	}
	return out
}

func (s *Schedule) IsDayOff(date timerange.Date) bool {
	_, ok := s.daysOff[date]
	return ok
}

// OpenIntervals returns the open time on date: nothing on a day off, otherwise
// the weekday's windows minus that date's blocks, sorted with touching
// intervals merged.
func (s *Schedule) OpenIntervals(date timerange.Date) []timerange.Interval {
	if s.IsDayOff(date) {
		return nil
	}

	open := slices.Clone(s.weekly[date.Weekday()])
	for _, block := range s.blocks[date] {
		open = timerange.Subtract(open, block)
	}
	return timerange.Normalize(open)
}

// Resolve yields the open intervals of date in order. Each range over the
// sequence resolves afresh.
func (s *Schedule) Resolve(date timerange.Date) iter.Seq[timerange.Interval] {
	return func(yield func(timerange.Interval) bool) {
		for _, iv := range s.OpenIntervals(date) {
			if !yield(iv) {
				return
			}
		}
	}
}

// Admits reports whether iv lies entirely inside one open interval of date.
func (s *Schedule) Admits(date timerange.Date, iv timerange.Interval) bool {
	return timerange.Covered(s.OpenIntervals(date), iv)
}
