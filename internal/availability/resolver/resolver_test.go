package resolver

import (
	"errors"
	"reflect"
	"slices"
	"testing"
	"time"

	availabilityerrors "masterbook/internal/availability/errors"
	"masterbook/pkg/model"
	"masterbook/pkg/timerange"
)

var monday = timerange.MustParseDate("2024-06-03")

func iv(start, end string) timerange.Interval {
	i, err := timerange.ParseInterval(start, end)
	if err != nil {
		panic(err)
	}
	return i
}

func mondayNineToFive() *model.AvailabilityProfile {
	return &model.AvailabilityProfile{
		MasterID: "master-1",
		Weekly: model.WeeklyTemplate{
			"1": {{Start: "09:00", End: "17:00"}},
		},
	}
}

func mustCompile(t *testing.T, p *model.AvailabilityProfile) *Schedule {
	t.Helper()
	s, err := Compile(p)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return s
}

func TestOpenIntervals(t *testing.T) {
	tests := []struct {
		name    string
		profile func() *model.AvailabilityProfile
		date    timerange.Date
		want    []timerange.Interval
	}{
		{
			name:    "weekly template only",
			profile: mondayNineToFive,
			date:    monday,
			want:    []timerange.Interval{iv("09:00", "17:00")},
		},
		{
			name:    "other weekday is closed",
			profile: mondayNineToFive,
			date:    timerange.MustParseDate("2024-06-04"),
			want:    nil,
		},
		{
			name: "block splits the day",
			profile: func() *model.AvailabilityProfile {
				p := mondayNineToFive()
				p.Blocks = []model.DateBlock{{Date: "2024-06-03", Start: "12:00", End: "13:00"}}
				return p
			},
			date: monday,
			want: []timerange.Interval{iv("09:00", "12:00"), iv("13:00", "17:00")},
		},
		{
			name: "block on another date is ignored",
			profile: func() *model.AvailabilityProfile {
				p := mondayNineToFive()
				p.Blocks = []model.DateBlock{{Date: "2024-06-10", Start: "12:00", End: "13:00"}}
				return p
			},
			date: monday,
			want: []timerange.Interval{iv("09:00", "17:00")},
		},
		{
			name: "blocks trim both ends",
			profile: func() *model.AvailabilityProfile {
				p := mondayNineToFive()
				p.Blocks = []model.DateBlock{
					{Date: "2024-06-03", Start: "08:00", End: "10:00"},
					{Date: "2024-06-03", Start: "16:30", End: "18:00"},
				}
				return p
			},
			date: monday,
			want: []timerange.Interval{iv("10:00", "16:30")},
		},
		{
			name: "block covering the whole window",
			profile: func() *model.AvailabilityProfile {
				p := mondayNineToFive()
				p.Blocks = []model.DateBlock{{Date: "2024-06-03", Start: "00:00", End: "24:00"}}
				return p
			},
			date: monday,
			want: nil,
		},
		{
			name: "day off wins over template and blocks",
			profile: func() *model.AvailabilityProfile {
				p := mondayNineToFive()
				p.DaysOff = []string{"2024-06-03"}
				p.Blocks = []model.DateBlock{{Date: "2024-06-03", Start: "12:00", End: "13:00"}}
				return p
			},
			date: monday,
			want: nil,
		},
		{
			name: "touching windows are merged",
			profile: func() *model.AvailabilityProfile {
				return &model.AvailabilityProfile{Weekly: model.WeeklyTemplate{
					"monday": {{Start: "13:00", End: "17:00"}, {Start: "09:00", End: "13:00"}},
				}}
			},
			date: monday,
			want: []timerange.Interval{iv("09:00", "17:00")},
		},
		{
			name:    "empty profile",
			profile: func() *model.AvailabilityProfile { return model.EmptyAvailabilityProfile("m") },
			date:    monday,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustCompile(t, tt.profile())
			got := s.OpenIntervals(tt.date)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("OpenIntervals() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpenIntervals_DayOffAlwaysEmpty(t *testing.T) {
	p := &model.AvailabilityProfile{
		Weekly:  model.WeeklyTemplate{},
		DaysOff: []string{"2024-06-03"},
	}
	for day := range 7 {
		p.Weekly[string(rune('0'+day))] = []model.TimeWindow{{Start: "00:00", End: "24:00"}}
	}
	s := mustCompile(t, p)

	if got := s.OpenIntervals(monday); len(got) != 0 {
		t.Errorf("expected no open time on a day off, got %v", got)
	}
	if got := s.OpenIntervals(timerange.MustParseDate("2024-06-04")); len(got) != 1 {
		t.Errorf("expected the following day to stay open, got %v", got)
	}
}

func TestOpenIntervals_BlockIdempotent(t *testing.T) {
	once := mondayNineToFive()
	once.Blocks = []model.DateBlock{{Date: "2024-06-03", Start: "12:00", End: "13:00"}}

	twice := mondayNineToFive()
	twice.Blocks = []model.DateBlock{
		{Date: "2024-06-03", Start: "12:00", End: "13:00"},
		{Date: "2024-06-03", Start: "12:00", End: "13:00"},
	}

	a := mustCompile(t, once).OpenIntervals(monday)
	b := mustCompile(t, twice).OpenIntervals(monday)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("applying a block twice changed the result: %v vs %v", a, b)
	}
}

func TestResolve_Restartable(t *testing.T) {
	p := mondayNineToFive()
	p.Blocks = []model.DateBlock{{Date: "2024-06-03", Start: "12:00", End: "13:00"}}
	seq := mustCompile(t, p).Resolve(monday)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !reflect.DeepEqual(first, second) || len(first) != 2 {
		t.Errorf("expected two identical passes, got %v and %v", first, second)
	}

	for got := range seq {
		if got != iv("09:00", "12:00") {
			t.Errorf("first yielded interval = %s", got)
		}
		break
	}
}

func TestAdmits(t *testing.T) {
	p := mondayNineToFive()
	p.Blocks = []model.DateBlock{{Date: "2024-06-03", Start: "12:00", End: "13:00"}}
	s := mustCompile(t, p)

	tests := []struct {
		slot timerange.Interval
		want bool
	}{
		{iv("09:00", "10:00"), true},
		{iv("11:00", "12:00"), true},
		{iv("11:30", "12:30"), false},
		{iv("08:00", "08:30"), false},
		{iv("16:30", "17:00"), true},
		{iv("16:30", "17:30"), false},
	}
	for _, tt := range tests {
		if got := s.Admits(monday, tt.slot); got != tt.want {
			t.Errorf("Admits(%s) = %v, want %v", tt.slot, got, tt.want)
		}
	}
}

func TestCompileWeekly_Overlap(t *testing.T) {
	_, err := CompileWeekly(model.WeeklyTemplate{
		"2": {{Start: "09:00", End: "12:00"}, {Start: "11:00", End: "14:00"}},
	})

	if !errors.Is(err, availabilityerrors.ErrOverlappingIntervals) {
		t.Fatalf("expected ErrOverlappingIntervals, got %v", err)
	}
	var overlap *OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("expected *OverlapError, got %T", err)
	}
	if overlap.Weekday != time.Tuesday || overlap.First != iv("09:00", "12:00") || overlap.Second != iv("11:00", "14:00") {
		t.Errorf("unexpected overlap details: %+v", overlap)
	}
	if err.Error() != "Tuesday: 09:00-12:00 overlaps 11:00-14:00" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestCompileWeekly_LegacyKeysShareADay(t *testing.T) {
	_, err := CompileWeekly(model.WeeklyTemplate{
		"1":      {{Start: "09:00", End: "12:00"}},
		"monday": {{Start: "10:00", End: "11:00"}},
	})
	if !errors.Is(err, availabilityerrors.ErrOverlappingIntervals) {
		t.Errorf("windows under two keys for the same day must be checked together, got %v", err)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		profile *model.AvailabilityProfile
		want    error
	}{
		{
			name:    "bad time",
			profile: &model.AvailabilityProfile{Weekly: model.WeeklyTemplate{"1": {{Start: "9:00", End: "17:00"}}}},
			want:    timerange.ErrInvalidFormat,
		},
		{
			name:    "inverted window",
			profile: &model.AvailabilityProfile{Weekly: model.WeeklyTemplate{"1": {{Start: "17:00", End: "09:00"}}}},
			want:    timerange.ErrInvalidInterval,
		},
		{
			name:    "zero length window",
			profile: &model.AvailabilityProfile{Weekly: model.WeeklyTemplate{"1": {{Start: "09:00", End: "09:00"}}}},
			want:    timerange.ErrInvalidInterval,
		},
		{
			name:    "unknown day",
			profile: &model.AvailabilityProfile{Weekly: model.WeeklyTemplate{"7": {{Start: "09:00", End: "17:00"}}}},
			want:    timerange.ErrInvalidWeekday,
		},
		{
			name:    "bad day off",
			profile: &model.AvailabilityProfile{DaysOff: []string{"2024-02-30"}},
			want:    timerange.ErrInvalidDate,
		},
		{
			name:    "bad block date",
			profile: &model.AvailabilityProfile{Blocks: []model.DateBlock{{Date: "03/06/2024", Start: "09:00", End: "10:00"}}},
			want:    timerange.ErrInvalidDate,
		},
		{
			name:    "bad block time",
			profile: &model.AvailabilityProfile{Blocks: []model.DateBlock{{Date: "2024-06-03", Start: "25:00", End: "26:00"}}},
			want:    timerange.ErrInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile(tt.profile); !errors.Is(err, tt.want) {
				t.Errorf("Compile() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompile_BlockOnDayOffIsInert(t *testing.T) {
	p := mondayNineToFive()
	p.DaysOff = []string{"2024-06-03"}
	p.Blocks = []model.DateBlock{{Date: "2024-06-03", Start: "10:00", End: "11:00"}}

	if _, err := Compile(p); err != nil {
		t.Errorf("a block on a day off must not be an error: %v", err)
	}
}

func TestWeekly_Template(t *testing.T) {
	weekly, err := CompileWeekly(model.WeeklyTemplate{
		"Sunday": {{Start: "13:00", End: "18:00"}, {Start: "08:00", End: "12:00"}},
		"sat":    {{Start: "10:00", End: "24:00"}},
	})
	if err != nil {
		t.Fatalf("CompileWeekly: %v", err)
	}

	want := model.WeeklyTemplate{
		"0": {{Start: "08:00", End: "12:00"}, {Start: "13:00", End: "18:00"}},
		"6": {{Start: "10:00", End: "24:00"}},
	}
	if got := weekly.Template(); !reflect.DeepEqual(got, want) {
		t.Errorf("Template() = %v, want %v", got, want)
	}
}
