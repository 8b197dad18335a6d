package timerange

import "errors"

var (
	ErrInvalidFormat = errors.New("time of day must be in HH:mm 24-hour format")

	ErrInvalidDate = errors.New("date must be a calendar day in YYYY-MM-DD format")

	ErrInvalidInterval = errors.New("interval start must be before its end")

	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")

	ErrDurationCrossesMidnight = errors.New("appointment would end on the following day")

	ErrInvalidWeekday = errors.New("weekday must be 0-6 (Sunday-Saturday) or a weekday name")
)
