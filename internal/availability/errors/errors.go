package errors

import (
	"errors"

	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/timerange"
)

var (
	ErrNotFound = errors.New("availability profile not found")

	ErrOverlappingIntervals = errors.New("intervals overlap")
)

// Translate maps a schedule parsing failure onto the API error kinds. Errors it
// does not recognize are returned unchanged.
func Translate(err error) error {
	switch {
	case err == nil:
		return nil
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, ErrOverlappingIntervals):
		return apperrors.OverlappingIntervals(err.Error())
	case errors.Is(err, timerange.ErrInvalidDate):
		return apperrors.InvalidDate(err.Error())
	case errors.Is(err, timerange.ErrInvalidDuration):
		return apperrors.InvalidDuration(err.Error())
	case errors.Is(err, timerange.ErrDurationCrossesMidnight):
		return apperrors.DurationCrossesMidnight(err.Error())
	case errors.Is(err, timerange.ErrInvalidFormat),
		errors.Is(err, timerange.ErrInvalidInterval),
		errors.Is(err, timerange.ErrInvalidWeekday):
		return apperrors.InvalidFormat(err.Error())
	}
	return err
}
