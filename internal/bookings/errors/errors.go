package errors

import (
	"errors"

	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/timerange"
)

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrSlotTaken = errors.New("booking time conflicts with an active booking")

	// ErrStatusChanged is returned by a conditional status write when the
	// booking no longer has the expected status.
	ErrStatusChanged = errors.New("booking status changed concurrently")

	ErrScanLimitExceeded = errors.New("too many active bookings on this date")
)

// TranslateRequest maps a request parsing failure onto the API error kinds.
// Errors it does not recognize are returned unchanged.
func TranslateRequest(err error) error {
	switch {
	case err == nil:
		return nil
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, timerange.ErrInvalidDate):
		return apperrors.InvalidDate(err.Error())
	case errors.Is(err, timerange.ErrInvalidFormat):
		return apperrors.InvalidFormat(err.Error())
	case errors.Is(err, timerange.ErrInvalidDuration):
		return apperrors.InvalidDuration(err.Error())
	case errors.Is(err, timerange.ErrDurationCrossesMidnight):
		return apperrors.DurationCrossesMidnight(err.Error())
	}
	return err
}
