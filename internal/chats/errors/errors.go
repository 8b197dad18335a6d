package errors

import "errors"

var (
	ErrNotFound = errors.New("chat not found")

	// ErrAlreadyExists is returned when a chat for the booking is already stored.
	ErrAlreadyExists = errors.New("chat already exists for booking")
)
