// Package lifecycle holds the booking state machine.
//
//	pending ──confirm──▶ confirmed ──complete──▶ completed
//	   │
//	   ├──decline──▶ declined
//	   └──cancel───▶ canceled
//
// Every other move is rejected and leaves the booking untouched.
package lifecycle

import (
	"errors"
	"fmt"

	"masterbook/pkg/model"
)

var (
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrNotPermitted      = errors.New("role may not apply this transition")
)

// Role is the relation of the acting party to a booking.
type Role string

const (
	RoleProvider Role = "provider"
	RoleClient   Role = "client"
	// RoleSystem is used by out-of-band processes such as completion jobs.
	RoleSystem Role = "system"
	RoleNone   Role = ""
)

var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.StatusPending:   {model.StatusConfirmed, model.StatusDeclined, model.StatusCanceled},
	model.StatusConfirmed: {model.StatusCompleted},
}

var permissions = map[model.BookingStatus][]Role{
	model.StatusConfirmed: {RoleProvider},
	model.StatusDeclined:  {RoleProvider},
	model.StatusCanceled:  {RoleProvider, RoleClient},
	model.StatusCompleted: {RoleProvider, RoleSystem},
}

// RoleOf classifies uid against booking b.
func RoleOf(b *model.Booking, uid string) Role {
	switch {
	case uid == "":
		return RoleNone
	case uid == b.MasterID:
		return RoleProvider
	case uid == b.ClientID:
		return RoleClient
	default:
		return RoleNone
	}
}

// Permitted reports whether role may move a booking into status to.
func Permitted(role Role, to model.BookingStatus) bool {
	for _, r := range permissions[to] {
		if r == role {
			return true
		}
	}
	return false
}

// CanTransition reports whether from → to is an edge of the state machine.
func CanTransition(from, to model.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Check validates a move by role. Permission is checked first so that a
// stranger learns nothing about the booking's current state.
func Check(from, to model.BookingStatus, role Role) error {
	if !Permitted(role, to) {
		return fmt.Errorf("%w: %s cannot set %s", ErrNotPermitted, roleName(role), to)
	}
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// IsActive reports whether a booking in status s occupies its time slot.
func IsActive(s model.BookingStatus) bool {
	return s == model.StatusPending || s == model.StatusConfirmed
}

func IsTerminal(s model.BookingStatus) bool {
	return len(transitions[s]) == 0
}

// ActiveStatuses lists the statuses that occupy a slot.
func ActiveStatuses() []model.BookingStatus {
	return []model.BookingStatus{model.StatusPending, model.StatusConfirmed}
}

type TransitionError struct {
	From model.BookingStatus
	To   model.BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func roleName(r Role) string {
	if r == RoleNone {
		return "non-participant"
	}
	return string(r)
}
