package validator

import (
	"errors"

	"masterbook/pkg/logger"
	"masterbook/pkg/model"
	"masterbook/pkg/sanitizer"
	"masterbook/pkg/timerange"
	"masterbook/pkg/validation"
)

// Slot is the parsed, validated position of a requested appointment.
type Slot struct {
	Date   timerange.Date
	Window timerange.Interval
}

type BookingValidator struct {
	validate    *validation.Validator
	phoneRegion string
	logger      *logger.Logger
}

func NewBookingValidator(validate *validation.Validator, phoneRegion string, log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate:    validate,
		phoneRegion: phoneRegion,
		logger:      log,
	}
}

// ValidateRequest checks the request shape, parses its date and time and
// computes the occupied window. Contact fields are normalized in place: the
// nested contact object wins over the flat fields and the phone is rendered in
// E.164.
func (v *BookingValidator) ValidateRequest(req *model.BookingRequest) (*Slot, error) {
	v.sanitize(req)

	if err := v.validate.Struct(req); err != nil {
		return nil, err
	}

	if req.Contact.Phone != "" {
		phone, err := sanitizer.NormalizePhone(req.Contact.Phone, v.phoneRegion)
		if err != nil {
			return nil, validation.ValidationErrors{{
				Field:   "contact.phone",
				Message: "must be a valid phone number",
			}}
		}
		req.Contact.Phone = phone
	}

	date, err := timerange.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	start, err := timerange.ParseTimeOfDay(req.Time)
	if err != nil {
		return nil, err
	}
	window, err := timerange.BookingWindow(start, req.Duration)
	if err != nil {
		return nil, err
	}

	return &Slot{Date: date, Window: window}, nil
}

// ValidateStatus accepts only the statuses a caller may ask for.
func (v *BookingValidator) ValidateStatus(update *model.BookingStatusUpdate) error {
	err := v.validate.Struct(update)
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		for i := range verrs {
			if verrs[i].Field == "status" {
				verrs[i].Message = "must be one of: confirmed, declined, canceled, completed"
			}
		}
	}
	return err
}

func (v *BookingValidator) sanitize(req *model.BookingRequest) {
	if req.Contact.Name == "" {
		req.Contact.Name = req.ContactName
	}
	if req.Contact.Phone == "" {
		req.Contact.Phone = req.ContactPhone
	}
	req.ContactName, req.ContactPhone = "", ""

	req.Contact.Name = sanitizer.NormalizeName(req.Contact.Name)
	req.Note = sanitizer.NormalizeNote(req.Note)
}
