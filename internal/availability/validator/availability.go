package validator

import (
	"slices"

	"masterbook/internal/availability/resolver"
	"masterbook/pkg/logger"
	"masterbook/pkg/model"
	"masterbook/pkg/timerange"
	"masterbook/pkg/validation"
)

type AvailabilityValidator struct {
	validate *validation.Validator
	logger   *logger.Logger
}

func NewAvailabilityValidator(validate *validation.Validator, log *logger.Logger) *AvailabilityValidator {
	return &AvailabilityValidator{
		validate: validate,
		logger:   log,
	}
}

// ValidateUpdate checks the request shape and every provided field, then
// rewrites those fields in canonical stored form (numeric day keys, sorted
// windows, sorted unique days off).
func (v *AvailabilityValidator) ValidateUpdate(u *model.AvailabilityUpdate) error {
	if err := v.validate.Struct(u); err != nil {
		return err
	}

	if u.Weekly != nil {
		weekly, err := resolver.CompileWeekly(u.Weekly)
		if err != nil {
			return err
		}
		u.Weekly = weekly.Template()
	}

	if u.DaysOff != nil {
		daysOff, err := resolver.CompileDaysOff(u.DaysOff)
		if err != nil {
			return err
		}
		u.DaysOff = canonicalDates(daysOff)
	}

	if u.Blocks != nil {
		if _, err := resolver.CompileBlocks(u.Blocks); err != nil {
			return err
		}
	}

	return nil
}

func canonicalDates(dates map[timerange.Date]struct{}) []string {
	out := make([]string, 0, len(dates))
	for d := range dates {
		out = append(out, d.String())
	}
	slices.Sort(out)
	return out
}
