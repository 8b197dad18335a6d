package model

import "time"

// TimeWindow is an HH:mm range as stored and transmitted.
type TimeWindow struct {
	Start string `json:"start" bson:"start"`
	End   string `json:"end" bson:"end"`
}

// DateBlock closes [Start, End) on a single date regardless of the weekly template.
type DateBlock struct {
	Date  string `json:"date" bson:"date"`
	Start string `json:"start" bson:"start"`
	End   string `json:"end" bson:"end"`
}

// WeeklyTemplate maps a weekday key to that day's working windows. Stored
// keys are "0" (Sunday) through "6" (Saturday).
type WeeklyTemplate map[string][]TimeWindow

type AvailabilityProfile struct {
	ID        string         `json:"-" bson:"_id,omitempty"`
	MasterID  string         `json:"masterId" bson:"master_id"`
	Weekly    WeeklyTemplate `json:"weekly" bson:"weekly"`
	DaysOff   []string       `json:"daysOff" bson:"days_off"`
	Blocks    []DateBlock    `json:"blocks" bson:"blocks"`
	UpdatedAt time.Time      `json:"updatedAt,omitzero" bson:"updated_at,omitempty"`
}

// EmptyAvailabilityProfile is what a provider who never configured a schedule has.
func EmptyAvailabilityProfile(masterID string) *AvailabilityProfile {
	return &AvailabilityProfile{
		MasterID: masterID,
		Weekly:   WeeklyTemplate{},
		DaysOff:  []string{},
		Blocks:   []DateBlock{},
	}
}

// AvailabilityUpdate replaces each non-nil field wholesale.
type AvailabilityUpdate struct {
	MasterID string         `json:"masterId" validate:"required,entity_id"`
	Weekly   WeeklyTemplate `json:"weekly" validate:"omitempty,max=7,dive,max=48"`
	DaysOff  []string       `json:"daysOff" validate:"omitempty,max=1000"`
	Blocks   []DateBlock    `json:"blocks" validate:"omitempty,max=1000"`
}

func (u *AvailabilityUpdate) IsEmpty() bool {
	return u.Weekly == nil && u.DaysOff == nil && u.Blocks == nil
}
