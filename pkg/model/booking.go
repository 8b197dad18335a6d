package model

import (
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusDeclined  BookingStatus = "declined"
	StatusCanceled  BookingStatus = "canceled"
	StatusCompleted BookingStatus = "completed"
)

type Booking struct {
	ID              string        `json:"id,omitempty" bson:"_id,omitempty"`
	ListingID       string        `json:"listingId" bson:"listing_id"`
	MasterID        string        `json:"masterId" bson:"master_id"`
	ClientID        string        `json:"clientId,omitempty" bson:"client_id,omitempty"`
	Date            string        `json:"date" bson:"date"`
	Time            string        `json:"time" bson:"time"`
	EndTime         string        `json:"endTime" bson:"end_time"`
	DurationMinutes int           `json:"durationMinutes" bson:"duration_minutes"`
	Status          BookingStatus `json:"status" bson:"status"`
	Note            string        `json:"note,omitempty" bson:"note,omitempty"`
	ContactName     string        `json:"contactName,omitempty" bson:"contact_name,omitempty"`
	ContactPhone    string        `json:"contactPhone,omitempty" bson:"contact_phone,omitempty"`
	CreatedAt       time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time     `json:"updatedAt" bson:"updated_at"`
}

// IsParticipant reports whether uid is the booking's provider or client.
func (b *Booking) IsParticipant(uid string) bool {
	if uid == "" {
		return false
	}
	return uid == b.MasterID || uid == b.ClientID
}

type Contact struct {
	Name  string `json:"name,omitempty" validate:"omitempty,max=100"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

type BookingRequest struct {
	ListingID string  `json:"listingId" validate:"required,entity_id"`
	MasterID  string  `json:"masterId" validate:"required,entity_id"`
	ClientID  string  `json:"clientId,omitempty" validate:"omitempty,entity_id"`
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	Duration  int     `json:"duration"`
	Note      string  `json:"note,omitempty" validate:"max=1000"`
	Contact   Contact `json:"contact"`

	// Flat contact fields sent by older clients.
	ContactName  string `json:"contactName,omitempty" validate:"omitempty,max=100"`
	ContactPhone string `json:"contactPhone,omitempty" validate:"omitempty,max=32"`
}

type BookingStatusUpdate struct {
	Status BookingStatus `json:"status" validate:"required,oneof=confirmed declined canceled completed"`
}
