package model

import "time"

// SchedulingLock is an advisory lock document guarding one scheduling domain
// (a provider on a date) while a booking is admitted.
type SchedulingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
