package model

import "time"

// SlotCapacity is the fixed occupant ceiling per (date, time) slot.
// The per-row available_spots field exists for display but every slot is
// initialized to this value.
const SlotCapacity = 24

type TimeSlot struct {
	ID             string `json:"id,omitempty" bson:"_id,omitempty"`
	Date           string `json:"date" bson:"date"`
	Time           string `json:"time" bson:"time"`
	AvailableSpots int    `json:"available_spots" bson:"available_spots"`
	BookedSpots    int    `json:"booked_spots" bson:"booked_spots"`
}

// RemainingSpots is the informational remaining capacity for display.
func (s *TimeSlot) RemainingSpots() int {
	return s.AvailableSpots - s.BookedSpots
}

// SlotLock is an advisory lock document serializing admission checks for a
// single (date, time) slot. The unique _id insert is the acquisition.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
