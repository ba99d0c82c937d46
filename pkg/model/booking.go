package model

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"

	// Payment was removed from the booking flow; the fields are retained
	// on the document and pinned to these values.
	PaymentNotRequired = "not_required"
	CurrencyINR        = "inr"

	// PricePerGuest is the per-person rate used for the informational
	// estimated amount. Never charged.
	PricePerGuest = 1500

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// CountedStatuses are the booking statuses that occupy slot capacity.
var CountedStatuses = []string{StatusPending, StatusConfirmed}

type Booking struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name            string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email           string    `json:"email" bson:"email" validate:"required,email"`
	Phone           string    `json:"phone" bson:"phone" validate:"required,min=7,max=20"`
	BookingDate     string    `json:"booking_date" bson:"booking_date" validate:"required,datetime=2006-01-02"`
	BookingTime     string    `json:"booking_time" bson:"booking_time" validate:"required,datetime=15:04"`
	NumberOfGuests  int       `json:"number_of_guests" bson:"number_of_guests" validate:"required,min=1"`
	SpecialRequests string    `json:"special_requests" bson:"special_requests" validate:"omitempty,max=1000"`
	Status          string    `json:"status" bson:"status" validate:"omitempty,oneof=pending confirmed cancelled"`
	PaymentStatus   string    `json:"payment_status" bson:"payment_status"`
	AmountPaid      int       `json:"amount_paid" bson:"amount_paid"`
	Currency        string    `json:"currency" bson:"currency"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`

	// EstimatedAmount is informational only (guests x per-person rate),
	// computed at creation time and never charged or persisted.
	EstimatedAmount int `json:"estimated_amount,omitempty" bson:"-"`
}

// Counted reports whether the booking occupies capacity in its slot.
func (b *Booking) Counted() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// StartsAt combines booking_date and booking_time into a wall-clock time.
func (b *Booking) StartsAt() (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, b.BookingDate+" "+b.BookingTime, time.Local)
}

type BookingUpdate struct {
	Status         string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled"`
	BookingDate    string `json:"booking_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	BookingTime    string `json:"booking_time,omitempty" validate:"omitempty,datetime=15:04"`
	NumberOfGuests *int   `json:"number_of_guests,omitempty" validate:"omitempty,min=1"`
}

type BookingStats struct {
	TotalBookings int64 `json:"total_bookings"`
	Pending       int64 `json:"pending"`
	Confirmed     int64 `json:"confirmed"`
	Cancelled     int64 `json:"cancelled"`
}
