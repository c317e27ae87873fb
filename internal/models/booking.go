package models

import "time"

type Booking struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	TripID           int64      `json:"trip_id"`
	BookingDate      time.Time  `json:"booking_date"`
	NumberOfSeats    int        `json:"number_of_seats"`
	IsCancelled      bool       `json:"is_cancelled"`
	CancellationDate *time.Time `json:"cancellation_date"`
	UserName         string     `json:"user_name"`
	UserPhoneNumber  string     `json:"user_phone_number"`
}

// IsActive reports whether the booking still holds seats on its trip.
func (b *Booking) IsActive() bool {
	return b != nil && !b.IsCancelled
}

// BookingCandidate carries the fields of a create or partial update request.
// A nil field was not supplied by the client.
type BookingCandidate struct {
	TripID          *int64  `json:"trip"`
	NumberOfSeats   *int    `json:"number_of_seats"`
	IsCancelled     *bool   `json:"is_cancelled"`
	UserName        *string `json:"user_name"`
	UserPhoneNumber *string `json:"user_phone_number"`
}

// CancelRequested reports whether the candidate asks for the false->true cancel transition.
func (c BookingCandidate) CancelRequested() bool {
	return c.IsCancelled != nil && *c.IsCancelled
}

// BookingView is the read model returned to clients.
type BookingView struct {
	Booking
	User          string `json:"user"`
	TripDetails   *Trip  `json:"trip_details,omitempty"`
	TotalPrice    int64  `json:"total_price"`
	AssignedSeats []int  `json:"assigned_seats"`
}
