package domain

import (
	"context"
	"errors"
	"time"

	"tripseat/internal/models"
)

// ErrNotFound is returned by stores when the requested row does not exist.
var ErrNotFound = errors.New("not found")

type TripReader interface {
	GetTrip(ctx context.Context, id int64) (*models.Trip, error)
}

// BookingReader is the read side the validator and seat assigner depend on.
type BookingReader interface {
	// ActiveBookingsForTrip returns non-cancelled bookings ordered by (booking_date, id).
	ActiveBookingsForTrip(ctx context.Context, tripID int64) ([]*models.Booking, error)
	SumActiveSeats(ctx context.Context, tripID int64) (int, error)
	HasActiveBooking(ctx context.Context, userID, tripID int64) (bool, error)
}

type TripRepository interface {
	TripReader
	ListUpcomingTrips(ctx context.Context, now time.Time, limit int) ([]*models.Trip, error)
	GetAvailability(ctx context.Context, tripID int64) (*models.Availability, error)
}

type BookingRepository interface {
	BookingReader
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingSeats(ctx context.Context, id, tripID int64, seats int) error
	CancelBooking(ctx context.Context, id int64, at time.Time) error
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
}

type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// TripLocker serializes check-then-write for one trip.
type TripLocker interface {
	Lock(ctx context.Context, tripID int64) (unlock func(), err error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, actor models.User, candidate models.BookingCandidate) (*models.BookingView, error)
	UpdateBooking(ctx context.Context, actor models.User, id int64, candidate models.BookingCandidate) (*models.BookingView, error)
	GetBooking(ctx context.Context, actor models.User, id int64) (*models.BookingView, error)
	ListUserBookings(ctx context.Context, actor models.User) ([]*models.BookingView, error)
}

type TripService interface {
	ListUpcoming(ctx context.Context) ([]*models.Trip, error)
	GetTrip(ctx context.Context, id int64) (*models.Trip, error)
	Manifest(ctx context.Context, tripID int64) (*models.Trip, []*models.Booking, map[int64][]int, error)
}
