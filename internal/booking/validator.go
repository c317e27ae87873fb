package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripseat/internal/domain"
	"tripseat/internal/models"
)

const (
	fieldTrip        = "trip"
	fieldSeats       = "number_of_seats"
	fieldIsCancelled = "is_cancelled"
)

// Validated is the outcome of a successful Validate call.
type Validated struct {
	// Cancel is set when the request is the false->true cancel transition;
	// no other field is meaningful then.
	Cancel bool

	Trip          *models.Trip
	NumberOfSeats int
	// OwnerID is the acting user on create, the existing owner on update.
	OwnerID int64
}

// Validator applies the booking rules in a fixed order and reports the
// first failure. It never writes.
type Validator struct {
	trips    domain.TripReader
	bookings domain.BookingReader
	maxSeats int
	locale   string
}

func NewValidator(trips domain.TripReader, bookings domain.BookingReader, maxSeats int, locale string) *Validator {
	if maxSeats < 1 {
		maxSeats = models.DefaultMaxSeatsPerBooking
	}
	if !SupportedLocale(locale) {
		locale = models.DefaultLocale
	}
	return &Validator{
		trips:    trips,
		bookings: bookings,
		maxSeats: maxSeats,
		locale:   locale,
	}
}

// MaxSeats returns the per-booking seat cap in effect.
func (v *Validator) MaxSeats() int {
	return v.maxSeats
}

// Validate checks a create (existing == nil) or update request as seen at now.
// A *ValidationError is returned for rule failures; any other error comes
// from the readers.
func (v *Validator) Validate(
	ctx context.Context,
	candidate models.BookingCandidate,
	existing *models.Booking,
	actor models.User,
	now time.Time,
) (*Validated, error) {
	isUpdate := existing != nil

	if isUpdate && existing.IsCancelled {
		// cancellation is terminal: neither a second cancel nor an edit is allowed
		verr := v.reject(KindAlreadyCancelled, fieldIsCancelled, nil)
		if !candidate.CancelRequested() {
			verr.Message = message(v.locale, msgCancelledEdit)
		}
		return nil, verr
	}
	if isUpdate && candidate.CancelRequested() {
		return &Validated{Cancel: true, OwnerID: existing.UserID}, nil
	}

	trip, err := v.resolveTrip(ctx, candidate, existing)
	if err != nil {
		return nil, err
	}

	if trip.HasDeparted(now) {
		return nil, v.reject(KindTripAlreadyDeparted, fieldTrip, nil)
	}

	var seats int
	switch {
	case candidate.NumberOfSeats != nil:
		seats = *candidate.NumberOfSeats
	case isUpdate:
		seats = existing.NumberOfSeats
	default:
		return nil, v.reject(KindMissingSeatCount, fieldSeats, nil)
	}

	if seats < 1 {
		return nil, v.reject(KindInvalidSeatCount, fieldSeats, nil)
	}

	if seats > trip.AvailableSeats {
		available := trip.AvailableSeats
		return nil, v.reject(KindInsufficientAvailableSeats, fieldSeats, &available, available)
	}

	ownerID := actor.ID
	if isUpdate {
		ownerID = existing.UserID
	} else {
		dup, err := v.bookings.HasActiveBooking(ctx, actor.ID, trip.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing booking: %w", err)
		}
		if dup {
			return nil, v.reject(KindDuplicateBooking, "", nil)
		}
	}

	if seats > v.maxSeats {
		return nil, v.reject(KindSeatCapExceeded, fieldSeats, nil, v.maxSeats)
	}

	booked, err := v.bookings.SumActiveSeats(ctx, trip.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum booked seats: %w", err)
	}
	if isUpdate && existing.TripID == trip.ID {
		booked -= existing.NumberOfSeats
	}
	if booked+seats > trip.TotalSeats {
		remaining := trip.TotalSeats - booked
		if remaining < 0 {
			remaining = 0
		}
		return nil, v.reject(KindAggregateCapacityExceeded, "", &remaining, remaining)
	}

	return &Validated{
		Trip:          trip,
		NumberOfSeats: seats,
		OwnerID:       ownerID,
	}, nil
}

func (v *Validator) resolveTrip(ctx context.Context, candidate models.BookingCandidate, existing *models.Booking) (*models.Trip, error) {
	var tripID int64
	switch {
	case candidate.TripID != nil:
		tripID = *candidate.TripID
	case existing != nil:
		tripID = existing.TripID
	}
	if tripID == 0 {
		return nil, v.reject(KindMissingTrip, fieldTrip, nil)
	}

	trip, err := v.trips.GetTrip(ctx, tripID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && trip == nil) {
		return nil, v.reject(KindMissingTrip, fieldTrip, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trip %d: %w", tripID, err)
	}
	return trip, nil
}

func (v *Validator) reject(kind Kind, field string, available *int, args ...any) *ValidationError {
	return &ValidationError{
		Kind:      kind,
		Field:     field,
		Message:   message(v.locale, kind, args...),
		Available: available,
	}
}
