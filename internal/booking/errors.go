package booking

// Kind identifies which booking rule rejected a request.
type Kind string

const (
	KindMissingTrip                Kind = "missing_trip"
	KindTripAlreadyDeparted        Kind = "trip_already_departed"
	KindMissingSeatCount           Kind = "missing_seat_count"
	KindInvalidSeatCount           Kind = "invalid_seat_count"
	KindInsufficientAvailableSeats Kind = "insufficient_available_seats"
	KindDuplicateBooking           Kind = "duplicate_booking"
	KindSeatCapExceeded            Kind = "seat_cap_exceeded"
	KindAggregateCapacityExceeded  Kind = "aggregate_capacity_exceeded"
	KindAlreadyCancelled           Kind = "already_cancelled"
)

// Sentinels for errors.Is; they match any ValidationError of the same kind.
var (
	ErrMissingTrip                = &ValidationError{Kind: KindMissingTrip}
	ErrTripAlreadyDeparted        = &ValidationError{Kind: KindTripAlreadyDeparted}
	ErrMissingSeatCount           = &ValidationError{Kind: KindMissingSeatCount}
	ErrInvalidSeatCount           = &ValidationError{Kind: KindInvalidSeatCount}
	ErrInsufficientAvailableSeats = &ValidationError{Kind: KindInsufficientAvailableSeats}
	ErrDuplicateBooking           = &ValidationError{Kind: KindDuplicateBooking}
	ErrSeatCapExceeded            = &ValidationError{Kind: KindSeatCapExceeded}
	ErrAggregateCapacityExceeded  = &ValidationError{Kind: KindAggregateCapacityExceeded}
	ErrAlreadyCancelled           = &ValidationError{Kind: KindAlreadyCancelled}
)

// ValidationError is a business-rule rejection. Kind is the stable contract;
// Message is localized and meant for people.
type ValidationError struct {
	Kind    Kind
	Field   string
	Message string
	// Available is the seat count reported by capacity rules, nil otherwise.
	Available *int
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}
