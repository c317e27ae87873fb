package booking

import (
	"context"
	"fmt"
	"sort"

	"tripseat/internal/domain"
	"tripseat/internal/models"
)

// Assigner derives seat numbers from booking order. Numbers are not stored:
// cancelling an earlier booking shifts every later range down.
type Assigner struct {
	bookings domain.BookingReader
}

func NewAssigner(bookings domain.BookingReader) *Assigner {
	return &Assigner{bookings: bookings}
}

// AssignSeats returns the contiguous seat numbers of target. Unsaved,
// cancelled or unknown bookings get an empty list.
func (a *Assigner) AssignSeats(ctx context.Context, target *models.Booking) ([]int, error) {
	if target == nil || target.ID == 0 || target.IsCancelled {
		return []int{}, nil
	}

	active, err := a.bookings.ActiveBookingsForTrip(ctx, target.TripID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for trip %d: %w", target.TripID, err)
	}

	cursor := 1
	for _, b := range ordered(active) {
		if b.ID == target.ID {
			return seatRange(cursor, b.NumberOfSeats), nil
		}
		cursor += b.NumberOfSeats
	}
	return []int{}, nil
}

// AssignAll returns the ranges of every active booking on the trip, keyed by booking id.
func (a *Assigner) AssignAll(ctx context.Context, tripID int64) (map[int64][]int, error) {
	active, err := a.bookings.ActiveBookingsForTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for trip %d: %w", tripID, err)
	}
	return SeatRanges(active), nil
}

// SeatRanges assigns seats over an already loaded booking set.
func SeatRanges(bookings []*models.Booking) map[int64][]int {
	out := make(map[int64][]int, len(bookings))
	cursor := 1
	for _, b := range ordered(bookings) {
		out[b.ID] = seatRange(cursor, b.NumberOfSeats)
		cursor += b.NumberOfSeats
	}
	return out
}

// ordered drops cancelled entries and sorts by (booking_date, id).
func ordered(bookings []*models.Booking) []*models.Booking {
	out := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.IsActive() {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].BookingDate.Equal(out[j].BookingDate) {
			return out[i].BookingDate.Before(out[j].BookingDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func seatRange(start, n int) []int {
	if n < 1 {
		return []int{}
	}
	seats := make([]int, n)
	for i := range seats {
		seats[i] = start + i
	}
	return seats
}
