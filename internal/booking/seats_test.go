package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripseat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAssignSeats(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(upcomingTrip(1, 10, 10))
	a := store.add(&models.Booking{ID: 1, UserID: 1, TripID: 1, NumberOfSeats: 3, BookingDate: testNow})
	b := store.add(&models.Booking{ID: 2, UserID: 2, TripID: 1, NumberOfSeats: 2, BookingDate: testNow.Add(time.Minute)})
	assigner := NewAssigner(store)

	seats, err := assigner.AssignSeats(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seats)

	seats, err = assigner.AssignSeats(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, seats)

	// cancelling A shifts B to the front
	a.IsCancelled = true

	seats, err = assigner.AssignSeats(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, seats)
	assert.NotNil(t, seats)

	seats, err = assigner.AssignSeats(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seats)
}

func TestAssignSeatsTieBreaksOnID(t *testing.T) {
	store := newFakeStore(upcomingTrip(1, 10, 10))
	// inserted out of order with equal timestamps
	late := store.add(&models.Booking{ID: 9, TripID: 1, NumberOfSeats: 1, BookingDate: testNow})
	early := store.add(&models.Booking{ID: 4, TripID: 1, NumberOfSeats: 2, BookingDate: testNow})

	assigner := NewAssigner(store)
	seats, err := assigner.AssignSeats(context.Background(), early)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seats)

	seats, err = assigner.AssignSeats(context.Background(), late)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, seats)
}

func TestAssignSeatsEmpty(t *testing.T) {
	store := newFakeStore(upcomingTrip(1, 10, 10))
	store.add(&models.Booking{ID: 1, TripID: 1, NumberOfSeats: 2, BookingDate: testNow})
	assigner := NewAssigner(store)

	tests := []struct {
		name   string
		target *models.Booking
	}{
		{"nil", nil},
		{"unsaved", &models.Booking{TripID: 1, NumberOfSeats: 2}},
		{"not on trip", &models.Booking{ID: 42, TripID: 1, NumberOfSeats: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seats, err := assigner.AssignSeats(context.Background(), tt.target)
			require.NoError(t, err)
			assert.Equal(t, []int{}, seats)
		})
	}
}

func TestAssignSeatsReaderError(t *testing.T) {
	m := new(mockReader)
	m.On("ActiveBookingsForTrip", mock.Anything, int64(1)).Return(nil, errors.New("db down"))

	_, err := NewAssigner(m).AssignSeats(context.Background(), &models.Booking{ID: 1, TripID: 1, NumberOfSeats: 1})
	assert.Error(t, err)

	_, err = NewAssigner(m).AssignAll(context.Background(), 1)
	assert.Error(t, err)
}

func TestAssignAll(t *testing.T) {
	store := newFakeStore(upcomingTrip(1, 10, 10))
	store.add(&models.Booking{ID: 1, TripID: 1, NumberOfSeats: 3, BookingDate: testNow})
	store.add(&models.Booking{ID: 2, TripID: 1, NumberOfSeats: 1, BookingDate: testNow.Add(time.Second), IsCancelled: true})
	store.add(&models.Booking{ID: 3, TripID: 1, NumberOfSeats: 2, BookingDate: testNow.Add(2 * time.Second)})
	store.add(&models.Booking{ID: 4, TripID: 2, NumberOfSeats: 4, BookingDate: testNow})

	ranges, err := NewAssigner(store).AssignAll(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, map[int64][]int{
		1: {1, 2, 3},
		3: {4, 5},
	}, ranges)
}

func TestSeatRangesPartition(t *testing.T) {
	bookings := []*models.Booking{
		{ID: 3, NumberOfSeats: 1, BookingDate: testNow.Add(2 * time.Minute)},
		{ID: 1, NumberOfSeats: 5, BookingDate: testNow},
		{ID: 2, NumberOfSeats: 4, BookingDate: testNow.Add(time.Minute)},
	}
	ranges := SeatRanges(bookings)

	var all []int
	for _, id := range []int64{1, 2, 3} {
		all = append(all, ranges[id]...)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, all)
}
