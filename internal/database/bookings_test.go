package database

import (
	"context"
	"testing"
	"time"

	"tripseat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	trip := seedTrip(t, db, 10, time.Now().Add(24*time.Hour))
	alice := seedUser(t, db, "alice")

	b := &models.Booking{
		UserID:          alice.ID,
		TripID:          trip.ID,
		NumberOfSeats:   2,
		UserName:        "Alice",
		UserPhoneNumber: "+963911111111",
	}
	require.NoError(t, db.CreateBooking(ctx, b))
	assert.NotZero(t, b.ID)
	assert.False(t, b.BookingDate.IsZero())

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.UserID)
	assert.Equal(t, 2, got.NumberOfSeats)
	assert.Equal(t, "Alice", got.UserName)
	assert.False(t, got.IsCancelled)
	assert.Nil(t, got.CancellationDate)
	assert.WithinDuration(t, b.BookingDate, got.BookingDate, time.Millisecond)

	_, err = db.GetBooking(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBookingCapacity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	trip := seedTrip(t, db, 3, time.Now().Add(24*time.Hour))
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	require.NoError(t, db.CreateBooking(ctx, &models.Booking{UserID: alice.ID, TripID: trip.ID, NumberOfSeats: 2}))

	err := db.CreateBooking(ctx, &models.Booking{UserID: bob.ID, TripID: trip.ID, NumberOfSeats: 2})
	assert.ErrorIs(t, err, ErrNotAvailable)

	err = db.CreateBooking(ctx, &models.Booking{UserID: bob.ID, TripID: 999, NumberOfSeats: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBookingDuplicate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	trip := seedTrip(t, db, 10, time.Now().Add(24*time.Hour))
	alice := seedUser(t, db, "alice")

	first := &models.Booking{UserID: alice.ID, TripID: trip.ID, NumberOfSeats: 1}
	require.NoError(t, db.CreateBooking(ctx, first))

	err := db.CreateBooking(ctx, &models.Booking{UserID: alice.ID, TripID: trip.ID, NumberOfSeats: 1})
	assert.ErrorIs(t, err, ErrDuplicateBooking)

	// after cancelling, the user may book again
	require.NoError(t, db.CancelBooking(ctx, first.ID, time.Now()))
	assert.NoError(t, db.CreateBooking(ctx, &models.Booking{UserID: alice.ID, TripID: trip.ID, NumberOfSeats: 1}))
}

func TestActiveBookingsOrderAndSums(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	trip := seedTrip(t, db, 10, time.Now().Add(24*time.Hour))
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	base := time.Now().UTC().Truncate(time.Second)
	a := &models.Booking{UserID: alice.ID, TripID: trip.ID, NumberOfSeats: 3, BookingDate: base}
	b := &models.Booking{UserID: bob.ID, TripID: trip.ID, NumberOfSeats: 2, BookingDate: base.Add(time.Minute)}
	c := &models.Booking{UserID: carol.ID, TripID: trip.ID, NumberOfSeats: 1, BookingDate: base}
	for _, bk := range []*models.Booking{a, b, c} {
		require.NoError(t, db.CreateBooking(ctx, bk))
	}

	active, err := db.ActiveBookingsForTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, active, 3)
	// equal timestamps break on id
	assert.Equal(t, []int64{a.ID, c.ID, b.ID}, []int64{active[0].ID, active[1].ID, active[2].ID})

	sum, err := db.SumActiveSeats(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, sum)

	has, err := db.HasActiveBooking(ctx, bob.ID, trip.ID)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, db.CancelBooking(ctx, a.ID, time.Now()))

	active, err = db.ActiveBookingsForTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	sum, err = db.SumActiveSeats(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, sum)

	has, err = db.HasActiveBooking(ctx, alice.ID, trip.ID)
	require.NoError(t, err)
	assert.False(t, has)

	sum, err = db.SumActiveSeats(ctx, 999)
	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestCancelBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	trip := seedTrip(t, db, 10, time.Now().Add(24*time.Hour))
	alice := seedUser(t, db, "alice")
	b := &models.Booking{UserID: alice.ID, TripID: trip.ID, NumberOfSeats: 2}
	require.NoError(t, db.CreateBooking(ctx, b))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.CancelBooking(ctx, b.ID, at))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCancelled)
	require.NotNil(t, got.CancellationDate)
	assert.True(t, at.Equal(*got.CancellationDate))

	assert.ErrorIs(t, db.CancelBooking(ctx, b.ID, at), ErrConcurrentModification)
}

func TestUpdateBookingSeats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	trip := seedTrip(t, db, 5, time.Now().Add(24*time.Hour))
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	a := &models.Booking{UserID: alice.ID, TripID: trip.ID, NumberOfSeats: 2}
	require.NoError(t, db.CreateBooking(ctx, a))
	require.NoError(t, db.CreateBooking(ctx, &models.Booking{UserID: bob.ID, TripID: trip.ID, NumberOfSeats: 2}))

	// own 2 seats are replaced, not added
	require.NoError(t, db.UpdateBookingSeats(ctx, a.ID, trip.ID, 3))
	got, err := db.GetBooking(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.NumberOfSeats)

	assert.ErrorIs(t, db.UpdateBookingSeats(ctx, a.ID, trip.ID, 4), ErrNotAvailable)

	require.NoError(t, db.CancelBooking(ctx, a.ID, time.Now()))
	assert.ErrorIs(t, db.UpdateBookingSeats(ctx, a.ID, trip.ID, 1), ErrConcurrentModification)
}

func TestGetUserBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t1 := seedTrip(t, db, 10, time.Now().Add(24*time.Hour))
	t2 := seedTrip(t, db, 10, time.Now().Add(48*time.Hour))
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	base := time.Now().UTC()
	older := &models.Booking{UserID: alice.ID, TripID: t1.ID, NumberOfSeats: 1, BookingDate: base}
	newer := &models.Booking{UserID: alice.ID, TripID: t2.ID, NumberOfSeats: 1, BookingDate: base.Add(time.Hour)}
	require.NoError(t, db.CreateBooking(ctx, older))
	require.NoError(t, db.CreateBooking(ctx, newer))
	require.NoError(t, db.CreateBooking(ctx, &models.Booking{UserID: bob.ID, TripID: t1.ID, NumberOfSeats: 1}))
	require.NoError(t, db.CancelBooking(ctx, older.ID, time.Now()))

	bookings, err := db.GetUserBookings(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, newer.ID, bookings[0].ID)
	assert.Equal(t, older.ID, bookings[1].ID)
	assert.True(t, bookings[1].IsCancelled)
}
