package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripseat/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	logger := zerolog.Nop()
	return &DB{DB: sqlDB, logger: &logger}, mock
}

func TestDB_ErrorPaths(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	t.Run("GetTrip_Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM trips t WHERE t.id = ?").WillReturnError(boom)

		_, err := db.GetTrip(ctx, 1)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListUpcomingTrips_Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM trips t").WillReturnError(boom)

		_, err := db.ListUpcomingTrips(ctx, time.Now(), 10)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("CreateBooking_BeginError", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin().WillReturnError(boom)

		err := db.CreateBooking(ctx, &models.Booking{TripID: 1, NumberOfSeats: 1})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("CreateBooking_FullTripRollsBack", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT total_seats FROM trips").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"total_seats"}).AddRow(4))
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(3))
		mock.ExpectRollback()

		err := db.CreateBooking(ctx, &models.Booking{TripID: 1, NumberOfSeats: 2})
		assert.ErrorIs(t, err, ErrNotAvailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CreateBooking_InsertError", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT total_seats FROM trips").
			WillReturnRows(sqlmock.NewRows([]string{"total_seats"}).AddRow(4))
		mock.ExpectQuery("SELECT COALESCE").
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0))
		mock.ExpectExec("INSERT INTO bookings").WillReturnError(boom)
		mock.ExpectRollback()

		err := db.CreateBooking(ctx, &models.Booking{TripID: 1, NumberOfSeats: 2})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CancelBooking_Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE bookings SET is_cancelled = 1").WillReturnError(boom)

		assert.ErrorIs(t, db.CancelBooking(ctx, 1, time.Now()), boom)
	})

	t.Run("CancelBooking_NoRows", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE bookings SET is_cancelled = 1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, db.CancelBooking(ctx, 1, time.Now()), ErrConcurrentModification)
	})

	t.Run("HasActiveBooking_Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT EXISTS").WillReturnError(boom)

		_, err := db.HasActiveBooking(ctx, 1, 1)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("SumActiveSeats_Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT COALESCE").WillReturnError(boom)

		_, err := db.SumActiveSeats(ctx, 1)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("ActiveBookingsForTrip_Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM bookings").WillReturnError(boom)

		_, err := db.ActiveBookingsForTrip(ctx, 1)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("GetUserByID_Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM users WHERE id = ?").WillReturnError(boom)

		_, err := db.GetUserByID(ctx, 1)
		assert.ErrorIs(t, err, boom)
	})
}
