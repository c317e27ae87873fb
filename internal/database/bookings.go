package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tripseat/internal/models"
)

const bookingColumns = `id, user_id, trip_id, booking_date, number_of_seats,
                is_cancelled, cancellation_date, user_name, user_phone_number`

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var cancelledAt sql.NullTime
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.TripID,
		&b.BookingDate,
		&b.NumberOfSeats,
		&b.IsCancelled,
		&cancelledAt,
		&b.UserName,
		&b.UserPhoneNumber,
	)
	if err != nil {
		return nil, err
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancellationDate = &t
	}
	return &b, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// GetUserBookings returns every booking of the user, newest first.
func (db *DB) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE user_id = ?
              ORDER BY booking_date DESC, id DESC`
	bookings, err := db.queryBookings(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	return bookings, nil
}

// ActiveBookingsForTrip returns non-cancelled bookings in seat order.
func (db *DB) ActiveBookingsForTrip(ctx context.Context, tripID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE trip_id = ? AND is_cancelled = 0
              ORDER BY booking_date, id`
	bookings, err := db.queryBookings(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trip bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) SumActiveSeats(ctx context.Context, tripID int64) (int, error) {
	return sumActiveSeats(ctx, db, tripID)
}

func (db *DB) HasActiveBooking(ctx context.Context, userID, tripID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM bookings WHERE user_id = ? AND trip_id = ? AND is_cancelled = 0)`
	var exists bool
	if err := db.QueryRowContext(ctx, query, userID, tripID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active booking: %w", err)
	}
	return exists, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sumActiveSeats(ctx context.Context, q queryRower, tripID int64) (int, error) {
	query := `SELECT COALESCE(SUM(number_of_seats), 0) FROM bookings WHERE trip_id = ? AND is_cancelled = 0`
	var sum int
	if err := q.QueryRowContext(ctx, query, tripID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum active seats: %w", err)
	}
	return sum, nil
}

// checkCapacity re-reads the trip inside tx. exclude is a booking whose
// seats are being replaced, 0 for none.
func checkCapacity(ctx context.Context, tx *sql.Tx, tripID, exclude int64, seats int) error {
	var total int
	err := tx.QueryRowContext(ctx, `SELECT total_seats FROM trips WHERE id = ?`, tripID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get trip seats in tx: %w", err)
	}

	booked, err := sumActiveSeats(ctx, tx, tripID)
	if err != nil {
		return err
	}
	if exclude != 0 {
		var own int
		err := tx.QueryRowContext(ctx,
			`SELECT number_of_seats FROM bookings WHERE id = ? AND trip_id = ? AND is_cancelled = 0`,
			exclude, tripID).Scan(&own)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to get booking seats in tx: %w", err)
		}
		booked -= own
	}

	if booked+seats > total {
		return ErrNotAvailable
	}
	return nil
}

// CreateBooking inserts an active booking after re-checking trip capacity in
// the same transaction. BookingDate is stamped when zero.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := checkCapacity(ctx, tx, booking.TripID, 0, booking.NumberOfSeats); err != nil {
		return err
	}

	if booking.BookingDate.IsZero() {
		booking.BookingDate = time.Now()
	}
	booking.BookingDate = booking.BookingDate.UTC()

	query := `INSERT INTO bookings (
                user_id, trip_id, booking_date, number_of_seats,
                is_cancelled, user_name, user_phone_number
            ) VALUES (?, ?, ?, ?, 0, ?, ?)`
	result, err := tx.ExecContext(ctx, query,
		booking.UserID,
		booking.TripID,
		booking.BookingDate,
		booking.NumberOfSeats,
		booking.UserName,
		booking.UserPhoneNumber,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateBooking
	}
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	booking.ID = id
	booking.IsCancelled = false
	booking.CancellationDate = nil
	return nil
}

// UpdateBookingSeats moves an active booking to tripID with the given seat count.
func (db *DB) UpdateBookingSeats(ctx context.Context, id, tripID int64, seats int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := checkCapacity(ctx, tx, tripID, id, seats); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET trip_id = ?, number_of_seats = ? WHERE id = ? AND is_cancelled = 0`,
		tripID, seats, id)
	if isUniqueViolation(err) {
		return ErrDuplicateBooking
	}
	if err != nil {
		return fmt.Errorf("failed to update booking seats: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrConcurrentModification
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking update: %w", err)
	}
	return nil
}

// CancelBooking flips is_cancelled once; a second call reports ErrConcurrentModification.
func (db *DB) CancelBooking(ctx context.Context, id int64, at time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET is_cancelled = 1, cancellation_date = ? WHERE id = ? AND is_cancelled = 0`,
		at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}
