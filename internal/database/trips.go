package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tripseat/internal/models"
)

// bookedSeatsExpr sums the active seats of trip row t.
const bookedSeatsExpr = `COALESCE((SELECT SUM(b.number_of_seats) FROM bookings b
                WHERE b.trip_id = t.id AND b.is_cancelled = 0), 0)`

const tripColumns = `t.id, t.origin, t.destination, t.company_name, t.price,
                t.departure_date, t.total_seats, t.created_at, ` + bookedSeatsExpr

func scanTrip(row rowScanner) (*models.Trip, error) {
	var trip models.Trip
	var booked int
	err := row.Scan(
		&trip.ID,
		&trip.Origin,
		&trip.Destination,
		&trip.CompanyName,
		&trip.Price,
		&trip.DepartureDate,
		&trip.TotalSeats,
		&trip.CreatedAt,
		&booked,
	)
	if err != nil {
		return nil, err
	}
	trip.AvailableSeats = trip.TotalSeats - booked
	if trip.AvailableSeats < 0 {
		trip.AvailableSeats = 0
	}
	return &trip, nil
}

// GetTrip loads a trip with AvailableSeats derived from active bookings.
func (db *DB) GetTrip(ctx context.Context, id int64) (*models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips t WHERE t.id = ?`
	trip, err := scanTrip(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// ListUpcomingTrips returns trips departing at or after now, soonest first.
func (db *DB) ListUpcomingTrips(ctx context.Context, now time.Time, limit int) ([]*models.Trip, error) {
	if limit <= 0 {
		limit = models.DefaultTripsPageSize
	}
	query := `SELECT ` + tripColumns + ` FROM trips t
              WHERE t.departure_date >= ?
              ORDER BY t.departure_date, t.id
              LIMIT ?`
	rows, err := db.QueryContext(ctx, query, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []*models.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

func (db *DB) GetAvailability(ctx context.Context, tripID int64) (*models.Availability, error) {
	trip, err := db.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return &models.Availability{
		TripID:    trip.ID,
		Total:     trip.TotalSeats,
		Booked:    trip.TotalSeats - trip.AvailableSeats,
		Available: trip.AvailableSeats,
	}, nil
}

// UpsertTrip inserts a trip, or replaces the row with the same non-zero ID.
func (db *DB) UpsertTrip(ctx context.Context, trip *models.Trip) error {
	now := time.Now().UTC()
	if trip.ID == 0 {
		query := `INSERT INTO trips (origin, destination, company_name, price, departure_date, total_seats, created_at)
                  VALUES (?, ?, ?, ?, ?, ?, ?)`
		result, err := db.ExecContext(ctx, query,
			trip.Origin, trip.Destination, trip.CompanyName, trip.Price,
			trip.DepartureDate.UTC(), trip.TotalSeats, now)
		if err != nil {
			return fmt.Errorf("failed to create trip: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		trip.ID = id
		trip.CreatedAt = now
		return nil
	}

	query := `INSERT INTO trips (id, origin, destination, company_name, price, departure_date, total_seats, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                origin = excluded.origin,
                destination = excluded.destination,
                company_name = excluded.company_name,
                price = excluded.price,
                departure_date = excluded.departure_date,
                total_seats = excluded.total_seats`
	_, err := db.ExecContext(ctx, query,
		trip.ID, trip.Origin, trip.Destination, trip.CompanyName, trip.Price,
		trip.DepartureDate.UTC(), trip.TotalSeats, now)
	if err != nil {
		return fmt.Errorf("failed to upsert trip: %w", err)
	}
	return nil
}
