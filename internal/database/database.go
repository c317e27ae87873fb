package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tripseat/internal/domain"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound               = domain.ErrNotFound
	ErrNotAvailable           = errors.New("not enough seats left on trip")
	ErrDuplicateBooking       = errors.New("user already holds an active booking on trip")
	ErrConcurrentModification = errors.New("booking was modified concurrently")
)

type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

// NewDB opens the sqlite file at path (or ":memory:") and creates the schema.
// Transactions start with BEGIN IMMEDIATE so writers queue instead of failing.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every new connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT UNIQUE NOT NULL,
            full_name TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            is_manager BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS trips (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            origin TEXT NOT NULL,
            destination TEXT NOT NULL,
            company_name TEXT NOT NULL DEFAULT '',
            price INTEGER NOT NULL DEFAULT 0,
            departure_date DATETIME NOT NULL,
            total_seats INTEGER NOT NULL CHECK (total_seats >= 0),
            created_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL REFERENCES users(id),
            trip_id INTEGER NOT NULL REFERENCES trips(id),
            booking_date DATETIME NOT NULL,
            number_of_seats INTEGER NOT NULL CHECK (number_of_seats >= 1),
            is_cancelled BOOLEAN NOT NULL DEFAULT 0,
            cancellation_date DATETIME,
            user_name TEXT NOT NULL DEFAULT '',
            user_phone_number TEXT NOT NULL DEFAULT ''
        )`,

		`CREATE INDEX IF NOT EXISTS idx_trips_departure ON trips(departure_date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_trip_order ON bookings(trip_id, is_cancelled, booking_date, id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		// one active booking per (user, trip)
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_user_trip_active
            ON bookings(user_id, trip_id) WHERE is_cancelled = 0`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}
