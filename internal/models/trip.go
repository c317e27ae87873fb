package models

import "time"

// Trip is owned by trip management; this service only reads it.
// Price is stored in minor currency units.
type Trip struct {
	ID             int64     `json:"id" yaml:"id"`
	Origin         string    `json:"origin" yaml:"origin"`
	Destination    string    `json:"destination" yaml:"destination"`
	CompanyName    string    `json:"company_name" yaml:"company_name"`
	Price          int64     `json:"price" yaml:"price"`
	DepartureDate  time.Time `json:"departure_date" yaml:"departure_date"`
	TotalSeats     int       `json:"total_seats" yaml:"total_seats"`
	AvailableSeats int       `json:"available_seats" yaml:"-"`
	CreatedAt      time.Time `json:"created_at" yaml:"-"`
}

// HasDeparted reports whether the trip left before now.
func (t *Trip) HasDeparted(now time.Time) bool {
	return t.DepartureDate.Before(now)
}

// TotalPrice returns the cost of the given number of seats.
func (t *Trip) TotalPrice(seats int) int64 {
	if t == nil || seats <= 0 {
		return 0
	}
	return t.Price * int64(seats)
}

type Availability struct {
	TripID    int64 `json:"trip_id"`
	Total     int   `json:"total"`
	Booked    int   `json:"booked"`
	Available int   `json:"available"`
}
