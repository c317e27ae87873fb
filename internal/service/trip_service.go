package service

import (
	"context"
	"time"

	"tripseat/internal/booking"
	"tripseat/internal/domain"
	"tripseat/internal/models"

	"github.com/rs/zerolog"
)

type TripService struct {
	trips    domain.TripRepository
	bookings domain.BookingReader
	pageSize int
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewTripService(trips domain.TripRepository, bookings domain.BookingReader, pageSize int, logger *zerolog.Logger) *TripService {
	if pageSize <= 0 {
		pageSize = models.DefaultTripsPageSize
	}
	return &TripService{
		trips:    trips,
		bookings: bookings,
		pageSize: pageSize,
		logger:   logger,
		now:      time.Now,
	}
}

// ListUpcoming returns trips that have not departed yet.
func (s *TripService) ListUpcoming(ctx context.Context) ([]*models.Trip, error) {
	trips, err := s.trips.ListUpcomingTrips(ctx, s.now(), s.pageSize)
	if err != nil {
		return nil, err
	}
	if trips == nil {
		trips = []*models.Trip{}
	}
	return trips, nil
}

func (s *TripService) GetTrip(ctx context.Context, id int64) (*models.Trip, error) {
	return s.trips.GetTrip(ctx, id)
}

// Manifest returns the trip, its active bookings in seat order and their seat ranges.
func (s *TripService) Manifest(ctx context.Context, tripID int64) (*models.Trip, []*models.Booking, map[int64][]int, error) {
	trip, err := s.trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, nil, nil, err
	}
	active, err := s.bookings.ActiveBookingsForTrip(ctx, tripID)
	if err != nil {
		return nil, nil, nil, err
	}
	ranges := booking.SeatRanges(active)

	s.logger.Debug().Int64("trip_id", tripID).Int("bookings", len(active)).Msg("Manifest built")
	return trip, active, ranges, nil
}
