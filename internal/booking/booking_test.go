package booking

import (
	"context"
	"time"

	"tripseat/internal/domain"
	"tripseat/internal/models"

	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeStore is an in-memory TripReader and BookingReader.
type fakeStore struct {
	trips    map[int64]*models.Trip
	bookings []*models.Booking
}

func newFakeStore(trips ...*models.Trip) *fakeStore {
	s := &fakeStore{trips: make(map[int64]*models.Trip)}
	for _, t := range trips {
		s.trips[t.ID] = t
	}
	return s
}

func (s *fakeStore) add(b *models.Booking) *models.Booking {
	s.bookings = append(s.bookings, b)
	return b
}

func (s *fakeStore) GetTrip(_ context.Context, id int64) (*models.Trip, error) {
	t, ok := s.trips[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) ActiveBookingsForTrip(_ context.Context, tripID int64) ([]*models.Booking, error) {
	var out []*models.Booking
	for _, b := range s.bookings {
		if b.TripID == tripID && b.IsActive() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeStore) SumActiveSeats(ctx context.Context, tripID int64) (int, error) {
	active, _ := s.ActiveBookingsForTrip(ctx, tripID)
	sum := 0
	for _, b := range active {
		sum += b.NumberOfSeats
	}
	return sum, nil
}

func (s *fakeStore) HasActiveBooking(_ context.Context, userID, tripID int64) (bool, error) {
	for _, b := range s.bookings {
		if b.UserID == userID && b.TripID == tripID && b.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

type mockReader struct {
	mock.Mock
}

func (m *mockReader) GetTrip(ctx context.Context, id int64) (*models.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *mockReader) ActiveBookingsForTrip(ctx context.Context, tripID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockReader) SumActiveSeats(ctx context.Context, tripID int64) (int, error) {
	args := m.Called(ctx, tripID)
	return args.Int(0), args.Error(1)
}

func (m *mockReader) HasActiveBooking(ctx context.Context, userID, tripID int64) (bool, error) {
	args := m.Called(ctx, userID, tripID)
	return args.Bool(0), args.Error(1)
}

func upcomingTrip(id int64, total, available int) *models.Trip {
	return &models.Trip{
		ID:             id,
		Origin:         "Damascus",
		Destination:    "Aleppo",
		CompanyName:    "Kadmous",
		Price:          15000,
		DepartureDate:  testNow.Add(48 * time.Hour),
		TotalSeats:     total,
		AvailableSeats: available,
	}
}

func seatsPtr(n int) *int { return &n }

func tripPtr(id int64) *int64 { return &id }

func boolPtr(v bool) *bool { return &v }

func userN(id int64) models.User { return models.User{ID: id, Username: "user"} }
