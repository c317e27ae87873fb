package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripseat/internal/booking"
	"tripseat/internal/config"
	"tripseat/internal/domain"
	"tripseat/internal/events"
	"tripseat/internal/metrics"
	"tripseat/internal/models"

	"github.com/rs/zerolog"
)

// ErrForbidden is returned when the actor neither owns the booking nor manages trips.
var ErrForbidden = errors.New("forbidden")

type BookingService struct {
	bookings  domain.BookingRepository
	trips     domain.TripReader
	users     domain.UserRepository
	locker    domain.TripLocker
	eventBus  domain.EventPublisher
	validator *booking.Validator
	assigner  *booking.Assigner
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewBookingService(
	bookings domain.BookingRepository,
	trips domain.TripReader,
	users domain.UserRepository,
	locker domain.TripLocker,
	eventBus domain.EventPublisher,
	cfg config.BookingConfig,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		trips:     trips,
		users:     users,
		locker:    locker,
		eventBus:  eventBus,
		validator: booking.NewValidator(trips, bookings, cfg.MaxSeatsPerBooking, cfg.Locale),
		assigner:  booking.NewAssigner(bookings),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *BookingService) CreateBooking(ctx context.Context, actor models.User, candidate models.BookingCandidate) (*models.BookingView, error) {
	var created *models.Booking

	err := s.withTripLock(ctx, candidate.TripID, 0, func() error {
		now := s.now()
		v, err := s.validator.Validate(ctx, candidate, nil, actor, now)
		if err != nil {
			return err
		}

		b := &models.Booking{
			UserID:          v.OwnerID,
			TripID:          v.Trip.ID,
			BookingDate:     now,
			NumberOfSeats:   v.NumberOfSeats,
			UserName:        actor.DisplayName(),
			UserPhoneNumber: actor.Phone,
		}
		if candidate.UserName != nil {
			b.UserName = *candidate.UserName
		}
		if candidate.UserPhoneNumber != nil {
			b.UserPhoneNumber = *candidate.UserPhoneNumber
		}
		if err := s.bookings.CreateBooking(ctx, b); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		created = b
		return nil
	})
	if err != nil {
		s.observeRejection(err)
		return nil, err
	}

	metrics.IncBookingCreated(created.NumberOfSeats)
	// trip reloaded so available seats include this booking
	view, err := s.buildView(ctx, actor, created, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", created.ID).
		Int64("trip_id", created.TripID).
		Int64("user_id", created.UserID).
		Int("seats", created.NumberOfSeats).
		Msg("Booking created")
	s.publishEvent(events.EventBookingCreated, created, view.TripDetails, view.AssignedSeats, 0, actor.ID)
	return view, nil
}

// UpdateBooking applies a partial update. Setting is_cancelled to true cancels
// the booking and ignores every other field.
func (s *BookingService) UpdateBooking(ctx context.Context, actor models.User, id int64, candidate models.BookingCandidate) (*models.BookingView, error) {
	existing, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	var validated *booking.Validated
	previousSeats := existing.NumberOfSeats

	err = s.withTripLock(ctx, candidate.TripID, existing.TripID, func() error {
		// re-read under the lock
		current, err := s.bookings.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		v, err := s.validator.Validate(ctx, candidate, current, actor, now)
		if err != nil {
			return err
		}
		validated = v

		if v.Cancel {
			if err := s.bookings.CancelBooking(ctx, id, now); err != nil {
				return fmt.Errorf("failed to cancel booking: %w", err)
			}
			return nil
		}
		if v.NumberOfSeats == current.NumberOfSeats && v.Trip.ID == current.TripID {
			return nil
		}
		if err := s.bookings.UpdateBookingSeats(ctx, id, v.Trip.ID, v.NumberOfSeats); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		return nil
	})
	if err != nil {
		s.observeRejection(err)
		return nil, err
	}

	updated, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload booking: %w", err)
	}
	view, err := s.buildView(ctx, actor, updated, nil)
	if err != nil {
		return nil, err
	}

	if validated.Cancel {
		metrics.IncBookingCancelled()
		s.logger.Info().Int64("booking_id", id).Int64("actor_id", actor.ID).Msg("Booking cancelled")
		s.publishEvent(events.EventBookingCancelled, updated, view.TripDetails, nil, previousSeats, actor.ID)
	} else {
		s.logger.Info().Int64("booking_id", id).Int("seats", updated.NumberOfSeats).Msg("Booking updated")
		s.publishEvent(events.EventBookingUpdated, updated, view.TripDetails, view.AssignedSeats, previousSeats, actor.ID)
	}
	return view, nil
}

func (s *BookingService) GetBooking(ctx context.Context, actor models.User, id int64) (*models.BookingView, error) {
	b, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, actor, b, nil)
}

// ListUserBookings returns the actor's bookings, newest first, cancelled included.
func (s *BookingService) ListUserBookings(ctx context.Context, actor models.User) ([]*models.BookingView, error) {
	list, err := s.bookings.GetUserBookings(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	trips := make(map[int64]*models.Trip)
	views := make([]*models.BookingView, 0, len(list))
	for _, b := range list {
		trip, ok := trips[b.TripID]
		if !ok {
			trip, err = s.trips.GetTrip(ctx, b.TripID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			trips[b.TripID] = trip
		}
		view, err := s.buildView(ctx, actor, b, trip)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *BookingService) loadOwned(ctx context.Context, actor models.User, id int64) (*models.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.ID && !actor.IsManager {
		return nil, ErrForbidden
	}
	return b, nil
}

// withTripLock runs fn while holding the lock of the requested trip, or of
// fallbackTrip when none was requested. Without any trip fn runs unlocked and
// fails validation.
func (s *BookingService) withTripLock(ctx context.Context, requested *int64, fallbackTrip int64, fn func() error) error {
	tripID := fallbackTrip
	if requested != nil {
		tripID = *requested
	}
	if tripID == 0 || s.locker == nil {
		return fn()
	}

	start := time.Now()
	unlock, err := s.locker.Lock(ctx, tripID)
	metrics.ObserveLockWait(time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn().Err(err).Int64("trip_id", tripID).Msg("Failed to acquire trip lock")
		return err
	}
	defer unlock()
	return fn()
}

func (s *BookingService) buildView(ctx context.Context, actor models.User, b *models.Booking, trip *models.Trip) (*models.BookingView, error) {
	if trip == nil || trip.ID != b.TripID {
		t, err := s.trips.GetTrip(ctx, b.TripID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		trip = t
	}

	seats, err := s.assigner.AssignSeats(ctx, b)
	if err != nil {
		return nil, err
	}

	return &models.BookingView{
		Booking:       *b,
		User:          s.username(ctx, actor, b.UserID),
		TripDetails:   trip,
		TotalPrice:    trip.TotalPrice(b.NumberOfSeats),
		AssignedSeats: seats,
	}, nil
}

func (s *BookingService) username(ctx context.Context, actor models.User, userID int64) string {
	if userID == actor.ID {
		return actor.Username
	}
	if s.users == nil {
		return ""
	}
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Debug().Err(err).Int64("user_id", userID).Msg("Owner lookup failed")
		return ""
	}
	return u.Username
}

func (s *BookingService) observeRejection(err error) {
	var verr *booking.ValidationError
	if errors.As(err, &verr) {
		metrics.IncBookingRejected(string(verr.Kind))
	}
}

func (s *BookingService) publishEvent(eventType string, b *models.Booking, trip *models.Trip, seats []int, previousSeats int, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:     b.ID,
		UserID:        b.UserID,
		TripID:        b.TripID,
		Seats:         b.NumberOfSeats,
		PreviousSeats: previousSeats,
		AssignedSeats: seats,
		ChangedByID:   changedByID,
	}
	if trip != nil {
		payload.Route = trip.Origin + " - " + trip.Destination
		payload.DepartureDate = trip.DepartureDate
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", b.ID).Msg("publish event error")
	}
}
