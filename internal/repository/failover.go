package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"tripseat/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverTripLocker uses primary until it errors, then fallback, and retries
// primary once per recoveryInterval. Contention is not treated as an outage.
type FailoverTripLocker struct {
	primary   domain.TripLocker
	fallback  domain.TripLocker
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverTripLocker(primary, fallback domain.TripLocker, logger *zerolog.Logger) *FailoverTripLocker {
	return &FailoverTripLocker{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (l *FailoverTripLocker) Lock(ctx context.Context, tripID int64) (func(), error) {
	if l.isDown.Load() && time.Since(time.Unix(0, l.lastCheck.Load())) > recoveryInterval {
		l.lastCheck.Store(time.Now().UnixNano())
		unlock, err := l.primary.Lock(ctx, tripID)
		if err == nil {
			l.isDown.Store(false)
			l.logger.Info().Msg("Primary trip locker recovered")
			return unlock, nil
		}
		if isContention(err) {
			return nil, err
		}
	}

	if !l.isDown.Load() {
		unlock, err := l.primary.Lock(ctx, tripID)
		if err == nil || isContention(err) {
			return unlock, err
		}
		l.logger.Error().Err(err).Msg("Primary trip locker failed, falling back to memory")
		l.isDown.Store(true)
		l.lastCheck.Store(time.Now().UnixNano())
	}

	return l.fallback.Lock(ctx, tripID)
}

func isContention(err error) bool {
	return errors.Is(err, ErrLockTimeout) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
