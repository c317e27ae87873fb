package service

import (
	"context"

	"tripseat/internal/domain"
	"tripseat/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.UserRepository
	logger *zerolog.Logger
}

func NewUserService(repo domain.UserRepository, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// Resolve loads the acting user named by an authenticated request. Manager
// rights come from the stored row, never from the token.
func (s *UserService) Resolve(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		s.logger.Debug().Err(err).Int64("user_id", id).Msg("Failed to resolve user")
		return nil, err
	}
	return u, nil
}
