package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/dto"
	"github.com/debtcleaner/debtcleaner-api/internal/repository"
)

// UserService exposes user profiles and the admin role-management surface.
type UserService interface {
	Profile(ctx context.Context, id uint) (dto.UserResponse, error)
	List(ctx context.Context) ([]dto.UserResponse, error)
	UpdateRole(ctx context.Context, id uint, payload dto.UserRoleUpdateRequest) (dto.UserResponse, error)
}

type userService struct {
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) Profile(ctx context.Context, id uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *userService) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.NewUserResponse(user))
	}

	return responses, nil
}

func (s *userService) UpdateRole(ctx context.Context, id uint, payload dto.UserRoleUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	if err := s.users.UpdateRole(ctx, id, payload.Role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", id).Str("role", payload.Role).Msg("user role updated")

	return dto.NewUserResponse(user), nil
}
