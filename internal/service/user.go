package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tourbase/tourbase/internal/apperr"
	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/query"
	"github.com/tourbase/tourbase/internal/repository"
)

// UserService handles profile management and user administration.
type UserService struct {
	repo *repository.Repository
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.Repository) *UserService {
	return &UserService{repo: repo}
}

// GetUser returns one user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound("No user found with that ID")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfileInput defines the self-service profile fields. Password
// changes go through AuthService.UpdatePassword exclusively.
type UpdateProfileInput struct {
	Name  *string
	Email *string
	Photo *string
}

// UpdateProfile updates the caller's own name, email, or photo.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperr.Validation("Please tell us your name")
		}
		user.Name = name
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, apperr.Validation("Please provide a valid email")
		}
		user.Email = email
	}
	if input.Photo != nil {
		user.Photo = *input.Photo
	}

	if err := s.repo.UpdateUserProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, apperr.Conflict("Email already in use")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// Deactivate marks the caller's account inactive. The row stays; the
// account simply stops authenticating and listing.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	if err := s.repo.DeactivateUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("No user found with that ID")
		}
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// ListUsers runs the query pipeline over active users.
func (s *UserService) ListUsers(ctx context.Context, params url.Values) ([]query.Document, error) {
	docs, err := s.repo.ListUsers(ctx, query.Build(params))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidListQuery) {
			return nil, apperr.Validation("Invalid query parameter")
		}
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return docs, nil
}
